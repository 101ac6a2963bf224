package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pharos-russia-nft/internal/cli"
)

var version = "dev"

// main 是 pharosd 的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
