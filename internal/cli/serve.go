package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"pharos-russia-nft/internal/api"
	"pharos-russia-nft/internal/chain"
	"pharos-russia-nft/internal/config"
	"pharos-russia-nft/internal/nft"
	"pharos-russia-nft/internal/observability/metrics"
	"pharos-russia-nft/pkg/logger"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}
}

// runServe 启动 HTTP 服务，直到 ctx 被信号取消。
func runServe(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("配置未加载")
	}
	log := logger.Named("pharosd")

	if err := chain.CheckContractAddress(cfg.Chain.ContractAddress); err != nil {
		log.Warn("合约地址未正确配置", slog.String("contract_address", cfg.Chain.ContractAddress), slog.Any("error", err))
	}
	if cfg.Session.Secret == config.DefaultSessionSecret {
		log.Debug("SESSION_SECRET 使用默认值")
	}
	if cfg.Web3.VerifyChain {
		verifyChain(ctx, log, cfg)
	}

	opts := []api.Option{
		api.WithStaticDir(cfg.Server.StaticDir),
		api.WithTrustedProxyHops(cfg.Server.TrustedProxyHops),
		api.WithShutdownTimeout(time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, api.WithMetrics(metrics.New(), cfg.Metrics.Path))
	}

	server := api.NewServer(cfg.Server.Address, nft.NewResponder(cfg), opts...)
	return server.Start(ctx)
}

// verifyChain 只读探测 RPC 节点，结果仅记录日志，不阻止启动。
func verifyChain(ctx context.Context, log *slog.Logger, cfg *config.Config) {
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Web3.TimeoutSeconds)*time.Second)
	defer cancel()

	snap, err := chain.NewProber().Verify(probeCtx, cfg.Chain.RPCURL, chain.PharosTestnet)
	if err != nil {
		log.Warn("RPC 节点校验失败", slog.String("rpc_url", cfg.Chain.RPCURL), slog.Any("error", err))
		return
	}
	log.Info("RPC 节点校验通过",
		slog.String("rpc_url", cfg.Chain.RPCURL),
		slog.String("chain_id", snap.ChainID.String()),
		slog.Uint64("block_number", snap.BlockNumber),
	)
}
