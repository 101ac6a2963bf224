package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pharos-russia-nft/internal/config"
	"pharos-russia-nft/pkg/logger"
)

// EnvConfigPath 指定 YAML 配置文件路径，可被 --config 覆盖。
const EnvConfigPath = "PHAROSD_CONFIG"

var version = "dev"

// SetVersion 由 main 在构建时注入版本号。
func SetVersion(v string) {
	version = v
}

type options struct {
	configPath string
	port       string
	cfg        *config.Config
}

// NewRootCommand 构造 pharosd 命令树。未指定子命令时等同于 serve。
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pharosd",
		Short: "Pharos Russia NFT minting backend",
		Long: `pharosd serves the minting page, the PHAROS chain configuration and
per-token NFT metadata for marketplace indexers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("加载配置失败: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.SetPort(opts.port)
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			opts.cfg = cfg
			return logger.Init(logger.Config{
				Level:       cfg.Log.Level,
				Format:      cfg.Log.Format,
				OutputPaths: cfg.Log.Outputs,
				Access: logger.AccessConfig{
					Enabled:    cfg.Log.Access.Enabled,
					Path:       cfg.Log.Access.Path,
					MaxSizeMB:  cfg.Log.Access.MaxSizeMB,
					MaxBackups: cfg.Log.Access.MaxBackups,
					MaxAgeDays: cfg.Log.Access.MaxAgeDays,
					Compress:   cfg.Log.Access.Compress,
				},
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv(EnvConfigPath), "path to YAML config file")
	root.PersistentFlags().StringVar(&opts.port, "port", "", "listen port, overrides config and PORT")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newMetadataCommand(opts))
	root.AddCommand(newConfigCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// Execute 运行命令树直到 ctx 取消。
func Execute(ctx context.Context) error {
	defer func() { _ = logger.Sync() }()
	return NewRootCommand().ExecuteContext(ctx)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pharosd %s\n", version)
		},
	}
}
