package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	xerrors "pharos-russia-nft/internal/errors"
)

// 环境变量名称，与原有部署保持一致。
const (
	EnvContractAddress = "CONTRACT_ADDRESS"
	EnvPharosRPC       = "PHAROS_RPC"
	EnvSessionSecret   = "SESSION_SECRET"
	EnvPort            = "PORT"
	EnvLogLevel        = "LOG_LEVEL"
)

// 默认值。
const (
	DefaultListenHost      = "0.0.0.0"
	DefaultPort            = "5000"
	DefaultContractAddress = "PASTE_CONTRACT_ADDRESS_HERE"
	DefaultRPCURL          = "https://rpc.testnet.pharos.network"
	DefaultSessionSecret   = "pharos-russia-nft-secret-key"
	DefaultStaticDir       = "static"
	DefaultMetricsPath     = "/metrics"
	DefaultLogLevel        = "debug"
	DefaultLogFormat       = "json"

	DefaultNamePrefix  = "Pharos Russia #"
	DefaultDescription = "Эксклюзивный NFT-бейдж для российских пользователей блокчейна PHAROS. Символ принадлежности к инновационному сообществу децентрализованных технологий. Присоединяйтесь к нашему сообществу: https://t.me/hrumdrops"
	DefaultExternalURL = "https://t.me/hrumdrops"
	DefaultImagePath   = "/static/images/pharosRussia.jpg"
	DefaultMinTokenID  = 1
	DefaultMaxTokenID  = 10000
)

// Config 描述了服务在启动阶段需要加载的全部配置。
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Chain      ChainConfig      `yaml:"chain"`
	Collection CollectionConfig `yaml:"collection"`
	Session    SessionConfig    `yaml:"session"`
	Log        LogConfig        `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Web3       Web3Config       `yaml:"web3"`
}

// ServerConfig 控制 HTTP 服务的监听地址等参数。
type ServerConfig struct {
	Address                string `yaml:"address"`
	StaticDir              string `yaml:"static_dir"`
	TrustedProxyHops       int    `yaml:"trusted_proxy_hops"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// ChainConfig 保存前端铸造页面需要的链上参数中可由部署方覆盖的部分。
type ChainConfig struct {
	ContractAddress string `yaml:"contract_address"`
	RPCURL          string `yaml:"rpc_url"`
}

// CollectionConfig 描述元数据文档的固定文案与 token 范围。
type CollectionConfig struct {
	NamePrefix  string `yaml:"name_prefix"`
	Description string `yaml:"description"`
	ExternalURL string `yaml:"external_url"`
	ImagePath   string `yaml:"image_path"`
	MinTokenID  uint64 `yaml:"min_token_id"`
	MaxTokenID  uint64 `yaml:"max_token_id"`
}

// SessionConfig 仅保留会话密钥，服务本身不维护会话。
type SessionConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig 对应 pkg/logger 的初始化参数。
type LogConfig struct {
	Level   string          `yaml:"level"`
	Format  string          `yaml:"format"`
	Outputs []string        `yaml:"outputs"`
	Access  AccessLogConfig `yaml:"access"`
}

// AccessLogConfig 控制访问日志的落盘与滚动。
type AccessLogConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig 控制 Prometheus 指标的暴露。
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Web3Config 控制启动时对 RPC 节点的只读探测。
type Web3Config struct {
	VerifyChain    bool `yaml:"verify_chain"`
	TimeoutSeconds int  `yaml:"timeout_seconds"`
}

// Default 返回仅包含默认值的配置。
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:                net.JoinHostPort(DefaultListenHost, DefaultPort),
			StaticDir:              DefaultStaticDir,
			TrustedProxyHops:       1,
			ShutdownTimeoutSeconds: 5,
		},
		Chain: ChainConfig{
			ContractAddress: DefaultContractAddress,
			RPCURL:          DefaultRPCURL,
		},
		Collection: CollectionConfig{
			NamePrefix:  DefaultNamePrefix,
			Description: DefaultDescription,
			ExternalURL: DefaultExternalURL,
			ImagePath:   DefaultImagePath,
			MinTokenID:  DefaultMinTokenID,
			MaxTokenID:  DefaultMaxTokenID,
		},
		Session: SessionConfig{Secret: DefaultSessionSecret},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{Enabled: true, Path: DefaultMetricsPath},
		Web3:    Web3Config{TimeoutSeconds: 5},
	}
}

// Load 依次应用默认值、YAML 配置文件以及环境变量。path 为空时跳过配置文件。
func Load(path string) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "读取配置文件失败",
				xerrors.WithMetadata("path", path))
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(content))), cfg); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeConfiguration, err, "解析配置失败",
				xerrors.WithMetadata("path", path))
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 使用非空的环境变量覆盖配置。
func (c *Config) applyEnv() {
	if v := getEnv(EnvContractAddress); v != "" {
		c.Chain.ContractAddress = v
	}
	if v := getEnv(EnvPharosRPC); v != "" {
		c.Chain.RPCURL = v
	}
	if v := getEnv(EnvSessionSecret); v != "" {
		c.Session.Secret = v
	}
	if v := getEnv(EnvPort); v != "" {
		c.SetPort(strings.TrimSpace(v))
	}
	if v := getEnv(EnvLogLevel); v != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
}

// applyDefaults 在配置文件显式写入空字符串时恢复默认值。
func (c *Config) applyDefaults() {
	d := Default()

	if strings.TrimSpace(c.Server.Address) == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = d.Server.StaticDir
	}
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		c.Server.ShutdownTimeoutSeconds = d.Server.ShutdownTimeoutSeconds
	}
	if strings.TrimSpace(c.Chain.ContractAddress) == "" {
		c.Chain.ContractAddress = d.Chain.ContractAddress
	}
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		c.Chain.RPCURL = d.Chain.RPCURL
	}
	if c.Collection.NamePrefix == "" {
		c.Collection.NamePrefix = d.Collection.NamePrefix
	}
	if c.Collection.Description == "" {
		c.Collection.Description = d.Collection.Description
	}
	if c.Collection.ExternalURL == "" {
		c.Collection.ExternalURL = d.Collection.ExternalURL
	}
	if c.Collection.ImagePath == "" {
		c.Collection.ImagePath = d.Collection.ImagePath
	}
	if c.Session.Secret == "" {
		c.Session.Secret = d.Session.Secret
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Web3.TimeoutSeconds <= 0 {
		c.Web3.TimeoutSeconds = d.Web3.TimeoutSeconds
	}
	if !strings.HasPrefix(c.Collection.ImagePath, "/") {
		c.Collection.ImagePath = "/" + c.Collection.ImagePath
	}
}

// SetPort 仅替换监听地址中的端口部分。
func (c *Config) SetPort(port string) {
	host := DefaultListenHost
	if h, _, err := net.SplitHostPort(c.Server.Address); err == nil {
		host = h
	}
	c.Server.Address = net.JoinHostPort(host, strings.TrimPrefix(port, ":"))
}

// 由 HTTP 服务占用的路由，指标路径不能与之重叠。
var (
	reservedRoutes  = []string{"/", "/health", "/api/config"}
	reservedSubtree = []string{"/metadata", "/static"}
)

// Validate 拒绝结构性错误的配置。合约地址与 RPC 地址的格式不在此校验。
func (c *Config) Validate() error {
	if c == nil {
		return invalid("配置为空")
	}
	if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		return xerrors.Wrap(xerrors.CodeConfiguration, err, fmt.Sprintf("监听地址 %q 无效", c.Server.Address))
	}
	if c.Server.TrustedProxyHops < 0 {
		return invalid(fmt.Sprintf("trusted_proxy_hops 不能为负数: %d", c.Server.TrustedProxyHops))
	}
	if c.Collection.MinTokenID < 1 {
		return invalid("min_token_id 必须大于等于 1")
	}
	if c.Collection.MaxTokenID < c.Collection.MinTokenID {
		return invalid(fmt.Sprintf("max_token_id (%d) 小于 min_token_id (%d)", c.Collection.MaxTokenID, c.Collection.MinTokenID))
	}
	if c.Log.Access.Enabled && strings.TrimSpace(c.Log.Access.Path) == "" {
		return invalid("启用访问日志时必须配置 log.access.path")
	}
	if c.Metrics.Enabled {
		if err := validateMetricsPath(c.Metrics.Path); err != nil {
			return err
		}
	}
	return nil
}

func validateMetricsPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return invalid(fmt.Sprintf("metrics.path 必须以 / 开头: %q", path))
	}
	// ServeMux 会把 {} 与空白解释为路由模式。
	if strings.ContainsAny(path, "{} \t") {
		return invalid(fmt.Sprintf("metrics.path 含有非法字符: %q", path))
	}
	for _, route := range reservedRoutes {
		if path == route {
			return invalid(fmt.Sprintf("metrics.path 与已有路由冲突: %q", path))
		}
	}
	for _, prefix := range reservedSubtree {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return invalid(fmt.Sprintf("metrics.path 与已有路由冲突: %q", path))
		}
	}
	return nil
}

func invalid(message string) error {
	return xerrors.New(xerrors.CodeConfiguration, message)
}

// getEnv 返回原始值，仅由空白组成时视为未设置。
func getEnv(key string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}
