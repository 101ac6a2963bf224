package api

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"pharos-russia-nft/internal/nft"
	"pharos-russia-nft/internal/observability/metrics"
	"pharos-russia-nft/pkg/logger"
)

//go:embed templates/index.html
var templateFS embed.FS

// Server 负责暴露铸造页面与元数据接口。
type Server struct {
	addr            string
	responder       *nft.Responder
	metrics         *metrics.Metrics
	metricsPath     string
	staticDir       string
	proxyHops       int
	shutdownTimeout time.Duration
	log             *slog.Logger
	accessLog       *slog.Logger
	page            *template.Template
}

// Option 定义 Server 的可选配置。
type Option func(*Server)

// WithMetrics 在 path 上暴露 Prometheus 指标，并记录每个请求。
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// WithStaticDir 设置 /static/ 对应的本地目录，为空时不提供静态文件。
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithTrustedProxyHops 设置信任的反向代理层数，0 表示忽略 X-Forwarded-* 头。
func WithTrustedProxyHops(hops int) Option {
	return func(s *Server) {
		if hops >= 0 {
			s.proxyHops = hops
		}
	}
}

// WithShutdownTimeout 设置优雅关闭的等待时间。
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithLogger 覆盖默认的服务日志与访问日志。
func WithLogger(log, access *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
		if access != nil {
			s.accessLog = access
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, responder *nft.Responder, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		responder:       responder,
		proxyHops:       1,
		shutdownTimeout: 5 * time.Second,
		log:             logger.Named("api"),
		accessLog:       logger.Access(),
		page:            template.Must(template.ParseFS(templateFS, "templates/index.html")),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler 返回带中间件的完整路由。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.instrument("index", http.HandlerFunc(s.handleIndex)))
	mux.Handle("/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/api/config", s.instrument("config", http.HandlerFunc(s.handleConfig)))
	mux.Handle("/metadata/", s.instrument("metadata", http.HandlerFunc(s.handleMetadata)))
	if s.staticDir != "" {
		mux.Handle("/static/", s.instrument("static", s.staticFiles(http.Dir(s.staticDir))))
	}
	if s.metrics != nil && s.metricsPath != "" {
		mux.Handle(s.metricsPath, s.metrics.Handler())
	}
	return withRequestID(mux)
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。上下文取消时返回 nil。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("HTTP 服务已启动", slog.String("addr", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("HTTP 服务已关闭")
		return nil
	case err := <-errCh:
		return err
	}
}
