package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader 在请求与响应中携带请求 ID。
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

type requestIDKey struct{}

// RequestIDFrom 返回中间件写入上下文的请求 ID。
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// withRequestID 沿用上游传入的请求 ID，缺失或过长时生成新的 UUID。
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// statusRecorder 记录响应状态码与写出的字节数。
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// instrument 为单个路由记录访问日志与指标。
func (s *Server) instrument(name string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.ObserveHTTPRequest(name, r.Method, status, elapsed)
		s.accessLog.LogAttrs(r.Context(), slog.LevelInfo, "request",
			slog.String("request_id", RequestIDFrom(r.Context())),
			slog.String("handler", name),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", rec.bytes),
			slog.Duration("duration", elapsed),
			slog.String("remote_addr", r.RemoteAddr),
		)
	})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Service is shutting down"})
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}

// requestOrigin 返回生成图片地址所用的 scheme 与 host。信任 hops 层代理追加的
// X-Forwarded-Proto / X-Forwarded-Host，取值原样使用。
func requestOrigin(r *http.Request, hops int) (string, string) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if hops > 0 {
		if v := forwardedValue(r.Header.Values("X-Forwarded-Proto"), hops); v != "" {
			scheme = v
		}
		if v := forwardedValue(r.Header.Values("X-Forwarded-Host"), hops); v != "" {
			host = v
		}
	}
	return scheme, host
}

// forwardedValue 取倒数第 hops 个值；值的数量不足时忽略该头。
func forwardedValue(headers []string, hops int) string {
	var parts []string
	for _, h := range headers {
		for _, p := range strings.Split(h, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	if len(parts) < hops {
		return ""
	}
	return parts[len(parts)-hops]
}
