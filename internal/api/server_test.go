package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pharos-russia-nft/internal/config"
	"pharos-russia-nft/internal/nft"
	"pharos-russia-nft/internal/observability/metrics"
	"pharos-russia-nft/pkg/logger"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	base := []Option{WithLogger(logger.Discard(), logger.Discard())}
	return NewServer(":0", nft.NewResponder(config.Default()), append(base, opts...)...)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleMetadataSuccess(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "https://example.com/metadata/1", nil)
	rec := serve(server, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: got %d want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var got nft.TokenMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Name != "Pharos Russia #1" {
		t.Fatalf("unexpected name %q", got.Name)
	}
	if got.Image != "https://example.com/static/images/pharosRussia.jpg" {
		t.Fatalf("unexpected image %q", got.Image)
	}
	if got.Attributes[4].TraitType != "Token ID" || got.Attributes[4].Value != float64(1) {
		t.Fatalf("unexpected Token ID attribute %+v", got.Attributes[4])
	}
}

func TestHandleMetadataErrors(t *testing.T) {
	server := newTestServer(t)

	cases := []struct {
		name   string
		method string
		path   string
		status int
		body   string
	}{
		{"above range", http.MethodGet, "/metadata/10001", http.StatusNotFound, "Invalid token ID"},
		{"zero", http.MethodGet, "/metadata/0", http.StatusNotFound, "Invalid token ID"},
		{"leading zeros zero", http.MethodGet, "/metadata/0000", http.StatusNotFound, "Invalid token ID"},
		{"overflow", http.MethodGet, "/metadata/99999999999999999999999", http.StatusNotFound, "Invalid token ID"},
		{"negative", http.MethodGet, "/metadata/-1", http.StatusNotFound, "Not found"},
		{"not a number", http.MethodGet, "/metadata/abc", http.StatusNotFound, "Not found"},
		{"fraction", http.MethodGet, "/metadata/1.5", http.StatusNotFound, "Not found"},
		{"missing id", http.MethodGet, "/metadata/", http.StatusNotFound, "Not found"},
		{"nested", http.MethodGet, "/metadata/1/extra", http.StatusNotFound, "Not found"},
		{"invalid method", http.MethodPost, "/metadata/1", http.StatusMethodNotAllowed, "Method not allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(server, httptest.NewRequest(tc.method, tc.path, nil))
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
			}
			if len(body) != 1 || body["error"] != tc.body {
				t.Fatalf("unexpected error body %v", body)
			}
		})
	}
}

func TestHandleMetadataInvalidBodyIsExact(t *testing.T) {
	rec := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/metadata/10001", nil))
	if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Invalid token ID"}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestRequestOrigin(t *testing.T) {
	cases := []struct {
		name       string
		hops       int
		tls        bool
		proto      []string
		host       []string
		wantScheme string
		wantHost   string
	}{
		{name: "plain", hops: 1, wantScheme: "http", wantHost: "backend:5000"},
		{name: "tls", hops: 1, tls: true, wantScheme: "https", wantHost: "backend:5000"},
		{name: "proxied", hops: 1, proto: []string{"HTTPS"}, host: []string{"nft.example.com"}, wantScheme: "HTTPS", wantHost: "nft.example.com"},
		{name: "last value wins", hops: 1, proto: []string{"http, https"}, host: []string{"spoofed.example", "nft.example.com"}, wantScheme: "https", wantHost: "nft.example.com"},
		{name: "two hops", hops: 2, proto: []string{"https, http"}, host: []string{"outer.example, inner.example"}, wantScheme: "https", wantHost: "outer.example"},
		{name: "too few values", hops: 2, proto: []string{"https"}, wantScheme: "http", wantHost: "backend:5000"},
		{name: "disabled", hops: 0, proto: []string{"https"}, host: []string{"nft.example.com"}, wantScheme: "http", wantHost: "backend:5000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://backend:5000/metadata/1", nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			for _, v := range tc.proto {
				req.Header.Add("X-Forwarded-Proto", v)
			}
			for _, v := range tc.host {
				req.Header.Add("X-Forwarded-Host", v)
			}
			scheme, host := requestOrigin(req, tc.hops)
			if scheme != tc.wantScheme || host != tc.wantHost {
				t.Fatalf("got %s://%s, want %s://%s", scheme, host, tc.wantScheme, tc.wantHost)
			}
		})
	}
}

func TestMetadataBehindProxy(t *testing.T) {
	server := newTestServer(t, WithTrustedProxyHops(1))

	req := httptest.NewRequest(http.MethodGet, "http://10.0.0.5:5000/metadata/77", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "nft.example.com")
	rec := serve(server, req)

	var got nft.TokenMetadata
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Image != "https://nft.example.com/static/images/pharosRussia.jpg" {
		t.Fatalf("unexpected image %q", got.Image)
	}
}

func TestHandleHealth(t *testing.T) {
	rec := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != "healthy" || got["service"] != "Pharos Russia NFT Minting" {
		t.Fatalf("unexpected health body %v", got)
	}
}

func TestHandleConfig(t *testing.T) {
	t.Setenv(config.EnvContractAddress, "")
	t.Setenv(config.EnvPharosRPC, "")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	server := NewServer(":0", nft.NewResponder(cfg), WithLogger(logger.Discard(), logger.Discard()))

	var first, second nft.ChainConfig
	for _, target := range []*nft.ChainConfig{&first, &second} {
		rec := serve(server, httptest.NewRequest(http.MethodGet, "/api/config", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("unexpected status %d", rec.Code)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), target); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	if first != second {
		t.Fatalf("config changed between calls: %+v vs %+v", first, second)
	}
	if first.ContractAddress != "PASTE_CONTRACT_ADDRESS_HERE" {
		t.Fatalf("unexpected contract address %q", first.ContractAddress)
	}
	if first.ChainID != 688688 || first.ChainIDHex != "0xA8230" || first.Currency.Decimals != 18 {
		t.Fatalf("unexpected chain config %+v", first)
	}
}

func TestHandleIndex(t *testing.T) {
	server := newTestServer(t)

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	body := rec.Body.String()
	if !strings.Contains(body, "PHAROS Testnet") || !strings.Contains(body, "PASTE_CONTRACT_ADDRESS_HERE") {
		t.Fatalf("index page missing chain details:\n%s", body)
	}

	rec = serve(server, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := newTestServer(t)
	for _, path := range []string{"/", "/health", "/api/config"} {
		rec := serve(server, httptest.NewRequest(http.MethodDelete, path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", path, rec.Code)
		}
		if rec.Header().Get("Allow") != "GET, HEAD" {
			t.Fatalf("%s: unexpected Allow header %q", path, rec.Header().Get("Allow"))
		}
	}
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "images"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "images", "pharosRussia.jpg"), []byte("jpeg"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}
	server := newTestServer(t, WithStaticDir(dir))

	rec := serve(server, httptest.NewRequest(http.MethodGet, "/static/images/pharosRussia.jpg", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "jpeg" {
		t.Fatalf("unexpected static response %d %q", rec.Code, rec.Body.String())
	}

	for _, target := range []string{"/static/", "/static/images/", "/static/images", "/static/missing.png"} {
		rec := serve(server, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("%s: unexpected content type %q", target, ct)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"Not found"}` {
			t.Fatalf("%s: unexpected body %s", target, got)
		}
	}
}

func TestHeadRequests(t *testing.T) {
	server := newTestServer(t)
	for _, target := range []string{"/health", "/api/config", "/metadata/1"} {
		rec := serve(server, httptest.NewRequest(http.MethodHead, target, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("HEAD %s: expected 200, got %d", target, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("HEAD %s: unexpected content type %q", target, ct)
		}
	}
}

func TestRequestIDAndMetrics(t *testing.T) {
	m := metrics.New()
	server := newTestServer(t, WithMetrics(m, "/metrics"))
	handler := server.Handler()

	req := httptest.NewRequest(http.MethodGet, "/metadata/5", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metadata/20000", nil))
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected generated request id")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`pharos_nft_http_requests_total{code="200",handler="metadata",method="GET"} 1`,
		`pharos_nft_http_requests_total{code="404",handler="metadata",method="GET"} 1`,
		"pharos_nft_metadata_invalid_token_total 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestStartAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	server := NewServer(addr, nft.NewResponder(nil), WithLogger(logger.Discard(), logger.Discard()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	var resp *http.Response
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err = http.Get("http://" + addr + "/health")
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not come up: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() returned %v after shutdown", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
