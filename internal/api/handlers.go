package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	xerrors "pharos-russia-nft/internal/errors"
	"pharos-russia-nft/internal/nft"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, r, xerrors.New(xerrors.CodeNotFound, ""))
		return
	}
	if !allowRead(w, r) {
		s.writeError(w, r, xerrors.New(xerrors.CodeMethodNotAllowed, ""))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, s.responder.IndexPage()); err != nil {
		s.log.Error("渲染首页失败", slog.Any("error", err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		s.writeError(w, r, xerrors.New(xerrors.CodeMethodNotAllowed, ""))
		return
	}
	writeJSON(w, http.StatusOK, s.responder.Health())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		s.writeError(w, r, xerrors.New(xerrors.CodeMethodNotAllowed, ""))
		return
	}
	writeJSON(w, http.StatusOK, s.responder.ChainConfig())
}

// handleMetadata 处理 /metadata/{tokenId}。只接受十进制非负整数。
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/metadata/")
	if !isDigits(raw) {
		s.writeError(w, r, xerrors.New(xerrors.CodeNotFound, ""))
		return
	}
	if !allowRead(w, r) {
		s.writeError(w, r, xerrors.New(xerrors.CodeMethodNotAllowed, ""))
		return
	}

	tokenID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// 超出 int64 的数字同样视为非法 token。
		s.metrics.ObserveInvalidToken()
		s.writeError(w, r, xerrors.Wrap(xerrors.CodeInvalidTokenID, err, "",
			xerrors.WithMetadata("token_id", raw)))
		return
	}

	scheme, host := requestOrigin(r, s.proxyHops)
	md, err := s.responder.Metadata(tokenID, scheme, host)
	if err != nil {
		if errors.Is(err, nft.ErrInvalidTokenID) {
			s.metrics.ObserveInvalidToken()
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// staticFiles 只提供普通文件。目录与缺失的文件统一返回 JSON 404。
func (s *Server) staticFiles(root http.FileSystem) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/static/")
		if name == "" || strings.HasSuffix(name, "/") {
			s.writeError(w, r, xerrors.New(xerrors.CodeNotFound, ""))
			return
		}
		if !allowRead(w, r) {
			s.writeError(w, r, xerrors.New(xerrors.CodeMethodNotAllowed, ""))
			return
		}

		f, err := root.Open(path.Clean("/" + name))
		if err != nil {
			s.writeError(w, r, xerrors.Wrap(xerrors.CodeNotFound, err, ""))
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			s.writeError(w, r, xerrors.New(xerrors.CodeNotFound, "",
				xerrors.WithMetadata("static_path", name)))
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}

// errorBody 是所有错误响应的统一格式。
type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := xerrors.HTTPStatus(err)
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.String("code", string(xerrors.CodeOf(err))),
		slog.String("request_id", RequestIDFrom(r.Context())),
	}
	if e, ok := xerrors.From(err); ok {
		for k, v := range e.Metadata() {
			attrs = append(attrs, slog.String(k, v))
		}
	}
	if status >= http.StatusInternalServerError {
		s.log.Error(err.Error(), attrs...)
	} else {
		s.log.Debug(err.Error(), attrs...)
	}
	writeJSON(w, status, errorBody{Error: xerrors.PublicMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func allowRead(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
