package httpserver

import "net/http"

// Server 把 API 和静态页面挂到同一个 mux 上
type Server struct {
	mux *http.ServeMux
	api *Handler
}

// NewServer webDir 为空时不提供静态页面
func NewServer(h *Handler, webDir string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/api/", h)
	if webDir != "" {
		RegisterStaticRoutes(mux, webDir)
	}
	return &Server{mux: mux, api: h}
}

// API 返回内部的 Handler
func (s *Server) API() *Handler { return s.api }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
