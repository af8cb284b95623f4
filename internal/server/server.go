package server

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"time"
)

// BuildInfo identifies the running binary in health responses and logs.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config carries every dependency a handler needs. It is constructed once
// in main and passed down explicitly; there is no package-level state.
type Config struct {
	Addr  string // e.g. ":8080"
	Build BuildInfo

	Auth    AuthConfig
	DB      *sql.DB
	Users   UserStore
	Storage *ObjectStorage

	// MaxUploadBytes caps the upload request body. Zero means no limit.
	MaxUploadBytes int64
}

type Server struct {
	httpServer *http.Server
	cfg        Config
}

func New(cfg Config) *Server {
	mux := http.NewServeMux()

	s := &Server{cfg: cfg}

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/register", cfg.registerHandler())
	mux.Handle("/login", cfg.Auth.loginHandler())
	mux.Handle("/upload-file", cfg.uploadHandler())

	// Wrap middleware: requestID -> logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Handler exposes the fully wired handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.httpServer.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
