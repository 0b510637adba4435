package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"image-drop/internal/blob"
	"image-drop/internal/imgproc"
	"image-drop/internal/store"
)

// BuildInfo identifies the running binary in logs and /health.
type BuildInfo struct {
	Version string
	Commit  string
}

// Config wires the HTTP surface to its stores. Every handler receives
// its dependencies through here; there are no package-level handles.
type Config struct {
	Addr  string
	Build BuildInfo

	Meta  store.MetadataStore
	Blobs blob.Store
	Pool  *imgproc.Pool

	// MaxUploadBytes caps the upload request body. 0 disables the cap.
	MaxUploadBytes int64
}

type Server struct {
	httpServer *http.Server
}

func New(cfg Config) *Server {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", cfg.indexHandler())
	mux.Handle("POST /upload", cfg.uploadHandler())
	mux.Handle("GET /health", cfg.healthHandler())
	mux.Handle("GET /metrics", cfg.metricsHandler())
	mux.Handle("GET /{id}", cfg.imageHandler())

	// Wrap middleware: requestID -> logging -> cors -> mux
	var handler http.Handler = mux
	handler = cors.Default().Handler(handler)
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)

	s := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{httpServer: s}
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
