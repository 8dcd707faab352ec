package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driving"
	"github.com/custodia-labs/specimen/internal/logger"
)

// ErrMissingPorts is returned when a required driving port is not provided.
var ErrMissingPorts = errors.New("api: samples, projects and dispatcher are required")

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second

	// multipartMemory is the part of an upload kept in memory before spooling to disk.
	multipartMemory = 32 << 20
)

// Ports aggregates the driving ports the HTTP API talks to.
type Ports struct {
	Samples    driving.SampleService
	Projects   driving.ProjectService
	Dispatcher driving.Dispatcher
}

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string

	// RateLimit is the sustained request rate per second. Zero disables limiting.
	RateLimit float64

	// Burst is the token bucket size.
	Burst int

	// MaxUploadBytes caps request bodies on upload routes. Zero means no cap.
	MaxUploadBytes int64
}

// ConfigFromSettings derives the server configuration from application settings.
func ConfigFromSettings(s domain.APISettings) Config {
	return Config{
		Addr:           net.JoinHostPort(s.Host, fmt.Sprint(s.Port)),
		RateLimit:      s.RateLimit,
		Burst:          s.Burst,
		MaxUploadBytes: s.MaxUploadBytes,
	}
}

// Server is the specimen HTTP API.
type Server struct {
	ports   Ports
	cfg     Config
	limiter *rate.Limiter
	handler http.Handler
}

// NewServer creates the API server and its route table.
func NewServer(ports Ports, cfg Config) (*Server, error) {
	if ports.Samples == nil || ports.Projects == nil || ports.Dispatcher == nil {
		return nil, ErrMissingPorts
	}

	s := &Server{ports: ports, cfg: cfg}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	mux := http.NewServeMux()
	s.routes(mux)
	s.handler = s.withRequestID(s.withLogging(s.withRateLimit(mux)))
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, letting in-flight requests finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("api shutdown: %v", err)
		}
	}()

	logger.Info("api listening on %s", ln.Addr())
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
