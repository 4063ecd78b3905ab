package web

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Ahlyab/flood-prediction/internal/discovery"
	"github.com/Ahlyab/flood-prediction/internal/logging"
	"github.com/Ahlyab/flood-prediction/internal/version"
)

//go:embed templates/*.html
var templateFS embed.FS

// shutdownTimeout bounds graceful shutdown of open requests
const shutdownTimeout = 10 * time.Second

// Config holds the form server configuration
type Config struct {
	Listen     string
	SessionTTL time.Duration
	CertFile   string // serve HTTPS when both files are set
	KeyFile    string

	// Endpoint is the prediction service URL shown on the page
	Endpoint string

	// Advertise announces the form as Instance over mDNS
	Advertise bool
	Instance  string
}

// Server is the browser form server
type Server struct {
	config    Config
	sessions  *Sessions
	templates *template.Template
	upgrader  websocket.Upgrader
	tlsConfig *tls.Config
	handler   http.Handler

	// ctx outlives single requests; async submissions run under it
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server that gives every session a controller from factory
func New(config Config, factory ControllerFactory) (*Server, error) {
	if factory == nil {
		return nil, errors.New("controller factory is required")
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	var tlsConfig *tls.Config
	if config.CertFile != "" || config.KeyFile != "" {
		tlsConfig, err = NewTLSConfig(config.CertFile, config.KeyFile)
		if err != nil {
			return nil, err
		}
	}

	if config.Instance == "" {
		config.Instance = "Flood Prediction"
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:    config,
		sessions:  NewSessions(factory, config.SessionTTL),
		templates: templates,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		tlsConfig: tlsConfig,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with request logging
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the session store
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Close stops async submissions and closes every session. Run and Serve
// call it on shutdown.
func (s *Server) Close() {
	s.cancel()
	s.sessions.CloseAll()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleSubmitForm)
	mux.HandleFunc("POST /submit", s.handleSubmitAsync)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return logRequests(mux)
}

// Run serves until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	return s.Serve(ctx, listener)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer s.Close()

	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logging.Info("Starting form server",
		zap.String("addr", listener.Addr().String()),
		zap.String("endpoint", s.config.Endpoint),
		zap.Duration("session_ttl", s.sessions.TTL()),
		zap.Any("tls", TLSInfo(s.tlsConfig)),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("form server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.sweep(gctx)
		return nil
	})

	if s.config.Advertise {
		port := portOf(listener.Addr())
		g.Go(func() error {
			txt := []string{"version=" + version.Version}
			if err := discovery.Advertise(gctx, s.config.Instance, port, txt); err != nil {
				// the form stays reachable by address
				logging.Warn("mDNS advertisement failed", zap.Error(err))
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Shutting down form server...")

		// stop async submissions and websocket streams first
		s.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
			_ = httpServer.Close()
		}
		return nil
	})

	err := g.Wait()
	logging.Info("Form server stopped")
	return err
}

// sweep expires idle sessions until ctx is done
func (s *Server) sweep(ctx context.Context) {
	interval := s.sessions.TTL() / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				logging.Debug("Expired idle sessions",
					zap.Int("expired", n),
					zap.Int("active", s.sessions.Len()),
				)
			}
		}
	}
}

func portOf(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	_, p, err := net.SplitHostPort(addr.String())
	if err != nil {
		return 0
	}
	port, _ := strconv.Atoi(p)
	return port
}
