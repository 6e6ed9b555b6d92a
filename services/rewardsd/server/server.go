package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rwdledger/core"
	"rwdledger/core/events"
	"rwdledger/observability"
	"rwdledger/services/rewardsd/journal"
)

// Config defines HTTP server parameters.
type Config struct {
	ListenAddress     string
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	Auth              AuthConfig
	RateLimit         RateLimit
}

// Journal is the persistence the server needs for nonces and event history.
type Journal interface {
	ConsumeNonce(ctx context.Context, caller string, nonce uint64, method, path string) error
	List(ctx context.Context, after uint64, limit int, eventType string) ([]journal.Entry, error)
}

// Deps bundles the collaborators of the server.
type Deps struct {
	Runtime  *core.Runtime
	Journal  Journal
	Feed     *events.Feed
	Metrics  *observability.RewardsMetrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server exposes the rewards runtime over HTTP.
type Server struct {
	cfg      Config
	runtime  *core.Runtime
	journal  Journal
	feed     *events.Feed
	metrics  *observability.RewardsMetrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	auth     *Authenticator
	limiter  *RateLimiter
}

// New constructs a server.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Runtime == nil {
		return nil, fmt.Errorf("server: runtime required")
	}
	if deps.Journal == nil {
		return nil, fmt.Errorf("server: journal required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Feed == nil {
		deps.Feed = events.NewFeed()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	auth, err := NewAuthenticator(cfg.Auth, deps.Logger)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		runtime:  deps.Runtime,
		journal:  deps.Journal,
		feed:     deps.Feed,
		metrics:  deps.Metrics,
		gatherer: deps.Gatherer,
		logger:   deps.Logger,
		auth:     auth,
		limiter:  NewRateLimiter(cfg.RateLimit, deps.Metrics),
	}, nil
}

func (s *Server) route(name string, h http.HandlerFunc) http.Handler {
	return otelhttp.NewHandler(instrument(s.metrics, name, h), "rewardsd."+name)
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/healthz", s.route("health", s.handleHealth))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(s.limiter.Middleware)

		v1.Group(func(w chi.Router) {
			w.Method(http.MethodPost, "/token/initialize", s.route("token.initialize", s.handleInitializeToken))
			w.Method(http.MethodPost, "/fees/initialize", s.route("fees.initialize", s.handleInitializeFees))
			w.Method(http.MethodPost, "/fees/update", s.route("fees.update", s.handleUpdateFees))
			w.Method(http.MethodPost, "/freeze/initialize", s.route("freeze.initialize", s.handleInitializeFreeze))
			w.Method(http.MethodPost, "/freeze", s.route("freeze", s.handleFreeze(true)))
			w.Method(http.MethodPost, "/unfreeze", s.route("unfreeze", s.handleFreeze(false)))
			w.Method(http.MethodPost, "/mint", s.route("mint", s.handleMint))
			w.Method(http.MethodPost, "/burn", s.route("burn", s.handleBurn))
			w.Method(http.MethodPost, "/transfer", s.route("transfer", s.handleTransfer))
		})

		v1.Group(func(rd chi.Router) {
			rd.Use(s.auth.Middleware)
			rd.Method(http.MethodGet, "/token", s.route("token", s.handleToken))
			rd.Method(http.MethodGet, "/fees", s.route("fees", s.handleFees))
			rd.Method(http.MethodGet, "/freeze", s.route("freeze.state", s.handleFreezeState))
			rd.Method(http.MethodGet, "/vault", s.route("vault", s.handleVault))
			rd.Method(http.MethodGet, "/accounts/{owner}", s.route("account", s.handleAccount))
			rd.Method(http.MethodGet, "/events", s.route("events", s.handleEvents))
			rd.Method(http.MethodGet, "/events/stream", otelhttp.NewHandler(http.HandlerFunc(s.handleStream), "rewardsd.events.stream"))
		})
	})
	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server not configured")
	}
	addr := strings.TrimSpace(s.cfg.ListenAddress)
	if addr == "" {
		return fmt.Errorf("server: listen address required")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rewardsd listening", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
