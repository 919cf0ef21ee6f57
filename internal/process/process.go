package process

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charleschow/bankroll-calc/internal/api"
	"github.com/charleschow/bankroll-calc/internal/config"
	"github.com/charleschow/bankroll-calc/internal/core/display"
	"github.com/charleschow/bankroll-calc/internal/core/session"
	"github.com/charleschow/bankroll-calc/internal/events"
	"github.com/charleschow/bankroll-calc/internal/fanout"
	"github.com/charleschow/bankroll-calc/internal/telemetry"
)

// ProcessConfig captures what differs between entry points that run the
// calculator service.
type ProcessConfig struct {
	Name string // used for logs

	// EchoEvents prints every bus event to stderr in the watcher format.
	EchoEvents bool
}

// Service is the assembled calculator: session store, manager, event bus,
// websocket fanout and the HTTP router on top.
type Service struct {
	cfg    *config.Config
	limits config.Limits
	bus    *events.Bus
	store  *session.Store
	watch  *fanout.Server
	router http.Handler
}

// New wires every component from cfg. The caller owns Close.
func New(cfg *config.Config) (*Service, error) {
	limits, err := config.LoadLimits(cfg.LimitsPath)
	if err != nil {
		return nil, fmt.Errorf("load limits: %w", err)
	}

	store, err := session.OpenStore(cfg.SessionDBPath, cfg.SessionMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}

	bus := events.NewBus()
	watch := fanout.NewServer(bus)
	manager := session.NewManager(store, bus)

	router := api.NewRouter(api.Deps{
		Sessions:       manager,
		Bus:            bus,
		Limits:         limits,
		Watch:          http.HandlerFunc(watch.HandleWS),
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	return &Service{
		cfg:    cfg,
		limits: limits,
		bus:    bus,
		store:  store,
		watch:  watch,
		router: router,
	}, nil
}

func (s *Service) Handler() http.Handler { return s.router }
func (s *Service) Bus() *events.Bus      { return s.bus }

// Serve listens on the configured address until ctx is cancelled, then
// drains in-flight requests for up to cfg.ShutdownTimeout.
func (s *Service) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.HTTPHost, s.cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	telemetry.Infof("API listening on %q  (ws: /ws?session=<id|*>)", addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Service) Close() error {
	return s.store.Close()
}

// Run boots the calculator service and blocks until SIGINT/SIGTERM.
func Run(pc ProcessConfig) {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting %s", pc.Name)

	svc, err := New(cfg)
	if err != nil {
		telemetry.Errorf("%s: %v", pc.Name, err)
		os.Exit(1)
	}
	defer svc.Close()

	if pc.EchoEvents {
		display.NewObserver(os.Stderr).Attach(svc.Bus())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Serve(ctx); err != nil {
		telemetry.Errorf("%s: %v", pc.Name, err)
	}

	telemetry.Infof("%s shutdown complete  plans=%d  resolved=%d  matches=%d  rejected=%d",
		pc.Name,
		telemetry.Metrics.PlansBuilt.Value(),
		telemetry.Metrics.StepsResolved.Value(),
		telemetry.Metrics.MatchesComputed.Value(),
		telemetry.Metrics.RequestsRejected.Value(),
	)
}
