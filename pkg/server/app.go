package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FinCast/internal/handler/ws"
	"FinCast/internal/usecase"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	scheduler   *usecase.Scheduler
	hub         *ws.Hub
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	closers     []func() error
	l           *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	scheduler *usecase.Scheduler,
	hub *ws.Hub,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:         cfg,
		scheduler:   scheduler,
		hub:         hub,
		chClient:    chClient,
		httpHandler: httpHandler,
		l:           l,
	}
}

// AddCloser registers a resource to close during shutdown, after the
// scheduler has stopped.
func (a *App) AddCloser(fn func() error) { a.closers = append(a.closers, fn) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if a.hub != nil {
		a.hub.RegisterRoutes(a.httpServer.Echo())
		a.scheduler.OnPersist(a.hub.Broadcast)
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := a.scheduler.Run(ctx); err != nil && err != context.Canceled {
			a.l.Error("scheduler error", applogger.Error(err))
		}
	}()
	a.l.Info("scheduler started",
		applogger.Strings("symbols", a.cfg.Predictor.Symbols),
		applogger.Duration("poll_interval", a.cfg.Predictor.PollInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	// The scheduler finishes its in-flight step before exiting, so no
	// half-persisted hour is left behind.
	<-schedDone
	return a.shutdown(context.Background())
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.hub != nil {
		a.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.l.Warn("resource close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
