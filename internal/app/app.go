package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/omnimedia/server/cmd/server/docs" // swagger docs
	"github.com/omnimedia/server/internal/module/generation"
	"github.com/omnimedia/server/internal/shared/config"
)

// App owns the router and the generation worker pool.
type App struct {
	config  *config.Config
	router  *gin.Engine
	service *generation.Service
	logger  *zap.Logger
}

// NewApp assembles an App from its wired parts.
func NewApp(cfg *config.Config, router *gin.Engine, service *generation.Service, log *zap.Logger) *App {
	return &App{
		config:  cfg,
		router:  router,
		service: service,
		logger:  log,
	}
}

// New builds the application from configuration. The returned cleanup
// closes Redis and the audit log.
func New(cfg *config.Config) (*App, func(), error) {
	return InitializeApp(cfg)
}

// Router returns the HTTP handler.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Start starts the job workers.
func (a *App) Start() error {
	return a.service.Start()
}

// Stop drains the job workers.
func (a *App) Stop() error {
	return a.service.Stop(a.config.Worker.StopTimeout)
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// the server down and stops the workers.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.config.Server.Address,
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  a.config.Server.IdleTimeout,
	}

	if err := a.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if stopErr := a.Stop(); stopErr != nil {
			a.logger.Warn("workers did not stop cleanly", zap.Error(stopErr))
		}
		return err
	})
	return g.Wait()
}
