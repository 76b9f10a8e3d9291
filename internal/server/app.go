// Package server wires the auth service together: storage, token codec,
// password hasher, user service, HTTP API and the reclamation scheduler.
// All of it is built once in NewApp and passed down explicitly.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpapi"
	"github.com/dmitrijs2005/gophauth/internal/server/reclaim"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

const stopTimeout = 30 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	repoManager repomanager.RepositoryManager
	users       users.Repository
	userService *services.UserService
	scheduler   *reclaim.Scheduler
}

// NewApp opens storage (running migrations for PostgreSQL) and builds every
// component from c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	app := &App{config: c, logger: logger}

	if c.DatabaseDSN == config.MemoryDSN {
		logger.Warn(ctx, "Using in-memory user store, data is lost on exit")
		app.users = users.NewMemoryRepository(nil)
	} else {
		rm, err := repomanager.Open(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := rm.RunMigrations(ctx); err != nil {
			_ = rm.Close()
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.repoManager = rm
		app.users = rm.Users()
	}

	codec := auth.NewTokenCodec([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	hasher := auth.NewPasswordHasher(c.BcryptCost)
	app.userService = services.NewUserService(app.users, codec, hasher, logger)

	job := reclaim.NewJob(app.users, c.ReclaimGracePeriod, logger)
	scheduler, err := reclaim.NewScheduler(c.ReclaimSchedule, job, logger)
	if err != nil {
		_ = app.close()
		return nil, err
	}
	app.scheduler = scheduler

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewHTTPServer(app.config.HTTPAddr, app.logger, app.userService)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) runScheduler(ctx context.Context) {
	app.scheduler.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := app.scheduler.Stop(stopCtx); err != nil {
		app.logger.Error(stopCtx, "Reclamation scheduler did not stop cleanly", "error", err)
	}
}

func (app *App) close() error {
	if app.repoManager != nil {
		return app.repoManager.Close()
	}
	return nil
}

// Run serves the HTTP API, plus the reclamation scheduler when configured
// in-process, until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.ReclaimInProcess {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runScheduler(ctx)
		}()
	}

	wg.Wait()

	if err := app.close(); err != nil {
		app.logger.Error(context.Background(), "Error closing storage", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}

// RunReclaimer runs only the reclamation scheduler, for deployments that
// keep it in its own process.
func (app *App) RunReclaimer(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting reclaimer...", "schedule", app.config.ReclaimSchedule)

	app.initSignalHandler(cancelFunc)
	app.runScheduler(ctx)

	if err := app.close(); err != nil {
		app.logger.Error(context.Background(), "Error closing storage", "error", err)
	}
}
