// Package server wires and runs the remote authority: storage, photo
// storage, the users service and the HTTP API. It stops gracefully on
// SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/dmitrijs2005/barangayconnect/internal/server/config"
	"github.com/dmitrijs2005/barangayconnect/internal/server/httpapi"
	"github.com/dmitrijs2005/barangayconnect/internal/server/metrics"
	"github.com/dmitrijs2005/barangayconnect/internal/server/photos"
	"github.com/dmitrijs2005/barangayconnect/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/barangayconnect/internal/server/users"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   repomanager.RepositoryManager
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, logging.NewJSONLogger(os.Stdout, slog.LevelInfo))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ps, err := newPhotoStore(ctx, c)
	if err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("photo storage init error: %w", err)
	}

	m := metrics.New()
	us := users.NewService(repos.Users(), ps, c, m, logger)
	h := httpapi.NewHandler(us, m, []byte(c.SecretKey), logger)

	return &App{
		config:  c,
		logger:  logger,
		repos:   repos,
		handler: httpapi.NewRouter(h, c.AllowedOrigins),
	}, nil
}

func newPhotoStore(ctx context.Context, c *config.Config) (photos.Store, error) {
	switch c.PhotoStorage {
	case config.PhotoStorageInline, "":
		return photos.NewInlineStore(), nil
	case config.PhotoStorageS3:
		return photos.NewS3Store(ctx, photos.S3Options{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown photo storage %q", c.PhotoStorage)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddr, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a signal arrives, then closes storage.
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

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "repository close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
