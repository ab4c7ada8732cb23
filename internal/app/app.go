// Package app wires the service together and runs it until ctx is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	"github.com/vadimbarashkov/shortcode/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shortcode/internal/adapter/repository/postgres"
	"github.com/vadimbarashkov/shortcode/internal/adapter/repository/sqlite"
	"github.com/vadimbarashkov/shortcode/internal/clicks"
	"github.com/vadimbarashkov/shortcode/internal/config"
	"github.com/vadimbarashkov/shortcode/internal/entity"
	"github.com/vadimbarashkov/shortcode/internal/shortcode"
	"github.com/vadimbarashkov/shortcode/internal/usecase"
	"github.com/vadimbarashkov/shortcode/migrations"

	rediscache "github.com/vadimbarashkov/shortcode/internal/adapter/cache/redis"
	delivery "github.com/vadimbarashkov/shortcode/internal/adapter/delivery/http"
	pgdb "github.com/vadimbarashkov/shortcode/pkg/postgres"
)

const shutdownTimeout = 15 * time.Second

type urlStore interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error)
	IncrementClicks(ctx context.Context, shortCode string) error
	Ping(ctx context.Context) error
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

type clickRecorder interface {
	Record(ctx context.Context, shortCode string)
	Close() error
}

func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	gen, err := shortcode.New(cfg.ShortCode.Alphabet, cfg.ShortCode.Length)
	if err != nil {
		return fmt.Errorf("%s: failed to create code generator: %w", op, err)
	}

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closer.Close()

	logger.Info("store opened", slog.String("driver", cfg.Storage.Driver))

	opts := []usecase.Option{usecase.WithMaxAttempts(cfg.ShortCode.MaxAttempts)}

	if cfg.Cache.Enabled {
		client, err := rediscache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		defer client.Close()

		opts = append(opts, usecase.WithCache(rediscache.New(client, cfg.Cache.TTL, logger.Logger)))

		logger.Info("redirect cache enabled", slog.Duration("ttl", cfg.Cache.TTL))
	}

	recorder := newClickRecorder(cfg.Clicks, store, logger.Logger)

	uc := usecase.New(gen, store, recorder, opts...)

	router := delivery.NewRouter(logger, uc, delivery.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ValidShortCode: gen.Valid,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf("%s: failed to listen: %w", op, err)
	}

	logger.Info("starting server", slog.String("addr", ln.Addr().String()), slog.Bool("tls", cfg.HTTPServer.TLS()))

	if err := serve(ctx, server, ln, cfg.HTTPServer, recorder, logger.Logger); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// serve runs server on ln until ctx is canceled, then shuts it down and
// drains recorder. Request contexts outlive ctx and end only after Shutdown
// returns, so in-flight requests complete.
func serve(ctx context.Context, server *http.Server, ln net.Listener, cfg config.HTTPServer, recorder clickRecorder, logger *slog.Logger) error {
	baseCtx, cancelBase := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelBase()

	server.BaseContext = func(_ net.Listener) context.Context {
		return baseCtx
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		if cfg.TLS() {
			err = server.ServeTLS(ln, cfg.CertFile, cfg.KeyFile)
		} else {
			err = server.Serve(ln)
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error occurred: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error

		if err := server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown server: %w", err))
		}
		cancelBase()

		// In-flight handlers are done, so no click can be recorded after this.
		if err := recorder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain click recorder: %w", err))
		}

		return errors.Join(errs...)
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config) (urlStore, io.Closer, error) {
	dsn := cfg.DatabaseDSN()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := pgdb.New(
			ctx,
			dsn,
			pgdb.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
			pgdb.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
			pgdb.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
			pgdb.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
			pgdb.WithConnectRetry(cfg.Postgres.ConnectAttempts, cfg.Postgres.ConnectBackoff),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := pgdb.RunMigrations(migrations.FS, dsn); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return postgres.NewURLRepository(db), db, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}

		return sqlite.NewURLRepository(db), db, nil

	default:
		return memory.NewURLRepository(), closerFunc(func() error { return nil }), nil
	}
}

func newClickRecorder(cfg config.Clicks, store urlStore, logger *slog.Logger) clickRecorder {
	if cfg.Mode == config.ClicksAsync {
		return clicks.NewAsyncRecorder(store, logger,
			clicks.WithQueueSize(cfg.QueueSize),
			clicks.WithWorkers(cfg.Workers),
		)
	}

	return clicks.NewSyncRecorder(store, logger)
}
