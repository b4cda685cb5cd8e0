package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/config"
	"storefront/handlers"
	"storefront/internal/app"
	"storefront/internal/fetch"
	"storefront/internal/i18n"
	"storefront/internal/storage"
	"storefront/monitoring"
	"storefront/notify"
	"storefront/security"
	"storefront/services"
	"storefront/views"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Str("env", cfg.Environment).Logger()
}

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := NewLogger(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(ctx, storage.Config{
		Driver:     cfg.StorageDriver,
		SQLitePath: cfg.SQLitePath,
		RedisURL:   cfg.RedisURL,
	}, log)
	if err != nil {
		return fmt.Errorf("open session storage: %w", err)
	}
	defer store.Close()

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor()
	}

	publisher := notify.New(notify.Config{
		PublishKey:   cfg.PubNubPublishKey,
		SubscribeKey: cfg.PubNubSubscribeKey,
		SecretKey:    cfg.PubNubSecretKey,
		Channel:      cfg.PubNubChannel,
	}, log)

	fetcher, err := fetch.New(fetch.Config{Timeout: cfg.HTTPTimeout}, monitor, log)
	if err != nil {
		return err
	}

	renderer, err := views.NewRenderer()
	if err != nil {
		return err
	}

	// Initialize services; per-visitor flows are built by the app on first visit.
	printer := i18n.Printer(cfg.Locale)
	backend := services.NewBackend(cfg.Endpoints(""))

	a := app.New(app.Deps{
		Config:    cfg,
		Backend:   backend,
		Catalog:   services.NewCatalog(backend, fetcher, printer, monitor, publisher, log),
		Store:     store,
		Fetcher:   fetcher,
		Publisher: publisher,
		Monitor:   monitor,
		Renderer:  renderer,
		Printer:   printer,
		Log:       log,
	})

	// Shared kiosks keep rate limit counters next to the session in redis.
	var limiter *security.RateLimiter
	if rs, ok := store.(*storage.RedisStore); ok {
		limiter = security.NewRateLimiter(cfg.AuthRateLimit, time.Minute, rs.Client(), log)
	} else {
		limiter = security.NewRateLimiter(cfg.AuthRateLimit, time.Minute, nil, log)
	}

	e := handlers.NewServer(a, handlers.ServerOptions{
		EnableMetrics: cfg.EnableMetrics,
		Limiter:       limiter,
	}, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		// Live streams end with the process context.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	a.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", backend.Endpoints().API).Msg("storefront listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, cleaning up")
	case err := <-errCh:
		if err != nil {
			cancel()
			a.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	cancel()
	a.Wait()

	log.Info().Msg("storefront stopped")
	return nil
}
