package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/formday/formday/internal/config"
	"github.com/formday/formday/internal/database"
	"github.com/formday/formday/internal/fitness"
	"github.com/formday/formday/internal/handlers"
	"github.com/formday/formday/internal/logging"
	"github.com/formday/formday/internal/notify"
	"github.com/formday/formday/internal/prayer"
	"github.com/formday/formday/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	isDev := os.Getenv("ENV") != "production"
	logging.Initialize(isDev)

	logger := logging.GetLogger("main")
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", date).
		Msg("Starting Formday")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Application run failed")
	}
}

func run(ctx context.Context) error {
	logger := logging.GetLogger("main")

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/formday.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return err
	}

	logging.SetLogLevel(cfg.Service.LogLevel)
	logger.Info().Str("log_level", cfg.Service.LogLevel).Msg("Log level set")

	if err := os.MkdirAll(filepath.Dir(cfg.Service.StateFile), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.StateFile)).Msg("Failed to create data directory")
		return err
	}

	db, err := database.New(database.NewDefaultOptions(cfg.Service.StateFile))
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.StateFile).Msg("Database initialization failed")
		return wrappedErr
	}
	defer db.Close()

	if err := db.MigrateDatabase(); err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database schema: %w", err)
		logger.Error().Err(wrappedErr).Msg("Database schema initialization failed")
		return wrappedErr
	}

	kv, err := database.NewKVStore(db)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize kv store: %w", err)
		logger.Error().Err(wrappedErr).Msg("KV store initialization failed")
		return wrappedErr
	}

	// Build the state-owning components; each owns its persisted slots
	engine := fitness.NewEngine(kv)
	prayers := prayer.NewService(kv, prayer.Options{
		BaseURL: cfg.Prayer.APIBaseURL,
		City:    cfg.Prayer.City,
		Country: cfg.Prayer.Country,
		Method:  cfg.Prayer.Method,
	})
	permission := notify.NewPermissionStore(kv)

	// Hydrate everything before serving so no default can shadow a
	// stored document. Partial failures degrade to defaults.
	var hydrationErrs *multierror.Error
	hydrationErrs = multierror.Append(hydrationErrs, engine.Hydrate())
	hydrationErrs = multierror.Append(hydrationErrs, prayers.Hydrate())
	hydrationErrs = multierror.Append(hydrationErrs, permission.Hydrate())
	if err := hydrationErrs.ErrorOrNil(); err != nil {
		logger.Warn().Err(err).Msg("Some slots failed to hydrate, continuing on defaults")
	} else {
		logger.Info().Msg("All persisted slots hydrated")
	}

	// Cross-process change propagation for a second Formday instance
	// sharing the state file
	watcher := store.NewWatcher(kv, db.Path())
	watcher.Register(engine.Slots()...)
	watcher.Register(prayers.Slots()...)
	watcher.Register(permission.Slots()...)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn().Err(err).Msg("Store watcher failed to start, external changes will not be adopted")
	} else {
		defer watcher.Close()
	}

	// Notification channels: webhook first when configured, log always
	var channels []notify.Notifier
	if cfg.Notifications.WebhookURL != "" {
		channels = append(channels, notify.NewWebhookNotifier(cfg.Notifications.WebhookURL, cfg.Notifications.WebhookToken))
	}
	channels = append(channels, notify.NewLogNotifier())
	dispatcher := notify.NewDispatcher(channels...)

	pollInterval, _ := cfg.NotifyPollInterval()
	debounce, _ := cfg.NotifyDebounce()
	scheduler := notify.NewScheduler(prayers, dispatcher, permission, kv, notify.SchedulerOptions{
		PollInterval: pollInterval,
		Debounce:     debounce,
		Window:       time.Duration(cfg.Notifications.WindowMinutes) * time.Minute,
	})
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Warm the prayer cache for the current year; failures retry on the
	// daily tick below
	if err := prayers.EnsureYear(ctx, time.Now().Year()); err != nil {
		logger.Warn().Err(err).Msg("Initial prayer timings fetch failed, will retry")
	}

	mux := http.NewServeMux()
	baseHandler := handlers.NewBaseHandler(mux)
	dayHandler := handlers.NewDayHandler(baseHandler, engine)
	planHandler := handlers.NewPlanHandler(baseHandler, engine)
	prayerHandler := handlers.NewPrayerHandler(baseHandler, prayers, permission)
	analyticsHandler := handlers.NewAnalyticsHandler(baseHandler, engine)

	baseHandler.RegisterRoutes()
	dayHandler.RegisterRoutes()
	planHandler.RegisterRoutes()
	prayerHandler.RegisterRoutes()
	analyticsHandler.RegisterRoutes()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: mux,
	}

	go func() {
		logger.Info().Int("port", cfg.App.Port).Msg("Starting API server")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Daily tick: re-check the prayer cache so a year rollover (or an
	// earlier failed fetch) is repaired without a restart
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	logger.Info().Msg("Formday running")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Context cancelled, initiating shutdown sequence")

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			} else {
				logger.Info().Msg("HTTP server shut down gracefully")
			}
			logger.Info().Msg("Shutdown complete")
			return nil

		case <-ticker.C:
			if err := prayers.EnsureYear(ctx, time.Now().Year()); err != nil {
				logger.Warn().Err(err).Msg("Prayer timings refresh failed")
			}
		}
	}
}
