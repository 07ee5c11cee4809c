package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Ananth-NQI/wa-group-importer/database"
	"github.com/Ananth-NQI/wa-group-importer/internal/config"
	"github.com/Ananth-NQI/wa-group-importer/internal/events"
	"github.com/Ananth-NQI/wa-group-importer/internal/handlers"
	"github.com/Ananth-NQI/wa-group-importer/internal/jobs"
	"github.com/Ananth-NQI/wa-group-importer/internal/routes"
	"github.com/Ananth-NQI/wa-group-importer/internal/services"
	"github.com/Ananth-NQI/wa-group-importer/internal/storage"
	"github.com/Ananth-NQI/wa-group-importer/internal/whatsapp"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and the WhatsApp session (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	// Load .env file for local development
	foundEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	if !foundEnv {
		log.Warn().Msg("⚠️  No .env file found - using environment variables")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.HealthCheck{}

	// Event hub and optional Redis relay
	hub := events.NewHub()
	if cfg.RedisURL != "" {
		relay, err := events.NewRedisRelay(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return err
		}
		defer relay.Close()
		hub.AddSink(relay)
		checks["redis"] = relay.Ping
		log.Info().Str("channel", relay.Channel()).Msg("📡 Relaying events to Redis")
	}

	// History storage
	var store storage.Store
	if cfg.StoreDriver == "memory" {
		log.Warn().Msg("⚠️  Using in-memory import history (lost on restart)")
		store = storage.NewMemoryStore()
	} else {
		db, err := database.Connect(cfg.StoreDriver, cfg.DatabaseURL, cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer database.Close(db)
		store = storage.NewDatabaseStore(db)
		checks["database"] = func() error { return database.Ping(db) }
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(reg)

	// WhatsApp session
	creds := whatsapp.NewFileCredentialStore(cfg.CredentialDir())
	encoder := whatsapp.QREncoder{}
	if cfg.QRTerminal {
		encoder.Terminal = os.Stdout
	}
	sessions := services.NewSessionManager(whatsapp.NewMeowFactory(creds, log.Logger), creds, hub, services.SessionOptions{
		Encoder:     encoder,
		SettleDelay: cfg.SettleDelay,
		Metrics:     metrics,
	})

	// Completion notices
	var notifiers services.MultiNotifier
	if cfg.TwilioEnabled() {
		twilioService, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.NotifyTo)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, twilioService)
		log.Info().Msg("✅ Twilio notifications enabled")
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, services.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout, 3))
		log.Info().Msg("✅ Webhook notifications enabled")
	}
	var notifier services.Notifier
	if len(notifiers) > 0 {
		notifier = notifiers
	}

	ledger := storage.NewCSVLedger(cfg.LedgerPath)
	runner := services.NewImportRunner(sessions, ledger, store, hub, services.RunnerOptions{
		Pacer:    services.NewUniformJitter(cfg.DelayMin, cfg.DelayMax),
		Notifier: notifier,
		Metrics:  metrics,
	})

	watchdog := jobs.NewSessionWatchdog(sessions, cfg.WatchdogInterval)

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName:               "WhatsApp Group Importer v" + version,
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, routes.Handlers{
		Session: handlers.NewSessionHandler(sessions),
		Imports: handlers.NewImportHandler(runner, store, ledger.Path()),
		Events:  handlers.NewEventsHandler(hub, sessions),
		Health:  handlers.NewHealthHandler(version, sessions, checks),
		Version: version,
		APIKey:  cfg.APIKey,
		Metrics: reg,
	})

	log.Info().Msg("========================================")
	log.Info().Msgf("🚀 WhatsApp Group Importer starting on port %s", cfg.Port)
	log.Info().Msgf("📊 Storage: %s", cfg.StoreDriver)
	log.Info().Msgf("🌍 Environment: %s", environmentName(cfg))
	log.Info().Msgf("📱 Session store: %s", creds.Location())
	log.Info().Msgf("⏳ Pacing: %s - %s", cfg.DelayMin, cfg.DelayMax)
	log.Info().Msg("========================================")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.Listen(":" + cfg.Port)
	})

	g.Go(func() error {
		if err := sessions.Initialize(gctx); err != nil {
			// the session is left DISCONNECTED for the watchdog to retry
			log.Error().Err(err).Msg("❌ WhatsApp initialization failed")
		}
		watchdog.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("🛑 Gracefully shutting down...")
		if err := runner.Cancel(); err == nil {
			waitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = runner.Wait(waitCtx)
			cancel()
		}
		watchdog.Stop()
		if err := sessions.Close(); err != nil {
			log.Warn().Err(err).Msg("closing whatsapp client")
		}
		hub.Close()
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("👋 Bye")
	return nil
}

func environmentName(cfg *config.Config) string {
	if cfg.IsProduction() {
		return "Production"
	}
	return "Development (Local)"
}
