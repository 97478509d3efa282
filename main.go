package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"questify/config"
	"questify/events"
	"questify/handlers"
	"questify/metrics"
	"questify/middleware"
	"questify/services"
	"questify/store/gormstore"
	"questify/workers"
)

func main() {
	cfg, err := config.Load(config.New())
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatal(err)
	}

	db, err := gormstore.Open(cfg.DatabaseURL, cfg.LogSQL)
	if err != nil {
		log.Fatal(err)
	}
	if err := gormstore.Migrate(db); err != nil {
		log.Fatal(err)
	}
	st := gormstore.New(db)

	var sink services.ActivitySink = events.LogSink{}
	var natsSink *events.NATSSink
	if cfg.NATSURL != "" {
		natsSink, err = events.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatal(err)
		}
		sink = natsSink
	} else {
		log.Println("⚠️  NATS_URL not set, activity is only logged")
	}

	rec := metrics.New()
	opts := services.Options{
		Sink:    sink,
		Metrics: rec,
		Retry: services.RetryConfig{
			MaxAttempts: cfg.RetryMaxAttempts,
			BackoffBase: cfg.RetryBaseDelay,
		},
		Streak: services.StreakPolicy{Location: cfg.Location, CountSameDay: cfg.StreakCountSameDay},
	}

	progression := services.NewProgressionService(st, opts)
	badges := services.NewBadgeService(st, opts)
	users := services.NewUserService(st, badges, cfg.DefaultDailyGoal)
	svc := handlers.Services{
		Progression: progression,
		Badges:      badges,
		Missions:    services.NewMissionService(st, opts, progression, badges),
		Users:       users,
		Leaderboard: services.NewLeaderboardService(st),
		Catalog:     services.NewCatalogService(db),
		Reports:     services.NewReportService(db),
	}

	app := fiber.New(fiber.Config{
		AppName:      "questify",
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Username",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Probes stay reachable without the gateway token.
	handlers.SetupSystemRoutes(app, rec)

	// 🔐❗ GLOBAL: everything below must come through the gateway
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	handlers.SetupProgressionRoutes(app, svc)
	handlers.SetupCatalogRoutes(app, svc.Catalog)
	handlers.SetupAdminRoutes(app, svc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := progression.StartDailyResetScheduler(cfg.DailyResetCron, cfg.Location)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.ProfileSyncURL != "" {
		workers.NewProfileSyncWorker(users, cfg.ProfileSyncURL, cfg.ProfileSyncToken, cfg.ProfileSyncInterval, rec).Start(ctx)
	}

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
			stop()
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Daily XP reset scheduled (%s, %s)", cfg.DailyResetCron, cfg.Location)
	log.Println("✅ GatewayAuthMiddleware enforced globally, all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("⚠️  HTTP shutdown: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		log.Printf("⚠️  Scheduler shutdown: %v", err)
	}
	if natsSink != nil {
		if err := natsSink.Close(); err != nil {
			log.Printf("⚠️  NATS drain: %v", err)
		}
	}
}
