package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/warmglow/reservation-platform/internal/api/router"
	appconfig "github.com/warmglow/reservation-platform/internal/config"
	"github.com/warmglow/reservation-platform/internal/conversation"
	"github.com/warmglow/reservation-platform/internal/faq"
	"github.com/warmglow/reservation-platform/internal/gcal"
	"github.com/warmglow/reservation-platform/internal/http/handlers"
	"github.com/warmglow/reservation-platform/internal/observability/metrics"
	"github.com/warmglow/reservation-platform/internal/reservations"
	"github.com/warmglow/reservation-platform/internal/support"
	"github.com/warmglow/reservation-platform/internal/timeslot"
	"github.com/warmglow/reservation-platform/internal/webchat"
	"github.com/warmglow/reservation-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reservation platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// The chat transcript and template stores run on database/sql; same
	// database, pgx stdlib driver.
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, chat sessions will not survive restarts", "error", err)
		}
	}

	var calendarSync reservations.CalendarSync
	gcalClient, err := gcal.New(ctx, gcal.Config{
		CredentialsJSON: []byte(cfg.GoogleCredentialsJSON),
		CredentialsFile: cfg.GoogleCredentialsFile,
		CalendarID:      cfg.GoogleCalendarID,
		SheetID:         cfg.GoogleSheetID,
	}, logger)
	switch {
	case errors.Is(err, gcal.ErrNotConfigured):
		logger.Info("google calendar sync disabled")
	case err != nil:
		logger.Error("failed to build google calendar client", "error", err)
		os.Exit(1)
	default:
		calendarSync = gcalClient
	}

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	slots := timeslot.NewDefaultRegistry()
	kb := faq.NewDefaultKnowledgeBase()

	repo := reservations.NewRepository(pool)
	svc := reservations.NewService(repo, calendarSync, cfg.CalendarSyncTimeout, bookingMetrics, logger)

	sessions := support.NewSessionStore(db)
	templates := support.NewTemplateRepository(db)

	engine := conversation.NewEngine(svc, templates, sessions, bookingMetrics, logger, cfg.ReservationFormURL)
	chat := webchat.NewHandler(engine, sessions, webchat.NewStateCache(redisClient), logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Reservations:       handlers.NewReservationsHandler(svc, slots, logger),
		FAQ:                handlers.NewFAQHandler(kb, bookingMetrics),
		Templates:          handlers.NewTemplatesHandler(templates, logger),
		BookingSummary:     handlers.NewBookingSummaryHandler(svc, slots, logger),
		Webchat:            chat,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WriteRateLimit:     5,
		WriteBurst:         10,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
