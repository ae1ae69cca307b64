package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/Dosada05/venue-system/cache"
	"github.com/Dosada05/venue-system/config"
	"github.com/Dosada05/venue-system/db"
	"github.com/Dosada05/venue-system/handlers"
	"github.com/Dosada05/venue-system/live"
	"github.com/Dosada05/venue-system/middleware"
	"github.com/Dosada05/venue-system/ratelimit"
	"github.com/Dosada05/venue-system/repositories"
	api "github.com/Dosada05/venue-system/routes"
	"github.com/Dosada05/venue-system/services"
	"github.com/Dosada05/venue-system/storage"
	"github.com/Dosada05/venue-system/tasks"
)

const (
	rateLimitSweepSpec = "@every 1m"
	requestTimeout     = 30 * time.Second
	shutdownTimeout    = 15 * time.Second
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	migrateCtx, cancelMigrate := context.WithTimeout(ctx, 30*time.Second)
	err = db.RunMigrations(migrateCtx, dbConn)
	cancelMigrate()
	if err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Кэш публичных списков (Redis), без REDIS_URL работает без кэша
	var listingCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		listingCache = cache.NewRedisCache(redisClient, cfg.CacheTTL)
		logger.Info("redis cache enabled", slog.Duration("ttl", cfg.CacheTTL))
	} else {
		logger.Info("redis cache disabled")
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader = storage.Disabled{}
	if cfg.UploadsEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("uploads disabled: R2 is not configured")
	}

	// Почта
	var mailer services.Mailer
	if cfg.MailEnabled() {
		mailer = services.NewSMTPMailer(services.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		})
		logger.Info("smtp mailer initialized", slog.String("host", cfg.SMTPHost))
	} else {
		mailer = services.NewLogMailer(logger)
		logger.Info("mail disabled: messages are only logged")
	}

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	dispatcher := tasks.NewDispatcher(cfg.DispatchWorkers, logger)

	limiter := ratelimit.New(cfg.SignupRateLimit, cfg.SignupRateWindow)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(rateLimitSweepSpec, func() {
		if removed := limiter.Sweep(); removed > 0 {
			logger.Debug("rate limit windows swept", slog.Int("removed", removed))
		}
	}); err != nil {
		logger.Error("failed to schedule rate limit sweep", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("scheduler started", slog.String("rate_limit_sweep", rateLimitSweepSpec))

	// Инициализация репозиториев
	transactor := repositories.NewTransactor(dbConn)
	eventRepo := repositories.NewPostgresEventRepository(dbConn)
	signupRepo := repositories.NewPostgresSignupRepository(dbConn)
	linkRepo := repositories.NewPostgresQuickLinkRepository(dbConn)
	scheduleRepo := repositories.NewPostgresScheduleRepository(dbConn)
	sectionRepo := repositories.NewPostgresSectionRepository(dbConn)
	bannerRepo := repositories.NewPostgresBannerRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	fx := services.SideEffects{
		Tasks:  dispatcher,
		Cache:  listingCache,
		Live:   wsHub,
		Logger: logger,
	}
	notificationService := services.NewNotificationService(mailer, eventRepo, signupRepo, cfg.AdminEmail)
	eventService := services.NewEventService(transactor, eventRepo, signupRepo, linkRepo, scheduleRepo, uploader, fx)
	signupService := services.NewSignupService(transactor, eventRepo, signupRepo, limiter, notificationService, fx)
	scheduleService := services.NewScheduleService(transactor, eventRepo, scheduleRepo, fx)
	sectionService := services.NewSectionService(transactor, sectionRepo, fx)
	bannerService := services.NewBannerService(bannerRepo, fx)
	contactService := services.NewContactService(mailer, cfg.AdminEmail)
	calendarService := services.NewCalendarService(eventRepo, services.CalendarConfig{
		Name:            cfg.CalendarName,
		DefaultLocation: cfg.DefaultLocation,
		PublicBaseURL:   cfg.PublicBaseURL,
	})
	qrCodeService := services.NewQRCodeService(eventRepo, cfg.PublicBaseURL, nil)
	uploadService := services.NewUploadService(uploader, logger)
	authService := services.NewAuthService(services.AdminCredentials{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPasswordHash,
	}, cfg.JWTSecretKey)
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH is empty: admin login is disabled")
	}
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	h := api.Handlers{
		Auth:      handlers.NewAuthHandler(authService, strings.HasPrefix(cfg.PublicBaseURL, "https://")),
		Events:    handlers.NewEventHandler(eventService, notificationService, calendarService, qrCodeService),
		Signups:   handlers.NewSignupHandler(signupService),
		Sections:  handlers.NewSectionHandler(sectionService),
		Schedule:  handlers.NewScheduleHandler(scheduleService),
		Banner:    handlers.NewBannerHandler(bannerService),
		Contact:   handlers.NewContactHandler(contactService),
		Uploads:   handlers.NewUploadHandler(uploadService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, originChecker(cfg.CORSAllowedOrigins), logger),
		Health:    handlers.NewHealthHandler(dbConn),
	}
	logger.Info("HTTP handlers initialized")

	trustedProxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, h, api.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Verifier:       authService,
		Logger:         logger,
		RequestTimeout: requestTimeout,
		TrustedProxies: trustedProxies,
	})
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}

		<-scheduler.Stop().Done()
		if err := dispatcher.Shutdown(shutdownCtx); err != nil {
			logger.Warn("background tasks did not finish", slog.Any("error", err))
		}
	}

	stop()
	logger.Info("application exited")
	if exitCode != 0 {
		_ = dbConn.Close()
		os.Exit(exitCode)
	}
}

// originChecker разрешает websocket-подключения только с настроенных CORS-источников.
func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return nil
		}
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}
