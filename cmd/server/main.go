package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/skills-directory/internal/config"
	"github.com/ignatzorin/skills-directory/internal/db"
	"github.com/ignatzorin/skills-directory/internal/goroutine"
	httpHandlers "github.com/ignatzorin/skills-directory/internal/http/handlers"
	"github.com/ignatzorin/skills-directory/internal/http/middleware"
	httpRouter "github.com/ignatzorin/skills-directory/internal/http/router"
	"github.com/ignatzorin/skills-directory/internal/logger"
	"github.com/ignatzorin/skills-directory/internal/repository"
	"github.com/ignatzorin/skills-directory/internal/service"
	"github.com/ignatzorin/skills-directory/internal/storage"
	"github.com/ignatzorin/skills-directory/internal/web"
)

const sessionPurgeInterval = time.Hour

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Setup(cfg.Env)

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL, db.DefaultPoolOptions)
	if err != nil {
		logger.L().Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		logger.L().Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	cacheService := service.NewCacheService(ctx, cfg.CacheTTL)

	pictureStorage, err := storage.NewPictureStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.L().Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	limitStore, err := middleware.NewRateLimitStore(cfg.RedisURL)
	if err != nil {
		logger.L().Fatalf("main: %v", err)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		logger.L().Fatalf("main: не удалось загрузить шаблоны: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	categoryRepo := repository.NewCategoryRepository(dbConn)
	providerRepo := repository.NewProviderRepository(dbConn)
	skillRepo := repository.NewSkillRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	directoryService := service.NewDirectoryService(categoryRepo, providerRepo, skillRepo, userRepo, cacheService, cfg.CacheTTL)
	providerService := service.NewProviderService(categoryRepo, providerRepo, skillRepo, pictureStorage, cacheService)
	seedService := service.NewSeedService(categoryRepo, userRepo, providerService)

	// Категории по умолчанию нужны каталогу с первого запуска.
	if created, err := seedService.SeedCategories(ctx); err != nil {
		logger.L().WithError(err).Warn("main: не удалось создать категории по умолчанию")
	} else if created > 0 {
		cacheService.InvalidateDirectory()
		logger.L().WithField("created", created).Info("main: созданы категории по умолчанию")
	}

	goroutine.Every(ctx, sessionPurgeInterval, authService.PurgeExpiredSessions)

	// HTTP хэндлеры.
	directoryHandler := httpHandlers.NewDirectoryHandler(directoryService)
	accountHandler := httpHandlers.NewAccountHandler(authService, cfg.CookieSecure)
	profileHandler := httpHandlers.NewProfileHandler(providerService, pictureStorage.MaxUploadBytes())
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	var seedHandler *httpHandlers.SeedHandler
	if cfg.IsDevelopment() {
		seedHandler = httpHandlers.NewSeedHandler(seedService)
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, renderer, authService, limitStore,
		directoryHandler, accountHandler, profileHandler, healthHandler, seedHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L().WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.L().WithFields(logrus.Fields{"port": cfg.HTTPPort, "env": cfg.Env}).Info("main: HTTP сервер запущен")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L().Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		logger.L().WithError(err).Error("main: ошибка закрытия базы")
	}
}
