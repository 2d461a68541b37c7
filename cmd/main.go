package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	configs "github.com/phamtung-23/auth-service/config"
	"github.com/phamtung-23/auth-service/internal/handler"
	"github.com/phamtung-23/auth-service/internal/mailer"
	"github.com/phamtung-23/auth-service/internal/middleware"
	"github.com/phamtung-23/auth-service/internal/repository"
	"github.com/phamtung-23/auth-service/internal/router"
	"github.com/phamtung-23/auth-service/internal/service"
	"github.com/phamtung-23/auth-service/pkg/circuit"
	"github.com/phamtung-23/auth-service/pkg/database"
	"github.com/phamtung-23/auth-service/pkg/logger"
	"github.com/phamtung-23/auth-service/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Initialize Zap logger
	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := database.Seed(db); err != nil {
		// Don't fail - seed data may already exist
		logger.GetLogger().Error("Failed to seed database", zap.Error(err))
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:         config.Redis.Host,
		Port:         config.Redis.Port,
		Password:     config.Redis.Password,
		DB:           config.Redis.Database,
		Enabled:      config.Redis.Enabled,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
	}, logger.GetLogger())
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	otpRepo := repository.NewOtpRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	// Outbound mail behind a circuit breaker
	mailBreaker := circuit.NewBreaker("smtp", circuit.DefaultConfig(), logger.GetLogger())
	mailSender := mailer.NewSMTPSender(config.SMTP, config.Otp.TTL, mailBreaker, logger.GetLogger())

	// Services
	cacheService := service.NewCacheService(redisClient)
	otpService := service.NewOtpService(otpRepo, config.Otp.Length, config.Otp.TTL, config.Otp.Retention)
	tokenService := service.NewTokenService(
		config.JWT.Secret,
		config.JWT.AccessTTL,
		config.JWT.RefreshTTL,
		config.Cleanup.TokenRetention,
		tokenRepo,
		userRepo,
	)
	authService := service.NewAuthService(userRepo, otpService, tokenService, mailSender, cacheService)

	// Background cleanup of expired OTPs and stale refresh tokens
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	cleanup := service.NewCleanupService(otpService, tokenService, config.Cleanup.Interval)
	go cleanup.Start(cleanupCtx)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Middleware
	if err := middleware.RegisterCustomValidators(); err != nil {
		logger.GetLogger().Fatal("Failed to register validators", zap.Error(err))
	}
	jwtMiddleware := middleware.NewJWTMiddleware(tokenService, userRepo)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	r := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,
		jwtMiddleware,
		rateLimiter,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}
