package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"workshopbuddy/docs"
	"workshopbuddy/internal/auth"
	"workshopbuddy/internal/cache"
	"workshopbuddy/internal/config"
	"workshopbuddy/internal/db"
	"workshopbuddy/internal/handler"
	"workshopbuddy/internal/logger"
	"workshopbuddy/internal/metrics"
	"workshopbuddy/internal/repository"
	"workshopbuddy/internal/router"
	"workshopbuddy/internal/service"
)

// @title WorkshopBuddy API
// @version 1.0
// @description Workshop inventory tracker: materials, consumables and items built from linked materials.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	logr := logger.New(cfg.Logging)
	log.Logger = logr
	zerolog.DefaultContextLogger = &logr

	if cfg.UsesInsecureSecret() {
		logr.Warn().Msg("using the built-in development JWT secret; set AUTH_JWT_SECRET before deploying")
	}

	gormDB, err := db.Open(cfg.Database, logr)
	if err != nil {
		logr.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("database init")
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		logr.Warn().Msg("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logr.Fatal().Err(err).Msg("reset database")
		}
	}

	if err := db.Migrate(gormDB); err != nil {
		logr.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.FromConfig(cfg.Redis, logr)
	if cacheClient != nil {
		if err := cacheClient.Ping(context.Background()); err != nil {
			logr.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, logout revocation is best effort")
		}
		defer cacheClient.Close()
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	materialRepo := repository.NewMaterialRepository(gormDB)
	consumableRepo := repository.NewConsumableRepository(gormDB)
	itemRepo := repository.NewItemRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience, cfg.Auth.TokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, m)
	materialService := service.NewStockService(materialRepo)
	consumableService := service.NewStockService(consumableRepo)
	itemService := service.NewItemService(itemRepo, materialRepo)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, logr, m, authService, router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		Materials:   handler.NewStockHandler(materialService),
		Consumables: handler.NewStockHandler(consumableService),
		Items:       handler.NewItemHandler(itemService),
	})

	if cfg.Swagger.Host != "" {
		docs.SwaggerInfo.Host = cfg.Swagger.Host
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Server.Port
	go func() {
		logr.Info().Str("addr", addr).Str("env", cfg.App.Env).Str("db", cfg.Database.Driver).Msg("server starting")
		if cfg.Swagger.Enabled {
			logr.Info().Str("url", "http://localhost"+addr+"/swagger/index.html").Msg("swagger documentation available")
		}
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	logr.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logr.Error().Err(err).Msg("graceful shutdown failed")
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logr.Info().Msg("server stopped")
}
