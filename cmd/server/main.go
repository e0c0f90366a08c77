package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/cors"

	"github.com/iliyamo/condo-manager/internal/app"
	"github.com/iliyamo/condo-manager/internal/config"
	"github.com/iliyamo/condo-manager/internal/database"
	"github.com/iliyamo/condo-manager/internal/handler"
	"github.com/iliyamo/condo-manager/internal/middleware"
	"github.com/iliyamo/condo-manager/internal/queue"
	"github.com/iliyamo/condo-manager/internal/router"
	"github.com/iliyamo/condo-manager/internal/utils"
)

const appName = "condo-api"

func main() {
	utils.InitLogger(appName)
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		utils.Logger.WithError(err).Fatal("database unavailable")
	}
	defer db.Close()

	var events queue.EventPublisher = queue.NopPublisher{}
	if cfg.AMQP.Enabled {
		pub := queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		defer pub.Close()
		events = pub
	}
	a := app.New(db, cfg.BcryptCost, events)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.RequestLogger(utils.Logger))
	e.Use(echo.WrapMiddleware(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler))

	var unitCache echo.MiddlewareFunc = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	unitEvict := unitCache
	if rdb := config.NewRedisClient(config.LoadRedisConfig()); rdb != nil {
		defer rdb.Close()
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		cacheCfg := config.LoadCacheConfig()
		unitCache = middleware.NewRedisCache(cacheCfg, rdb)
		unitEvict = middleware.NewCacheInvalidator(cacheCfg, rdb)
	}

	auth := middleware.JWTAuth(cfg.JWTSecret, a.Accounts)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, a.Accounts, a.Tokens, utils.BcryptVerifier, a.Records), auth)
	router.RegisterCommunity(e,
		handler.NewReservationHandler(a.Booking),
		handler.NewNotificationHandler(a.Notifier),
		handler.NewMessageHandler(a.Messaging),
		auth,
	)
	router.RegisterRecords(e, handler.NewRecordHandler(a.Records), auth, unitCache, unitEvict)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.Port
		utils.Logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("graceful shutdown failed")
	}
}
