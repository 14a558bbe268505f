package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/yesid10/taskflow-api/internal/config"
	"github.com/yesid10/taskflow-api/internal/database"
	"github.com/yesid10/taskflow-api/internal/handler"
	"github.com/yesid10/taskflow-api/internal/identity"
	"github.com/yesid10/taskflow-api/internal/logger"
	"github.com/yesid10/taskflow-api/internal/middleware"
	"github.com/yesid10/taskflow-api/internal/queue"
	"github.com/yesid10/taskflow-api/internal/repository"
	"github.com/yesid10/taskflow-api/internal/router"
	"github.com/yesid10/taskflow-api/internal/service"
)

func main() {
	cfg, err := config.Load() // Load .env and environment config
	if err != nil {
		logger.New(0).Fatal("failed to load config", "error", err)
	}
	log := logger.New(cfg.LogLevel).With("env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("failed to migrate database", "error", err)
	}

	// Redis is optional: without it logout and refresh cannot revoke tokens
	// and tokens simply live until they expire.
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, token denylist disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	users := repository.NewUserRepo(db)
	tasks := repository.NewTaskRepo(db)
	denylist := repository.NewTokenRepo(rdb)

	var google service.IdentityVerifier
	if cfg.Google.Enabled() {
		v, err := identity.NewGoogleVerifier(cfg.Google, cfg.JWT.Leeway, log.Logger)
		if err != nil {
			log.Fatal("failed to initialise google verifier", "error", err)
		}
		defer v.Close()
		google = v
	} else {
		log.Warn("GOOGLE_CLIENT_ID not set, federated login disabled")
	}

	var events service.EventPublisher
	if cfg.AMQP.Enabled {
		events = queue.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, log.Logger)
		if cfg.AMQP.ConsumerEnabled {
			consumer := queue.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, "", log.Logger)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("auth consumer stopped", "error", err)
				}
			}()
		}
	}

	tokens := service.NewTokenService(cfg.JWT, users, denylist, log.Logger)
	creds, err := service.NewCredentialVerifier(users, cfg.BcryptCost)
	if err != nil {
		log.Fatal("failed to initialise credential verifier", "error", err)
	}
	reconciler := service.NewAccountReconciler(users, cfg.BcryptCost, log.Logger)
	auth := service.NewAuthService(users, creds, reconciler, tokens, google, events, cfg.BcryptCost, log.Logger)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HTTPErrorHandler = handler.ErrorHandler(log.Logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log.Logger))

	router.RegisterRoutes(e, handler.NewHealthHandler(db))
	router.RegisterAuth(e, handler.NewAuthHandler(auth), handler.NewProfileHandler(service.NewProfileService(users)), tokens)
	router.RegisterTasks(e, handler.NewTaskHandler(service.NewTaskService(tasks)), tokens)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("server stopped")
}
