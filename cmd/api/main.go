// Command api serves the marketplace edge gate and session API.
//
// @title                       Marketplace Gate API
// @version                     1.0
// @description                 Role-zoned edge gate and session API for the rental marketplace.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rentalhub/marketplace-gate/internal/api"
	"github.com/rentalhub/marketplace-gate/internal/api/metrics"
	"github.com/rentalhub/marketplace-gate/internal/api/middleware"
	"github.com/rentalhub/marketplace-gate/internal/core/service"
	mongodb "github.com/rentalhub/marketplace-gate/internal/infrastructure/db/mongo"
	redisdb "github.com/rentalhub/marketplace-gate/internal/infrastructure/db/redis"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/http/handlers"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/queue"
	"github.com/rentalhub/marketplace-gate/internal/infrastructure/session"
	"github.com/rentalhub/marketplace-gate/internal/pkg/config"
	"github.com/rentalhub/marketplace-gate/internal/telemetry"
	"github.com/rentalhub/marketplace-gate/pkg/logger"
)

const (
	serviceVersion  = "1.0.0"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.MustLoad()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: cfg.Telemetry.ServiceName,
		Version: serviceVersion,
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Env,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Headers:        cfg.Telemetry.Headers,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  cfg.Mongo.AppName,
		Timeout:  cfg.Mongo.Timeout,
		Traced:   cfg.Telemetry.Enabled && cfg.Mongo.Traced,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient, shutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongo")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	accessEvents := mongodb.NewAccessEventRepository(db)
	if err := accessEvents.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("access event indexes not created")
	}

	// --- Core services ---
	recorder := metrics.Recorder{}

	profiles := service.NewProfileService(
		mongodb.NewProfileRepository(db),
		redisdb.NewProfileCache(rdb),
		cfg.Session.ProfileCacheTTL,
		recorder,
		logger.Component(log, "profiles"),
	)

	auditor := service.NewAuditService(
		accessEvents,
		redisdb.NewAttemptCounter(rdb),
		service.AuditPolicy{
			Window:    cfg.Audit.AttemptWindow,
			Threshold: cfg.Audit.AttemptThreshold,
		},
		logger.Component(log, "audit"),
	)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, cfg.Audit.Buffer, auditor, recorder, logger.Component(log, "dispatcher"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	routes, err := service.NewRouteTable(cfg.Gate.RouteTable())
	if err != nil {
		stopWorkers()
		return err
	}
	codec := service.NewCredentialCodec(cfg.Session.Leeway)
	gate := service.NewGate(routes, codec, service.NewAccessRecorder(recorder, dispatcher, logger.Component(log, "gate")))

	prefixes, extensions := cfg.Gate.Exclusions()

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Gate:         gate,
		Decoder:      codec,
		Profiles:     profiles,
		AccessEvents: accessEvents,
		HealthChecks: map[string]handlers.Check{
			"mongo": handlers.MongoCheck(db),
			"redis": handlers.RedisCheck(rdb),
		},
		JWTSecret: cfg.JWTSecret,
		Cookie: session.CookieOptions{
			Name:     cfg.Session.CookieName,
			Domain:   cfg.Session.CookieDomain,
			Secure:   cfg.Session.CookieSecure,
			HTTPOnly: cfg.Session.CookieHTTPOnly,
			MaxAge:   cfg.Session.CookieMaxAge,
		},
		Exclusions: middleware.Exclusions{
			Prefixes:   prefixes,
			Extensions: extensions,
		},
		SessionWait:  cfg.Session.Wait,
		FetchTimeout: cfg.Session.FetchTimeout,
		Tracer:       otelProvider.Tracer(),
		Log:          log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err = <-serverErr:
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("http shutdown failed")
	}

	// Workers drain what the gate already queued before storage closes.
	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped cleanly")

	return err
}
