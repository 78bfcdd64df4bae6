// @title                       Counseling API
// @version                     1.0
// @description                 Consultation booking between students and counselors with video rooms and email notifications.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuscare/counseling-api/internal/api"
	"github.com/campuscare/counseling-api/internal/core/ports"
	"github.com/campuscare/counseling-api/internal/core/service"
	"github.com/campuscare/counseling-api/internal/infrastructure/config"
	"github.com/campuscare/counseling-api/internal/infrastructure/daily"
	mongostore "github.com/campuscare/counseling-api/internal/infrastructure/db/mongo"
	"github.com/campuscare/counseling-api/internal/infrastructure/db/postgres"
	redisstore "github.com/campuscare/counseling-api/internal/infrastructure/db/redis"
	"github.com/campuscare/counseling-api/internal/infrastructure/email"
	"github.com/campuscare/counseling-api/internal/infrastructure/http/handlers"
	"github.com/campuscare/counseling-api/internal/infrastructure/identity"
	"github.com/campuscare/counseling-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "counseling-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// --- Postgres: identities, role store, consultations ---
	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.Postgres.URL})
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.Postgres.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		if v, err := postgres.Version(ctx, pool); err == nil {
			log.Info().Int64("version", v).Msg("database migrated")
		}
	}

	checks := map[string]handlers.Check{"postgres": handlers.PostgresCheck(pool)}

	// --- Mongo: optional audit trail ---
	var audit ports.AuditRepository
	if cfg.Mongo.URI != "" {
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "counseling-api",
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()

		repo := mongostore.NewAuditRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to ensure audit indexes")
		}
		audit = repo
		checks["mongo"] = handlers.MongoCheck(db)
	} else {
		log.Warn().Msg("MONGO_URI not set, consultation audit trail disabled")
	}

	// --- Redis: optional cross-instance accept guard ---
	var guard ports.AcceptGuard
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		guard = redisstore.NewAcceptGuard(rdb, redisstore.DefaultGuardTTL)
		checks["redis"] = handlers.RedisCheck(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, concurrent accepts rely on the conditional update only")
	}

	// --- Identity and authorization ---
	tokens, err := identity.NewJWT(identity.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return err
	}

	users := postgres.NewUserRepository(pool)
	gate := service.NewAuthorizationGate(tokens, users)
	authService := service.NewAuthService(postgres.NewCredentialRepository(pool), users, tokens)
	userService := service.NewUserService(gate, users, authService, logger.Component("users"))

	if err := userService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		return err
	}

	// --- Consultation workflow ---
	consultations := service.NewConsultationService(service.ConsultationDeps{
		Consultations: postgres.NewConsultationRepository(pool),
		Users:         users,
		Gate:          gate,
		Rooms: daily.NewClient(daily.Config{
			APIKey:  cfg.Daily.APIKey,
			BaseURL: cfg.Daily.BaseURL,
			Timeout: cfg.Daily.Timeout,
		}),
		Notifier: email.NewNotifier(email.Config{
			APIKey:  cfg.Email.APIKey,
			BaseURL: cfg.Email.BaseURL,
			From:    cfg.Email.From,
			Timeout: cfg.Email.Timeout,
		}),
		Composer:    email.NewComposer(cfg.Email.AppURL),
		Audit:       audit,
		Guard:       guard,
		NotifyDelay: cfg.NotifyDelay,
	}, logger.Component("consultations"))

	router := api.NewRouter(api.Dependencies{
		Gate:          gate,
		Auth:          authService,
		Users:         userService,
		Consultations: consultations,
		Readiness:     handlers.NewReadinessHandler(checks),
		Logger:        logger.Component("http"),
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
