package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/totegamma/aquamind/internal/config"
	"github.com/totegamma/aquamind/internal/infra/database"
	"github.com/totegamma/aquamind/internal/infra/kafka"
	"github.com/totegamma/aquamind/internal/infra/memory"
	"github.com/totegamma/aquamind/internal/infra/ratelimit"
	"github.com/totegamma/aquamind/internal/infra/repository"
	"github.com/totegamma/aquamind/internal/infra/telemetry"
	"github.com/totegamma/aquamind/internal/present/rest"
	"github.com/totegamma/aquamind/internal/service"
	"github.com/totegamma/aquamind/internal/usecase"
)

const profileCacheTTL = 10 * time.Minute

type app struct {
	echo    *echo.Echo
	hub     *service.Hub
	closers []func() error
}

func (a *app) close() {
	a.hub.Close()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", slog.String("error", err.Error()), slog.String("module", "main"))
		}
	}
}

type stores struct {
	users  usecase.UserRepository
	posts  usecase.PostRepository
	scores usecase.ScoreRepository
}

func openDatabase(conf config.Config) (*gorm.DB, error) {
	switch conf.Server.Storage {
	case "postgres":
		return database.NewPostgres(conf.Server.PostgresDsn)
	case "sqlite":
		return database.NewSqlite(conf.Server.SqlitePath)
	default:
		return nil, fmt.Errorf("storage %q has no database", conf.Server.Storage)
	}
}

var migrate = database.Migrate

// openMigrated opens the configured database and brings its schema up to
// date. The pool is closed again when migration fails.
func openMigrated(conf config.Config) (*gorm.DB, error) {
	db, err := openDatabase(conf)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// build wires the whole server. Background workers are bound to ctx.
func build(ctx context.Context, conf config.Config) (*app, error) {
	a := &app{hub: service.NewHub(conf.Hub.QueueSize)}

	var s stores
	switch conf.Server.Storage {
	case "memory":
		users := memory.NewUserStore()
		s = stores{
			users:  users,
			posts:  memory.NewPostStore(users),
			scores: memory.NewScoreStore(users),
		}
	default:
		db, err := openMigrated(conf)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}

		var users usecase.UserRepository = repository.NewUserRepository(db)
		if conf.Server.MemcachedAddr != "" {
			users = repository.NewCachedUserRepository(users, database.NewMemcached(conf.Server.MemcachedAddr), profileCacheTTL)
		} else {
			users = repository.NewCachedUserRepository(users, nil, profileCacheTTL)
		}
		s = stores{
			users:  users,
			posts:  repository.NewPostRepository(db),
			scores: repository.NewScoreRepository(db),
		}
	}

	var sinks []usecase.EventPublisher
	var gate usecase.RateGate = ratelimit.NewWindowGate(conf.RateLimit.Window, conf.RateLimit.MaxRequests)

	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisDB)
		a.closers = append(a.closers, rdb.Close)

		signal := service.NewSignalService(rdb, service.DefaultSignalChannel, a.hub)
		go func() {
			if err := signal.Run(ctx); err != nil {
				slog.Error("signal relay stopped", slog.String("error", err.Error()), slog.String("module", "main"))
			}
		}()
		sinks = append(sinks, signal)

		if conf.RateLimit.Backend == "redis" {
			gate = ratelimit.NewRedisGate(rdb, conf.RateLimit.Window, conf.RateLimit.MaxRequests)
		}
	} else {
		sinks = append(sinks, a.hub)
	}

	if len(conf.Server.KafkaBrokers) > 0 {
		exporter := kafka.NewExporter(conf.Server.KafkaBrokers, conf.Server.KafkaTopic)
		a.closers = append(a.closers, exporter.Close)
		sinks = append(sinks, exporter)
	}

	auth := usecase.NewAuthUsecase(s.users, service.NewTokenService(conf.Auth.JWTSecret), conf.Domain())
	interaction := usecase.NewInteractionUsecase(
		gate,
		auth,
		s.posts,
		s.scores,
		service.NewBroadcaster(sinks...),
		conf.Domain(),
	)

	a.echo = rest.NewServer(rest.NewHandler(interaction, a.hub, conf.Hub), telemetry.ServiceName)
	return a, nil
}
