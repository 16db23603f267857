package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"term-chat/internal/cli"
	"term-chat/internal/config"
	"term-chat/internal/db"
	"term-chat/internal/repository"
	"term-chat/internal/service"
)

type stores struct {
	users    repository.UserRepository
	friends  repository.FriendRepository
	groups   repository.GroupRepository
	messages repository.MessageRepository
	system   repository.SystemConfigRepository
}

type app struct {
	services cli.Services
	redis    *redis.Client
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newLogger escribe JSON en LOG_FILE. La salida estándar es la interfaz.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = level
	zcfg.OutputPaths = []string{cfg.LogFile}
	zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	return zcfg.Build()
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{}

	st, err := openStores(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	limiter := service.NewLoginRateLimiter(cfg.LoginWindow, cfg.LoginMaxAttempts)
	if client := openRedis(ctx, cfg, logger); client != nil {
		a.redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		limiter = service.NewRedisLoginRateLimiter(logger, client, cfg.LoginWindow, cfg.LoginMaxAttempts)
	}

	users := service.NewUserService(logger, st.users, st.system, limiter)
	if err := users.SeedAdminPassword(ctx, cfg.AdminPassword); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed admin password: %w", err)
	}

	a.services = cli.Services{
		Users:    users,
		Members:  service.NewMembershipService(logger, st.users, st.friends, st.groups, users),
		Messages: service.NewMessageService(st.messages, cfg.HistoryLimit),
		Recent:   service.NewRecentService(logger, st.messages, st.groups),
	}
	return a, nil
}

func openStores(ctx context.Context, cfg *config.Config, a *app) (stores, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return stores{}, err
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })
		return stores{
			users:    repository.NewSqliteUserRepository(conn),
			friends:  repository.NewSqliteFriendRepository(conn),
			groups:   repository.NewSqliteGroupRepository(conn),
			messages: repository.NewSqliteMessageRepository(conn),
			system:   repository.NewSqliteSystemConfigRepository(conn),
		}, nil
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return stores{}, fmt.Errorf("create pool: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := db.Ping(ctx, pool); err != nil {
			return stores{}, fmt.Errorf("ping postgres: %w", err)
		}
		if err := db.Migrate(ctx, pool); err != nil {
			return stores{}, err
		}
		return stores{
			users:    repository.NewPgUserRepository(pool),
			friends:  repository.NewPgFriendRepository(pool),
			groups:   repository.NewPgGroupRepository(pool),
			messages: repository.NewPgMessageRepository(pool),
			system:   repository.NewPgSystemConfigRepository(pool),
		}, nil
	default:
		return stores{}, errors.New("unsupported DB_DRIVER " + cfg.DBDriver)
	}
}

// openRedis devuelve nil si no hay REDIS_ADDR o Redis no responde; en ese
// caso el limiter queda en memoria.
func openRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-memory login limiter", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
