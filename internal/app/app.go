// Package app wires configuration into the storage, cache, AI gateway and
// loyalty service shared by the server and worker binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/loyalty-crm/internal/aigateway"
	"github.com/ignite/loyalty-crm/internal/cache"
	"github.com/ignite/loyalty-crm/internal/churn"
	"github.com/ignite/loyalty-crm/internal/config"
	"github.com/ignite/loyalty-crm/internal/offer"
	"github.com/ignite/loyalty-crm/internal/pkg/distlock"
	"github.com/ignite/loyalty-crm/internal/pkg/logger"
	"github.com/ignite/loyalty-crm/internal/repository/dynamo"
	"github.com/ignite/loyalty-crm/internal/repository/memory"
	"github.com/ignite/loyalty-crm/internal/repository/postgres"
	"github.com/ignite/loyalty-crm/internal/service/loyalty"
)

// RecalcLockKey names the lock that serializes batch recalculation.
const RecalcLockKey = "loyalty-recalculation"

// App holds the long-lived dependencies built from a Config.
type App struct {
	Config    *config.Config
	DB        *sql.DB       // nil unless storage is postgres
	Redis     *redis.Client // nil when Redis is not configured or unreachable
	Gen       aigateway.Generator
	Offers    *offer.Generator
	Estimator *churn.Estimator
	Service   *loyalty.Service
}

// Build connects the configured backends. Close releases them.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.Redact())

	a := &App{Config: cfg}

	if cfg.Storage.Type == "postgres" {
		db, err := OpenPostgres(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.DB = db
	}

	repo, err := NewRepository(ctx, cfg.Storage, a.DB)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Redis = ConnectRedis(ctx, cfg.Redis)
	a.Gen = aigateway.FromConfig(ctx, cfg.AI)
	a.Offers = offer.NewGenerator(a.Gen, offer.WithParseFallback(offer.ParseStrategy(cfg.Offers.ParseFallback)))
	a.Estimator = churn.NewEstimator(a.Gen)

	var opts []loyalty.Option
	if a.Redis != nil {
		opts = append(opts, loyalty.WithCache(cache.NewResultCache(a.Redis, cfg.Redis.CacheTTL())))
	}
	a.Service = loyalty.NewService(repo, a.Offers, a.Estimator, opts...)
	return a, nil
}

// AIEnabled reports whether at least one AI provider is usable.
func (a *App) AIEnabled() bool {
	_, disabled := a.Gen.(aigateway.Disabled)
	return !disabled
}

// RedisClient returns the connection as an interface, nil when absent.
func (a *App) RedisClient() redis.UniversalClient {
	if a.Redis == nil {
		return nil
	}
	return a.Redis
}

// RecalcLock picks Redis, then Postgres, then an in-process lock.
func (a *App) RecalcLock() distlock.Lock {
	return distlock.New(a.RedisClient(), a.DB, RecalcLockKey, a.Config.Recalculation.LockTTL())
}

func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewRepository selects the customer store named by cfg.Type.
func NewRepository(ctx context.Context, cfg config.StorageConfig, db *sql.DB) (loyalty.Repository, error) {
	switch cfg.Type {
	case "memory":
		logger.Warn("using in-memory customer storage, data is lost on restart")
		return memory.NewCustomerRepo(), nil
	case "postgres":
		if db == nil {
			return nil, errors.New("postgres storage requires a database connection")
		}
		return postgres.NewCustomerRepo(db), nil
	case "dynamodb":
		repo, err := dynamo.New(ctx, dynamo.Options{
			Table:     cfg.DynamoDBTable,
			Region:    cfg.AWSRegion,
			Profile:   cfg.GetAWSProfile(),
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
			Endpoint:  cfg.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

// OpenPostgres opens and pings the database with the pool limits the
// service runs with.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres storage requires database_url")
	}
	if !strings.Contains(dsn, "connect_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "connect_timeout=5"
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return db, nil
}

// ConnectRedis returns nil when Redis is not configured or unreachable; the
// service then runs without the result cache.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		logger.Info("redis not configured, result cache disabled")
		return nil
	}
	var client *redis.Client
	if opts, err := redis.ParseURL(cfg.Addr); err == nil {
		client = redis.NewClient(opts)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, result cache disabled", "addr", cfg.Addr, "error", err)
		client.Close()
		return nil
	}
	logger.Info("connected to redis", "addr", cfg.Addr)
	return client
}
