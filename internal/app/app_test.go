package app

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/loyalty-crm/internal/config"
	"github.com/ignite/loyalty-crm/internal/pkg/distlock"
	"github.com/ignite/loyalty-crm/internal/repository/memory"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: "error"},
		Storage: config.StorageConfig{Type: "memory"},
		Offers:  config.OffersConfig{ParseFallback: "rich"},
	}
}

func TestBuild_Memory(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.RedisClient(), "absent redis must be a nil interface")
	assert.False(t, a.AIEnabled())
	assert.IsType(t, &distlock.Local{}, a.RecalcLock())
	require.NotNil(t, a.Service)
}

func TestBuild_WithRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := memoryConfig()
	cfg.Redis.Addr = mr.Addr()
	a, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Redis)
	assert.IsType(t, &distlock.RedisLock{}, a.RecalcLock())
}

func TestConnectRedis_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	assert.Nil(t, ConnectRedis(context.Background(), config.RedisConfig{Addr: addr}))
	assert.Nil(t, ConnectRedis(context.Background(), config.RedisConfig{}))
}

func TestNewRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := NewRepository(ctx, config.StorageConfig{Type: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.CustomerRepo{}, repo)

	_, err = NewRepository(ctx, config.StorageConfig{Type: "postgres"}, nil)
	assert.Error(t, err)

	_, err = NewRepository(ctx, config.StorageConfig{Type: "cassandra"}, nil)
	assert.Error(t, err)
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	assert.Error(t, err)
}
