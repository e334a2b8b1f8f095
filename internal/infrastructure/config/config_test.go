package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "na", cfg.Gateway.Region)
	assert.Equal(t, 60*time.Second, cfg.Reconciler.PollInterval)
	assert.Equal(t, 50, cfg.Reconciler.BatchSize)
	assert.False(t, cfg.Reconciler.ThrowErrors)
	assert.Equal(t, "authorization-reconcilers", cfg.Worker.ConsumerGroup)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RECONCILER_INSTANCE_ID", "worker-7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "worker-7", cfg.InstanceID)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Database.Host = ""
	cfg.Reconciler.BatchSize = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "database.host")
	assert.Contains(t, err.Error(), "reconciler.batch_size")
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: 5432, User: "u", Password: "p",
		Database: "reconciler", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=reconciler sslmode=disable", c.DatabaseDSN())
}

func TestRedisAddr(t *testing.T) {
	c := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", c.RedisAddr())
}
