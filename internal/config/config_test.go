package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, 16*1024*1024, cfg.App.BodyLimit())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("AWS_S3_BUCKET", "helpdesk-attachments")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Zero(t, cfg.App.RequestTimeout())
	assert.False(t, cfg.Postgres.RunMigrations)
	assert.Equal(t, StorageDriverS3, cfg.Storage.Driver)
	assert.Equal(t, "helpdesk-attachments", cfg.Storage.S3Bucket)
}

func TestLoadRejectsBadStorage(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("AWS_S3_BUCKET", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "ftp")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	_, err := Load()
	assert.Error(t, err)
}
