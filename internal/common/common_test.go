package common

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_URL", "")
	t.Setenv("WORKER_POLL_INTERVAL", "")

	cfg := LoadConfig()
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "docqueue.db", cfg.Database.DSN)
	assert.Equal(t, 3*time.Second, cfg.Worker.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.Worker.ExtractTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_URL", "postgres://u:p@localhost/db")
	t.Setenv("WORKER_POLL_INTERVAL", "250ms")
	t.Setenv("OCR_DPI", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Worker.PollInterval)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("INGEST_ROOT=/srv/cases\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("INGEST_ROOT", "")
	require.NoError(t, os.Unsetenv("INGEST_ROOT"))

	cfg := LoadConfig()
	assert.Equal(t, "/srv/cases", cfg.Ingest.Root)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "mysql"},
		Worker:   WorkerConfig{PollInterval: 0, ExtractTimeout: time.Second},
	}
	err := cfg.Validate()
	require.Error(t, err)

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "CONFIG_ERROR", appErr.Code)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, appErr.Message, "DB_URL")
	assert.Contains(t, appErr.Message, "DB_DRIVER")
	assert.Contains(t, appErr.Message, "WORKER_POLL_INTERVAL")
}

func TestValidator(t *testing.T) {
	v := NewValidator().
		Field("reference", "", Required).
		Field("doc_id", "abc", Required, MaxLength(2))
	require.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.True(t, IsValidationError(v.Error()))

	assert.NoError(t, NewValidator().Field("reference", "24/0001/FUL", Required).Error())
}

func TestContextValues(t *testing.T) {
	ctx := WithReference(WithWorkerID(context.Background(), "w-1"), "24/0001/FUL")
	assert.Equal(t, "w-1", WorkerIDFromContext(ctx))
	assert.Equal(t, "24/0001/FUL", ReferenceFromContext(ctx))
	assert.Empty(t, WorkerIDFromContext(context.Background()))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ignored"))
	err := WrapError(ErrDatabase, "claim")
	assert.ErrorIs(t, err, ErrDatabase)
	assert.Equal(t, "claim: database error", err.Error())
}
