package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5.0, cfg.PlaneTolerance)
	assert.Equal(t, "2.25", cfg.UIDRoot)
	assert.Equal(t, 50, cfg.LogMaxSizeMB)
	assert.Equal(t, "srctl.db", cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestNew_Environment(t *testing.T) {
	t.Setenv("SRCTL_LOG_LEVEL", "debug")
	t.Setenv("SRCTL_PLANE_TOLERANCE_MM", "2.5")
	t.Setenv("SRCTL_DB", "/tmp/srctl.db")
	t.Setenv("SRCTL_LOG_JSON", "true")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, 2.5, cfg.PlaneTolerance)
	assert.Equal(t, "/tmp/srctl.db", cfg.DBPath)
	assert.True(t, cfg.LogJSON)
}
