package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/backbot/config"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

const minimalYAML = `
backtest:
  start_time: "2024-03-01T00:00:00Z"
  end_time: "2024-03-02T00:00:00Z"
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.Step())
	assert.InDelta(t, 10_000, cfg.Backtest.InitialCash, 1e-9)
	assert.Equal(t, "free", cfg.API.Tier)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFeesEnabledByDefault(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	// enable_fees omitido: fees activas.
	assert.True(t, cfg.FeesEnabled())
}

func TestFeesExplicitOptOut(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, minimalYAML+"  enable_fees: false\n"))
	require.NoError(t, err)

	assert.False(t, cfg.FeesEnabled())
}

func TestLoadRejectsMissingWindow(t *testing.T) {
	_, err := config.Load(writeConfig(t, "backtest:\n  step_seconds: 60\n"))
	assert.Error(t, err)
}

func TestLoadRejectsInvertedWindow(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
backtest:
  start_time: "2024-03-02T00:00:00Z"
  end_time: "2024-03-01T00:00:00Z"
`))
	assert.Error(t, err)
}
