package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Invoice.DefaultDueDays)
	assert.Equal(t, "INV", cfg.Invoice.NumberPrefix)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Sweeper.Interval)
	assert.Equal(t, 10, cfg.Stock.LowThreshold)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("invoice:\n  number_prefix: RX\nsweeper:\n  interval: 15m\nlog:\n  format: json\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "RX", cfg.Invoice.NumberPrefix)
	assert.Equal(t, 30, cfg.Invoice.DefaultDueDays)
	assert.Equal(t, 15*time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "invoice: [\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"empty prefix", "invoice:\n  number_prefix: \"\"\n"},
		{"zero interval", "sweeper:\n  interval: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Operator.UserID = 7
	cfg.Server.Addr = "127.0.0.1:9000"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), loaded.Operator.UserID)
	assert.Equal(t, "127.0.0.1:9000", loaded.Server.Addr)
}
