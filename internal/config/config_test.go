package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcpregd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 100*time.Millisecond, cfg.Registry.GracePeriod)
	assert.Equal(t, 64*1024, cfg.Registry.ReadBufferSize)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
gateway:
  listen: 127.0.0.1:9000
registry:
  grace_period: 250ms
  read_buffer_size: 4096
log:
  level: debug
  format: json
  outputs: [stdout]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Gateway.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.Registry.GracePeriod)
	assert.Equal(t, 4096, cfg.Registry.ReadBufferSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"stdout"}, cfg.Log.Outputs)
	// untouched keys keep their defaults
	assert.Equal(t, 50, cfg.Log.Rotation.MaxSizeMB)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TCPREG_GATEWAY_LISTEN", ":9100")
	t.Setenv("TCPREG_REGISTRY_GRACE_PERIOD", "1s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.Gateway.Listen)
	assert.Equal(t, time.Second, cfg.Registry.GracePeriod)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "log:\n  level: loud\n"},
		{"empty listen", "gateway:\n  listen: \"\"\n"},
		{"negative grace period", "registry:\n  grace_period: -1s\n"},
		{"zero read buffer", "registry:\n  read_buffer_size: 0\n"},
		{"not yaml", "gateway: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
