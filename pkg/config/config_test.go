package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/config"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "redblack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLogLevel, cfg.Logging.Level)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, config.DefaultStressKeys, cfg.Stress.Keys)
	assert.Equal(t, config.DefaultStressRounds, cfg.Stress.Rounds)
	assert.Equal(t, int64(config.DefaultStressSeed), cfg.Stress.Seed)
	assert.Equal(t, config.DefaultSnapshotShards, cfg.Snapshot.Shards)
	assert.Equal(t, config.DefaultSnapshotHibernationThreshold, cfg.Snapshot.HibernationThreshold)
	assert.Equal(t, config.DefaultRenderHeight, cfg.Render.Height)
	assert.Equal(t, config.DefaultSnapshotManifestFormat, cfg.Snapshot.ManifestFormat)

	size, err := cfg.Snapshot.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, 64<<20, size)
}

func TestLoadConfigSearchPathMissingIsFine(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultStressKeys, cfg.Stress.Keys)
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
logging:
  level: debug
  format: json
stress:
  keys: 100
  rounds: 3
  seed: 7
  metrics_addr: ":9464"
snapshot:
  directory: /var/tmp/redblack
  shards: 8
  hibernation_threshold: 0
  max_size: 1.5 MB
  manifest_format: yaml
observability:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  otlp_headers: "x-team=trees, x-env=dev"
  sample_ratio: 0.25
  environment: dev
render:
  color: never
  width: 1200px
`))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Stress.Keys)
	assert.Equal(t, int64(7), cfg.Stress.Seed)
	assert.Equal(t, ":9464", cfg.Stress.MetricsAddr)
	assert.Equal(t, "/var/tmp/redblack", cfg.Snapshot.Directory)
	assert.Equal(t, 8, cfg.Snapshot.Shards)
	assert.Equal(t, 0, cfg.Snapshot.HibernationThreshold)

	size, err := cfg.Snapshot.MaxSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, 1_500_000, size)

	codec, err := cfg.Snapshot.ManifestCodec()
	require.NoError(t, err)
	assert.Equal(t, ".yaml", codec.Extension())

	style := cfg.Render.Style()
	assert.Equal(t, render.ColorNever, style.Color)
	assert.Equal(t, "1200px", style.Width)
	assert.Equal(t, config.DefaultRenderHeight, style.Height)

	obs := cfg.Telemetry("1.0.0", observability.ModeServe)
	assert.Equal(t, slog.LevelDebug, obs.LogLevel)
	assert.True(t, obs.LogJSON)
	assert.Equal(t, "localhost:4317", obs.OTLPEndpoint)
	assert.True(t, obs.OTLPInsecure)
	assert.Equal(t, map[string]string{"x-team": "trees", "x-env": "dev"}, obs.OTLPHeaders)
	assert.InDelta(t, 0.25, obs.SampleRatio, 1e-9)
	assert.Equal(t, "dev", obs.Environment)
	assert.Equal(t, "1.0.0", obs.ServiceVersion)
	assert.Equal(t, observability.ModeServe, obs.Mode)
	assert.Equal(t, "redblack", obs.ServiceName)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("REDBLACK_STRESS_KEYS", "500")
	t.Setenv("REDBLACK_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(writeConfig(t, "stress:\n  keys: 10\n"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Stress.Keys)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"log level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"log format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"keys", "stress:\n  keys: 0\n", config.ErrInvalidStressKeys},
		{"rounds", "stress:\n  rounds: -2\n", config.ErrInvalidRounds},
		{"shards zero", "snapshot:\n  shards: 0\n", config.ErrInvalidShards},
		{"shards many", "snapshot:\n  shards: 1000\n", config.ErrInvalidShards},
		{"threshold", "snapshot:\n  hibernation_threshold: -1\n", config.ErrInvalidThreshold},
		{"max size", "snapshot:\n  max_size: lots\n", config.ErrInvalidMaxSize},
		{"manifest format", "snapshot:\n  manifest_format: gob\n", config.ErrInvalidManifestFormat},
		{"sample ratio", "observability:\n  sample_ratio: 1.5\n", config.ErrInvalidSampleRatio},
		{"color", "render:\n  color: sometimes\n", config.ErrInvalidColorMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := config.Config{
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
		Stress:   config.StressConfig{Keys: 0, Rounds: 0},
		Snapshot: config.SnapshotConfig{Shards: 1},
	}

	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidStressKeys)
	require.ErrorIs(t, err, config.ErrInvalidRounds)
	assert.NotErrorIs(t, err, config.ErrInvalidShards)
}
