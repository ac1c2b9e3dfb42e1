// Package config loads redblack settings from defaults, an optional YAML file
// and REDBLACK_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/observability"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/render"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/safeconv"
	"github.com/Maniekw12/Red-Black-Tree-implementation/pkg/snapshot"
)

// Sentinel validation errors.
var (
	ErrInvalidLogLevel       = errors.New("invalid log level")
	ErrInvalidLogFormat      = errors.New("log format must be text or json")
	ErrInvalidStressKeys     = errors.New("stress keys must be positive")
	ErrInvalidRounds         = errors.New("stress rounds must be positive")
	ErrInvalidShards         = errors.New("snapshot shards out of range")
	ErrInvalidThreshold      = errors.New("hibernation threshold must not be negative")
	ErrInvalidMaxSize        = errors.New("invalid snapshot max size")
	ErrInvalidManifestFormat = errors.New("invalid snapshot manifest format")
	ErrInvalidSampleRatio    = errors.New("sample ratio must be within [0, 1]")
	ErrInvalidColorMode      = errors.New("color must be auto, always or never")
)

const (
	configName = "redblack"
	envPrefix  = "REDBLACK"
)

// Config holds every redblack setting.
type Config struct {
	Logging       LoggingConfig       `mapstructure:"logging"`
	Stress        StressConfig        `mapstructure:"stress"`
	Snapshot      SnapshotConfig      `mapstructure:"snapshot"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Render        RenderConfig        `mapstructure:"render"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StressConfig holds the stress command defaults.
type StressConfig struct {
	Keys        int    `mapstructure:"keys"`
	Rounds      int    `mapstructure:"rounds"`
	Seed        int64  `mapstructure:"seed"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// SnapshotConfig holds the snapshot command defaults.
type SnapshotConfig struct {
	// Directory receives snapshot files; empty means a temporary directory.
	Directory            string `mapstructure:"directory"`
	Shards               int    `mapstructure:"shards"`
	HibernationThreshold int    `mapstructure:"hibernation_threshold"`
	// MaxSize caps the total serialized size, e.g. "64MiB".
	MaxSize string `mapstructure:"max_size"`
	// ManifestFormat is "json" or "yaml".
	ManifestFormat string `mapstructure:"manifest_format"`
}

// ObservabilityConfig holds the OpenTelemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	Environment  string  `mapstructure:"environment"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// RenderConfig holds terminal and chart output settings.
type RenderConfig struct {
	Width  string `mapstructure:"width"`
	Height string `mapstructure:"height"`
	Color  string `mapstructure:"color"`
}

// LoadConfig reads configPath, or redblack.yaml from the search path when
// configPath is empty. A missing file on the search path is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME/.config/redblack")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	err := viperCfg.ReadInConfig()
	if err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config

	err = viperCfg.Unmarshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("stress.keys", DefaultStressKeys)
	viperCfg.SetDefault("stress.rounds", DefaultStressRounds)
	viperCfg.SetDefault("stress.seed", DefaultStressSeed)
	viperCfg.SetDefault("stress.metrics_addr", "")

	viperCfg.SetDefault("snapshot.directory", DefaultSnapshotDirectory)
	viperCfg.SetDefault("snapshot.shards", DefaultSnapshotShards)
	viperCfg.SetDefault("snapshot.hibernation_threshold", DefaultSnapshotHibernationThreshold)
	viperCfg.SetDefault("snapshot.max_size", DefaultSnapshotMaxSize)
	viperCfg.SetDefault("snapshot.manifest_format", DefaultSnapshotManifestFormat)

	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.debug_trace", false)

	viperCfg.SetDefault("render.width", DefaultRenderWidth)
	viperCfg.SetDefault("render.height", DefaultRenderHeight)
	viperCfg.SetDefault("render.color", DefaultRenderColor)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	_, err := c.Logging.SlogLevel()
	if err != nil {
		errs = append(errs, err)
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format))
	}

	if c.Stress.Keys <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidStressKeys, c.Stress.Keys))
	}

	if c.Stress.Rounds <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidRounds, c.Stress.Rounds))
	}

	if c.Snapshot.Shards <= 0 || c.Snapshot.Shards > maxShards {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidShards, c.Snapshot.Shards))
	}

	if c.Snapshot.HibernationThreshold < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidThreshold, c.Snapshot.HibernationThreshold))
	}

	_, err = c.Snapshot.MaxSizeBytes()
	if err != nil {
		errs = append(errs, err)
	}

	_, err = c.Snapshot.ManifestCodec()
	if err != nil {
		errs = append(errs, err)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("%w: %g", ErrInvalidSampleRatio, c.Observability.SampleRatio))
	}

	_, err = c.Render.ColorMode()
	if err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// MaxSizeBytes parses MaxSize with go-humanize. Zero means unlimited.
func (s SnapshotConfig) MaxSizeBytes() (int, error) {
	if s.MaxSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(s.MaxSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxSize, err)
	}

	return safeconv.ClampToInt(size), nil
}

// ManifestCodec returns the snapshot manifest codec. Empty means JSON.
func (s SnapshotConfig) ManifestCodec() (snapshot.Codec, error) {
	if s.ManifestFormat == "" {
		return snapshot.NewJSONCodec(), nil
	}

	codec, err := snapshot.CodecFor(s.ManifestFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestFormat, err)
	}

	return codec, nil
}

// ColorMode maps Color onto the renderer's modes.
func (r RenderConfig) ColorMode() (render.ColorMode, error) {
	switch strings.ToLower(r.Color) {
	case "", "auto":
		return render.ColorAuto, nil
	case "always":
		return render.ColorAlways, nil
	case "never":
		return render.ColorNever, nil
	default:
		return render.ColorAuto, fmt.Errorf("%w: %q", ErrInvalidColorMode, r.Color)
	}
}

// Style returns the render style. Call after Validate.
func (r RenderConfig) Style() render.Style {
	mode, _ := r.ColorMode() //nolint:errcheck // validated at load time.

	return render.Style{Color: mode, Width: r.Width, Height: r.Height}
}

// Telemetry builds the observability settings for the given
// binary version and launch mode. Call after Validate.
func (c *Config) Telemetry(version string, mode observability.AppMode) observability.Config {
	obs := observability.DefaultConfig()
	obs.ServiceVersion = version
	obs.Mode = mode
	obs.Environment = c.Observability.Environment
	obs.OTLPEndpoint = c.Observability.OTLPEndpoint
	obs.OTLPInsecure = c.Observability.OTLPInsecure
	obs.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	obs.SampleRatio = c.Observability.SampleRatio
	obs.DebugTrace = c.Observability.DebugTrace
	obs.LogJSON = c.Logging.Format == "json"
	obs.LogLevel, _ = c.Logging.SlogLevel() //nolint:errcheck // validated at load time.

	return obs
}
