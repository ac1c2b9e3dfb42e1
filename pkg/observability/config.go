package observability

import "log/slog"

// AppMode tags telemetry with how the binary runs.
type AppMode string

const (
	// ModeCLI covers commands that exit once their output is written.
	ModeCLI AppMode = "cli"
	// ModeServe is stress with a metrics address: the process stays up for scrapes.
	ModeServe AppMode = "serve"
)

const (
	defaultServiceName        = "redblack"
	defaultShutdownTimeoutSec = 5
)

// Config is built by config.Config.Telemetry from the telemetry and log
// sections of the configuration file.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	// OTLPEndpoint is a gRPC collector address such as "localhost:4317".
	// When empty nothing is exported and Init returns no-op providers.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	OTLPInsecure bool

	// DebugTrace samples every span and logs the attributes the filter drops.
	DebugTrace bool

	// SampleRatio in [0, 1] applies to root spans; 0 keeps them all.
	SampleRatio float64

	LogLevel slog.Level
	LogJSON  bool

	ShutdownTimeoutSec int
}

// DefaultConfig is the configuration used when no file or flag sets one.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
