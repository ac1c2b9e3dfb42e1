package config

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Stress defaults: the 35-key differential run.
const (
	DefaultStressKeys   = 35
	DefaultStressRounds = 10
	DefaultStressSeed   = 35
)

// Snapshot defaults.
const (
	DefaultSnapshotDirectory            = ""
	DefaultSnapshotShards               = 4
	DefaultSnapshotHibernationThreshold = 1000
	DefaultSnapshotMaxSize              = "64MiB"
	DefaultSnapshotManifestFormat       = "json"
)

// Render defaults.
const (
	DefaultRenderWidth  = "100%"
	DefaultRenderHeight = "720px"
	DefaultRenderColor  = "auto"
)

const maxShards = 256
