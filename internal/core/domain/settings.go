package domain

import (
	"path/filepath"
	"time"
)

// StorageSettings configures where datasets live.
type StorageSettings struct {
	// Root is the primary dataset root. Projects live under Root/projects.
	Root string
}

// APISettings configures the HTTP API server.
type APISettings struct {
	// Host is the bind address.
	Host string

	// Port is the bind port.
	Port int

	// RateLimit is the sustained request rate in requests per second.
	// Zero disables limiting.
	RateLimit float64

	// Burst is the maximum burst size for the limiter.
	Burst int

	// MaxUploadBytes caps the size of an uploaded sample.
	MaxUploadBytes int64
}

// ScannerSettings configures the external yextend scanner.
type ScannerSettings struct {
	// YextendPath is the path to the yextend binary.
	YextendPath string

	// RulesDir holds *.yar / *.yara rule files and the generated index.
	RulesDir string
}

// DispatcherSettings configures command chain execution.
type DispatcherSettings struct {
	// StatementTimeout bounds each statement. Zero means no timeout.
	StatementTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Storage    StorageSettings
	API        APISettings
	Scanner    ScannerSettings
	Dispatcher DispatcherSettings
}

// Default setting values.
const (
	DefaultAPIHost          = "localhost"
	DefaultAPIPort          = 8080
	DefaultAPIRateLimit     = 10
	DefaultAPIBurst         = 20
	DefaultMaxUploadBytes   = 256 << 20
	DefaultYextendPath      = "/usr/local/bin/yextend"
	DefaultStatementTimeout = 5 * time.Minute
)

// DefaultAppSettings returns settings with sensible defaults for a storage root.
func DefaultAppSettings(root string) AppSettings {
	return AppSettings{
		Storage: StorageSettings{Root: root},
		API: APISettings{
			Host:           DefaultAPIHost,
			Port:           DefaultAPIPort,
			RateLimit:      DefaultAPIRateLimit,
			Burst:          DefaultAPIBurst,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Scanner: ScannerSettings{
			YextendPath: DefaultYextendPath,
			RulesDir:    filepath.Join(root, "data", "yara"),
		},
		Dispatcher: DispatcherSettings{
			StatementTimeout: DefaultStatementTimeout,
		},
	}
}
