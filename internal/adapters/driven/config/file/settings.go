package file

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/logger"
)

// Configuration keys.
const (
	KeyStorageRoot      = "storage.root"
	KeyAPIHost          = "api.host"
	KeyAPIPort          = "api.port"
	KeyAPIRateLimit     = "api.rate_limit"
	KeyAPIBurst         = "api.burst"
	KeyUploadMaxBytes   = "upload.max_bytes"
	KeyYextendPath      = "scanner.yextend_path"
	KeyRulesDir         = "scanner.rules_dir"
	KeyStatementTimeout = "dispatcher.statement_timeout"
)

// LoadSettings overlays the values present in store on the defaults for
// defaultRoot. The rules directory follows a configured storage root
// unless it is set explicitly.
func LoadSettings(store driven.ConfigStore, defaultRoot string) domain.AppSettings {
	root := defaultRoot
	if v := store.GetString(KeyStorageRoot); v != "" {
		root = v
	}
	settings := domain.DefaultAppSettings(root)

	if v := store.GetString(KeyAPIHost); v != "" {
		settings.API.Host = v
	}
	if v := store.GetInt(KeyAPIPort); v > 0 {
		settings.API.Port = v
	}
	if _, ok := store.Get(KeyAPIRateLimit); ok {
		settings.API.RateLimit = store.GetFloat(KeyAPIRateLimit)
	}
	if v := store.GetInt(KeyAPIBurst); v > 0 {
		settings.API.Burst = v
	}
	if v := store.GetInt(KeyUploadMaxBytes); v > 0 {
		settings.API.MaxUploadBytes = int64(v)
	}
	if v := store.GetString(KeyYextendPath); v != "" {
		settings.Scanner.YextendPath = v
	}
	if v := store.GetString(KeyRulesDir); v != "" {
		settings.Scanner.RulesDir = filepath.Clean(v)
	}
	if _, ok := store.Get(KeyStatementTimeout); ok {
		d, err := time.ParseDuration(strings.TrimSpace(store.GetString(KeyStatementTimeout)))
		if err != nil || d < 0 {
			logger.Warn("ignoring %s: not a duration", KeyStatementTimeout)
		} else {
			settings.Dispatcher.StatementTimeout = d
		}
	}
	return settings
}

