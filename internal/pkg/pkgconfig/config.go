package pkgconfig

import "time"

// Config is the read-only view of application configuration used by business code.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetDuration(key string) time.Duration
	GetBinary(key string) []byte
	GetArray(key string) []string
	GetMap(key string) map[string]string
	Close() error
}

// Defaults are applied before the config file is read, so a missing key still
// resolves to a usable value.
//
//nolint:gochecknoglobals // static table
var Defaults = map[string]any{
	"tz":                         "UTC",
	"log.level":                  "info",
	"server.address.http":        ":8080",
	"modules.datasmith.enabled":  true,
	"analyzer.base_url":          "http://localhost:8000",
	"analyzer.timeout":           "0s",
	"upload.max_bytes":           10 * 1024 * 1024,
	"preferences.path":           "",
	"theme.system":               "",
	"progress.events_per_second": 20,
	"goroutine.max":              100,
}
