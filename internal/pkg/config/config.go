package config

import (
	"io"
	"time"
)

// Config is the read-only view of the application configuration.
//
// Missing keys return the zero value of the requested type; callers apply
// their own defaults.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray splits a comma separated value, trimming blanks and dropping
	// empty elements. Native YAML lists are accepted too.
	GetArray(key string) []string

	// GetBinary decodes a base64 value, nil when absent or malformed.
	GetBinary(key string) []byte

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration
}
