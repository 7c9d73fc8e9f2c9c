// Package config abstracts configuration access behind a small interface so
// the rest of the application never touches the underlying provider directly.
package config

import (
	"io"
	"time"
)

// Config defines a set of methods for retrieving configuration values of
// various types. Implementations handle retrieval and type conversion,
// returning zero values when a key is absent or cannot be converted.
type Config interface {
	io.Closer

	// GetBool retrieves the value associated with the given key as a bool.
	GetBool(key string) bool

	// GetInt retrieves the value associated with the given key as an int.
	GetInt(key string) int

	// GetInt32 retrieves the value associated with the given key as an int32.
	GetInt32(key string) int32

	// GetUint32 retrieves the value associated with the given key as a uint32.
	GetUint32(key string) uint32

	// GetUint64 retrieves the value associated with the given key as a uint64.
	GetUint64(key string) uint64

	// GetInt64 retrieves the value associated with the given key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value associated with the given key as a float64.
	GetFloat64(key string) float64

	// GetString retrieves the value associated with the given key as a string.
	GetString(key string) string

	// GetSecond retrieves the value associated with the given key as seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value associated with the given key as minutes.
	GetMinute(key string) time.Duration

	// GetHour retrieves the value associated with the given key as hours.
	GetHour(key string) time.Duration

	// GetBinary retrieves the value associated with the given key as a byte
	// slice. The configured value is stored base64 encoded.
	GetBinary(key string) []byte

	// GetArray retrieves the value associated with the given key as a slice of
	// strings. The configured value is stored as <element1>,<element2>,...
	GetArray(key string) []string

	// GetMap retrieves the value associated with the given key as a string map.
	// The configured value is stored as <key1>:<value1>,<key2>:<value2>,...
	GetMap(key string) map[string]string
}
