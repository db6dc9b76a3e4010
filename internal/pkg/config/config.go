// Package config reads typed settings from a file, with environment overrides.
package config

import (
	"io"
	"time"
)

// Config retrieves configuration values by dotted key. Missing keys yield the zero value.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray splits a comma separated value, trimming items and dropping empty ones.
	GetArray(key string) []string

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration
	// GetHour reads an integer number of hours.
	GetHour(key string) time.Duration
}
