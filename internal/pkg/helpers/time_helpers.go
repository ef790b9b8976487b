package helpers

import (
	"time"

	"github.com/yigit/kebele/internal/pkg/logger"
)

// DurationOr parses value as a time.Duration and falls back when it is
// empty, malformed or not positive.
func DurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn().Err(err).Str("value", value).Dur("fallback", fallback).Msg("Invalid duration, using fallback")
		return fallback
	}
	return d
}
