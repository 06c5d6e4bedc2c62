package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// GetEnvOrDefault returns the value of an environment variable or a default value
func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" && defaultValue == "" {
		log.Warn().Str("key", key).Msg("Empty value and default for environment variable")
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func parseEnvInt(key string, defaultValue int) int {
	val := GetEnvOrDefault(key, "")
	if val == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("Invalid integer value, using default")
		return defaultValue
	}

	return parsed
}

func parseEnvFloat(key string, defaultValue float64) float64 {
	val := GetEnvOrDefault(key, "")
	if val == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("Invalid float value, using default")
		return defaultValue
	}

	return parsed
}

func parseEnvBool(key string, defaultValue bool) bool {
	val := GetEnvOrDefault(key, "")
	if val == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(val)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("Invalid boolean value, using default")
		return defaultValue
	}

	return parsed
}

func parseEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := GetEnvOrDefault(key, "")
	if val == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(val)
	if err != nil {
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("Invalid duration value, using default")
		return defaultValue
	}

	return parsed
}
