package config

import (
	"sync"
	"time"
)

var (
	jwtSecretMu sync.Mutex
	jwtSecret   []byte
)

// SetJWTSecret temporarily changes the JWT secret and returns a function to restore it
// This is primarily used for testing
func SetJWTSecret(secret []byte) func() {
	jwtSecretMu.Lock()
	previous := jwtSecret
	jwtSecret = secret
	jwtSecretMu.Unlock()

	return func() {
		jwtSecretMu.Lock()
		jwtSecret = previous
		jwtSecretMu.Unlock()
	}
}

// GetJWTSecret returns the secret signing connection tokens. It is read
// from JWT_SECRET on first use, after the binaries have loaded .env.
func GetJWTSecret() []byte {
	jwtSecretMu.Lock()
	defer jwtSecretMu.Unlock()
	if jwtSecret == nil {
		jwtSecret = []byte(GetEnvOrDefault("JWT_SECRET", "dev-only-secret"))
	}
	return jwtSecret
}

// GetSessionTTL returns how long a conversation session stays valid.
func GetSessionTTL() time.Duration {
	return parseEnvDuration("SESSION_TTL", time.Hour)
}
