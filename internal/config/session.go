package config

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
	SessionStoreSQLite = "sqlite"
)

// DefaultJWTSecret is used when JWT_SECRET is unset; it is public and only fit for development
const DefaultJWTSecret = "your-256-bit-secret"

var (
	jwtSecretMu       sync.RWMutex
	jwtSecretOverride []byte
	defaultSecretOnce sync.Once
)

// SetJWTSecret temporarily overrides the JWT secret and returns a function to restore it
// This is primarily used for testing
func SetJWTSecret(secret []byte) func() {
	jwtSecretMu.Lock()
	previous := jwtSecretOverride
	jwtSecretOverride = secret
	jwtSecretMu.Unlock()

	return func() {
		jwtSecretMu.Lock()
		jwtSecretOverride = previous
		jwtSecretMu.Unlock()
	}
}

// GetJWTSecret returns the secret that signs the session cookie. It is read
// from JWT_SECRET on each call so values loaded from .env apply.
func GetJWTSecret() []byte {
	jwtSecretMu.RLock()
	override := jwtSecretOverride
	jwtSecretMu.RUnlock()
	if override != nil {
		return override
	}

	secret := GetEnvOrDefault("JWT_SECRET", "")
	if secret == "" {
		defaultSecretOnce.Do(func() {
			log.Warn().Msg("JWT_SECRET is not set, signing session cookies with the default secret")
		})
		secret = DefaultJWTSecret
	}
	return []byte(secret)
}

// GetSessionCookieName returns the session cookie name, "qabot_session" unless SESSION_COOKIE_NAME is set
func GetSessionCookieName() string {
	return GetEnvOrDefault("SESSION_COOKIE_NAME", "qabot_session")
}

// GetSessionCookieSecure reports whether the session cookie carries the Secure flag
func GetSessionCookieSecure() bool {
	return parseEnvBool("SESSION_COOKIE_SECURE", true)
}

// GetSessionTTL returns how long an idle session is kept in the store
func GetSessionTTL() time.Duration {
	return parseEnvDuration("SESSION_TTL", 24*time.Hour)
}

// GetSessionStore returns the configured session backend
func GetSessionStore() string {
	value := strings.ToLower(GetEnvOrDefault("SESSION_STORE", SessionStoreMemory))
	switch value {
	case SessionStoreMemory, SessionStoreRedis, SessionStoreSQLite:
		return value
	default:
		log.Warn().Str("session_store", value).Msg("Unknown session store, using memory")
		return SessionStoreMemory
	}
}
