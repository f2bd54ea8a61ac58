package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables. A .env file in
// the working directory is loaded first, without overriding variables already
// present in the environment.
//
// Recognized variables:
//
//	ADDRESS           bind address (e.g., ":8080")
//	DATABASE_DSN      PostgreSQL DSN
//	JWT_SECRET        token signing key (required)
//	JWT_DURATION      token lifetime, seconds
//	SESSION_SECRET    cookie signing key
//	SESSION_DURATION  session lifetime, milliseconds
//	BCRYPT_ROUNDS     bcrypt cost factor
//	COOKIE_SECURE     "true" to mark the session cookie secure
//	CORS_ORIGIN       comma-separated allowed origins
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		config.Address = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.JWTSecret = v
	}
	if v := os.Getenv("JWT_DURATION"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			config.JWTDuration = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		config.SessionSecret = v
	}
	if v := os.Getenv("SESSION_DURATION"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			config.SessionDuration = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("BCRYPT_ROUNDS"); v != "" {
		if rounds, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = rounds
		}
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		config.CookieSecure = v == "true"
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		config.CORSOrigin = v
	}
}
