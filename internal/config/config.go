package config // package config loads application configuration from environment variables

import (
	"os"
	"strconv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used: strings
// for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	SessionTTLMin  int    // attendance session lifetime in minutes
}

// Load reads configuration from environment variables.  Every variable has a
// development default so the server can boot from a bare shell; production
// deployments are expected to override at least JWT_SECRET and the DB_*
// values.
func Load() Config {
	return Config{
		Env:            get("APP_ENV", "dev"),
		Port:           get("APP_PORT", "8080"),
		DBUser:         get("DB_USER", "smartattend"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         get("DB_HOST", "127.0.0.1"),
		DBPort:         get("DB_PORT", "3306"),
		DBName:         get("DB_NAME", "smartattend"),
		JWTSecret:      get("JWT_SECRET", "dev-secret-change-me"),
		AccessTTLMin:   getInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: getInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     getInt("BCRYPT_COST", 10),
		SessionTTLMin:  getInt("SESSION_TTL_MIN", 5),
	}
}

func get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
