package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/courseloop/campus-auth/pkg/jwtx"
)

type Config struct {
	SigningKey []byte // Required: symmetric HS256 key, min 32 bytes
	Issuer     string // Optional: issuer claim for session tokens (default: campus-auth)

	TokenTTL            time.Duration // Optional: session token lifetime (default: 24h)
	OTPTTL              time.Duration // Optional: one-time code lifetime (default: 5m)
	OTPDigits           int           // Optional: one-time code length (default: 6)
	RequireSecondFactor bool          // Optional: gate login behind 2FA (default: true)

	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)

	SMTPAddr     string // Optional: host:port of the SMTP relay; empty means log-only delivery
	SMTPFrom     string // Optional: From address for outgoing codes
	SMTPUsername string // Optional: SMTP AUTH username
	SMTPPassword string // Optional: SMTP AUTH password

	NotifyTimeout time.Duration // Optional: per-delivery deadline (default: 10s)

	SeedAdminUsername string // Optional: bootstrap admin username (only used on empty store)
	SeedAdminEmail    string // Optional: bootstrap admin email
	SeedAdminPassword string // Optional: bootstrap admin password

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment. The signing key is
// the only hard requirement; everything else has a workable default.
func LoadConfig() (Config, error) {
	cfg := Config{
		SigningKey: []byte(os.Getenv("AUTH_SIGNING_KEY")),
		Issuer:     getEnvOrDefault("AUTH_ISSUER", "campus-auth"),

		TokenTTL:            getEnvDurationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultSessionTTL),
		OTPTTL:              getEnvDurationOrDefault("AUTH_OTP_TTL", 5*time.Minute),
		OTPDigits:           getEnvIntOrDefault("AUTH_OTP_DIGITS", 6),
		RequireSecondFactor: getEnvBoolOrDefault("AUTH_REQUIRE_2FA", true),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPFrom:     getEnvOrDefault("SMTP_FROM", "noreply@campus.local"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		NotifyTimeout: getEnvDurationOrDefault("NOTIFY_TIMEOUT", 10*time.Second),

		SeedAdminUsername: os.Getenv("SEED_ADMIN_USERNAME"),
		SeedAdminEmail:    os.Getenv("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: os.Getenv("SEED_ADMIN_PASSWORD"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if len(cfg.SigningKey) < jwtx.MinKeyBytes {
		return Config{}, fmt.Errorf(
			"AUTH_SIGNING_KEY must be set and at least %d bytes, got %d",
			jwtx.MinKeyBytes, len(cfg.SigningKey),
		)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
