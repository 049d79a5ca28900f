package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	DevMode       bool
	Addr          string
	AdminAPIToken string
	JWTSigningKey string
	JWTIssuer     string
	DatabaseURL   string
	SeedFile      string
	PurgeInterval time.Duration
	LogLevel      string
	LogFormat     string
	RateLimit     RateLimitConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig configures the optional Redis token store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig throttles secret verification per client and token.
type RateLimitConfig struct {
	Disabled     bool
	VerifyLimit  int
	VerifyWindow time.Duration
}

// KafkaConfig configures optional audit forwarding.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Development credentials, used only when TOKENSCOPE_DEV_MODE=true.
const (
	DevAdminAPIToken = "dev-admin-token"
	DevJWTSigningKey = "dev-secret-key-change-in-production"
)

// FromEnv builds a Server config from environment variables so main stays lean.
// Credentials have no defaults outside dev mode; an unset ADMIN_API_TOKEN
// disables the static token and an unset JWT_SIGNING_KEY disables bearer auth.
func FromEnv() Server {
	devMode := os.Getenv("TOKENSCOPE_DEV_MODE") == "true"
	adminToken := os.Getenv("ADMIN_API_TOKEN")
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if devMode {
		if adminToken == "" {
			adminToken = DevAdminAPIToken
		}
		if jwtSigningKey == "" {
			jwtSigningKey = DevJWTSigningKey
		}
	}

	return Server{
		DevMode:       devMode,
		Addr:          envOr("TOKENSCOPE_ADDR", ":8080"),
		AdminAPIToken: adminToken,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envOr("JWT_ISSUER", "tokenscope"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SeedFile:      os.Getenv("SEED_FILE"),
		PurgeInterval: envDuration("PURGE_INTERVAL", time.Minute),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		RateLimit: RateLimitConfig{
			Disabled:     os.Getenv("DISABLE_RATE_LIMITING") == "true",
			VerifyLimit:  envInt("VERIFY_RATE_LIMIT", 10),
			VerifyWindow: envDuration("VERIFY_RATE_WINDOW", time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envOr("AUDIT_TOPIC", "tokenscope.audit"),
		},
	}
}

// Validate rejects configurations that would leave the admin API without
// credentials, or that run outside dev mode with the dev credentials.
func (c Server) Validate() error {
	if c.AdminAPIToken == "" && c.JWTSigningKey == "" {
		return errors.New("config: set ADMIN_API_TOKEN or JWT_SIGNING_KEY (or TOKENSCOPE_DEV_MODE=true)")
	}
	if !c.DevMode && (c.AdminAPIToken == DevAdminAPIToken || c.JWTSigningKey == DevJWTSigningKey) {
		return errors.New("config: development credentials require TOKENSCOPE_DEV_MODE=true")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
