// Package config builds runtime configuration from environment variables
// so main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "lendgate/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Postgres captures database configuration.
type Postgres struct {
	DSN string
}

// RedisConfig captures the resolver cache backend configuration.
// An empty URL disables Redis and the engine runs on the in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures the audit stream configuration. Empty brokers disable
// stream publishing; the durable audit store is unaffected.
type Kafka struct {
	Brokers      []string
	Topic        string
	MonitorGroup string
}

// Upstreams captures external collaborator endpoints and timeouts.
type Upstreams struct {
	BureauBaseURL      string
	BureauSecondaryURL string
	BureauAPIKey       string
	BureauTimeout      time.Duration
	ModelBaseURL       string
	ModelTimeout       time.Duration
	RegistryBaseURL    string
	RegistryAPIKey     string
	RegistryTimeout    time.Duration
	EvidenceTimeout    time.Duration
}

// Engine captures decision engine tunables.
type Engine struct {
	// ResolverCacheTTL bounds how stale a cached parameter may be.
	// Time-range validity is re-checked at use, so a short TTL only
	// limits how long a deactivated value can be served.
	ResolverCacheTTL time.Duration
	SeedFile         string
}

// Config is the top-level runtime configuration.
type Config struct {
	Server    Server
	Postgres  Postgres
	Redis     RedisConfig
	Kafka     Kafka
	Upstreams Upstreams
	Engine    Engine
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("LENDGATE_ADDR", ":8080"),
			ShutdownTimeout: getDuration("LENDGATE_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Postgres: Postgres{
			DSN: os.Getenv("LENDGATE_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("LENDGATE_REDIS_URL"),
			PoolSize:     getInt("LENDGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("LENDGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  getDuration("LENDGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("LENDGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("LENDGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:      splitList(os.Getenv("LENDGATE_KAFKA_BROKERS")),
			Topic:        getEnv("LENDGATE_KAFKA_AUDIT_TOPIC", "lendgate.audit.decisions"),
			MonitorGroup: getEnv("LENDGATE_KAFKA_MONITOR_GROUP", "lendgate-drift-monitor"),
		},
		Upstreams: Upstreams{
			BureauBaseURL:      getEnv("LENDGATE_BUREAU_BASE_URL", "http://localhost:8001"),
			BureauSecondaryURL: os.Getenv("LENDGATE_BUREAU_SECONDARY_URL"),
			BureauAPIKey:       os.Getenv("LENDGATE_BUREAU_API_KEY"),
			BureauTimeout:      getDuration("LENDGATE_BUREAU_TIMEOUT", 3*time.Second),
			ModelBaseURL:       getEnv("LENDGATE_MODEL_BASE_URL", "http://localhost:8002"),
			ModelTimeout:       getDuration("LENDGATE_MODEL_TIMEOUT", 2*time.Second),
			RegistryBaseURL:    os.Getenv("LENDGATE_REGISTRY_BASE_URL"),
			RegistryAPIKey:     os.Getenv("LENDGATE_REGISTRY_API_KEY"),
			RegistryTimeout:    getDuration("LENDGATE_REGISTRY_TIMEOUT", 3*time.Second),
			EvidenceTimeout:    getDuration("LENDGATE_EVIDENCE_TIMEOUT", 5*time.Second),
		},
		Engine: Engine{
			ResolverCacheTTL: getDuration("LENDGATE_RESOLVER_CACHE_TTL", 5*time.Second),
			SeedFile:         os.Getenv("LENDGATE_SEED_FILE"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	out := platformstrings.DedupeAndTrim(strings.Split(v, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}
