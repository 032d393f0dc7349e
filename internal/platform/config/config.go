package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DemoMode      bool
	AdminJWTKey   string
	Redis         RedisConfig
	PostgresDSN   string
	KafkaBrokers  []string
	KafkaTopic    string
	CacheTTL      time.Duration
	SweepInterval time.Duration
	Adapter       AdapterConfig
	Breaker       BreakerConfig
	RateLimitOff  bool
}

// RedisConfig holds connection settings for the shared cache tier.
// An empty URL means Redis is not configured and the cache runs L1-only.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AdapterConfig bounds calls to national registries.
type AdapterConfig struct {
	Timeout time.Duration
}

// BreakerConfig holds circuit breaker defaults applied to every upstream.
type BreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("NEXUS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	adminKey := os.Getenv("NEXUS_ADMIN_JWT_KEY")
	if adminKey == "" {
		// Development default - must be overridden in production
		adminKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("NEXUS_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}
	topic := os.Getenv("NEXUS_KAFKA_TOPIC")
	if topic == "" {
		topic = "nexus.search.events"
	}

	return Server{
		Addr:        addr,
		DemoMode:    os.Getenv("NEXUS_DEMO_MODE") == "true",
		AdminJWTKey: adminKey,
		Redis: RedisConfig{
			URL:          os.Getenv("NEXUS_REDIS_URL"),
			PoolSize:     envInt("NEXUS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("NEXUS_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("NEXUS_REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  envDuration("NEXUS_REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: envDuration("NEXUS_REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		PostgresDSN:   os.Getenv("NEXUS_POSTGRES_DSN"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		CacheTTL:      envDuration("NEXUS_CACHE_TTL", 24*time.Hour),
		SweepInterval: envDuration("NEXUS_CACHE_SWEEP_INTERVAL", 10*time.Minute),
		Adapter: AdapterConfig{
			Timeout: envDuration("NEXUS_ADAPTER_TIMEOUT", 5*time.Second),
		},
		Breaker: BreakerConfig{
			FailureThreshold: envInt("NEXUS_BREAKER_FAILURE_THRESHOLD", 5),
			RecoveryTimeout:  envDuration("NEXUS_BREAKER_RECOVERY_TIMEOUT", 30*time.Second),
		},
		RateLimitOff: os.Getenv("NEXUS_RATELIMIT_DISABLED") == "true",
	}
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			return v
		}
	}
	return def
}
