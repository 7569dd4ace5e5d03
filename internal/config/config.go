package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Session  SessionConfig
	Password PasswordConfig

	// LogoMaxBytes caps the decoded size of the uploaded invoice logo.
	LogoMaxBytes int

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis RedisConfig

	Bootstrap BootstrapConfig

	LoginRateLimit LoginRateLimitConfig

	Scheduler SchedulerConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// SessionConfig shapes the login cookie and how long a session lives.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	SameSite   string
}

// PasswordConfig holds the Argon2id cost parameters for new hashes. Stored
// hashes carry their own parameters and keep verifying after a change.
type PasswordConfig struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	MinLength int
}

type BootstrapConfig struct {
	EnsureAdmin   bool
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
}

// SchedulerConfig controls the background payout reconciliation loop.
type SchedulerConfig struct {
	Enabled           bool
	ReconcileInterval time.Duration
	JobTimeout        time.Duration
}

type LoginRateLimitConfig struct {
	Rate  float64
	Burst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "villadesk"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: environment,
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Session: SessionConfig{
			CookieName: strings.TrimSpace(getenv("SESSION_COOKIE_NAME", "villadesk_session")),
			TTL:        getenvDuration("SESSION_TTL", 7*24*time.Hour),
			Secure:     authCookieSecure,
			SameSite:   strings.ToLower(strings.TrimSpace(getenv("SESSION_SAME_SITE", "lax"))),
		},
		Password: PasswordConfig{
			Time:      uint32(getenvInt("PASSWORD_ARGON2_TIME", 1)),
			MemoryKiB: uint32(getenvInt("PASSWORD_ARGON2_MEMORY_KIB", 64*1024)),
			Threads:   uint8(getenvInt("PASSWORD_ARGON2_THREADS", 4)),
			KeyLen:    uint32(getenvInt("PASSWORD_ARGON2_KEY_LEN", 32)),
			MinLength: getenvInt("PASSWORD_MIN_LENGTH", 8),
		},
		LogoMaxBytes:      getenvInt("LOGO_MAX_BYTES", 1<<20),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "villadesk"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "villadesk.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Bootstrap: BootstrapConfig{
			EnsureAdmin:   getenvBool("BOOTSTRAP_ENSURE_ADMIN", true),
			AdminUsername: strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_USERNAME", "admin")),
			AdminEmail:    strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "admin@villadesk.local")),
			AdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", "admin12345"),
			AdminFullName: getenv("BOOTSTRAP_ADMIN_FULL_NAME", "Administrador"),
		},
		LoginRateLimit: LoginRateLimitConfig{
			Rate:  getenvFloat("LOGIN_RATE_PER_SECOND", 0.2),
			Burst: getenvInt("LOGIN_RATE_BURST", 5),
		},
		Scheduler: SchedulerConfig{
			Enabled:           getenvBool("SCHEDULER_ENABLED", true),
			ReconcileInterval: getenvDuration("PAYOUT_RECONCILE_INTERVAL", time.Hour),
			JobTimeout:        getenvDuration("SCHEDULER_JOB_TIMEOUT", 5*time.Minute),
		},
	}

	return cfg
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
