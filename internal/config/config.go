package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends selectable through LEDGER_STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the typed view of the process environment.
type Config struct {
	Env      string
	LogLevel string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
}

type ServerConfig struct {
	Port            string
	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	TxMaxRetries    int
	AutoMigrate     bool
}

// DSN renders the keyword/value connection string understood by the postgres driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Enabled       bool
	Host          string
	Port          string
	Password      string
	DB            int
	EventsChannel string
}

type LedgerConfig struct {
	Store             string
	AllowSelfTransfer bool
	HistoryLimit      int
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() error {
	return godotenv.Load()
}

// LoadEnvFile loads variables from the given file without overriding ones already set.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// Load reads the full configuration from the environment, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Env:      GetEnv("ENV", "development"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:            GetEnv("PORT", "3000"),
			CORSOrigins:     splitList(GetEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
			RateLimitMax:    GetIntEnv("RATE_LIMIT_MAX", 60),
			RateLimitWindow: GetDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
			ShutdownTimeout: GetDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "paytrack"),
			SSLMode:         GetEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			TxMaxRetries:    GetIntEnv("DB_TX_MAX_RETRIES", 3),
			AutoMigrate:     GetBoolEnv("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:       GetBoolEnv("REDIS_ENABLED", false),
			Host:          GetEnv("REDIS_HOST", "localhost"),
			Port:          GetEnv("REDIS_PORT", "6379"),
			Password:      GetEnv("REDIS_PASSWORD", ""),
			DB:            GetIntEnv("REDIS_DB", 0),
			EventsChannel: GetEnv("REDIS_EVENTS_CHANNEL", "paytrack.payments"),
		},
		Ledger: LedgerConfig{
			Store:             strings.ToLower(GetEnv("LEDGER_STORE", StorePostgres)),
			AllowSelfTransfer: GetBoolEnv("LEDGER_ALLOW_SELF_TRANSFER", false),
			HistoryLimit:      GetIntEnv("LEDGER_HISTORY_LIMIT", 10),
		},
	}

	if cfg.Ledger.Store != StorePostgres && cfg.Ledger.Store != StoreMemory {
		return Config{}, fmt.Errorf("unsupported LEDGER_STORE %q", cfg.Ledger.Store)
	}
	if cfg.Database.TxMaxRetries < 0 {
		return Config{}, fmt.Errorf("DB_TX_MAX_RETRIES must not be negative")
	}
	return cfg, nil
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
