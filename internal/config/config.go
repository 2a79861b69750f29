package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultActor     = "data-steward-app"
	defaultJWTSecret = "change-me-in-production"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Logging  LoggingConfig  `json:"logging"`
	Security SecurityConfig `json:"security"`
	Steward  StewardConfig  `json:"steward"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	Host            string        `json:"host"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Environment     string        `json:"environment"`
}

// DatabaseConfig represents database configuration. The PG* variables
// follow the libpq names.
type DatabaseConfig struct {
	Driver          string        `json:"driver"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"-"`
	PasswordFile    string        `json:"password_file"`
	DBName          string        `json:"dbname"`
	SSLMode         string        `json:"sslmode"`
	AppName         string        `json:"app_name"`
	SQLitePath      string        `json:"sqlite_path"`
	MaxConnections  int           `json:"max_connections"`
	MaxLifetime     time.Duration `json:"max_lifetime"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	RefreshInterval time.Duration `json:"refresh_interval"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	AuthEnabled   bool          `json:"auth_enabled"`
	JWTSecret     string        `json:"-"`
	JWTExpiration time.Duration `json:"jwt_expiration"`
	JWTIssuer     string        `json:"jwt_issuer"`
	APIKeys       []string      `json:"-"`
	CORSOrigins   []string      `json:"cors_origins"`
}

// StewardConfig represents data stewardship defaults
type StewardConfig struct {
	DefaultSchema string        `json:"default_schema"`
	DefaultActor  string        `json:"default_actor"`
	SessionTTL    time.Duration `json:"session_ttl"`
}

// Load reads configuration from the environment after applying a .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	pgUser := getEnv("PGUSER", "")
	driver := getEnv("DB_DRIVER", "postgres")
	defaultSchema := "public"
	if driver == "sqlite" {
		defaultSchema = "main"
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          driver,
			Host:            getEnv("PGHOST", "localhost"),
			Port:            getEnvInt("PGPORT", 5432),
			User:            pgUser,
			Password:        getEnv("PGPASSWORD", ""),
			PasswordFile:    getEnv("PGPASSWORD_FILE", ""),
			DBName:          getEnv("PGDATABASE", "postgres"),
			SSLMode:         getEnv("PGSSLMODE", "require"),
			AppName:         getEnv("PGAPPNAME", "data-steward"),
			SQLitePath:      getEnv("SQLITE_PATH", "steward.db"),
			MaxConnections:  getEnvInt("DB_MAX_CONNECTIONS", 10),
			MaxLifetime:     getEnvDuration("DB_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
			RefreshInterval: getEnvDuration("DB_REFRESH_INTERVAL", 900*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			AuthEnabled:   getEnvBool("AUTH_ENABLED", false),
			JWTSecret:     getEnv("JWT_SECRET", defaultJWTSecret),
			JWTExpiration: getEnvDuration("JWT_EXPIRATION", 12*time.Hour),
			JWTIssuer:     getEnv("JWT_ISSUER", "data-steward"),
			APIKeys:       getEnvSlice("API_KEYS", nil),
			CORSOrigins:   getEnvSlice("CORS_ORIGINS", []string{"*"}),
		},
		Steward: StewardConfig{
			DefaultSchema: getEnv("DEFAULT_SCHEMA", defaultSchema),
			DefaultActor:  getEnv("DEFAULT_ACTOR", firstNonEmpty(pgUser, defaultActor)),
			SessionTTL:    getEnvDuration("SESSION_TTL", 2*time.Hour),
		},
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required (PGUSER)")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required (PGDATABASE)")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Steward.DefaultSchema == "" {
		return fmt.Errorf("default schema is required")
	}

	if c.Security.AuthEnabled && c.IsProduction() &&
		(c.Security.JWTSecret == "" || c.Security.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT secret must be set in production")
	}

	return nil
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// DSN returns the connection string for the configured driver. For
// PostgreSQL the credential is passed in so it can be refreshed.
func (c *Config) DSN(credential string) string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	parts := []string{
		"host=" + dsnValue(c.Database.Host),
		"port=" + strconv.Itoa(c.Database.Port),
		"user=" + dsnValue(c.Database.User),
		"dbname=" + dsnValue(c.Database.DBName),
		"sslmode=" + dsnValue(c.Database.SSLMode),
	}
	if credential != "" {
		parts = append(parts, "password="+dsnValue(credential))
	}
	if c.Database.AppName != "" {
		parts = append(parts, "application_name="+dsnValue(c.Database.AppName))
	}
	if c.Database.ConnectTimeout > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(int(c.Database.ConnectTimeout.Seconds())))
	}
	return strings.Join(parts, " ")
}

// GetRedisURL returns the Redis connection URL
func (c *Config) GetRedisURL() string {
	if c.Redis.Password != "" {
		return fmt.Sprintf("redis://:%s@%s:%d/%d", c.Redis.Password, c.Redis.Host, c.Redis.Port, c.Redis.DB)
	}
	return fmt.Sprintf("redis://%s:%d/%d", c.Redis.Host, c.Redis.Port, c.Redis.DB)
}

// dsnValue quotes a key/value connection string value when needed
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
