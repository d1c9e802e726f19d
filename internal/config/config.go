package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageTypePostgres = "postgres"
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"

	AIProviderGemini = "gemini"
	AIProviderOpenAI = "openai"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	AI        AIConfig
	Discovery DiscoveryConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrateOnStart bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret string
}

// StorageConfig selects backends. Type covers profiles, swipes and matches;
// UsageStore covers the daily usage ledger only.
type StorageConfig struct {
	Type       string
	UsageStore string
}

type AIConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
}

type DiscoveryConfig struct {
	QueueSize      int
	SessionTTL     time.Duration
	GeoTimeout     time.Duration
	GeoMaxAge      time.Duration
	PublishMatches bool
	MatchesChannel string
}

type LoggingConfig struct {
	Level string
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("ENV"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetInt("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			DBName:         v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSL_MODE"),
			MigrateOnStart: v.GetBool("DB_MIGRATE_ON_START"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Storage: StorageConfig{
			Type:       strings.ToLower(v.GetString("STORAGE_TYPE")),
			UsageStore: strings.ToLower(v.GetString("USAGE_STORE")),
		},
		AI: AIConfig{
			Provider:      strings.ToLower(v.GetString("AI_PROVIDER")),
			GeminiAPIKey:  v.GetString("GEMINI_API_KEY"),
			GeminiModel:   v.GetString("GEMINI_MODEL"),
			OpenAIAPIKey:  v.GetString("OPENAI_API_KEY"),
			OpenAIModel:   v.GetString("OPENAI_MODEL"),
			OpenAIBaseURL: v.GetString("OPENAI_BASE_URL"),
			Timeout:       v.GetDuration("AI_TIMEOUT"),
		},
		Discovery: DiscoveryConfig{
			QueueSize:      v.GetInt("DISCOVERY_QUEUE_SIZE"),
			SessionTTL:     v.GetDuration("DISCOVERY_SESSION_TTL"),
			GeoTimeout:     v.GetDuration("GEO_TIMEOUT"),
			GeoMaxAge:      v.GetDuration("GEO_MAX_AGE"),
			PublishMatches: v.GetBool("PUBLISH_MATCHES"),
			MatchesChannel: v.GetString("MATCHES_CHANNEL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MIGRATE_ON_START", true)
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("STORAGE_TYPE", StorageTypePostgres)
	v.SetDefault("USAGE_STORE", StorageTypePostgres)
	v.SetDefault("AI_PROVIDER", AIProviderGemini)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", 15*time.Second)
	v.SetDefault("DISCOVERY_QUEUE_SIZE", 50)
	v.SetDefault("DISCOVERY_SESSION_TTL", 30*time.Minute)
	v.SetDefault("GEO_TIMEOUT", 10*time.Second)
	v.SetDefault("GEO_MAX_AGE", 5*time.Minute)
	v.SetDefault("PUBLISH_MATCHES", false)
	v.SetDefault("MATCHES_CHANNEL", "matches")
	v.SetDefault("LOG_LEVEL", "info")
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	switch c.Storage.UsageStore {
	case StorageTypePostgres:
		if c.Storage.Type != StorageTypePostgres {
			return fmt.Errorf("postgres usage store requires postgres storage")
		}
	case StorageTypeRedis:
		if c.Redis.Host == "" {
			return fmt.Errorf("redis host is required for redis usage store")
		}
	case StorageTypeMemory:
	default:
		return fmt.Errorf("unknown usage store %q", c.Storage.UsageStore)
	}

	if c.Discovery.PublishMatches && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required to publish matches")
	}

	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}

	if c.AI.Provider != AIProviderGemini && c.AI.Provider != AIProviderOpenAI {
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}
	if c.Discovery.QueueSize <= 0 {
		return fmt.Errorf("discovery queue size must be positive")
	}
	return nil
}

// RedisEnabled is true when any component is configured to use Redis.
func (c *Config) RedisEnabled() bool {
	return c.Storage.UsageStore == StorageTypeRedis || c.Discovery.PublishMatches
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns the HTTP listen address
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
