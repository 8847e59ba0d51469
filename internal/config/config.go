package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
	}

	HTTP struct {
		Host string
		Port string
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	JWT struct {
		Secret string
	}

	App struct {
		Env string
	}
}

// New builds the config from environment variables with local-dev defaults.
// A full POSTGRES_DSN overrides the individual DB_* parts.
func New() *Config {
	cfg := &Config{}

	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "matcha-server")

	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	cfg.DB.DSN = os.Getenv("POSTGRES_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "5432")
		cfg.DB.User = getEnvDefault("DB_USER", "matcha")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "matcha")
		cfg.DB.Name = getEnvDefault("DB_NAME", "matcha")

		cfg.DB.DSN = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port,
		)
	}

	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	cfg.JWT.Secret = getEnvDefault("JWT_SECRET", "dev-only-secret")

	cfg.App.Env = getEnvDefault("APP_ENV", "development")

	return cfg
}

// Addr is the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
