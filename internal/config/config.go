// Package config loads server configuration. Values come from the
// environment, optionally seeded from a .env file; a YAML file can override
// the defaults for deployments that prefer files over env vars.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Seed      SeedConfig      `yaml:"seed"`
}

type ServerConfig struct {
	Addr            string        `env:"POS_ADDR,default=:8080" yaml:"addr"`
	ShutdownTimeout time.Duration `env:"POS_SHUTDOWN_TIMEOUT,default=15s" yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// DSN enables the PostgreSQL store; empty means in-memory.
	DSN string `env:"DATABASE_URL" yaml:"dsn"`
}

type RedisConfig struct {
	// Addr enables the menu cache; empty disables it.
	Addr     string `env:"REDIS_ADDR" yaml:"addr"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB,default=0" yaml:"db"`
}

type AuthConfig struct {
	JWTSecret  string        `env:"POS_JWT_SECRET,default=dev-secret-change-me" yaml:"jwt_secret"`
	SessionTTL time.Duration `env:"POS_SESSION_TTL,default=12h" yaml:"session_ttl"`
}

type SchedulerConfig struct {
	// SweepInterval is how often the pending exchange rate is checked.
	SweepInterval time.Duration `env:"POS_RATE_SWEEP_INTERVAL,default=1m" yaml:"sweep_interval"`
}

type LoggingConfig struct {
	Level  string `env:"POS_LOG_LEVEL,default=info" yaml:"level"`
	Format string `env:"POS_LOG_FORMAT,default=json" yaml:"format"`
}

type SeedConfig struct {
	AdminUsername string `env:"POS_ADMIN_USERNAME,default=admin" yaml:"admin_username"`
	AdminPIN      string `env:"POS_ADMIN_PIN" yaml:"admin_pin"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	return cfg, nil
}

// LoadFile reads configuration from a YAML file, with the environment
// filling anything the file leaves unset.
func LoadFile(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
