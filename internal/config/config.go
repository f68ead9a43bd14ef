package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Environment     string        `yaml:"environment"`
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	IdempotencyTTL  time.Duration `yaml:"idempotency_ttl"`
	MySQL           MySQLConfig   `yaml:"mysql"`
	Redis           RedisConfig   `yaml:"redis"`
	Cache           CacheConfig   `yaml:"cache"`
	Log             LogConfig     `yaml:"log"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type CacheConfig struct {
	ProductTTL time.Duration `yaml:"product_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Debug bool   `yaml:"debug"`
}

func Default() Config {
	return Config{
		Environment:     EnvDevelopment,
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50051",
		ShutdownTimeout: 5 * time.Second,
		IdempotencyTTL:  24 * time.Hour,
		MySQL: MySQLConfig{
			DSN:             "root:root@tcp(localhost:3306)/catalog?parseTime=true",
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 100,
		},
		Cache: CacheConfig{ProductTTL: time.Minute},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies CATALOG_* environment
// overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("environment must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Environment))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http_addr is required"))
	}
	if c.GRPCAddr == "" {
		errs = append(errs, errors.New("grpc_addr is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if c.IdempotencyTTL < 0 {
		errs = append(errs, errors.New("idempotency_ttl cannot be negative"))
	}
	if c.Cache.ProductTTL < 0 {
		errs = append(errs, errors.New("cache.product_ttl cannot be negative"))
	}
	if c.Environment == EnvProduction {
		if c.MySQL.DSN == "" {
			errs = append(errs, errors.New("mysql.dsn is required in production"))
		}
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required in production"))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Environment == EnvProduction }

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"CATALOG_ENVIRONMENT":    &cfg.Environment,
		"CATALOG_HTTP_ADDR":      &cfg.HTTPAddr,
		"CATALOG_GRPC_ADDR":      &cfg.GRPCAddr,
		"CATALOG_MYSQL_DSN":      &cfg.MySQL.DSN,
		"CATALOG_REDIS_ADDR":     &cfg.Redis.Addr,
		"CATALOG_REDIS_PASSWORD": &cfg.Redis.Password,
		"CATALOG_LOG_LEVEL":      &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"CATALOG_SHUTDOWN_TIMEOUT":  &cfg.ShutdownTimeout,
		"CATALOG_IDEMPOTENCY_TTL":   &cfg.IdempotencyTTL,
		"CATALOG_CACHE_PRODUCT_TTL": &cfg.Cache.ProductTTL,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("CATALOG_LOG_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: CATALOG_LOG_DEBUG: %w", err)
		}
		cfg.Log.Debug = b
	}
	return nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}
