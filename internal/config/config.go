package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application configuration values.
type Config struct {
	Environment string
	HTTP        HTTPConfig
	Graph       GraphConfig
	Catalog     CatalogConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Engine      EngineConfig
	Logging     LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// GraphConfig describes connectivity to the graph database holding saved lists.
type GraphConfig struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// CatalogConfig points at the SQLite catalog database.
type CatalogConfig struct {
	Path string
}

// RedisConfig configures the candidate pool cache. An empty URL selects the
// in-process cache.
type RedisConfig struct {
	URL     string
	PoolTTL time.Duration
}

// AuthConfig controls session token issuance.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// EngineConfig tunes the selection engine.
type EngineConfig struct {
	WeightRulesPath     string
	DefaultUnitWeight   float64
	RecommendationLimit int
	RangePathWarnLimit  int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // console|json
	IncludeCaller bool
}

const (
	defaultEnvironment         = "development"
	defaultHost                = "0.0.0.0"
	defaultPort                = 8080
	defaultReadTimeout         = 10 * time.Second
	defaultWriteTimeout        = 15 * time.Second
	defaultIdleTimeout         = 60 * time.Second
	defaultShutdownTimeout     = 10 * time.Second
	defaultLoggingLevel        = "info"
	defaultLoggingFormat       = "console"
	defaultGraphMaxSessions    = 10
	defaultCatalogPath         = "basketwise.db"
	defaultPoolTTL             = 30 * time.Minute
	defaultTokenTTL            = 7 * 24 * time.Hour
	defaultUnitWeight          = 0.5
	defaultRecommendationLimit = 5
	defaultRangePathWarnLimit  = 100000
)

// ErrMissingJWTSecret is returned outside development when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required outside development")

// Load reads configuration from an optional YAML file and the environment,
// applying defaults. Environment variables win over file values. A .env file
// in the working directory is loaded first when present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates a populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Environment: v.GetString("environment"),
		HTTP: HTTPConfig{
			Host:              v.GetString("server.host"),
			Port:              v.GetInt("server.port"),
			ReadTimeout:       v.GetDuration("server.read_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
			MetricsEnabled:    v.GetBool("server.metrics_enabled"),
			AllowedOriginsCSV: v.GetString("server.allowed_origins"),
		},
		Graph: GraphConfig{
			URI:            v.GetString("graph.uri"),
			Database:       v.GetString("graph.database"),
			Username:       v.GetString("graph.username"),
			Password:       v.GetString("graph.password"),
			MaxConnections: v.GetInt("graph.max_connections"),
		},
		Catalog: CatalogConfig{
			Path: v.GetString("catalog.path"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("redis.url"),
			PoolTTL: v.GetDuration("redis.pool_ttl"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Engine: EngineConfig{
			WeightRulesPath:     v.GetString("engine.weight_rules_path"),
			DefaultUnitWeight:   v.GetFloat64("engine.default_unit_weight"),
			RecommendationLimit: v.GetInt("engine.recommendation_limit"),
			RangePathWarnLimit:  v.GetInt("engine.range_path_warn_limit"),
		},
		Logging: LoggingConfig{
			Level:         v.GetString("log.level"),
			Format:        v.GetString("log.format"),
			IncludeCaller: v.GetBool("log.include_caller"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges that cannot be expressed as defaults.
func (c Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	if c.Redis.PoolTTL <= 0 {
		return fmt.Errorf("invalid REDIS_POOL_TTL %s: must be positive", c.Redis.PoolTTL)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid AUTH_TOKEN_TTL %s: must be positive", c.Auth.TokenTTL)
	}
	if c.Engine.DefaultUnitWeight <= 0 {
		return fmt.Errorf("invalid ENGINE_DEFAULT_UNIT_WEIGHT %v: must be positive", c.Engine.DefaultUnitWeight)
	}
	if c.Engine.RecommendationLimit <= 0 {
		return fmt.Errorf("invalid ENGINE_RECOMMENDATION_LIMIT %d: must be positive", c.Engine.RecommendationLimit)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return ErrMissingJWTSecret
	}
	return nil
}

// IsDevelopment reports whether the process runs with development defaults.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, defaultEnvironment)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", defaultEnvironment)

	v.SetDefault("server.host", defaultHost)
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.read_timeout", defaultReadTimeout)
	v.SetDefault("server.write_timeout", defaultWriteTimeout)
	v.SetDefault("server.idle_timeout", defaultIdleTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.metrics_enabled", false)
	v.SetDefault("server.allowed_origins", "")

	v.SetDefault("graph.uri", "")
	v.SetDefault("graph.database", "")
	v.SetDefault("graph.username", "")
	v.SetDefault("graph.password", "")
	v.SetDefault("graph.max_connections", defaultGraphMaxSessions)

	v.SetDefault("catalog.path", defaultCatalogPath)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_ttl", defaultPoolTTL)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", defaultTokenTTL)

	v.SetDefault("engine.weight_rules_path", "")
	v.SetDefault("engine.default_unit_weight", defaultUnitWeight)
	v.SetDefault("engine.recommendation_limit", defaultRecommendationLimit)
	v.SetDefault("engine.range_path_warn_limit", defaultRangePathWarnLimit)

	v.SetDefault("log.level", defaultLoggingLevel)
	v.SetDefault("log.format", defaultLoggingFormat)
	v.SetDefault("log.include_caller", false)
}
