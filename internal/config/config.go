package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/aquamind/internal/domain"
)

type Config struct {
	Server    Server    `yaml:"server"`
	Auth      Auth      `yaml:"auth"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Hub       Hub       `yaml:"hub"`
	Feed      Feed      `yaml:"feed"`
}

type Server struct {
	Addr           string        `yaml:"addr"`
	Storage        string        `yaml:"storage"` // postgres, sqlite, memory
	PostgresDsn    string        `yaml:"postgresDsn"`
	SqlitePath     string        `yaml:"sqlitePath"`
	RedisAddr      string        `yaml:"redisAddr"`
	RedisDB        int           `yaml:"redisDB"`
	MemcachedAddr  string        `yaml:"memcachedAddr"`
	EnableTrace    bool          `yaml:"enableTrace"`
	TraceEndpoint  string        `yaml:"traceEndpoint"`
	KafkaBrokers   []string      `yaml:"kafkaBrokers"`
	KafkaTopic     string        `yaml:"kafkaTopic"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

type Auth struct {
	JWTSecret         string        `yaml:"jwtSecret"`
	TokenTTL          time.Duration `yaml:"tokenTTL"`
	MinPasswordLength int           `yaml:"minPasswordLength"`
}

type RateLimit struct {
	Backend     string        `yaml:"backend"` // memory, redis
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"maxRequests"`
}

type Hub struct {
	QueueSize    int           `yaml:"queueSize"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	PingInterval time.Duration `yaml:"pingInterval"`
}

type Feed struct {
	DefaultLimit      int `yaml:"defaultLimit"`
	MaxLimit          int `yaml:"maxLimit"`
	DefaultScoreLimit int `yaml:"defaultScoreLimit"`
	MaxContentLength  int `yaml:"maxContentLength"`
}

// SecretEnv overrides auth.jwtSecret when set.
const SecretEnv = "AQUAMIND_JWT_SECRET"

func Default() Config {
	return Config{
		Server: Server{
			Addr:           ":3000",
			Storage:        "memory",
			SqlitePath:     "aquamind.db",
			KafkaTopic:     "aquamind.events",
			TraceEndpoint:  "localhost:4318",
			RequestTimeout: 5 * time.Second,
		},
		Auth: Auth{
			JWTSecret:         "your_jwt_secret_key",
			TokenTTL:          24 * time.Hour,
			MinPasswordLength: 6,
		},
		RateLimit: RateLimit{
			Backend:     "memory",
			Window:      15 * time.Minute,
			MaxRequests: 100,
		},
		Hub: Hub{
			QueueSize:    64,
			WriteTimeout: 10 * time.Second,
			PingInterval: 30 * time.Second,
		},
		Feed: Feed{
			DefaultLimit:      20,
			MaxLimit:          100,
			DefaultScoreLimit: 10,
			MaxContentLength:  1000,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path yields the defaults.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, err
		}
	}

	if secret := os.Getenv(SecretEnv); secret != "" {
		config.Auth.JWTSecret = secret
	}

	return config, config.Validate()
}

func (c Config) Validate() error {
	switch c.Server.Storage {
	case "memory", "sqlite":
	case "postgres":
		if c.Server.PostgresDsn == "" {
			return fmt.Errorf("server.postgresDsn is required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", c.Server.Storage)
	}

	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.Server.RedisAddr == "" {
			return fmt.Errorf("server.redisAddr is required for the redis rate limiter")
		}
	default:
		return fmt.Errorf("unknown rate limit backend %q", c.RateLimit.Backend)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.tokenTTL must be positive")
	}
	if c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rateLimit.window and rateLimit.maxRequests must be positive")
	}
	if c.Hub.QueueSize <= 0 {
		return fmt.Errorf("hub.queueSize must be positive")
	}
	if c.Feed.DefaultLimit <= 0 || c.Feed.MaxLimit < c.Feed.DefaultLimit {
		return fmt.Errorf("feed limits are inconsistent")
	}
	return nil
}

// Domain projects the settings consumed by the usecases.
func (c Config) Domain() domain.Config {
	return domain.Config{
		TokenTTL:          c.Auth.TokenTTL,
		MinPasswordLength: c.Auth.MinPasswordLength,
		RequestTimeout:    c.Server.RequestTimeout,
		DefaultListLimit:  c.Feed.DefaultLimit,
		MaxListLimit:      c.Feed.MaxLimit,
		DefaultScoreLimit: c.Feed.DefaultScoreLimit,
		MaxContentLength:  c.Feed.MaxContentLength,
	}
}
