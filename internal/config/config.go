package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Ledger drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"CustomCraft"`
		Port      int    `envconfig:"PORT" default:"3000"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Ledger struct {
		Driver string `envconfig:"LEDGER_DRIVER" default:"file"`
		Dir    string `envconfig:"LEDGER_DIR" default:"."`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"customcraft"`
	}

	RCON struct {
		Host     string        `envconfig:"MINECRAFT_HOST" default:"localhost"`
		Port     int           `envconfig:"RCON_PORT" default:"25575"`
		Password string        `envconfig:"RCON_PASSWORD" default:""`
		Timeout  time.Duration `envconfig:"RCON_TIMEOUT" default:"5s"`
	}

	Admin struct {
		Key         string        `envconfig:"ADMIN_KEY" required:"true"`
		TokenSecret string        `envconfig:"ADMIN_JWT_SECRET"`
		TokenTTL    time.Duration `envconfig:"ADMIN_JWT_TTL" default:"15m"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Client struct {
		APIURL string `envconfig:"API_URL" default:"http://localhost:3000"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

// Level parses App.LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Admin.Key == "" {
		return nil, errors.New("ADMIN_KEY must not be empty")
	}

	cfg.Ledger.Driver = strings.ToLower(cfg.Ledger.Driver)
	if cfg.Ledger.Driver != DriverFile && cfg.Ledger.Driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.Ledger.Driver)
	}

	return &cfg, nil
}
