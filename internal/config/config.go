package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port            string        `koanf:"port"`
		Mode            string        `koanf:"mode"` // gin mode: debug, release, test
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
		TemplatesDir    string        `koanf:"templates_dir"`
	} `koanf:"server"`

	Database struct {
		URL          string `koanf:"url"`
		MaxIdleConns int    `koanf:"max_idle_conns"`
		MaxOpenConns int    `koanf:"max_open_conns"`
	} `koanf:"database"`

	Auth struct {
		JWTSecret string `koanf:"jwt_secret"`
		Issuer    string `koanf:"issuer"`
		Audience  string `koanf:"audience"`
	} `koanf:"auth"`

	SMTP struct {
		Host     string `koanf:"host"`
		Port     string `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
	} `koanf:"smtp"`

	Site struct {
		URL string `koanf:"url"`
	} `koanf:"site"`

	Log struct {
		Level  string `koanf:"level"`
		Pretty bool   `koanf:"pretty"`
	} `koanf:"log"`

	RateLimit struct {
		PerMinute int `koanf:"per_minute"`
		Burst     int `koanf:"burst"`
	} `koanf:"ratelimit"`

	CORS struct {
		Origins []string `koanf:"origins"`
	} `koanf:"cors"`
}

var defaults = map[string]interface{}{
	"server.port":             "8080",
	"server.mode":             "release",
	"server.read_timeout":     "10s",
	"server.write_timeout":    "30s",
	"server.shutdown_timeout": "10s",
	"server.templates_dir":    "./web/templates",
	"database.url":            "host=localhost user=postgres password=postgres dbname=showtalk port=5432 sslmode=disable TimeZone=UTC",
	"database.max_idle_conns": 10,
	"database.max_open_conns": 100,
	"site.url":                "http://localhost:8080",
	"log.level":               "info",
	"log.pretty":              false,
	"ratelimit.per_minute":    60,
	"ratelimit.burst":         20,
	"cors.origins":            []string{"*"},
}

// Load builds the configuration from defaults, an optional TOML file and
// SHOWTALK_ environment variables, later sources winning.
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		for _, path := range []string{"./showtalk.toml", "$HOME/.showtalk.toml"} {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// SHOWTALK_DATABASE_URL -> database.url, SHOWTALK_AUTH_JWT_SECRET -> auth.jwt_secret
	if err := k.Load(env.Provider("SHOWTALK_", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "SHOWTALK_"))
	section, rest, found := strings.Cut(s, "_")
	if !found {
		return s
	}
	return section + "." + rest
}

// Validate checks the settings the server cannot start without.
func Validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required")
	}
	if cfg.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("ratelimit per_minute must be positive")
	}
	return nil
}

// MailEnabled reports whether every SMTP setting is present.
func (c *Config) MailEnabled() bool {
	s := c.SMTP
	return s.Host != "" && s.Port != "" && s.User != "" && s.Password != "" && s.From != ""
}
