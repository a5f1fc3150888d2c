package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

const (
	SessionCookieName = "jazzhands"
	SessionLifetime   = time.Hour
	StateLifetime     = 10 * time.Minute
)

// Config is read once at startup and passed to the components that need it.
type Config struct {
	ClientID         string   `env:"GITHUB_CLIENT_ID"`
	ClientSecret     string   `env:"GITHUB_CLIENT_SECRET"`
	OrgID            string   `env:"GITHUB_ORG_ID"        envDefault:"jazzband"`
	Scopes           []string `env:"GITHUB_SCOPE"         envDefault:"read:org,user:email" envSeparator:","`
	TeamID           int64    `env:"GITHUB_TEAM_ID"       envDefault:"0"`
	AdminToken       string   `env:"GITHUB_ADMIN_TOKEN"`
	RedirectURL      string   `env:"GITHUB_REDIRECT_URL"`
	APIURL           string   `env:"GITHUB_API_URL"       envDefault:"https://api.github.com/"`
	AuthURL          string   `env:"GITHUB_AUTH_URL"`
	TokenURL         string   `env:"GITHUB_TOKEN_URL"`
	WebURL           string   `env:"GITHUB_WEB_URL"       envDefault:"https://github.com/"`
	SecretKey        string   `env:"SECRET_KEY"           envDefault:"dev key"`
	Debug            bool     `env:"DEBUG"                envDefault:"false"`
	RedisURL         string   `env:"REDIS_URL"            envDefault:"redis://127.0.0.1:6379/0"`
	SessionUseSigner bool     `env:"SESSION_USE_SIGNER"   envDefault:"true"`
	ListenAddr       string   `env:"LISTEN_ADDR"          envDefault:":5000"`
}

// Load reads envFile, if it exists, into the process environment without
// overriding variables that are already set, then parses the configuration.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	return LoadFromEnv()
}

func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.Scopes = trimCSV(cfg.Scopes)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY must not be empty")
	}

	if _, err := redis.ParseURL(c.RedisURL); err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	if c.TeamID < 0 {
		return fmt.Errorf("GITHUB_TEAM_ID must not be negative")
	}

	return nil
}

// Warnings lists settings that leave the gatekeeper unable to do its job
// without preventing it from starting.
func (c *Config) Warnings() []string {
	var warnings []string

	if c.ClientID == "" || c.ClientSecret == "" {
		warnings = append(warnings, "GITHUB_CLIENT_ID or GITHUB_CLIENT_SECRET is not set, logins will fail")
	}

	if c.AdminToken == "" {
		warnings = append(warnings, "GITHUB_ADMIN_TOKEN is not set, membership checks and invites will fail")
	}

	if c.TeamID == 0 {
		warnings = append(warnings, "GITHUB_TEAM_ID is not set, invites will fail")
	}

	if c.SecretKey == "dev key" && !c.Debug {
		warnings = append(warnings, "SECRET_KEY is the development default")
	}

	return warnings
}

// CookieSecure reports whether the session cookie must only travel over https.
func (c *Config) CookieSecure() bool {
	return !c.Debug
}

// SessionSigningKey returns the key used to sign the session id, or nil when
// signing is disabled.
func (c *Config) SessionSigningKey() []byte {
	if !c.SessionUseSigner {
		return nil
	}
	return []byte(c.SecretKey)
}

func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
