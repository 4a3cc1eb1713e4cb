// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Search  SearchConfig  `mapstructure:"search"`
	DB      DBConfig      `mapstructure:"db"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Events  EventsConfig  `mapstructure:"events"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig governs the hh.ru API client: endpoints, rate budget and retry
// behavior on 429 responses.
type APIConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	VacanciesEndpoint string `mapstructure:"vacancies_endpoint"`
	AreasEndpoint     string `mapstructure:"areas_endpoint"`
	RolesEndpoint     string `mapstructure:"roles_endpoint"`
	UserAgent         string `mapstructure:"user_agent"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	DelayMs           int    `mapstructure:"delay_ms"`
	CooldownSeconds   int    `mapstructure:"cooldown_seconds"`
	RateLimitAttempts int    `mapstructure:"rate_limit_attempts"`
	PerPage           int    `mapstructure:"per_page"`
	MaxPages          int    `mapstructure:"max_pages"`
}

// SearchConfig holds the vacancy listing filters. Empty string values are
// omitted from the request entirely.
type SearchConfig struct {
	Areas       []string `mapstructure:"areas"`
	Text        string   `mapstructure:"text"`
	SearchField string   `mapstructure:"search_field"`
	Experience  string   `mapstructure:"experience"`
	Employment  string   `mapstructure:"employment"`
	Schedule    string   `mapstructure:"schedule"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// ArchiveConfig selects where raw listing pages are archived before
// normalization. Provider "none" disables archiving.
type ArchiveConfig struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// EventsConfig selects where the end-of-run summary event is published.
// Provider "none" disables publishing.
type EventsConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// ServerConfig controls the health/metrics HTTP listener.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.hh.ru")
	v.SetDefault("api.vacancies_endpoint", "/vacancies")
	v.SetDefault("api.areas_endpoint", "/areas")
	v.SetDefault("api.roles_endpoint", "/professional_roles")
	v.SetDefault("api.user_agent", "vacancy-ingest/0.1")
	v.SetDefault("api.timeout_seconds", 10)
	v.SetDefault("api.delay_ms", 250)
	v.SetDefault("api.cooldown_seconds", 5)
	v.SetDefault("api.rate_limit_attempts", 3)
	v.SetDefault("api.per_page", 100)
	v.SetDefault("api.max_pages", 20)
	v.SetDefault("search.areas", []string{"113"})
	v.SetDefault("search.search_field", "name")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("events.provider", "none")
	v.SetDefault("server.enabled", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and provider-imposed limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("api.timeout_seconds must be > 0")
	}
	if c.API.PerPage <= 0 || c.API.PerPage > 100 {
		return fmt.Errorf("api.per_page must be in (0, 100]")
	}
	if c.API.MaxPages <= 0 {
		return fmt.Errorf("api.max_pages must be > 0")
	}
	if c.API.RateLimitAttempts <= 0 {
		return fmt.Errorf("api.rate_limit_attempts must be > 0")
	}
	if len(c.Search.Areas) == 0 {
		return fmt.Errorf("search.areas must list at least one region code")
	}
	if c.Archive.Provider == "gcs" && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket must be set when archive.provider is gcs")
	}
	if c.Events.Provider == "pubsub" && (c.Events.ProjectID == "" || c.Events.Topic == "") {
		return fmt.Errorf("events.project_id and events.topic must be set when events.provider is pubsub")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Timeout converts the HTTP timeout into a duration.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Delay is the fixed pause paid after every request that reached the server.
func (c APIConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Cooldown is the longer pause paid after a 429 response before retrying.
func (c APIConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// MaxConnLifetime converts the pool connection lifetime into a duration.
func (c DBConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}
