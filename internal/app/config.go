package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/blueberry-insights/talentflow/internal/database"
	"github.com/blueberry-insights/talentflow/internal/services"
)

// Config represents the runtime configuration for the TalentFlow backend.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Invites     InviteConfig      `mapstructure:"invites"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// InviteConfig controls invite token minting.
type InviteConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Expiry      time.Duration `mapstructure:"expiry"`
	TokenLength int           `mapstructure:"token_length"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// MaintenanceConfig controls the background sweeper.
type MaintenanceConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`

	// InviteRetention is how long expired pending invites are kept before the
	// sweeper removes them.
	InviteRetention time.Duration `mapstructure:"invite_retention"`
	// SubmissionRetention is how long unseeded, never-started submissions are
	// kept before cleanup.
	SubmissionRetention time.Duration `mapstructure:"submission_retention"`
}

// ConnectionConfig translates the database section into connection options.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	switch strings.ToLower(c.Driver) {
	case "postgres":
		if c.Postgres.Enabled {
			cfg.Host = c.Postgres.Host
			cfg.Port = c.Postgres.Port
			cfg.Name = c.Postgres.Database
			cfg.User = c.Postgres.Username
			cfg.Password = c.Postgres.Password
		}
	case "mysql":
		if c.MySQL.Enabled {
			cfg.Host = c.MySQL.Host
			cfg.Port = c.MySQL.Port
			cfg.Name = c.MySQL.Database
			cfg.User = c.MySQL.Username
			cfg.Password = c.MySQL.Password
		}
	}

	return cfg
}

// InviteServiceOptions adapts the invites section into service options.
func (c *Config) InviteServiceOptions() []services.InviteOption {
	opts := make([]services.InviteOption, 0, 3)
	if c.Invites.BaseURL != "" {
		opts = append(opts, services.WithInviteBaseURL(c.Invites.BaseURL))
	}
	if c.Invites.Expiry > 0 {
		opts = append(opts, services.WithInviteExpiry(c.Invites.Expiry))
	}
	if c.Invites.TokenLength > 0 {
		opts = append(opts, services.WithInviteTokenSize(c.Invites.TokenLength))
	}
	return opts
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("TALENTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/talentflow.sqlite")

	v.SetDefault("invites.base_url", "")
	v.SetDefault("invites.expiry", "168h") // 7 days
	v.SetDefault("invites.token_length", 32)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.schedule", "@daily")
	v.SetDefault("maintenance.invite_retention", "720h")     // 30 days
	v.SetDefault("maintenance.submission_retention", "168h") // 7 days
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
