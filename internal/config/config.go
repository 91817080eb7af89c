// Package config loads the service configuration from defaults, an
// optional yaml file, .env files and NRW_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nrw/releasewall/internal/validation"
)

// EnvPrefix prefixes every environment override, e.g. NRW_SERVER_PORT.
const EnvPrefix = "NRW"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Playlist PlaylistConfig `mapstructure:"playlist"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RatePerMinute  int      `mapstructure:"rate_per_minute" validate:"gte=0"`
	RateBurst      int      `mapstructure:"rate_burst" validate:"gte=0"`
	Metrics        bool     `mapstructure:"metrics"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal"`
	Format     string `mapstructure:"format" validate:"oneof=console json"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// CatalogConfig locates the dataset and tunes normalization.
type CatalogConfig struct {
	TrackingPath string `mapstructure:"tracking_path" validate:"required"`
	SnapshotPath string `mapstructure:"snapshot_path" validate:"required"`
	DaysBack     int    `mapstructure:"days_back" validate:"gte=0"`
	ImageBaseURL string `mapstructure:"image_base_url" validate:"omitempty,httpurl"`
	Placeholder  string `mapstructure:"placeholder"`
	SiteURL      string `mapstructure:"site_url" validate:"omitempty,httpurl"`
}

// AdminConfig holds admin page settings.
type AdminConfig struct {
	DefaultAuthor string `mapstructure:"default_author"`
}

// ScheduleConfig holds the periodic regeneration settings.
type ScheduleConfig struct {
	RegenerateCron string `mapstructure:"regenerate_cron"`
	RunOnStart     bool   `mapstructure:"run_on_start"`
}

// PlaylistConfig configures playlist publishing. An empty PublisherURL
// leaves publishing disabled; previews still work.
type PlaylistConfig struct {
	PublisherURL    string        `mapstructure:"publisher_url" validate:"omitempty,httpurl"`
	PublisherToken  string        `mapstructure:"publisher_token"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerOpenFor  time.Duration `mapstructure:"breaker_open_for"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			RatePerMinute: 60,
			RateBurst:     20,
			Metrics:       true,
		},
		Database: DatabaseConfig{
			Path: "./data/releasewall.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Catalog: CatalogConfig{
			TrackingPath: "./data/movie_tracking.json",
			SnapshotPath: "./data/data.json",
			DaysBack:     90,
			ImageBaseURL: "https://image.tmdb.org/t/p/w500",
			Placeholder:  "assets/no-poster.svg",
		},
		Admin: AdminConfig{
			DefaultAuthor: "Admin",
		},
		Schedule: ScheduleConfig{
			RegenerateCron: "0 6 * * *",
		},
		Playlist: PlaylistConfig{
			Timeout:         3 * time.Minute,
			BreakerFailures: 3,
			BreakerOpenFor:  2 * time.Minute,
		},
	}
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > .env files > config file > defaults
func Load(configPath string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.releasewall")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env files without overriding variables already set.
// With no explicit files, ./.env is loaded when present.
func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// setDefaults registers every key of Default so environment variables can
// override keys absent from the config file.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.rate_per_minute", d.Server.RatePerMinute)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("server.metrics", d.Server.Metrics)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("catalog.tracking_path", d.Catalog.TrackingPath)
	v.SetDefault("catalog.snapshot_path", d.Catalog.SnapshotPath)
	v.SetDefault("catalog.days_back", d.Catalog.DaysBack)
	v.SetDefault("catalog.image_base_url", d.Catalog.ImageBaseURL)
	v.SetDefault("catalog.placeholder", d.Catalog.Placeholder)
	v.SetDefault("catalog.site_url", d.Catalog.SiteURL)

	v.SetDefault("admin.default_author", d.Admin.DefaultAuthor)

	v.SetDefault("schedule.regenerate_cron", d.Schedule.RegenerateCron)
	v.SetDefault("schedule.run_on_start", d.Schedule.RunOnStart)

	v.SetDefault("playlist.publisher_url", d.Playlist.PublisherURL)
	v.SetDefault("playlist.publisher_token", d.Playlist.PublisherToken)
	v.SetDefault("playlist.timeout", d.Playlist.Timeout)
	v.SetDefault("playlist.breaker_failures", d.Playlist.BreakerFailures)
	v.SetDefault("playlist.breaker_open_for", d.Playlist.BreakerOpenFor)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
