package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Progress ProgressConfig `mapstructure:"progress" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
	Jobs     JobsConfig     `mapstructure:"jobs" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                  int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel              string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ReadTimeoutSeconds    int    `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds   int    `mapstructure:"write_timeout_seconds" validate:"gt=0"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gt=0"`
}

// ReadTimeout returns the HTTP read timeout.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP write timeout.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// RequestTimeout returns the per-request handler deadline.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=1440"`
}

// ProgressConfig tunes the progress endpoints.
type ProgressConfig struct {
	DefaultDueLimit int `mapstructure:"default_due_limit" validate:"gt=0,ltefield=MaxDueLimit"`
	MaxDueLimit     int `mapstructure:"max_due_limit" validate:"gt=0,lte=500"`
	// Timezone is the IANA zone used for "today" and "this week" boundaries.
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// Location resolves Timezone. Load has already validated it.
func (c ProgressConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TaskConfig sizes the background worker pool.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0,lte=64"`
	QueueSize   int `mapstructure:"queue_size" validate:"gt=0"`
}

// JobsConfig schedules periodic maintenance.
type JobsConfig struct {
	// StreakSweepAt is the daily HH:MM (in the progress timezone) when stale streaks are reset.
	StreakSweepAt string `mapstructure:"streak_sweep_at" validate:"required,datetime=15:04"`
}
