package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Log      LogConfig      `mapstructure:"log"      validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
	Reminder ReminderConfig `mapstructure:"reminder" validate:"required"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver  string        `mapstructure:"driver"  validate:"required,oneof=memory json sqlite postgres"`
	Path    string        `mapstructure:"path"    validate:"required_if=Driver json,required_if=Driver sqlite"`
	URL     string        `mapstructure:"url"     validate:"required_if=Driver postgres,omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// ScheduleConfig controls how due times are interpreted.
type ScheduleConfig struct {
	// Timezone is an IANA zone name, or "Local"; it defines the day boundary
	// used for the due-today count.
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// ReminderConfig controls the periodic due-review reminder.
type ReminderConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=1m"`
}

// Location resolves the configured timezone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}
