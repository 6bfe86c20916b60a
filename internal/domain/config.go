package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Source    SourceConfig    `mapstructure:"source"`
	Processor ProcessorConfig `mapstructure:"processor"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SessionConfig contains session storage and lifecycle configuration
type SessionConfig struct {
	TempDir       string        `mapstructure:"temp_dir"`       // root for per-session folders
	LogsDir       string        `mapstructure:"logs_dir"`       // category log files
	TTL           time.Duration `mapstructure:"ttl"`            // abandoned-session lifetime
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // janitor tick
}

// SourceConfig contains media source configuration
type SourceConfig struct {
	ClientName    string        `mapstructure:"client_name"`
	ClientVersion string        `mapstructure:"client_version"`
	Timeout       time.Duration `mapstructure:"timeout"` // fetch-info timeout
}

// ProcessorConfig contains media processor configuration
type ProcessorConfig struct {
	FFmpegBinary string `mapstructure:"ffmpeg_binary"`
}

// HistoryConfig contains request-history configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration. The level applies
// to every category log.
type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Session: SessionConfig{
			TempDir:       "$HOME/.vidl-api/tmp",
			LogsDir:       "$HOME/.vidl-api/logs",
			TTL:           30 * time.Minute,
			SweepInterval: 5 * time.Minute,
		},
		Source: SourceConfig{
			ClientName:    "ANDROID",
			ClientVersion: "19.09.37",
			Timeout:       30 * time.Second,
		},
		Processor: ProcessorConfig{
			FFmpegBinary: "ffmpeg",
		},
		History: HistoryConfig{
			DatabasePath: "$HOME/.vidl-api/history.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
