package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// DefaultBaseURL is the monitoring backend address used when nothing else is configured.
const DefaultBaseURL = "http://localhost:3001/api"

// DefaultPerformanceHours is the lookback window requested from the performance feed.
const DefaultPerformanceHours = 6

// MaxPerformanceHours caps the lookback window at one week.
const MaxPerformanceHours = 168

// Color modes accepted by output.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config represents the complete .dbmon.yaml configuration file.
type Config struct {
	Version     int               `yaml:"version" mapstructure:"version"`
	API         APIConfig         `yaml:"api" mapstructure:"api"`
	Connection  ConnectionConfig  `yaml:"connection" mapstructure:"connection"`
	Performance PerformanceConfig `yaml:"performance" mapstructure:"performance"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// APIConfig points dbmon at the monitoring backend.
type APIConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:3001/api.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each HTTP request. Zero means no client-side timeout.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ConnectionConfig holds the database connection string handed to the backend.
type ConnectionConfig struct {
	// String is passed verbatim to POST /connect.
	String string `yaml:"string" mapstructure:"string"`
}

// PerformanceConfig controls the performance feed.
type PerformanceConfig struct {
	// Hours is the lookback window sent as ?hours=N.
	Hours int `yaml:"hours" mapstructure:"hours"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 10 * time.Second,
		},
		Performance: PerformanceConfig{
			Hours: DefaultPerformanceHours,
		},
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}
