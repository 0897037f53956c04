package config

import (
	"fmt"
	"net/url"

	"github.com/rileyhilliard/dbmon/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but dbmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest dbmon release.")
	}

	if err := validateBaseURL(cfg.API.BaseURL); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Set api.base_url in "+ConfigFileName+" or DBMON_API_BASE_URL, e.g. "+DefaultBaseURL)
	}

	if cfg.API.Timeout < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("api.timeout can't be negative (got %s)", cfg.API.Timeout),
			"Use a duration like 10s, or 0 to disable the client-side timeout.")
	}

	if cfg.Performance.Hours < 1 || cfg.Performance.Hours > MaxPerformanceHours {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("performance.hours must be between 1 and %d (got %d)", MaxPerformanceHours, cfg.Performance.Hours),
			fmt.Sprintf("The default lookback is %d hours.", DefaultPerformanceHours))
	}

	if err := validateColor(cfg.Output.Color); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your "+ConfigFileName+".")
	}

	return nil
}

// validateBaseURL requires an absolute http(s) URL.
func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("api.base_url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("api.base_url %q isn't a valid URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url %q must start with http:// or https://", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("api.base_url %q has no host", raw)
	}
	return nil
}

func validateColor(mode string) error {
	switch mode {
	case "", ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return fmt.Errorf("output.color %q isn't one of auto, always, never", mode)
	}
}
