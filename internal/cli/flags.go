package cli

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/config"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"github.com/spf13/cobra"
)

// ConnectionFlags holds the flags shared by monitor and status.
type ConnectionFlags struct {
	Connection string
	Hours      int
}

// AddConnectionFlags registers -c/--connection and --hours on a command.
func AddConnectionFlags(cmd *cobra.Command, flags *ConnectionFlags) {
	cmd.Flags().StringVarP(&flags.Connection, "connection", "c", "", "database connection string (overrides connection.string)")
	cmd.Flags().IntVar(&flags.Hours, "hours", 0, "performance lookback in hours (overrides performance.hours)")
}

// ResolveConnectionString prefers the flag over the config value and expands
// ${VAR} references in it. References to unset variables are an error: the
// backend would otherwise receive the literal text.
func ResolveConnectionString(flag string, cfg *config.Config) (string, error) {
	conn := cfg.Connection.String
	if flag != "" {
		conn = config.ExpandEnv(flag)
	}

	if missing := config.UnresolvedEnvRefs(conn); len(missing) > 0 {
		return "", errors.New(errors.ErrValidation,
			fmt.Sprintf("Connection string references unset environment variables: %s", strings.Join(missing, ", ")),
			fmt.Sprintf("Export them before running dbmon, e.g. export %s=...", missing[0]))
	}
	return conn, nil
}

// ResolveHours returns the --hours flag when set, otherwise performance.hours.
func ResolveHours(flag int, cfg *config.Config) (int, error) {
	if flag == 0 {
		return cfg.Performance.Hours, nil
	}
	if flag < 1 || flag > config.MaxPerformanceHours {
		return 0, errors.New(errors.ErrValidation,
			fmt.Sprintf("--hours must be between 1 and %d, got %d", config.MaxPerformanceHours, flag),
			"Try --hours 6 for the last six hours or --hours 24 for a day.")
	}
	return flag, nil
}

// newAPIClient builds the backend client from the loaded config.
func newAPIClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent("dbmon/"+version),
		api.WithLogger(logger.NewEnvLogger("[api]")),
	)
}
