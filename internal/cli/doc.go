// Package cli implements the dbmon command-line interface.
//
// # Command Structure
//
// The root command is "dbmon" with subcommands:
//
//	dbmon monitor [-c conn] [--hours N]    - Full-screen live dashboard
//	dbmon status  [-c conn] [--json|--yaml] - One-shot summary, then disconnect
//	dbmon version [--short]                - Build information
//	dbmon completion <shell>               - Shell completion script
//
// Both data commands go through the same steps: load the config (file,
// DBMON_* env overrides, --api-url), resolve the connection string (flag
// over config, ${VAR} expansion) and build a dashboard.Dashboard around an
// api.Client. monitor hands the dashboard to the Bubble Tea model; status
// connects, waits for every feed's first fetch and prints the snapshot.
//
// # Flag Handling
//
// Global flags (--config, --api-url, --no-color) are defined on the root
// command. Command flags live next to their command; -c/--connection and
// --hours are shared through AddConnectionFlags.
//
// # Errors
//
// Commands return *errors.Error values. Execute prints them in the
// ✗ message / cause / suggestion layout, or as a JSON envelope when
// status --json is active. An errors.ExitError exits silently with its code.
package cli
