package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/dbmon/internal/config"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Global flags
var (
	cfgFile string
	apiURL  string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "dbmon",
	Short: "Terminal dashboard for a database monitoring backend",
	Long: `dbmon connects to a database monitoring backend and shows live status,
issues, pending jobs, performance history and logs for one database session.

Examples:
  dbmon monitor -c "Server=db1;User Id=sa;Password=${DB_PASSWORD};"
  dbmon status --json
  dbmon status --api-url http://monitor.internal:3001/api`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || os.Getenv("NO_COLOR") != "" {
			ui.DisableColors()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.dbmon.yaml, then ~/.config/dbmon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "monitoring backend base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}

	if machineMode {
		_ = WriteJSONFromError(os.Stdout, err)
		os.Exit(1)
	}

	printError(os.Stderr, err)
	os.Exit(1)
}

// printError writes err in the ✗ message / cause / suggestion layout.
func printError(w io.Writer, err error) {
	if isUnknownCommandError(err) {
		msg := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			msg = fmt.Sprintf("Unknown command %q", name)
		}
		err = errors.New(errors.ErrValidation, msg, "Run 'dbmon --help' to see the available commands.")
	}

	out := strings.TrimRight(err.Error(), "\n")
	if !strings.HasPrefix(out, "✗") {
		out = "✗ " + out
	}
	// Only the headline is colored; cause and suggestion stay plain.
	headline, rest, _ := strings.Cut(out, "\n")
	fmt.Fprintln(w, ui.ErrorStyle().Render(headline))
	if rest != "" {
		fmt.Fprintln(w, rest)
	}
}

// isUnknownCommandError reports whether cobra rejected the command line itself.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "dbmon"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

// loadConfig loads the config the way every data command needs it: file or
// defaults, the --api-url override, and the color mode applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}

	if apiURL != "" {
		cfg.API.BaseURL = apiURL
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	switch {
	case !colorEnabled(cfg.Output.Color, noColor, term.IsTerminal(int(os.Stdout.Fd()))):
		ui.DisableColors()
	case cfg.Output.Color == config.ColorAlways:
		ui.ForceColors()
	}
	return cfg, nil
}

// colorEnabled resolves output.color against --no-color and the terminal.
// "auto" turns colors off when stdout is piped.
func colorEnabled(mode string, forceOff, stdoutTTY bool) bool {
	if forceOff || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch mode {
	case config.ColorNever:
		return false
	case config.ColorAlways:
		return true
	default:
		return stdoutTTY
	}
}
