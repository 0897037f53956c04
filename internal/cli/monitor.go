package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/dbmon/internal/config"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"github.com/rileyhilliard/dbmon/internal/monitor"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// debugLogFile receives the standard logger while the dashboard owns the screen.
const debugLogFile = "dbmon-debug.log"

var (
	monitorFlags     ConnectionFlags
	monitorNoConnect bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard for one database session",
	Long: `Open a full-screen dashboard with status, issues, pending jobs,
performance history and logs for one database, refreshed on a timer.

When no connection string is configured you are asked for one.

Keys:
  enter   connect / disconnect
  r       refresh every feed
  1-5     refresh status, issues, jobs, performance, logs
  p       show / hide the password
  l       full logs view
  tab     switch between the form and the dashboard
  ?       help
  q       quit

Examples:
  dbmon monitor
  dbmon monitor -c "Server=db1;User Id=sa;Password=${DB_PASSWORD};"
  DBMON_DEBUG=1 dbmon monitor   # writes ` + debugLogFile + `
  dbmon monitor --hours 24`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return monitorCommand(cmd.Context(), cfg, monitorFlags, !monitorNoConnect)
	},
}

func init() {
	AddConnectionFlags(monitorCmd, &monitorFlags)
	monitorCmd.Flags().BoolVar(&monitorNoConnect, "no-connect", false, "start disconnected even when a connection string is set")
	rootCmd.AddCommand(monitorCmd)
}

// monitorCommand starts the TUI dashboard.
func monitorCommand(ctx context.Context, cfg *config.Config, flags ConnectionFlags, autoConnect bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errNotTerminal()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	conn, err := ResolveConnectionString(flags.Connection, cfg)
	if err != nil {
		return err
	}
	hours, err := ResolveHours(flags.Hours, cfg)
	if err != nil {
		return err
	}

	if strings.TrimSpace(conn) == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		conn, err = promptConnectionString(configSavePath(cfgFile))
		if err != nil {
			return err
		}
	}

	restore, err := redirectLogs(logger.DebugEnabled())
	if err != nil {
		return err
	}
	defer restore()

	lg := logger.NewEnvLogger("")
	d := dashboard.New(newAPIClient(cfg), dashboard.Options{
		ConnectionString: conn,
		PerformanceHours: hours,
		Logger:           lg,
	})

	model := monitor.NewModel(d, monitor.Options{
		Context:     ctx,
		AutoConnect: autoConnect,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	// Close the backend session before the feeds go away.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()
	if err := d.Session.Disconnect(dctx); err != nil {
		lg.Warn("failed to close backend session: %s", errors.Message(err))
	}
	d.Close()

	if runErr != nil {
		return errors.WrapWithCode(runErr, errors.ErrSession,
			"The dashboard exited unexpectedly",
			"Run with DBMON_DEBUG=1 and check "+debugLogFile+".")
	}
	return nil
}

func errNotTerminal() error {
	return errors.New(errors.ErrValidation,
		"The dashboard needs an interactive terminal",
		"Use 'dbmon status' (or 'dbmon status --json') for piped or scripted output.")
}

// promptConnectionString asks for a connection string and optionally saves it
// to savePath. The returned string has ${VAR} references expanded.
func promptConnectionString(savePath string) (string, error) {
	var conn string
	var save bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connection string").
				Description("Handed to the monitoring backend. ${VAR} references are expanded from the environment.").
				Placeholder("Server=localhost;Database=master;User Id=sa;Password=...").
				EchoMode(huh.EchoModePassword).
				Value(&conn).
				Validate(validateConnectionInput),
			huh.NewConfirm().
				Title(fmt.Sprintf("Save it to %s?", savePath)).
				Description("The file is written with 0600 permissions. Prefer ${VAR} references for passwords.").
				Value(&save),
		),
	)

	if err := form.Run(); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrValidation,
			"Failed to get user input",
			"Pass --connection or set connection.string in .dbmon.yaml instead.")
	}

	if save {
		if err := config.SaveConnectionString(savePath, conn); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to save the connection string",
				"Check write access to "+savePath)
		}
		fmt.Fprintf(os.Stderr, "Saved connection string to %s\n", savePath)
	}

	expanded := config.ExpandEnv(conn)
	if missing := config.UnresolvedEnvRefs(expanded); len(missing) > 0 {
		return "", errors.New(errors.ErrValidation,
			fmt.Sprintf("Connection string references unset environment variables: %s", strings.Join(missing, ", ")),
			fmt.Sprintf("Export them before running dbmon, e.g. export %s=...", missing[0]))
	}
	return expanded, nil
}

func validateConnectionInput(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// configSavePath is the file a prompted connection string is saved to: the
// config in use, otherwise the global config.
func configSavePath(explicit string) string {
	if path, err := config.Find(explicit); err == nil && path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return config.ConfigFileName
	}
	return filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile)
}

// redirectLogs keeps the standard logger off the alt screen: into
// debugLogFile when debug is set, otherwise nowhere. The returned func
// restores stderr.
func redirectLogs(debug bool) (func(), error) {
	restore := func() {
		log.SetOutput(os.Stderr)
		log.SetPrefix("")
	}

	if !debug {
		log.SetOutput(io.Discard)
		return restore, nil
	}

	f, err := tea.LogToFile(debugLogFile, "dbmon")
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to open "+debugLogFile,
			"Unset DBMON_DEBUG or run from a writable directory.")
	}
	return func() {
		restore()
		f.Close()
	}, nil
}
