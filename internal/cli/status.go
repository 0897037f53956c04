package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/api"
	"github.com/rileyhilliard/dbmon/internal/config"
	"github.com/rileyhilliard/dbmon/internal/dashboard"
	"github.com/rileyhilliard/dbmon/internal/errors"
	"github.com/rileyhilliard/dbmon/internal/format"
	"github.com/rileyhilliard/dbmon/internal/logger"
	"github.com/rileyhilliard/dbmon/internal/session"
	"github.com/rileyhilliard/dbmon/internal/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// disconnectTimeout bounds the closing DELETE so a dead backend can't hang exit.
const disconnectTimeout = 5 * time.Second

var (
	statusFlags   ConnectionFlags
	statusJSON    bool
	statusYAML    bool
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print a one-shot summary of the database",
	Long: `Connect, fetch every feed once, print a summary and disconnect.

Exits with status 2 when the session opened but one or more feeds failed.

Examples:
  dbmon status
  dbmon status -c "Server=db1;User Id=sa;Password=${DB_PASSWORD};" --hours 24
  dbmon status --json | jq .data.status`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if statusJSON && statusYAML {
			return errors.New(errors.ErrValidation,
				"--json and --yaml cannot be used together",
				"Pick one output format.")
		}
		machineMode = statusJSON

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts := statusOptions{Flags: statusFlags, Timeout: statusTimeout}
		switch {
		case statusJSON:
			opts.Format = outputJSON
		case statusYAML:
			opts.Format = outputYAML
		}
		return statusCommand(cmd.Context(), cfg, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	AddConnectionFlags(statusCmd, &statusFlags)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")
	statusCmd.Flags().BoolVar(&statusYAML, "yaml", false, "output in YAML format")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 30*time.Second, "how long to wait for every feed to answer")
	rootCmd.AddCommand(statusCmd)
}

type outputFormat int

const (
	outputText outputFormat = iota
	outputJSON
	outputYAML
)

type statusOptions struct {
	Flags   ConnectionFlags
	Format  outputFormat
	Timeout time.Duration
}

// StatusOutput is the document printed by status --json and --yaml.
type StatusOutput struct {
	BaseURL            string             `json:"baseUrl" yaml:"baseUrl"`
	Connection         string             `json:"connection" yaml:"connection"` // password masked
	SessionID          string             `json:"sessionId" yaml:"sessionId"`
	Health             string             `json:"health" yaml:"health"`
	Status             api.StatusSnapshot `json:"status" yaml:"status"`
	TotalSchemaObjects int                `json:"totalSchemaObjects" yaml:"totalSchemaObjects"`
	Issues             []api.Issue        `json:"issues" yaml:"issues"`
	Jobs               []api.Job          `json:"jobs" yaml:"jobs"`
	Logs               []api.LogEntry     `json:"logs" yaml:"logs"`
	PerformanceHours   int                `json:"performanceHours" yaml:"performanceHours"`
	Performance        []api.MetricPoint  `json:"performance" yaml:"performance"`
	FeedErrors         map[string]string  `json:"feedErrors,omitempty" yaml:"feedErrors,omitempty"`
}

// statusCommand implements the status command logic.
func statusCommand(ctx context.Context, cfg *config.Config, opts statusOptions, stdout, stderr io.Writer) error {
	conn, err := ResolveConnectionString(opts.Flags.Connection, cfg)
	if err != nil {
		return err
	}
	if strings.TrimSpace(conn) == "" {
		return errors.New(errors.ErrValidation, session.MsgConnectionRequired,
			"Pass --connection, set connection.string in .dbmon.yaml, or export DBMON_CONNECTION_STRING.")
	}
	hours, err := ResolveHours(opts.Flags.Hours, cfg)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	log := logger.NewEnvLogger("")
	d := dashboard.New(newAPIClient(cfg), dashboard.Options{
		ConnectionString: conn,
		PerformanceHours: hours,
		Logger:           log,
	})
	defer d.Close()

	var spinner *ui.Spinner
	if opts.Format == outputText {
		spinner = ui.NewSpinner("Fetching status from "+cfg.API.BaseURL, stderr)
		spinner.Start()
	}
	fail := func() {
		if spinner != nil {
			spinner.Fail()
		}
	}

	if err := d.Session.Connect(ctx); err != nil {
		fail()
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		if err := d.Session.Disconnect(dctx); err != nil {
			log.Warn("failed to close backend session: %s", errors.Message(err))
		}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := d.WaitFirstFetch(waitCtx); err != nil {
		fail()
		return errors.WrapWithCode(err, errors.ErrAPI,
			"Timed out waiting for the backend",
			fmt.Sprintf("Not every feed answered within %s. Try a longer --timeout.", opts.Timeout))
	}
	if spinner != nil {
		spinner.Success()
	}

	out := buildStatusOutput(cfg.API.BaseURL, d)

	switch opts.Format {
	case outputJSON:
		if err := WriteJSONSuccess(stdout, out); err != nil {
			return err
		}
	case outputYAML:
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return errors.WrapWithCode(err, errors.ErrAPI, "Failed to encode status as YAML", "")
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		fmt.Fprint(stdout, renderStatusText(out))
	}

	if len(out.FeedErrors) > 0 {
		return errors.NewExitError(2)
	}
	return nil
}

// buildStatusOutput collects the dashboard state into a StatusOutput.
func buildStatusOutput(baseURL string, d *dashboard.Dashboard) StatusOutput {
	snap := d.Snapshot()

	status := snap.Status.Data
	// A failed first fetch leaves the placeholder; the connect payload is fresher.
	if snap.Status.LastUpdated.IsZero() {
		if initial, ok := d.Session.InitialStatus(); ok {
			status = initial
		}
	}

	out := StatusOutput{
		BaseURL:            baseURL,
		Connection:         format.MaskPassword(snap.Session.ConnectionString),
		SessionID:          snap.Session.SessionID,
		Health:             status.Health().String(),
		Status:             status,
		TotalSchemaObjects: status.TotalSchemaObjects(),
		Issues:             snap.Issues.Data,
		Jobs:               snap.Jobs.Data,
		Logs:               snap.Logs.Data,
		PerformanceHours:   snap.PerformanceHours,
		Performance:        snap.Performance.Data,
	}

	feedErrs := map[string]string{
		dashboard.FeedStatus:      snap.Status.Err,
		dashboard.FeedIssues:      snap.Issues.Err,
		dashboard.FeedJobs:        snap.Jobs.Err,
		dashboard.FeedPerformance: snap.Performance.Err,
		dashboard.FeedLogs:        snap.Logs.Err,
	}
	for name, msg := range feedErrs {
		if msg == "" {
			continue
		}
		if out.FeedErrors == nil {
			out.FeedErrors = make(map[string]string)
		}
		out.FeedErrors[name] = msg
	}
	return out
}

var sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary)

// renderStatusText renders the human-readable summary.
func renderStatusText(out StatusOutput) string {
	var b strings.Builder

	b.WriteString(ui.RenderHeader(ui.HeaderInfo{
		Version: formatVersion(version),
		Tagline: out.Connection,
	}))

	writeSection(&b, "Status", out.FeedErrors[dashboard.FeedStatus])
	s := out.Status
	b.WriteString(ui.RenderKeyValues([]ui.KeyValue{
		{Key: "Health", Value: healthLabel(s)},
		{Key: "Uptime", Value: orDash(format.Duration(s.Uptime.String()))},
		{Key: "Connections", Value: format.Number(s.Connections)},
		{Key: "CPU", Value: ui.RenderProgressBar(s.CPU, 20)},
		{Key: "Memory", Value: ui.RenderProgressBar(s.Memory, 20)},
		{Key: "Disk", Value: ui.RenderProgressBar(s.DiskSpace, 20)},
		{Key: "Response", Value: fmt.Sprintf("%.0f ms", s.ResponseTime)},
		{Key: "Schema", Value: fmt.Sprintf("%s objects (%d tables, %d views, %d procedures, %d functions, %d triggers)",
			format.Number(out.TotalSchemaObjects), s.Tables, s.Views, s.StoredProcedures, s.Functions, s.Triggers)},
	}))

	writeSection(&b, "Issues", out.FeedErrors[dashboard.FeedIssues])
	b.WriteString(ui.RenderGroupedList(issueRows(out.Issues), "No issues detected"))

	writeSection(&b, "Pending jobs", out.FeedErrors[dashboard.FeedJobs])
	if len(out.Jobs) == 0 {
		b.WriteString(ui.MutedStyle().Render("No pending jobs") + "\n")
	} else {
		b.WriteString(ui.RenderSimpleTable(jobColumns, jobRows(out.Jobs)) + "\n")
	}

	writeSection(&b, fmt.Sprintf("Performance (last %dh)", out.PerformanceHours), out.FeedErrors[dashboard.FeedPerformance])
	b.WriteString(renderPerformanceText(out.Performance))

	writeSection(&b, "Logs", out.FeedErrors[dashboard.FeedLogs])
	b.WriteString(ui.RenderGroupedList(logRows(out.Logs), "No log entries"))

	return b.String()
}

func writeSection(b *strings.Builder, title, feedErr string) {
	b.WriteString("\n" + sectionStyle.Render(title) + "\n")
	if feedErr != "" {
		b.WriteString("  " + ui.ErrorStyle().Render(ui.SymbolFail+" "+feedErr) + "\n")
	}
}

func healthLabel(s api.StatusSnapshot) string {
	dot := lipgloss.NewStyle().Foreground(format.StatusColor(s.Status)).Render(ui.SymbolComplete)
	return dot + " " + s.Status
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// severityGroups orders the grouped lists: errors first.
var severityGroups = []struct {
	severity api.Severity
	title    string
}{
	{api.SeverityError, "Errors"},
	{api.SeverityWarning, "Warnings"},
	{api.SeverityInfo, "Info"},
}

func groupTitle(sev api.Severity) string {
	for _, g := range severityGroups {
		if g.severity == sev {
			return g.title
		}
	}
	return "Other"
}

func issueRows(issues []api.Issue) []ui.ListRow {
	rows := make([]ui.ListRow, 0, len(issues))
	for _, g := range severityGroups {
		for _, is := range issues {
			if is.Severity == g.severity {
				rows = append(rows, ui.ListRow{Level: string(is.Severity), Group: g.title, Message: is.Message, Detail: format.Time(is.Timestamp)})
			}
		}
	}
	for _, is := range issues {
		if groupTitle(is.Severity) == "Other" {
			rows = append(rows, ui.ListRow{Level: string(is.Severity), Group: "Other", Message: is.Message, Detail: format.Time(is.Timestamp)})
		}
	}
	return rows
}

func logRows(logs []api.LogEntry) []ui.ListRow {
	groups := dashboard.LogsByType(logs)
	rows := make([]ui.ListRow, 0, len(logs))
	for _, g := range []struct {
		title   string
		entries []api.LogEntry
	}{
		{"Errors", groups.Errors},
		{"Warnings", groups.Warnings},
		{"Info", groups.Info},
	} {
		for _, l := range g.entries {
			rows = append(rows, ui.ListRow{Level: string(l.Type), Group: g.title, Message: l.Message, Detail: format.Time(l.Timestamp)})
		}
	}
	return rows
}

var jobColumns = []ui.TableColumn{
	{Title: "Job", Width: 32},
	{Title: "Status", Width: 10},
	{Title: "Started", Width: 8},
	{Title: "Estimate", Width: 10},
}

func jobRows(jobs []api.Job) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{
			j.Name,
			j.Status,
			orDash(format.Time(j.StartTime)),
			orDash(format.Duration(j.EstimatedDuration.String())),
		})
	}
	return rows
}

func renderPerformanceText(points []api.MetricPoint) string {
	if len(points) == 0 {
		return ui.MutedStyle().Render("No performance data") + "\n"
	}

	latest := dashboard.LatestMetric(points)
	series := []struct {
		label string
		field dashboard.MetricField
		unit  string
		now   float64
	}{
		{"Queries", dashboard.FieldQueries, "/s", latest.Queries},
		{"CPU", dashboard.FieldCPU, "%", latest.CPU},
		{"Memory", dashboard.FieldMemory, "%", latest.Memory},
	}

	pairs := make([]ui.KeyValue, 0, len(series))
	for _, s := range series {
		pairs = append(pairs, ui.KeyValue{
			Key: s.label,
			Value: fmt.Sprintf("%s  now %s%s  avg %s%s  max %s%s",
				ui.RenderSparkline(dashboard.Series(points, s.field), 24),
				format.Float(s.now), s.unit,
				format.Float(dashboard.AverageValue(points, s.field)), s.unit,
				format.Float(dashboard.MaxValue(points, s.field)), s.unit),
		})
	}
	return ui.RenderKeyValues(pairs)
}
