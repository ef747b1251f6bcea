package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/linebridge/internal/config"
	"github.com/Iron-Ham/linebridge/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View bridge logs",
	Long: `View, filter, and export the bridge log, including rotated backups.

Examples:
  # Show the last 50 entries
  linebridge logs

  # Everything the bridge received in the last ten minutes
  linebridge logs --direction inbound --since 10m -n 0

  # Warnings and errors from the reactor loop
  linebridge logs --level warn --component reactor

  # Export all write failures as CSV
  linebridge logs --event-type stream.write_failed --format csv -o failures.csv`,
	RunE: runLogs,
}

var (
	logsDir       string
	logsTail      int
	logsLevel     string
	logsSince     string
	logsComponent string
	logsDirection string
	logsEventType string
	logsGrep      string
	logsFormat    string
	logsOutput    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().StringVar(&logsDir, "dir", "", "Log directory (default: logging.dir from config)")
	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component (bridge, reactor, traffic, ...)")
	logsCmd.Flags().StringVar(&logsDirection, "direction", "", "Filter by direction (inbound/outbound)")
	logsCmd.Flags().StringVar(&logsEventType, "event-type", "", "Filter by bus event type (e.g., message.received)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries whose message contains this text")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Output format: text, json, csv")
	logsCmd.Flags().StringVarP(&logsOutput, "output", "o", "", "Write to this file instead of stdout")
}

// logsOptions is the parsed form of the logs flags.
type logsOptions struct {
	Dir    string
	Tail   int
	Filter logging.LogFilter
	Format string
	Output string
}

// buildLogFilter turns the flag values into a LogFilter. now anchors --since.
func buildLogFilter(level, since, component, direction, eventType, grep string, now time.Time) (logging.LogFilter, error) {
	filter := logging.LogFilter{
		Component:       component,
		Direction:       direction,
		EventType:       eventType,
		MessageContains: grep,
	}
	if level != "" {
		filter.Level = logging.ParseLevel(level)
	}
	if since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return logging.LogFilter{}, fmt.Errorf("invalid --since duration %q: %w", since, err)
		}
		filter.StartTime = now.Add(-d)
	}
	if direction != "" && direction != "inbound" && direction != "outbound" {
		return logging.LogFilter{}, fmt.Errorf("invalid --direction %q: must be inbound or outbound", direction)
	}
	return filter, nil
}

// tailEntries keeps the last n entries; n <= 0 keeps all.
func tailEntries(entries []logging.LogEntry, n int) []logging.LogEntry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

func runLogs(cmd *cobra.Command, args []string) error {
	filter, err := buildLogFilter(logsLevel, logsSince, logsComponent, logsDirection, logsEventType, logsGrep, time.Now())
	if err != nil {
		return err
	}

	dir := logsDir
	if dir == "" {
		cfg := config.Get()
		dir = cfg.Logging.ResolveDir()
	}

	return showLogs(cmd, logsOptions{
		Dir:    dir,
		Tail:   logsTail,
		Filter: filter,
		Format: logsFormat,
		Output: logsOutput,
	})
}

func showLogs(cmd *cobra.Command, opts logsOptions) error {
	entries, err := logging.AggregateLogs(opts.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(cmd.OutOrStdout(), "No logs found in %s\n", opts.Dir)
			return nil
		}
		return err
	}

	entries = tailEntries(logging.FilterLogs(entries, opts.Filter), opts.Tail)

	if opts.Output != "" {
		if err := logging.ExportLogEntries(entries, opts.Output, opts.Format); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), opts.Output)
		return nil
	}
	return logging.WriteLogEntries(cmd.OutOrStdout(), entries, opts.Format)
}
