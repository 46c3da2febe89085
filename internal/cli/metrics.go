package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/drmercer/prompt-pad/internal/core"
	"github.com/drmercer/prompt-pad/internal/observability"
	"github.com/drmercer/prompt-pad/internal/storage"
)

var metricsSince string

var metricsCmd = &cobra.Command{
	Use:   "metrics <repo>",
	Short: "Aggregate task metrics from the local event log",
	Long: `Aggregate metrics from the event log the server writes for a repository.

Reads the local state directory directly, so it works whether or not the
server is currently running.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSince(metricsSince)
		if err != nil {
			return err
		}

		repoPath, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		logPath := storage.EventLogPath(core.ResolveStateDir(), repoPath)
		eventLog, err := observability.NewJSONLEventLog(logPath)
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		defer func() { _ = eventLog.Close() }()

		m, err := observability.NewMetricsCalculator(eventLog).Calculate(since)
		if err != nil {
			return err
		}

		fmt.Printf("Events since %s: %d\n", metricsSince, m.EventCount)
		fmt.Printf("  submitted: %d (replaced: %d)\n", m.TasksSubmitted, m.TasksReplaced)
		fmt.Printf("  started:   %d\n", m.TasksStarted)
		fmt.Printf("  completed: %d\n", m.TasksCompleted)
		fmt.Printf("  failed:    %d\n", m.TasksFailed)
		fmt.Printf("  server starts: %d\n", m.ServerStarts)
		if m.NewestEvent != nil {
			fmt.Printf("  newest event: %s\n", m.NewestEvent.Format(time.RFC3339))
		}
		return nil
	},
}

// parseSince parses a human-friendly duration string like "7d" or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}

func init() {
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window (e.g. 7d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
