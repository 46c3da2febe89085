package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/drmercer/prompt-pad/pkg/models"
)

var (
	taskHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	statusQueuedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusInProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	statusCompletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	statusErrorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks on a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}

		status, err := api.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching status: %w", err)
		}

		if len(status.Tasks) == 0 {
			fmt.Printf("%s: no tasks\n", status.ServerName)
			return nil
		}

		fmt.Println(taskHeaderStyle.Render(status.ServerName))
		fmt.Printf("%-20s %-12s %-20s %s\n", "ID", "STATUS", "SUBMITTED", "RESULT")
		for _, t := range status.Tasks {
			fmt.Printf("%-20s %-12s %-20s %s\n",
				truncate(t.ID, 20),
				renderStatus(t.Status),
				t.SubmittedAt.Format("2006-01-02 15:04:05"),
				taskResult(t),
			)
		}
		return nil
	},
}

// renderStatus colors a status value; the padding is applied before styling
// so ANSI escapes do not skew the column width.
func renderStatus(s models.TaskStatus) string {
	padded := fmt.Sprintf("%-12s", string(s))
	switch s {
	case models.StatusQueued:
		return statusQueuedStyle.Render(padded)
	case models.StatusInProgress:
		return statusInProgressStyle.Render(padded)
	case models.StatusCompleted:
		return statusCompletedStyle.Render(padded)
	case models.StatusError:
		return statusErrorStyle.Render(padded)
	}
	return padded
}

// taskResult summarizes the terminal outcome column.
func taskResult(t models.Task) string {
	switch t.Status {
	case models.StatusCompleted:
		return truncate(t.Commit, 12)
	case models.StatusError:
		return truncate(strings.ReplaceAll(t.Error, "\n", " "), 60)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func init() {
	tasksCmd.Flags().StringVar(&clientAddr, "addr", "", "Server address (default from config)")
	rootCmd.AddCommand(tasksCmd)
}
