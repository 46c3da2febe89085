package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/drmercer/prompt-pad/pkg/models"
)

var submitDeps []string

var submitCmd = &cobra.Command{
	Use:   "submit <id> <prompt...>",
	Short: "Submit a task to a running server",
	Long: `Submit a task prompt to a running task server.

Submission is asynchronous: the server queues the task and returns
immediately. Resubmitting an existing id replaces the prior task.
Dependencies are recorded on the task but not enforced by the scheduler.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := newAPIClient()
		if err != nil {
			return err
		}

		sub := models.Submission{
			ID:           args[0],
			Prompt:       strings.Join(args[1:], " "),
			Dependencies: submitDeps,
		}
		if err := api.Submit(cmd.Context(), sub); err != nil {
			return fmt.Errorf("submitting task: %w", err)
		}

		fmt.Printf("accepted task %s\n", sub.ID)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringArrayVar(&submitDeps, "dep", nil, "Dependency task id (repeatable; recorded, not enforced)")
	submitCmd.Flags().StringVar(&clientAddr, "addr", "", "Server address (default from config)")
	rootCmd.AddCommand(submitCmd)
}
