// Package cli defines the ppad command tree: the serve daemon plus client
// commands that talk to a running task server over its HTTP API.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "ppad",
	Short: "prompt-pad agent tasks server",
	Long: `ppad is a local, single-tenant task-execution server: clients submit
textual task prompts over HTTP, and the server queues them, runs a
user-configured command against a git working copy for each task, and
commits the resulting changes.

Run the daemon with 'ppad serve', then submit and inspect tasks with
'ppad submit', 'ppad tasks', and 'ppad watch'.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ppad %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
