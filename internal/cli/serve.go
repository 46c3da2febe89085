package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	app "github.com/drmercer/prompt-pad/internal"
	"github.com/drmercer/prompt-pad/internal/core"
)

var (
	serveAddr     string
	serveName     string
	serveStateDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve <repo> [-- command args...]",
	Short: "Run the task server for a git repository",
	Long: `Run the task server daemon for a git repository.

The external command may be given after --, with every occurrence of the
{prompt} placeholder replaced by the task's prompt text at execution time:

  ppad serve ~/src/notes -- claude -p {prompt}

Without a trailing command, the 'command' list from .ppad.yaml in the
repository (or from .ppadconfig) is used. The bearer secret comes from
PPAD_SECRET or the 'secret' key in .ppadconfig; the server refuses to
start without one.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoPath := args[0]

		var argv []string
		if dash := cmd.ArgsLenAtDash(); dash >= 0 {
			if dash != 1 {
				return fmt.Errorf("expected exactly one repo path before --")
			}
			argv = args[dash:]
		} else if len(args) > 1 {
			return fmt.Errorf("unexpected arguments %v: pass the command after --", args[1:])
		}

		stateDir := serveStateDir
		if stateDir == "" {
			stateDir = core.ResolveStateDir()
		}

		cfg, err := core.LoadConfig(stateDir)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
			cfg.Host = serveAddr
		}
		if serveName != "" {
			cfg.ServerName = serveName
		}

		// Command precedence: argv after -- > repo .ppad.yaml > .ppadconfig.
		repoCfg, err := core.LoadRepoConfig(repoPath)
		if err != nil {
			return err
		}
		if len(argv) > 0 {
			cfg.Command = argv
		} else if repoCfg != nil && len(repoCfg.Command) > 0 {
			cfg.Command = repoCfg.Command
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "ppad",
		})

		a, err := app.NewApp(cfg, repoPath, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Start()
		return a.Server.ListenAndServe(cfg.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8999)")
	serveCmd.Flags().StringVar(&serveName, "name", "", "Server name reported in status responses")
	serveCmd.Flags().StringVar(&serveStateDir, "state-dir", "", "State directory (default $PPAD_STATE_DIR or ~/.prompt-pad)")
	rootCmd.AddCommand(serveCmd)
}
