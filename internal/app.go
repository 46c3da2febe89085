// Package internal provides the App struct that wires all components of the
// task server together: store, executor, processor, event log, and HTTP API.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/drmercer/prompt-pad/internal/core"
	"github.com/drmercer/prompt-pad/internal/integration"
	"github.com/drmercer/prompt-pad/internal/observability"
	"github.com/drmercer/prompt-pad/internal/queue"
	"github.com/drmercer/prompt-pad/internal/server"
	"github.com/drmercer/prompt-pad/internal/storage"
)

// App holds all service dependencies for one task server process. It owns
// the queue state for the lifetime of the process; there are no ambient
// globals beyond the logger.
type App struct {
	Config   *core.Config
	RepoPath string

	// Storage layer
	Store *storage.TaskStore

	// Integration services
	Runner integration.CommandRunner
	Git    *integration.Git

	// Queue
	Executor  *queue.Executor
	Processor *queue.Processor

	// Observability
	EventLog observability.EventLog
	Metrics  observability.MetricsCalculator

	// HTTP API
	Server *server.Server

	Logger *log.Logger
}

// NewApp creates and wires all components for the given repository. The
// configuration must already be validated; repoPath must be a git working
// tree.
func NewApp(cfg *core.Config, repoPath string, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("repo path %s is not a directory", abs)
	}

	app := &App{Config: cfg, RepoPath: abs, Logger: logger}

	// --- Integration services ---
	app.Runner = integration.NewCommandRunner()
	app.Git = integration.NewGit(abs, app.Runner)
	if !app.Git.IsWorkTree() {
		return nil, fmt.Errorf("repo path %s is not a git working tree", abs)
	}

	// --- Storage layer ---
	docPath := storage.StateDocPath(cfg.StateDir, abs)
	app.Store = storage.NewTaskStore(docPath, logger)
	if err := app.Store.Load(); err != nil {
		return nil, fmt.Errorf("loading task store: %w", err)
	}

	// --- Observability ---
	eventLogPath := storage.EventLogPath(cfg.StateDir, abs)
	if err := os.MkdirAll(filepath.Dir(eventLogPath), 0o755); err == nil {
		eventLog, elErr := observability.NewJSONLEventLog(eventLogPath)
		if elErr != nil {
			// Non-fatal: run without observability if the log can't be created.
			logger.Warn("event log disabled", "err", elErr)
		} else {
			app.EventLog = eventLog
			app.Metrics = observability.NewMetricsCalculator(eventLog)
		}
	}

	// --- Queue ---
	app.Executor = queue.NewExecutor(cfg.Command, app.Runner, app.Git, logger)
	app.Processor = queue.NewProcessor(app.Store, app.Executor, app.EventLog, logger)

	// --- HTTP API ---
	auth := server.NewAuthenticator(cfg.Host, cfg.Secret)
	app.Server = server.New(cfg.ServerName, app.Store, app.Processor, auth, app.EventLog, logger)

	return app, nil
}

// Start records the startup event and kicks the processor so tasks
// recovered from a previous run resume without an external trigger.
func (a *App) Start() {
	if a.EventLog != nil {
		event := observability.Event{
			Level:   "INFO",
			Type:    observability.EventServerStarted,
			Message: "task server started",
			Data:    map[string]any{"repo": a.RepoPath, "tasks": a.Store.Len()},
		}
		if err := a.EventLog.Write(event); err != nil {
			a.Logger.Warn("writing startup event", "err", err)
		}
	}
	a.Processor.Kick()
}

// Close releases resources owned by the App.
func (a *App) Close() {
	if a.EventLog != nil {
		_ = a.EventLog.Close()
	}
}
