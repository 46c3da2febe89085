package queue

import (
	"sync"

	"github.com/charmbracelet/log"

	"github.com/drmercer/prompt-pad/internal/observability"
	"github.com/drmercer/prompt-pad/internal/storage"
	"github.com/drmercer/prompt-pad/pkg/models"
)

// Processor is the single-worker loop that advances tasks from queued to a
// terminal state. A boolean gate guarantees at most one task executes at a
// time; submissions arriving while a task runs simply extend the queue and
// are picked up when the current drain rescans.
type Processor struct {
	store    *storage.TaskStore
	executor *Executor
	eventLog observability.EventLog // nil when observability is disabled
	logger   *log.Logger

	mu         sync.Mutex
	processing bool
	wg         sync.WaitGroup
}

// NewProcessor creates a Processor over the given store and executor.
// eventLog may be nil; logger may be nil for the default logger.
func NewProcessor(store *storage.TaskStore, executor *Executor, eventLog observability.EventLog, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		store:    store,
		executor: executor,
		eventLog: eventLog,
		logger:   logger,
	}
}

// Kick starts a drain goroutine unless one is already running. It is called
// after every accepted submission and once at startup so recovered tasks
// resume without an external poke.
func (p *Processor) Kick() {
	p.mu.Lock()
	if p.processing {
		p.mu.Unlock()
		return
	}
	p.processing = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.drain()
	}()
}

// Processing reports whether a drain goroutine currently holds the gate.
func (p *Processor) Processing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processing
}

// Wait blocks until the current drain (if any) has finished. Intended for
// shutdown and tests.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// drain runs queued tasks oldest-first until the queue is empty, then
// releases the gate. The release rechecks the queue under the gate's mutex
// so a submission racing the release is never stranded.
func (p *Processor) drain() {
	for {
		rec := p.store.NextQueued()
		if rec == nil {
			p.mu.Lock()
			if p.store.NextQueued() == nil {
				p.processing = false
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
			continue
		}
		p.runOne(rec)
	}
}

// runOne drives a single task to a terminal state. The record pointer is
// captured here: if a resubmission replaces the task while its command runs,
// the terminal transition below mutates the orphaned record and the store's
// snapshot is unaffected. Task dependencies are recorded but not consulted;
// scheduling is strictly first-submitted-first-run.
func (p *Processor) runOne(rec *models.Task) {
	task := *rec // value captured at start time
	p.store.Start(rec)
	p.logger.Info("task started", "task", task.ID)
	p.writeEvent(observability.TaskEvent(observability.EventTaskStarted, task.ID, "task started", nil))

	commit, err := p.executor.Execute(task)
	if err != nil {
		p.store.Fail(rec, err.Error())
		p.logger.Error("task failed", "task", task.ID, "err", err)
		p.writeEvent(observability.TaskEvent(observability.EventTaskFailed, task.ID, "task failed",
			map[string]any{"error": err.Error()}))
		return
	}

	p.store.Complete(rec, commit)
	p.logger.Info("task completed", "task", task.ID, "commit", commit)
	p.writeEvent(observability.TaskEvent(observability.EventTaskCompleted, task.ID, "task completed",
		map[string]any{"commit": commit}))
}

func (p *Processor) writeEvent(event observability.Event) {
	if p.eventLog == nil {
		return
	}
	if err := p.eventLog.Write(event); err != nil {
		p.logger.Warn("writing event", "type", event.Type, "err", err)
	}
}
