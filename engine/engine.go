package engine

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/strandhq/strand/bridge"
	"github.com/strandhq/strand/log"
	"github.com/strandhq/strand/metrics"
	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// DefaultPoolSize is the worker pool size when Config leaves it zero.
const DefaultPoolSize = 8

// ErrDuplicateTask indicates a task name is already registered.
var ErrDuplicateTask = errors.New("task name already registered")

// Config configures an Engine.
type Config struct {
	// PoolSize is the fixed worker pool capacity shared by all tasks of
	// this engine instance. Not tunable per task.
	PoolSize int
	// Logger is optional.
	Logger *log.Logger
	// Metrics is optional.
	Metrics *metrics.Collector
}

// Engine supervises tasks against one frame store.
type Engine struct {
	store   *store.Store
	logger  *log.Logger
	metrics *metrics.Collector
	pool    *semaphore.Weighted

	mu    sync.Mutex
	tasks map[string]*Task
}

// New creates an engine with its shared worker pool.
func New(s *store.Store, cfg Config) *Engine {
	size := cfg.PoolSize
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &Engine{
		store:   s,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		pool:    semaphore.NewWeighted(int64(size)),
		tasks:   make(map[string]*Task),
	}
}

// Store returns the engine's frame store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Spawn registers a task: it opens a subscription with the given options
// and starts driving frames through body on the shared pool. The returned
// task is Running once its first poll begins. Names are unique per engine;
// respawning a stopped name requires removing it first via Forget.
func (e *Engine) Spawn(ctx context.Context, name string, opts types.ReadOptions, body Body) (*Task, error) {
	subCtx, subCancel := context.WithCancel(ctx)
	t := &Task{
		name:      name,
		engine:    e,
		state:     types.TaskCreated,
		subCancel: subCancel,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		follow:    opts.Follow,
	}

	// Reserve the name before opening the subscription so two concurrent
	// Spawn calls for the same name cannot both succeed.
	e.mu.Lock()
	if _, exists := e.tasks[name]; exists {
		e.mu.Unlock()
		subCancel()
		return nil, ErrDuplicateTask
	}
	e.tasks[name] = t
	e.mu.Unlock()

	sub, err := e.store.Read(subCtx, opts)
	if err != nil {
		subCancel()
		e.mu.Lock()
		delete(e.tasks, name)
		e.mu.Unlock()
		return nil, err
	}

	handle := bridge.NewHandle(e.store)
	go t.run(ctx, sub, body, handle)

	if e.logger != nil {
		e.logger.Info("task spawned", map[string]any{"task": name, "follow": opts.Follow, "tail": opts.Tail})
	}
	return t, nil
}

// Task returns a registered task by name, or nil.
func (e *Engine) Task(name string) *Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tasks[name]
}

// Forget removes a stopped task from the registry so its name can be
// reused. Running tasks are not removable.
func (e *Engine) Forget(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[name]
	if !ok {
		return false
	}
	if state, _ := t.State(); state != types.TaskStopped {
		return false
	}
	delete(e.tasks, name)
	return true
}

// StopAll requests an external stop on every task and waits for each to
// drain its in-flight invocations.
func (e *Engine) StopAll() {
	e.mu.Lock()
	tasks := make([]*Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		tasks = append(tasks, t)
	}
	e.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
	for _, t := range tasks {
		t.Wait()
	}
}
