package engine

import (
	"context"
	"sync"
	"time"

	"github.com/strandhq/strand/bridge"
	"github.com/strandhq/strand/store"
	"github.com/strandhq/strand/types"
)

// Task is one supervised binding of a subscription to a reactive body.
//
// State machine: Created -> Running -> Stopped(reason). Stopped is
// terminal; running the same body again requires a new Spawn.
type Task struct {
	name   string
	engine *Engine
	follow bool

	subCancel context.CancelFunc

	// quit is closed exactly once by terminate; the run loop stops
	// submitting when it observes the close. In-flight invocations are
	// never preempted.
	quit     chan struct{}
	quitOnce sync.Once

	// done closes after the loop exits and in-flight invocations drain.
	done chan struct{}

	inflight sync.WaitGroup

	mu       sync.Mutex
	state    types.TaskState
	reason   types.StopReason
	lastErr  error
	received int64
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// State returns the current state and, once stopped, the reason.
func (t *Task) State() (types.TaskState, types.StopReason) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.reason
}

// Err returns the error that stopped the task, if the reason was StopError.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Received returns how many frames the subscription has delivered.
func (t *Task) Received() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.received
}

// Stop requests an external stop. In-flight invocations run to
// completion; no further frames are submitted. Idempotent.
func (t *Task) Stop() {
	t.terminate(types.StopExternal, nil)
}

// Wait blocks until the task has stopped and its in-flight invocations
// have drained, then returns the terminal state.
func (t *Task) Wait() (types.TaskState, types.StopReason) {
	<-t.done
	return t.State()
}

// terminate records the first stop reason and triggers shutdown.
func (t *Task) terminate(reason types.StopReason, err error) {
	t.quitOnce.Do(func() {
		t.mu.Lock()
		t.state = types.TaskStopped
		t.reason = reason
		t.lastErr = err
		t.mu.Unlock()

		close(t.quit)
		t.subCancel()

		if t.engine.logger != nil {
			fields := map[string]any{"task": t.name, "reason": string(reason)}
			if err != nil {
				fields["error"] = err.Error()
			}
			t.engine.logger.Info("task stopped", fields)
		}
	})
}

// run is the supervision loop: receive frames in order, submit each to
// the shared pool in order, and translate upstream termination into a
// stop reason.
func (t *Task) run(ctx context.Context, sub *store.Subscription, body Body, handle *bridge.Handle) {
	defer close(t.done)
	defer t.inflight.Wait()

	t.mu.Lock()
	t.state = types.TaskRunning
	t.mu.Unlock()

	// loopCtx aborts a pending pool acquisition when the task terminates;
	// it is not the invocation context, so in-flight bodies keep running.
	loopCtx, loopCancel := context.WithCancel(ctx)
	defer loopCancel()
	go func() {
		select {
		case <-t.quit:
			loopCancel()
		case <-loopCtx.Done():
		}
	}()

	for {
		select {
		case <-t.quit:
			return
		case f, ok := <-sub.Frames():
			if !ok {
				switch {
				case sub.Err() != nil:
					t.terminate(types.StopError, sub.Err())
				case t.follow:
					t.terminate(types.StopClosed, nil)
				default:
					t.terminate(types.StopCompleted, nil)
				}
				return
			}

			t.mu.Lock()
			t.received++
			t.mu.Unlock()

			start := time.Now()
			if err := t.engine.pool.Acquire(loopCtx, 1); err != nil {
				// Cancelled while waiting for a slot; the frame is not
				// submitted. terminate is a no-op when a stop reason was
				// already recorded, so an earlier Stop() keeps its reason
				// and a bare ctx cancellation lands on closed.
				t.terminate(types.StopClosed, nil)
				return
			}
			t.engine.metrics.ObservePoolWait(time.Since(start))

			t.inflight.Add(1)
			go t.invoke(ctx, body, f, handle)
		}
	}
}

// invoke runs one reactive body call on a pool slot.
func (t *Task) invoke(ctx context.Context, body Body, f *types.Frame, handle *bridge.Handle) {
	defer t.inflight.Done()
	defer t.engine.pool.Release(1)

	t.engine.metrics.IncInvocation(t.name)
	err := body.Invoke(ctx, f, handle)
	if err == nil {
		return
	}

	if IsFatal(err) {
		t.engine.metrics.IncTaskError(t.name, "fatal")
		t.terminate(types.StopError, err)
		return
	}

	// Recoverable: surface and continue with the next frame.
	t.engine.metrics.IncTaskError(t.name, "recoverable")
	if t.engine.logger != nil {
		t.engine.logger.Warn("task invocation failed", map[string]any{
			"task":  t.name,
			"frame": f.ID.String(),
			"error": err.Error(),
		})
	}
}
