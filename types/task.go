package types

// TaskState is the lifecycle state of a supervised task.
type TaskState string

const (
	// TaskCreated indicates the task exists but its subscription has not
	// started polling yet.
	TaskCreated TaskState = "created"
	// TaskRunning indicates the subscription is established and frames are
	// being driven through the reactive body.
	TaskRunning TaskState = "running"
	// TaskStopped is terminal. A stopped task requires recreation to run
	// again.
	TaskStopped TaskState = "stopped"
)

// StopReason records why a task reached TaskStopped.
type StopReason string

const (
	// StopCompleted indicates graceful end of history on a non-follow
	// subscription.
	StopCompleted StopReason = "completed"
	// StopExternal indicates an explicit stop request.
	StopExternal StopReason = "external"
	// StopClosed indicates the upstream subscription channel closed.
	StopClosed StopReason = "closed"
	// StopError indicates an unrecoverable error surfaced by the reactive
	// body or the store.
	StopError StopReason = "error"
)

// IsFailure reports whether the reason represents an error termination.
// Channel closure and completion are normal terminations, not failures.
func (r StopReason) IsFailure() bool {
	return r == StopError
}
