package service

import (
	"context"
	"errors"
	"time"

	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/internal/task_service/store"
	"Hokage/backend/go/pkg/logger"
)

var (
	// ErrNoTask signals a long-poll that expired without work. The agent is
	// expected to reconnect immediately.
	ErrNoTask = errors.New("no task became available before the poll deadline")

	// ErrPollClosed signals that the agent disconnected while waiting.
	ErrPollClosed = errors.New("long-poll closed by the client")
)

// Dispatcher matches newly eligible tasks with waiting collector agents, or
// leaves them queued when no agent is connected.
type Dispatcher struct {
	store   store.TaskStore
	waiters *WaiterRegistry
	maxWait time.Duration
	logger  *logger.Logger
}

// NewDispatcher creates a Dispatcher. maxWait bounds every long-poll.
func NewDispatcher(s store.TaskStore, waiters *WaiterRegistry, maxWait time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{store: s, waiters: waiters, maxWait: maxWait, logger: log}
}

// Dispatch hands a newly created or re-activated task to a waiting agent,
// if any. Delivery is FIFO per owner: when older work is already queued for
// the same owner, that older task is handed over instead of this one. When
// no agent is waiting the task simply stays pending.
func (d *Dispatcher) Dispatch(ctx context.Context, task *models.AgentTask) {
	if !d.waiters.Waiting(task.OwnerID) {
		return
	}

	candidate := task
	if oldest, err := d.store.GetOldestPending(ctx, task.OwnerID); err == nil && oldest != nil {
		candidate = oldest
	}

	ok, err := d.store.MarkProcessing(ctx, candidate.ID)
	if err != nil || !ok {
		// Someone else took it, or the store is unhappy; either way the
		// hand-off is abandoned and the queue state is untouched.
		return
	}
	candidate.Status = models.TaskStatusProcessing

	if !d.waiters.Resolve(candidate.OwnerID, candidate) {
		// The waiter vanished between the check and the resolve. No partial
		// hand-off: the task goes back to pending for the next poll.
		if _, err := d.store.UpdateStatus(ctx, candidate.ID, models.TaskStatusPending, nil); err != nil {
			d.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "dispatch_error"}).
				Error("Failed to requeue task after missed hand-off")
		}
	}
}

// AwaitTask is the long-poll entry point for a collector agent. It returns
// an immediately available pending task when one exists; otherwise it
// registers a rendezvous handle and suspends until a task is dispatched,
// the caller disconnects (ErrPollClosed), or the bounded wait elapses
// (ErrNoTask). The handle is released on every exit path.
func (d *Dispatcher) AwaitTask(ctx context.Context, ownerID uint) (*models.AgentTask, error) {
	// Fast path: work is already queued.
	if task, err := d.takePending(ctx, ownerID); err != nil || task != nil {
		return task, err
	}

	handle, err := d.waiters.Register(ownerID)
	if err != nil {
		return nil, err
	}

	defer func() {
		d.waiters.Unregister(ownerID)
		// A dispatch may have resolved the handle in the same instant this
		// poll returned through another path. Such a task is sitting unread
		// in the handle buffer; requeue it so it is not stranded in
		// processing with no agent attached. When the task was taken off
		// the handle normally the buffer is empty and this is a no-op.
		select {
		case task := <-handle.Ready():
			if task != nil {
				if _, err := d.store.UpdateStatus(context.Background(), task.ID, models.TaskStatusPending, nil); err != nil {
					d.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "dispatch_error"}).
						Error("Failed to requeue task after abandoned poll")
				}
			}
		default:
		}
	}()

	// Close the race with a task created after the fast-path check but
	// before the handle existed: such a task was left pending because its
	// dispatch saw no waiter.
	if task, err := d.takePending(ctx, ownerID); err != nil || task != nil {
		return task, err
	}

	timer := time.NewTimer(d.maxWait)
	defer timer.Stop()

	select {
	case task := <-handle.Ready():
		return task, nil
	case <-ctx.Done():
		return nil, ErrPollClosed
	case <-timer.C:
		return nil, ErrNoTask
	}
}

// takePending atomically claims the oldest pending task for the owner.
// Returns (nil, nil) when the queue is empty.
func (d *Dispatcher) takePending(ctx context.Context, ownerID uint) (*models.AgentTask, error) {
	for {
		task, err := d.store.GetOldestPending(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if task == nil {
			return nil, nil
		}
		ok, err := d.store.MarkProcessing(ctx, task.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			task.Status = models.TaskStatusProcessing
			return task, nil
		}
		// Lost the claim to a concurrent dispatch; try the next oldest.
	}
}
