package taskrunner

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrRunnerClosed is returned when submitting after shutdown started.
	ErrRunnerClosed = errors.New("task runner is shutting down")
	// ErrTaskAlreadyRunning is returned when a task for the same
	// session identifier is still in flight. One session has exactly
	// one writer.
	ErrTaskAlreadyRunning = errors.New("task already running for this session")
	// ErrTooManyTasks is returned when the runner is at capacity.
	ErrTooManyTasks = errors.New("too many running tasks")
)

// TaskFunc is a unit of background work owning one session.
type TaskFunc func(ctx context.Context)

// Runner executes generation tasks in the background, bounded by a
// maximum number of concurrent tasks. Each task owns the session row
// it was submitted for; the runner rejects a second task for the same
// session while the first is running.
type Runner struct {
	mu       sync.Mutex
	running  map[string]context.CancelFunc
	maxTasks int
	closed   bool
	wg       sync.WaitGroup
	logger   *zap.Logger
}

// New creates a Runner allowing up to maxTasks concurrent tasks.
func New(maxTasks int, logger *zap.Logger) *Runner {
	if maxTasks <= 0 {
		maxTasks = 4
	}
	return &Runner{
		running:  make(map[string]context.CancelFunc),
		maxTasks: maxTasks,
		logger:   logger.Named("TaskRunner"),
	}
}

// Submit schedules fn to run in the background under the given session
// identifier. The task receives a context that is cancelled on shutdown.
func (r *Runner) Submit(sessionID string, fn TaskFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRunnerClosed
	}
	if _, exists := r.running[sessionID]; exists {
		return ErrTaskAlreadyRunning
	}
	if len(r.running) >= r.maxTasks {
		return ErrTooManyTasks
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.running[sessionID] = cancel
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.running, sessionID)
			r.mu.Unlock()
			cancel()
		}()
		r.logger.Debug("Task started", zap.String("sessionID", sessionID))
		fn(ctx)
		r.logger.Debug("Task finished", zap.String("sessionID", sessionID))
	}()

	return nil
}

// Running returns the number of tasks currently in flight.
func (r *Runner) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

// Shutdown stops accepting tasks, cancels the running ones and waits
// for them to finish or for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for _, cancel := range r.running {
		cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("All tasks finished")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Shutdown timed out waiting for tasks")
		return ctx.Err()
	}
}
