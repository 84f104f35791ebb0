// Package worker runs long jobs (migration, sync, backup) one at a time off the
// request path and fans their progress out to listeners.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
)

// ErrBusy is returned when a job is submitted while another one runs.
var ErrBusy = errors.New("a background job is already running")

// CancelledMessage is the final message of a stopped job.
const CancelledMessage = "cancelled"

// ProgressFunc receives (percent, message) updates.
type ProgressFunc func(percent int, message string)

// DoneFunc receives the terminal (success, message) pair.
type DoneFunc func(success bool, message string)

// Task is a job body. It reports progress, polls shouldStop between units of work,
// and returns the final message.
type Task func(ctx context.Context, progress ProgressFunc, shouldStop func() bool) (string, error)

// EventKind distinguishes progress from completion.
type EventKind string

const (
	EventProgress EventKind = "progress"
	EventDone     EventKind = "done"
)

// Event is what subscribers see.
type Event struct {
	Kind      EventKind `json:"kind"`
	Job       string    `json:"job"`
	Percent   int       `json:"percent,omitempty"`
	Message   string    `json:"message"`
	Success   bool      `json:"success,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Status describes the current or last job.
type Status struct {
	Job     string `json:"job"`
	Running bool   `json:"running"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Success *bool  `json:"success,omitempty"`
}

type Worker struct {
	logger *slog.Logger

	mu      sync.Mutex
	status  Status
	running bool
	stop    atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	subsMu sync.RWMutex
	subs   map[chan Event]struct{}
}

func New(logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		logger: logger.With(slog.String("component", "worker")),
		subs:   make(map[chan Event]struct{}),
	}
}

// Start runs task in the background. onProgress and onDone may be nil; subscribers
// receive the same updates either way.
func (w *Worker) Start(job string, task Task, onProgress ProgressFunc, onDone DoneFunc) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrBusy
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})
	w.status = Status{Job: job, Running: true}
	w.stop.Store(false)
	done := w.done
	w.mu.Unlock()

	w.logger.Info("Job started", slog.String("job", job))
	go w.run(ctx, job, task, onProgress, onDone, done)
	return nil
}

func (w *Worker) run(ctx context.Context, job string, task Task, onProgress ProgressFunc, onDone DoneFunc, done chan struct{}) {
	defer close(done)

	progress := func(percent int, message string) {
		w.mu.Lock()
		w.status.Percent = percent
		w.status.Message = message
		w.mu.Unlock()
		if onProgress != nil {
			onProgress(percent, message)
		}
		w.publish(Event{Kind: EventProgress, Job: job, Percent: percent, Message: message})
	}

	message, err := w.call(ctx, task, progress)
	success := err == nil
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrCancelled), errors.Is(err, context.Canceled):
		message = CancelledMessage
		w.logger.Info("Job cancelled", slog.String("job", job))
	default:
		message = err.Error()
		w.logger.Error("Job failed", slog.String("job", job), slog.String("error", message))
	}
	if success {
		w.logger.Info("Job finished", slog.String("job", job), slog.String("message", message))
	}

	w.mu.Lock()
	w.running = false
	w.cancel()
	w.status.Running = false
	w.status.Message = message
	w.status.Success = &success
	if success {
		w.status.Percent = 100
	}
	w.mu.Unlock()

	if onDone != nil {
		onDone(success, message)
	}
	w.publish(Event{Kind: EventDone, Job: job, Message: message, Success: success})
}

func (w *Worker) call(ctx context.Context, task Task, progress ProgressFunc) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Job panicked", slog.Any("panic", r))
			err = errors.New("job panicked")
		}
	}()
	return task(ctx, progress, w.stop.Load)
}

// Stop asks the running job to stop at its next checkpoint. It does not wait.
func (w *Worker) Stop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return false
	}
	w.stop.Store(true)
	return true
}

// Abort stops the job and cancels its context, interrupting pending remote waits.
func (w *Worker) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		w.stop.Store(true)
		w.cancel()
	}
}

// Wait blocks until the current job, if any, has finished or ctx ends.
func (w *Worker) Wait(ctx context.Context) error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot of the current or last job.
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Subscribe returns a channel of events and a function that releases it. Slow
// subscribers miss events rather than blocking the job.
func (w *Worker) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	w.subsMu.Lock()
	w.subs[ch] = struct{}{}
	w.subsMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.subsMu.Lock()
			delete(w.subs, ch)
			w.subsMu.Unlock()
			close(ch)
		})
	}
}

func (w *Worker) publish(ev Event) {
	ev.Timestamp = time.Now()
	w.subsMu.RLock()
	defer w.subsMu.RUnlock()
	for ch := range w.subs {
		select {
		case ch <- ev:
		default:
			w.logger.Warn("Subscriber channel full, dropping event", slog.String("job", ev.Job))
		}
	}
}
