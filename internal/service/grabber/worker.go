package grabber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/avorobev/tube-grabber/internal/logger"
)

// percentDone is the progress value reported after the last URL completes.
const percentDone = 100.0

// WorkerCallbacks bundles the notification hooks fired by a background download session.
// Nil hooks are skipped. Hooks are invoked from the worker goroutine.
type WorkerCallbacks struct {
	// OnLog receives a status line after each processed URL.
	OnLog func(message string)
	// OnProgress receives the overall completion percentage (0-100)
	// after each URL finishes processing.
	OnProgress func(percent float64)
	// OnDone fires exactly once when the session ends. The argument reports
	// whether the session was stopped before processing every URL.
	OnDone func(stopped bool)
}

// Worker runs download sessions in the background with cooperative cancellation.
// URLs are processed sequentially; Stop lets the in-flight URL finish and
// skips the rest.
type Worker struct {
	// service executes the per-URL download pipeline.
	service Service
	// mu guards the running flag.
	mu sync.Mutex
	// running indicates an active session.
	running bool
	// stopRequested is checked between URLs.
	stopRequested atomic.Bool
	// wg tracks the session goroutine for Wait.
	wg sync.WaitGroup
}

// NewWorker creates a worker bound to the given download service.
func NewWorker(service Service) *Worker {
	return &Worker{service: service}
}

// Start launches a background session processing the given URLs sequentially.
// It returns ErrAlreadyRunning when a session is already in progress.
func (w *Worker) Start(ctx context.Context, urls []string, callbacks WorkerCallbacks) error {
	w.mu.Lock()

	if w.running {
		w.mu.Unlock()

		return ErrAlreadyRunning
	}

	w.running = true
	w.stopRequested.Store(false)
	w.wg.Add(1)

	w.mu.Unlock()

	go w.run(ctx, urls, callbacks)

	return nil
}

// Stop requests cooperative cancellation.
// The URL currently being processed finishes; the remaining URLs are skipped.
func (w *Worker) Stop() {
	w.stopRequested.Store(true)
}

// IsRunning reports whether a session is currently active.
func (w *Worker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.running
}

// Wait blocks until the current session goroutine exits.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// sessionLifecycle is implemented by services that track session timing
// for the download summary.
type sessionLifecycle interface {
	beginSession()
	endSession()
}

func (w *Worker) run(ctx context.Context, urls []string, callbacks WorkerCallbacks) {
	defer w.wg.Done()

	if lifecycle, ok := w.service.(sessionLifecycle); ok {
		lifecycle.beginSession()
		defer lifecycle.endSession()
	}

	var stopped bool

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()

		if callbacks.OnDone != nil {
			callbacks.OnDone(stopped)
		}
	}()

	total := len(urls)

	for index, url := range urls {
		// The stop flag is checked between URLs only, so an in-flight
		// download always completes before the session winds down.
		if w.stopRequested.Load() || ctx.Err() != nil {
			stopped = true

			return
		}

		status, err := w.service.ProcessURL(ctx, url)

		switch {
		case errors.Is(err, context.Canceled):
			stopped = true

			return
		case err != nil:
			// A failing URL is reported and the session moves on.
			logger.Errorf(ctx, "Failed to process URL '%s': %v", url, err)
			w.emitLog(callbacks, fmt.Sprintf("Failed: %s (%v)", url, err))
		case status != "":
			w.emitLog(callbacks, status)
		}

		if callbacks.OnProgress != nil {
			callbacks.OnProgress(float64(index+1) / float64(total) * percentDone)
		}
	}
}

func (w *Worker) emitLog(callbacks WorkerCallbacks, message string) {
	if callbacks.OnLog != nil {
		callbacks.OnLog(message)
	}
}
