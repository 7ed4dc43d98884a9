package grabber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService is a controllable Service implementation for worker tests.
type stubService struct {
	mu sync.Mutex
	// processedURLs records the URLs passed to ProcessURL in order.
	processedURLs []string
	// statusByURL maps a URL to the status line ProcessURL returns.
	statusByURL map[string]string
	// errByURL maps a URL to the error ProcessURL returns.
	errByURL map[string]error
	// blockOn makes ProcessURL block on this channel for the given URL.
	blockOn map[string]chan struct{}
}

func newStubService() *stubService {
	return &stubService{
		statusByURL: make(map[string]string),
		errByURL:    make(map[string]error),
		blockOn:     make(map[string]chan struct{}),
	}
}

func (s *stubService) ProcessURL(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	s.processedURLs = append(s.processedURLs, url)
	blocker := s.blockOn[url]
	s.mu.Unlock()

	if blocker != nil {
		<-blocker
	}

	return s.statusByURL[url], s.errByURL[url]
}

func (s *stubService) PrintDownloadSummary(_ context.Context) {}

func (s *stubService) processed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.processedURLs...)
}

// sessionRecorder collects worker callback invocations.
type sessionRecorder struct {
	mu        sync.Mutex
	logs      []string
	progress  []float64
	doneCount int
	stopped   bool
	done      chan struct{}
}

func newSessionRecorder() *sessionRecorder {
	return &sessionRecorder{done: make(chan struct{})}
}

func (r *sessionRecorder) callbacks() WorkerCallbacks {
	return WorkerCallbacks{
		OnLog: func(message string) {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.logs = append(r.logs, message)
		},
		OnProgress: func(percent float64) {
			r.mu.Lock()
			defer r.mu.Unlock()

			r.progress = append(r.progress, percent)
		},
		OnDone: func(stopped bool) {
			r.mu.Lock()
			r.doneCount++
			r.stopped = stopped
			r.mu.Unlock()

			close(r.done)
		},
	}
}

func (r *sessionRecorder) waitDone(t *testing.T) {
	t.Helper()

	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker session did not finish in time")
	}
}

// TestWorker_Start_ProcessesAllURLs tests a full session over several URLs.
func TestWorker_Start_ProcessesAllURLs(t *testing.T) {
	t.Parallel()

	service := newStubService()
	service.statusByURL["url-1"] = "Done: /music/a.mp3. Tags and cover embedded"
	service.statusByURL["url-2"] = "Done: /music/b.mp3. Tags and cover embedded"

	worker := NewWorker(service)
	recorder := newSessionRecorder()

	err := worker.Start(context.Background(), []string{"url-1", "url-2"}, recorder.callbacks())
	require.NoError(t, err)

	recorder.waitDone(t)

	assert.Equal(t, []string{"url-1", "url-2"}, service.processed())
	assert.Equal(t, []float64{50, 100}, recorder.progress)
	assert.Len(t, recorder.logs, 2)
	assert.Equal(t, 1, recorder.doneCount)
	assert.False(t, recorder.stopped)
	assert.False(t, worker.IsRunning())
}

// TestWorker_Start_AlreadyRunning tests that a second Start is rejected.
func TestWorker_Start_AlreadyRunning(t *testing.T) {
	t.Parallel()

	service := newStubService()
	blocker := make(chan struct{})
	service.blockOn["url-1"] = blocker

	worker := NewWorker(service)
	recorder := newSessionRecorder()

	err := worker.Start(context.Background(), []string{"url-1"}, recorder.callbacks())
	require.NoError(t, err)

	// The first session is still blocked on url-1.
	err = worker.Start(context.Background(), []string{"url-2"}, WorkerCallbacks{})
	require.ErrorIs(t, err, ErrAlreadyRunning)

	close(blocker)
	recorder.waitDone(t)

	// After the session ends, a new one is allowed.
	recorder2 := newSessionRecorder()
	err = worker.Start(context.Background(), []string{"url-2"}, recorder2.callbacks())
	require.NoError(t, err)
	recorder2.waitDone(t)
}

// TestWorker_Stop_SkipsRemainingURLs tests cooperative cancellation between URLs.
func TestWorker_Stop_SkipsRemainingURLs(t *testing.T) {
	t.Parallel()

	service := newStubService()
	blocker := make(chan struct{})
	service.blockOn["url-1"] = blocker

	worker := NewWorker(service)
	recorder := newSessionRecorder()

	err := worker.Start(context.Background(), []string{"url-1", "url-2", "url-3"}, recorder.callbacks())
	require.NoError(t, err)

	// Stop while url-1 is in flight; it must finish, the rest must be skipped.
	require.Eventually(t, func() bool {
		return len(service.processed()) == 1
	}, 5*time.Second, time.Millisecond, "url-1 never reached ProcessURL")
	worker.Stop()
	close(blocker)

	recorder.waitDone(t)

	assert.Equal(t, []string{"url-1"}, service.processed())
	assert.Equal(t, 1, recorder.doneCount)
	assert.True(t, recorder.stopped)
}

// TestWorker_EmptyURLList tests that an empty list finishes immediately.
func TestWorker_EmptyURLList(t *testing.T) {
	t.Parallel()

	worker := NewWorker(newStubService())
	recorder := newSessionRecorder()

	err := worker.Start(context.Background(), nil, recorder.callbacks())
	require.NoError(t, err)

	recorder.waitDone(t)

	assert.Empty(t, recorder.progress)
	assert.Equal(t, 1, recorder.doneCount)
	assert.False(t, recorder.stopped)
}

// TestWorker_FailingURLContinuesSession tests that a failing URL doesn't abort the run.
func TestWorker_FailingURLContinuesSession(t *testing.T) {
	t.Parallel()

	service := newStubService()
	service.errByURL["url-1"] = errors.New("video unavailable")
	service.statusByURL["url-2"] = "Done: /music/b.mp3. Tags embedded"

	worker := NewWorker(service)
	recorder := newSessionRecorder()

	err := worker.Start(context.Background(), []string{"url-1", "url-2"}, recorder.callbacks())
	require.NoError(t, err)

	recorder.waitDone(t)

	assert.Equal(t, []string{"url-1", "url-2"}, service.processed())
	assert.Equal(t, []float64{50, 100}, recorder.progress)
	require.Len(t, recorder.logs, 2)
	assert.Contains(t, recorder.logs[0], "Failed")
	assert.Contains(t, recorder.logs[1], "Done")
	assert.False(t, recorder.stopped)
}

// TestWorker_CanceledContext tests that a canceled context stops the session.
func TestWorker_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(newStubService())
	recorder := newSessionRecorder()

	err := worker.Start(ctx, []string{"url-1"}, recorder.callbacks())
	require.NoError(t, err)

	recorder.waitDone(t)

	assert.True(t, recorder.stopped)
	assert.Empty(t, recorder.progress)
}

// TestWorker_Wait tests that Wait blocks until the session goroutine exits.
func TestWorker_Wait(t *testing.T) {
	t.Parallel()

	service := newStubService()
	service.statusByURL["url-1"] = "Done: /music/a.mp3. Tags embedded"

	worker := NewWorker(service)
	recorder := newSessionRecorder()

	err := worker.Start(context.Background(), []string{"url-1"}, recorder.callbacks())
	require.NoError(t, err)

	worker.Wait()
	assert.False(t, worker.IsRunning())
}
