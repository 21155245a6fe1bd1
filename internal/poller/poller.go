package poller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/better-hash/ai-video-generator/internal/entity"
	"github.com/better-hash/ai-video-generator/internal/gateway"
	"github.com/better-hash/ai-video-generator/internal/logging"
	"github.com/better-hash/ai-video-generator/internal/services"
)

// DefaultInterval is the wait between status fetches.
const DefaultInterval = 2 * time.Second

// UnknownFailure is surfaced when the backend fails a task without a reason.
const UnknownFailure = "unknown error"

var (
	// ErrSuperseded is returned by Submit when a newer run replaced it while
	// the submission was outstanding.
	ErrSuperseded = errors.New("poller: submission superseded")
	// ErrCancelled is returned by Submit when Cancel was called while the
	// submission was outstanding.
	ErrCancelled = errors.New("poller: submission cancelled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("poller: closed")
)

// Backend is the subset of the gateway the poller needs.
type Backend interface {
	SubmitVideoJob(ctx context.Context, req gateway.VideoJobRequest) (gateway.SubmitResult, error)
	FetchTaskStatus(ctx context.Context, taskID string) (gateway.TaskStatus, error)
}

// Options configures a Poller.
type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// run is one submission or tracking attempt. Results are applied only while
// the run is still p.current and not finished.
type run struct {
	gen      uint64
	taskID   string
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	finished bool
	// cancelled marks runs ended by Cancel, Close, or context cancellation.
	cancelled bool
}

// Poller owns the single active generation task.
type Poller struct {
	backend  Backend
	interval time.Duration
	logger   *slog.Logger

	mu           sync.Mutex
	state        State
	task         entity.GenerationTask
	lastErr      error
	pollFailures int
	current      *run
	gen          uint64
	closed       bool

	subscribers map[int]func(Event)
	nextSub     int
	pending     []Event
	draining    bool

	wg sync.WaitGroup
}

// New constructs an idle poller.
func New(backend Backend, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		backend:     backend,
		interval:    interval,
		logger:      logging.NewComponentLogger(opts.Logger, "poller"),
		state:       StateIdle,
		subscribers: make(map[int]func(Event)),
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (p *Poller) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subscribers[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subscribers, id)
			p.mu.Unlock()
		})
	}
}

// Snapshot returns the current slot contents.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Submit supersedes any live run, submits req, and starts polling the
// returned task.
func (p *Poller) Submit(ctx context.Context, req gateway.VideoJobRequest) (string, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", ErrClosed
	}
	r := p.startRunLocked(ctx, "")
	p.setStateLocked(StateSubmitting, nil)
	p.mu.Unlock()
	p.flush()

	result, err := p.backend.SubmitVideoJob(r.ctx, req)

	p.mu.Lock()
	if p.current != r {
		p.mu.Unlock()
		p.logger.Debug("discarding superseded submission", logging.String(logging.FieldTaskID, result.TaskID))
		return "", ErrSuperseded
	}
	if r.cancelled {
		p.mu.Unlock()
		return "", ErrCancelled
	}
	if err != nil {
		p.lastErr = err
		p.finishLocked(r, false)
		p.setStateLocked(StateIdle, err)
		p.mu.Unlock()
		p.flush()
		p.logger.Warn("video submission failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "submit_failed"),
			logging.String(logging.FieldErrorHint, "check the backend and retry"),
		)
		return "", err
	}

	r.taskID = result.TaskID
	p.task = entity.NewGenerationTask(result.TaskID)
	p.setStateLocked(StatePolling, nil)
	p.launchLocked(r)
	p.mu.Unlock()
	p.flush()

	p.logger.Info("video job submitted", logging.String(logging.FieldTaskID, result.TaskID))
	return result.TaskID, nil
}

// Track supersedes any live run and polls an existing task without
// submitting anything.
func (p *Poller) Track(ctx context.Context, taskID string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return services.Wrap(services.ErrValidation, "poller", "track", "task id is empty", nil)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	r := p.startRunLocked(ctx, taskID)
	p.task = entity.NewGenerationTask(taskID)
	p.setStateLocked(StatePolling, nil)
	p.launchLocked(r)
	p.mu.Unlock()
	p.flush()

	p.logger.Info("tracking video job", logging.String(logging.FieldTaskID, taskID))
	return nil
}

// Cancel stops the live run. The task keeps its last observed fields and no
// terminal event is emitted. It is a no-op when nothing is in flight.
func (p *Poller) Cancel() {
	p.mu.Lock()
	if !p.cancelLocked() {
		p.mu.Unlock()
		return
	}
	taskID := p.task.TaskID
	p.mu.Unlock()
	p.flush()
	p.logger.Info("video job polling cancelled", logging.String(logging.FieldTaskID, taskID))
}

// Wait blocks until the current run completes, fails, or is cancelled. Runs
// started while waiting are followed as well.
func (p *Poller) Wait(ctx context.Context) (Snapshot, error) {
	for {
		p.mu.Lock()
		r := p.current
		if r == nil || r.finished {
			snap := p.snapshotLocked()
			p.mu.Unlock()
			return snap, nil
		}
		done := r.done
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return p.Snapshot(), ctx.Err()
		case <-done:
		}
	}
}

// Close cancels any live run and waits for the polling goroutine to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	p.closed = true
	p.cancelLocked()
	p.mu.Unlock()
	p.flush()
	p.wg.Wait()
}

func (p *Poller) startRunLocked(ctx context.Context, taskID string) *run {
	if old := p.current; old != nil && !old.finished {
		p.logger.Info("superseding active video job", logging.String(logging.FieldTaskID, p.task.TaskID))
		p.finishLocked(old, false)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.gen++
	r := &run{gen: p.gen, taskID: taskID, ctx: runCtx, cancel: cancel, done: make(chan struct{})}
	p.current = r
	p.task = entity.GenerationTask{}
	p.lastErr = nil
	p.pollFailures = 0
	return r
}

func (p *Poller) launchLocked(r *run) {
	p.wg.Add(1)
	go p.poll(r)
}

func (p *Poller) cancelLocked() bool {
	r := p.current
	if r == nil || r.finished {
		return false
	}
	p.finishLocked(r, true)
	p.setStateLocked(StateCancelled, nil)
	return true
}

func (p *Poller) finishLocked(r *run, cancelled bool) {
	if r.finished {
		return
	}
	r.finished = true
	r.cancelled = cancelled
	r.cancel()
	close(r.done)
}

func (p *Poller) poll(r *run) {
	defer p.wg.Done()
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		select {
		case <-r.ctx.Done():
			p.abandon(r)
			return
		case <-timer.C:
		}
		if r.ctx.Err() != nil {
			p.abandon(r)
			return
		}
		status, err := p.backend.FetchTaskStatus(r.ctx, r.taskID)
		if !p.apply(r, status, err) {
			return
		}
		timer.Reset(p.interval)
	}
}

// abandon handles a run whose context ended without Cancel, e.g. the caller's
// context was cancelled.
func (p *Poller) abandon(r *run) {
	p.mu.Lock()
	if p.current != r || r.finished {
		p.mu.Unlock()
		return
	}
	p.finishLocked(r, true)
	p.setStateLocked(StateCancelled, nil)
	p.mu.Unlock()
	p.flush()
}

// apply folds one fetch result into the slot. It returns false when the run
// should stop polling.
func (p *Poller) apply(r *run, status gateway.TaskStatus, err error) bool {
	p.mu.Lock()
	if p.current != r || r.finished {
		p.mu.Unlock()
		p.logger.Debug("dropping stale status result", logging.String(logging.FieldTaskID, r.taskID))
		return false
	}
	if err != nil {
		if r.ctx.Err() != nil {
			p.mu.Unlock()
			return true
		}
		p.pollFailures++
		failures := p.pollFailures
		p.mu.Unlock()
		logging.WarnWithContext(p.logger, "status poll failed", "status_poll_failed",
			logging.String(logging.FieldTaskID, r.taskID),
			logging.Int("consecutive_failures", failures),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "polling continues; check backend reachability"),
			logging.String(logging.FieldImpact, "progress display may lag"),
		)
		return true
	}

	p.pollFailures = 0
	before := p.task
	task := p.task
	task.Status = status.Status
	if status.Message != "" {
		task.Message = status.Message
	}
	if status.Progress != nil {
		task.Progress = entity.ClampProgress(*status.Progress)
	}

	switch status.Status {
	case entity.TaskCompleted:
		task.Progress = 100
		task.VideoURL = status.VideoURL
		p.task = task
		if task.Progress != before.Progress {
			p.enqueueLocked(EventProgress, nil)
		}
		p.finishLocked(r, false)
		p.setStateLocked(StateCompleted, nil)
		p.enqueueLocked(EventCompleted, nil)
		p.mu.Unlock()
		p.flush()
		p.logger.Info("video job completed",
			logging.String(logging.FieldTaskID, task.TaskID),
			logging.String("video_url", task.VideoURL),
		)
		return false
	case entity.TaskFailed:
		task.Error = status.Error
		if task.Error == "" {
			task.Error = UnknownFailure
		}
		p.task = task
		p.finishLocked(r, false)
		p.setStateLocked(StateFailed, nil)
		p.enqueueLocked(EventFailed, nil)
		p.mu.Unlock()
		p.flush()
		p.logger.Warn("video job failed",
			logging.String(logging.FieldTaskID, task.TaskID),
			logging.String("reason", task.Error),
			logging.String(logging.FieldEventType, "task_failed"),
		)
		return false
	default:
		p.task = task
		if task != before {
			p.enqueueLocked(EventProgress, nil)
		}
		p.mu.Unlock()
		p.flush()
		return true
	}
}

func (p *Poller) setStateLocked(state State, err error) {
	if p.state == state && err == nil {
		return
	}
	p.state = state
	p.enqueueLocked(EventStateChanged, err)
}

func (p *Poller) enqueueLocked(kind EventType, err error) {
	p.pending = append(p.pending, Event{Type: kind, State: p.state, Task: p.task, Err: err})
}

func (p *Poller) snapshotLocked() Snapshot {
	return Snapshot{State: p.state, Task: p.task, LastError: p.lastErr, PollFailures: p.pollFailures}
}

// flush delivers queued events. Only one goroutine drains at a time, so
// events reach observers in enqueue order; calls made from an observer only
// enqueue and are delivered by the active drainer.
func (p *Poller) flush() {
	p.mu.Lock()
	if p.draining {
		p.mu.Unlock()
		return
	}
	p.draining = true
	for len(p.pending) > 0 {
		batch := p.pending
		p.pending = nil
		subs := make([]func(Event), 0, len(p.subscribers))
		for id := 0; id < p.nextSub; id++ {
			if fn, ok := p.subscribers[id]; ok {
				subs = append(subs, fn)
			}
		}
		p.mu.Unlock()
		for _, evt := range batch {
			for _, fn := range subs {
				fn(evt)
			}
		}
		p.mu.Lock()
	}
	p.draining = false
	p.mu.Unlock()
}
