package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	"github.com/vk/leafkit/internal/ctxlog"
)

// RetryPolicy bounds how often a transient failure is retried and how long
// to wait in between. Delays grow exponentially from BaseDelay up to MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy is used when RefresherOptions.Retry is zero.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Minute}
}

// Delay returns the wait before the attempt following the given one (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// RefresherOptions configures a Refresher.
type RefresherOptions struct {
	Retry RetryPolicy
	// ResyncSchedule is a cron spec (e.g. "@every 12h") for re-registering
	// even without a refresh event. Empty disables resync.
	ResyncSchedule string
	// OnSuccess is called after a token was forwarded.
	OnSuccess func(ctx context.Context, res Result)
	// OnFailure is called for permanent failures and when retries run out.
	OnFailure func(ctx context.Context, res Result)
}

// Refresher runs a RegistrationTask in the background whenever the platform
// signals a token refresh. Transient failures are retried with backoff. An
// optional cron schedule re-registers periodically so a dropped refresh event
// is eventually recovered.
//
// Triggers never block: at most one run is queued behind the active one, and
// further triggers coalesce into it.
type Refresher struct {
	task *RegistrationTask
	opts RefresherOptions
	pool *ants.Pool
	cron *cron.Cron
	kick chan struct{}

	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewRefresher creates a Refresher for task. Call Start to begin serving triggers.
func NewRefresher(task *RegistrationTask, opts RefresherOptions) (*Refresher, error) {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	r := &Refresher{
		task:  task,
		opts:  opts,
		kick:  make(chan struct{}, 1),
		sleep: sleepContext,
	}

	pool, err := ants.NewPool(1, ants.WithPanicHandler(func(v any) {
		ctxlog.FromContext(r.baseContext()).Error("Token registration panicked.", "panic", fmt.Sprint(v))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create registration worker: %w", err)
	}
	r.pool = pool

	if opts.ResyncSchedule != "" {
		r.cron = cron.New()
		if _, err := r.cron.AddFunc(opts.ResyncSchedule, r.Trigger); err != nil {
			pool.Release()
			return nil, fmt.Errorf("invalid resync schedule %q: %w", opts.ResyncSchedule, err)
		}
	}
	return r, nil
}

// Start begins dispatching triggers on the background worker until ctx is
// cancelled or Close is called.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.dispatch()

	if r.cron != nil {
		r.cron.Start()
		ctxlog.FromContext(ctx).Info("Token resync scheduled.", "schedule", r.opts.ResyncSchedule)
	}
}

// Trigger requests a registration run. It returns immediately.
func (r *Refresher) Trigger() {
	select {
	case r.kick <- struct{}{}:
	default:
		// A run is already queued and will pick up the latest token.
	}
}

// RunOnce runs the task synchronously on the caller's goroutine, applying
// the same retry policy as background runs.
func (r *Refresher) RunOnce(ctx context.Context) Result {
	return r.runWithRetry(ctx)
}

// Close stops the schedule, waits for the active run and releases the worker.
func (r *Refresher) Close() error {
	r.mu.Lock()
	started := r.started
	cancel := r.cancel
	r.mu.Unlock()

	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	if started {
		cancel()
		r.wg.Wait()
	}
	return r.pool.ReleaseTimeout(5 * time.Second)
}

func (r *Refresher) baseContext() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// dispatch hands each trigger to the single-worker pool. Submit blocks while
// a run is active, which is what serializes runs.
func (r *Refresher) dispatch() {
	defer r.wg.Done()
	ctx := r.ctx
	logger := ctxlog.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.kick:
			done := make(chan struct{})
			err := r.pool.Submit(func() {
				defer close(done)
				r.runWithRetry(ctx)
			})
			if err != nil {
				logger.Error("Failed to schedule token registration.", "error", err)
				continue
			}
			select {
			case <-done:
			case <-ctx.Done():
				<-done
				return
			}
		}
	}
}

func (r *Refresher) runWithRetry(ctx context.Context) Result {
	logger := ctxlog.FromContext(ctx).With("component", "refresher")
	policy := r.opts.Retry

	for attempt := 1; ; attempt++ {
		res := r.task.Run(ctx)
		res.Attempts = attempt

		if res.OK() {
			logger.Info("Token registration succeeded.", "attempts", attempt)
			if r.opts.OnSuccess != nil {
				r.opts.OnSuccess(ctx, res)
			}
			return res
		}

		if IsPermanent(res.Err) {
			logger.Error("Token registration failed permanently.", "attempts", attempt, "error", res.Err)
			r.fail(ctx, res)
			return res
		}

		if attempt >= policy.MaxAttempts {
			logger.Error("Token registration failed, retries exhausted.", "attempts", attempt, "error", res.Err)
			r.fail(ctx, res)
			return res
		}

		delay := policy.Delay(attempt)
		logger.Warn("Token registration failed, retrying.", "attempt", attempt, "retry_in", delay, "error", res.Err)
		if err := r.sleep(ctx, delay); err != nil {
			res.Err = errors.Join(res.Err, err)
			logger.Warn("Token registration abandoned.", "error", err)
			r.fail(ctx, res)
			return res
		}
	}
}

func (r *Refresher) fail(ctx context.Context, res Result) {
	if r.opts.OnFailure != nil {
		r.opts.OnFailure(ctx, res)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
