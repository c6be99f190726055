package push

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/metrics"
)

// State is the lifecycle state of a RegistrationTask.
type State int32

const (
	StateIdle State = iota
	StateRegistering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRegistering:
		return "registering"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Result is the outcome of one registration run. Err is nil on success;
// otherwise it wraps ErrFetch or ErrForward and the caller decides whether to
// retry, log or escalate.
type Result struct {
	Token     string
	Forwarded bool
	Attempts  int
	Duration  time.Duration
	Err       error
}

// OK reports whether the token was fetched and forwarded.
func (r Result) OK() bool {
	return r.Err == nil
}

// RegistrationTask fetches the current token and forwards it to the
// application server. Each Run is independent; the task keeps no token.
type RegistrationTask struct {
	source         TokenSource
	sink           TokenSink
	installationID string
	platform       string
	now            func() time.Time

	inflight atomic.Int32
}

// NewRegistrationTask creates a task that registers tokens from source with
// sink on behalf of installationID.
func NewRegistrationTask(source TokenSource, sink TokenSink, installationID, platform string) *RegistrationTask {
	return &RegistrationTask{
		source:         source,
		sink:           sink,
		installationID: installationID,
		platform:       platform,
		now:            time.Now,
	}
}

// InstallationID returns the identifier registrations are sent under.
func (t *RegistrationTask) InstallationID() string {
	return t.installationID
}

// State reports Registering while at least one Run is in flight.
func (t *RegistrationTask) State() State {
	if t.inflight.Load() > 0 {
		return StateRegistering
	}
	return StateIdle
}

// Run performs one fetch-and-forward cycle. It never panics on collaborator
// errors and never forwards unless a token was fetched.
func (t *RegistrationTask) Run(ctx context.Context) Result {
	t.inflight.Add(1)
	defer t.inflight.Add(-1)

	logger := ctxlog.FromContext(ctx).With("component", "registration_task", "installation_id", t.installationID)
	start := time.Now()
	defer func() {
		metrics.TokenRegistrationDuration.Observe(time.Since(start).Seconds())
	}()

	logger.Debug("Fetching registration token...")
	token, err := t.source.FetchToken(ctx)
	if err == nil && token == "" {
		err = ErrEmptyToken
	}
	if err != nil {
		metrics.TokenRegistrations.WithLabelValues("fetch_failed").Inc()
		logger.Debug("Token fetch failed.", "error", err)
		return Result{Duration: time.Since(start), Err: fmt.Errorf("%w: %w", ErrFetch, err)}
	}
	logger.Info("Registration token fetched.", "token_length", len(token))

	reg := Registration{
		InstallationID: t.installationID,
		Token:          token,
		Platform:       t.platform,
		RefreshedAt:    t.now().UTC(),
	}
	if err := t.sink.Register(ctx, reg); err != nil {
		metrics.TokenRegistrations.WithLabelValues("forward_failed").Inc()
		logger.Debug("Token forwarding failed.", "error", err)
		return Result{Token: token, Duration: time.Since(start), Err: fmt.Errorf("%w: %w", ErrForward, err)}
	}

	metrics.TokenRegistrations.WithLabelValues("success").Inc()
	logger.Info("Registration token forwarded.")
	return Result{Token: token, Forwarded: true, Duration: time.Since(start)}
}
