// Package poller drives the fixed-delay status polling loop for one object key.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"docwatch/internal/classifier"
	"docwatch/internal/config"
	"docwatch/internal/domain"
	"docwatch/internal/statusapi"
)

// Config holds the poll loop settings.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// DefaultConfig polls every 5s, at most 60 times.
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Second, MaxAttempts: 60}
}

// ConfigFrom builds a Config from the application poller settings.
func ConfigFrom(cfg *config.PollerConfig) Config {
	c := DefaultConfig()
	if cfg.Interval > 0 {
		c.Interval = cfg.Interval
	}
	if cfg.MaxAttempts > 0 {
		c.MaxAttempts = cfg.MaxAttempts
	}
	return c
}

// Fetcher retrieves the current envelope for an object key.
type Fetcher interface {
	FetchStatus(ctx context.Context, objectKey string) (domain.Envelope, error)
}

// Update is delivered for every accepted envelope.
type Update struct {
	SessionID  string
	ObjectKey  string
	Attempt    int
	Envelope   domain.Envelope
	Evaluation *classifier.Evaluation
}

// Observer receives per-attempt outcomes ("ok", "retained", "http_error",
// "transport_error", "discarded") and the fetch latency.
type Observer interface {
	ObserveAttempt(outcome string, latency time.Duration)
}

// State is a point-in-time copy of a session.
type State struct {
	SessionID  string
	ObjectKey  string
	Attempts   int
	Envelope   domain.Envelope
	Evaluation *classifier.Evaluation
	Err        error
	Done       bool
	Canceled   bool
	StartedAt  time.Time
	UpdatedAt  time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithOnUpdate registers a callback invoked on each accepted envelope.
func WithOnUpdate(fn func(Update)) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithOnFinish registers a callback invoked once when the session ends.
func WithOnFinish(fn func(State)) Option {
	return func(s *Session) { s.onFinish = fn }
}

// WithObserver registers an attempt observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observer = o }
}

// Session polls one object key until a final envelope arrives, the attempt
// budget runs out or it is canceled.
type Session struct {
	id        string
	objectKey string
	fetcher   Fetcher
	cfg       Config
	onUpdate  func(Update)
	onFinish  func(State)
	observer  Observer

	canceled  atomic.Bool
	startOnce sync.Once
	cancelCtx context.CancelFunc
	done      chan struct{}

	mu    sync.RWMutex
	state State
}

// NewSession creates an idle session. Call Start to begin polling.
func NewSession(fetcher Fetcher, objectKey string, cfg Config, opts ...Option) *Session {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	s := &Session{
		id:        uuid.NewString(),
		objectKey: objectKey,
		fetcher:   fetcher,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = State{SessionID: s.id, ObjectKey: objectKey}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// ObjectKey returns the polled object key.
func (s *Session) ObjectKey() string { return s.objectKey }

// Start launches the poll loop in its own goroutine. Subsequent calls are no-ops.
func (s *Session) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		runCtx, cancel := context.WithCancel(ctx)
		s.mu.Lock()
		s.cancelCtx = cancel
		s.state.StartedAt = time.Now()
		s.mu.Unlock()
		go func() {
			defer cancel()
			s.run(runCtx)
		}()
	})
}

// Cancel stops the session. Responses that arrive afterwards are discarded.
func (s *Session) Cancel() {
	// Set under mu so commit observes it atomically with the state write.
	s.mu.Lock()
	s.canceled.Store(true)
	cancel := s.cancelCtx
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Canceled reports whether Cancel was called.
func (s *Session) Canceled() bool { return s.canceled.Load() }

// Done is closed when the session has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the session finishes and returns its terminal error.
func (s *Session) Wait() error {
	<-s.done
	return s.State().Err
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) run(ctx context.Context) {
	if s.objectKey == "" {
		s.finish(domain.ErrMissingObjectKey)
		return
	}

	for attempt := 1; ; attempt++ {
		if s.canceled.Load() {
			s.finish(domain.ErrPollCanceled)
			return
		}

		began := time.Now()
		env, err := s.fetcher.FetchStatus(ctx, s.objectKey)
		latency := time.Since(began)
		s.setAttempts(attempt)

		if err != nil {
			if s.canceled.Load() || ctx.Err() != nil {
				s.observe(outcomeDiscarded, latency)
				s.finish(domain.ErrPollCanceled)
				return
			}
			if errors.Is(err, domain.ErrMissingObjectKey) {
				s.finish(err)
				return
			}
			s.observe(failureOutcome(err), latency)
			log.Printf("poller.Session: %s attempt %d/%d failed: %v", s.objectKey, attempt, s.cfg.MaxAttempts, err)
			if attempt >= s.cfg.MaxAttempts {
				s.finish(newTerminalError(s.objectKey, attempt, err))
				return
			}
		} else {
			ev, outcome := s.commit(env, attempt)
			s.observe(outcome, latency)
			if outcome == outcomeDiscarded {
				s.finish(domain.ErrPollCanceled)
				return
			}
			if !ev.InProgress {
				s.finish(nil)
				return
			}
			if attempt >= s.cfg.MaxAttempts {
				s.finish(&TerminalError{
					ObjectKey: s.objectKey,
					Attempts:  attempt,
					Message:   "results are still being processed; try again later",
					Err:       domain.ErrPollTimeout,
				})
				return
			}
		}

		if s.canceled.Load() {
			s.finish(domain.ErrPollCanceled)
			return
		}
		if !s.sleep(ctx) {
			s.finish(domain.ErrPollCanceled)
			return
		}
	}
}

// Attempt outcomes reported to the Observer.
const (
	outcomeAccepted  = "ok"
	outcomeRetained  = "retained"
	outcomeDiscarded = "discarded"
)

// commit applies the monotonic guard and stores the accepted envelope. It
// returns the evaluation now in effect and the attempt outcome. A response
// that lands after Cancel belongs to a superseded loop and is discarded.
func (s *Session) commit(env domain.Envelope, attempt int) (*classifier.Evaluation, string) {
	ev := classifier.Evaluate(env)

	s.mu.Lock()
	if s.canceled.Load() {
		s.mu.Unlock()
		return nil, outcomeDiscarded
	}
	prev := s.state.Envelope
	if prev != nil && prev.HasPayload() && !env.HasPayload() && ev.InProgress {
		kept := s.state.Evaluation
		s.state.UpdatedAt = time.Now()
		s.mu.Unlock()
		return kept, outcomeRetained
	}
	s.state.Envelope = env
	s.state.Evaluation = ev
	s.state.UpdatedAt = time.Now()
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate(Update{
			SessionID:  s.id,
			ObjectKey:  s.objectKey,
			Attempt:    attempt,
			Envelope:   env,
			Evaluation: ev,
		})
	}
	return ev, outcomeAccepted
}

func (s *Session) sleep(ctx context.Context) bool {
	if s.cfg.Interval <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Session) setAttempts(n int) {
	s.mu.Lock()
	s.state.Attempts = n
	s.mu.Unlock()
}

func (s *Session) observe(outcome string, latency time.Duration) {
	if s.observer != nil {
		s.observer.ObserveAttempt(outcome, latency)
	}
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	s.state.Err = err
	s.state.Done = true
	s.state.Canceled = errors.Is(err, domain.ErrPollCanceled)
	s.state.UpdatedAt = time.Now()
	final := s.state
	s.mu.Unlock()

	switch {
	case err == nil:
		log.Printf("poller.Session: %s finished with status %s after %d attempts",
			s.objectKey, final.Evaluation.Status, final.Attempts)
	case final.Canceled:
		log.Printf("poller.Session: %s canceled after %d attempts", s.objectKey, final.Attempts)
	default:
		log.Printf("poller.Session: %s ended: %v", s.objectKey, err)
	}

	if s.onFinish != nil {
		s.onFinish(final)
	}
	close(s.done)
}

func failureOutcome(err error) string {
	var httpErr *statusapi.HTTPStatusError
	if errors.As(err, &httpErr) {
		return "http_error"
	}
	return "transport_error"
}

// TerminalError ends a session that exhausted its attempt budget.
type TerminalError struct {
	ObjectKey  string
	Attempts   int
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *TerminalError) Error() string {
	if e.StatusCode != 0 {
		if e.Body != "" {
			return fmt.Sprintf("%s: status %d after %d attempts: %s", e.Message, e.StatusCode, e.Attempts, e.Body)
		}
		return fmt.Sprintf("%s: status %d after %d attempts", e.Message, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("%s (after %d attempts)", e.Message, e.Attempts)
}

func (e *TerminalError) Unwrap() error {
	return e.Err
}

func newTerminalError(objectKey string, attempts int, cause error) *TerminalError {
	te := &TerminalError{ObjectKey: objectKey, Attempts: attempts, Err: cause}
	var httpErr *statusapi.HTTPStatusError
	if errors.As(cause, &httpErr) {
		te.StatusCode = httpErr.StatusCode
		te.Body = httpErr.Body
		te.Message = "the results service returned an error"
		return te
	}
	te.Message = "unable to reach the results service"
	return te
}
