package poller

import (
	"context"
	"sync"
)

// Watcher keeps at most one session per object key. Watching a key again
// cancels the session previously started for it.
type Watcher struct {
	fetcher Fetcher
	cfg     Config
	opts    []Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewWatcher creates a Watcher whose sessions share fetcher, cfg and opts.
func NewWatcher(fetcher Fetcher, cfg Config, opts ...Option) *Watcher {
	return &Watcher{
		fetcher:  fetcher,
		cfg:      cfg,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Watch starts a new session for objectKey, superseding any previous one.
// Per-call opts are applied after the watcher-wide ones.
func (w *Watcher) Watch(ctx context.Context, objectKey string, opts ...Option) *Session {
	all := make([]Option, 0, len(w.opts)+len(opts))
	all = append(all, w.opts...)
	all = append(all, opts...)
	s := NewSession(w.fetcher, objectKey, w.cfg, all...)

	w.mu.Lock()
	prev := w.sessions[objectKey]
	w.sessions[objectKey] = s
	w.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	s.Start(ctx)
	return s
}

// Get returns the latest session for objectKey, finished or not.
func (w *Watcher) Get(objectKey string) (*Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[objectKey]
	return s, ok
}

// Cancel stops the session for objectKey. It reports whether one was running.
func (w *Watcher) Cancel(objectKey string) bool {
	w.mu.Lock()
	s, ok := w.sessions[objectKey]
	w.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case <-s.Done():
		return false
	default:
	}
	s.Cancel()
	return true
}

// Forget drops the session for objectKey if it is still the one with sessionID.
// It reports whether a session was dropped.
func (w *Watcher) Forget(objectKey, sessionID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.sessions[objectKey]
	if !ok || s.ID() != sessionID {
		return false
	}
	delete(w.sessions, objectKey)
	return true
}

// Shutdown cancels every session and waits for them to finish or ctx to expire.
func (w *Watcher) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	sessions := make([]*Session, 0, len(w.sessions))
	for _, s := range w.sessions {
		sessions = append(sessions, s)
	}
	w.mu.Unlock()

	for _, s := range sessions {
		s.Cancel()
	}
	for _, s := range sessions {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
