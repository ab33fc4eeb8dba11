package poller_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/domain"
	"docwatch/internal/poller"
)

func TestWatcher_RewatchCancelsPreviousSession(t *testing.T) {
	w := poller.NewWatcher(script(uploaded), poller.Config{Interval: 5 * time.Millisecond, MaxAttempts: 1000})

	first := w.Watch(context.Background(), "doc-1")
	second := w.Watch(context.Background(), "doc-1")

	assert.ErrorIs(t, first.Wait(), domain.ErrPollCanceled)
	got, ok := w.Get("doc-1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.False(t, w.Forget("doc-1", first.ID()), "a superseded session id does not drop the current one")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Shutdown(ctx))
	assert.ErrorIs(t, second.Wait(), domain.ErrPollCanceled)
}

func TestWatcher_IndependentKeys(t *testing.T) {
	w := poller.NewWatcher(script(finalOK), fast)

	a := w.Watch(context.Background(), "a")
	b := w.Watch(context.Background(), "b")

	require.NoError(t, a.Wait())
	require.NoError(t, b.Wait())
	assert.False(t, w.Cancel("a"), "finished sessions are not canceled")
	assert.False(t, w.Cancel("missing"))
}

func TestWatcher_CancelAndForget(t *testing.T) {
	w := poller.NewWatcher(script(uploaded), poller.Config{Interval: time.Hour, MaxAttempts: 10})
	s := w.Watch(context.Background(), "doc-1")

	assert.True(t, w.Cancel("doc-1"))
	assert.ErrorIs(t, s.Wait(), domain.ErrPollCanceled)

	assert.True(t, w.Forget("doc-1", s.ID()))
	_, ok := w.Get("doc-1")
	assert.False(t, ok)
}

func TestWatcher_PerCallOptions(t *testing.T) {
	rec := &recorder{}
	w := poller.NewWatcher(script(finalOK), fast, poller.WithObserver(rec))

	s := w.Watch(context.Background(), "doc-1", poller.WithOnUpdate(rec.onUpdate))
	require.NoError(t, s.Wait())
	assert.Len(t, rec.Updates(), 1)
	assert.Equal(t, []string{"ok"}, rec.Outcomes())
}
