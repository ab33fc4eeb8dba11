package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docwatch/internal/domain"
	"docwatch/internal/metrics"
	"docwatch/internal/poller"
	"docwatch/internal/port"
	"docwatch/internal/service"
	"docwatch/mocks"
)

const (
	uploadedEnv = `{"statusAudit":"uploaded"}`
	finalEnv    = `{"statusAudit":"detailed_ai_completed","docType":"payslip","detailed":{"result":{"summary":"done","structured":{"gross_pay":"5000","net_pay":"3900"}}},"quality":{"decision":"PASS"}}`
)

func env(t *testing.T, raw string) domain.Envelope {
	t.Helper()
	var e domain.Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	return e
}

func testConfig() service.RunServiceConfig {
	return service.RunServiceConfig{
		Poller:         poller.Config{Interval: time.Millisecond, MaxAttempts: 5},
		Bucket:         "artifacts",
		ArtifactPrefix: "reports",
		PresignExpiry:  600,
		ReportTitle:    "Payslip review",
	}
}

type deps struct {
	fetcher   *mocks.MockStatusFetcher
	snapshots *mocks.MockSnapshotRepo
	storage   *mocks.MockObjectStorage
	notifier  *mocks.MockNotifier
}

func newRunService(t *testing.T, cfg service.RunServiceConfig) (service.RunService, deps) {
	t.Helper()
	d := deps{
		fetcher:   new(mocks.MockStatusFetcher),
		snapshots: new(mocks.MockSnapshotRepo),
		storage:   new(mocks.MockObjectStorage),
		notifier:  new(mocks.MockNotifier),
	}
	svc := service.NewRunService(d.fetcher, d.snapshots, d.storage, d.notifier, metrics.New(), cfg)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return svc, d
}

func keyIs(key string) any {
	return mock.MatchedBy(func(in port.UploadInput) bool { return in.Key == key })
}

func TestRunService_StartRequiresObjectKey(t *testing.T) {
	svc, _ := newRunService(t, testConfig())
	_, err := svc.Start(context.Background(), service.StartRunInput{ObjectKey: "  "})
	assert.ErrorIs(t, err, domain.ErrMissingObjectKey)
}

func TestRunService_CompletedRunPersistsPublishesAndNotifies(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	key := "uploads/slip.pdf"

	d.fetcher.On("FetchStatus", mock.Anything, key).Return(env(t, uploadedEnv), nil).Once()
	d.fetcher.On("FetchStatus", mock.Anything, key).Return(env(t, finalEnv), nil)

	d.snapshots.On("Save", mock.Anything, mock.MatchedBy(func(s *domain.Snapshot) bool {
		return s.ObjectKey == key && s.Status == domain.RunStatusOK && s.DocType == "payslip" &&
			s.Attempts == 2 && len(s.Envelope) > 0 && len(s.Analysis) > 0
	})).Return(nil).Once()

	for _, file := range []string{"report.html", "report.pdf", "summary.xlsx", "summary.csv", "analysis.json"} {
		d.storage.On("Upload", mock.Anything, keyIs("reports/uploads/slip.pdf/"+file)).
			Return(&port.UploadOutput{}, nil).Once()
	}
	d.storage.On("GetPresignedURL", mock.Anything, "artifacts", "reports/uploads/slip.pdf/report.html", int64(600)).
		Return("https://s3.example.com/report.html?sig=1", nil).Once()

	d.notifier.On("SendRunFinished", mock.Anything, mock.MatchedBy(func(n port.RunNotification) bool {
		return n.ToEmail == "ops@example.com" && n.Status == domain.RunStatusOK &&
			n.ReportURL == "https://s3.example.com/report.html?sig=1"
	})).Return(nil).Once()

	var mu sync.Mutex
	var updates []*service.RunView
	started, err := svc.Start(context.Background(), service.StartRunInput{
		ObjectKey:   key,
		NotifyEmail: "ops@example.com",
		OnUpdate: func(v *service.RunView) {
			mu.Lock()
			updates = append(updates, v)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Equal(t, key, started.ObjectKey)
	assert.NotEmpty(t, started.SessionID)

	view, err := svc.Wait(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, service.RunStateCompleted, view.State)
	assert.Equal(t, domain.RunStatusOK, view.Status)
	assert.Equal(t, domain.DocKindPayslip, view.Kind)
	assert.Equal(t, 2, view.Attempts)
	require.NotNil(t, view.Summary)

	mu.Lock()
	require.Len(t, updates, 2)
	assert.True(t, updates[0].InProgress)
	assert.Equal(t, domain.RunStatusOK, updates[1].Status)
	mu.Unlock()

	d.snapshots.AssertExpectations(t)
	d.storage.AssertExpectations(t)
	d.notifier.AssertExpectations(t)
}

func TestRunService_SideEffectFailuresDoNotChangeOutcome(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = ""
	svc, d := newRunService(t, cfg)
	key := "uploads/a.pdf"

	d.fetcher.On("FetchStatus", mock.Anything, key).Return(env(t, finalEnv), nil)
	d.snapshots.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	d.notifier.On("SendRunFinished", mock.Anything, mock.Anything).Return(errors.New("ses down")).Once()

	_, err := svc.Start(context.Background(), service.StartRunInput{ObjectKey: key, NotifyEmail: "x@example.com"})
	require.NoError(t, err)

	view, err := svc.Wait(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, service.RunStateCompleted, view.State)
	d.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	d.notifier.AssertExpectations(t)
}

func TestRunService_TerminalFailureSkipsSideEffects(t *testing.T) {
	cfg := testConfig()
	cfg.Poller.MaxAttempts = 2
	svc, d := newRunService(t, cfg)
	key := "uploads/a.pdf"

	d.fetcher.On("FetchStatus", mock.Anything, key).Return(nil, errors.New("connection refused"))

	_, err := svc.Start(context.Background(), service.StartRunInput{ObjectKey: key, NotifyEmail: "x@example.com"})
	require.NoError(t, err)

	view, err := svc.Wait(context.Background(), key)
	var te *poller.TerminalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, service.RunStateFailed, view.State)
	assert.Equal(t, domain.RunStatusUnknown, view.Status)
	assert.Equal(t, "unable to reach the results service", view.Error)

	d.snapshots.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	d.notifier.AssertNotCalled(t, "SendRunFinished", mock.Anything, mock.Anything)
}

func TestRunService_CancelAndReportBeforeFinish(t *testing.T) {
	cfg := testConfig()
	cfg.Poller.Interval = time.Hour
	svc, d := newRunService(t, cfg)
	key := "uploads/slow.pdf"

	d.fetcher.On("FetchStatus", mock.Anything, key).Return(env(t, uploadedEnv), nil)

	_, err := svc.Start(context.Background(), service.StartRunInput{ObjectKey: key})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v, err := svc.Get(context.Background(), key)
		return err == nil && v.Attempts == 1
	}, time.Second, time.Millisecond)

	_, err = svc.Report(context.Background(), key, domain.ReportFormatHTML)
	assert.ErrorIs(t, err, domain.ErrRunNotFinished)

	require.NoError(t, svc.Cancel(key))
	view, err := svc.Wait(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrPollCanceled)
	assert.Equal(t, service.RunStateCanceled, view.State)

	assert.ErrorIs(t, svc.Cancel(key), domain.ErrRunNotFound)
	d.snapshots.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRunService_ReportFromLiveSession(t *testing.T) {
	cfg := testConfig()
	cfg.Bucket = ""
	svc, d := newRunService(t, cfg)
	key := "uploads/a.pdf"

	d.fetcher.On("FetchStatus", mock.Anything, key).Return(env(t, finalEnv), nil)
	d.snapshots.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Start(context.Background(), service.StartRunInput{ObjectKey: key})
	require.NoError(t, err)
	_, err = svc.Wait(context.Background(), key)
	require.NoError(t, err)

	art, err := svc.Report(context.Background(), key, domain.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "summary.csv", art.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", art.ContentType)
	assert.Contains(t, string(art.Body), "Gross pay")
}

func TestRunService_GetFallsBackToSnapshot(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	d.snapshots.On("GetLatest", mock.Anything, "uploads/old.pdf").Return(&domain.Snapshot{
		ObjectKey: "uploads/old.pdf",
		Status:    domain.RunStatusOK,
		Attempts:  4,
		Envelope:  json.RawMessage(finalEnv),
		CreatedAt: created,
	}, nil)

	view, err := svc.Get(context.Background(), "uploads/old.pdf")
	require.NoError(t, err)
	assert.Equal(t, service.RunStateStored, view.State)
	assert.Equal(t, domain.RunStatusOK, view.Status)
	assert.Equal(t, 4, view.Attempts)
	require.NotNil(t, view.UpdatedAt)
	assert.Equal(t, created, *view.UpdatedAt)

	art, err := svc.Report(context.Background(), "uploads/old.pdf", domain.ReportFormatHTML)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(art.Body), "<!DOCTYPE html>"))
}

func TestRunService_GetUnknownRun(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	d.snapshots.On("GetLatest", mock.Anything, "nope").Return(nil, domain.ErrRunNotFound)

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	_, err = svc.Wait(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunService_Links(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	prefix := "reports/uploads/a.pdf/"

	d.storage.On("Exists", mock.Anything, "artifacts", prefix+"report.html").Return(true, nil)
	d.storage.On("Exists", mock.Anything, "artifacts", prefix+"analysis.json").Return(true, nil)
	d.storage.On("Exists", mock.Anything, "artifacts", mock.Anything).Return(false, nil)
	d.storage.On("GetPresignedURL", mock.Anything, "artifacts", prefix+"report.html", int64(600)).Return("https://s3/html", nil)
	d.storage.On("GetPresignedURL", mock.Anything, "artifacts", prefix+"analysis.json", int64(600)).Return("https://s3/json", nil)

	links, err := svc.Links(context.Background(), "uploads/a.pdf")
	require.NoError(t, err)
	assert.True(t, links.Ready)
	assert.Equal(t, map[string]string{"html": "https://s3/html", "json": "https://s3/json"}, links.URLs)
}

func TestRunService_LinksNotReady(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	d.storage.On("Exists", mock.Anything, "artifacts", mock.Anything).Return(false, nil)

	links, err := svc.Links(context.Background(), "uploads/a.pdf")
	require.NoError(t, err)
	assert.False(t, links.Ready)
	assert.Empty(t, links.URLs)
}

func TestRunService_LinksWithoutStorage(t *testing.T) {
	svc := service.NewRunService(new(mocks.MockStatusFetcher), nil, nil, nil, nil, testConfig())
	_, err := svc.Links(context.Background(), "uploads/a.pdf")
	assert.ErrorIs(t, err, domain.ErrStorageNotConfigured)

	_, err = svc.Get(context.Background(), "uploads/a.pdf")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestRunService_History(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	id := uuid.New()
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d.snapshots.On("ListByObjectKey", mock.Anything, "uploads/a.pdf", 10).Return([]domain.Snapshot{
		{ID: id, ObjectKey: "uploads/a.pdf", Status: domain.RunStatusError, Attempts: 2,
			Issues: json.RawMessage(`[{"stage":"quality_gate","level":"error","category":"document","userMessage":"blurry"}]`), CreatedAt: created},
		{ID: uuid.New(), ObjectKey: "uploads/a.pdf", Status: domain.RunStatusOK, CreatedAt: created.Add(-time.Hour)},
	}, nil)

	views, err := svc.History(context.Background(), "uploads/a.pdf", 10)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, id.String(), views[0].ID)
	require.Len(t, views[0].Issues, 1)
	assert.Equal(t, "blurry", views[0].Issues[0].UserMessage)
	assert.NotNil(t, views[1].Issues)
	assert.Empty(t, views[1].Issues)

	_, err = svc.History(context.Background(), "", 10)
	assert.ErrorIs(t, err, domain.ErrMissingObjectKey)
}

func TestRunService_HistoryWithoutRepository(t *testing.T) {
	svc := service.NewRunService(new(mocks.MockStatusFetcher), nil, nil, nil, nil, testConfig())
	_, err := svc.History(context.Background(), "uploads/a.pdf", 10)
	assert.ErrorIs(t, err, domain.ErrHistoryNotConfigured)
}

func TestRunService_FinishedSessionsAreEvicted(t *testing.T) {
	fetcher := new(mocks.MockStatusFetcher)
	fetcher.On("FetchStatus", mock.Anything, "uploads/a.pdf").Return(env(t, finalEnv), nil)
	cfg := testConfig()
	cfg.Bucket = ""
	cfg.Retention = 20 * time.Millisecond
	svc := service.NewRunService(fetcher, nil, nil, nil, nil, cfg)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })

	_, err := svc.Start(context.Background(), service.StartRunInput{ObjectKey: "uploads/a.pdf"})
	require.NoError(t, err)
	view, err := svc.Wait(context.Background(), "uploads/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, service.RunStateCompleted, view.State)

	require.Eventually(t, func() bool {
		_, err := svc.Get(context.Background(), "uploads/a.pdf")
		return errors.Is(err, domain.ErrRunNotFound)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRunService_WaitAfterEvictionServesSnapshot(t *testing.T) {
	svc, d := newRunService(t, testConfig())
	d.snapshots.On("GetLatest", mock.Anything, "uploads/old.pdf").Return(&domain.Snapshot{
		ObjectKey: "uploads/old.pdf",
		Status:    domain.RunStatusOK,
		Attempts:  3,
		Envelope:  json.RawMessage(finalEnv),
		CreatedAt: time.Now(),
	}, nil)

	view, err := svc.Wait(context.Background(), "uploads/old.pdf")
	require.NoError(t, err)
	assert.Equal(t, service.RunStateStored, view.State)
	assert.Equal(t, 3, view.Attempts)
}

func TestRunService_Evaluate(t *testing.T) {
	svc, _ := newRunService(t, testConfig())
	ev := svc.Evaluate(env(t, `{"quality":{"status":"pending"}}`))
	assert.True(t, ev.InProgress)
	assert.Equal(t, domain.RunStatusInProgress, ev.Status)
}

func TestArtifactKey(t *testing.T) {
	assert.Equal(t, "reports/uploads/a.pdf/report.pdf", service.ArtifactKey("reports", "uploads/a.pdf", "report.pdf"))
	assert.Equal(t, "a.pdf/summary.csv", service.ArtifactKey("", "a.pdf", "summary.csv"))
}
