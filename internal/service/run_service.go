package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"docwatch/internal/classifier"
	"docwatch/internal/config"
	"docwatch/internal/domain"
	"docwatch/internal/poller"
	"docwatch/internal/port"
	"docwatch/internal/report"
	"docwatch/internal/summary"
)

// Run lifecycle states reported in RunView.State.
const (
	RunStatePolling   = "polling"
	RunStateCompleted = "completed"
	RunStateFailed    = "failed"
	RunStateCanceled  = "canceled"
	RunStateStored    = "stored"
)

// finishTimeout bounds the side effects run after a session ends.
const finishTimeout = 60 * time.Second

// defaultRetention is how long a finished session stays in memory when
// RunServiceConfig.Retention is not set.
const defaultRetention = 15 * time.Minute

// StartRunInput is the DTO for starting a run.
type StartRunInput struct {
	ObjectKey   string
	NotifyEmail string
	// OnUpdate, when set, sees every accepted envelope of this run.
	OnUpdate func(*RunView)
}

// RunView is what clients see of a run, live or stored.
type RunView struct {
	SessionID  string           `json:"session_id,omitempty"`
	ObjectKey  string           `json:"object_key"`
	State      string           `json:"state"`
	Attempts   int              `json:"attempts"`
	Status     domain.RunStatus `json:"status"`
	InProgress bool             `json:"in_progress"`
	Issues     []domain.Issue   `json:"issues"`
	DocType    string           `json:"doc_type,omitempty"`
	Kind       domain.DocKind   `json:"kind,omitempty"`
	Summary    summary.Summary  `json:"summary,omitempty"`
	Ratios     summary.Ratios   `json:"ratios,omitempty"`
	Scores     []summary.Score  `json:"scores,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

// SnapshotView is one stored result of a run, newest first in History.
type SnapshotView struct {
	ID        string           `json:"id"`
	ObjectKey string           `json:"object_key"`
	Status    domain.RunStatus `json:"status"`
	DocType   string           `json:"doc_type,omitempty"`
	Attempts  int              `json:"attempts"`
	Issues    []domain.Issue   `json:"issues"`
	CreatedAt time.Time        `json:"created_at"`
}

// Artifact is a rendered report ready to be served or stored.
type Artifact struct {
	FileName    string
	ContentType string
	Body        []byte
}

// LinksView maps artifact channels to download URLs.
type LinksView struct {
	ObjectKey string            `json:"object_key"`
	Ready     bool              `json:"ready"`
	URLs      map[string]string `json:"urls"`
}

// RunMetrics receives run lifecycle events.
type RunMetrics interface {
	poller.Observer
	RunStarted()
	RunFinished(status string, attempts int)
}

// RunServiceConfig holds the settings the run service needs.
type RunServiceConfig struct {
	Poller poller.Config
	// Retention is how long a finished session is served from memory. Later
	// lookups fall back to the snapshot repository.
	Retention      time.Duration
	Bucket         string
	ArtifactPrefix string
	PresignExpiry  int64
	ReportTitle    string
	ReportBrand    string
}

// RunServiceConfigFrom collects RunServiceConfig from the application config.
func RunServiceConfigFrom(cfg *config.Config) RunServiceConfig {
	return RunServiceConfig{
		Poller:         poller.ConfigFrom(&cfg.Poller),
		Retention:      cfg.Poller.Retention,
		Bucket:         cfg.S3.Bucket,
		ArtifactPrefix: cfg.S3.ArtifactPrefix,
		PresignExpiry:  cfg.S3.PresignExpiry,
		ReportTitle:    cfg.Report.Title,
		ReportBrand:    cfg.Report.Brand,
	}
}

// RunService defines the run management contract.
type RunService interface {
	Start(ctx context.Context, input StartRunInput) (*RunView, error)
	Get(ctx context.Context, objectKey string) (*RunView, error)
	Wait(ctx context.Context, objectKey string) (*RunView, error)
	Cancel(objectKey string) error
	Evaluate(env domain.Envelope) *classifier.Evaluation
	Report(ctx context.Context, objectKey string, format domain.ReportFormat) (*Artifact, error)
	Links(ctx context.Context, objectKey string) (*LinksView, error)
	History(ctx context.Context, objectKey string, limit int) ([]SnapshotView, error)
	Shutdown(ctx context.Context) error
}

type runService struct {
	watcher   *poller.Watcher
	snapshots port.SnapshotRepository
	storage   port.ObjectStorage
	notifier  port.Notifier
	metrics   RunMetrics
	cfg       RunServiceConfig
	baseCtx   context.Context
}

// NewRunService creates a new RunService. snapshots, storage, notifier and
// metrics are optional; pass nil to disable the matching side effect.
func NewRunService(
	fetcher poller.Fetcher,
	snapshots port.SnapshotRepository,
	storage port.ObjectStorage,
	notifier port.Notifier,
	metrics RunMetrics,
	cfg RunServiceConfig,
) RunService {
	var opts []poller.Option
	if metrics != nil {
		opts = append(opts, poller.WithObserver(metrics))
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	return &runService{
		watcher:   poller.NewWatcher(fetcher, cfg.Poller, opts...),
		snapshots: snapshots,
		storage:   storage,
		notifier:  notifier,
		metrics:   metrics,
		cfg:       cfg,
		baseCtx:   context.Background(),
	}
}

func (s *runService) Start(_ context.Context, input StartRunInput) (*RunView, error) {
	key := strings.TrimSpace(input.ObjectKey)
	if key == "" {
		return nil, domain.ErrMissingObjectKey
	}

	opts := []poller.Option{
		poller.WithOnFinish(func(st poller.State) {
			s.finish(st, input.NotifyEmail)
		}),
	}
	if input.OnUpdate != nil {
		opts = append(opts, poller.WithOnUpdate(func(u poller.Update) {
			input.OnUpdate(&RunView{
				SessionID:  u.SessionID,
				ObjectKey:  u.ObjectKey,
				State:      RunStatePolling,
				Attempts:   u.Attempt,
				Status:     u.Evaluation.Status,
				InProgress: u.Evaluation.InProgress,
				Issues:     u.Evaluation.Issues,
				DocType:    u.Evaluation.DocType,
				Kind:       u.Evaluation.Kind,
			})
		}))
	}

	if s.metrics != nil {
		s.metrics.RunStarted()
	}
	log.Printf("runService.Start: watching %s", key)
	// Sessions outlive the request that started them.
	sess := s.watcher.Watch(s.baseCtx, key, opts...)
	return viewFromState(sess.State()), nil
}

func (s *runService) Get(ctx context.Context, objectKey string) (*RunView, error) {
	if objectKey == "" {
		return nil, domain.ErrMissingObjectKey
	}
	if sess, ok := s.watcher.Get(objectKey); ok {
		return viewFromState(sess.State()), nil
	}
	if s.snapshots == nil {
		return nil, domain.ErrRunNotFound
	}
	snap, err := s.snapshots.GetLatest(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	ev, err := evaluateSnapshot(snap)
	if err != nil {
		return nil, err
	}
	view := viewFromEvaluation(ev)
	view.ObjectKey = snap.ObjectKey
	view.State = RunStateStored
	view.Attempts = snap.Attempts
	view.UpdatedAt = timePtr(snap.CreatedAt)
	return view, nil
}

func (s *runService) Wait(ctx context.Context, objectKey string) (*RunView, error) {
	sess, ok := s.watcher.Get(objectKey)
	if !ok {
		// Already finished and evicted, or never started.
		return s.Get(ctx, objectKey)
	}
	select {
	case <-sess.Done():
	case <-ctx.Done():
		return viewFromState(sess.State()), ctx.Err()
	}
	st := sess.State()
	return viewFromState(st), st.Err
}

func (s *runService) Cancel(objectKey string) error {
	if !s.watcher.Cancel(objectKey) {
		return domain.ErrRunNotFound
	}
	log.Printf("runService.Cancel: canceled %s", objectKey)
	return nil
}

func (s *runService) Evaluate(env domain.Envelope) *classifier.Evaluation {
	return classifier.Evaluate(env)
}

func (s *runService) Report(ctx context.Context, objectKey string, format domain.ReportFormat) (*Artifact, error) {
	ev, generatedAt, err := s.finalEvaluation(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	return s.render(format, ev, objectKey, generatedAt)
}

func (s *runService) History(ctx context.Context, objectKey string, limit int) ([]SnapshotView, error) {
	if objectKey == "" {
		return nil, domain.ErrMissingObjectKey
	}
	if s.snapshots == nil {
		return nil, domain.ErrHistoryNotConfigured
	}
	snaps, err := s.snapshots.ListByObjectKey(ctx, objectKey, limit)
	if err != nil {
		return nil, err
	}
	views := make([]SnapshotView, 0, len(snaps))
	for _, snap := range snaps {
		issues := []domain.Issue{}
		if len(snap.Issues) > 0 {
			if err := json.Unmarshal(snap.Issues, &issues); err != nil {
				log.Printf("runService.History: snapshot %s has unreadable issues: %v", snap.ID, err)
			}
		}
		views = append(views, SnapshotView{
			ID:        snap.ID.String(),
			ObjectKey: snap.ObjectKey,
			Status:    snap.Status,
			DocType:   snap.DocType,
			Attempts:  snap.Attempts,
			Issues:    issues,
			CreatedAt: snap.CreatedAt,
		})
	}
	return views, nil
}

func (s *runService) Shutdown(ctx context.Context) error {
	return s.watcher.Shutdown(ctx)
}

// finalEvaluation returns the finished evaluation for objectKey from the live
// session, or from the latest snapshot when no session is known.
func (s *runService) finalEvaluation(ctx context.Context, objectKey string) (*classifier.Evaluation, time.Time, error) {
	if objectKey == "" {
		return nil, time.Time{}, domain.ErrMissingObjectKey
	}
	if sess, ok := s.watcher.Get(objectKey); ok {
		st := sess.State()
		if st.Evaluation == nil || st.Evaluation.InProgress {
			return nil, time.Time{}, domain.ErrRunNotFinished
		}
		return st.Evaluation, st.UpdatedAt, nil
	}
	if s.snapshots == nil {
		return nil, time.Time{}, domain.ErrRunNotFound
	}
	snap, err := s.snapshots.GetLatest(ctx, objectKey)
	if err != nil {
		return nil, time.Time{}, err
	}
	ev, err := evaluateSnapshot(snap)
	if err != nil {
		return nil, time.Time{}, err
	}
	return ev, snap.CreatedAt, nil
}

func (s *runService) render(format domain.ReportFormat, ev *classifier.Evaluation, objectKey string, generatedAt time.Time) (*Artifact, error) {
	in := report.FromEvaluation(ev, objectKey, s.cfg.ReportTitle, s.cfg.ReportBrand, generatedAt)
	body, err := report.Render(format, in)
	if err != nil {
		return nil, fmt.Errorf("rendering %s report: %w", format, err)
	}
	return &Artifact{
		FileName:    report.FileName(format),
		ContentType: domain.ReportContentTypes[format],
		Body:        body,
	}, nil
}

// finish runs once per session. Failures here are logged and never change
// the outcome of the run.
func (s *runService) finish(st poller.State, notifyEmail string) {
	if s.metrics != nil {
		s.metrics.RunFinished(finishLabel(st), st.Attempts)
	}
	time.AfterFunc(s.cfg.Retention, func() {
		if s.watcher.Forget(st.ObjectKey, st.SessionID) {
			log.Printf("runService.finish: evicted finished session %s for %s", st.SessionID, st.ObjectKey)
		}
	})
	if st.Err != nil || st.Evaluation == nil {
		return
	}

	ctx, cancel := context.WithTimeout(s.baseCtx, finishTimeout)
	defer cancel()

	if s.snapshots != nil {
		snap, err := newSnapshot(st)
		if err == nil {
			err = s.snapshots.Save(ctx, snap)
		}
		if err != nil {
			log.Printf("runService.finish: failed to save snapshot for %s: %v", st.ObjectKey, err)
		}
	}

	reportURL := ""
	if s.storage != nil && s.cfg.Bucket != "" {
		reportURL = s.publish(ctx, st.ObjectKey, st.Evaluation, st.UpdatedAt)
	}

	if s.notifier != nil && notifyEmail != "" {
		err := s.notifier.SendRunFinished(ctx, port.RunNotification{
			ToEmail:   notifyEmail,
			ObjectKey: st.ObjectKey,
			Status:    st.Evaluation.Status,
			DocType:   st.Evaluation.DocType,
			Issues:    st.Evaluation.Issues,
			ReportURL: reportURL,
		})
		if err != nil {
			log.Printf("runService.finish: failed to notify %s for %s: %v", notifyEmail, st.ObjectKey, err)
		}
	}
}

func finishLabel(st poller.State) string {
	switch {
	case st.Canceled:
		return RunStateCanceled
	case st.Err != nil || st.Evaluation == nil:
		return RunStateFailed
	}
	return string(st.Evaluation.Status)
}

func newSnapshot(st poller.State) (*domain.Snapshot, error) {
	envelope, err := json.Marshal(st.Envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	issues, err := json.Marshal(st.Evaluation.Issues)
	if err != nil {
		return nil, fmt.Errorf("encoding issues: %w", err)
	}
	var analysis []byte
	if st.Evaluation.Analysis != nil {
		if analysis, err = json.Marshal(st.Evaluation.Analysis); err != nil {
			return nil, fmt.Errorf("encoding analysis: %w", err)
		}
	}
	return &domain.Snapshot{
		ObjectKey: st.ObjectKey,
		Status:    st.Evaluation.Status,
		DocType:   st.Evaluation.DocType,
		Attempts:  st.Attempts,
		Envelope:  envelope,
		Analysis:  analysis,
		Issues:    issues,
		CreatedAt: st.UpdatedAt.UTC(),
	}, nil
}

// evaluateSnapshot re-derives the evaluation from the stored envelope.
func evaluateSnapshot(snap *domain.Snapshot) (*classifier.Evaluation, error) {
	var env domain.Envelope
	if len(snap.Envelope) > 0 {
		if err := json.Unmarshal(snap.Envelope, &env); err != nil {
			return nil, fmt.Errorf("decoding stored envelope for %s: %w", snap.ObjectKey, err)
		}
	}
	if env == nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, domain.ErrInvalidEnvelope)
	}
	return classifier.Evaluate(env), nil
}

func viewFromState(st poller.State) *RunView {
	view := viewFromEvaluation(st.Evaluation)
	view.SessionID = st.SessionID
	view.ObjectKey = st.ObjectKey
	view.Attempts = st.Attempts
	view.StartedAt = timePtr(st.StartedAt)
	view.UpdatedAt = timePtr(st.UpdatedAt)
	switch {
	case !st.Done:
		view.State = RunStatePolling
	case st.Canceled:
		view.State = RunStateCanceled
	case st.Err != nil:
		view.State = RunStateFailed
	default:
		view.State = RunStateCompleted
	}
	if st.Err != nil {
		view.Error = userMessage(st.Err)
		if st.Evaluation == nil {
			view.Status = domain.RunStatusUnknown
			view.InProgress = false
		}
	}
	return view
}

func viewFromEvaluation(ev *classifier.Evaluation) *RunView {
	if ev == nil {
		return &RunView{Status: domain.RunStatusInProgress, InProgress: true, Issues: []domain.Issue{}}
	}
	issues := ev.Issues
	if issues == nil {
		issues = []domain.Issue{}
	}
	return &RunView{
		Status:     ev.Status,
		InProgress: ev.InProgress,
		Issues:     issues,
		DocType:    ev.DocType,
		Kind:       ev.Kind,
		Summary:    ev.Summary,
		Ratios:     ev.Ratios,
		Scores:     ev.Scores,
	}
}

// userMessage prefers the terminal error's message over the wrapped chain.
func userMessage(err error) string {
	var te *poller.TerminalError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
