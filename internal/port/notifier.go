package port

import (
	"context"

	"docwatch/internal/domain"
)

// RunNotification describes a finished run for the person who asked to be told.
type RunNotification struct {
	ToEmail   string
	ObjectKey string
	Status    domain.RunStatus
	DocType   string
	Issues    []domain.Issue
	ReportURL string
}

// Notifier delivers run-finished notifications.
type Notifier interface {
	SendRunFinished(ctx context.Context, n RunNotification) error
}
