package noop

import (
	"context"
	"log"

	"docwatch/internal/email"
	"docwatch/internal/port"
)

type noopSender struct {
	frontendURL string
}

// NewNoopSender creates a no-op Notifier that logs the notification to stdout.
func NewNoopSender(frontendURL string) port.Notifier {
	return &noopSender{frontendURL: frontendURL}
}

func (s *noopSender) SendRunFinished(_ context.Context, n port.RunNotification) error {
	msg := email.BuildRunFinished(n, s.frontendURL)
	log.Printf("[NOOP EMAIL] %s to %s (%d issues)", msg.Subject, n.ToEmail, len(n.Issues))
	return nil
}
