package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docwatch/internal/domain"
	"docwatch/internal/email"
	"docwatch/internal/port"
)

func TestBuildRunFinished_EscapesBackendText(t *testing.T) {
	msg := email.BuildRunFinished(port.RunNotification{
		ObjectKey: "uploads/<a>.pdf",
		Status:    domain.RunStatusError,
		DocType:   "payslip",
		Issues: []domain.Issue{{
			Level:       domain.IssueLevelError,
			UserMessage: `<img src=x onerror="alert(1)">`,
		}},
	}, "https://app.example.com/")

	assert.Equal(t, "Document analysis failed: uploads/<a>.pdf", msg.Subject)
	assert.NotContains(t, msg.HTML, "<img")
	assert.Contains(t, msg.HTML, "&lt;img src=x")
	assert.Contains(t, msg.HTML, "uploads/&lt;a&gt;.pdf")
	assert.Contains(t, msg.HTML, "https://app.example.com/runs/uploads%2F%3Ca%3E.pdf")
	assert.Contains(t, msg.Text, "- [error] <img")
}

func TestBuildRunFinished_PrefersReportURL(t *testing.T) {
	msg := email.BuildRunFinished(port.RunNotification{
		ObjectKey: "k",
		Status:    domain.RunStatusOK,
		ReportURL: "https://bucket.example.com/report.html?sig=1&x=2",
	}, "https://app.example.com")

	assert.Contains(t, msg.HTML, "report.html?sig=1&amp;x=2")
	assert.Contains(t, msg.Text, "Status: Completed\n")
	assert.Contains(t, msg.Text, "View the report: https://bucket.example.com/report.html?sig=1&x=2")
	assert.Contains(t, msg.HTML, "Document type: -")
}

func TestRunURL(t *testing.T) {
	assert.Equal(t, "", email.RunURL("", "k"))
	assert.Equal(t, "https://x/runs/a%2Fb", email.RunURL("https://x/", "a/b"))
}
