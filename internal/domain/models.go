package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Analysis is the canonical, normalized analysis object.
type Analysis map[string]any

// DocType returns the resolved document type.
func (a Analysis) DocType() string { return Text(a["docType"]) }

// AnalysisMode returns the analysis mode reported by the backend.
func (a Analysis) AnalysisMode() string { return Text(a["analysisMode"]) }

// Quality returns the backfilled quality sub-object.
func (a Analysis) Quality() map[string]any { return Object(a["quality"]) }

// Structured returns the structured extraction sub-object.
func (a Analysis) Structured() map[string]any { return Object(a["structured"]) }

// Ratios returns the ratios sub-map.
func (a Analysis) Ratios() map[string]any { return Object(a["ratios"]) }

// Scores returns the named scores sub-map.
func (a Analysis) Scores() map[string]any { return Object(a["scores"]) }

// RiskScore returns the raw risk_score value.
func (a Analysis) RiskScore() any { return a["risk_score"] }

// Summary returns the free-text summary.
func (a Analysis) Summary() string { return Text(a["summary"]) }

// Status returns the analysis status lower-cased.
func (a Analysis) Status() string { return strings.ToLower(Text(a["status"])) }

// Failed reports whether the analysis declares an error status.
func (a Analysis) Failed() bool {
	s := a.Status()
	return s == "error" || s == "failed"
}

// ErrorType returns error_type (or errorType).
func (a Analysis) ErrorType() string {
	if s := Text(a["error_type"]); s != "" {
		return s
	}
	return Text(a["errorType"])
}

// ErrorMessage returns the first populated error message key.
func (a Analysis) ErrorMessage() string {
	for _, k := range []string{"error", "error_message", "errorMessage", "message"} {
		if s := Text(a[k]); s != "" {
			return s
		}
		if obj := Object(a[k]); obj != nil {
			if s := Text(obj["message"]); s != "" {
				return s
			}
		}
	}
	return ""
}

// Issue is one classified problem.
type Issue struct {
	Stage       IssueStage    `json:"stage"`
	Level       IssueLevel    `json:"level"`
	Category    IssueCategory `json:"category"`
	UserMessage string        `json:"userMessage"`
	RawMessage  string        `json:"rawMessage,omitempty"`
}

// Snapshot is a persisted accepted envelope with its derived classification.
type Snapshot struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ObjectKey string          `db:"object_key" json:"object_key"`
	Status    RunStatus       `db:"status" json:"status"`
	DocType   string          `db:"doc_type" json:"doc_type"`
	Attempts  int             `db:"attempts" json:"attempts"`
	Envelope  json.RawMessage `db:"envelope" json:"envelope"`
	Analysis  json.RawMessage `db:"analysis" json:"analysis"`
	Issues    json.RawMessage `db:"issues" json:"issues"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
