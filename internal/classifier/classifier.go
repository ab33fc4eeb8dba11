// Package classifier derives a run status and a typed issue list from a raw
// envelope and its canonical analysis.
package classifier

import (
	"strings"

	"docwatch/internal/domain"
	"docwatch/internal/summary"
)

// Result is the outcome of one classification pass.
type Result struct {
	Status     domain.RunStatus `json:"status"`
	InProgress bool             `json:"inProgress"`
	Issues     []domain.Issue   `json:"issues"`
}

// IsInProgress reports whether the backend is still working on the envelope's run.
func IsInProgress(env domain.Envelope) bool {
	if env == nil {
		return false
	}
	hasPayload := env.HasPayload()
	stage := env.Stage()

	if !hasPayload && env.QualityDecision() != domain.QualityDecisionStop &&
		(stage == "" || stage.IsPending()) {
		return true
	}
	if !hasPayload && env.QualityStatus() == "pending" {
		return true
	}
	// The stage can advance before the detailed payload lands.
	if stage == domain.StageDetailedAICompleted && !domain.Present(env.Detailed()) {
		return true
	}
	return false
}

// Classify derives the run status and issues. A nil envelope is unknown.
func Classify(env domain.Envelope, analysis domain.Analysis) Result {
	if env == nil {
		return Result{Status: domain.RunStatusUnknown, Issues: []domain.Issue{}}
	}
	if IsInProgress(env) {
		return Result{Status: domain.RunStatusInProgress, InProgress: true, Issues: []domain.Issue{}}
	}

	issues := []domain.Issue{}
	if issue, ok := ocrIssue(env); ok {
		issues = append(issues, issue)
	}
	if issue, ok := qualityIssue(env); ok {
		issues = append(issues, issue)
	}
	if issue, ok := aiIssue(analysis); ok {
		issues = append(issues, issue)
	}
	if issue, ok := bankWarning(env, analysis, issues); ok {
		issues = append(issues, issue)
	}

	return Result{Status: Aggregate(issues), Issues: issues}
}

// Aggregate folds issue levels into a run status: any error wins, then any warning.
func Aggregate(issues []domain.Issue) domain.RunStatus {
	hasWarning := false
	for _, is := range issues {
		switch is.Level {
		case domain.IssueLevelError:
			return domain.RunStatusError
		case domain.IssueLevelWarning:
			hasWarning = true
		}
	}
	if hasWarning {
		return domain.RunStatusWarning
	}
	return domain.RunStatusOK
}

func ocrIssue(env domain.Envelope) (domain.Issue, bool) {
	msg := ocrErrorMessage(env)
	if msg == "" {
		return domain.Issue{}, false
	}
	rule := classifyMessage(ocrRules, msg, messageRule{category: domain.IssueCategoryInternal, userMessage: ocrInternalMessage})
	return domain.Issue{
		Stage:       domain.IssueStageOCR,
		Level:       domain.IssueLevelError,
		Category:    rule.category,
		UserMessage: rule.userMessage,
		RawMessage:  msg,
	}, true
}

func ocrErrorMessage(env domain.Envelope) string {
	ocr := env.OCR()
	for _, k := range []string{"error", "errorMessage", "error_message"} {
		if s := domain.Text(ocr[k]); s != "" {
			return s
		}
		if obj := domain.Object(ocr[k]); obj != nil {
			if s := domain.Text(obj["message"]); s != "" {
				return s
			}
		}
	}
	if status := strings.ToLower(domain.Text(ocr["status"])); status == "error" || status == "failed" {
		if s := domain.Text(ocr["message"]); s != "" {
			return s
		}
		return "ocr " + status
	}
	return domain.Text(env["ocrError"])
}

func qualityIssue(env domain.Envelope) (domain.Issue, bool) {
	if env.QualityDecision() != domain.QualityDecisionStop {
		return domain.Issue{}, false
	}
	reasons := env.QualityReasons()
	msg := qualityStopGeneric
	if len(reasons) > 0 {
		msg = qualityStopPrefix + strings.Join(reasons, "; ") + "."
	}
	return domain.Issue{
		Stage:       domain.IssueStageQuality,
		Level:       domain.IssueLevelError,
		Category:    domain.IssueCategoryDocument,
		UserMessage: msg,
		RawMessage:  strings.Join(reasons, "; "),
	}, true
}

func aiIssue(analysis domain.Analysis) (domain.Issue, bool) {
	if analysis == nil || !analysis.Failed() {
		return domain.Issue{}, false
	}
	msg := analysis.ErrorMessage()
	errType := analysis.ErrorType()

	rule := messageRule{category: domain.IssueCategoryInternal, userMessage: aiInternalMessage}
	if !strings.EqualFold(errType, errorTypeModelCallFailure) {
		rule = classifyMessage(aiRules, errType+" "+msg, rule)
	}

	raw := msg
	if errType != "" {
		raw = strings.TrimSpace(errType + ": " + msg)
	}
	return domain.Issue{
		Stage:       domain.IssueStageAIParsing,
		Level:       domain.IssueLevelError,
		Category:    rule.category,
		UserMessage: rule.userMessage,
		RawMessage:  raw,
	}, true
}

// bankWarning flags a bank statement that parsed cleanly but yielded no transactions.
func bankWarning(env domain.Envelope, analysis domain.Analysis, issues []domain.Issue) (domain.Issue, bool) {
	if analysis == nil || Aggregate(issues) == domain.RunStatusError {
		return domain.Issue{}, false
	}
	if domain.KindOf(docTypeOf(env, analysis)) != domain.DocKindBank {
		return domain.Issue{}, false
	}
	if summary.TransactionCount(analysis) > 0 {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Stage:       domain.IssueStageExtraction,
		Level:       domain.IssueLevelWarning,
		Category:    domain.IssueCategoryDocument,
		UserMessage: noTransactionsMessage,
		RawMessage:  "0 transactions parsed",
	}, true
}

func docTypeOf(env domain.Envelope, analysis domain.Analysis) string {
	if dt := analysis.DocType(); dt != "" {
		return dt
	}
	return env.DocType()
}
