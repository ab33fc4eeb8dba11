package classifier

import (
	"regexp"

	"docwatch/internal/domain"
)

// messageRule maps a raw failure message onto an issue category and a canned explanation.
type messageRule struct {
	pattern     *regexp.Regexp
	category    domain.IssueCategory
	userMessage string
}

const (
	ocrInternalMessage = "We could not read your document because of a problem on our side. " +
		"Please try again in a few minutes."
	ocrDocumentMessage = "We could not read any text from this document. " +
		"Please upload a clear, text-based PDF or image of the original document."
	ocrFormatMessage = "This file could not be converted for reading. " +
		"Please re-export it as a standard PDF (not password-protected) and upload it again."

	aiInternalMessage = "Our analysis service ran into a problem on our side. " +
		"Your document is fine; please try again later."
	aiTimeoutMessage = "Our analysis took too long to complete on our side. " +
		"Please try again later."
	aiNotBankStatementMessage = "This document does not look like a bank statement. " +
		"Please check that you uploaded the right file."

	qualityStopGeneric = "The document did not pass our quality checks. " +
		"Please upload a clearer copy of the original document."
	qualityStopPrefix = "The document did not pass our quality checks: "

	noTransactionsMessage = "We could not find any transactions in this bank statement. " +
		"Please check that the statement covers the expected period and is complete."
)

var timeoutPattern = regexp.MustCompile(`(?i)timed?\s*out|timeout|deadline exceeded`)

// ocrRules are evaluated in order; the first match wins.
var ocrRules = []messageRule{
	{timeoutPattern, domain.IssueCategoryInternal, ocrInternalMessage},
	{regexp.MustCompile(`(?i)pdf.*conver|conver.*pdf|pdftoppm|fontconfig|unsupported (file )?format|invalid (file )?format|cannot identify image|not a valid (pdf|image)`),
		domain.IssueCategoryDocument, ocrFormatMessage},
	{regexp.MustCompile(`(?i)\bempty\b|no text`), domain.IssueCategoryDocument, ocrDocumentMessage},
}

// aiRules classify AI parsing failure messages; error_type is checked first.
var aiRules = []messageRule{
	{timeoutPattern, domain.IssueCategoryInternal, aiTimeoutMessage},
	{regexp.MustCompile(`(?i)not\s+(a|an)\s+(valid\s+)?bank\s+statement`), domain.IssueCategoryDocument, aiNotBankStatementMessage},
}

const errorTypeModelCallFailure = "model_call_failure"

func classifyMessage(rules []messageRule, msg string, fallback messageRule) messageRule {
	for _, r := range rules {
		if r.pattern.MatchString(msg) {
			return r
		}
	}
	return fallback
}
