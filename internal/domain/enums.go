package domain

// RunStatus is the aggregate state of a processing run as seen by a client.
type RunStatus string

const (
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusOK         RunStatus = "ok"
	RunStatusWarning    RunStatus = "warning"
	RunStatusError      RunStatus = "error"
	RunStatusUnknown    RunStatus = "unknown"
)

// PipelineStage is a named checkpoint reported by the backend while it processes a document.
type PipelineStage string

const (
	StageUploaded            PipelineStage = "uploaded"
	StageOCRCompleted        PipelineStage = "ocr_completed"
	StageQuickAIQueued       PipelineStage = "quick_ai_queued"
	StageDetailedAIQueued    PipelineStage = "detailed_ai_queued"
	StageDetailedAICompleted PipelineStage = "detailed_ai_completed"
)

// pendingStages are the stages after which the backend still has work to do.
var pendingStages = map[PipelineStage]bool{
	StageUploaded:         true,
	StageOCRCompleted:     true,
	StageQuickAIQueued:    true,
	StageDetailedAIQueued: true,
}

// IsPending reports whether the stage is one of the fixed "not yet final" stages.
func (s PipelineStage) IsPending() bool {
	return pendingStages[s]
}

// IssueLevel is the severity of a classified issue.
type IssueLevel string

const (
	IssueLevelError   IssueLevel = "error"
	IssueLevelWarning IssueLevel = "warning"
)

// IssueCategory tells whether a failure is attributable to the platform or to the input document.
type IssueCategory string

const (
	IssueCategoryInternal IssueCategory = "internal"
	IssueCategoryDocument IssueCategory = "document"
)

// IssueStage names the processing step an issue was detected at.
type IssueStage string

const (
	IssueStageOCR        IssueStage = "ocr"
	IssueStageQuality    IssueStage = "quality_gate"
	IssueStageAIParsing  IssueStage = "ai_parsing"
	IssueStageExtraction IssueStage = "extraction"
)

// DocKind is the recognized kind of an analysed document.
type DocKind string

const (
	DocKindBank       DocKind = "bank"
	DocKindFinancials DocKind = "financials"
	DocKindPayslip    DocKind = "payslip"
	DocKindID         DocKind = "id"
	DocKindAddress    DocKind = "address"
	DocKindGeneric    DocKind = "generic"
)

// QualityDecision values emitted by the backend quality gate.
const (
	QualityDecisionPass = "PASS"
	QualityDecisionStop = "STOP"
)

// ReportFormat is an output format of the report renderer.
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatCSV  ReportFormat = "csv"
)

// ReportContentTypes maps report formats to their MIME content type.
var ReportContentTypes = map[ReportFormat]string{
	ReportFormatHTML: "text/html; charset=utf-8",
	ReportFormatPDF:  "application/pdf",
	ReportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ReportFormatCSV:  "text/csv; charset=utf-8",
}

// SourceContentTypes maps accepted source document extensions (without dot) to their MIME type.
var SourceContentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}
