package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrMissingObjectKey     = errors.New("object key is required")
	ErrRunNotFound          = errors.New("run not found")
	ErrRunNotFinished       = errors.New("run has not produced a result yet")
	ErrPollTimeout          = errors.New("results were not ready before the polling budget ran out")
	ErrPollCanceled         = errors.New("polling was canceled")
	ErrUnsupportedFormat    = errors.New("unsupported report format")
	ErrInvalidEnvelope      = errors.New("envelope is not a JSON object")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
	ErrHistoryNotConfigured = errors.New("snapshot history is not configured")
	ErrUploadFailed         = errors.New("file upload to storage failed")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
)
