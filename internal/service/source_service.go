package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docwatch/internal/config"
	"docwatch/internal/domain"
	"docwatch/internal/port"
)

// SourceUploadInput is the DTO for uploading a document to be analysed.
type SourceUploadInput struct {
	FileName string
	Body     io.ReadSeeker
	Size     int64
}

// UploadedSource describes a stored source document.
type UploadedSource struct {
	ObjectKey   string `json:"object_key"`
	Bucket      string `json:"bucket"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// SourceService stores source documents where the processing backend picks them up.
type SourceService interface {
	Upload(ctx context.Context, input SourceUploadInput) (*UploadedSource, error)
}

type sourceService struct {
	storage port.ObjectStorage
	cfg     *config.S3Config
}

// NewSourceService creates a new SourceService implementation.
func NewSourceService(storage port.ObjectStorage, cfg *config.S3Config) SourceService {
	return &sourceService{storage: storage, cfg: cfg}
}

func (s *sourceService) Upload(ctx context.Context, input SourceUploadInput) (*UploadedSource, error) {
	if s.storage == nil || s.cfg.Bucket == "" {
		return nil, domain.ErrStorageNotConfigured
	}

	name := filepath.Base(input.FileName)
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	contentType, ok := domain.SourceContentTypes[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	if s.cfg.MaxFileSizeMB > 0 && input.Size > s.cfg.MaxFileSizeMB*1024*1024 {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := input.Body.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	if detected := http.DetectContentType(buf[:n]); detected != contentType {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, err := input.Body.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	key := path.Join(s.cfg.UploadPrefix, uuid.NewString(), name)
	log.Printf("sourceService.Upload: uploading %s (%s, %d bytes) as %s", name, contentType, input.Size, key)

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        input.Body,
		ContentType: contentType,
		Size:        input.Size,
	})
	if err != nil {
		log.Printf("sourceService.Upload: S3 upload failed for %s: %v", key, err)
		return nil, domain.ErrUploadFailed
	}

	return &UploadedSource{
		ObjectKey:   key,
		Bucket:      s.cfg.Bucket,
		ContentType: contentType,
		Size:        input.Size,
	}, nil
}
