package service_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docwatch/internal/config"
	"docwatch/internal/domain"
	"docwatch/internal/port"
	"docwatch/internal/service"
	"docwatch/mocks"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

func newSourceService(bucket string) (service.SourceService, *mocks.MockObjectStorage) {
	storage := new(mocks.MockObjectStorage)
	cfg := &config.S3Config{Bucket: bucket, UploadPrefix: "uploads", MaxFileSizeMB: 1}
	return service.NewSourceService(storage, cfg), storage
}

func TestSourceService_Upload(t *testing.T) {
	svc, storage := newSourceService("inbox")

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "inbox" &&
			strings.HasPrefix(in.Key, "uploads/") &&
			strings.HasSuffix(in.Key, "/statement.pdf") &&
			in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{ETag: "e"}, nil).Once()

	out, err := svc.Upload(context.Background(), service.SourceUploadInput{
		FileName: "/tmp/statement.pdf",
		Body:     bytes.NewReader(pdfBytes),
		Size:     int64(len(pdfBytes)),
	})
	require.NoError(t, err)
	assert.Equal(t, "inbox", out.Bucket)
	assert.True(t, strings.HasSuffix(out.ObjectKey, "/statement.pdf"))
	storage.AssertExpectations(t)
}

func TestSourceService_UploadRejections(t *testing.T) {
	tests := []struct {
		name string
		file string
		body []byte
		size int64
		want error
	}{
		{"unknown extension", "notes.txt", []byte("hello"), 5, domain.ErrUnsupportedFileType},
		{"content does not match extension", "scan.png", pdfBytes, int64(len(pdfBytes)), domain.ErrUnsupportedFileType},
		{"too large", "big.pdf", pdfBytes, 2 * 1024 * 1024, domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, storage := newSourceService("inbox")
			_, err := svc.Upload(context.Background(), service.SourceUploadInput{
				FileName: tt.file,
				Body:     bytes.NewReader(tt.body),
				Size:     tt.size,
			})
			assert.ErrorIs(t, err, tt.want)
			storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
		})
	}
}

func TestSourceService_UploadFailure(t *testing.T) {
	svc, storage := newSourceService("inbox")
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	_, err := svc.Upload(context.Background(), service.SourceUploadInput{
		FileName: "a.pdf",
		Body:     bytes.NewReader(pdfBytes),
		Size:     int64(len(pdfBytes)),
	})
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestSourceService_NoBucket(t *testing.T) {
	svc, _ := newSourceService("")
	_, err := svc.Upload(context.Background(), service.SourceUploadInput{FileName: "a.pdf", Body: bytes.NewReader(pdfBytes)})
	assert.ErrorIs(t, err, domain.ErrStorageNotConfigured)
}
