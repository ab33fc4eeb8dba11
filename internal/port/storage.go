package port

import (
	"context"
	"io"
)

// UploadInput holds the parameters for an object upload.
type UploadInput struct {
	Bucket      string
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// UploadOutput holds the result of an object upload.
type UploadOutput struct {
	Location string
	ETag     string
}

// ObjectStorage defines the contract for the artifact store.
type ObjectStorage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Exists(ctx context.Context, bucket, key string) (bool, error)
	GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error)
}
