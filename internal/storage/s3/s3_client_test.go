package s3_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/config"
	"docwatch/internal/port"
	s3storage "docwatch/internal/storage/s3"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = body
		w.Header().Set("ETag", `"etag-1"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := b.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newStorage(t *testing.T) (port.ObjectStorage, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string][]byte{}}
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	store, err := s3storage.NewS3Client(&config.S3Config{
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return store, bucket
}

func TestS3Client_UploadThenExists(t *testing.T) {
	store, bucket := newStorage(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "artifacts", "reports/doc-1/report.html")
	require.NoError(t, err)
	assert.False(t, exists)

	out, err := store.Upload(ctx, port.UploadInput{
		Bucket:      "artifacts",
		Key:         "reports/doc-1/report.html",
		Body:        bytes.NewReader([]byte("<html></html>")),
		ContentType: "text/html",
	})
	require.NoError(t, err)
	assert.Equal(t, `"etag-1"`, out.ETag)
	assert.Equal(t, []byte("<html></html>"), bucket.objects["/artifacts/reports/doc-1/report.html"])

	exists, err = store.Exists(ctx, "artifacts", "reports/doc-1/report.html")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestS3Client_PresignedURL(t *testing.T) {
	store, _ := newStorage(t)

	url, err := store.GetPresignedURL(context.Background(), "artifacts", "reports/doc-1/report.pdf", 900)
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, "/artifacts/reports/doc-1/report.pdf"))
	assert.Contains(t, url, "X-Amz-Expires=900")
}
