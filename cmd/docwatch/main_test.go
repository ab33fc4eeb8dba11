package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwatch/internal/domain"
)

const completed = `{"statusAudit":"detailed_ai_completed","detailed":{"result":{"summary":"done"}},"quality":{"decision":"PASS"}}`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "docwatch watch <objectKey>")

	code, _, stderr = runCLI(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command: frobnicate")
}

func TestRun_Evaluate(t *testing.T) {
	p := writeFile(t, "env.json", `{"quality":{"decision":"STOP","reasons":["blurry"]}}`)

	code, stdout, stderr := runCLI(t, "evaluate", p)
	require.Equal(t, 0, code, stderr)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, false, out["inProgress"])
}

func TestRun_EvaluateRepairsSloppyJSON(t *testing.T) {
	p := writeFile(t, "env.json", "```json\n{\"quality\":{\"decision\":\"PASS\",},}\n```")

	code, stdout, stderr := runCLI(t, "evaluate", p)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"status"`)
}

func TestRun_EvaluateRejectsNonObject(t *testing.T) {
	p := writeFile(t, "env.json", `[1, 2, 3]`)

	code, _, stderr := runCLI(t, "evaluate", p)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, domain.ErrInvalidEnvelope.Error())
}

func TestRun_WatchWritesReport(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		assert.Equal(t, "uploads/a.pdf", r.URL.Query().Get("objectKey"))
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"statusAudit":"uploaded"}`))
			return
		}
		_, _ = w.Write([]byte(completed))
	}))
	defer srv.Close()
	t.Setenv("DOCWATCH_POLLER_BASE_URL", srv.URL)

	out := filepath.Join(t.TempDir(), "summary.csv")
	code, stdout, stderr := runCLI(t, "watch", "uploads/a.pdf", "--interval", "5ms", "--max-attempts", "5", "--out", out)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "finished after 2 attempts: ok")

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("\xef\xbb\xbf")), "csv starts with a BOM")
}

func TestRun_WatchExitsNonZeroOnExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("DOCWATCH_POLLER_BASE_URL", srv.URL)

	code, _, stderr := runCLI(t, "watch", "k", "--interval", "1ms", "--max-attempts", "2")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "docwatch watch:")
}

func TestRun_Links(t *testing.T) {
	var ready atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if !ready.Load() {
			_, _ = w.Write([]byte(`{"links":{}}`))
			return
		}
		_, _ = w.Write([]byte(`{"links":{"pdf":"https://x/report.pdf","html":"https://x/report.html"}}`))
	}))
	defer srv.Close()
	t.Setenv("DOCWATCH_POLLER_BASE_URL", srv.URL)

	code, stdout, _ := runCLI(t, "links", "k")
	assert.Equal(t, 0, code)
	assert.Equal(t, "not ready\n", stdout)

	ready.Store(true)
	code, stdout, _ = runCLI(t, "links", "k")
	assert.Equal(t, 0, code)
	assert.Equal(t, "html\thttps://x/report.html\npdf\thttps://x/report.pdf\n", stdout)
}

func TestRun_Token(t *testing.T) {
	code, _, stderr := runCLI(t, "token", "svc")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "DOCWATCH_AUTH_SECRET")

	t.Setenv("DOCWATCH_AUTH_SECRET", "s3cret")
	code, stdout, _ := runCLI(t, "token", "svc", "--ttl", "1h")
	assert.Equal(t, 0, code)
	assert.Regexp(t, `^[\w-]+\.[\w-]+\.[\w-]+\n$`, stdout)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format, out string
		want        domain.ReportFormat
	}{
		{"", "", domain.ReportFormatHTML},
		{"", "r.PDF", domain.ReportFormatPDF},
		{"", "notes.txt", domain.ReportFormatHTML},
		{"xlsx", "r.pdf", domain.ReportFormatXLSX},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.out)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.format+"|"+tt.out)
	}

	_, err := resolveFormat("docx", "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
