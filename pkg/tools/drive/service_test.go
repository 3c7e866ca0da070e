package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	svc, err := NewService(context.Background(), ts.Client(), option.WithEndpoint(ts.URL))
	require.NoError(t, err)

	return svc
}

func TestDefaultExportFormat(t *testing.T) {
	assert.Equal(t, "pdf", defaultExportFormat(MimeDocument))
	assert.Equal(t, "xlsx", defaultExportFormat(MimeSpreadsheet))
	assert.Equal(t, "pptx", defaultExportFormat(MimePresentation))
	assert.Equal(t, "pdf", defaultExportFormat("application/vnd.google-apps.drawing"))
}

func TestExportFormats(t *testing.T) {
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		exportFormats[MimeDocument]["docx"],
	)
	assert.Equal(t, "text/csv", exportFormats[MimeSpreadsheet]["csv"])

	_, ok := exportFormats[MimeSpreadsheet]["docx"]
	assert.False(t, ok)
}

func TestDownloadExportsWorkspaceDocument(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/doc1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":       "doc1",
			"name":     "Notes",
			"mimeType": MimeDocument,
		}))
	})
	mux.HandleFunc("/files/doc1/export", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.URL.Query().Get("mimeType"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-fake"))
	})

	svc := newTestService(t, mux)

	res, err := svc.Download(context.Background(), "doc1", "")
	require.NoError(t, err)

	assert.Equal(t, "Notes.pdf", res.FileName)
	assert.Equal(t, "application/pdf", res.MimeType)
	assert.Equal(t, []byte("%PDF-fake"), res.Content)
}

func TestDownloadBinaryFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/f2", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") == "media" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello"))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":       "f2",
			"name":     "readme.txt",
			"mimeType": "text/plain",
		}))
	})

	svc := newTestService(t, mux)

	res, err := svc.Download(context.Background(), "f2", "")
	require.NoError(t, err)

	assert.Equal(t, "readme.txt", res.FileName)
	assert.Equal(t, "text/plain", res.MimeType)
	assert.Equal(t, []byte("hello"), res.Content)
}

func TestDownloadRejectsUnsupportedExportFormat(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/files/doc1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":       "doc1",
			"name":     "Notes",
			"mimeType": MimeDocument,
		}))
	})

	svc := newTestService(t, mux)

	_, err := svc.Download(context.Background(), "doc1", "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestDecodeRequests(t *testing.T) {
	raw := []any{
		map[string]any{
			"insertText": map[string]any{
				"text":     "hello",
				"location": map[string]any{"index": 1},
			},
		},
	}

	var requests []*docs.Request
	require.NoError(t, decodeRequests(raw, &requests))
	require.Len(t, requests, 1)
	require.NotNil(t, requests[0].InsertText)
	assert.Equal(t, "hello", requests[0].InsertText.Text)
	assert.Equal(t, int64(1), requests[0].InsertText.Location.Index)
}

func TestDecodeRequestsInvalid(t *testing.T) {
	var requests []*docs.Request
	err := decodeRequests([]any{"not a request"}, &requests)
	assert.Error(t, err)
}
