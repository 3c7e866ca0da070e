package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestHistoryBaseline(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"emailAddress": "user@example.com",
			"historyId":    "777",
		})
	})

	svc := newTestService(t, mux)

	res, err := svc.History(context.Background(), "", nil, 0)
	require.NoError(t, err)

	assert.Empty(t, res.Records)
	assert.Equal(t, "777", res.LatestHistoryID)
}

func TestHistoryPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("startHistoryId"))

		switch r.URL.Query().Get("pageToken") {
		case "":
			writeJSON(t, w, map[string]any{
				"history": []map[string]any{{
					"id": "101",
					"messagesAdded": []map[string]any{{
						"message": map[string]any{
							"id":       "m1",
							"threadId": "t1",
							"labelIds": []string{"INBOX"},
						},
					}},
				}},
				"nextPageToken": "page-2",
			})
		case "page-2":
			writeJSON(t, w, map[string]any{
				"history": []map[string]any{{
					"id": "105",
					"labelsAdded": []map[string]any{{
						"message":  map[string]any{"id": "m2", "threadId": "t2"},
						"labelIds": []string{"IMPORTANT"},
					}},
				}},
			})
		default:
			http.Error(w, "unexpected page token", http.StatusBadRequest)
		}
	})

	svc := newTestService(t, mux)

	res, err := svc.History(context.Background(), "100", nil, 50)
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, "101", res.Records[0].ID)
	require.Len(t, res.Records[0].Changes, 1)
	assert.Equal(t, "messageAdded", res.Records[0].Changes[0].Type)
	assert.Equal(t, "m1", res.Records[0].Changes[0].MessageID)

	assert.Equal(t, "105", res.Records[1].ID)
	require.Len(t, res.Records[1].Changes, 1)
	assert.Equal(t, "labelAdded", res.Records[1].Changes[0].Type)
	assert.Equal(t, []string{"IMPORTANT"}, res.Records[1].Changes[0].LabelIDs)

	assert.Equal(t, "105", res.LatestHistoryID)
}

func TestHistoryInvalidStartID(t *testing.T) {
	svc := newTestService(t, http.NewServeMux())

	_, err := svc.History(context.Background(), "not-a-number", nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid history id")
}

func TestListMessagesHydrationFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"messages": []map[string]any{
				{"id": "m1", "threadId": "t1"},
				{"id": "m2", "threadId": "t2"},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"id":       "m1",
			"threadId": "t1",
			"snippet":  "lunch?",
			"payload": map[string]any{
				"headers": []map[string]any{
					{"name": "From", "value": "sarah@example.com"},
					{"name": "Subject", "value": "Lunch"},
				},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	svc := newTestService(t, mux)

	out, err := svc.ListMessages(context.Background(), "is:unread", 10)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "sarah@example.com", out[0].From)
	assert.Equal(t, "Lunch", out[0].Subject)
	assert.Equal(t, "lunch?", out[0].Snippet)

	// Hydration failure keeps the bare reference instead of failing the list.
	assert.Equal(t, "m2", out[1].ID)
	assert.Equal(t, "t2", out[1].ThreadID)
	assert.Empty(t, out[1].Subject)
}

func TestNewRawMessage(t *testing.T) {
	raw := NewRawMessage("me@example.com", "you@example.com", "Hello", "Body text")

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	assert.Contains(t, string(decoded), "From: me@example.com\r\n")
	assert.Contains(t, string(decoded), "To: you@example.com\r\n")
	assert.Contains(t, string(decoded), "Subject: Hello\r\n")
	assert.Contains(t, string(decoded), "\r\n\r\nBody text")
}
