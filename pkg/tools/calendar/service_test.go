package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

func TestParseTimeRFC3339(t *testing.T) {
	parsed, err := ParseTime("2026-03-14T15:00:00+05:30")
	require.NoError(t, err)
	assert.Equal(t, 15, parsed.Hour())
}

func TestParseTimeBareDatetime(t *testing.T) {
	parsed, err := ParseTime("2026-03-14T15:00:00")
	require.NoError(t, err)
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 15, parsed.Hour())
}

func TestParseTimeBareDate(t *testing.T) {
	parsed, err := ParseTime("2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 14, parsed.Day())
	assert.Equal(t, 0, parsed.Hour())
}

func TestParseTimeInvalid(t *testing.T) {
	_, err := ParseTime("tomorrow at noon")
	assert.Error(t, err)
}

func TestUpdateEventPreservesUnsetFields(t *testing.T) {
	existing := map[string]any{
		"id":          "e1",
		"summary":     "Standup",
		"location":    "Room 1",
		"description": "Daily sync",
		"start":       map[string]any{"dateTime": "2026-03-14T09:00:00Z"},
		"end":         map[string]any{"dateTime": "2026-03-14T09:15:00Z"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/cal1/events/e1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.Method {
		case http.MethodGet:
			require.NoError(t, json.NewEncoder(w).Encode(existing))
		case http.MethodPut:
			var body calendar.Event
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.NoError(t, json.NewEncoder(w).Encode(body))
		default:
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		}
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	svc, err := NewService(context.Background(), ts.Client(), "UTC", option.WithEndpoint(ts.URL))
	require.NoError(t, err)

	updated, err := svc.UpdateEvent(context.Background(), "cal1", "e1", EventInput{
		Summary: "Planning",
	})
	require.NoError(t, err)

	assert.Equal(t, "Planning", updated.Summary)
	assert.Equal(t, "Room 1", updated.Location)
	assert.Equal(t, "Daily sync", updated.Description)
	require.NotNil(t, updated.Start)
	assert.Equal(t, "2026-03-14T09:00:00Z", updated.Start.DateTime)
}

func TestToAttendees(t *testing.T) {
	attendees := toAttendees([]string{"a@example.com", "b@example.com"})
	require.Len(t, attendees, 2)
	assert.Equal(t, "a@example.com", attendees[0].Email)

	assert.Nil(t, toAttendees(nil))
}
