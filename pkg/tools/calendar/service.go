package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Service wraps the Calendar API behind the handful of operations the
// tool surface needs. Raw API types are returned so results serialize
// the way the Calendar REST responses look.
type Service struct {
	api      *calendar.Service
	timezone string
}

func NewService(ctx context.Context, client *http.Client, timezone string, opts ...option.ClientOption) (*Service, error) {
	api, err := calendar.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	if timezone == "" {
		timezone = "UTC"
	}

	return &Service{api: api, timezone: timezone}, nil
}

// Timezone is the zone applied to event times when the caller does not
// specify one.
func (s *Service) Timezone() string {
	return s.timezone
}

func (s *Service) ListCalendars(ctx context.Context) ([]*calendar.CalendarListEntry, error) {
	res, err := s.api.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing calendars: %w", err)
	}

	return res.Items, nil
}

func (s *Service) GetCalendar(ctx context.Context, calendarID string) (*calendar.Calendar, error) {
	cal, err := s.api.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting calendar %s: %w", calendarID, err)
	}

	return cal, nil
}

func (s *Service) CreateCalendar(ctx context.Context, summary, description, timezone string) (*calendar.Calendar, error) {
	if timezone == "" {
		timezone = s.timezone
	}

	cal, err := s.api.Calendars.Insert(&calendar.Calendar{
		Summary:     summary,
		Description: description,
		TimeZone:    timezone,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating calendar: %w", err)
	}

	return cal, nil
}

func (s *Service) DeleteCalendar(ctx context.Context, calendarID string) error {
	if err := s.api.Calendars.Delete(calendarID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting calendar %s: %w", calendarID, err)
	}

	return nil
}

// ListEvents returns single events ordered by start time. When no window
// is given it defaults to the next 30 days.
func (s *Service) ListEvents(ctx context.Context, calendarID, timeMin, timeMax string, maxResults int64, query string) ([]*calendar.Event, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	if maxResults <= 0 {
		maxResults = 10
	}

	now := time.Now().UTC()

	if timeMin == "" {
		timeMin = now.Format(time.RFC3339)
	}

	if timeMax == "" {
		timeMax = now.AddDate(0, 0, 30).Format(time.RFC3339)
	}

	call := s.api.Events.List(calendarID).
		TimeMin(timeMin).
		TimeMax(timeMax).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime")

	if query != "" {
		call = call.Q(query)
	}

	res, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing events in %s: %w", calendarID, err)
	}

	return res.Items, nil
}

func (s *Service) GetEvent(ctx context.Context, calendarID, eventID string) (*calendar.Event, error) {
	event, err := s.api.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting event %s: %w", eventID, err)
	}

	return event, nil
}

// EventInput carries the optional fields shared by create and update.
type EventInput struct {
	Summary     string
	Location    string
	Description string
	StartTime   string
	EndTime     string
	Attendees   []string
	Recurrence  []string
	ColorID     string
}

func (s *Service) CreateEvent(ctx context.Context, calendarID string, in EventInput) (*calendar.Event, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	start := time.Now().UTC()
	if in.StartTime != "" {
		parsed, err := ParseTime(in.StartTime)
		if err != nil {
			return nil, err
		}
		start = parsed
	}

	end := start.Add(time.Hour)
	if in.EndTime != "" {
		parsed, err := ParseTime(in.EndTime)
		if err != nil {
			return nil, err
		}
		end = parsed
	}

	summary := in.Summary
	if summary == "" {
		summary = "New Event"
	}

	event := &calendar.Event{
		Summary:     summary,
		Location:    in.Location,
		Description: in.Description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: s.timezone},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: s.timezone},
		Recurrence:  in.Recurrence,
		ColorId:     in.ColorID,
		Attendees:   toAttendees(in.Attendees),
	}

	created, err := s.api.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}

	return created, nil
}

// UpdateEvent reads the current event and overlays only the fields the
// caller provided, so a partial update never clears existing data.
func (s *Service) UpdateEvent(ctx context.Context, calendarID, eventID string, in EventInput) (*calendar.Event, error) {
	event, err := s.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return nil, err
	}

	if in.Summary != "" {
		event.Summary = in.Summary
	}

	if in.Location != "" {
		event.Location = in.Location
	}

	if in.Description != "" {
		event.Description = in.Description
	}

	if in.StartTime != "" {
		start, err := ParseTime(in.StartTime)
		if err != nil {
			return nil, err
		}
		event.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: s.timezone}
	}

	if in.EndTime != "" {
		end, err := ParseTime(in.EndTime)
		if err != nil {
			return nil, err
		}
		event.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: s.timezone}
	}

	if len(in.Attendees) > 0 {
		event.Attendees = toAttendees(in.Attendees)
	}

	if len(in.Recurrence) > 0 {
		event.Recurrence = in.Recurrence
	}

	if in.ColorID != "" {
		event.ColorId = in.ColorID
	}

	updated, err := s.api.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("updating event %s: %w", eventID, err)
	}

	return updated, nil
}

func (s *Service) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := s.api.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("deleting event %s: %w", eventID, err)
	}

	return nil
}

// FindFreeBusy queries busy intervals for the given calendars.
func (s *Service) FindFreeBusy(ctx context.Context, calendarIDs []string, startTime, endTime, timezone string) (map[string]calendar.FreeBusyCalendar, error) {
	start, err := ParseTime(startTime)
	if err != nil {
		return nil, err
	}

	end, err := ParseTime(endTime)
	if err != nil {
		return nil, err
	}

	if timezone == "" {
		timezone = s.timezone
	}

	items := make([]*calendar.FreeBusyRequestItem, 0, len(calendarIDs))
	for _, id := range calendarIDs {
		items = append(items, &calendar.FreeBusyRequestItem{Id: id})
	}

	res, err := s.api.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin:  start.Format(time.RFC3339),
		TimeMax:  end.Format(time.RFC3339),
		TimeZone: timezone,
		Items:    items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("querying free/busy: %w", err)
	}

	return res.Calendars, nil
}

// QuickAddEvent creates an event from a natural language description,
// e.g. "Meeting with John tomorrow at 3pm".
func (s *Service) QuickAddEvent(ctx context.Context, calendarID, text string) (*calendar.Event, error) {
	if calendarID == "" {
		calendarID = "primary"
	}

	event, err := s.api.Events.QuickAdd(calendarID, text).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("quick-adding event: %w", err)
	}

	return event, nil
}

func toAttendees(emails []string) []*calendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}

	attendees := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	return attendees
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts the time formats agents actually produce: RFC3339,
// a bare datetime, or a bare date.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", value)
}
