package tools

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	v "github.com/cohesivestack/valgo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/theapemachine/toolbench/pkg/auth"
	calendarsvc "github.com/theapemachine/toolbench/pkg/tools/calendar"
)

// CalendarTool exposes Google Calendar as MCP tools.
type CalendarTool struct {
	svc  *calendarsvc.Service
	auth *auth.Authenticator
}

func NewCalendarTool(svc *calendarsvc.Service, authenticator *auth.Authenticator) *CalendarTool {
	return &CalendarTool{svc: svc, auth: authenticator}
}

func (ct *CalendarTool) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(
		"list_calendars",
		mcp.WithDescription("List all calendars available to the authenticated user."),
	), ct.handleListCalendars)

	srv.AddTool(mcp.NewTool(
		"get_calendar",
		mcp.WithDescription("Retrieve calendar details by ID. Use 'primary' for the user's primary calendar."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("The calendar ID")),
	), ct.handleGetCalendar)

	srv.AddTool(mcp.NewTool(
		"create_calendar",
		mcp.WithDescription("Create a new secondary calendar."),
		mcp.WithString("summary", mcp.Required(), mcp.Description("Name of the calendar")),
		mcp.WithString("description", mcp.Description("Description of the calendar")),
		mcp.WithString("timezone", mcp.Description("IANA timezone, e.g. Europe/Amsterdam")),
	), ct.handleCreateCalendar)

	srv.AddTool(mcp.NewTool(
		"delete_calendar",
		mcp.WithDescription("Permanently delete a secondary calendar."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("The calendar ID to delete")),
	), ct.handleDeleteCalendar)

	srv.AddTool(mcp.NewTool(
		"list_events",
		mcp.WithDescription("List events in a calendar ordered by start time. Defaults to the next 30 days when no window is given."),
		mcp.WithString("calendar_id", mcp.Description("The calendar ID, defaults to 'primary'")),
		mcp.WithString("time_min", mcp.Description("Lower bound for the event start time (RFC3339 or YYYY-MM-DD)")),
		mcp.WithString("time_max", mcp.Description("Upper bound for the event start time (RFC3339 or YYYY-MM-DD)")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of events to return (default 10)")),
		mcp.WithString("query", mcp.Description("Full text search query over event fields")),
	), ct.handleListEvents)

	srv.AddTool(mcp.NewTool(
		"get_event",
		mcp.WithDescription("Retrieve a single event by ID."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("The calendar ID")),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("The event ID")),
	), ct.handleGetEvent)

	srv.AddTool(mcp.NewTool(
		"create_event",
		mcp.WithDescription("Create a calendar event. Times accept RFC3339 or YYYY-MM-DD; the end defaults to one hour after the start."),
		mcp.WithString("calendar_id", mcp.Description("The calendar ID, defaults to 'primary'")),
		mcp.WithString("summary", mcp.Description("Event title")),
		mcp.WithString("location", mcp.Description("Event location")),
		mcp.WithString("description", mcp.Description("Event description")),
		mcp.WithString("start_time", mcp.Description("Start time")),
		mcp.WithString("end_time", mcp.Description("End time")),
		mcp.WithArray("attendees", mcp.Description("Attendee email addresses"), mcp.WithStringItems()),
		mcp.WithArray("recurrence", mcp.Description("Recurrence rules, e.g. RRULE:FREQ=WEEKLY"), mcp.WithStringItems()),
		mcp.WithString("color_id", mcp.Description("Event color ID")),
	), ct.handleCreateEvent)

	srv.AddTool(mcp.NewTool(
		"update_event",
		mcp.WithDescription("Update an event. Only the provided fields change; everything else is preserved."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("The calendar ID")),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("The event ID to update")),
		mcp.WithString("summary", mcp.Description("New event title")),
		mcp.WithString("location", mcp.Description("New location")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithString("start_time", mcp.Description("New start time")),
		mcp.WithString("end_time", mcp.Description("New end time")),
		mcp.WithArray("attendees", mcp.Description("Replacement attendee email addresses"), mcp.WithStringItems()),
		mcp.WithArray("recurrence", mcp.Description("Replacement recurrence rules"), mcp.WithStringItems()),
		mcp.WithString("color_id", mcp.Description("New color ID")),
	), ct.handleUpdateEvent)

	srv.AddTool(mcp.NewTool(
		"delete_event",
		mcp.WithDescription("Delete an event."),
		mcp.WithString("calendar_id", mcp.Required(), mcp.Description("The calendar ID")),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("The event ID to delete")),
	), ct.handleDeleteEvent)

	srv.AddTool(mcp.NewTool(
		"find_free_busy",
		mcp.WithDescription("Query busy intervals for one or more calendars in a time range."),
		mcp.WithArray("calendar_ids", mcp.Required(), mcp.Description("Calendar IDs to check"), mcp.WithStringItems()),
		mcp.WithString("start_time", mcp.Required(), mcp.Description("Window start (RFC3339 or YYYY-MM-DD)")),
		mcp.WithString("end_time", mcp.Required(), mcp.Description("Window end (RFC3339 or YYYY-MM-DD)")),
		mcp.WithString("timezone", mcp.Description("IANA timezone for the query")),
	), ct.handleFindFreeBusy)

	srv.AddTool(mcp.NewTool(
		"quick_add_event",
		mcp.WithDescription("Create an event from a natural language description, e.g. 'Meeting with John tomorrow at 3pm'."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Natural language description of the event")),
		mcp.WithString("calendar_id", mcp.Description("The calendar ID, defaults to 'primary'")),
	), ct.handleQuickAddEvent)

	srv.AddTool(mcp.NewTool(
		"authenticate_calendar",
		mcp.WithDescription("Check Google Calendar authentication status, refreshing the token when possible. Reports the consent URL when re-authentication is required."),
	), ct.handleAuthenticate)
}

func (ct *CalendarTool) handleListCalendars(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("list_calendars executing")

	calendars, err := ct.svc.ListCalendars(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"calendars": calendars,
		"count":     len(calendars),
	})
}

func (ct *CalendarTool) handleGetCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := req.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_calendar executing", "calendar_id", calendarID)

	cal, err := ct.svc.GetCalendar(ctx, calendarID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(cal)
}

func (ct *CalendarTool) handleCreateCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := req.RequireString("summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("create_calendar executing", "summary", summary)

	cal, err := ct.svc.CreateCalendar(ctx, summary,
		req.GetString("description", ""),
		req.GetString("timezone", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(cal)
}

func (ct *CalendarTool) handleDeleteCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := req.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("delete_calendar executing", "calendar_id", calendarID)

	if err := ct.svc.DeleteCalendar(ctx, calendarID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Calendar " + calendarID + " deleted successfully"), nil
}

func (ct *CalendarTool) handleListEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID := req.GetString("calendar_id", "primary")

	log.Info("list_events executing", "calendar_id", calendarID)

	events, err := ct.svc.ListEvents(ctx, calendarID,
		req.GetString("time_min", ""),
		req.GetString("time_max", ""),
		int64(req.GetInt("max_results", 10)),
		req.GetString("query", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (ct *CalendarTool) handleGetEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := req.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	eventID, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_event executing", "event_id", eventID)

	event, err := ct.svc.GetEvent(ctx, calendarID, eventID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(event)
}

func eventInputFromRequest(req mcp.CallToolRequest) calendarsvc.EventInput {
	return calendarsvc.EventInput{
		Summary:     req.GetString("summary", ""),
		Location:    req.GetString("location", ""),
		Description: req.GetString("description", ""),
		StartTime:   req.GetString("start_time", ""),
		EndTime:     req.GetString("end_time", ""),
		Attendees:   req.GetStringSlice("attendees", nil),
		Recurrence:  req.GetStringSlice("recurrence", nil),
		ColorID:     req.GetString("color_id", ""),
	}
}

func (ct *CalendarTool) handleCreateEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID := req.GetString("calendar_id", "primary")

	log.Info("create_event executing", "calendar_id", calendarID)

	event, err := ct.svc.CreateEvent(ctx, calendarID, eventInputFromRequest(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(event)
}

func (ct *CalendarTool) handleUpdateEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := req.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	eventID, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("update_event executing", "event_id", eventID)

	event, err := ct.svc.UpdateEvent(ctx, calendarID, eventID, eventInputFromRequest(req))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(event)
}

func (ct *CalendarTool) handleDeleteEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarID, err := req.RequireString("calendar_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	eventID, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("delete_event executing", "event_id", eventID)

	if err := ct.svc.DeleteEvent(ctx, calendarID, eventID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Event " + eventID + " deleted successfully"), nil
}

func (ct *CalendarTool) handleFindFreeBusy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	calendarIDs := req.GetStringSlice("calendar_ids", nil)
	startTime := req.GetString("start_time", "")
	endTime := req.GetString("end_time", "")

	val := v.Is(
		v.Number(len(calendarIDs), "calendar_ids").GreaterThan(0),
		v.String(startTime, "start_time").Not().Blank(),
		v.String(endTime, "end_time").Not().Blank(),
	)
	if !val.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", val.Errors())), nil
	}

	log.Info("find_free_busy executing", "calendars", len(calendarIDs))

	calendars, err := ct.svc.FindFreeBusy(ctx, calendarIDs, startTime, endTime, req.GetString("timezone", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"calendars": calendars,
	})
}

func (ct *CalendarTool) handleQuickAddEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("quick_add_event executing")

	event, err := ct.svc.QuickAddEvent(ctx, req.GetString("calendar_id", "primary"), text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(event)
}

func (ct *CalendarTool) handleAuthenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("authenticate_calendar executing")

	return authStatusResult(ctx, ct.auth, func(c context.Context) error {
		_, err := ct.svc.ListCalendars(c)
		return err
	})
}
