package tools

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	v "github.com/cohesivestack/valgo"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/theapemachine/toolbench/pkg/auth"
	gmailsvc "github.com/theapemachine/toolbench/pkg/tools/gmail"
	"github.com/theapemachine/toolbench/pkg/stores/history"
)

// GmailTool exposes the Gmail API surface as MCP tools. Every handler is a
// pass-through to the service wrapper; vendor failures are returned as tool
// result errors so the calling agent can react to them.
type GmailTool struct {
	svc     *gmailsvc.Service
	auth    *auth.Authenticator
	history *history.Store
}

func NewGmailTool(svc *gmailsvc.Service, authenticator *auth.Authenticator, historyStore *history.Store) *GmailTool {
	return &GmailTool{
		svc:     svc,
		auth:    authenticator,
		history: historyStore,
	}
}

func (gt *GmailTool) Register(srv *server.MCPServer) {
	srv.AddTool(mcp.NewTool(
		"list_gmail_messages",
		mcp.WithDescription("List Gmail messages matching a search query (Gmail search syntax: from:, to:, subject:, is:unread, has:attachment, ...)."),
		mcp.WithString("query", mcp.Description("Gmail search query, empty for most recent messages")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of messages to return (default 10)")),
	), gt.handleListMessages)

	srv.AddTool(mcp.NewTool(
		"get_gmail_profile",
		mcp.WithDescription("Retrieve the authenticated user's Gmail profile: email address, message and thread counts, current history ID."),
		mcp.WithString("user_id", mcp.Description("User ID, defaults to 'me'")),
	), gt.handleGetProfile)

	srv.AddTool(mcp.NewTool(
		"setup_gmail_watch",
		mcp.WithDescription("Set up push notifications for mailbox changes via a Google Cloud Pub/Sub topic."),
		mcp.WithString("topic_name", mcp.Required(), mcp.Description("Pub/Sub topic to deliver notifications to")),
		mcp.WithArray("label_ids", mcp.Description("Label IDs to watch, defaults to INBOX"), mcp.WithStringItems()),
	), gt.handleSetupWatch)

	srv.AddTool(mcp.NewTool(
		"send_gmail_message",
		mcp.WithDescription("Send an email message directly."),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject")),
		mcp.WithString("message_text", mcp.Required(), mcp.Description("Plain text body")),
	), gt.handleSendMessage)

	srv.AddTool(mcp.NewTool(
		"modify_gmail_message",
		mcp.WithDescription("Add or remove labels on a message (mark read/unread, important, archive, ...)."),
		mcp.WithString("message_id", mcp.Required(), mcp.Description("The message ID to modify")),
		mcp.WithArray("add_labels", mcp.Description("Label IDs to add (e.g. IMPORTANT, UNREAD)"), mcp.WithStringItems()),
		mcp.WithArray("remove_labels", mcp.Description("Label IDs to remove"), mcp.WithStringItems()),
	), gt.handleModifyMessage)

	srv.AddTool(mcp.NewTool(
		"create_gmail_draft",
		mcp.WithDescription("Create a new draft email."),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject")),
		mcp.WithString("message_text", mcp.Required(), mcp.Description("Plain text body")),
	), gt.handleCreateDraft)

	srv.AddTool(mcp.NewTool(
		"delete_gmail_draft",
		mcp.WithDescription("Permanently delete a draft."),
		mcp.WithString("draft_id", mcp.Required(), mcp.Description("The draft ID to delete")),
	), gt.handleDeleteDraft)

	srv.AddTool(mcp.NewTool(
		"get_gmail_draft",
		mcp.WithDescription("Retrieve a specific draft."),
		mcp.WithString("draft_id", mcp.Required(), mcp.Description("The draft ID to retrieve")),
		mcp.WithString("format", mcp.Description("Response format: minimal, metadata or full (default full)")),
	), gt.handleGetDraft)

	srv.AddTool(mcp.NewTool(
		"list_gmail_drafts",
		mcp.WithDescription("List drafts in the mailbox."),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of drafts to return (default 10)")),
	), gt.handleListDrafts)

	srv.AddTool(mcp.NewTool(
		"send_gmail_draft",
		mcp.WithDescription("Send an existing draft."),
		mcp.WithString("draft_id", mcp.Required(), mcp.Description("The draft ID to send")),
	), gt.handleSendDraft)

	srv.AddTool(mcp.NewTool(
		"update_gmail_draft",
		mcp.WithDescription("Replace the content of an existing draft."),
		mcp.WithString("draft_id", mcp.Required(), mcp.Description("The draft ID to update")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Email subject")),
		mcp.WithString("message_text", mcp.Required(), mcp.Description("Plain text body")),
	), gt.handleUpdateDraft)

	srv.AddTool(mcp.NewTool(
		"load_saved_history_id",
		mcp.WithDescription("Load the previously saved mailbox history checkpoint. Use before get_gmail_history to find where the last check left off."),
	), gt.handleLoadHistoryID)

	srv.AddTool(mcp.NewTool(
		"get_gmail_history",
		mcp.WithDescription("List mailbox changes (messages added/deleted, labels added/removed) since a history ID. Without a start ID this establishes a new baseline."),
		mcp.WithString("start_history_id", mcp.Description("History ID to start from; empty establishes a baseline")),
		mcp.WithArray("history_types", mcp.Description("Filter: messageAdded, messageDeleted, labelAdded, labelRemoved"), mcp.WithStringItems()),
		mcp.WithNumber("max_results", mcp.Description("Maximum history records per page (default 100)")),
	), gt.handleGetHistory)

	srv.AddTool(mcp.NewTool(
		"list_gmail_threads",
		mcp.WithDescription("List conversation threads matching a search query."),
		mcp.WithString("query", mcp.Description("Gmail search query")),
		mcp.WithNumber("max_results", mcp.Description("Maximum number of threads to return (default 10)")),
	), gt.handleListThreads)

	srv.AddTool(mcp.NewTool(
		"get_gmail_thread",
		mcp.WithDescription("Retrieve a conversation thread with per-message metadata (sender, recipient, subject, date, snippet)."),
		mcp.WithString("thread_id", mcp.Required(), mcp.Description("The thread ID to retrieve")),
	), gt.handleGetThread)

	srv.AddTool(mcp.NewTool(
		"list_gmail_labels",
		mcp.WithDescription("List all labels in the mailbox, system and custom."),
	), gt.handleListLabels)

	srv.AddTool(mcp.NewTool(
		"create_gmail_label",
		mcp.WithDescription("Create a new custom label, optionally colored."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the label")),
		mcp.WithString("text_color", mcp.Description("Text color in hex, e.g. #000000")),
		mcp.WithString("background_color", mcp.Description("Background color in hex, e.g. #ffffff")),
	), gt.handleCreateLabel)

	srv.AddTool(mcp.NewTool(
		"update_gmail_label",
		mcp.WithDescription("Update an existing label's name or colors."),
		mcp.WithString("label_id", mcp.Required(), mcp.Description("The label ID to update")),
		mcp.WithString("name", mcp.Description("New display name")),
		mcp.WithString("text_color", mcp.Description("Text color in hex")),
		mcp.WithString("background_color", mcp.Description("Background color in hex")),
	), gt.handleUpdateLabel)

	srv.AddTool(mcp.NewTool(
		"list_gmail_filters",
		mcp.WithDescription("List all email filters configured for the account."),
	), gt.handleListFilters)

	srv.AddTool(mcp.NewTool(
		"create_gmail_filter",
		mcp.WithDescription("Create a filter that automatically processes incoming mail. At least one criteria field and one action field are required."),
		mcp.WithString("from", mcp.Description("Criteria: sender address")),
		mcp.WithString("to", mcp.Description("Criteria: recipient address")),
		mcp.WithString("subject", mcp.Description("Criteria: subject contains")),
		mcp.WithString("query", mcp.Description("Criteria: Gmail search query")),
		mcp.WithBoolean("has_attachment", mcp.Description("Criteria: only messages with attachments")),
		mcp.WithArray("add_label_ids", mcp.Description("Action: label IDs to apply"), mcp.WithStringItems()),
		mcp.WithArray("remove_label_ids", mcp.Description("Action: label IDs to remove"), mcp.WithStringItems()),
		mcp.WithString("forward", mcp.Description("Action: forward to this address")),
	), gt.handleCreateFilter)

	srv.AddTool(mcp.NewTool(
		"authenticate_gmail",
		mcp.WithDescription("Check Gmail authentication status, refreshing the token when possible. Reports the consent URL when re-authentication is required."),
	), gt.handleAuthenticate)
}

func (gt *GmailTool) handleListMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	maxResults := int64(req.GetInt("max_results", 10))

	log.Info("list_gmail_messages executing", "query", query, "max_results", maxResults)

	messages, err := gt.svc.ListMessages(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

func (gt *GmailTool) handleGetProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := req.GetString("user_id", "me")

	log.Info("get_gmail_profile executing", "user_id", userID)

	profile, err := gt.svc.GetProfile(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(profile)
}

func (gt *GmailTool) handleSetupWatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topicName, err := req.RequireString("topic_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	labelIDs := req.GetStringSlice("label_ids", nil)

	log.Info("setup_gmail_watch executing", "topic", topicName)

	res, err := gt.svc.SetupWatch(ctx, topicName, labelIDs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(res)
}

func (gt *GmailTool) handleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	to := req.GetString("to", "")
	subject := req.GetString("subject", "")
	body := req.GetString("message_text", "")

	val := v.Is(
		v.String(to, "to").Not().Blank(),
		v.String(subject, "subject").Not().Blank(),
		v.String(body, "message_text").Not().Blank(),
	)
	if !val.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", val.Errors())), nil
	}

	log.Info("send_gmail_message executing", "to", to, "subject", subject)

	msg, err := gt.svc.SendMessage(ctx, "", to, subject, body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(msg)
}

func (gt *GmailTool) handleModifyMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	messageID, err := req.RequireString("message_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	addLabels := req.GetStringSlice("add_labels", nil)
	removeLabels := req.GetStringSlice("remove_labels", nil)

	if len(addLabels) == 0 && len(removeLabels) == 0 {
		return mcp.NewToolResultError("at least one of add_labels or remove_labels is required"), nil
	}

	log.Info("modify_gmail_message executing", "message_id", messageID)

	msg, err := gt.svc.ModifyMessage(ctx, messageID, addLabels, removeLabels)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(msg)
}

func (gt *GmailTool) handleCreateDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	to := req.GetString("to", "")
	subject := req.GetString("subject", "")
	body := req.GetString("message_text", "")

	val := v.Is(
		v.String(to, "to").Not().Blank(),
		v.String(subject, "subject").Not().Blank(),
		v.String(body, "message_text").Not().Blank(),
	)
	if !val.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", val.Errors())), nil
	}

	log.Info("create_gmail_draft executing", "to", to)

	draft, err := gt.svc.CreateDraft(ctx, to, subject, body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(draft)
}

func (gt *GmailTool) handleDeleteDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, err := req.RequireString("draft_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("delete_gmail_draft executing", "draft_id", draftID)

	if err := gt.svc.DeleteDraft(ctx, draftID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Draft %s deleted successfully", draftID)), nil
}

func (gt *GmailTool) handleGetDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, err := req.RequireString("draft_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_gmail_draft executing", "draft_id", draftID)

	draft, err := gt.svc.GetDraft(ctx, draftID, req.GetString("format", "full"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(draft)
}

func (gt *GmailTool) handleListDrafts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maxResults := int64(req.GetInt("max_results", 10))

	log.Info("list_gmail_drafts executing", "max_results", maxResults)

	drafts, err := gt.svc.ListDrafts(ctx, maxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"drafts": drafts,
		"count":  len(drafts),
	})
}

func (gt *GmailTool) handleSendDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, err := req.RequireString("draft_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("send_gmail_draft executing", "draft_id", draftID)

	msg, err := gt.svc.SendDraft(ctx, draftID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(msg)
}

func (gt *GmailTool) handleUpdateDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draftID, err := req.RequireString("draft_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	to := req.GetString("to", "")
	subject := req.GetString("subject", "")
	body := req.GetString("message_text", "")

	val := v.Is(
		v.String(to, "to").Not().Blank(),
		v.String(subject, "subject").Not().Blank(),
		v.String(body, "message_text").Not().Blank(),
	)
	if !val.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", val.Errors())), nil
	}

	log.Info("update_gmail_draft executing", "draft_id", draftID)

	draft, err := gt.svc.UpdateDraft(ctx, draftID, to, subject, body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(draft)
}

func (gt *GmailTool) handleLoadHistoryID(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("load_saved_history_id executing")

	id, ok, err := gt.history.Load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !ok {
		return mcp.NewToolResultJSON(map[string]any{
			"history_id": nil,
			"message":    "no saved history ID, this is the first check",
		})
	}

	return mcp.NewToolResultJSON(map[string]any{
		"history_id": id,
	})
}

func (gt *GmailTool) handleGetHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startID := req.GetString("start_history_id", "")
	historyTypes := req.GetStringSlice("history_types", nil)
	maxResults := int64(req.GetInt("max_results", 100))

	log.Info("get_gmail_history executing", "start_history_id", startID)

	result, err := gt.svc.History(ctx, startID, historyTypes, maxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Checkpoint the newest ID so the next check resumes from here.
	if result.LatestHistoryID != "" {
		if err := gt.history.Save(result.LatestHistoryID); err != nil {
			log.Error("failed to save history checkpoint", "error", err)
		}
	}

	return mcp.NewToolResultJSON(result)
}

func (gt *GmailTool) handleListThreads(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	maxResults := int64(req.GetInt("max_results", 10))

	log.Info("list_gmail_threads executing", "query", query)

	threads, err := gt.svc.ListThreads(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"threads": threads,
		"count":   len(threads),
	})
}

func (gt *GmailTool) handleGetThread(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	threadID, err := req.RequireString("thread_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("get_gmail_thread executing", "thread_id", threadID)

	thread, err := gt.svc.GetThread(ctx, threadID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(thread)
}

func (gt *GmailTool) handleListLabels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("list_gmail_labels executing")

	labels, err := gt.svc.ListLabels(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"labels": labels,
		"count":  len(labels),
	})
}

func (gt *GmailTool) handleCreateLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("create_gmail_label executing", "name", name)

	label, err := gt.svc.CreateLabel(ctx, name,
		req.GetString("text_color", ""),
		req.GetString("background_color", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(label)
}

func (gt *GmailTool) handleUpdateLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	labelID, err := req.RequireString("label_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("update_gmail_label executing", "label_id", labelID)

	label, err := gt.svc.UpdateLabel(ctx, labelID,
		req.GetString("name", ""),
		req.GetString("text_color", ""),
		req.GetString("background_color", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(label)
}

func (gt *GmailTool) handleListFilters(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("list_gmail_filters executing")

	filters, err := gt.svc.ListFilters(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(map[string]any{
		"filters": filters,
		"count":   len(filters),
	})
}

func (gt *GmailTool) handleCreateFilter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria := &gmailapi.FilterCriteria{
		From:          req.GetString("from", ""),
		To:            req.GetString("to", ""),
		Subject:       req.GetString("subject", ""),
		Query:         req.GetString("query", ""),
		HasAttachment: req.GetBool("has_attachment", false),
	}

	action := &gmailapi.FilterAction{
		AddLabelIds:    req.GetStringSlice("add_label_ids", nil),
		RemoveLabelIds: req.GetStringSlice("remove_label_ids", nil),
		Forward:        req.GetString("forward", ""),
	}

	if criteria.From == "" && criteria.To == "" && criteria.Subject == "" &&
		criteria.Query == "" && !criteria.HasAttachment {
		return mcp.NewToolResultError("at least one filter criteria field is required"), nil
	}

	if len(action.AddLabelIds) == 0 && len(action.RemoveLabelIds) == 0 && action.Forward == "" {
		return mcp.NewToolResultError("at least one filter action field is required"), nil
	}

	log.Info("create_gmail_filter executing")

	filter, err := gt.svc.CreateFilter(ctx, criteria, action)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultJSON(filter)
}

func (gt *GmailTool) handleAuthenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	log.Info("authenticate_gmail executing")

	return authStatusResult(ctx, gt.auth, func(c context.Context) error {
		_, err := gt.svc.GetProfile(c, "me")
		return err
	})
}
