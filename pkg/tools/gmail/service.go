package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const defaultUser = "me"

// Service is a thin wrapper over gmail/v1. Every method is a single API
// call (or a short deterministic sequence) plus response reshaping.
type Service struct {
	api *gmail.Service
}

func NewService(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*Service, error) {
	api, err := gmail.NewService(ctx, append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return &Service{api: api}, nil
}

// MessageSummary carries the header fields the agent actually reads.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	Subject  string   `json:"subject,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
	Date     string   `json:"date,omitempty"`
	Snippet  string   `json:"snippet,omitempty"`
	LabelIDs []string `json:"label_ids,omitempty"`
}

// ListMessages searches messages and hydrates each hit with metadata
// headers, matching the shape the original list tool returned.
func (s *Service) ListMessages(ctx context.Context, query string, maxResults int64) ([]MessageSummary, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	res, err := s.api.Users.Messages.List(defaultUser).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]MessageSummary, 0, len(res.Messages))
	for _, m := range res.Messages {
		full, err := s.api.Users.Messages.Get(defaultUser, m.Id).
			Format("metadata").
			MetadataHeaders("From", "To", "Subject", "Date").
			Context(ctx).
			Do()
		if err != nil {
			// Keep the bare reference rather than failing the whole list.
			out = append(out, MessageSummary{ID: m.Id, ThreadID: m.ThreadId})
			continue
		}

		out = append(out, summarize(full))
	}

	return out, nil
}

func summarize(msg *gmail.Message) MessageSummary {
	sum := MessageSummary{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}

	if msg.Payload == nil {
		return sum
	}

	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			sum.From = h.Value
		case "To":
			sum.To = h.Value
		case "Subject":
			sum.Subject = h.Value
		case "Date":
			sum.Date = h.Value
		}
	}

	return sum
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*gmail.Profile, error) {
	if userID == "" {
		userID = defaultUser
	}

	profile, err := s.api.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// SetupWatch registers a Pub/Sub push notification channel for mailbox
// changes. labelIDs defaults to INBOX.
func (s *Service) SetupWatch(ctx context.Context, topicName string, labelIDs []string) (*gmail.WatchResponse, error) {
	if len(labelIDs) == 0 {
		labelIDs = []string{"INBOX"}
	}

	res, err := s.api.Users.Watch(defaultUser, &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  labelIDs,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to set up watch: %w", err)
	}

	return res, nil
}

// NewRawMessage composes an RFC 2822 message and base64url-encodes it the
// way users.messages.send expects.
func NewRawMessage(from, to, subject, body string) string {
	headers := ""
	if from != "" {
		headers += "From: " + from + "\r\n"
	}
	headers += "To: " + to + "\r\n"
	headers += "Subject: " + subject + "\r\n"
	headers += "MIME-Version: 1.0\r\n"
	headers += "Content-Type: text/plain; charset=\"UTF-8\"\r\n"

	return base64.URLEncoding.EncodeToString([]byte(headers + "\r\n" + body))
}

func (s *Service) SendMessage(ctx context.Context, from, to, subject, body string) (*gmail.Message, error) {
	msg, err := s.api.Users.Messages.Send(defaultUser, &gmail.Message{
		Raw: NewRawMessage(from, to, subject, body),
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	return msg, nil
}

func (s *Service) ModifyMessage(ctx context.Context, messageID string, addLabels, removeLabels []string) (*gmail.Message, error) {
	msg, err := s.api.Users.Messages.Modify(defaultUser, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabels,
		RemoveLabelIds: removeLabels,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to modify message %s: %w", messageID, err)
	}

	return msg, nil
}

// ----------------------------- drafts ------------------------------------

func (s *Service) CreateDraft(ctx context.Context, to, subject, body string) (*gmail.Draft, error) {
	draft, err := s.api.Users.Drafts.Create(defaultUser, &gmail.Draft{
		Message: &gmail.Message{Raw: NewRawMessage("", to, subject, body)},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	return draft, nil
}

func (s *Service) DeleteDraft(ctx context.Context, draftID string) error {
	if err := s.api.Users.Drafts.Delete(defaultUser, draftID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", draftID, err)
	}

	return nil
}

func (s *Service) GetDraft(ctx context.Context, draftID, format string) (*gmail.Draft, error) {
	if format == "" {
		format = "full"
	}

	draft, err := s.api.Users.Drafts.Get(defaultUser, draftID).
		Format(format).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft %s: %w", draftID, err)
	}

	return draft, nil
}

func (s *Service) ListDrafts(ctx context.Context, maxResults int64) ([]*gmail.Draft, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	res, err := s.api.Users.Drafts.List(defaultUser).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	return res.Drafts, nil
}

func (s *Service) SendDraft(ctx context.Context, draftID string) (*gmail.Message, error) {
	msg, err := s.api.Users.Drafts.Send(defaultUser, &gmail.Draft{Id: draftID}).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to send draft %s: %w", draftID, err)
	}

	return msg, nil
}

func (s *Service) UpdateDraft(ctx context.Context, draftID, to, subject, body string) (*gmail.Draft, error) {
	draft, err := s.api.Users.Drafts.Update(defaultUser, draftID, &gmail.Draft{
		Message: &gmail.Message{Raw: NewRawMessage("", to, subject, body)},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update draft %s: %w", draftID, err)
	}

	return draft, nil
}

// ----------------------------- history -----------------------------------

// HistoryChange is one mailbox mutation inside a history record.
type HistoryChange struct {
	Type      string   `json:"type"`
	MessageID string   `json:"message_id"`
	ThreadID  string   `json:"thread_id"`
	LabelIDs  []string `json:"label_ids,omitempty"`
}

// HistoryRecord groups the changes that happened under one history ID.
type HistoryRecord struct {
	ID      string          `json:"id"`
	Changes []HistoryChange `json:"changes"`
}

// HistoryResult is what the get_gmail_history tool returns.
type HistoryResult struct {
	Records         []HistoryRecord `json:"history_records"`
	LatestHistoryID string          `json:"latest_history_id"`
}

// History lists mailbox changes since startHistoryID, following pagination.
// An empty startHistoryID establishes a baseline: it returns no records and
// the mailbox's current history ID taken from the profile.
func (s *Service) History(ctx context.Context, startHistoryID string, historyTypes []string, maxResults int64) (*HistoryResult, error) {
	if startHistoryID == "" {
		profile, err := s.GetProfile(ctx, defaultUser)
		if err != nil {
			return nil, err
		}

		return &HistoryResult{
			Records:         []HistoryRecord{},
			LatestHistoryID: strconv.FormatUint(profile.HistoryId, 10),
		}, nil
	}

	startID, err := strconv.ParseUint(startHistoryID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid history id %q: %w", startHistoryID, err)
	}

	if maxResults <= 0 {
		maxResults = 100
	}

	var records []*gmail.History
	pageToken := ""

	for {
		call := s.api.Users.History.List(defaultUser).
			StartHistoryId(startID).
			MaxResults(maxResults).
			Context(ctx)
		if len(historyTypes) > 0 {
			call = call.HistoryTypes(historyTypes...)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list history: %w", err)
		}

		records = append(records, res.History...)
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	result := &HistoryResult{
		Records:         make([]HistoryRecord, 0, len(records)),
		LatestHistoryID: startHistoryID,
	}

	for _, rec := range records {
		result.Records = append(result.Records, flattenHistory(rec))
	}

	if len(records) > 0 {
		result.LatestHistoryID = strconv.FormatUint(records[len(records)-1].Id, 10)
	}

	return result, nil
}

func flattenHistory(rec *gmail.History) HistoryRecord {
	out := HistoryRecord{
		ID:      strconv.FormatUint(rec.Id, 10),
		Changes: []HistoryChange{},
	}

	for _, added := range rec.MessagesAdded {
		if added.Message == nil {
			continue
		}
		out.Changes = append(out.Changes, HistoryChange{
			Type:      "messageAdded",
			MessageID: added.Message.Id,
			ThreadID:  added.Message.ThreadId,
			LabelIDs:  added.Message.LabelIds,
		})
	}

	for _, deleted := range rec.MessagesDeleted {
		if deleted.Message == nil {
			continue
		}
		out.Changes = append(out.Changes, HistoryChange{
			Type:      "messageDeleted",
			MessageID: deleted.Message.Id,
			ThreadID:  deleted.Message.ThreadId,
		})
	}

	for _, labeled := range rec.LabelsAdded {
		if labeled.Message == nil {
			continue
		}
		out.Changes = append(out.Changes, HistoryChange{
			Type:      "labelAdded",
			MessageID: labeled.Message.Id,
			ThreadID:  labeled.Message.ThreadId,
			LabelIDs:  labeled.LabelIds,
		})
	}

	for _, unlabeled := range rec.LabelsRemoved {
		if unlabeled.Message == nil {
			continue
		}
		out.Changes = append(out.Changes, HistoryChange{
			Type:      "labelRemoved",
			MessageID: unlabeled.Message.Id,
			ThreadID:  unlabeled.Message.ThreadId,
			LabelIDs:  unlabeled.LabelIds,
		})
	}

	return out
}

// ----------------------------- threads -----------------------------------

func (s *Service) ListThreads(ctx context.Context, query string, maxResults int64) ([]*gmail.Thread, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	res, err := s.api.Users.Threads.List(defaultUser).
		Q(query).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	return res.Threads, nil
}

// ThreadSummary is a metadata-level view of a conversation.
type ThreadSummary struct {
	ID       string           `json:"id"`
	Messages []MessageSummary `json:"messages"`
}

// GetThread retrieves a conversation at metadata granularity: header
// fields and snippets, not message bodies.
func (s *Service) GetThread(ctx context.Context, threadID string) (*ThreadSummary, error) {
	thread, err := s.api.Users.Threads.Get(defaultUser, threadID).
		Format("metadata").
		MetadataHeaders("From", "To", "Subject", "Date").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}

	sum := &ThreadSummary{
		ID:       thread.Id,
		Messages: make([]MessageSummary, 0, len(thread.Messages)),
	}
	for _, msg := range thread.Messages {
		sum.Messages = append(sum.Messages, summarize(msg))
	}

	return sum, nil
}

// ----------------------------- labels ------------------------------------

func (s *Service) ListLabels(ctx context.Context) ([]*gmail.Label, error) {
	res, err := s.api.Users.Labels.List(defaultUser).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	return res.Labels, nil
}

func (s *Service) CreateLabel(ctx context.Context, name, textColor, backgroundColor string) (*gmail.Label, error) {
	label := &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}

	if textColor != "" && backgroundColor != "" {
		label.Color = &gmail.LabelColor{
			TextColor:       textColor,
			BackgroundColor: backgroundColor,
		}
	}

	created, err := s.api.Users.Labels.Create(defaultUser, label).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create label %q: %w", name, err)
	}

	return created, nil
}

// UpdateLabel patches only the fields provided.
func (s *Service) UpdateLabel(ctx context.Context, labelID, name, textColor, backgroundColor string) (*gmail.Label, error) {
	label := &gmail.Label{Name: name}
	if textColor != "" && backgroundColor != "" {
		label.Color = &gmail.LabelColor{
			TextColor:       textColor,
			BackgroundColor: backgroundColor,
		}
	}

	updated, err := s.api.Users.Labels.Patch(defaultUser, labelID, label).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update label %s: %w", labelID, err)
	}

	return updated, nil
}

// ----------------------------- filters -----------------------------------

func (s *Service) ListFilters(ctx context.Context) ([]*gmail.Filter, error) {
	res, err := s.api.Users.Settings.Filters.List(defaultUser).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}

	return res.Filter, nil
}

func (s *Service) CreateFilter(ctx context.Context, criteria *gmail.FilterCriteria, action *gmail.FilterAction) (*gmail.Filter, error) {
	created, err := s.api.Users.Settings.Filters.Create(defaultUser, &gmail.Filter{
		Criteria: criteria,
		Action:   action,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	return created, nil
}
