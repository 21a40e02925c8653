package mail

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"autodraft.app/assistant/internal/model"
)

const me = "me"

// GmailStore implements Store over the Gmail API. The label name->id cache
// lives for the lifetime of the instance and is never invalidated.
type GmailStore struct {
	svc        *gmail.Service
	labelCache map[string]string
	logger     *slog.Logger
}

func NewGmailStore(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*GmailStore, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GmailStore{
		svc:        svc,
		labelCache: make(map[string]string),
		logger:     logger,
	}, nil
}

func (s *GmailStore) Search(ctx context.Context, query string, maxResults int64) ([]model.Message, error) {
	resp, err := s.svc.Users.Messages.List(me).Q(query).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	messages := make([]model.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msg, err := s.Get(ctx, m.Id)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}

	s.logger.DebugContext(ctx, "mail search", "query", query, "results", len(messages))
	return messages, nil
}

func (s *GmailStore) Get(ctx context.Context, id string) (*model.Message, error) {
	msg, err := s.svc.Users.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	return toMessage(msg), nil
}

func (s *GmailStore) FindThreadWithContact(ctx context.Context, address string) (string, error) {
	query := fmt.Sprintf("from:%s OR to:%s", address, address)
	resp, err := s.svc.Users.Messages.List(me).Q(query).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("searching threads with %s: %w", address, err)
	}
	if len(resp.Messages) == 0 {
		return "", nil
	}
	return resp.Messages[0].ThreadId, nil
}

func (s *GmailStore) CreateDraft(ctx context.Context, req model.DraftRequest) (*model.Draft, error) {
	raw, err := BuildRawMessage(req)
	if err != nil {
		return nil, fmt.Errorf("building draft message: %w", err)
	}

	draft := &gmail.Draft{Message: &gmail.Message{Raw: raw, ThreadId: req.ThreadID}}
	created, err := s.svc.Users.Drafts.Create(me, draft).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating draft: %w", err)
	}

	result := &model.Draft{ID: created.Id}
	if created.Message != nil {
		result.MessageID = created.Message.Id
	}
	return result, nil
}

func (s *GmailStore) HasLabel(ctx context.Context, messageID, label string) (bool, error) {
	labelID, err := s.labelID(ctx, label)
	if err != nil {
		return false, err
	}
	msg, err := s.svc.Users.Messages.Get(me, messageID).Format("minimal").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("getting labels of %s: %w", messageID, err)
	}
	return slices.Contains(msg.LabelIds, labelID), nil
}

func (s *GmailStore) AddLabel(ctx context.Context, messageID, label string) error {
	labelID, err := s.labelID(ctx, label)
	if err != nil {
		return err
	}
	_, err = s.svc.Users.Messages.Modify(me, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("labeling %s: %w", messageID, err)
	}
	return nil
}

// labelID resolves a label name (nested labels use "/"), creating it when missing.
func (s *GmailStore) labelID(ctx context.Context, name string) (string, error) {
	if id, ok := s.labelCache[name]; ok {
		return id, nil
	}

	resp, err := s.svc.Users.Labels.List(me).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("listing labels: %w", err)
	}
	for _, l := range resp.Labels {
		if l.Name == name {
			s.labelCache[name] = l.Id
			return l.Id, nil
		}
	}

	created, err := s.svc.Users.Labels.Create(me, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating label %q: %w", name, err)
	}
	s.logger.InfoContext(ctx, "created label", "label", name, "label_id", created.Id)
	s.labelCache[name] = created.Id
	return created.Id, nil
}

func toMessage(msg *gmail.Message) *model.Message {
	out := &model.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		Labels:   msg.LabelIds,
	}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			out.Subject = h.Value
		case "from":
			out.From = h.Value
		case "to":
			out.To = h.Value
		}
	}
	out.Body = PlainTextBody(msg.Payload)
	return out
}

// PlainTextBody returns the first text/plain body found depth-first in the payload.
func PlainTextBody(part *gmail.MessagePart) string {
	if part == nil {
		return ""
	}
	if part.Body != nil && part.Body.Data != "" && (len(part.Parts) == 0 || part.MimeType == "text/plain") {
		if body, err := decodeBodyData(part.Body.Data); err == nil {
			return body
		}
	}
	for _, p := range part.Parts {
		switch {
		case p.MimeType == "text/plain":
			if p.Body != nil && p.Body.Data != "" {
				if body, err := decodeBodyData(p.Body.Data); err == nil {
					return body
				}
			}
		case strings.HasPrefix(p.MimeType, "multipart/"):
			if body := PlainTextBody(p); body != "" {
				return body
			}
		}
	}
	return ""
}
