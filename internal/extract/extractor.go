// Package extract turns raw meeting notes into model.MeetingFacts with the help
// of an LLM. The model only reads; every field is validated and normalised here.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"autodraft.app/assistant/common/llm"
	"autodraft.app/assistant/common/logger"
	"autodraft.app/assistant/internal/model"
)

// ErrExtraction means the oracle answered but no JSON object could be read from it.
var ErrExtraction = errors.New("extraction failed")

type notesResponse struct {
	ArtistFirstName     *string  `json:"artist_first_name" jsonschema_description:"First name of the artist only"`
	ArtistEmail         *string  `json:"artist_email" jsonschema_description:"Email address of the artist, or null"`
	CourseSubject       *string  `json:"course_subject" jsonschema_description:"Topic or subject of the course being produced"`
	OutlineDeliveryDate *string  `json:"outline_delivery_date" jsonschema_description:"When the course outline should be delivered, or null"`
	DemoVideoDate       *string  `json:"demo_video_date" jsonschema_description:"When demo videos are due, or null"`
	ContractTimeline    *string  `json:"contract_timeline" jsonschema_description:"Start and end dates from the contract, or null"`
	CheckinSchedule     *string  `json:"checkin_schedule" jsonschema_description:"How often check-ins will happen, or null"`
	NextCheckinDate     *string  `json:"next_checkin_date" jsonschema_description:"Date of the next scheduled check-in, or null"`
	ActionItems         []string `json:"action_items" jsonschema_description:"Specific tasks, deliverables and next steps mentioned"`
}

var notesSchema = llm.GenerateSchema[notesResponse]()

const systemPromptTemplate = `You are extracting structured data from meeting notes for a course production call between %s and an artist.

Return ONLY a JSON object matching this schema (no markdown, no explanation). Use null for any field you cannot find.

%s

Important:
- For artist_email, look for email addresses in attendee lists, the invited line or contact information
- For action_items, include specific deliverables and deadlines mentioned
- Keep dates in their original format as written in the notes`

const maxAttempts = 3

type Extractor struct {
	llm          llm.Client
	systemPrompt string
	backoff      time.Duration
}

// New builds an extractor. host is the internal participant named in the prompt.
func New(client llm.Client, host string) (*Extractor, error) {
	schema, err := json.MarshalIndent(notesSchema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding notes schema: %w", err)
	}
	return &Extractor{
		llm:          client,
		systemPrompt: fmt.Sprintf(systemPromptTemplate, host, schema),
		backoff:      time.Second,
	}, nil
}

// WithBackoff overrides the base delay between oracle retries.
func (e *Extractor) WithBackoff(d time.Duration) *Extractor {
	e.backoff = d
	return e
}

// Extract asks the oracle for facts and normalises the answer. nameHint, when
// set, is passed along and used as the first name if the oracle has none.
func (e *Extractor) Extract(ctx context.Context, rawText, nameHint string) (*model.MeetingFacts, error) {
	prompt := "Meeting notes to parse:\n" + rawText
	if nameHint != "" {
		prompt += "\n\nNote: The artist name from the email subject is: " + nameHint
	}

	var (
		resp *llm.Response
		err  error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = e.llm.Complete(ctx, llm.Request{
			SystemPrompt: e.systemPrompt,
			Prompt:       prompt,
			Temperature:  llm.Temp(0),
		})
		if err == nil || ctx.Err() != nil || attempt == maxAttempts-1 {
			break
		}
		slog.WarnContext(ctx, "extraction oracle retry", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(e.backoff << attempt):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("calling extraction oracle: %w", err)
	}

	facts, err := ParseFacts(resp.Content, nameHint)
	if err != nil {
		slog.WarnContext(ctx, "unparsable oracle output", "content", logger.Truncate(resp.Content, 200))
		return nil, err
	}

	slog.InfoContext(ctx, "notes extracted",
		"artist", facts.ArtistFirstName,
		"has_email", facts.HasContact(),
		"action_items", len(facts.ActionItems),
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens)
	return facts, nil
}

var fenceRe = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\n?(.*?)```")

// ParseFacts reads oracle output that is either a bare JSON object or one
// wrapped in a (possibly language-tagged) code fence.
func ParseFacts(content, nameHint string) (*model.MeetingFacts, error) {
	content = strings.TrimSpace(content)
	if r, ok := decodeObject(content); ok {
		return r.toFacts(nameHint), nil
	}
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		if r, ok := decodeObject(strings.TrimSpace(m[1])); ok {
			return r.toFacts(nameHint), nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON object in oracle output", ErrExtraction)
}

func decodeObject(s string) (*notesResponse, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var r notesResponse
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		return nil, false
	}
	return &r, true
}

func (r *notesResponse) toFacts(nameHint string) *model.MeetingFacts {
	facts := &model.MeetingFacts{
		ArtistFirstName:     deref(r.ArtistFirstName),
		ArtistEmail:         deref(r.ArtistEmail),
		CourseSubject:       deref(r.CourseSubject),
		OutlineDeliveryDate: StripWeekday(deref(r.OutlineDeliveryDate)),
		DemoVideoDate:       StripWeekday(deref(r.DemoVideoDate)),
		ContractTimeline:    StripWeekday(deref(r.ContractTimeline)),
		CheckinSchedule:     StripWeekday(deref(r.CheckinSchedule)),
		NextCheckinDate:     StripWeekday(deref(r.NextCheckinDate)),
		ActionItems:         make([]string, 0, len(r.ActionItems)),
	}
	if facts.ArtistFirstName == "" {
		facts.ArtistFirstName = nameHint
	}
	for _, item := range r.ActionItems {
		if item = strings.TrimSpace(item); item != "" {
			facts.ActionItems = append(facts.ActionItems, item)
		}
	}
	return facts
}

var weekdayRe = regexp.MustCompile(`(?i)^\s*(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\s*,\s*`)

// StripWeekday drops a leading "Thursday, " from a date string.
func StripWeekday(s string) string {
	return weekdayRe.ReplaceAllString(s, "")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
