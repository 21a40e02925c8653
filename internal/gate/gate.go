// Package gate runs one check over the mailbox: it finds meeting-notes messages,
// turns each unseen one into a follow-up draft and marks it processed.
//
// The processed marker is a mail label written only after the draft exists.
// "Check marker, draft, set marker" is not atomic: a crash between the last
// two steps produces a second draft on the next run. Drafts are never lost.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"autodraft.app/assistant/common/id"
	"autodraft.app/assistant/common/logger"
	"autodraft.app/assistant/internal/draft"
	"autodraft.app/assistant/internal/mail"
	"autodraft.app/assistant/internal/model"
	"autodraft.app/assistant/internal/notify"
)

type Config struct {
	NotesSender       string
	ProductionSubject string
	ProcessedLabel    string
	PageSize          int64
}

type Deps struct {
	Mail      mail.Store
	Matcher   *Matcher
	Extractor Extractor
	Contacts  ContactResolver
	Resources ResourceFinderFactory
	Assembler Assembler
	Notifier  Notifier
	Timeline  TimelineSource // optional
	Recorder  Recorder       // optional
}

type Gate struct {
	Deps
	cfg Config
}

func New(deps Deps, cfg Config) *Gate {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Gate{Deps: deps, cfg: cfg}
}

type RunOptions struct {
	DryRun bool
	// Broad matches any notes mentioning the required participant instead of
	// only the production subject.
	Broad bool
}

type RunReport struct {
	RunID      int64                `json:"run_id,string"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	DryRun     bool                 `json:"dry_run"`
	Outcomes   []model.DraftOutcome `json:"outcomes"`
}

// Drafted counts successful outcomes.
func (r *RunReport) Drafted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Success {
			n++
		}
	}
	return n
}

// Query is the mail search for candidate notes messages.
func (g *Gate) Query(broad bool) string {
	if broad {
		return fmt.Sprintf("from:%s subject:%s", g.cfg.NotesSender, mail.QuoteTerm(g.Matcher.required))
	}
	return fmt.Sprintf(`from:%s subject:"%s"`, g.cfg.NotesSender, g.cfg.ProductionSubject)
}

// Run processes one page of notes messages, sequentially. Only a failed
// search is returned as an error; per-message failures land in the report.
func (g *Gate) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	report := &RunReport{RunID: id.New(), StartedAt: time.Now().UTC(), DryRun: opts.DryRun}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RunID:     logger.Ptr(report.RunID),
		DryRun:    logger.Ptr(opts.DryRun),
		Component: "autodraft.gate",
	})
	sp := logger.StartSpan(ctx, "gate.run",
		attribute.Int64("run.id", report.RunID),
		attribute.Bool("run.dry_run", opts.DryRun))
	defer sp.End()
	ctx = sp.Context()

	query := g.Query(opts.Broad)
	messages, err := g.Mail.Search(ctx, query, g.cfg.PageSize)
	if err != nil {
		sp.RecordError(err)
		return nil, fmt.Errorf("searching notes messages: %w", err)
	}
	slog.InfoContext(ctx, "check started", "query", query, "candidates", len(messages))

	resources := g.Resources()
	for _, msg := range messages {
		outcome, handled := g.processSafe(ctx, msg, opts, resources)
		if !handled {
			continue
		}
		report.Outcomes = append(report.Outcomes, outcome)
		g.record(ctx, report.RunID, outcome, opts.DryRun)
	}

	report.FinishedAt = time.Now().UTC()
	sp.SetAttributes(
		attribute.Int("run.processed", len(report.Outcomes)),
		attribute.Int("run.drafted", report.Drafted()))
	slog.InfoContext(ctx, "check finished",
		"processed", len(report.Outcomes),
		"drafted", report.Drafted(),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds())
	return report, nil
}

// processSafe turns a panic while handling one message into a failed
// outcome so the rest of the page still runs.
func (g *Gate) processSafe(ctx context.Context, msg model.Message, opts RunOptions, resources ResourceFinder) (outcome model.DraftOutcome, handled bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"stack", string(debug.Stack()))
			g.Notifier.Error(ctx, fmt.Sprintf("Unexpected error while drafting: %v", r), "Subject: "+msg.Subject)
			outcome, handled = model.FailedOutcome(msg.ID, fmt.Sprintf("panic: %v", r)), true
		}
	}()
	return g.process(ctx, msg, opts, resources)
}

// process walks one message through the gate. handled is false for messages
// that were already processed or are not production notes.
func (g *Gate) process(ctx context.Context, msg model.Message, opts RunOptions, resources ResourceFinder) (outcome model.DraftOutcome, handled bool) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID: logger.Ptr(msg.ID),
		ThreadID:  logger.Ptr(msg.ThreadID),
	})
	sp := logger.StartSpan(ctx, "gate.process_message", attribute.String("message.id", msg.ID))
	defer sp.End()
	ctx = sp.Context()

	if !opts.DryRun {
		seen, err := g.Mail.HasLabel(ctx, msg.ID, g.cfg.ProcessedLabel)
		if err != nil {
			// Without the marker we cannot rule out a duplicate draft.
			sp.RecordError(err)
			slog.ErrorContext(ctx, "checking processed marker", "error", err)
			g.Notifier.Error(ctx, fmt.Sprintf("Failed to check processed label: %v", err), "Subject: "+msg.Subject)
			return model.FailedOutcome(msg.ID, err.Error()), true
		}
		if seen {
			slog.DebugContext(ctx, "already processed")
			return model.DraftOutcome{}, false
		}
	}

	hint, ok := g.Matcher.Match(msg.Subject)
	if !ok {
		slog.DebugContext(ctx, "subject does not match", "subject", msg.Subject)
		return model.DraftOutcome{}, false
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Artist: logger.Ptr(hint)})
	slog.InfoContext(ctx, "matching notes found", "subject", msg.Subject)

	facts, err := g.Extractor.Extract(ctx, msg.Body, hint)
	if err != nil {
		sp.RecordError(err)
		slog.ErrorContext(ctx, "extracting meeting notes", "error", err)
		g.Notifier.Error(ctx, fmt.Sprintf("Failed to parse meeting notes: %v", err), "Subject: "+msg.Subject)
		return model.FailedOutcome(msg.ID, err.Error()), true
	}

	if !facts.HasContact() {
		name := hint
		if name == "" {
			name = facts.ArtistFirstName
		}
		facts.ArtistEmail = g.Contacts.ResolveContact(ctx, name, msg.Body).Address
	}

	params := draft.AssembleParams{MessageID: msg.ID, Facts: facts, DryRun: opts.DryRun}
	if facts.HasContact() {
		if params.Resources, err = resources.FindResources(ctx, facts.ArtistFirstName, facts.ArtistEmail); err != nil {
			sp.RecordError(err)
			slog.ErrorContext(ctx, "resolving drive resources", "error", err)
			g.Notifier.Error(ctx, fmt.Sprintf("Failed to look up Drive folders: %v", err), "Artist: "+facts.ArtistFirstName)
			return model.FailedOutcome(msg.ID, err.Error()), true
		}
		params.ContractDates = g.contractDates(ctx, facts)
		params.ThreadID = g.existingThread(ctx, facts.ArtistEmail)
	}

	outcome = g.Assembler.Assemble(ctx, params)
	sp.SetAttributes(attribute.Bool("draft.success", outcome.Success))
	if !outcome.Success {
		slog.WarnContext(ctx, "draft not created", "error", outcome.Error)
		g.Notifier.Error(ctx, "Failed to generate draft: "+outcome.Error, "Artist: "+facts.ArtistFirstName)
		return outcome, true
	}

	if opts.DryRun {
		slog.InfoContext(ctx, "dry run complete", "artist", outcome.ResolvedName, "address", outcome.ResolvedAddress)
		return outcome, true
	}

	if err := g.Mail.AddLabel(ctx, msg.ID, g.cfg.ProcessedLabel); err != nil {
		// The draft exists; the next run may draft this message again.
		slog.ErrorContext(ctx, "marking message processed", "error", err, "draft_id", outcome.DraftID)
	}

	slog.InfoContext(ctx, "draft created", "draft_id", outcome.DraftID, "in_thread", outcome.InExistingThread)
	if outcome.DraftLink != "" {
		g.Notifier.DraftReady(ctx, notify.DraftNotice{
			ArtistName:  outcome.ResolvedName,
			ArtistEmail: outcome.ResolvedAddress,
			DraftLink:   outcome.DraftLink,
			InThread:    outcome.InExistingThread,
		})
	}
	return outcome, true
}

func (g *Gate) contractDates(ctx context.Context, facts *model.MeetingFacts) string {
	if g.Timeline == nil || facts.ContractTimeline != "" {
		return ""
	}
	dates, err := g.Timeline.ContractTimeline(ctx, facts.ArtistFirstName)
	if err != nil {
		slog.WarnContext(ctx, "reading contract timeline", "error", err)
		return ""
	}
	return dates
}

// existingThread is read-only, so it also runs in dry-run mode.
func (g *Gate) existingThread(ctx context.Context, address string) string {
	threadID, err := g.Mail.FindThreadWithContact(ctx, address)
	if err != nil {
		slog.WarnContext(ctx, "looking up thread with contact", "error", err)
		return ""
	}
	return threadID
}

func (g *Gate) record(ctx context.Context, runID int64, outcome model.DraftOutcome, dryRun bool) {
	if g.Recorder == nil {
		return
	}
	if err := g.Recorder.Record(ctx, runID, outcome, dryRun); err != nil {
		slog.WarnContext(ctx, "recording outcome", "error", err)
	}
}
