// Package draft renders the follow-up email for one meeting and stores it as a
// draft. Nothing here sends mail.
package draft

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"autodraft.app/assistant/common/logger"
	"autodraft.app/assistant/internal/model"
)

//go:embed templates/artist_followup.md
var followupTemplate string

const notFound = "NOT FOUND"

// Creator is the slice of the mail store the assembler writes to.
type Creator interface {
	CreateDraft(ctx context.Context, req model.DraftRequest) (*model.Draft, error)
}

type Config struct {
	ReferencesLink     string
	TechGuidelinesLink string
	ReplySubject       string
	NewSubject         string
	Signature          string
}

type Assembler struct {
	mail Creator
	cfg  Config
	tmpl *template.Template
	md   goldmark.Markdown
}

type AssembleParams struct {
	MessageID     string // source notes message, copied into the outcome
	Facts         *model.MeetingFacts
	Resources     model.Resources
	ThreadID      string // existing thread with the contact, "" for a first contact
	ContractDates string // timeline from the tracking sheet, used when the notes have none
	DryRun        bool
}

// Rendered is the message as it would be stored.
type Rendered struct {
	Subject  string
	TextBody string
	HTMLBody string
}

func NewAssembler(mail Creator, cfg Config) (*Assembler, error) {
	tmpl, err := template.New("artist_followup").
		Funcs(template.FuncMap{"link": markdownLink}).
		Parse(followupTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing followup template: %w", err)
	}
	return &Assembler{
		mail: mail,
		cfg:  cfg,
		tmpl: tmpl,
		md:   goldmark.New(goldmark.WithExtensions(extension.Linkify)),
	}, nil
}

// Assemble renders and, unless DryRun, creates the draft. It never panics and
// never returns an error; failures are carried in the outcome.
func (a *Assembler) Assemble(ctx context.Context, p AssembleParams) model.DraftOutcome {
	if !p.Facts.HasContact() {
		return model.FailedOutcome(p.MessageID, "could not resolve a contact address for the artist")
	}

	name := p.Facts.ArtistFirstName
	if p.Resources.ArtistFolder != nil && p.Resources.NameUsed != "" {
		name = p.Resources.NameUsed
	}
	if name == "" {
		return model.FailedOutcome(p.MessageID, "no artist name in meeting notes")
	}

	rendered, err := a.Render(p)
	if err != nil {
		return model.FailedOutcome(p.MessageID, err.Error())
	}

	outcome := model.DraftOutcome{
		MessageID:        p.MessageID,
		ResolvedName:     name,
		ResolvedAddress:  p.Facts.ArtistEmail,
		InExistingThread: p.ThreadID != "",
	}

	if p.DryRun {
		slog.InfoContext(ctx, "dry run: draft not created",
			"to", p.Facts.ArtistEmail,
			"subject", rendered.Subject,
			"body", logger.Truncate(rendered.TextBody, 2000))
		outcome.Success = true
		return outcome
	}

	created, err := a.mail.CreateDraft(ctx, model.DraftRequest{
		To:       p.Facts.ArtistEmail,
		Subject:  rendered.Subject,
		TextBody: rendered.TextBody,
		HTMLBody: rendered.HTMLBody,
		ThreadID: p.ThreadID,
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = true
	outcome.DraftID = created.ID
	outcome.DraftLink = created.DraftLink()
	return outcome
}

// Render builds subject and bodies without touching the mail store.
func (a *Assembler) Render(p AssembleParams) (Rendered, error) {
	subject := a.cfg.NewSubject
	if p.ThreadID != "" {
		subject = a.cfg.ReplySubject
	}

	var text bytes.Buffer
	if err := a.tmpl.Execute(&text, a.templateData(p)); err != nil {
		return Rendered{}, fmt.Errorf("rendering followup template: %w", err)
	}

	var html bytes.Buffer
	if err := a.md.Convert(text.Bytes(), &html); err != nil {
		return Rendered{}, fmt.Errorf("converting followup to html: %w", err)
	}

	return Rendered{Subject: subject, TextBody: text.String(), HTMLBody: html.String()}, nil
}

type templateData struct {
	FirstName           string
	CourseSubject       string
	EditLink            string
	OutlineLink         string
	ReferencesLink      string
	TechGuidelinesLink  string
	OutlineDeliveryDate string
	DemoVideoDate       string
	ContractTimeline    string
	CheckinSchedule     string
	NextCheckinDate     string
	ActionItems         []string
	Signature           string
}

func (d templateData) HasDates() bool {
	return d.OutlineDeliveryDate != "" || d.DemoVideoDate != "" || d.ContractTimeline != "" ||
		d.CheckinSchedule != "" || d.NextCheckinDate != ""
}

func (a *Assembler) templateData(p AssembleParams) templateData {
	f := p.Facts
	d := templateData{
		FirstName:           f.ArtistFirstName,
		CourseSubject:       f.CourseSubject,
		ReferencesLink:      a.cfg.ReferencesLink,
		TechGuidelinesLink:  a.cfg.TechGuidelinesLink,
		OutlineDeliveryDate: f.OutlineDeliveryDate,
		DemoVideoDate:       f.DemoVideoDate,
		ContractTimeline:    f.ContractTimeline,
		CheckinSchedule:     f.CheckinSchedule,
		NextCheckinDate:     f.NextCheckinDate,
		ActionItems:         f.ActionItems,
		Signature:           a.cfg.Signature,
	}
	if d.CourseSubject == "" {
		d.CourseSubject = "[Course Subject]"
	}
	if d.ContractTimeline == "" {
		d.ContractTimeline = p.ContractDates
	}
	if h := p.Resources.EditFolder; h != nil {
		d.EditLink = h.ShareableLink()
	}
	if h := p.Resources.OutlineDoc; h != nil {
		d.OutlineLink = h.ShareableLink()
	}
	return d
}

// markdownLink renders [label](url), or a visible placeholder when url is empty.
func markdownLink(label, url string) string {
	if url == "" {
		return fmt.Sprintf("[Link to %s - %s]", label, notFound)
	}
	return fmt.Sprintf("[%s](%s)", label, url)
}
