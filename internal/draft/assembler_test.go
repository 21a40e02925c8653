package draft_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"autodraft.app/assistant/internal/draft"
	"autodraft.app/assistant/internal/model"
)

var cfg = draft.Config{
	ReferencesLink:     "https://drive.example/references",
	TechGuidelinesLink: "https://docs.example/guidelines",
	ReplySubject:       "Re: Course Production",
	NewSubject:         "Course Production - Follow Up",
	Signature:          "Marian",
}

func facts() *model.MeetingFacts {
	return &model.MeetingFacts{
		ArtistFirstName:     "Jane",
		ArtistEmail:         "jane@example.com",
		CourseSubject:       "Portrait painting",
		OutlineDeliveryDate: "March 5th",
		ActionItems:         []string{"Send outline", "Record demo"},
	}
}

func resources() model.Resources {
	return model.Resources{
		ArtistFolder: &model.ResourceHandle{ID: "jane", Name: "Jane"},
		EditFolder:   &model.ResourceHandle{ID: "edit", Link: "https://drive.example/edit"},
		OutlineDoc:   &model.ResourceHandle{ID: "outline"},
		NameUsed:     "Jane",
	}
}

var _ = Describe("Assembler", func() {
	var (
		ctx     context.Context
		creator *mockCreator
		a       *draft.Assembler
	)

	BeforeEach(func() {
		ctx = context.Background()
		creator = &mockCreator{}
		var err error
		a, err = draft.NewAssembler(creator, cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("fails fast without a contact address", func() {
		f := facts()
		f.ArtistEmail = ""

		outcome := a.Assemble(ctx, draft.AssembleParams{MessageID: "n-1", Facts: f, Resources: resources()})

		Expect(outcome.Success).To(BeFalse())
		Expect(outcome.MessageID).To(Equal("n-1"))
		Expect(outcome.Error).NotTo(BeEmpty())
		Expect(creator.requests).To(BeEmpty())
	})

	It("creates a rich-text reply draft in the existing thread", func() {
		outcome := a.Assemble(ctx, draft.AssembleParams{
			MessageID: "n-1",
			Facts:     facts(),
			Resources: resources(),
			ThreadID:  "t-1",
		})

		Expect(outcome.Success).To(BeTrue())
		Expect(outcome.DraftID).To(Equal("draft-1"))
		Expect(outcome.DraftLink).To(Equal("https://mail.google.com/mail/u/0/#drafts?compose=msg-1"))
		Expect(outcome.InExistingThread).To(BeTrue())
		Expect(outcome.ResolvedAddress).To(Equal("jane@example.com"))

		Expect(creator.requests).To(HaveLen(1))
		req := creator.requests[0]
		Expect(req.To).To(Equal("jane@example.com"))
		Expect(req.Subject).To(Equal("Re: Course Production"))
		Expect(req.ThreadID).To(Equal("t-1"))
		Expect(req.TextBody).To(ContainSubstring("Hi Jane,"))
		Expect(req.HTMLBody).To(ContainSubstring(`<a href="https://drive.example/edit">_artist_edit folder</a>`))
		Expect(req.HTMLBody).To(ContainSubstring(`<a href="https://drive.google.com/open?id=outline">Course Outline</a>`))
		Expect(req.HTMLBody).To(ContainSubstring("<li>Send outline</li>"))
	})

	It("uses the first-contact subject without a thread", func() {
		outcome := a.Assemble(ctx, draft.AssembleParams{Facts: facts(), Resources: resources()})

		Expect(outcome.InExistingThread).To(BeFalse())
		Expect(creator.requests[0].Subject).To(Equal("Course Production - Follow Up"))
	})

	It("substitutes placeholders for missing resources", func() {
		rendered, err := a.Render(draft.AssembleParams{Facts: facts(), Resources: model.Resources{NameUsed: "Jane"}})

		Expect(err).NotTo(HaveOccurred())
		Expect(rendered.TextBody).To(ContainSubstring("[Link to _artist_edit folder - NOT FOUND]"))
		Expect(rendered.TextBody).To(ContainSubstring("[Link to Course Outline - NOT FOUND]"))
	})

	It("fills the contract timeline from the sheet when the notes have none", func() {
		rendered, err := a.Render(draft.AssembleParams{Facts: facts(), Resources: resources(), ContractDates: "Jan 5 - Mar 1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rendered.TextBody).To(ContainSubstring("- Contract timeline: Jan 5 - Mar 1"))

		f := facts()
		f.ContractTimeline = "Spring"
		rendered, err = a.Render(draft.AssembleParams{Facts: f, Resources: resources(), ContractDates: "Jan 5 - Mar 1"})
		Expect(err).NotTo(HaveOccurred())
		Expect(rendered.TextBody).To(ContainSubstring("- Contract timeline: Spring"))
	})

	It("omits empty sections", func() {
		f := facts()
		f.OutlineDeliveryDate = ""
		f.ActionItems = []string{}

		rendered, err := a.Render(draft.AssembleParams{Facts: f, Resources: resources()})

		Expect(err).NotTo(HaveOccurred())
		Expect(rendered.TextBody).NotTo(ContainSubstring("Key dates"))
		Expect(rendered.TextBody).NotTo(ContainSubstring("Next steps"))
	})

	It("succeeds in dry run without creating a draft", func() {
		outcome := a.Assemble(ctx, draft.AssembleParams{Facts: facts(), Resources: model.Resources{NameUsed: "Jane"}, DryRun: true})

		Expect(outcome.Success).To(BeTrue())
		Expect(outcome.DraftID).To(BeEmpty())
		Expect(outcome.ResolvedName).To(Equal("Jane"))
		Expect(creator.requests).To(BeEmpty())
	})

	It("records draft creation failures", func() {
		creator.createFn = func(context.Context, model.DraftRequest) (*model.Draft, error) {
			return nil, errors.New("insufficient permissions")
		}

		outcome := a.Assemble(ctx, draft.AssembleParams{MessageID: "n-1", Facts: facts(), Resources: resources()})

		Expect(outcome.Success).To(BeFalse())
		Expect(outcome.Error).To(ContainSubstring("insufficient permissions"))
		Expect(outcome.ResolvedAddress).To(Equal("jane@example.com"))
	})
})
