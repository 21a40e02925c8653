package gate

import (
	"context"

	"autodraft.app/assistant/internal/draft"
	"autodraft.app/assistant/internal/model"
	"autodraft.app/assistant/internal/notify"
)

type Extractor interface {
	Extract(ctx context.Context, rawText, nameHint string) (*model.MeetingFacts, error)
}

type ContactResolver interface {
	ResolveContact(ctx context.Context, displayName, rawNotes string) model.CandidateIdentity
}

type ResourceFinder interface {
	FindResources(ctx context.Context, name, address string) (model.Resources, error)
}

// ResourceFinderFactory builds a finder for one run so its caches die with the run.
type ResourceFinderFactory func() ResourceFinder

type Assembler interface {
	Assemble(ctx context.Context, p draft.AssembleParams) model.DraftOutcome
}

// TimelineSource reads contract dates from the tracking sheet. Optional.
type TimelineSource interface {
	ContractTimeline(ctx context.Context, artist string) (string, error)
}

type Notifier interface {
	DraftReady(ctx context.Context, d notify.DraftNotice)
	Error(ctx context.Context, message, detail string)
}

// Recorder keeps an audit trail of outcomes. Optional, never consulted as the marker.
type Recorder interface {
	Record(ctx context.Context, runID int64, outcome model.DraftOutcome, dryRun bool) error
}
