// Package identity resolves the person behind a pen name used in meeting notes:
// their contact address and, when folders cannot be found under the pen name,
// the legal name they use on mail and contracts.
//
// Every lookup is a cascade: an ordered list of strategies sharing one
// signature, tried until one produces a candidate. A miss is an empty result,
// never an error; mail search failures are logged and treated as misses.
package identity

import (
	"context"
	"log/slog"

	"autodraft.app/assistant/internal/model"
)

// Searcher is the slice of the mail store the resolver needs.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int64) ([]model.Message, error)
}

type Config struct {
	HostName        string   // meeting host, skipped on the invited line
	SystemTokens    []string // address fragments that mark automated senders
	InternalSenders []string // team members whose mail introduces artists
	SearchLimit     int64
	InternalLimit   int64
}

// query carries everything any strategy may look at.
type query struct {
	Name    string
	Address string
	Notes   string
}

type strategy func(ctx context.Context, q query) (model.CandidateIdentity, bool)

type Resolver struct {
	mail Searcher
	cfg  Config

	contactSteps []strategy
	legalSteps   []strategy
}

func NewResolver(mail Searcher, cfg Config) *Resolver {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 5
	}
	if cfg.InternalLimit <= 0 {
		cfg.InternalLimit = 3
	}
	r := &Resolver{mail: mail, cfg: cfg}
	r.contactSteps = []strategy{r.fromInvitedLine, r.fromInboxSender, r.fromSentRecipient}
	r.legalSteps = []strategy{r.fromSenderHeader, r.fromAddressLocalPart}
	return r
}

// ResolveContact finds an address for displayName. The returned candidate has
// an empty Address when every strategy missed.
func (r *Resolver) ResolveContact(ctx context.Context, displayName, rawNotes string) model.CandidateIdentity {
	c, ok := first(ctx, r.contactSteps, query{Name: displayName, Notes: rawNotes})
	if !ok {
		slog.InfoContext(ctx, "contact address unresolved", "name", displayName)
		return model.CandidateIdentity{DisplayName: displayName}
	}
	slog.InfoContext(ctx, "contact address resolved",
		"name", displayName,
		"address", c.Address,
		"source", c.Source)
	return c
}

// ResolveLegalName returns the name the artist uses on mail, falling back to
// penName when nothing better is known.
func (r *Resolver) ResolveLegalName(ctx context.Context, penName, address string) string {
	if address == "" {
		return penName
	}
	c, ok := first(ctx, r.legalSteps, query{Name: penName, Address: address})
	if !ok {
		return penName
	}
	slog.DebugContext(ctx, "legal name resolved", "pen_name", penName, "legal_name", c.DisplayName, "source", c.Source)
	return c.DisplayName
}

// ResolveInternalName mines internal team mail mentioning address for the
// artist's full name. Returns "" on a miss.
func (r *Resolver) ResolveInternalName(ctx context.Context, address string) string {
	if address == "" {
		return ""
	}
	c, ok := r.fromInternalMail(ctx, query{Address: address})
	if !ok {
		return ""
	}
	return c.DisplayName
}

func first(ctx context.Context, steps []strategy, q query) (model.CandidateIdentity, bool) {
	for _, step := range steps {
		if c, ok := step(ctx, q); ok {
			return c, true
		}
	}
	return model.CandidateIdentity{}, false
}

func (r *Resolver) search(ctx context.Context, q string, limit int64) []model.Message {
	msgs, err := r.mail.Search(ctx, q, limit)
	if err != nil {
		slog.WarnContext(ctx, "mail search failed", "query", q, "error", err)
		return nil
	}
	return msgs
}
