// Package mail provides the mail store consumed by the gate and the identity
// resolver: search, read, label bookkeeping and draft creation. Sending is never
// exposed; the OAuth scopes requested in internal/auth do not include it.
package mail

import (
	"context"

	"autodraft.app/assistant/internal/model"
)

// Store abstracts the mailbox for testability.
type Store interface {
	Search(ctx context.Context, query string, maxResults int64) ([]model.Message, error)
	Get(ctx context.Context, id string) (*model.Message, error)
	CreateDraft(ctx context.Context, req model.DraftRequest) (*model.Draft, error)
	HasLabel(ctx context.Context, messageID, label string) (bool, error)
	AddLabel(ctx context.Context, messageID, label string) error
	// FindThreadWithContact returns the id of the most recent thread with the
	// address, or "" when there is none.
	FindThreadWithContact(ctx context.Context, address string) (string, error)
}

// QuoteTerm wraps a search term in quotes when it contains whitespace so
// "from:Jane Doe" is not split into two terms.
func QuoteTerm(term string) string {
	for _, r := range term {
		if r == ' ' || r == '\t' {
			return `"` + term + `"`
		}
	}
	return term
}
