// Package runlog keeps an audit trail of draft outcomes in Postgres. It is
// write-mostly and is never consulted to decide whether a message was handled;
// the mail label remains the only processed marker.
package runlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"autodraft.app/assistant/common/id"
	"autodraft.app/assistant/core/db"
	"autodraft.app/assistant/internal/model"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS draft_outcomes (
	id                 BIGINT PRIMARY KEY,
	run_id             BIGINT NOT NULL,
	message_id         TEXT NOT NULL,
	success            BOOLEAN NOT NULL,
	draft_id           TEXT,
	draft_link         TEXT,
	error              TEXT,
	resolved_name      TEXT,
	resolved_address   TEXT,
	in_existing_thread BOOLEAN NOT NULL DEFAULT FALSE,
	dry_run            BOOLEAN NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const runIndex = `CREATE INDEX IF NOT EXISTS draft_outcomes_run_id_idx ON draft_outcomes (run_id)`

// Entry is one persisted outcome.
type Entry struct {
	ID        int64              `json:"id,string"`
	RunID     int64              `json:"run_id,string"`
	DryRun    bool               `json:"dry_run"`
	CreatedAt time.Time          `json:"created_at"`
	Outcome   model.DraftOutcome `json:"outcome"`
}

type Store struct {
	db *db.DB
}

func New(database *db.DB) *Store {
	return &Store{db: database}
}

// EnsureSchema creates the outcomes table and its index if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("creating draft_outcomes: %w", err)
		}
		if _, err := tx.Exec(ctx, runIndex); err != nil {
			return fmt.Errorf("creating draft_outcomes index: %w", err)
		}
		return nil
	})
}

func (s *Store) Record(ctx context.Context, runID int64, outcome model.DraftOutcome, dryRun bool) error {
	_, err := s.db.Pool().Exec(ctx, `
		INSERT INTO draft_outcomes (
			id, run_id, message_id, success, draft_id, draft_link, error,
			resolved_name, resolved_address, in_existing_thread, dry_run
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		id.New(), runID, outcome.MessageID, outcome.Success,
		nullable(outcome.DraftID), nullable(outcome.DraftLink), nullable(outcome.Error),
		nullable(outcome.ResolvedName), nullable(outcome.ResolvedAddress),
		outcome.InExistingThread, dryRun,
	)
	if err != nil {
		return fmt.Errorf("inserting outcome for %s: %w", outcome.MessageID, err)
	}
	return nil
}

const selectColumns = `
	SELECT id, run_id, message_id, success, draft_id, draft_link, error,
	       resolved_name, resolved_address, in_existing_thread, dry_run, created_at
	FROM draft_outcomes`

// ListRecent returns the newest outcomes first.
func (s *Store) ListRecent(ctx context.Context, limit int32) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Pool().Query(ctx, selectColumns+` ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outcomes: %w", err)
	}
	return collect(rows)
}

// LastRun returns every outcome of the most recent run, or ErrNotFound when
// nothing was recorded yet.
func (s *Store) LastRun(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.Pool().Query(ctx, selectColumns+`
		WHERE run_id = (SELECT max(run_id) FROM draft_outcomes)
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing last run: %w", err)
	}
	entries, err := collect(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}

func collect(rows pgx.Rows) ([]Entry, error) {
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("scanning outcomes: %w", err)
	}
	return entries, nil
}

func scanEntry(row pgx.CollectableRow) (Entry, error) {
	var (
		e                                         Entry
		draftID, draftLink, errMsg, name, address *string
	)
	err := row.Scan(&e.ID, &e.RunID, &e.Outcome.MessageID, &e.Outcome.Success,
		&draftID, &draftLink, &errMsg, &name, &address,
		&e.Outcome.InExistingThread, &e.DryRun, &e.CreatedAt)
	if err != nil {
		return Entry{}, err
	}
	e.Outcome.DraftID = deref(draftID)
	e.Outcome.DraftLink = deref(draftLink)
	e.Outcome.Error = deref(errMsg)
	e.Outcome.ResolvedName = deref(name)
	e.Outcome.ResolvedAddress = deref(address)
	return e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
