package database

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/internal/logger"
	"github.com/example/vocabqueue/internal/session"
	"github.com/example/vocabqueue/pkg/models"
)

// JournalEntry records one card shown during a session
type JournalEntry struct {
	ID         string      `db:"id"`
	SessionID  string      `db:"session_id"`
	ItemID     string      `db:"item_id"`
	TableID    string      `db:"table_id"`
	RelationID string      `db:"relation_id"`
	Mode       models.Mode `db:"mode"`
	LoggedAt   time.Time   `db:"logged_at"`
}

// JournalRepository logs every current-card change of a session.
// Writes happen in the background; failures are logged and dropped.
type JournalRepository struct {
	db      *sqlx.DB
	log     *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

var _ session.Listener = (*JournalRepository)(nil)

// NewJournalRepository creates a new repository instance
func NewJournalRepository(db *sqlx.DB, log *logger.Logger) *JournalRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &JournalRepository{db: db, log: log, timeout: 5 * time.Second}
}

// CurrentChanged queues a journal write for the new card
func (r *JournalRepository) CurrentChanged(c session.Change) {
	if c.Card == nil || c.Card.Item == nil || c.Card.Relation == nil {
		return
	}
	tableID := c.Card.TableID
	if tableID == "" {
		tableID = c.Card.Item.TableID
	}
	entry := JournalEntry{
		ID:         uuid.NewString(),
		SessionID:  c.SessionID,
		ItemID:     c.Card.Item.ID,
		TableID:    tableID,
		RelationID: c.Card.Relation.ID,
		Mode:       c.Mode,
		LoggedAt:   c.At.UTC(),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.Insert(ctx, entry); err != nil {
			r.log.Warn("Failed to write journal entry", "session_id", entry.SessionID, "item_id", entry.ItemID, "error", err)
		}
	}()
}

// Wait blocks until pending background writes have finished
func (r *JournalRepository) Wait() {
	r.wg.Wait()
}

// Insert writes an entry synchronously
func (r *JournalRepository) Insert(ctx context.Context, e JournalEntry) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO journal (id, session_id, item_id, table_id, relation_id, mode, logged_at)
		VALUES (:id, :session_id, :item_id, :table_id, :relation_id, :mode, :logged_at)`, e)
	return errors.Wrap(err, "failed to insert journal entry")
}

// BySession returns a session's entries in the order they were logged
func (r *JournalRepository) BySession(ctx context.Context, sessionID string) ([]JournalEntry, error) {
	var entries []JournalEntry
	err := r.db.SelectContext(ctx, &entries, r.db.Rebind(`
		SELECT id, session_id, item_id, table_id, relation_id, mode, logged_at
		FROM journal WHERE session_id = ? ORDER BY logged_at, id`), sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list journal entries")
	}
	return entries, nil
}
