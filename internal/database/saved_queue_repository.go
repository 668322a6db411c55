package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/internal/queue"
)

// SavedQueueRepository persists final session queue orders keyed by the
// canonical selection key. It implements queue.Store.
type SavedQueueRepository struct {
	db *sqlx.DB
}

var _ queue.Store = (*SavedQueueRepository)(nil)

// NewSavedQueueRepository creates a new repository instance
func NewSavedQueueRepository(db *sqlx.DB) *SavedQueueRepository {
	return &SavedQueueRepository{db: db}
}

func (r *SavedQueueRepository) LoadQueue(ctx context.Context, key string) ([]string, bool, error) {
	var raw string
	err := r.db.GetContext(ctx, &raw, r.db.Rebind("SELECT item_ids FROM saved_queues WHERE selection_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to load saved queue")
	}

	ids := []string{}
	if err := decodeJSON(raw, &ids); err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (r *SavedQueueRepository) SaveQueue(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := encodeJSON(ids)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO saved_queues (selection_key, item_ids, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (selection_key) DO UPDATE SET
			item_ids = excluded.item_ids,
			updated_at = excluded.updated_at`),
		key, raw, time.Now().UTC(),
	)
	return errors.Wrap(err, "failed to save queue")
}

// All returns every saved queue
func (r *SavedQueueRepository) All(ctx context.Context) (queue.SavedQueueMap, error) {
	var rows []struct {
		Key string `db:"selection_key"`
		IDs string `db:"item_ids"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT selection_key, item_ids FROM saved_queues"); err != nil {
		return nil, errors.Wrap(err, "failed to list saved queues")
	}
	out := make(queue.SavedQueueMap, len(rows))
	for _, row := range rows {
		var ids []string
		if err := decodeJSON(row.IDs, &ids); err != nil {
			return nil, err
		}
		out[row.Key] = ids
	}
	return out, nil
}
