package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/pkg/models"
)

type itemRow struct {
	ID       string `db:"id"`
	TableID  string `db:"table_id"`
	Position int    `db:"position"`
	Data     string `db:"data"`
}

type statsRow struct {
	ItemID        string       `db:"item_id"`
	Mode          string       `db:"mode"`
	Again         int          `db:"again"`
	Hard          int          `db:"hard"`
	Good          int          `db:"good"`
	Easy          int          `db:"easy"`
	Perfect       int          `db:"perfect"`
	Reviewed      bool         `db:"reviewed"`
	InQueue       int          `db:"in_queue"`
	LastPracticed sql.NullTime `db:"last_practiced"`
}

func (row statsRow) toModel() models.ModeStats {
	ms := models.ModeStats{
		Ratings: models.RatingCounts{
			Again:   row.Again,
			Hard:    row.Hard,
			Good:    row.Good,
			Easy:    row.Easy,
			Perfect: row.Perfect,
		},
		Reviewed: row.Reviewed,
		InQueue:  row.InQueue,
	}
	if row.LastPracticed.Valid {
		t := row.LastPracticed.Time
		ms.LastPracticed = &t
	}
	return ms
}

type quizRow struct {
	ItemID string `db:"item_id"`
	Passed int    `db:"passed"`
	Failed int    `db:"failed"`
}

// ItemRepository handles database operations for table rows
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Append adds items to the end of an existing table
func (r *ItemRepository) Append(ctx context.Context, tableID string, items []*models.Item) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var next sql.NullInt64
	if err := tx.GetContext(ctx, &next, tx.Rebind("SELECT MAX(position) + 1 FROM items WHERE table_id = ?"), tableID); err != nil {
		return errors.Wrap(err, "failed to get item position")
	}
	for _, item := range items {
		item.TableID = tableID
	}
	if err := r.insert(ctx, tx, items, int(next.Int64)); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "failed to commit items")
}

func (r *ItemRepository) insert(ctx context.Context, tx *sqlx.Tx, items []*models.Item, position int) error {
	query := tx.Rebind("INSERT INTO items (id, table_id, position, data) VALUES (?, ?, ?, ?)")
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		data, err := encodeJSON(item.Values)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, item.ID, item.TableID, position+i, data); err != nil {
			return errors.Wrapf(err, "failed to create item %s", item.ID)
		}
	}
	return nil
}

// ListByTable returns the items of a table in import order with their stats
func (r *ItemRepository) ListByTable(ctx context.Context, tableID string) ([]*models.Item, error) {
	var rows []itemRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		"SELECT id, table_id, position, data FROM items WHERE table_id = ? ORDER BY position"), tableID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}

	items := make([]*models.Item, 0, len(rows))
	byID := make(map[string]*models.Item, len(rows))
	for _, row := range rows {
		item := &models.Item{ID: row.ID, TableID: row.TableID}
		if err := decodeJSON(row.Data, &item.Values); err != nil {
			return nil, err
		}
		items = append(items, item)
		byID[item.ID] = item
	}

	var stats []statsRow
	err = r.db.SelectContext(ctx, &stats, r.db.Rebind(`
		SELECT s.item_id, s.mode, s.again, s.hard, s.good, s.easy, s.perfect,
		       s.reviewed, s.in_queue, s.last_practiced
		FROM item_stats s
		JOIN items i ON i.id = s.item_id
		WHERE i.table_id = ?`), tableID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load item stats")
	}
	for _, row := range stats {
		item, ok := byID[row.ItemID]
		if !ok {
			continue
		}
		switch models.Mode(row.Mode) {
		case models.ModeScramble:
			item.Stats.Scramble = row.toModel()
		case models.ModeFlashcard:
			item.Stats.Flashcard = row.toModel()
		}
	}

	var quiz []quizRow
	err = r.db.SelectContext(ctx, &quiz, r.db.Rebind(`
		SELECT q.item_id, q.passed, q.failed
		FROM quiz_stats q
		JOIN items i ON i.id = q.item_id
		WHERE i.table_id = ?`), tableID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load quiz stats")
	}
	for _, row := range quiz {
		if item, ok := byID[row.ItemID]; ok {
			item.Stats.Quiz = models.QuizStats{Passed: row.Passed, Failed: row.Failed}
		}
	}

	return items, nil
}

// Count returns the number of items in a table
func (r *ItemRepository) Count(ctx context.Context, tableID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind("SELECT COUNT(*) FROM items WHERE table_id = ?"), tableID); err != nil {
		return 0, errors.Wrap(err, "failed to count items")
	}
	return n, nil
}
