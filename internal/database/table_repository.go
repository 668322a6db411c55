package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/pkg/models"
)

type tableRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Columns   string    `db:"columns"`
	CreatedAt time.Time `db:"created_at"`
}

func (row tableRow) toModel() (*models.Table, error) {
	t := &models.Table{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt}
	if err := decodeJSON(row.Columns, &t.Columns); err != nil {
		return nil, err
	}
	return t, nil
}

// TableRepository handles database operations for word tables
type TableRepository struct {
	db    *sqlx.DB
	items *ItemRepository
}

// NewTableRepository creates a new repository instance
func NewTableRepository(db *sqlx.DB) *TableRepository {
	return &TableRepository{db: db, items: NewItemRepository(db)}
}

// Create stores the table and its items in one transaction.
// Missing ids are filled with fresh uuids.
func (r *TableRepository) Create(ctx context.Context, table *models.Table) error {
	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	if table.CreatedAt.IsZero() {
		table.CreatedAt = time.Now().UTC()
	}
	columns, err := encodeJSON(table.Columns)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(
		"INSERT INTO word_tables (id, name, columns, created_at) VALUES (?, ?, ?, ?)"),
		table.ID, table.Name, columns, table.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create table")
	}

	for _, item := range table.Items {
		item.TableID = table.ID
	}
	if err := r.items.insert(ctx, tx, table.Items, 0); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit table")
}

// List returns every table without its items, oldest first
func (r *TableRepository) List(ctx context.Context) ([]*models.Table, error) {
	var rows []tableRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, name, columns, created_at FROM word_tables ORDER BY created_at, name"); err != nil {
		return nil, errors.Wrap(err, "failed to list tables")
	}
	tables := make([]*models.Table, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Get returns a table with all its items and their stats
func (r *TableRepository) Get(ctx context.Context, id string) (*models.Table, error) {
	var row tableRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT id, name, columns, created_at FROM word_tables WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get table")
	}

	t, err := row.toModel()
	if err != nil {
		return nil, err
	}
	if t.Items, err = r.items.ListByTable(ctx, id); err != nil {
		return nil, err
	}
	return t, nil
}

// Load returns the tables with ids, fully populated, in the given order.
// Unknown ids are skipped. No ids loads every table.
func (r *TableRepository) Load(ctx context.Context, ids []string) ([]*models.Table, error) {
	if len(ids) == 0 {
		all, err := r.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range all {
			ids = append(ids, t.ID)
		}
	}

	tables := make([]*models.Table, 0, len(ids))
	for _, id := range ids {
		t, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Delete removes a table together with its items, stats and relations
func (r *TableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM word_tables WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "failed to delete table")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
