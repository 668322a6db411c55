package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/pkg/models"
)

type relationRow struct {
	ID           string `db:"id"`
	TableID      string `db:"table_id"`
	Name         string `db:"name"`
	QuestionCols string `db:"question_cols"`
	AnswerCols   string `db:"answer_cols"`
	Modes        string `db:"modes"`
}

func (row relationRow) toModel() (*models.Relation, error) {
	rel := &models.Relation{ID: row.ID, TableID: row.TableID, Name: row.Name}
	if err := decodeJSON(row.QuestionCols, &rel.QuestionCols); err != nil {
		return nil, err
	}
	if err := decodeJSON(row.AnswerCols, &rel.AnswerCols); err != nil {
		return nil, err
	}
	if err := decodeJSON(row.Modes, &rel.Modes); err != nil {
		return nil, err
	}
	return rel, nil
}

// RelationRepository handles database operations for question/answer relations
type RelationRepository struct {
	db *sqlx.DB
}

// NewRelationRepository creates a new repository instance
func NewRelationRepository(db *sqlx.DB) *RelationRepository {
	return &RelationRepository{db: db}
}

// Create inserts a relation, assigning an id when missing
func (r *RelationRepository) Create(ctx context.Context, rel *models.Relation) error {
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}
	question, err := encodeJSON(rel.QuestionCols)
	if err != nil {
		return err
	}
	answer, err := encodeJSON(rel.AnswerCols)
	if err != nil {
		return err
	}
	modes, err := encodeJSON(rel.Modes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO relations (id, table_id, name, question_cols, answer_cols, modes)
		VALUES (?, ?, ?, ?, ?, ?)`),
		rel.ID, rel.TableID, rel.Name, question, answer, modes,
	)
	return errors.Wrap(err, "failed to create relation")
}

// ListByTables returns the relations of the given tables; no ids lists all
func (r *RelationRepository) ListByTables(ctx context.Context, tableIDs []string) ([]*models.Relation, error) {
	query := "SELECT id, table_id, name, question_cols, answer_cols, modes FROM relations"
	var args []interface{}
	if len(tableIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query+" WHERE table_id IN (?)", tableIDs)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build relation query")
		}
	}
	query = r.db.Rebind(query + " ORDER BY table_id, name, id")

	var rows []relationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list relations")
	}
	relations := make([]*models.Relation, 0, len(rows))
	for _, row := range rows {
		rel, err := row.toModel()
		if err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}
	return relations, nil
}
