package models

import "strings"

// Relation maps some of a table's columns to the question role and some to
// the answer role. AnswerCols may be empty for scramble-only relations.
type Relation struct {
	ID           string   `json:"id" db:"id"`
	TableID      string   `json:"table_id" db:"table_id"`
	Name         string   `json:"name" db:"name"`
	QuestionCols []string `json:"question_cols"`
	AnswerCols   []string `json:"answer_cols"`
	Modes        []Mode   `json:"modes"`
}

// Supports reports whether any of modes is declared by the relation
func (r *Relation) Supports(modes ...Mode) bool {
	for _, want := range modes {
		for _, have := range r.Modes {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Question joins the item's question column values with single spaces
func (r *Relation) Question(item *Item) string {
	return joinValues(item, r.QuestionCols)
}

// Answer joins the item's answer column values with single spaces
func (r *Relation) Answer(item *Item) string {
	return joinValues(item, r.AnswerCols)
}

func joinValues(item *Item, cols []string) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		if v := strings.TrimSpace(item.Value(col)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// SessionCard binds one item to one relation for the lifetime of a session.
// Ratings starts as a copy of the item's counters for the session mode and is
// mutated by the scheduler; the persistent Stats are never touched.
type SessionCard struct {
	Item     *Item        `json:"item"`
	Relation *Relation    `json:"relation"`
	Ratings  RatingCounts `json:"ratings"`
	// TableID is the table the item was drawn from
	TableID string `json:"table_id"`
}

// ItemID is a nil-safe accessor for the card's item id
func (c *SessionCard) ItemID() string {
	if c == nil || c.Item == nil {
		return ""
	}
	return c.Item.ID
}

// Question renders the question side of the card
func (c *SessionCard) Question() string {
	return c.Relation.Question(c.Item)
}

// Answer renders the answer side of the card
func (c *SessionCard) Answer() string {
	return c.Relation.Answer(c.Item)
}
