package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// schema is valid for both sqlite and postgres. Ids are text so no
// driver-specific sequences are needed.
var schema = []struct {
	name string
	ddl  string
}{
	{"word_tables", `
		CREATE TABLE IF NOT EXISTS word_tables (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			columns TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`},
	{"items", `
		CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			table_id TEXT NOT NULL REFERENCES word_tables(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			data TEXT NOT NULL
		)`},
	{"item_stats", `
		CREATE TABLE IF NOT EXISTS item_stats (
			item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			mode TEXT NOT NULL,
			again INTEGER NOT NULL DEFAULT 0,
			hard INTEGER NOT NULL DEFAULT 0,
			good INTEGER NOT NULL DEFAULT 0,
			easy INTEGER NOT NULL DEFAULT 0,
			perfect INTEGER NOT NULL DEFAULT 0,
			reviewed BOOLEAN NOT NULL DEFAULT FALSE,
			in_queue INTEGER NOT NULL DEFAULT 0,
			last_practiced TIMESTAMP NULL,
			PRIMARY KEY (item_id, mode)
		)`},
	{"quiz_stats", `
		CREATE TABLE IF NOT EXISTS quiz_stats (
			item_id TEXT PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
			passed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`},
	{"relations", `
		CREATE TABLE IF NOT EXISTS relations (
			id TEXT PRIMARY KEY,
			table_id TEXT NOT NULL REFERENCES word_tables(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			question_cols TEXT NOT NULL,
			answer_cols TEXT NOT NULL,
			modes TEXT NOT NULL
		)`},
	{"saved_queues", `
		CREATE TABLE IF NOT EXISTS saved_queues (
			selection_key TEXT PRIMARY KEY,
			item_ids TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`},
	{"journal", `
		CREATE TABLE IF NOT EXISTS journal (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			item_id TEXT NOT NULL,
			table_id TEXT NOT NULL,
			relation_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			logged_at TIMESTAMP NOT NULL
		)`},
}

// Migrate creates any missing tables
func Migrate(db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s table", s.name)
		}
	}
	return nil
}
