package database

import (
	"github.com/jmoiron/sqlx"

	"github.com/example/vocabqueue/internal/logger"
)

// Repositories groups every repository over one connection
type Repositories struct {
	DB        *sqlx.DB
	Tables    *TableRepository
	Items     *ItemRepository
	Relations *RelationRepository
	Stats     *StatsRepository
	Queues    *SavedQueueRepository
	Journal   *JournalRepository
}

// NewRepositories wires all repositories to db
func NewRepositories(db *sqlx.DB, log *logger.Logger) *Repositories {
	return &Repositories{
		DB:        db,
		Tables:    NewTableRepository(db),
		Items:     NewItemRepository(db),
		Relations: NewRelationRepository(db),
		Stats:     NewStatsRepository(db),
		Queues:    NewSavedQueueRepository(db),
		Journal:   NewJournalRepository(db, log),
	}
}

// Close waits for pending journal writes and closes the connection
func (r *Repositories) Close() error {
	r.Journal.Wait()
	return r.DB.Close()
}
