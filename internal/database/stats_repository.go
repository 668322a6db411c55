package database

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/internal/session"
	"github.com/example/vocabqueue/pkg/models"
)

// StatsRepository folds finished sessions back into item stats
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new repository instance
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

type statsDelta struct {
	ratings  models.RatingCounts
	reviewed bool
	inQueue  int
}

// statsMode is the counter set a session mode writes to.
// Scramble keeps its own counters; every other mode shares the flashcard ones.
func statsMode(mode models.Mode) models.Mode {
	if mode == models.ModeScramble {
		return models.ModeScramble
	}
	return models.ModeFlashcard
}

// ApplyResult adds the session's rating deltas, marks reviewed items as
// practiced at now and counts one queue entry for every queued item, all in
// one transaction. Counters only ever grow.
func (r *StatsRepository) ApplyResult(ctx context.Context, result *session.Result, now time.Time) error {
	if result == nil {
		return nil
	}

	deltas := make(map[string]*statsDelta)
	get := func(id string) *statsDelta {
		d, ok := deltas[id]
		if !ok {
			d = &statsDelta{}
			deltas[id] = d
		}
		return d
	}
	for _, id := range result.Queued {
		get(id).inQueue++
	}
	for _, id := range result.Reviewed {
		get(id).reviewed = true
	}
	for id, c := range result.Ratings {
		d := get(id)
		d.ratings = d.ratings.Add(c)
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	upsertStats := tx.Rebind(`
		INSERT INTO item_stats (item_id, mode, again, hard, good, easy, perfect, reviewed, in_queue, last_practiced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (item_id, mode) DO UPDATE SET
			again = item_stats.again + excluded.again,
			hard = item_stats.hard + excluded.hard,
			good = item_stats.good + excluded.good,
			easy = item_stats.easy + excluded.easy,
			perfect = item_stats.perfect + excluded.perfect,
			reviewed = item_stats.reviewed OR excluded.reviewed,
			in_queue = item_stats.in_queue + excluded.in_queue,
			last_practiced = COALESCE(excluded.last_practiced, item_stats.last_practiced)`)

	mode := string(statsMode(result.Mode))
	practiced := now.UTC()
	for _, id := range ids {
		d := deltas[id]
		last := sql.NullTime{Time: practiced, Valid: d.reviewed}
		_, err := tx.ExecContext(ctx, upsertStats,
			id, mode,
			d.ratings.Again, d.ratings.Hard, d.ratings.Good, d.ratings.Easy, d.ratings.Perfect,
			d.reviewed, d.inQueue, last,
		)
		if err != nil {
			return errors.Wrapf(err, "failed to update stats for item %s", id)
		}
	}

	upsertQuiz := tx.Rebind(`
		INSERT INTO quiz_stats (item_id, passed, failed) VALUES (?, ?, ?)
		ON CONFLICT (item_id) DO UPDATE SET
			passed = quiz_stats.passed + excluded.passed,
			failed = quiz_stats.failed + excluded.failed`)
	for id, q := range result.Quiz {
		if _, err := tx.ExecContext(ctx, upsertQuiz, id, q.Passed, q.Failed); err != nil {
			return errors.Wrapf(err, "failed to update quiz stats for item %s", id)
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit stats")
}
