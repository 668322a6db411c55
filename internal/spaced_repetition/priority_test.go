package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/vocabqueue/pkg/models"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func practicedAgo(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func TestScore_FailedIsMonotonic(t *testing.T) {
	s := NewScorer()
	item := &models.Item{Stats: models.Stats{Flashcard: models.ModeStats{
		Ratings:       models.RatingCounts{Good: 4, Easy: 2},
		InQueue:       3,
		LastPracticed: practicedAgo(48 * time.Hour),
	}}}

	prev := s.Score(item, models.ModeFlashcard, 5, now)
	for i := 0; i < 20; i++ {
		item.Stats.Flashcard.Ratings.Increment(models.RatingAgain)
		score := s.Score(item, models.ModeFlashcard, 5, now)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}

	for i := 0; i < 5; i++ {
		item.Stats.Quiz.Failed++
		score := s.Score(item, models.ModeQuiz, 5, now)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestScore_InQueueIsMonotonic(t *testing.T) {
	s := NewScorer()
	item := &models.Item{}

	prev := s.Score(item, models.ModeFlashcard, 10, now)
	for i := 1; i <= 10; i++ {
		item.Stats.Flashcard.InQueue = i
		score := s.Score(item, models.ModeFlashcard, 10, now)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestScore_ZeroPoolMax(t *testing.T) {
	s := NewScorer()
	item := &models.Item{Stats: models.Stats{Flashcard: models.ModeStats{InQueue: 2}}}

	score := s.Score(item, models.ModeFlashcard, 0, now)
	assert.False(t, score != score, "score must not be NaN")
	assert.InDelta(t, 0.4+0.2*2, score, 1e-9)
}

func TestScore_Recency(t *testing.T) {
	s := NewScorer()
	fresh := &models.Item{Stats: models.Stats{Flashcard: models.ModeStats{LastPracticed: practicedAgo(time.Minute)}}}
	week := &models.Item{Stats: models.Stats{Flashcard: models.ModeStats{LastPracticed: practicedAgo(7 * 24 * time.Hour)}}}
	never := &models.Item{}

	assert.Less(t, s.Score(fresh, models.ModeFlashcard, 1, now), s.Score(week, models.ModeFlashcard, 1, now))
	assert.Less(t, s.Score(week, models.ModeFlashcard, 1, now), s.Score(never, models.ModeFlashcard, 1, now))
	assert.InDelta(t, 0.4*0.5, s.Score(week, models.ModeFlashcard, 1, now), 1e-9)
}

func TestScore_UsesModeCounters(t *testing.T) {
	s := NewScorer()
	item := &models.Item{Stats: models.Stats{
		Scramble: models.ModeStats{Ratings: models.RatingCounts{Again: 3}},
	}}
	assert.Greater(t, s.Score(item, models.ModeScramble, 1, now), s.Score(item, models.ModeFlashcard, 1, now))
}

func TestMaxInQueue(t *testing.T) {
	items := []*models.Item{
		{Stats: models.Stats{Flashcard: models.ModeStats{InQueue: 2}}},
		{Stats: models.Stats{Flashcard: models.ModeStats{InQueue: 7}, Scramble: models.ModeStats{InQueue: 1}}},
	}
	assert.Equal(t, 7, MaxInQueue(items, models.ModeFlashcard))
	assert.Equal(t, 1, MaxInQueue(items, models.ModeScramble))
	assert.Equal(t, 0, MaxInQueue(nil, models.ModeFlashcard))
}
