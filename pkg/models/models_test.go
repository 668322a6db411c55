package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRating(t *testing.T) {
	for _, r := range Ratings {
		parsed, err := ParseRating(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	parsed, err := ParseRating("  Perfect ")
	require.NoError(t, err)
	assert.Equal(t, RatingPerfect, parsed)

	_, err = ParseRating("meh")
	assert.Error(t, err)
	assert.False(t, Rating(7).Valid())
}

func TestRatingCountsIncrement(t *testing.T) {
	var c RatingCounts
	c.Increment(RatingAgain)
	c.Increment(RatingAgain)
	c.Increment(RatingPerfect)

	assert.Equal(t, 2, c.Get(RatingAgain))
	assert.Equal(t, 1, c.Get(RatingPerfect))
	assert.Equal(t, 3, c.Total())
	assert.Equal(t, 2, c.Failed())

	c.Increment(Rating(42))
	assert.Equal(t, 3, c.Total(), "unknown ratings are ignored")

	sum := c.Add(RatingCounts{Hard: 1, Good: 2})
	assert.Equal(t, RatingCounts{Again: 2, Hard: 1, Good: 2, Perfect: 1}, sum)
}

func TestQuizSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, QuizStats{}.SuccessRate())
	assert.InDelta(t, 0.75, QuizStats{Passed: 3, Failed: 1}.SuccessRate(), 1e-9)
}

func TestStatsForMode(t *testing.T) {
	s := Stats{
		Flashcard: ModeStats{InQueue: 1},
		Scramble:  ModeStats{InQueue: 2},
	}
	assert.Equal(t, 2, s.ForMode(ModeScramble).InQueue)
	assert.Equal(t, 1, s.ForMode(ModeFlashcard).InQueue)
	assert.Equal(t, 1, s.ForMode(ModeTheater).InQueue)
}

func TestRelationRendering(t *testing.T) {
	item := &Item{ID: "w1", Values: map[string]string{"word": "cat", "article": "the", "meaning": " кошка "}}
	rel := &Relation{QuestionCols: []string{"article", "word"}, AnswerCols: []string{"meaning"}, Modes: []Mode{ModeFlashcard}}

	assert.Equal(t, "the cat", rel.Question(item))
	assert.Equal(t, "кошка", rel.Answer(item))
	assert.True(t, rel.Supports(ModeQuiz, ModeFlashcard))
	assert.False(t, rel.Supports(ModeScramble))

	card := &SessionCard{Item: item, Relation: rel}
	assert.Equal(t, "w1", card.ItemID())
	assert.Equal(t, "", (*SessionCard)(nil).ItemID())
}
