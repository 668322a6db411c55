package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/vocabqueue/pkg/models"
)

// Scorer computes the priority score used to order items when no explicit
// sort criteria are given. Higher scores are studied first.
type Scorer struct {
	// Weight of time since the item was last practiced
	RecencyWeight float64
	// Weight of the failed/attempted ratio
	FailureWeight float64
	// Weight of how often the item entered a queue relative to the pool
	StalenessWeight float64
	// Elapsed time at which the recency term reaches one half
	RecencyHalfLife time.Duration
}

// NewScorer creates a scorer with the default weights
func NewScorer() *Scorer {
	return &Scorer{
		RecencyWeight:   0.4,
		FailureWeight:   0.4,
		StalenessWeight: 0.2,
		RecencyHalfLife: 7 * 24 * time.Hour,
	}
}

// Score returns the priority of item for a session in mode.
// maxInQueue is the largest InQueue count across the pool being ordered; a
// value of 0 is treated as 1. The result depends only on its arguments.
func (s *Scorer) Score(item *models.Item, mode models.Mode, maxInQueue int, now time.Time) float64 {
	if item == nil {
		return 0
	}
	ms := item.Stats.ForMode(mode)
	quiz := item.Stats.Quiz

	return s.RecencyWeight*s.recency(ms.LastPracticed, now) +
		s.FailureWeight*failureRatio(ms.Ratings, quiz) +
		s.StalenessWeight*staleness(ms.InQueue, maxInQueue)
}

// recency grows from 0 (just practiced) towards 1; never practiced is 1
func (s *Scorer) recency(last *time.Time, now time.Time) float64 {
	if last == nil {
		return 1
	}
	elapsed := now.Sub(*last)
	if elapsed <= 0 {
		return 0
	}
	halfLife := s.RecencyHalfLife
	if halfLife <= 0 {
		halfLife = 7 * 24 * time.Hour
	}
	return 1 - math.Exp(-math.Ln2*float64(elapsed)/float64(halfLife))
}

func failureRatio(ratings models.RatingCounts, quiz models.QuizStats) float64 {
	attempts := ratings.Total() + quiz.Attempts()
	if attempts == 0 {
		return 0
	}
	return float64(ratings.Failed()+quiz.Failed) / float64(attempts)
}

func staleness(inQueue, maxInQueue int) float64 {
	if maxInQueue <= 0 {
		maxInQueue = 1
	}
	if inQueue < 0 {
		inQueue = 0
	}
	return float64(inQueue) / float64(maxInQueue)
}

// MaxInQueue returns the largest InQueue counter of items in mode
func MaxInQueue(items []*models.Item, mode models.Mode) int {
	highest := 0
	for _, item := range items {
		if n := item.Stats.ForMode(mode).InQueue; n > highest {
			highest = n
		}
	}
	return highest
}
