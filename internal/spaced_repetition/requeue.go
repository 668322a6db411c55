package spaced_repetition

import "github.com/example/vocabqueue/pkg/models"

// offsets is how many positions forward a rated card is pushed
var offsets = [...]int{
	models.RatingAgain:   3,
	models.RatingHard:    5,
	models.RatingGood:    8,
	models.RatingEasy:    13,
	models.RatingPerfect: 21,
}

// Offset returns the reinsertion distance for r, or 0 for an unknown rating
func Offset(r models.Rating) int {
	if !r.Valid() {
		return 0
	}
	return offsets[r]
}

// Requeue removes the card at current, increments its counter for r and
// reinserts it at min(current+Offset(r), len(queue)-1).
//
// The returned index is the new current card: current itself while it is
// still inside the shortened queue, otherwise 0 so the session loops.
// When current does not address a card (or r is unknown) nothing moves and
// the index simply advances by one, wrapping at the end.
func Requeue(queue []*models.SessionCard, current int, r models.Rating) ([]*models.SessionCard, int) {
	if current < 0 || current >= len(queue) || !r.Valid() {
		return queue, advance(current, len(queue))
	}

	card := queue[current]
	card.Ratings.Increment(r)

	rest := make([]*models.SessionCard, 0, len(queue))
	rest = append(rest, queue[:current]...)
	rest = append(rest, queue[current+1:]...)

	target := min(current+Offset(r), len(rest))

	out := make([]*models.SessionCard, 0, len(queue))
	out = append(out, rest[:target]...)
	out = append(out, card)
	out = append(out, rest[target:]...)

	next := current
	if next >= len(rest) {
		next = 0
	}
	return out, next
}

// RequeueCard locates the card of itemID, preferring the one at current, and
// requeues it. If the card is gone (the queue was changed underneath the
// session) the queue is returned untouched, the index advances and found is
// false.
func RequeueCard(queue []*models.SessionCard, current int, itemID string, r models.Rating) (out []*models.SessionCard, next int, found bool) {
	idx := -1
	if current >= 0 && current < len(queue) && queue[current].ItemID() == itemID {
		idx = current
	} else {
		for i, c := range queue {
			if c.ItemID() == itemID {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return queue, advance(current, len(queue)), false
	}
	out, next = Requeue(queue, idx, r)
	return out, next, true
}

// Advance moves linearly to the next card, wrapping at the end.
// Theater and quiz sessions use it instead of Requeue.
func Advance(current, length int) int {
	return advance(current, length)
}

func advance(current, length int) int {
	if length <= 0 {
		return 0
	}
	next := (current + 1) % length
	if next < 0 {
		next += length
	}
	return next
}
