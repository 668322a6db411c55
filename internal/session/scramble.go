package session

import (
	"strings"

	"github.com/example/vocabqueue/pkg/models"
)

// Tokens returns the words of the current question in shuffled order.
// Questions of two or more distinct words never come back in their original
// order.
func (r *Runner) Tokens() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, err := r.peekLocked(models.ModeScramble)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(card.Question())
	tokens := append([]string(nil), words...)
	for attempt := 0; attempt < 10; attempt++ {
		r.rng.Shuffle(len(tokens), func(i, j int) {
			tokens[i], tokens[j] = tokens[j], tokens[i]
		})
		if misplaced(words, tokens) > 0 {
			break
		}
	}
	return tokens, nil
}

// Submit grades an arrangement of the current question's words and rates the
// card with the derived rating
func (r *Runner) Submit(tokens []string) (models.Rating, error) {
	r.mu.Lock()
	card, err := r.peekLocked(models.ModeScramble)
	r.mu.Unlock()
	if err != nil {
		return 0, err
	}

	rating := ScrambleRating(strings.Fields(card.Question()), tokens)
	if err := r.Rate(rating); err != nil {
		return 0, err
	}
	return rating, nil
}

// ScrambleRating maps the share of misplaced words to a rating:
// none is Perfect, up to a quarter Good, up to a half Hard, more is Again.
func ScrambleRating(want, got []string) models.Rating {
	if len(want) == 0 {
		return models.RatingPerfect
	}
	share := float64(misplaced(want, got)) / float64(len(want))
	switch {
	case share == 0:
		return models.RatingPerfect
	case share <= 0.25:
		return models.RatingGood
	case share <= 0.5:
		return models.RatingHard
	}
	return models.RatingAgain
}

// misplaced counts positions of want not matched by got, case-insensitively
func misplaced(want, got []string) int {
	n := 0
	for i, w := range want {
		if i >= len(got) || !strings.EqualFold(w, got[i]) {
			n++
		}
	}
	return n
}

func (r *Runner) peekLocked(mode models.Mode) (*models.SessionCard, error) {
	if r.ended.Load() {
		return nil, ErrSessionEnded
	}
	if r.mode != mode {
		return nil, ErrWrongMode
	}
	card := r.currentLocked()
	if card == nil {
		return nil, ErrEmptyQueue
	}
	return card, nil
}
