package session

import (
	"strings"

	"github.com/example/vocabqueue/internal/spaced_repetition"
	"github.com/example/vocabqueue/pkg/models"
)

// QuizDistractors is how many wrong options accompany the right answer
const QuizDistractors = 3

// Options returns the multiple-choice answers for the current quiz card:
// the correct answer plus up to QuizDistractors wrong ones, shuffled.
// Wrong answers come from the same table first, then from other cards.
func (r *Runner) Options() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	card, err := r.peekLocked(models.ModeQuiz)
	if err != nil {
		return nil, err
	}

	correct := card.Answer()
	options := append(r.distractorsLocked(card, correct), correct)
	r.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options, nil
}

func (r *Runner) distractorsLocked(card *models.SessionCard, correct string) []string {
	seen := map[string]bool{normalizeAnswer(correct): true}
	out := make([]string, 0, QuizDistractors)
	add := func(candidates []string) {
		r.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, c := range candidates {
			if len(out) >= QuizDistractors {
				return
			}
			key := normalizeAnswer(c)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}

	var sameTable []string
	for _, t := range r.tables {
		if t == nil || t.ID != card.TableID {
			continue
		}
		for _, item := range t.Items {
			if item != nil && item.ID != card.ItemID() {
				sameTable = append(sameTable, card.Relation.Answer(item))
			}
		}
	}
	add(sameTable)

	if len(out) < QuizDistractors {
		var others []string
		for _, c := range r.cards {
			if c.ItemID() != card.ItemID() {
				others = append(others, c.Answer())
			}
		}
		add(others)
	}
	return out
}

// Answer grades choice against the current quiz card, records the outcome
// and moves to the next card
func (r *Runner) Answer(choice string) (bool, error) {
	var passed bool
	err := r.act(r.requireMode(models.ModeQuiz), func(card *models.SessionCard) {
		passed = normalizeAnswer(choice) == normalizeAnswer(card.Answer())
		q := r.quiz[card.ItemID()]
		if passed {
			q.Passed++
		} else {
			q.Failed++
		}
		r.quiz[card.ItemID()] = q
		r.current = spaced_repetition.Advance(r.current, len(r.cards))
	})
	return passed, err
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
