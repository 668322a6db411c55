package queue

import "github.com/example/vocabqueue/pkg/models"

// WordSelection decides how the items of a session are picked
type WordSelection string

const (
	SelectAutomatic WordSelection = "automatic"
	SelectManual    WordSelection = "manual"
)

// Composition decides how many items each selected table contributes
type Composition string

const (
	// CompositionHolistic sorts the whole eligible pool as one list
	CompositionHolistic Composition = "holistic"
	// CompositionBalanced splits the word count evenly across tables
	CompositionBalanced Composition = "balanced"
	// CompositionPercentage gives each table a user-assigned share
	CompositionPercentage Composition = "percentage"
)

// WordCounts are the selectable session sizes
var WordCounts = []int{5, 8, 13, 21}

const (
	DefaultWordCount    = 13
	DefaultMinSplitSize = 3
)

// NormalizeWordCount snaps n to the closest selectable size, preferring the
// smaller one on a tie. Non-positive values give DefaultWordCount.
func NormalizeWordCount(n int) int {
	if n <= 0 {
		return DefaultWordCount
	}
	best := WordCounts[0]
	for _, size := range WordCounts[1:] {
		if abs(size-n) < abs(best-n) {
			best = size
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Selection describes what a session should study
type Selection struct {
	TableIDs    []string `json:"table_ids"`    // in selection order
	RelationIDs []string `json:"relation_ids"` // empty means every relation of the selected tables

	// Mode is the session type the queue is built for
	Mode models.Mode `json:"mode"`
	// StudyModes are the modes a relation must declare one of; defaults to Mode
	StudyModes []models.Mode `json:"study_modes,omitempty"`

	WordSelection WordSelection `json:"word_selection"`
	Composition   Composition   `json:"composition"`
	WordCount     int           `json:"word_count"`

	// SortKeys orders the holistic pool, and any table without its own keys
	SortKeys      []SortKey            `json:"sort_keys,omitempty"`
	TableSortKeys map[string][]SortKey `json:"table_sort_keys,omitempty"`
	Percentages   map[string]float64   `json:"percentages,omitempty"`

	// ManualItemIDs is the exact queue for SelectManual
	ManualItemIDs []string `json:"manual_item_ids,omitempty"`

	// RandomRelation picks a random compatible relation per card
	RandomRelation bool `json:"random_relation"`
	// MinSplitSize is the minimum question word count for scramble cards
	MinSplitSize int `json:"min_split_size"`
}

// Key is the canonical selection key used for saved queues
func (s Selection) Key() string {
	return CanonicalKey(s.TableIDs, s.RelationIDs)
}

func (s Selection) studyModes() []models.Mode {
	if len(s.StudyModes) > 0 {
		return s.StudyModes
	}
	return []models.Mode{s.Mode}
}

func (s Selection) minSplitSize() int {
	if s.MinSplitSize <= 0 {
		return DefaultMinSplitSize
	}
	return s.MinSplitSize
}

func (s Selection) sortKeysFor(tableID string) []SortKey {
	if keys, ok := s.TableSortKeys[tableID]; ok && len(keys) > 0 {
		return keys
	}
	return s.SortKeys
}
