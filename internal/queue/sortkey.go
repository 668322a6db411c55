package queue

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/vocabqueue/internal/spaced_repetition"
	"github.com/example/vocabqueue/pkg/models"
)

// SortKind selects what a sort key reads from an item
type SortKind int

const (
	// SortColumn reads the item's value in SortKey.Column
	SortColumn SortKind = iota
	SortPriority
	SortRankPoint
	SortFailed
	SortInQueue
	SortLastPracticed
	SortReviewCount
	SortSuccessRate
)

// MaxSortKeys is how many cascading keys are honoured
const MaxSortKeys = 3

var statSortNames = map[string]SortKind{
	"priority score": SortPriority,
	"rank point":     SortRankPoint,
	"failed":         SortFailed,
	"in queue":       SortInQueue,
	"last practiced": SortLastPracticed,
	"review count":   SortReviewCount,
	"success rate":   SortSuccessRate,
}

// SortKey is one level of a cascading sort
type SortKey struct {
	Kind   SortKind `json:"kind"`
	Column string   `json:"column,omitempty"`
	Desc   bool     `json:"desc"`
}

// ParseSortKey maps a selectable sort name to a key. Stat names such as
// "Priority Score" or "Rank Point" select the stat; anything else is taken
// as a column name.
func ParseSortKey(name string, desc bool) SortKey {
	if kind, ok := statSortNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return SortKey{Kind: kind, Desc: desc}
	}
	return SortKey{Kind: SortColumn, Column: name, Desc: desc}
}

// DefaultSortKeys orders by priority, highest first
func DefaultSortKeys() []SortKey {
	return []SortKey{{Kind: SortPriority, Desc: true}}
}

// RankPoint rewards strong ratings and penalises weak ones
func RankPoint(c models.RatingCounts) int {
	return 3*c.Perfect + 2*c.Easy + c.Good - c.Hard - 2*c.Again
}

// sortValue is a resolved key value; empty values rank below everything
type sortValue struct {
	num     float64
	text    string
	numeric bool
	empty   bool
}

func numberValue(f float64) sortValue {
	return sortValue{num: f, numeric: true}
}

func columnValue(raw string) sortValue {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sortValue{empty: true}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return sortValue{num: f, text: strings.ToLower(s), numeric: true}
	}
	return sortValue{text: strings.ToLower(s)}
}

func compareValues(a, b sortValue) int {
	switch {
	case a.empty && b.empty:
		return 0
	case a.empty:
		return -1
	case b.empty:
		return 1
	case a.numeric && b.numeric:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	return strings.Compare(a.text, b.text)
}

// resolver turns sort keys into values for one pool of items
type resolver struct {
	scorer     *spaced_repetition.Scorer
	mode       models.Mode
	maxInQueue int
	now        time.Time
}

func (r resolver) value(item *models.Item, key SortKey) sortValue {
	ms := item.Stats.ForMode(r.mode)
	switch key.Kind {
	case SortColumn:
		return columnValue(item.Value(key.Column))
	case SortPriority:
		return numberValue(r.scorer.Score(item, r.mode, r.maxInQueue, r.now))
	case SortRankPoint:
		return numberValue(float64(RankPoint(ms.Ratings)))
	case SortFailed:
		return numberValue(float64(ms.Ratings.Failed() + item.Stats.Quiz.Failed))
	case SortInQueue:
		return numberValue(float64(ms.InQueue))
	case SortLastPracticed:
		if ms.LastPracticed == nil {
			return sortValue{empty: true}
		}
		return numberValue(float64(ms.LastPracticed.Unix()))
	case SortReviewCount:
		return numberValue(float64(ms.Ratings.Total()))
	case SortSuccessRate:
		if item.Stats.Quiz.Attempts() == 0 {
			return sortValue{empty: true}
		}
		return numberValue(item.Stats.Quiz.SuccessRate())
	}
	return sortValue{empty: true}
}

// sortItems stably orders items by up to MaxSortKeys keys. Ties fall
// through to the next key and finally keep their incoming order.
func (r resolver) sortItems(items []*models.Item, keys []SortKey) {
	if len(keys) > MaxSortKeys {
		keys = keys[:MaxSortKeys]
	}
	if len(keys) == 0 || len(items) < 2 {
		return
	}

	type row struct {
		item   *models.Item
		values []sortValue
	}
	rows := make([]row, len(items))
	for i, item := range items {
		values := make([]sortValue, len(keys))
		for k, key := range keys {
			values[k] = r.value(item, key)
		}
		rows[i] = row{item: item, values: values}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for k, key := range keys {
			c := compareValues(rows[i].values[k], rows[j].values[k])
			if c == 0 {
				continue
			}
			if key.Desc {
				// empty stays lowest, so it sinks to the end
				return c > 0
			}
			return c < 0
		}
		return false
	})

	for i := range rows {
		items[i] = rows[i].item
	}
}
