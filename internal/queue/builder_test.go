package queue

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabqueue/pkg/models"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestBuilder(seed int64) *Builder {
	b := NewBuilder(rand.New(rand.NewSource(seed)))
	b.Now = func() time.Time { return testNow }
	return b
}

func newTable(id string, words ...string) *models.Table {
	t := &models.Table{ID: id, Name: id, Columns: []string{"word", "meaning"}}
	for _, w := range words {
		t.Items = append(t.Items, &models.Item{
			ID:      w,
			TableID: id,
			Values:  map[string]string{"word": w, "meaning": "m-" + w},
		})
	}
	return t
}

func numberedTable(id string, n int) *models.Table {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s-%d", id, i)
	}
	t := newTable(id, words...)
	for i, item := range t.Items {
		item.Stats.Flashcard.InQueue = i
	}
	return t
}

func flashRelation(id, tableID string) *models.Relation {
	return &models.Relation{
		ID:           id,
		TableID:      tableID,
		QuestionCols: []string{"word"},
		AnswerCols:   []string{"meaning"},
		Modes:        []models.Mode{models.ModeFlashcard, models.ModeScramble},
	}
}

func ids(cards []*models.SessionCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ItemID()
	}
	return out
}

func countByTable(cards []*models.SessionCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.TableID
	}
	return out
}

func TestBuildEmptyPool(t *testing.T) {
	b := newTestBuilder(1)
	cards := b.Build(Input{
		Tables:    []*models.Table{newTable("t1", "a", "b")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeFlashcard},
	})
	require.NotNil(t, cards)
	assert.Empty(t, cards)

	cards = b.Build(Input{
		Tables:    []*models.Table{newTable("t1", "a")},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"missing"}, Mode: models.ModeFlashcard},
	})
	assert.Empty(t, cards)
}

func TestBuildExcludesIncompatibleRelations(t *testing.T) {
	quizOnly := &models.Relation{ID: "rq", TableID: "t1", QuestionCols: []string{"word"}, Modes: []models.Mode{models.ModeQuiz}}
	otherTable := flashRelation("r2", "t2")

	cards := newTestBuilder(1).Build(Input{
		Tables:    []*models.Table{newTable("t1", "a", "b")},
		Relations: []*models.Relation{quizOnly, otherTable},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeFlashcard},
	})
	assert.Empty(t, cards)
}

func TestBuildScrambleRequiresSplittableQuestion(t *testing.T) {
	table := newTable("t1", "a", "b")
	table.Items[0].Values["word"] = "one two three"
	table.Items[1].Values["word"] = "single"

	cards := newTestBuilder(1).Build(Input{
		Tables:    []*models.Table{table},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeScramble},
	})
	assert.Equal(t, []string{"a"}, ids(cards))

	cards = newTestBuilder(1).Build(Input{
		Tables:    []*models.Table{table},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeScramble, MinSplitSize: 1},
	})
	assert.Len(t, cards, 2)
}

func TestBuildResumesSavedOrder(t *testing.T) {
	table := newTable("t1", "a", "b", "c", "d", "e")
	for _, item := range table.Items {
		item.Values["word"] = item.ID + " is three"
	}
	table.Items[1].Values["word"] = "b"

	sel := Selection{
		TableIDs:    []string{"t1"},
		RelationIDs: []string{"r1"},
		Mode:        models.ModeScramble,
		WordCount:   21,
	}
	saved := SavedQueueMap{sel.Key(): {"a", "b", "c"}}

	for seed := int64(0); seed < 10; seed++ {
		cards := newTestBuilder(seed).Build(Input{
			Tables:    []*models.Table{table},
			Relations: []*models.Relation{flashRelation("r1", "t1")},
			Selection: sel,
			Saved:     saved,
		})
		got := ids(cards)
		require.Len(t, got, 4)
		assert.Equal(t, []string{"a", "c"}, got[:2])
		assert.ElementsMatch(t, []string{"d", "e"}, got[2:])
		assert.NotContains(t, got, "b")
	}
}

func TestBuildShuffleIsReproducible(t *testing.T) {
	in := Input{
		Tables:    []*models.Table{newTable("t1", "a", "b", "c", "d", "e", "f", "g", "h")},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeFlashcard, WordCount: 8},
	}
	first := ids(newTestBuilder(42).Build(in))
	second := ids(newTestBuilder(42).Build(in))
	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, first)
}

func TestBuildHolisticDefaultsToPriority(t *testing.T) {
	table := numberedTable("t1", 6)
	cards := newTestBuilder(3).Build(Input{
		Tables:    []*models.Table{table},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeFlashcard, WordCount: 5},
	})
	assert.Equal(t, []string{"t1-5", "t1-4", "t1-3", "t1-2", "t1-1"}, ids(cards))
}

func TestBuildBalancedComposition(t *testing.T) {
	tables := []*models.Table{numberedTable("t1", 5), numberedTable("t2", 5), numberedTable("t3", 5)}
	relations := []*models.Relation{flashRelation("r1", "t1"), flashRelation("r2", "t2"), flashRelation("r3", "t3")}

	cards := newTestBuilder(7).Build(Input{
		Tables:    tables,
		Relations: relations,
		Selection: Selection{
			TableIDs:    []string{"t1", "t2", "t3"},
			Mode:        models.ModeFlashcard,
			Composition: CompositionBalanced,
			WordCount:   8,
		},
	})

	assert.Equal(t, []string{"t1", "t1", "t1", "t2", "t2", "t2", "t3", "t3"}, countByTable(cards))
	assert.Equal(t, []string{
		"t1-4", "t1-3", "t1-2",
		"t2-4", "t2-3", "t2-2",
		"t3-4", "t3-3",
	}, ids(cards))
}

func TestBuildBalancedPadsShortTables(t *testing.T) {
	tables := []*models.Table{numberedTable("t1", 1), numberedTable("t2", 10)}
	relations := []*models.Relation{flashRelation("r1", "t1"), flashRelation("r2", "t2")}

	cards := newTestBuilder(7).Build(Input{
		Tables:    tables,
		Relations: relations,
		Selection: Selection{
			TableIDs:    []string{"t1", "t2"},
			Mode:        models.ModeFlashcard,
			Composition: CompositionBalanced,
			WordCount:   8,
		},
	})
	assert.Len(t, cards, 8)
	assert.Equal(t, "t1-0", cards[0].ItemID())
}

func TestBuildGroupsItemsByContainingTable(t *testing.T) {
	tables := []*models.Table{newTable("t1", "a", "b", "c", "d"), newTable("t2", "e", "f", "g", "h")}
	for _, table := range tables {
		for _, item := range table.Items {
			item.TableID = ""
		}
	}
	relations := []*models.Relation{flashRelation("r1", "t1"), flashRelation("r2", "t2")}

	for _, sel := range []Selection{
		{Composition: CompositionBalanced},
		{Composition: CompositionPercentage, Percentages: map[string]float64{"t1": 60, "t2": 40}},
	} {
		sel.TableIDs = []string{"t1", "t2"}
		sel.Mode = models.ModeFlashcard
		sel.WordCount = 5

		cards := newTestBuilder(2).Build(Input{Tables: tables, Relations: relations, Selection: sel})
		assert.Equal(t, []string{"t1", "t1", "t1", "t2", "t2"}, countByTable(cards), sel.Composition)
	}
}

func TestPlanReturnsItemsLeftOut(t *testing.T) {
	cards, rest := newTestBuilder(3).Plan(Input{
		Tables:    []*models.Table{numberedTable("t1", 7)},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeFlashcard, WordCount: 5},
	})
	assert.Equal(t, []string{"t1-6", "t1-5", "t1-4", "t1-3", "t1-2"}, ids(cards))
	assert.Equal(t, []string{"t1-1", "t1-0"}, rest)
}

func TestBuildPercentageComposition(t *testing.T) {
	tables := []*models.Table{numberedTable("t1", 5), numberedTable("t2", 5)}
	relations := []*models.Relation{flashRelation("r1", "t1"), flashRelation("r2", "t2")}
	build := func(percentages map[string]float64) []*models.SessionCard {
		return newTestBuilder(9).Build(Input{
			Tables:    tables,
			Relations: relations,
			Selection: Selection{
				TableIDs:    []string{"t1", "t2"},
				Mode:        models.ModeFlashcard,
				Composition: CompositionPercentage,
				WordCount:   8,
				Percentages: percentages,
			},
		})
	}

	cards := build(map[string]float64{"t1": 75, "t2": 25})
	assert.Equal(t, []string{"t1", "t1", "t1", "t1", "t1", "t2", "t2", "t2"}, countByTable(cards))

	// over 100 percent is truncated
	cards = build(map[string]float64{"t1": 50, "t2": 80})
	assert.Equal(t, []string{"t1", "t1", "t1", "t1", "t2", "t2", "t2", "t2"}, countByTable(cards))

	// under 100 percent is padded from leftovers in table order
	cards = build(map[string]float64{"t1": 10, "t2": 10})
	assert.Equal(t, []string{"t1", "t2", "t1", "t1", "t1", "t1", "t2", "t2"}, countByTable(cards))
}

func TestBuildManualSelection(t *testing.T) {
	cards := newTestBuilder(1).Build(Input{
		Tables:    []*models.Table{newTable("t1", "a", "b", "c")},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{
			TableIDs:      []string{"t1"},
			Mode:          models.ModeFlashcard,
			WordSelection: SelectManual,
			ManualItemIDs: []string{"c", "nope", "a", "c"},
		},
	})
	assert.Equal(t, []string{"c", "a"}, ids(cards))
}

func TestBuildRelationChoice(t *testing.T) {
	r1 := flashRelation("r1", "t1")
	r2 := flashRelation("r2", "t1")
	in := Input{
		Tables:    []*models.Table{newTable("t1", "a", "b", "c", "d", "e")},
		Relations: []*models.Relation{r1, r2},
		Selection: Selection{TableIDs: []string{"t1"}, RelationIDs: []string{"r2", "r1"}, Mode: models.ModeFlashcard},
	}

	for _, card := range newTestBuilder(1).Build(in) {
		assert.Equal(t, "r2", card.Relation.ID)
	}

	in.Selection.RandomRelation = true
	for _, card := range newTestBuilder(1).Build(in) {
		assert.Contains(t, []string{"r1", "r2"}, card.Relation.ID)
	}
}

func TestBuildCopiesModeRatings(t *testing.T) {
	table := newTable("t1", "a")
	table.Items[0].Stats.Scramble.Ratings = models.RatingCounts{Again: 2}
	table.Items[0].Stats.Flashcard.Ratings = models.RatingCounts{Easy: 4}

	cards := newTestBuilder(1).Build(Input{
		Tables:    []*models.Table{table},
		Relations: []*models.Relation{flashRelation("r1", "t1")},
		Selection: Selection{TableIDs: []string{"t1"}, Mode: models.ModeFlashcard},
	})
	require.Len(t, cards, 1)
	assert.Equal(t, 4, cards[0].Ratings.Easy)

	cards[0].Ratings.Increment(models.RatingEasy)
	assert.Equal(t, 4, table.Items[0].Stats.Flashcard.Ratings.Easy)
}

func TestNormalizeWordCount(t *testing.T) {
	cases := map[int]int{-1: 13, 0: 13, 1: 5, 5: 5, 6: 5, 7: 8, 10: 8, 11: 13, 17: 13, 18: 21, 100: 21}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeWordCount(in), "word count %d", in)
	}
}
