package queue

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/example/vocabqueue/internal/spaced_repetition"
	"github.com/example/vocabqueue/pkg/models"
)

// Builder assembles the ordered card queue of a session
type Builder struct {
	Scorer *spaced_repetition.Scorer
	Rand   *rand.Rand
	Now    func() time.Time
}

// NewBuilder creates a builder drawing randomness from rng.
// A nil rng is seeded from the clock.
func NewBuilder(rng *rand.Rand) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Builder{
		Scorer: spaced_repetition.NewScorer(),
		Rand:   rng,
		Now:    time.Now,
	}
}

// Input is everything a queue is built from
type Input struct {
	Tables    []*models.Table
	Relations []*models.Relation
	Selection Selection
	Saved     SavedQueueMap
}

// pool is the eligible item set of one build
type pool struct {
	items     []*models.Item                 // eligible items, table order
	byID      map[string]*models.Item
	tableOf   map[string]string             // item id -> containing table id
	relations map[string][]*models.Relation // item id -> compatible relations
}

// Build returns the queue for in. It never fails: unknown ids are ignored
// and an empty eligible pool yields an empty queue.
func (b *Builder) Build(in Input) []*models.SessionCard {
	cards, _ := b.Plan(in)
	return cards
}

// Plan is Build that also returns the ids of the eligible items left out of
// the queue, in the order the next picks would be taken from.
func (b *Builder) Plan(in Input) ([]*models.SessionCard, []string) {
	sel := in.Selection
	p := b.eligible(in)
	if len(p.items) == 0 {
		return []*models.SessionCard{}, nil
	}

	if sel.WordSelection == SelectManual {
		picked := b.manual(p, sel.ManualItemIDs)
		return b.cards(p, picked, sel), remaining(p.items, picked)
	}

	saved, hasSaved := in.Saved[sel.Key()]
	ordered, resumed := b.baseOrder(p, saved, hasSaved)

	r := resolver{
		scorer:     b.scorer(),
		mode:       sel.Mode,
		maxInQueue: spaced_repetition.MaxInQueue(p.items, sel.Mode),
		now:        b.now(),
	}
	keysFor := func(tableID string) []SortKey {
		keys := sel.sortKeysFor(tableID)
		if len(keys) == 0 && !resumed {
			return DefaultSortKeys()
		}
		return keys
	}

	wordCount := NormalizeWordCount(sel.WordCount)
	tables := selectedTables(in.Tables, sel.TableIDs)
	var picked []*models.Item
	switch sel.Composition {
	case CompositionBalanced:
		picked = b.compose(p, ordered, tables, balancedQuotas(wordCount, len(tables)), wordCount, r, keysFor)
	case CompositionPercentage:
		picked = b.compose(p, ordered, tables, percentageQuotas(wordCount, tables, sel.Percentages), wordCount, r, keysFor)
	default:
		r.sortItems(ordered, keysFor(""))
		picked = ordered
		if len(picked) > wordCount {
			picked = picked[:wordCount]
		}
	}

	return b.cards(p, picked, sel), remaining(ordered, picked)
}

// remaining returns the ids of items not in picked, keeping their order
func remaining(items, picked []*models.Item) []string {
	taken := make(map[string]bool, len(picked))
	for _, item := range picked {
		taken[item.ID] = true
	}
	var out []string
	for _, item := range items {
		if !taken[item.ID] {
			out = append(out, item.ID)
		}
	}
	return out
}

// eligible collects the items of the selected tables that have at least one
// compatible relation
func (b *Builder) eligible(in Input) pool {
	sel := in.Selection
	tables := selectedTables(in.Tables, sel.TableIDs)
	candidates := candidateRelations(in.Relations, tables, sel.RelationIDs)
	modes := sel.studyModes()

	p := pool{
		byID:      make(map[string]*models.Item),
		tableOf:   make(map[string]string),
		relations: make(map[string][]*models.Relation),
	}
	for _, table := range tables {
		for _, item := range table.Items {
			if item == nil || item.ID == "" {
				continue
			}
			if _, dup := p.byID[item.ID]; dup {
				continue
			}
			var compatible []*models.Relation
			for _, rel := range candidates {
				if rel.TableID != table.ID || !rel.Supports(modes...) {
					continue
				}
				if sel.Mode == models.ModeScramble && wordCount(rel.Question(item)) < sel.minSplitSize() {
					continue
				}
				compatible = append(compatible, rel)
			}
			if len(compatible) == 0 {
				continue
			}
			p.items = append(p.items, item)
			p.byID[item.ID] = item
			p.tableOf[item.ID] = table.ID
			p.relations[item.ID] = compatible
		}
	}
	return p
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// selectedTables returns the selected tables in selection order
func selectedTables(tables []*models.Table, ids []string) []*models.Table {
	byID := make(map[string]*models.Table, len(tables))
	for _, t := range tables {
		if t != nil {
			byID[t.ID] = t
		}
	}
	seen := make(map[string]bool, len(ids))
	out := make([]*models.Table, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	return out
}

// candidateRelations returns the selected relations belonging to the
// selected tables, in relation selection order. No relation ids means all
// relations of the selected tables.
func candidateRelations(relations []*models.Relation, tables []*models.Table, ids []string) []*models.Relation {
	inTables := make(map[string]bool, len(tables))
	for _, t := range tables {
		inTables[t.ID] = true
	}

	if len(ids) == 0 {
		out := make([]*models.Relation, 0, len(relations))
		for _, rel := range relations {
			if rel != nil && inTables[rel.TableID] {
				out = append(out, rel)
			}
		}
		return out
	}

	byID := make(map[string]*models.Relation, len(relations))
	for _, rel := range relations {
		if rel != nil {
			byID[rel.ID] = rel
		}
	}
	seen := make(map[string]bool, len(ids))
	out := make([]*models.Relation, 0, len(ids))
	for _, id := range ids {
		rel, ok := byID[id]
		if !ok || seen[id] || !inTables[rel.TableID] {
			continue
		}
		seen[id] = true
		out = append(out, rel)
	}
	return out
}

// baseOrder is the order policies start from. With a saved entry the saved
// ids that are still eligible keep their relative order and the newly
// eligible items follow shuffled; without one the whole pool is shuffled.
func (b *Builder) baseOrder(p pool, saved []string, resumed bool) ([]*models.Item, bool) {
	if !resumed {
		ordered := append([]*models.Item(nil), p.items...)
		b.shuffle(ordered)
		return ordered, false
	}

	ordered := make([]*models.Item, 0, len(p.items))
	placed := make(map[string]bool, len(saved))
	for _, id := range saved {
		item, ok := p.byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		ordered = append(ordered, item)
	}

	fresh := make([]*models.Item, 0, len(p.items)-len(ordered))
	for _, item := range p.items {
		if !placed[item.ID] {
			fresh = append(fresh, item)
		}
	}
	b.shuffle(fresh)
	return append(ordered, fresh...), true
}

func (b *Builder) shuffle(items []*models.Item) {
	b.rand().Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func (b *Builder) manual(p pool, ids []string) []*models.Item {
	out := make([]*models.Item, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		item, ok := p.byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, item)
	}
	return out
}

// balancedQuotas splits wordCount evenly; the first wordCount%n tables get
// one extra item
func balancedQuotas(wordCount, n int) []int {
	if n <= 0 {
		return nil
	}
	quotas := make([]int, n)
	base, extra := wordCount/n, wordCount%n
	for i := range quotas {
		quotas[i] = base
		if i < extra {
			quotas[i]++
		}
	}
	return quotas
}

// percentageQuotas gives table i round(wordCount*p_i/100) items. The shares
// are not renormalised; compose truncates or pads the merged list.
func percentageQuotas(wordCount int, tables []*models.Table, percentages map[string]float64) []int {
	quotas := make([]int, len(tables))
	for i, t := range tables {
		pct := percentages[t.ID]
		if pct < 0 || math.IsNaN(pct) {
			pct = 0
		}
		quotas[i] = int(math.Round(float64(wordCount) * pct / 100))
	}
	return quotas
}

// compose takes quotas[i] items from table i, each table sorted by its own
// keys, merges them in table order and clamps the result to wordCount,
// padding from items left over in each table.
func (b *Builder) compose(p pool, ordered []*models.Item, tables []*models.Table, quotas []int, wordCount int, r resolver, keysFor func(string) []SortKey) []*models.Item {
	perTable := make(map[string][]*models.Item, len(tables))
	for _, item := range ordered {
		tableID := p.tableOf[item.ID]
		perTable[tableID] = append(perTable[tableID], item)
	}

	var picked, leftover []*models.Item
	for i, table := range tables {
		items := perTable[table.ID]
		r.sortItems(items, keysFor(table.ID))
		quota := 0
		if i < len(quotas) {
			quota = min(quotas[i], len(items))
		}
		picked = append(picked, items[:quota]...)
		leftover = append(leftover, items[quota:]...)
	}

	if len(picked) > wordCount {
		return picked[:wordCount]
	}
	for _, item := range leftover {
		if len(picked) >= wordCount {
			break
		}
		picked = append(picked, item)
	}
	return picked
}

// cards binds every picked item to one of its compatible relations
func (b *Builder) cards(p pool, items []*models.Item, sel Selection) []*models.SessionCard {
	out := make([]*models.SessionCard, 0, len(items))
	for _, item := range items {
		rels := p.relations[item.ID]
		if len(rels) == 0 {
			continue
		}
		rel := rels[0]
		if sel.RandomRelation && len(rels) > 1 {
			rel = rels[b.rand().Intn(len(rels))]
		}
		out = append(out, &models.SessionCard{
			Item:     item,
			Relation: rel,
			Ratings:  item.Stats.ForMode(sel.Mode).Ratings,
			TableID:  p.tableOf[item.ID],
		})
	}
	return out
}

func (b *Builder) rand() *rand.Rand {
	if b.Rand == nil {
		b.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b.Rand
}

func (b *Builder) scorer() *spaced_repetition.Scorer {
	if b.Scorer == nil {
		return spaced_repetition.NewScorer()
	}
	return b.Scorer
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
