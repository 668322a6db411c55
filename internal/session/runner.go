package session

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/internal/logger"
	"github.com/example/vocabqueue/internal/queue"
	"github.com/example/vocabqueue/internal/spaced_repetition"
	"github.com/example/vocabqueue/pkg/models"
)

// Options configures a new session
type Options struct {
	Selection queue.Selection
	Tables    []*models.Table
	Relations []*models.Relation

	// Store loads the saved order at start and receives the final one at End.
	// Nil disables resume and persistence.
	Store queue.Store
	// Builder defaults to queue.NewBuilder(Rand)
	Builder   *queue.Builder
	Rand      *rand.Rand
	Logger    *logger.Logger
	Listeners []Listener
	Now       func() time.Time
}

// Runner drives one study session over a queue of cards
type Runner struct {
	id        string
	mode      models.Mode
	key       string
	store     queue.Store
	rng       *rand.Rand
	log       *logger.Logger
	listeners []Listener
	now       func() time.Time
	startedAt time.Time

	// distractor pool for quiz options
	tables []*models.Table

	mu              sync.Mutex
	cards           []*models.SessionCard
	current         int
	queued          []string
	rest            []string // eligible ids left out of the queue
	reviewed        map[string]bool
	encounters      map[string]int
	tableEncounters map[string]int
	ratings         map[string]models.RatingCounts
	quiz            map[string]models.QuizStats

	elapsed atomic.Int64
	paused  atomic.Bool
	ended   atomic.Bool
	done    chan struct{}
}

// Start builds the queue for opts.Selection and positions the session on its
// first card. A failing saved-queue load is logged and the queue is built as
// if nothing had been saved.
func Start(ctx context.Context, opts Options) (*Runner, error) {
	mode := opts.Selection.Mode
	if !mode.Valid() {
		return nil, errors.Wrapf(ErrWrongMode, "unknown mode %q", mode)
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	builder := opts.Builder
	if builder == nil {
		builder = queue.NewBuilder(rng)
		builder.Now = now
	}

	id := uuid.NewString()
	key := opts.Selection.Key()
	log = log.With("session_id", id, "mode", string(mode))

	var saved queue.SavedQueueMap
	if opts.Store != nil {
		ids, ok, err := opts.Store.LoadQueue(ctx, key)
		switch {
		case err != nil:
			log.Warn("Failed to load saved queue, starting fresh", "key", key, "error", err)
		case ok:
			saved = queue.SavedQueueMap{key: ids}
		}
	}

	cards, rest := builder.Plan(queue.Input{
		Tables:    opts.Tables,
		Relations: opts.Relations,
		Selection: opts.Selection,
		Saved:     saved,
	})

	r := &Runner{
		id:              id,
		mode:            mode,
		key:             key,
		store:           opts.Store,
		rng:             rng,
		log:             log,
		listeners:       append([]Listener(nil), opts.Listeners...),
		now:             now,
		startedAt:       now(),
		tables:          opts.Tables,
		cards:           cards,
		queued:          cardIDs(cards),
		rest:            rest,
		reviewed:        make(map[string]bool),
		encounters:      make(map[string]int),
		tableEncounters: make(map[string]int),
		ratings:         make(map[string]models.RatingCounts),
		quiz:            make(map[string]models.QuizStats),
		done:            make(chan struct{}),
	}

	log.Info("Session started", "key", key, "cards", len(cards), "resumed", saved != nil)
	r.notify(r.Current())
	return r, nil
}

func (r *Runner) ID() string        { return r.id }
func (r *Runner) Mode() models.Mode { return r.mode }
func (r *Runner) Key() string       { return r.key }

// Current returns the card being studied, or nil for an empty session
func (r *Runner) Current() *models.SessionCard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentLocked()
}

func (r *Runner) currentLocked() *models.SessionCard {
	if len(r.cards) == 0 {
		return nil
	}
	return r.cards[r.current]
}

// Len is the number of cards in the queue
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cards)
}

// Empty reports the terminal "nothing to study" state
func (r *Runner) Empty() bool {
	return r.Len() == 0
}

// Order returns the item ids in queue order
func (r *Runner) Order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cardIDs(r.cards)
}

// Elapsed returns the counted session seconds
func (r *Runner) Elapsed() int64 {
	return r.elapsed.Load()
}

// Ended reports whether End has run
func (r *Runner) Ended() bool {
	return r.ended.Load()
}

// Tick counts one second of study time. Paused or ended sessions ignore it.
func (r *Runner) Tick() {
	if r.paused.Load() || r.ended.Load() {
		return
	}
	r.elapsed.Add(1)
}

// Rate records r for the current card and requeues it.
// Only flashcard and scramble sessions accept ratings.
func (r *Runner) Rate(rating models.Rating) error {
	if !rating.Valid() {
		return errors.Errorf("invalid rating %d", rating)
	}
	return r.act(func() error {
		if !r.mode.Requeues() {
			return ErrWrongMode
		}
		return nil
	}, func(card *models.SessionCard) {
		delta := r.ratings[card.ItemID()]
		delta.Increment(rating)
		r.ratings[card.ItemID()] = delta

		cards, next, found := spaced_repetition.RequeueCard(r.cards, r.current, card.ItemID(), rating)
		if !found {
			r.log.Warn("Card vanished from queue, advancing", "item_id", card.ItemID())
		}
		r.cards, r.current = cards, next
	})
}

// Advance moves a theater session to the next card
func (r *Runner) Advance() error {
	return r.act(r.requireMode(models.ModeTheater), func(*models.SessionCard) {
		r.current = spaced_repetition.Advance(r.current, len(r.cards))
	})
}

// Pause stops counting elapsed time in a theater session
func (r *Runner) Pause() error {
	return r.setPaused(true)
}

// Resume restarts the elapsed-time count of a paused theater session
func (r *Runner) Resume() error {
	return r.setPaused(false)
}

// Paused reports whether the session clock is stopped
func (r *Runner) Paused() bool {
	return r.paused.Load()
}

func (r *Runner) setPaused(paused bool) error {
	if r.ended.Load() {
		return ErrSessionEnded
	}
	if r.mode != models.ModeTheater {
		return ErrWrongMode
	}
	r.paused.Store(paused)
	return nil
}

func (r *Runner) requireMode(mode models.Mode) func() error {
	return func() error {
		if r.mode != mode {
			return ErrWrongMode
		}
		return nil
	}
}

// act runs one card event: check, bookkeeping, apply, then notify.
// Listeners run after the lock is released.
func (r *Runner) act(check func() error, apply func(card *models.SessionCard)) error {
	r.mu.Lock()
	if r.ended.Load() {
		r.mu.Unlock()
		return ErrSessionEnded
	}
	if err := check(); err != nil {
		r.mu.Unlock()
		return err
	}
	card := r.currentLocked()
	if card == nil {
		r.mu.Unlock()
		return ErrEmptyQueue
	}

	id := card.ItemID()
	r.reviewed[id] = true
	r.encounters[id]++
	r.tableEncounters[card.TableID]++
	apply(card)

	next := r.currentLocked()
	r.mu.Unlock()

	r.notify(next)
	return nil
}

func (r *Runner) notify(card *models.SessionCard) {
	change := Change{SessionID: r.id, Mode: r.mode, Card: card, At: r.now()}
	for _, l := range r.listeners {
		r.deliver(l, change)
	}
}

func (r *Runner) deliver(l Listener, change Change) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Warn("Listener panicked", "panic", p, "item_id", change.Card.ItemID())
		}
	}()
	l.CurrentChanged(change)
}

// End stops the session, persists the final queue order under the
// selection key and returns the session deltas. A persistence failure is
// returned together with the complete result.
func (r *Runner) End(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	if !r.ended.CompareAndSwap(false, true) {
		r.mu.Unlock()
		return nil, ErrSessionEnded
	}
	close(r.done)
	result := r.resultLocked()
	r.mu.Unlock()

	r.log.Info("Session ended",
		"reviewed", len(result.Reviewed),
		"elapsed_seconds", result.ElapsedSeconds,
	)

	if r.store == nil {
		return result, nil
	}
	if err := r.store.SaveQueue(ctx, r.key, result.SavedOrder); err != nil {
		r.log.Error("Failed to save queue", "key", r.key, "error", err)
		return result, errors.Wrap(err, "failed to save queue")
	}
	return result, nil
}

// EndOnCancel ends the session once ctx is cancelled, persisting whatever
// queue state exists at that moment. The channel yields the result of that
// End, or closes empty if the session was ended some other way.
func (r *Runner) EndOnCancel(ctx context.Context) <-chan *Result {
	out := make(chan *Result, 1)
	go func() {
		defer close(out)
		select {
		case <-r.done:
		case <-ctx.Done():
			result, err := r.End(context.WithoutCancel(ctx))
			if errors.Is(err, ErrSessionEnded) {
				return
			}
			if err != nil {
				r.log.Warn("Cancelled session ended with error", "error", err)
			}
			out <- result
		}
	}()
	return out
}

func (r *Runner) resultLocked() *Result {
	reviewed := make([]string, 0, len(r.reviewed))
	for id := range r.reviewed {
		reviewed = append(reviewed, id)
	}
	sort.Strings(reviewed)

	ratings := make(map[string]models.RatingCounts, len(r.ratings))
	for id, c := range r.ratings {
		ratings[id] = c
	}
	quiz := make(map[string]models.QuizStats, len(r.quiz))
	for id, q := range r.quiz {
		quiz[id] = q
	}

	return &Result{
		SessionID:       r.id,
		Mode:            r.mode,
		Key:             r.key,
		Ratings:         ratings,
		Quiz:            quiz,
		Reviewed:        reviewed,
		Encounters:      copyCounts(r.encounters),
		TableEncounters: copyCounts(r.tableEncounters),
		Queued:          append([]string(nil), r.queued...),
		QueueOrder:      cardIDs(r.cards),
		SavedOrder:      r.savedOrderLocked(),
		ElapsedSeconds:  r.elapsed.Load(),
		StartedAt:       r.startedAt,
		EndedAt:         r.now(),
	}
}

// savedOrderLocked puts the cards not acted on first, in final queue order,
// then the items this session left out, then the studied cards. The next
// session over the same selection starts with what was not studied yet.
func (r *Runner) savedOrderLocked() []string {
	out := make([]string, 0, len(r.cards)+len(r.rest))
	var studied []string
	for _, c := range r.cards {
		if r.reviewed[c.ItemID()] {
			studied = append(studied, c.ItemID())
			continue
		}
		out = append(out, c.ItemID())
	}
	out = append(out, r.rest...)
	return append(out, studied...)
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cardIDs(cards []*models.SessionCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ItemID()
	}
	return out
}
