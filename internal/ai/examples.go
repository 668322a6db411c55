package ai

import (
	"context"
	"sync"
	"time"

	"github.com/example/vocabqueue/internal/logger"
	"github.com/example/vocabqueue/internal/session"
	"github.com/example/vocabqueue/pkg/models"
)

// Generator produces an example sentence for a card
type Generator interface {
	GenerateExample(ctx context.Context, card *models.SessionCard) (string, error)
}

// Examples generates example sentences in the background whenever a session
// moves to a new card. Results are cached per item; failures are logged and
// never reach the session.
type Examples struct {
	gen     Generator
	log     *logger.Logger
	timeout time.Duration

	mu       sync.Mutex
	cache    map[string]string
	inflight map[string]bool
	wg       sync.WaitGroup
}

var _ session.Listener = (*Examples)(nil)

// NewExamples creates the listener
func NewExamples(gen Generator, log *logger.Logger) *Examples {
	if log == nil {
		log = logger.NewNop()
	}
	return &Examples{
		gen:      gen,
		log:      log,
		timeout:  20 * time.Second,
		cache:    make(map[string]string),
		inflight: make(map[string]bool),
	}
}

func (e *Examples) CurrentChanged(c session.Change) {
	id := c.Card.ItemID()
	if id == "" {
		return
	}

	e.mu.Lock()
	if _, ok := e.cache[id]; ok || e.inflight[id] {
		e.mu.Unlock()
		return
	}
	e.inflight[id] = true
	e.mu.Unlock()

	card := c.Card
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		example, err := e.gen.GenerateExample(ctx, card)

		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.inflight, id)
		if err != nil {
			e.log.Warn("Failed to generate example", "item_id", id, "error", err)
			return
		}
		e.cache[id] = example
	}()
}

// Example returns the cached sentence for an item
func (e *Examples) Example(itemID string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.cache[itemID]
	return s, ok
}

// Wait blocks until in-flight generations finish
func (e *Examples) Wait() {
	e.wg.Wait()
}
