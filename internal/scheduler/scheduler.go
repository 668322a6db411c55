package scheduler

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/vocabqueue/internal/logger"
)

// Ticker is anything that counts elapsed seconds, such as a session runner
type Ticker interface {
	Tick()
}

// Scheduler drives the one-second study clock of every active session
type Scheduler struct {
	scheduler *gocron.Scheduler
	log       *logger.Logger
	interval  time.Duration

	mu      sync.Mutex
	tickers map[string]Ticker
}

// New creates a scheduler ticking once per second
func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		log:       log,
		interval:  time.Second,
		tickers:   make(map[string]Ticker),
	}
}

// Start begins ticking in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.tick); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates the clock; registered tickers stop counting
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Add registers t under id, replacing any previous ticker with that id
func (s *Scheduler) Add(id string, t Ticker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickers[id] = t
}

// Remove unregisters the ticker with id
func (s *Scheduler) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickers, id)
}

// Len is the number of registered tickers
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickers)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	tickers := make([]Ticker, 0, len(s.tickers))
	for _, t := range s.tickers {
		tickers = append(tickers, t)
	}
	s.mu.Unlock()

	for _, t := range tickers {
		s.safeTick(t)
	}
}

func (s *Scheduler) safeTick(t Ticker) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Error("Ticker panicked", "panic", p)
		}
	}()
	t.Tick()
}
