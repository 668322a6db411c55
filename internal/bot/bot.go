package bot

import (
	"context"
	"math/rand"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/internal/ai"
	"github.com/example/vocabqueue/internal/database"
	"github.com/example/vocabqueue/internal/logger"
	"github.com/example/vocabqueue/internal/queue"
	"github.com/example/vocabqueue/internal/scheduler"
	"github.com/example/vocabqueue/internal/session"
	"github.com/example/vocabqueue/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// API is the part of the Telegram client the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Store gives the bot access to word tables and session results
type Store interface {
	ListTables(ctx context.Context) ([]*models.Table, error)
	LoadTables(ctx context.Context, ids []string) ([]*models.Table, error)
	ListRelations(ctx context.Context, tableIDs []string) ([]*models.Relation, error)
	ApplyResult(ctx context.Context, result *session.Result, now time.Time) error
}

// repositoryStore adapts the database repositories to Store
type repositoryStore struct {
	repos *database.Repositories
}

// NewRepositoryStore exposes repos as a bot Store
func NewRepositoryStore(repos *database.Repositories) Store {
	return &repositoryStore{repos: repos}
}

func (s *repositoryStore) ListTables(ctx context.Context) ([]*models.Table, error) {
	return s.repos.Tables.List(ctx)
}

func (s *repositoryStore) LoadTables(ctx context.Context, ids []string) ([]*models.Table, error) {
	return s.repos.Tables.Load(ctx, ids)
}

func (s *repositoryStore) ListRelations(ctx context.Context, tableIDs []string) ([]*models.Relation, error) {
	return s.repos.Relations.ListByTables(ctx, tableIDs)
}

func (s *repositoryStore) ApplyResult(ctx context.Context, result *session.Result, now time.Time) error {
	return s.repos.Stats.ApplyResult(ctx, result, now)
}

// chatSession is the study session of one chat
type chatSession struct {
	runner   *session.Runner
	revealed bool
}

// Bot represents the Telegram bot application
type Bot struct {
	api       API
	store     Store
	queues    queue.Store
	clock     *scheduler.Scheduler
	examples  *ai.Examples
	listeners []session.Listener
	config    *BotConfig
	log       *logger.Logger
	rng       *rand.Rand
	now       func() time.Time

	mu       sync.Mutex
	sessions map[int64]*chatSession
}

// Options wires the bot's collaborators
type Options struct {
	API    API
	Store  Store
	Queues queue.Store
	Clock  *scheduler.Scheduler
	// Examples, when set, adds generated example sentences to revealed cards
	Examples  *ai.Examples
	Listeners []session.Listener
	Config    *BotConfig
	Logger    *logger.Logger
	Rand      *rand.Rand
}

// New creates a new bot instance
func New(opts Options) (*Bot, error) {
	if opts.API == nil {
		return nil, errors.New("telegram api is not configured")
	}
	if opts.Store == nil {
		return nil, errors.New("store is not configured")
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	listeners := append([]session.Listener(nil), opts.Listeners...)
	if opts.Examples != nil {
		listeners = append(listeners, opts.Examples)
	}

	return &Bot{
		api:       opts.API,
		store:     opts.Store,
		queues:    opts.Queues,
		clock:     opts.Clock,
		examples:  opts.Examples,
		listeners: listeners,
		config:    cfg,
		log:       log.With("component", "bot"),
		rng:       rng,
		now:       time.Now,
		sessions:  make(map[int64]*chatSession),
	}, nil
}

// NewAPI connects to Telegram with token
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN is not set")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create bot")
	}
	return api, nil
}

// Start polls for updates until ctx is cancelled. Updates are handled one
// at a time so a rating is fully applied before the next one is read.
// Open sessions are ended and persisted on the way out.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("Bot started")
	defer b.endAll(context.WithoutCancel(ctx))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// endAll ends every open session, persisting queues and stats
func (b *Bot) endAll(ctx context.Context) {
	b.mu.Lock()
	chats := make([]int64, 0, len(b.sessions))
	for chatID := range b.sessions {
		chats = append(chats, chatID)
	}
	b.mu.Unlock()

	for _, chatID := range chats {
		if _, err := b.endSession(ctx, chatID); err != nil {
			b.log.Error("Failed to end session on shutdown", "chat_id", chatID, "error", err)
		}
	}
}

func (b *Bot) session(chatID int64) *chatSession {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn("Failed to send message", "error", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}
