package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/vocabqueue/internal/queue"
	"github.com/example/vocabqueue/internal/session"
	"github.com/example/vocabqueue/pkg/models"
)

const (
	callbackShow = "show"
	callbackEnd  = "end"
	callbackRate = "rate:"
)

const helpText = `Vocabulary trainer

/tables - list your word tables
/study [table ids] - start a session (all tables when none given)
/end - finish the session and save progress`

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil:
		b.sendText(update.Message.Chat.ID, "I don't understand. Use /start to see the commands.")
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	switch message.Command() {
	case "start", "help":
		b.sendText(chatID, helpText)
	case "tables":
		b.handleTablesCommand(ctx, chatID)
	case "study":
		b.handleStudyCommand(ctx, chatID, strings.Fields(message.CommandArguments()))
	case "end":
		b.handleEndCommand(ctx, chatID)
	default:
		b.sendText(chatID, "Unknown command. Use /start to see the commands.")
	}
}

// handleTablesCommand lists the stored tables with their ids
func (b *Bot) handleTablesCommand(ctx context.Context, chatID int64) {
	tables, err := b.store.ListTables(ctx)
	if err != nil {
		b.log.Error("Failed to list tables", "error", err)
		b.sendText(chatID, "Could not load your tables, please try again later.")
		return
	}
	if len(tables) == 0 {
		b.sendText(chatID, "No tables yet. Import one with the import command.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your tables:\n")
	for _, t := range tables {
		fmt.Fprintf(&sb, "\n%s\n  id: %s\n  columns: %s", t.Name, t.ID, strings.Join(t.Columns, ", "))
	}
	b.sendText(chatID, sb.String())
}

// handleStudyCommand starts a session over the given tables
func (b *Bot) handleStudyCommand(ctx context.Context, chatID int64, tableIDs []string) {
	if b.session(chatID) != nil {
		b.sendText(chatID, "A session is already running. Use /end to finish it first.")
		return
	}

	runner, err := b.startSession(ctx, chatID, tableIDs)
	if err != nil {
		b.log.Error("Failed to start session", "chat_id", chatID, "error", err)
		b.sendText(chatID, "Could not start a session, please try again later.")
		return
	}

	b.sendText(chatID, fmt.Sprintf("Session started with %d cards.", runner.Len()))
	b.showCard(chatID)
}

func (b *Bot) startSession(ctx context.Context, chatID int64, tableIDs []string) (*session.Runner, error) {
	tables, err := b.store.LoadTables(ctx, tableIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.ID)
	}
	relations, err := b.store.ListRelations(ctx, ids)
	if err != nil {
		return nil, err
	}

	runner, err := session.Start(ctx, session.Options{
		Selection: queue.Selection{
			TableIDs:       ids,
			Mode:           b.config.Mode,
			WordCount:      b.config.WordCount,
			MinSplitSize:   b.config.MinSplitSize,
			RandomRelation: b.config.RandomRelation,
		},
		Tables:    tables,
		Relations: relations,
		Store:     b.queues,
		Rand:      b.rng,
		Logger:    b.log.With("chat_id", chatID),
		Listeners: b.listeners,
	})
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.sessions[chatID] = &chatSession{runner: runner}
	b.mu.Unlock()
	if b.clock != nil {
		b.clock.Add(runner.ID(), runner)
	}
	return runner, nil
}

// handleEndCommand ends the chat's session and reports a summary
func (b *Bot) handleEndCommand(ctx context.Context, chatID int64) {
	result, err := b.endSession(ctx, chatID)
	if errors.Is(err, errNoSession) {
		b.sendText(chatID, "No session is running. Use /study to start one.")
		return
	}
	if err != nil {
		b.log.Error("Failed to save session", "chat_id", chatID, "error", err)
		b.sendText(chatID, "Session ended, but progress could not be saved.")
		return
	}
	b.sendText(chatID, summary(result))
}

var errNoSession = errors.New("no session")

// endSession persists queue order and stats of the chat's session.
// The session is forgotten even when saving fails.
func (b *Bot) endSession(ctx context.Context, chatID int64) (*session.Result, error) {
	b.mu.Lock()
	cs, ok := b.sessions[chatID]
	delete(b.sessions, chatID)
	b.mu.Unlock()
	if !ok {
		return nil, errNoSession
	}
	if b.clock != nil {
		b.clock.Remove(cs.runner.ID())
	}

	result, err := cs.runner.End(ctx)
	if result == nil {
		return nil, err
	}
	if applyErr := b.store.ApplyResult(ctx, result, b.now()); applyErr != nil {
		return result, errors.Wrap(applyErr, "failed to apply session result")
	}
	return result, err
}

func summary(result *session.Result) string {
	elapsed := time.Duration(result.ElapsedSeconds) * time.Second
	return fmt.Sprintf("Session finished.\nReviewed: %d of %d cards\nTime: %s",
		len(result.Reviewed), len(result.QueueOrder), elapsed)
}

// showCard sends the current card with its question side up
func (b *Bot) showCard(chatID int64) {
	cs := b.session(chatID)
	if cs == nil {
		return
	}
	card := cs.runner.Current()
	if card == nil {
		msg := tgbotapi.NewMessage(chatID, "Nothing to study in this selection.")
		msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "End", CallbackData: callbackEnd}}})
		b.send(msg)
		return
	}

	b.mu.Lock()
	cs.revealed = false
	b.mu.Unlock()

	msg := tgbotapi.NewMessage(chatID, card.Question())
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "Show answer", CallbackData: callbackShow}},
		{{Text: "End", CallbackData: callbackEnd}},
	})
	b.send(msg)
}

// revealCard sends the answer side with the rating buttons
func (b *Bot) revealCard(chatID int64) {
	cs := b.session(chatID)
	if cs == nil {
		return
	}
	card := cs.runner.Current()
	if card == nil {
		return
	}

	b.mu.Lock()
	cs.revealed = true
	b.mu.Unlock()

	text := card.Question() + "\n\n" + card.Answer()
	if b.examples != nil {
		if example, ok := b.examples.Example(card.ItemID()); ok && example != "" {
			text += "\n\nExample: " + example
		}
	}

	row := make([]MenuButton, 0, len(models.Ratings))
	for _, r := range models.Ratings {
		row = append(row, MenuButton{Text: buttonLabel(r), CallbackData: callbackRate + strconv.Itoa(int(r))})
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{row})
	b.send(msg)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || callback.Message.Chat == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.Debug("Failed to answer callback", "error", err)
	}

	switch {
	case callback.Data == callbackEnd:
		b.handleEndCommand(ctx, chatID)
	case callback.Data == callbackShow:
		if b.session(chatID) == nil {
			b.sendText(chatID, "No session is running. Use /study to start one.")
			return
		}
		b.revealCard(chatID)
	case strings.HasPrefix(callback.Data, callbackRate):
		b.handleRating(chatID, strings.TrimPrefix(callback.Data, callbackRate))
	}
}

func (b *Bot) handleRating(chatID int64, raw string) {
	cs := b.session(chatID)
	if cs == nil {
		b.sendText(chatID, "No session is running. Use /study to start one.")
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || !models.Rating(n).Valid() {
		b.log.Warn("Invalid rating callback", "data", raw)
		return
	}

	b.mu.Lock()
	revealed := cs.revealed
	b.mu.Unlock()
	if !revealed {
		// stale button from an earlier card
		return
	}

	if err := cs.runner.Rate(models.Rating(n)); err != nil {
		b.log.Warn("Failed to rate card", "chat_id", chatID, "error", err)
		return
	}
	b.showCard(chatID)
}

func buttonLabel(r models.Rating) string {
	name := r.String()
	return strings.ToUpper(name[:1]) + name[1:]
}
