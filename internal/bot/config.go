package bot

import (
	"github.com/example/vocabqueue/internal/queue"
	"github.com/example/vocabqueue/pkg/models"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Session size, snapped to one of queue.WordCounts
	WordCount int
	// Minimum question word count for scramble cards
	MinSplitSize int
	// Pick a random compatible relation per card
	RandomRelation bool
	// Mode of sessions started with /study
	Mode models.Mode
	// Long polling timeout in seconds
	UpdateTimeout int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		WordCount:      queue.DefaultWordCount,
		MinSplitSize:   queue.DefaultMinSplitSize,
		RandomRelation: true,
		Mode:           models.ModeFlashcard,
		UpdateTimeout:  60,
	}
}
