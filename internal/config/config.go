package config

import (
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/example/vocabqueue/internal/queue"
)

// Keys shared by the environment, .env files and command-line flags
const (
	KeyTelegramToken  = "TELEGRAM_BOT_TOKEN"
	KeyDBType         = "DB_TYPE"
	KeyDBDSN          = "DB_DSN"
	KeyLogMode        = "LOG_MODE"
	KeyOpenAIKey      = "OPENAI_API_KEY"
	KeyOpenAIModel    = "OPENAI_MODEL"
	KeyWordCount      = "WORD_COUNT"
	KeyMinSplitSize   = "MIN_SPLIT_SIZE"
	KeyRandomRelation = "RANDOM_RELATION"
)

// Config is the resolved application configuration
type Config struct {
	TelegramToken  string
	DBType         string
	DBDSN          string
	LogMode        string
	OpenAIKey      string
	OpenAIModel    string
	WordCount      int
	MinSplitSize   int
	RandomRelation bool
}

// New returns a viper instance with defaults and environment lookup.
// Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBType, "sqlite")
	v.SetDefault(KeyDBDSN, "data/vocabqueue.db")
	v.SetDefault(KeyLogMode, "dev")
	v.SetDefault(KeyOpenAIModel, "gpt-4o-mini")
	v.SetDefault(KeyWordCount, queue.DefaultWordCount)
	v.SetDefault(KeyMinSplitSize, queue.DefaultMinSplitSize)
	v.SetDefault(KeyRandomRelation, true)
	v.AutomaticEnv()
	return v
}

// LoadDotEnv reads .env files into the environment. A missing file is fine.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to load .env")
	}
	return nil
}

// Load resolves the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		TelegramToken:  v.GetString(KeyTelegramToken),
		DBType:         strings.ToLower(v.GetString(KeyDBType)),
		DBDSN:          v.GetString(KeyDBDSN),
		LogMode:        v.GetString(KeyLogMode),
		OpenAIKey:      v.GetString(KeyOpenAIKey),
		OpenAIModel:    v.GetString(KeyOpenAIModel),
		WordCount:      queue.NormalizeWordCount(v.GetInt(KeyWordCount)),
		MinSplitSize:   v.GetInt(KeyMinSplitSize),
		RandomRelation: v.GetBool(KeyRandomRelation),
	}

	switch cfg.DBType {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return nil, errors.Errorf("unsupported %s %q", KeyDBType, cfg.DBType)
	}
	if cfg.DBDSN == "" {
		return nil, errors.Errorf("%s is empty", KeyDBDSN)
	}
	if cfg.MinSplitSize <= 0 {
		cfg.MinSplitSize = queue.DefaultMinSplitSize
	}
	return cfg, nil
}
