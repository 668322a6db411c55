package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/example/vocabqueue/internal/ai"
	"github.com/example/vocabqueue/internal/bot"
	"github.com/example/vocabqueue/internal/config"
	"github.com/example/vocabqueue/internal/database"
	"github.com/example/vocabqueue/internal/excel"
	"github.com/example/vocabqueue/internal/logger"
	"github.com/example/vocabqueue/internal/scheduler"
	"github.com/example/vocabqueue/internal/session"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "vocabqueue",
	Short: "Adaptive vocabulary review queues",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(".env")
	},
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runBot(ctx)
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import word tables from xlsx or csv files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		if name != "" && len(args) > 1 {
			return errors.New("--name needs a single file")
		}
		return runImport(cmd.Context(), args, name)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, repos, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		defer repos.Close()
		log.Info("Database is up to date")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db-type", "sqlite", "database type (sqlite or postgres)")
	flags.String("db-dsn", "data/vocabqueue.db", "database file or connection string")
	flags.String("log-mode", "dev", "log mode (dev or prod)")
	_ = v.BindPFlag(config.KeyDBType, flags.Lookup("db-type"))
	_ = v.BindPFlag(config.KeyDBDSN, flags.Lookup("db-dsn"))
	_ = v.BindPFlag(config.KeyLogMode, flags.Lookup("log-mode"))

	botFlags := botCmd.Flags()
	botFlags.Int("word-count", 13, "cards per session")
	botFlags.Bool("random-relation", true, "pick a random compatible relation per card")
	_ = v.BindPFlag(config.KeyWordCount, botFlags.Lookup("word-count"))
	_ = v.BindPFlag(config.KeyRandomRelation, botFlags.Lookup("random-relation"))

	importCmd.Flags().String("name", "", "table name (defaults to the file name)")

	rootCmd.AddCommand(botCmd, importCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, builds the logger and opens the database
func setup() (*config.Config, *logger.Logger, *database.Repositories, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to create logger")
	}
	db, err := database.Connect(cfg.DBType, cfg.DBDSN)
	if err != nil {
		log.Sync()
		return nil, nil, nil, errors.Wrap(err, "failed to connect to database")
	}
	log.Info("Connected to database", "type", cfg.DBType)
	return cfg, log, database.NewRepositories(db, log), nil
}

func runBot(ctx context.Context) error {
	cfg, log, repos, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer func() {
		if err := repos.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()

	api, err := bot.NewAPI(cfg.TelegramToken)
	if err != nil {
		return err
	}

	clock := scheduler.New(log)
	if err := clock.Start(); err != nil {
		return errors.Wrap(err, "failed to start scheduler")
	}
	defer clock.Stop()

	var examples *ai.Examples
	if cfg.OpenAIKey != "" {
		gpt, err := ai.New(ai.Config{APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel})
		if err != nil {
			return err
		}
		examples = ai.NewExamples(gpt, log)
		defer examples.Wait()
	} else {
		log.Info("OPENAI_API_KEY not set, example sentences disabled")
	}

	botConfig := bot.DefaultConfig()
	botConfig.WordCount = cfg.WordCount
	botConfig.MinSplitSize = cfg.MinSplitSize
	botConfig.RandomRelation = cfg.RandomRelation

	b, err := bot.New(bot.Options{
		API:       api,
		Store:     bot.NewRepositoryStore(repos),
		Queues:    repos.Queues,
		Clock:     clock,
		Examples:  examples,
		Listeners: []session.Listener{repos.Journal},
		Config:    botConfig,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	err = b.Start(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("Bot stopped")
		return nil
	}
	return err
}

func runImport(ctx context.Context, paths []string, name string) error {
	_, log, repos, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	defer repos.Close()

	importer := excel.NewImporter(repos.Tables, repos.Relations, log)
	for _, path := range paths {
		result, err := importer.ImportTable(ctx, path, name)
		if err != nil {
			return errors.Wrapf(err, "failed to import %s", filepath.Base(path))
		}
		fmt.Printf("%s: table %s, %d items imported, %d rows skipped\n",
			filepath.Base(path), result.TableID, result.Created, result.Skipped)
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
	return nil
}
