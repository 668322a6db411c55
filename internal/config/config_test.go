package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{KeyDBType, KeyDBDSN, KeyWordCount, KeyRandomRelation, KeyMinSplitSize} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, "data/vocabqueue.db", cfg.DBDSN)
	assert.Equal(t, 13, cfg.WordCount)
	assert.Equal(t, 3, cfg.MinSplitSize)
	assert.True(t, cfg.RandomRelation)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(KeyDBType, "Postgres")
	t.Setenv(KeyDBDSN, "postgres://localhost/vocab")
	t.Setenv(KeyWordCount, "20")
	t.Setenv(KeyRandomRelation, "false")
	t.Setenv(KeyMinSplitSize, "0")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBType)
	assert.Equal(t, "postgres://localhost/vocab", cfg.DBDSN)
	assert.Equal(t, 21, cfg.WordCount)
	assert.False(t, cfg.RandomRelation)
	assert.Equal(t, 3, cfg.MinSplitSize)
}

func TestLoadRejectsUnknownDatabase(t *testing.T) {
	t.Setenv(KeyDBType, "oracle")
	_, err := Load(New())
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_MODEL=gpt-from-file\n"), 0644))
	t.Setenv(KeyOpenAIModel, "")
	os.Unsetenv(KeyOpenAIModel)

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "gpt-from-file", cfg.OpenAIModel)
}
