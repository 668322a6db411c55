package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/vocabqueue/pkg/models"
)

type memoryTables struct{ created []*models.Table }

func (m *memoryTables) Create(_ context.Context, t *models.Table) error {
	m.created = append(m.created, t)
	return nil
}

type memoryRelations struct{ created []*models.Relation }

func (m *memoryRelations) Create(_ context.Context, r *models.Relation) error {
	m.created = append(m.created, r)
	return nil
}

func TestParseTable(t *testing.T) {
	rows := [][]string{
		{"word", "", "meaning", "word", ""},
		{"cat", "[kæt]", "кошка"},
		{"", "", ""},
		{"", "x", "orphan"},
		{" dog ", "", "собака", "extra"},
	}
	table, result, err := ParseTable("Animals", rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"word", "B", "meaning", "word 2"}, table.Columns)
	require.Len(t, table.Items, 2)
	assert.Equal(t, map[string]string{"word": "cat", "B": "[kæt]", "meaning": "кошка"}, table.Items[0].Values)
	assert.Equal(t, "dog", table.Items[1].Value("word"))
	assert.Equal(t, "extra", table.Items[1].Value("word 2"))
	assert.Equal(t, table.ID, table.Items[0].TableID)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 4")

	_, _, err = ParseTable("empty", nil)
	assert.Error(t, err)
	_, _, err = ParseTable("blank header", [][]string{{"", " "}})
	assert.Error(t, err)
}

func TestDefaultRelation(t *testing.T) {
	rel := DefaultRelation(&models.Table{ID: "t1", Columns: []string{"word", "meaning", "note"}})
	require.NotNil(t, rel)
	assert.Equal(t, []string{"word"}, rel.QuestionCols)
	assert.Equal(t, []string{"meaning"}, rel.AnswerCols)
	assert.True(t, rel.Supports(models.ModeFlashcard))

	single := DefaultRelation(&models.Table{ID: "t1", Columns: []string{"sentence"}})
	require.NotNil(t, single)
	assert.Equal(t, []models.Mode{models.ModeScramble}, single.Modes)

	assert.Nil(t, DefaultRelation(&models.Table{}))
}

func TestImportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "verbs.csv")
	require.NoError(t, os.WriteFile(path, []byte("word,meaning\ngo,идти\n,\nrun,бежать\n"), 0644))

	tables, relations := &memoryTables{}, &memoryRelations{}
	result, err := NewImporter(tables, relations, nil).ImportTable(context.Background(), path, "")
	require.NoError(t, err)

	require.Len(t, tables.created, 1)
	assert.Equal(t, "verbs", tables.created[0].Name)
	assert.Equal(t, tables.created[0].ID, result.TableID)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, relations.created, 1)
	assert.Equal(t, result.RelationID, relations.created[0].ID)
	assert.Equal(t, result.TableID, relations.created[0].TableID)
}

func TestImportExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"word", "meaning"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"apple", "яблоко"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"pear", "груша"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tables := &memoryTables{}
	result, err := NewImporter(tables, nil, nil).ImportTable(context.Background(), path, "Fruit")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.RelationID)
	require.Len(t, tables.created, 1)
	assert.Equal(t, "Fruit", tables.created[0].Name)
	assert.Equal(t, "яблоко", tables.created[0].Items[0].Value("meaning"))
}

func TestImportMissingFile(t *testing.T) {
	_, err := NewImporter(&memoryTables{}, nil, nil).ImportTable(context.Background(), "nope.xlsx", "")
	assert.Error(t, err)
}
