package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/example/vocabqueue/internal/logger"
	"github.com/example/vocabqueue/pkg/models"
)

// TableStore persists imported tables
type TableStore interface {
	Create(ctx context.Context, table *models.Table) error
}

// RelationStore persists the relation created for an imported table
type RelationStore interface {
	Create(ctx context.Context, rel *models.Relation) error
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TableID    string
	RelationID string
	Created    int
	Skipped    int
	Errors     []string
}

// Importer reads word tables from Excel or CSV files.
// The first row holds the column names, every following row is one item.
type Importer struct {
	tables    TableStore
	relations RelationStore
	log       *logger.Logger

	// SheetName selects the sheet of an xlsx file; empty means the first one
	SheetName string
}

// NewImporter creates an importer. relations may be nil to skip creating a
// default relation.
func NewImporter(tables TableStore, relations RelationStore, log *logger.Logger) *Importer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Importer{tables: tables, relations: relations, log: log}
}

// ImportTable reads path and stores it as a new table called name
// (the file name when empty), plus a default relation for it
func (im *Importer) ImportTable(ctx context.Context, path, name string) (*ImportResult, error) {
	rows, err := im.ReadRows(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	table, result, err := ParseTable(name, rows)
	if err != nil {
		return nil, err
	}
	if err := im.tables.Create(ctx, table); err != nil {
		return nil, errors.Wrap(err, "failed to store table")
	}
	result.TableID = table.ID

	if im.relations != nil {
		if rel := DefaultRelation(table); rel != nil {
			if err := im.relations.Create(ctx, rel); err != nil {
				return nil, errors.Wrap(err, "failed to store relation")
			}
			result.RelationID = rel.ID
		}
	}

	im.log.Info("Table imported",
		"table_id", table.ID,
		"name", name,
		"created", result.Created,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// ReadRows returns every row of a .csv file or of an Excel sheet
func (im *Importer) ReadRows(path string) ([][]string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return readCSV(path)
	}
	return readExcel(path, im.SheetName)
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rows")
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open CSV file")
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "error reading CSV")
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseTable turns raw rows into a table. The first row names the columns;
// blank header cells are named after their spreadsheet column letter.
// Blank rows are skipped, rows without a value in the first column are
// reported as errors.
func ParseTable(name string, rows [][]string) (*models.Table, *ImportResult, error) {
	if len(rows) == 0 {
		return nil, nil, errors.New("file has no header row")
	}
	columns := headerColumns(rows[0])
	if len(columns) == 0 {
		return nil, nil, errors.New("header row is empty")
	}

	table := &models.Table{ID: uuid.NewString(), Name: name, Columns: columns}
	result := &ImportResult{Errors: make([]string, 0)}

	for i, row := range rows[1:] {
		rowNum := i + 2
		values := make(map[string]string, len(columns))
		blank := true
		for c, col := range columns {
			if c >= len(row) {
				break
			}
			if v := strings.TrimSpace(row[c]); v != "" {
				values[col] = v
				blank = false
			}
		}

		switch {
		case blank:
			result.Skipped++
		case values[columns[0]] == "":
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s cannot be empty", rowNum, columns[0]))
		default:
			table.Items = append(table.Items, &models.Item{
				ID:      uuid.NewString(),
				TableID: table.ID,
				Values:  values,
			})
			result.Created++
		}
	}
	return table, result, nil
}

func headerColumns(header []string) []string {
	last := len(header)
	for last > 0 && strings.TrimSpace(header[last-1]) == "" {
		last--
	}

	columns := make([]string, 0, last)
	seen := make(map[string]int, last)
	for i := 0; i < last; i++ {
		col := strings.TrimSpace(header[i])
		if col == "" {
			col, _ = excelize.ColumnNumberToName(i + 1)
		}
		seen[col]++
		if n := seen[col]; n > 1 {
			col = fmt.Sprintf("%s %d", col, n)
		}
		columns = append(columns, col)
	}
	return columns
}

// DefaultRelation asks the first column and answers with the second.
// Tables with a single column get a scramble-only relation.
func DefaultRelation(table *models.Table) *models.Relation {
	if table == nil || len(table.Columns) == 0 {
		return nil
	}
	if len(table.Columns) == 1 {
		return &models.Relation{
			ID:           uuid.NewString(),
			TableID:      table.ID,
			Name:         table.Columns[0],
			QuestionCols: []string{table.Columns[0]},
			AnswerCols:   []string{},
			Modes:        []models.Mode{models.ModeScramble},
		}
	}
	return &models.Relation{
		ID:           uuid.NewString(),
		TableID:      table.ID,
		Name:         table.Columns[0] + " → " + table.Columns[1],
		QuestionCols: []string{table.Columns[0]},
		AnswerCols:   []string{table.Columns[1]},
		Modes:        append([]models.Mode(nil), models.Modes...),
	}
}
