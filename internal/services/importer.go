package services

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lehmann314159/flashcards/internal/models"
)

// ParseVocabularyFile reads an uploaded vocabulary file. The format is picked by extension:
// .json holds an upload body, .csv and .xlsx hold a header row naming the columns.
func ParseVocabularyFile(filename string, r io.Reader) ([]models.UploadWord, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return parseJSON(r)
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, models.Invalidf("unsupported file type %q, use .json, .csv or .xlsx", filepath.Ext(filename))
	}
}

func parseJSON(r io.Reader) ([]models.UploadWord, error) {
	var req models.UploadRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		if errors.Is(err, models.ErrValidation) {
			return nil, err
		}
		return nil, models.Invalidf("invalid JSON file: %v", err)
	}
	return req.Words, nil
}

func parseCSV(r io.Reader) ([]models.UploadWord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.Invalidf("invalid CSV file: %v", err)
		}
		// the reader skips empty lines, so count from its position
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}
	return wordsFromRows(rows, lines)
}

func parseXLSX(r io.Reader) ([]models.UploadWord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, models.Invalidf("invalid spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, models.Invalidf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	// GetRows keeps empty rows inside the sheet, so row i is on line i+1
	lines := make([]int, len(rows))
	for i := range lines {
		lines[i] = i + 1
	}
	return wordsFromRows(rows, lines)
}

// wordsFromRows maps a header row plus data rows to upload entries. lines[i] is the file line of
// rows[i]. Blank rows are skipped.
func wordsFromRows(rows [][]string, lines []int) ([]models.UploadWord, error) {
	if len(rows) == 0 {
		return nil, models.Invalidf("file is empty")
	}

	colIndex := make(map[string]int)
	for i, col := range rows[0] {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range []string{"word", "meaning"} {
		if _, ok := colIndex[col]; !ok {
			return nil, models.Invalidf("missing required column: %s", col)
		}
	}

	cell := func(record []string, col string) (string, bool) {
		idx, ok := colIndex[col]
		if !ok || idx >= len(record) {
			return "", false
		}
		val := strings.TrimSpace(record[idx])
		return val, val != ""
	}

	words := make([]models.UploadWord, 0, len(rows)-1)
	for i, record := range rows[1:] {
		line := lines[i+1]
		if strings.TrimSpace(strings.Join(record, "")) == "" {
			continue
		}

		entry := models.UploadWord{Line: line}
		entry.Word, _ = cell(record, "word")
		entry.Meaning, _ = cell(record, "meaning")
		if val, ok := cell(record, "category"); ok {
			entry.Category = &val
		}
		if val, ok := cell(record, "example"); ok {
			entry.Example = &val
		}
		if val, ok := cell(record, "difficulty"); ok {
			d, err := strconv.Atoi(val)
			if err != nil {
				return nil, models.Invalidf("line %d: difficulty must be a number", line)
			}
			entry.Difficulty = &d
		}

		words = append(words, entry)
	}

	return words, nil
}

// exportHeader is shared by the CSV export and the import column names
var exportHeader = []string{"word", "meaning", "category", "example", "difficulty"}

func exportRecord(w *models.VocabularyWord) []string {
	example := ""
	if w.Example != nil {
		example = *w.Example
	}
	return []string{w.Word, w.Meaning, w.Category, example, strconv.Itoa(w.Difficulty)}
}
