package roster

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// maxSheetRows bounds how many rows a legacy .xls workbook is read for.
const maxSheetRows = 100000

// Parse reads a spreadsheet payload and turns it into header/record form. The
// filename only matters for its extension, which selects the decoder.
func Parse(reader io.Reader, filename string) ([]string, []Record, error) {
	rows, err := ReadRows(reader, filename)
	if err != nil {
		return nil, nil, err
	}
	return ParseRows(rows)
}

// ReadRows decodes the raw cell grid from a csv, xls, or xlsx payload.
func ReadRows(reader io.Reader, filename string) ([][]string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return readCSVRows(data)
	case ".xls":
		return readXLSRows(data)
	default:
		return readXLSXRows(data)
	}
}

func readCSVRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

func readXLSRows(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("parse xls: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("xls workbook has no worksheet")
	}
	rows := workbook.ReadAllCells(maxSheetRows)
	if len(rows) == 0 {
		return nil, fmt.Errorf("xls worksheet is empty")
	}
	return rows, nil
}

func readXLSXRows(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("xlsx workbook has no worksheet")
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsx worksheet is empty")
	}
	return rows, nil
}

// ParseRows interprets a cell grid: the first non-empty row is the header, and
// every later row becomes a Record keyed by normalized header. A grid whose
// header carries no recognizable employee-code column is rejected so the loader
// moves on to the next candidate source.
func ParseRows(rows [][]string) ([]string, []Record, error) {
	headerIdx := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, nil, fmt.Errorf("sheet has no header row")
	}

	var headers []string
	var keys []string
	for _, cell := range rows[headerIdx] {
		key := NormalizeHeader(cell)
		keys = append(keys, key)
		if key != "" {
			headers = append(headers, strings.TrimSpace(strings.TrimPrefix(cell, "\uFEFF")))
		}
	}

	if !hasCodeColumn(keys) {
		return nil, nil, fmt.Errorf("sheet has no employee code column (headers: %s)", strings.Join(headers, ", "))
	}

	var records []Record
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		rec := make(Record, len(keys))
		for i, key := range keys {
			if key == "" || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				rec[key] = v
			}
		}
		if len(rec) > 0 {
			records = append(records, rec)
		}
	}
	return headers, records, nil
}

func hasCodeColumn(keys []string) bool {
	for _, alias := range fieldAliases[FieldCode] {
		for _, key := range keys {
			if key == alias {
				return true
			}
		}
	}
	return false
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
