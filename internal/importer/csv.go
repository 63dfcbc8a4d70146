// internal/importer/csv.go
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ParsedData is a decoded import file: the header line and the data rows.
type ParsedData struct {
	Headers   []string `json:"headers"`
	Rows      []Row    `json:"rows"`
	TotalRows int      `json:"totalRows"`
}

// ParseCSV reads a comma separated file. Blank lines are skipped and rows
// may have differing widths.
func ParseCSV(r io.Reader) (*ParsedData, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV parsing error: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row(rec))
	}

	return &ParsedData{
		Headers:   headers,
		Rows:      rows,
		TotalRows: len(rows),
	}, nil
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// CheckFormat accepts file names this package can decode.
func CheckFormat(name string) error {
	switch ext := extension(name); ext {
	case "csv", "xlsx":
		return nil
	default:
		return fmt.Errorf("%w: %q, please use CSV or Excel (.xlsx) files", ErrUnsupportedFormat, ext)
	}
}

// ParseFile decodes r with the parser matching name's extension.
func ParseFile(name string, r io.Reader) (*ParsedData, error) {
	if err := CheckFormat(name); err != nil {
		return nil, err
	}
	if extension(name) == "xlsx" {
		return ParseXLSX(r)
	}
	return ParseCSV(r)
}

// RowFromValues converts decoded JSON cells into a Row.
func RowFromValues(values []interface{}) Row {
	row := make(Row, len(values))
	for i, v := range values {
		row[i] = cellString(v)
	}
	return row
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(val)
	}
}
