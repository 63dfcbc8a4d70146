// internal/importer/xlsx.go
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoWorksheets = errors.New("No worksheets found in Excel file")

// ParseXLSX reads the first worksheet of a workbook. Cells come back as
// displayed, so currency and date formats survive. Rows with no content
// are skipped like blank CSV lines.
func ParseXLSX(r io.Reader) (*ParsedData, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	defer book.Close()

	sheet, err := firstSheet(book.GetSheetList())
	if err != nil {
		return nil, err
	}
	records, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Excel file: %w", err)
	}
	return fromRecords(records)
}

func firstSheet(names []string) (string, error) {
	if len(names) == 0 {
		return "", ErrNoWorksheets
	}
	return names[0], nil
}

func fromRecords(records [][]string) (*ParsedData, error) {
	kept := records[:0]
	for _, rec := range records {
		if !blankRecord(rec) {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyFile
	}

	rows := make([]Row, 0, len(kept)-1)
	for _, rec := range kept[1:] {
		rows = append(rows, Row(rec))
	}
	return &ParsedData{
		Headers:   kept[0],
		Rows:      rows,
		TotalRows: len(rows),
	}, nil
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
