package bulkimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyFile means the upload held no header row.
var ErrEmptyFile = errors.New("bulkimport: uploaded file is empty")

// ReadTable extracts a header row plus data rows from an uploaded file.
// XLSX workbooks read their first sheet; everything else is treated as CSV.
func ReadTable(filename string, r io.Reader) (headers []string, rows [][]string, err error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(r)
	default:
		return readCSV(r)
	}
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("bulkimport: read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmptyFile
	}
	return all[0], all[1:], nil
}

func readWorkbook(r io.Reader) ([]string, [][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("bulkimport: open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, ErrEmptyFile
	}
	all, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("bulkimport: read sheet %s: %w", sheets[0], err)
	}
	if len(all) == 0 {
		return nil, nil, ErrEmptyFile
	}
	return all[0], all[1:], nil
}
