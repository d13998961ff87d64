package bulkimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadTableCSV(t *testing.T) {
	src := "Date,Amount\n05-04-2026,118\n06-04-2026,236\n"
	headers, rows, err := ReadTable("upload.csv", strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"Date", "Amount"}, headers)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"06-04-2026", "236"}, rows[1])
}

func TestReadTableEmptyCSV(t *testing.T) {
	_, _, err := ReadTable("upload.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadTableXLSX(t *testing.T) {
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{"Date", "Amount"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{"05-04-2026", "118"}))

	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)

	headers, rows, err := ReadTable("upload.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Date", "Amount"}, headers)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"05-04-2026", "118"}, rows[0])
}

func TestReadTableRejectsGarbageWorkbook(t *testing.T) {
	_, _, err := ReadTable("upload.xlsx", strings.NewReader("not a zip"))
	assert.Error(t, err)
}
