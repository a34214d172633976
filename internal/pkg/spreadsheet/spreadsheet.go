package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .xlsx or .csv")
	ErrEmptySheet        = errors.New("worksheet is empty")
	ErrMissingColumns    = errors.New("required columns are missing")
	ErrInvalidFile       = errors.New("file could not be parsed")
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeCSV  = "text/csv"
)

// Row is one data line of an uploaded sheet with header-based access.
type Row struct {
	Number int // 1-based line number in the file, header included
	cells  []string
	index  map[string]int
}

// Get returns the trimmed cell under the header, or "" when absent.
func (r Row) Get(column string) string {
	idx, ok := r.index[NormalizeHeader(column)]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// IsBlank reports whether every cell in the row is empty.
func (r Row) IsBlank() bool {
	for _, cell := range r.cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

type Table struct {
	Headers []string
	Rows    []Row
	index   map[string]int
}

// Require fails with ErrMissingColumns naming every absent header.
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, column := range columns {
		if _, ok := t.index[NormalizeHeader(column)]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// NormalizeHeader lowercases and snake-cases a header cell.
func NormalizeHeader(header string) string {
	normalized := strings.ToLower(strings.TrimSpace(header))
	return strings.Join(strings.Fields(strings.ReplaceAll(normalized, "-", " ")), "_")
}

// Read parses the first worksheet of an .xlsx file or a .csv file. The
// first non-empty line is the header row; blank lines are dropped.
func Read(r io.Reader, filename string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return newTable(rows)
}

func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrEmptySheet
	}
	rows, err := file.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return rows, nil
}

func newTable(rows [][]string) (*Table, error) {
	headerAt := -1
	for i, row := range rows {
		if !(Row{cells: row}).IsBlank() {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return nil, ErrEmptySheet
	}

	table := &Table{index: make(map[string]int)}
	for i, header := range rows[headerAt] {
		name := NormalizeHeader(header)
		table.Headers = append(table.Headers, name)
		if _, dup := table.index[name]; !dup && name != "" {
			table.index[name] = i
		}
	}

	for i := headerAt + 1; i < len(rows); i++ {
		row := Row{Number: i + 1, cells: rows[i], index: table.index}
		if row.IsBlank() {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// WriteXLSX writes a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, sheetName string, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, row := range rows {
		for c, value := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", r+2, err)
			}
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	return f.Write(w)
}

// WriteCSV writes a header row followed by rows.
func WriteCSV(w io.Writer, headers []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}
