// Package importer reads piece lists from CSV, Excel, and DXF files.
// Tabular imports detect the delimiter, map columns by case-insensitive
// header aliases, and fall back to positional columns when no header is present.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/piwi3910/cutplan/internal/errors"
	"github.com/piwi3910/cutplan/internal/model"
)

// ImportResult holds the pieces read from a file plus per-row problems.
// Rows with errors are skipped; the remaining pieces are still returned.
type ImportResult struct {
	Pieces   []model.PieceSpec
	Errors   []string
	Warnings []string
}

// Err folds the row errors into a single INVALID_FORMAT error, or nil.
func (r ImportResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return apperrors.New(apperrors.ErrCodeInvalidFormat, "%s", strings.Join(r.Errors, "; "))
}

// ColumnMapping maps semantic column roles to their indices in the data.
// A negative index means the column is absent.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
	Grain    int
	Priority int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":    {"label", "name", "part", "part name", "description", "desc", "piece", "item"},
	"width":    {"width", "w", "length", "len", "x"},
	"height":   {"height", "h", "depth", "d", "y"},
	"quantity": {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
	"grain":    {"grain", "grain direction", "grain_direction", "direction", "grain dir"},
	"priority": {"priority", "prio", "rank"},
}

// Import reads pieces from path, choosing the reader by file extension.
func Import(path string) (ImportResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		return ImportCSV(path), nil
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path), nil
	case ".dxf":
		return ImportDXF(path), nil
	default:
		return ImportResult{}, apperrors.New(apperrors.ErrCodeInvalidFormat,
			"unsupported piece list format %q (want .csv, .xlsx or .dxf)", filepath.Ext(path))
	}
}

// DetectCSVDelimiter determines the most likely delimiter among comma,
// semicolon, tab, and pipe. The candidate yielding the most rows with the
// same multi-column width as the first row wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		records, err := readRecords(bytes.NewReader(data), delim)
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func readRecords(r io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// DetectColumns examines a header row and returns a ColumnMapping. The
// boolean is false when no cell matched a known alias; the mapping is then
// positional: label, width, height, quantity, grain, priority.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Label: -1, Width: -1, Height: -1, Quantity: -1, Grain: -1, Priority: -1}
	slots := map[string]*int{
		"label":    &mapping.Label,
		"width":    &mapping.Width,
		"height":   &mapping.Height,
		"quantity": &mapping.Quantity,
		"grain":    &mapping.Grain,
		"priority": &mapping.Priority,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Label: 0, Width: 1, Height: 2, Quantity: 3, Grain: 4, Priority: 5}, false
	}
	return mapping, true
}

// getCell returns the trimmed cell at idx, or "" when out of range.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseLength accepts plain decimals and a decimal comma ("12,5").
func parseLength(s string) (decimal.Decimal, error) {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

// parseRow extracts a piece from a row. It returns the piece, an error
// message if the row is unusable, and an optional warning.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, pieceCount int) (model.PieceSpec, string, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Piece %d", pieceCount+1)
	}

	widthStr := getCell(row, mapping.Width)
	if widthStr == "" {
		return model.PieceSpec{}, fmt.Sprintf("%s: Missing width value", rowLabel), ""
	}
	width, err := parseLength(widthStr)
	if err != nil {
		return model.PieceSpec{}, fmt.Sprintf("%s: Invalid width '%s'", rowLabel, widthStr), ""
	}

	heightStr := getCell(row, mapping.Height)
	if heightStr == "" {
		return model.PieceSpec{}, fmt.Sprintf("%s: Missing height value", rowLabel), ""
	}
	height, err := parseLength(heightStr)
	if err != nil {
		return model.PieceSpec{}, fmt.Sprintf("%s: Invalid height '%s'", rowLabel, heightStr), ""
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return model.PieceSpec{}, fmt.Sprintf("%s: Missing quantity value", rowLabel), ""
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return model.PieceSpec{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), ""
	}

	if !width.IsPositive() || !height.IsPositive() || qty <= 0 {
		return model.PieceSpec{}, fmt.Sprintf("%s: Width, height, and quantity must be positive", rowLabel), ""
	}

	p := model.NewPieceSpec(label, width, height, qty)

	var warnings []string
	if grainStr := getCell(row, mapping.Grain); grainStr != "" {
		p.Grain = model.ParseGrain(grainStr)
		if !p.Grain.Locked() && p.Grain != model.GrainNone {
			warnings = append(warnings, fmt.Sprintf("%s: Grain direction '%s' does not lock rotation", rowLabel, grainStr))
		}
	}
	if prioStr := getCell(row, mapping.Priority); prioStr != "" {
		prio, err := strconv.Atoi(prioStr)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid priority '%s', using 0", rowLabel, prioStr))
		} else {
			p.Priority = prio
		}
	}

	return p, "", strings.Join(warnings, "; ")
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports pieces from a delimited text file.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readRecords(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports pieces from a reader with a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune) ImportResult {
	records, err := readRecords(r, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return importFromRows(records, "Line", nil)
}

// ImportExcel imports pieces from the first worksheet of an Excel workbook.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared tabular logic: header detection, column
// mapping, and per-row parsing.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 3 {
		// An unrecognized header still has a non-numeric width cell
		if _, err := parseLength(strings.TrimSpace(rows[0][1])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		p, errMsg, warning := parseRow(row, mapping, rowLabel, len(result.Pieces))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Pieces = append(result.Pieces, p)
	}

	return result
}
