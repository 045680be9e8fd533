package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"datasnap/internal/domain"
	"datasnap/internal/session"
	"datasnap/internal/typeinfer"
)

// ExcelAdapter imports spreadsheet workbooks. Sheet enumeration and cell
// access go through excelize; typing and empty-row filtering are done here
// because workbook cells arrive as raw text.
type ExcelAdapter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExcelAdapter creates a spreadsheet adapter over the session's
// analytical store.
func NewExcelAdapter(db *sql.DB, logger *slog.Logger) *ExcelAdapter {
	return &ExcelAdapter{db: db, logger: logger}
}

// SourceType identifies this adapter.
func (a *ExcelAdapter) SourceType() domain.SourceType { return domain.SourceExcel }

// ListSheets returns the workbook's sheet names in order. Metadata only, no
// import side effects.
func (a *ExcelAdapter) ListSheets(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.ErrNotFound("Excel file not found: %s", path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, domain.ErrValidation("could not open Excel file: %s", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Import loads one worksheet into the imported table.
//
// The full sheet is scanned for type inference. Rows whose every cell is
// blank are filtered before insertion and reported in the warnings; mixed
// type columns fall back to VARCHAR.
func (a *ExcelAdapter) Import(ctx context.Context, opts ImportOptions) (*domain.ImportResult, error) {
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, domain.ErrNotFound("Excel file not found: %s", opts.Path)
	}
	f, err := excelize.OpenFile(opts.Path)
	if err != nil {
		return nil, domain.ErrValidation("could not open Excel file: %s", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrValidation("Excel file contains no sheets")
	}
	sheet := opts.Sheet
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, domain.ErrValidation(
			"sheet %q not found. Available sheets: %s", sheet, strings.Join(sheets, ", "))
	}

	a.logger.Info("importing Excel sheet", "path", opts.Path, "sheet", sheet)

	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, domain.ErrValidation("could not read sheet %q: %s", sheet, err)
	}
	if len(raw) == 0 {
		if _, err := a.db.ExecContext(ctx, fmt.Sprintf(
			"CREATE OR REPLACE TABLE %s (%s BIGINT)", session.TableName, domain.RowNumColumn)); err != nil {
			return nil, err
		}
		return &domain.ImportResult{
			RowCount:   0,
			Columns:    nil,
			Warnings:   []string{"Sheet is empty"},
			SourceType: domain.SourceExcel,
		}, nil
	}

	headers, dataRows := splitHeader(raw, opts.Header)
	headers = uniqueHeaders(headers)

	// Pad ragged rows to header width and drop rows that are entirely blank.
	var skipped int
	rows := make([][]string, 0, len(dataRows))
	for _, r := range dataRows {
		padded := padRow(r, len(headers))
		if rowIsBlank(padded) {
			skipped++
			continue
		}
		rows = append(rows, padded)
	}

	types, colWarnings := inferColumnTypes(headers, rows)

	// Rows land in a staging table first; the previous import survives
	// intact unless the swap at the end succeeds.
	const staging = "excel_import_raw"
	if err := a.createTable(ctx, staging, headers, types); err != nil {
		return nil, err
	}
	defer a.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging)
	if err := a.insertRows(ctx, staging, headers, types, rows); err != nil {
		return nil, err
	}
	if _, err := a.db.ExecContext(ctx, fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", session.TableName, staging)); err != nil {
		return nil, fmt.Errorf("materialize imported rows: %w", err)
	}

	columns := make([]domain.Column, len(headers))
	var warnings []string
	for i, name := range headers {
		columns[i] = domain.Column{
			Name:     name,
			Type:     types[i],
			Nullable: columnHasBlank(rows, i),
			Warnings: colWarnings[i],
		}
		warnings = append(warnings, colWarnings[i]...)
	}
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("Skipped %d empty rows", skipped))
	}

	a.logger.Info("Excel import complete", "rows", len(rows), "columns", len(headers))

	return &domain.ImportResult{
		RowCount:   int64(len(rows)),
		Columns:    columns,
		Warnings:   warnings,
		SourceType: domain.SourceExcel,
	}, nil
}

// Metadata reports row and column counts of the imported table.
func (a *ExcelAdapter) Metadata(ctx context.Context) (*Metadata, error) {
	return tableMetadata(ctx, a.db, domain.SourceExcel)
}

func (a *ExcelAdapter) createTable(ctx context.Context, table string, headers, types []string) error {
	defs := make([]string, 0, len(headers)+1)
	defs = append(defs, domain.RowNumColumn+" BIGINT")
	for i, name := range headers {
		defs = append(defs, quoteIdent(name)+" "+types[i])
	}
	stmt := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := a.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	return nil
}

func (a *ExcelAdapter) insertRows(ctx context.Context, table string, headers, types []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	placeholders := make([]string, len(headers)+1)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt, err := a.db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)", table, strings.Join(placeholders, ", ")))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for rowIdx, row := range rows {
		args := make([]interface{}, 0, len(headers)+1)
		args = append(args, int64(rowIdx+1))
		for colIdx := range headers {
			args = append(args, convertCell(row[colIdx], types[colIdx]))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", rowIdx+1, err)
		}
	}
	return nil
}

// splitHeader separates the header row from data rows. Without a header row
// all rows are data and column names are generated.
func splitHeader(raw [][]string, hasHeader bool) (headers []string, data [][]string) {
	if hasHeader {
		for i, h := range raw[0] {
			h = strings.TrimSpace(h)
			if h == "" {
				h = "column_" + strconv.Itoa(i+1)
			}
			headers = append(headers, h)
		}
		return headers, raw[1:]
	}
	width := 0
	for _, r := range raw {
		if len(r) > width {
			width = len(r)
		}
	}
	for i := 0; i < width; i++ {
		headers = append(headers, "column_"+strconv.Itoa(i+1))
	}
	return headers, raw
}

// uniqueHeaders disambiguates duplicate column names with numeric suffixes.
func uniqueHeaders(headers []string) []string {
	seen := make(map[string]int, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		name := h
		if name == "" {
			name = "column"
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			out[i] = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 0
			out[i] = name
		}
	}
	return out
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func columnHasBlank(rows [][]string, col int) bool {
	for _, r := range rows {
		if strings.TrimSpace(r[col]) == "" {
			return true
		}
	}
	return false
}

// inferColumnTypes runs full-scan inference over every column and collects
// per-column date ambiguity warnings.
func inferColumnTypes(headers []string, rows [][]string) (types []string, warnings [][]string) {
	types = make([]string, len(headers))
	warnings = make([][]string, len(headers))

	for col := range headers {
		var valueTypes []string
		for _, r := range rows {
			if strings.TrimSpace(r[col]) == "" {
				continue
			}
			valueTypes = append(valueTypes, typeinfer.ClassifyValue(r[col]))
		}
		types[col] = typeinfer.UnifyColumn(valueTypes)

		// Spreadsheets export date cells as bare serial day counts, which
		// classify as integers. A date-hinted header with all-serial values
		// opts the column into the serial reading.
		if types[col] == typeinfer.TypeInteger && dateHintedSerials(headers[col], rows, col) {
			types[col] = typeinfer.TypeDate
		}

		if types[col] == typeinfer.TypeDate || types[col] == typeinfer.TypeTimestamp {
			for _, r := range rows {
				if strings.TrimSpace(r[col]) == "" {
					continue
				}
				if msg, ambiguous := typeinfer.DetectAmbiguity(r[col]); ambiguous {
					warnings[col] = append(warnings[col], msg)
				}
				break
			}
		}
	}
	return types, warnings
}

// dateHintedSerials reports whether a column whose header mentions "date"
// holds only Excel serial day numbers in its non-blank cells.
func dateHintedSerials(header string, rows [][]string, col int) bool {
	if !strings.Contains(strings.ToLower(header), "date") {
		return false
	}
	seen := false
	for _, r := range rows {
		v := strings.TrimSpace(r[col])
		if v == "" {
			continue
		}
		if !typeinfer.IsExcelSerial(v) {
			return false
		}
		seen = true
	}
	return seen
}

// convertCell parses a raw cell into the Go value matching the column's
// inferred type. Blank cells become NULL; a value that unexpectedly fails
// strict parsing is preserved as NULL rather than corrupting the column.
func convertCell(cell, duckType string) interface{} {
	v := strings.TrimSpace(cell)
	if v == "" {
		return nil
	}
	switch duckType {
	case typeinfer.TypeInteger, typeinfer.TypeBigInt:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case typeinfer.TypeDouble:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	case typeinfer.TypeBoolean:
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	case typeinfer.TypeDate:
		if t, ok := typeinfer.ParseDate(v); ok {
			return t
		}
	case typeinfer.TypeTimestamp:
		if t, ok := typeinfer.ParseTimestamp(v); ok {
			return t
		}
		if t, ok := typeinfer.ParseDate(v); ok {
			return t
		}
	default:
		return v
	}
	return nil
}
