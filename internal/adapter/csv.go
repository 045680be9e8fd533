package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"datasnap/internal/domain"
	"datasnap/internal/session"
)

// CSVAdapter imports delimited text files through DuckDB's bulk CSV reader.
//
// Type detection scans the entire file (sample_size = -1), not a prefix, so
// a late-appearing string value correctly demotes a column to VARCHAR
// instead of poisoning the import. Unparseable values never fail the import;
// mixed-type columns fall back to VARCHAR.
type CSVAdapter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewCSVAdapter creates a CSV adapter over the session's analytical store.
func NewCSVAdapter(db *sql.DB, logger *slog.Logger) *CSVAdapter {
	return &CSVAdapter{db: db, logger: logger}
}

// SourceType identifies this adapter.
func (a *CSVAdapter) SourceType() domain.SourceType { return domain.SourceCSV }

// Import loads a delimited file into the imported table.
//
// The load runs in two passes: a bulk read into a staging table under
// null-padding semantics, then a rewrite that drops every row whose columns
// are all null and assigns dense 1-based row numbers. The second pass is a
// correctness requirement: the bulk loader preserves blank lines as
// all-null rows.
//
// On any failure the previously imported data source is left untouched.
func (a *CSVAdapter) Import(ctx context.Context, opts ImportOptions) (*domain.ImportResult, error) {
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, domain.ErrNotFound("CSV file not found: %s", opts.Path)
	}
	delim := opts.Delimiter
	if delim == "" {
		delim = ","
	}
	if len(delim) != 1 {
		return nil, domain.ErrValidation("delimiter must be a single character, got %q", delim)
	}

	a.logger.Info("importing CSV", "path", opts.Path)

	const staging = "csv_import_raw"
	readCSV := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT * FROM read_csv(
			%s,
			auto_detect = true,
			sample_size = -1,
			ignore_errors = true,
			null_padding = true,
			delim = %s,
			header = %t
		)`, staging, quoteLiteral(opts.Path), quoteLiteral(delim), opts.Header)

	if _, err := a.db.ExecContext(ctx, readCSV); err != nil {
		return nil, domain.ErrValidation("could not read CSV file: %s. Check the delimiter and header settings", err)
	}
	defer a.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+staging)

	cols, err := describeColumns(ctx, a.db, staging)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, domain.ErrValidation("CSV file has no columns")
	}

	selectCols := make([]string, len(cols))
	for i, c := range cols {
		selectCols[i] = quoteIdent(c.Name)
	}
	rewrite := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT ROW_NUMBER() OVER () AS %s, %s FROM %s WHERE %s",
		session.TableName, domain.RowNumColumn,
		strings.Join(selectCols, ", "), staging, notAllNullPredicate(cols),
	)
	if _, err := a.db.ExecContext(ctx, rewrite); err != nil {
		return nil, fmt.Errorf("materialize imported rows: %w", err)
	}

	warnings := annotateDateWarnings(ctx, a.db, cols)

	var rowCount int64
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+session.TableName).Scan(&rowCount); err != nil {
		return nil, fmt.Errorf("count imported rows: %w", err)
	}

	a.logger.Info("CSV import complete", "rows", rowCount, "columns", len(cols))

	return &domain.ImportResult{
		RowCount:   rowCount,
		Columns:    cols,
		Warnings:   warnings,
		SourceType: domain.SourceCSV,
	}, nil
}

// Metadata reports row and column counts of the imported table.
func (a *CSVAdapter) Metadata(ctx context.Context) (*Metadata, error) {
	return tableMetadata(ctx, a.db, domain.SourceCSV)
}
