// Package adapter implements the source adapters that translate external
// tabular data (delimited files, spreadsheets, remote databases) into the
// uniform imported-row representation in the analytical store.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"datasnap/internal/domain"
	"datasnap/internal/session"
	"datasnap/internal/typeinfer"
)

// ImportOptions carries the union of source-specific import parameters.
// Each adapter reads only the fields that apply to it.
type ImportOptions struct {
	// File sources.
	Path      string
	Delimiter string
	Header    bool
	Sheet     string

	// Remote database sources.
	ConnectionString string
	Query            string
	Schema           string
}

// Metadata summarizes the currently imported dataset.
type Metadata struct {
	RowCount    int64             `json:"row_count"`
	ColumnCount int               `json:"column_count"`
	SourceType  domain.SourceType `json:"source_type"`
}

// Source is the contract every concrete adapter satisfies. The session and
// services depend only on this interface, never on a concrete adapter.
type Source interface {
	SourceType() domain.SourceType
	Import(ctx context.Context, opts ImportOptions) (*domain.ImportResult, error)
	Metadata(ctx context.Context) (*Metadata, error)
}

// quoteIdent double-quotes a SQL identifier, escaping embedded quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// quoteLiteral single-quotes a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// describeColumns reads the schema of a staging table, skipping the internal
// identity column.
func describeColumns(ctx context.Context, db *sql.DB, table string) ([]domain.Column, error) {
	rows, err := db.QueryContext(ctx, "DESCRIBE "+table)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		var name, colType string
		var nullable, key, dflt, extra sql.NullString
		if err := rows.Scan(&name, &colType, &nullable, &key, &dflt, &extra); err != nil {
			return nil, err
		}
		if name == domain.RowNumColumn {
			continue
		}
		cols = append(cols, domain.Column{
			Name:     name,
			Type:     colType,
			Nullable: nullable.String == "YES",
		})
	}
	return cols, rows.Err()
}

// notAllNullPredicate builds the WHERE condition that keeps rows with at
// least one non-null column. Rows failing it are the degenerate all-null
// rows the bulk loader preserves under null padding; they must never reach
// the imported table.
func notAllNullPredicate(cols []domain.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = quoteIdent(c.Name) + " IS NOT NULL"
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// annotateDateWarnings samples one non-null value from each DATE/TIMESTAMP
// column and records an ambiguity warning when the value reads differently
// under US and EU conventions. Returns the flattened warning list.
func annotateDateWarnings(ctx context.Context, db *sql.DB, cols []domain.Column) []string {
	var all []string
	for i := range cols {
		upper := strings.ToUpper(cols[i].Type)
		if !strings.Contains(upper, "DATE") && !strings.Contains(upper, "TIMESTAMP") {
			continue
		}
		var sample sql.NullString
		q := fmt.Sprintf(
			"SELECT CAST(%s AS VARCHAR) FROM %s WHERE %s IS NOT NULL LIMIT 1",
			quoteIdent(cols[i].Name), session.TableName, quoteIdent(cols[i].Name),
		)
		if err := db.QueryRowContext(ctx, q).Scan(&sample); err != nil || !sample.Valid {
			continue
		}
		if msg, ambiguous := typeinfer.DetectAmbiguity(sample.String); ambiguous {
			cols[i].Warnings = append(cols[i].Warnings, msg)
			all = append(all, msg)
		}
	}
	return all
}

// tableMetadata reads row and column counts of the imported table.
func tableMetadata(ctx context.Context, db *sql.DB, sourceType domain.SourceType) (*Metadata, error) {
	var rowCount int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+session.TableName).Scan(&rowCount); err != nil {
		return nil, domain.ErrNotFound("no data imported")
	}
	cols, err := describeColumns(ctx, db, session.TableName)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		RowCount:    rowCount,
		ColumnCount: len(cols),
		SourceType:  sourceType,
	}, nil
}
