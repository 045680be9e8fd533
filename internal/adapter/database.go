package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"datasnap/internal/domain"
	"datasnap/internal/engine"
	"datasnap/internal/session"
)

// DatabaseAdapter imports snapshots from remote PostgreSQL and MySQL
// databases through DuckDB's attach mechanism.
//
// Snapshot, not live connection: the query runs exactly once at import time,
// its result set is copied into the local store, and the remote attachment
// is torn down before the call returns, on every exit path. The connection
// string is consumed at attach time and never stored, logged, or echoed in
// an error.
type DatabaseAdapter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDatabaseAdapter creates a remote database adapter over the session's
// analytical store.
func NewDatabaseAdapter(db *sql.DB, logger *slog.Logger) *DatabaseAdapter {
	return &DatabaseAdapter{db: db, logger: logger}
}

// SourceType identifies this adapter.
func (a *DatabaseAdapter) SourceType() domain.SourceType { return domain.SourceDatabase }

// fromTablePattern extracts the target table from "FROM table" or
// "FROM schema.table".
var fromTablePattern = regexp.MustCompile(`(?i)FROM\s+(?:(\w+)\.)?(\w+)`)

// wherePattern detects the presence of a row-filtering clause.
var wherePattern = regexp.MustCompile(`(?i)\bWHERE\b`)

// ListTables enumerates tables in the remote database with row counts,
// flagging tables large enough to require an import filter. It attaches,
// reads metadata, and detaches without materializing any rows.
func (a *DatabaseAdapter) ListTables(ctx context.Context, connectionString, schema string) ([]domain.RemoteTable, error) {
	remote, detach, err := engine.AttachRemote(ctx, a.db, a.logger, connectionString)
	if err != nil {
		return nil, err
	}
	defer detach()

	// The schema default depends on the family: MySQL's schemas are its
	// databases, so "public" only exists on Postgres.
	if schema == "" {
		schema = remote.DefaultSchema()
	}

	var listSQL string
	if remote.Family == "postgres" {
		listSQL = fmt.Sprintf(`
			SELECT table_schema, table_name FROM %s.information_schema.tables
			WHERE table_schema = %s AND table_type = 'BASE TABLE'
			ORDER BY table_name`, remote.Alias, quoteLiteral(schema))
	} else {
		listSQL = fmt.Sprintf(`
			SELECT table_schema, table_name FROM %s.information_schema.tables
			WHERE table_type = 'BASE TABLE'
			  AND table_schema NOT IN ('information_schema', 'mysql', 'performance_schema', 'sys')
			ORDER BY table_name`, remote.Alias)
	}

	rows, err := a.db.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, domain.ErrConnection("could not list tables on %s database at %q", remote.Family, remote.Host)
	}
	defer rows.Close()

	type qualified struct{ schema, name string }
	var names []qualified
	for rows.Next() {
		var q qualified
		if err := rows.Scan(&q.schema, &q.name); err != nil {
			return nil, err
		}
		names = append(names, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables := make([]domain.RemoteTable, 0, len(names))
	for _, q := range names {
		var count int64
		countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s.%s",
			remote.Alias, quoteIdent(q.schema), quoteIdent(q.name))
		if err := a.db.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
			count = -1
		}
		tables = append(tables, domain.RemoteTable{
			Name:           q.name,
			RowCount:       count,
			RequiresFilter: count > domain.LargeTableThreshold,
		})
	}
	return tables, nil
}

// Import snapshots the result of a query against the remote database into
// the imported table.
//
// Unfiltered queries against tables above the large-table threshold are
// rejected with a corrective example instead of silently truncating.
func (a *DatabaseAdapter) Import(ctx context.Context, opts ImportOptions) (*domain.ImportResult, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, domain.ErrValidation("query must not be empty. Example: SELECT * FROM orders WHERE created_at > '2026-01-01'")
	}

	remote, detach, err := engine.AttachRemote(ctx, a.db, a.logger, opts.ConnectionString)
	if err != nil {
		return nil, err
	}
	defer detach()

	schema := opts.Schema
	if schema == "" {
		schema = remote.DefaultSchema()
	}

	if err := a.checkLargeTable(ctx, remote, schema, query); err != nil {
		return nil, err
	}

	// Point unqualified FROM references at the attached alias.
	rewritten := fromTablePattern.ReplaceAllStringFunc(query, func(m string) string {
		sub := fromTablePattern.FindStringSubmatch(m)
		tableSchema := sub[1]
		if tableSchema == "" {
			tableSchema = schema
		}
		return fmt.Sprintf("FROM %s.%s.%s", remote.Alias, quoteIdent(tableSchema), quoteIdent(sub[2]))
	})

	snapshot := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT ROW_NUMBER() OVER () AS %s, sub.* FROM (%s) AS sub",
		session.TableName, domain.RowNumColumn, rewritten,
	)
	if _, err := a.db.ExecContext(ctx, snapshot); err != nil {
		return nil, domain.ErrValidation("query failed against %s database: %s",
			remote.Family, engine.Scrub(err.Error(), opts.ConnectionString))
	}

	cols, err := describeColumns(ctx, a.db, session.TableName)
	if err != nil {
		return nil, err
	}
	var rowCount int64
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+session.TableName).Scan(&rowCount); err != nil {
		return nil, fmt.Errorf("count imported rows: %w", err)
	}

	a.logger.Info("database snapshot complete",
		"family", remote.Family, "rows", rowCount, "columns", len(cols))

	return &domain.ImportResult{
		RowCount:   rowCount,
		Columns:    cols,
		SourceType: domain.SourceDatabase,
	}, nil
}

// Metadata reports row and column counts of the imported table.
func (a *DatabaseAdapter) Metadata(ctx context.Context) (*Metadata, error) {
	return tableMetadata(ctx, a.db, domain.SourceDatabase)
}

// checkLargeTable rejects unfiltered imports of tables above the threshold.
func (a *DatabaseAdapter) checkLargeTable(ctx context.Context, remote *engine.Remote, schema, query string) error {
	if wherePattern.MatchString(query) {
		return nil
	}
	m := fromTablePattern.FindStringSubmatch(query)
	if m == nil {
		return nil
	}
	tableSchema, table := m[1], m[2]
	if tableSchema == "" {
		tableSchema = schema
	}

	var count int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s.%s",
		remote.Alias, quoteIdent(tableSchema), quoteIdent(table))
	if err := a.db.QueryRowContext(ctx, countSQL).Scan(&count); err != nil {
		// Table may be a view or not directly countable; let the query itself
		// decide.
		return nil
	}
	if count > domain.LargeTableThreshold {
		return domain.ErrValidation(
			"table %q has %d rows. Add a WHERE clause to filter (tables > %d rows require filters). "+
				"Example: SELECT * FROM %s WHERE created_at > '2026-01-01'",
			table, count, domain.LargeTableThreshold, table)
	}
	return nil
}
