// Package session holds the per-session analytical state: the DuckDB handle,
// the single active data source, and the type override layer.
//
// A Session is a single-owner object. Callers must serialize access; the
// engine itself assumes one logical session drives one store at a time.
package session

import (
	"context"
	"database/sql"
	"log/slog"

	"datasnap/internal/domain"
)

// TableName is the staging table every adapter imports into.
const TableName = "imported_data"

// Session owns the analytical store for one logical session.
type Session struct {
	db        *sql.DB
	logger    *slog.Logger
	source    *domain.DataSource
	overrides map[string]string
}

// New creates a Session over an open DuckDB handle.
func New(db *sql.DB, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		db:        db,
		logger:    logger,
		overrides: make(map[string]string),
	}
}

// DB returns the underlying analytical store handle.
func (s *Session) DB() *sql.DB { return s.db }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Source returns the active data source, or nil when nothing is imported.
func (s *Session) Source() *domain.DataSource { return s.source }

// SetSource records a new active data source. Replacing the source discards
// all type overrides; they are scoped to the source they were made against.
func (s *Session) SetSource(src *domain.DataSource) {
	s.source = src
	s.overrides = make(map[string]string)
}

// SetOverride writes or replaces a type override for a column.
func (s *Session) SetOverride(column, duckType string) {
	s.overrides[column] = duckType
}

// Override returns the active override for a column, if any.
func (s *Session) Override(column string) (string, bool) {
	t, ok := s.overrides[column]
	return t, ok
}

// Overrides returns a copy of the active override map.
func (s *Session) Overrides() map[string]string {
	out := make(map[string]string, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Clear drops the imported table and resets source metadata and overrides.
func (s *Session) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+TableName); err != nil {
		return err
	}
	s.source = nil
	s.overrides = make(map[string]string)
	s.logger.Info("active data source cleared")
	return nil
}

// Columns reads the user-facing schema of the imported table, hiding the
// internal identity column.
func (s *Session) Columns(ctx context.Context) ([]domain.Column, error) {
	rows, err := s.db.QueryContext(ctx, "DESCRIBE "+TableName)
	if err != nil {
		return nil, domain.ErrNotFound("no data imported. Import a CSV, Excel sheet, or database query first")
	}
	defer rows.Close()

	var cols []domain.Column
	for rows.Next() {
		var name, colType string
		var nullable sql.NullString
		var key, dflt, extra sql.NullString
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
