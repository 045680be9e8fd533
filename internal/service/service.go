// Package service exposes the ingestion engine's operations over a session:
// imports, schema introspection, type overrides, safe querying, and row
// checksums.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"datasnap/internal/adapter"
	"datasnap/internal/domain"
	"datasnap/internal/session"
)

// DataService is the single entry point for all engine operations. It owns
// the three concrete adapters and drives them through the adapter.Source
// contract, recording provenance in the session on successful imports.
type DataService struct {
	sess     *session.Session
	csv      *adapter.CSVAdapter
	excel    *adapter.ExcelAdapter
	database *adapter.DatabaseAdapter
}

// New creates a DataService over a session.
func New(sess *session.Session) *DataService {
	return &DataService{
		sess:     sess,
		csv:      adapter.NewCSVAdapter(sess.DB(), sess.Logger()),
		excel:    adapter.NewExcelAdapter(sess.DB(), sess.Logger()),
		database: adapter.NewDatabaseAdapter(sess.DB(), sess.Logger()),
	}
}

// Session returns the underlying session store.
func (s *DataService) Session() *session.Session { return s.sess }

// ImportCSV imports a delimited file, replacing any active source.
func (s *DataService) ImportCSV(ctx context.Context, path, delimiter string, header bool) (*domain.ImportResult, error) {
	result, err := s.runImport(ctx, s.csv, adapter.ImportOptions{
		Path:      path,
		Delimiter: delimiter,
		Header:    header,
	})
	if err != nil {
		return nil, err
	}
	s.sess.SetSource(&domain.DataSource{
		Type:        domain.SourceCSV,
		Path:        path,
		RowCount:    result.RowCount,
		ColumnCount: len(result.Columns),
		CreatedAt:   time.Now(),
	})
	return result, nil
}

// ListSheets enumerates the worksheets of a workbook without importing.
func (s *DataService) ListSheets(path string) ([]string, error) {
	return s.excel.ListSheets(path)
}

// ImportExcel imports one worksheet, replacing any active source. An empty
// sheet name selects the first sheet.
func (s *DataService) ImportExcel(ctx context.Context, path, sheet string, header bool) (*domain.ImportResult, error) {
	result, err := s.runImport(ctx, s.excel, adapter.ImportOptions{
		Path:   path,
		Sheet:  sheet,
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	s.sess.SetSource(&domain.DataSource{
		Type:        domain.SourceExcel,
		Path:        path,
		Sheet:       sheet,
		RowCount:    result.RowCount,
		ColumnCount: len(result.Columns),
		CreatedAt:   time.Now(),
	})
	return result, nil
}

// ListTables enumerates tables of a remote database with row counts and
// large-table flags. The connection string is used for the duration of the
// call only.
func (s *DataService) ListTables(ctx context.Context, connectionString, schema string) ([]domain.RemoteTable, error) {
	return s.database.ListTables(ctx, connectionString, schema)
}

// ImportDatabase snapshots a remote query result, replacing any active
// source. The connection string is not retained; only the query is recorded
// as provenance.
func (s *DataService) ImportDatabase(ctx context.Context, connectionString, query, schema string) (*domain.ImportResult, error) {
	result, err := s.runImport(ctx, s.database, adapter.ImportOptions{
		ConnectionString: connectionString,
		Query:            query,
		Schema:           schema,
	})
	if err != nil {
		return nil, err
	}
	s.sess.SetSource(&domain.DataSource{
		Type:        domain.SourceDatabase,
		Query:       query,
		RowCount:    result.RowCount,
		ColumnCount: len(result.Columns),
		CreatedAt:   time.Now(),
	})
	return result, nil
}

// runImport dispatches an import through the adapter contract.
func (s *DataService) runImport(ctx context.Context, src adapter.Source, opts adapter.ImportOptions) (*domain.ImportResult, error) {
	result, err := src.Import(ctx, opts)
	if err != nil {
		return nil, err
	}
	s.sess.Logger().Info("import complete",
		"source_type", src.SourceType(), "rows", result.RowCount, "columns", len(result.Columns))
	return result, nil
}

// ImportRecords imports a slice of flat records as a new all-VARCHAR source,
// replacing the active one. Column order follows the sorted keys of the
// first record.
func (s *DataService) ImportRecords(ctx context.Context, records []map[string]string, label string) (*domain.ImportResult, error) {
	if len(records) == 0 {
		return &domain.ImportResult{SourceType: domain.SourceType(label)}, nil
	}

	columns := make([]string, 0, len(records[0]))
	for k := range records[0] {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	// Records load into a staging table; the active source is replaced only
	// by the final swap, never by a half-finished insert loop.
	const staging = "records_import_raw"
	defs := make([]string, 0, len(columns)+1)
	defs = append(defs, domain.RowNumColumn+" BIGINT")
	for _, c := range columns {
		defs = append(defs, quoteIdent(c)+" VARCHAR")
	}
	create := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", staging, strings.Join(defs, ", "))
	if _, err := s.sess.DB().ExecContext(ctx, create); err != nil {
		return nil, fmt.Errorf("create staging table: %w", err)
	}
	defer s.sess.DB().ExecContext(ctx, "DROP TABLE IF EXISTS "+staging)

	placeholders := make([]string, len(columns)+1)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt, err := s.sess.DB().PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s VALUES (%s)", staging, strings.Join(placeholders, ", ")))
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, record := range records {
		args := make([]interface{}, 0, len(columns)+1)
		args = append(args, int64(i+1))
		for _, c := range columns {
			if v, ok := record[c]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return nil, fmt.Errorf("insert record %d: %w", i+1, err)
		}
	}

	if _, err := s.sess.DB().ExecContext(ctx, fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM %s", session.TableName, staging)); err != nil {
		return nil, fmt.Errorf("materialize imported rows: %w", err)
	}

	cols := make([]domain.Column, len(columns))
	for i, c := range columns {
		cols[i] = domain.Column{Name: c, Type: "VARCHAR", Nullable: true}
	}
	result := &domain.ImportResult{
		RowCount:   int64(len(records)),
		Columns:    cols,
		SourceType: domain.SourceType(label),
	}
	s.sess.SetSource(&domain.DataSource{
		Type:        domain.SourceType(label),
		RowCount:    result.RowCount,
		ColumnCount: len(cols),
		CreatedAt:   time.Now(),
	})
	return result, nil
}

// Metadata reports row and column counts for the active source through its
// adapter.
func (s *DataService) Metadata(ctx context.Context) (*adapter.Metadata, error) {
	src := s.sess.Source()
	if src == nil {
		return nil, domain.ErrNotFound("no data imported. Import a CSV, Excel sheet, or database query first")
	}
	switch src.Type {
	case domain.SourceCSV:
		return s.csv.Metadata(ctx)
	case domain.SourceExcel:
		return s.excel.Metadata(ctx)
	case domain.SourceDatabase:
		return s.database.Metadata(ctx)
	default:
		m, err := s.csv.Metadata(ctx)
		if err != nil {
			return nil, err
		}
		m.SourceType = src.Type
		return m, nil
	}
}

// Clear drops the imported data and resets all session state.
func (s *DataService) Clear(ctx context.Context) error {
	return s.sess.Clear(ctx)
}

// quoteIdent double-quotes a SQL identifier, escaping embedded quotes.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
