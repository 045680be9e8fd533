package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"datasnap/internal/checksum"
	"datasnap/internal/domain"
	"datasnap/internal/session"
	"datasnap/internal/sqlguard"
)

// GetRow returns one row by its 1-based row number, with type overrides
// applied and the row's content checksum attached. The checksum is computed
// over the stored values, not the override-cast ones, so it verifies against
// ComputeChecksums no matter which overrides are active.
func (s *DataService) GetRow(ctx context.Context, rowNumber int64) (*domain.RowData, error) {
	if rowNumber < 1 {
		return nil, domain.ErrValidation("row number must be >= 1, got %d", rowNumber)
	}
	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s = ?",
		s.selectClause(cols), rawSelectClause(cols), session.TableName, domain.RowNumColumn)
	rows, err := s.sess.DB().QueryContext(ctx, query, rowNumber)
	if err != nil {
		return nil, fmt.Errorf("fetch row %d: %w", rowNumber, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound("row %d not found. The data source may have fewer rows", rowNumber)
	}
	_, data, raw, err := scanCastAndRaw(rows, cols, 0)
	if err != nil {
		return nil, err
	}

	return &domain.RowData{
		RowNumber: rowNumber,
		Data:      data,
		Checksum:  checksum.Row(raw),
	}, nil
}

// GetRowsByFilter returns a page of rows matching a SQL boolean predicate.
// The limit is capped at MaxFilterLimit regardless of what was requested.
// Each row carries its checksum, computed over the stored values, and keeps
// its original import row number.
func (s *DataService) GetRowsByFilter(ctx context.Context, whereClause string, limit, offset int64) (*domain.QueryResult, error) {
	if strings.TrimSpace(whereClause) == "" {
		return nil, domain.ErrValidation("filter must not be empty. Example: state = 'CA' AND weight > 5")
	}
	// A comment in the predicate could disable the LIMIT and ORDER BY
	// appended after it, so comments are refused outright.
	if err := sqlguard.EnsureNoComments(whereClause); err != nil {
		return nil, domain.ErrSecurity("filter rejected: %s", err)
	}
	if limit < 1 {
		limit = 100
	}
	if limit > domain.MaxFilterLimit {
		limit = domain.MaxFilterLimit
	}
	if offset < 0 {
		offset = 0
	}

	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}

	// Guard the assembled statement so a predicate cannot smuggle in a
	// second statement or a mutating verb.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", session.TableName, whereClause)
	if err := sqlguard.EnsureReadOnly(countQuery); err != nil {
		return nil, domain.ErrSecurity("filter rejected: %s", err)
	}

	var total int64
	if err := s.sess.DB().QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, domain.ErrValidation("invalid filter %q: %s", whereClause, err)
	}

	query := fmt.Sprintf(
		"SELECT %s, %s, %s FROM %s WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		domain.RowNumColumn, s.selectClause(cols), rawSelectClause(cols), session.TableName,
		whereClause, domain.RowNumColumn, limit, offset,
	)
	rows, err := s.sess.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, domain.ErrValidation("invalid filter %q: %s", whereClause, err)
	}
	defer rows.Close()

	result := &domain.QueryResult{TotalCount: total}
	for rows.Next() {
		lead, data, raw, err := scanCastAndRaw(rows, cols, 1)
		if err != nil {
			return nil, err
		}
		rowNum, _ := toInt64(lead[0])
		result.Rows = append(result.Rows, domain.RowData{
			RowNumber: rowNum,
			Data:      data,
			Checksum:  checksum.Row(raw),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// QueryData executes an ad-hoc statement against the imported data. Only a
// single read-only SELECT passes the guard; anything else fails with a
// SecurityError before touching the store.
func (s *DataService) QueryData(ctx context.Context, sqlText string) (*domain.TableResult, error) {
	if err := sqlguard.EnsureReadOnly(sqlText); err != nil {
		return nil, domain.ErrSecurity("query rejected: %s", err)
	}

	rows, err := s.sess.DB().QueryContext(ctx, sqlText)
	if err != nil {
		return nil, domain.ErrValidation("query failed: %s", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &domain.TableResult{Columns: names}
	for rows.Next() {
		values := make([]interface{}, len(names))
		ptrs := make([]interface{}, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]interface{}, len(names))
		for i, n := range names {
			record[n] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
		result.RowCount++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetColumnSamples returns up to maxSamples distinct non-null values per
// column, for grounding filters in real data.
func (s *DataService) GetColumnSamples(ctx context.Context, maxSamples int) (map[string][]interface{}, error) {
	if maxSamples < 1 {
		maxSamples = 5
	}
	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}

	samples := make(map[string][]interface{}, len(cols))
	for _, c := range cols {
		q := fmt.Sprintf(
			"SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY 1 LIMIT %d",
			quoteIdent(c.Name), session.TableName, quoteIdent(c.Name), maxSamples,
		)
		rows, err := s.sess.DB().QueryContext(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("sample column %q: %w", c.Name, err)
		}
		var vals []interface{}
		for rows.Next() {
			var v interface{}
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, err
			}
			vals = append(vals, normalizeValue(v))
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		samples[c.Name] = vals
	}
	return samples, nil
}

// selectClause lists the user-facing columns, casting any with an active
// type override. The stored values are never mutated; the cast happens at
// read time.
func (s *DataService) selectClause(cols []domain.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if override, ok := s.sess.Override(c.Name); ok {
			parts[i] = fmt.Sprintf("CAST(%s AS %s) AS %s", quoteIdent(c.Name), override, quoteIdent(c.Name))
		} else {
			parts[i] = quoteIdent(c.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// scanCastAndRaw scans a result row holding lead leading columns followed by
// every user column twice: override-cast values first, raw stored values
// second. It returns the leading values plus both views keyed by column name.
// Checksums are always computed over the raw view.
func scanCastAndRaw(rows *sql.Rows, cols []domain.Column, lead int) (leadValues []interface{}, data, raw map[string]interface{}, err error) {
	values := make([]interface{}, lead+2*len(cols))
	ptrs := make([]interface{}, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, nil, nil, err
	}
	data = make(map[string]interface{}, len(cols))
	raw = make(map[string]interface{}, len(cols))
	for i, c := range cols {
		data[c.Name] = normalizeValue(values[lead+i])
		raw[c.Name] = normalizeValue(values[lead+len(cols)+i])
	}
	return values[:lead], data, raw, nil
}

// normalizeValue converts driver byte slices to strings so row data is
// stable across scan paths.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
