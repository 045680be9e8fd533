package service

import (
	"context"
	"fmt"
	"strings"

	"datasnap/internal/checksum"
	"datasnap/internal/domain"
	"datasnap/internal/session"
)

// ComputeChecksums computes content digests for a contiguous 1-based row
// range. endRow <= 0 means "through the last row". Digests are computed over
// the stored values, without type overrides, so they are stable across
// reinterpretation.
func (s *DataService) ComputeChecksums(ctx context.Context, startRow, endRow int64) ([]domain.ChecksumResult, error) {
	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := s.sess.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+session.TableName).Scan(&total); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	if startRow < 1 {
		startRow = 1
	}
	if endRow > 0 && startRow > endRow {
		return nil, domain.ErrValidation("start_row (%d) cannot be greater than end_row (%d)", startRow, endRow)
	}
	if endRow <= 0 || endRow > total {
		endRow = total
	}
	if startRow > endRow {
		// Range lies past the last row.
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s BETWEEN ? AND ? ORDER BY %s",
		domain.RowNumColumn, rawSelectClause(cols), session.TableName,
		domain.RowNumColumn, domain.RowNumColumn,
	)
	rows, err := s.sess.DB().QueryContext(ctx, query, startRow, endRow)
	if err != nil {
		return nil, fmt.Errorf("fetch rows %d-%d: %w", startRow, endRow, err)
	}
	defer rows.Close()

	var results []domain.ChecksumResult
	for rows.Next() {
		values := make([]interface{}, len(cols)+1)
		ptrs := make([]interface{}, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rowNum, _ := toInt64(values[0])
		data := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			data[c.Name] = normalizeValue(values[i+1])
		}
		results = append(results, domain.ChecksumResult{
			RowNumber: rowNum,
			Checksum:  checksum.Row(data),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.sess.Logger().Info("checksums computed", "count", len(results), "start", startRow, "end", endRow)
	return results, nil
}

// VerifyChecksum recomputes a row's digest and compares it against an
// expected value. The actual digest is always returned so callers can
// inspect a mismatch.
func (s *DataService) VerifyChecksum(ctx context.Context, rowNumber int64, expected string) (*domain.VerifyResult, error) {
	results, err := s.ComputeChecksums(ctx, rowNumber, rowNumber)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.ErrNotFound("row %d not found", rowNumber)
	}
	actual := results[0].Checksum
	if actual != expected {
		s.sess.Logger().Info("checksum mismatch", "row", rowNumber)
	}
	return &domain.VerifyResult{
		RowNumber:        rowNumber,
		ExpectedChecksum: expected,
		ActualChecksum:   actual,
		Matches:          actual == expected,
	}, nil
}

// rawSelectClause lists user columns without override casts.
func rawSelectClause(cols []domain.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = quoteIdent(c.Name)
	}
	return strings.Join(parts, ", ")
}
