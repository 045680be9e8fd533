package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"datasnap/internal/domain"
)

// GetSchema returns the active source's schema with any type overrides
// attached to their columns.
func (s *DataService) GetSchema(ctx context.Context) (*domain.Schema, error) {
	src := s.sess.Source()
	if src == nil {
		return nil, domain.ErrNotFound("no data imported. Import a CSV, Excel sheet, or database query first")
	}
	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}
	overrides := s.sess.Overrides()
	for i := range cols {
		if t, ok := overrides[cols[i].Name]; ok {
			cols[i].Override = t
		}
	}
	return &domain.Schema{
		Columns:    cols,
		RowCount:   src.RowCount,
		SourceType: src.Type,
		Overrides:  overrides,
	}, nil
}

// OverrideColumnType records a session-scoped type override for a column.
// Stored data is untouched; every query path applies the override as a cast,
// so re-overriding back to the inferred type recovers the original
// representation exactly.
func (s *DataService) OverrideColumnType(ctx context.Context, columnName, newType string) (*domain.OverrideResult, error) {
	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}

	var original string
	found := false
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		if c.Name == columnName {
			original = c.Type
			found = true
		}
	}
	if !found {
		return nil, domain.ErrValidation(
			"column %q not found. Available columns: %s", columnName, strings.Join(names, ", "))
	}

	upper := strings.ToUpper(newType)
	if !domain.ValidOverrideTypes[upper] {
		valid := make([]string, 0, len(domain.ValidOverrideTypes))
		for t := range domain.ValidOverrideTypes {
			valid = append(valid, t)
		}
		sort.Strings(valid)
		return nil, domain.ErrValidation(
			"invalid type %q. Valid types: %s", newType, strings.Join(valid, ", "))
	}

	s.sess.SetOverride(columnName, upper)
	s.sess.Logger().Info("type override recorded", "column", columnName, "from", original, "to", upper)

	return &domain.OverrideResult{
		Column:       columnName,
		OriginalType: original,
		NewType:      upper,
	}, nil
}

// SourceInfo summarizes the active source, including a schema signature:
// the SHA-256 of "name:type:nullable|..." over the ordered columns. The
// signature changes whenever the effective schema does.
func (s *DataService) SourceInfo(ctx context.Context) (*domain.SourceInfo, error) {
	src := s.sess.Source()
	if src == nil {
		return &domain.SourceInfo{Active: false}, nil
	}
	cols, err := s.sess.Columns(ctx)
	if err != nil {
		return nil, err
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		nullable := 0
		if c.Nullable {
			nullable = 1
		}
		parts[i] = fmt.Sprintf("%s:%s:%d", c.Name, c.Type, nullable)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))

	return &domain.SourceInfo{
		Active:     true,
		SourceType: src.Type,
		Path:       src.Path,
		Sheet:      src.Sheet,
		Query:      src.Query,
		RowCount:   src.RowCount,
		Columns:    cols,
		Signature:  hex.EncodeToString(sum[:]),
	}, nil
}
