package domain

import "time"

// SourceType identifies the adapter family that produced the active dataset.
type SourceType string

// Source types recognized by the engine.
const (
	SourceCSV      SourceType = "csv"
	SourceExcel    SourceType = "excel"
	SourceDatabase SourceType = "database"
	SourceRecords  SourceType = "records"
)

// RowNumColumn is the internal identity column added to every imported
// table. It is assigned 1..N at import time and hidden from all user-facing
// schema and row output.
const RowNumColumn = "_source_row_num"

// LargeTableThreshold is the remote row count above which an import
// requires an explicit filter clause.
const LargeTableThreshold = 10000

// MaxFilterLimit caps the page size of filtered row queries.
const MaxFilterLimit = 1000

// Column is one entry of a discovered schema.
type Column struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Nullable bool     `json:"nullable"`
	Warnings []string `json:"warnings,omitempty"`

	// Override is the session-scoped type override, empty when none is active.
	Override string `json:"type_override,omitempty"`
}

// ImportResult is the return contract of every adapter import.
// It is always produced, even when the import raised data-quality warnings.
type ImportResult struct {
	RowCount   int64      `json:"row_count"`
	Columns    []Column   `json:"columns"`
	Warnings   []string   `json:"warnings,omitempty"`
	SourceType SourceType `json:"source_type"`
}

// DataSource describes the single active imported dataset. At most one
// exists per session; a new import replaces it wholesale.
type DataSource struct {
	Type        SourceType `json:"source_type"`
	Path        string     `json:"path,omitempty"`
	Sheet       string     `json:"sheet,omitempty"`
	Query       string     `json:"query,omitempty"`
	RowCount    int64      `json:"row_count"`
	ColumnCount int        `json:"column_count"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RowData is a single imported row with its integrity checksum.
type RowData struct {
	RowNumber int64                  `json:"row_number"`
	Data      map[string]interface{} `json:"data"`
	Checksum  string                 `json:"checksum,omitempty"`
}

// QueryResult holds a page of filtered rows plus the total match count.
type QueryResult struct {
	Rows       []RowData `json:"rows"`
	TotalCount int64     `json:"total_count"`
}

// RemoteTable describes one table of a remote database, as reported by
// ListTables. RequiresFilter is set when the row count exceeds
// LargeTableThreshold.
type RemoteTable struct {
	Name           string `json:"name"`
	RowCount       int64  `json:"row_count"`
	RequiresFilter bool   `json:"requires_filter"`
}

// ChecksumResult pairs a row number with its computed digest.
type ChecksumResult struct {
	RowNumber int64  `json:"row_number"`
	Checksum  string `json:"checksum"`
}

// VerifyResult reports a checksum comparison. ActualChecksum is always set
// so a caller can inspect the divergence on mismatch.
type VerifyResult struct {
	RowNumber        int64  `json:"row_number"`
	ExpectedChecksum string `json:"expected_checksum"`
	ActualChecksum   string `json:"actual_checksum"`
	Matches          bool   `json:"matches"`
}

// SourceInfo summarizes the active source for callers that track provenance.
type SourceInfo struct {
	Active     bool       `json:"active"`
	SourceType SourceType `json:"source_type,omitempty"`
	Path       string     `json:"path,omitempty"`
	Sheet      string     `json:"sheet,omitempty"`
	Query      string     `json:"query,omitempty"`
	RowCount   int64      `json:"row_count,omitempty"`
	Columns    []Column   `json:"columns,omitempty"`
	Signature  string     `json:"signature,omitempty"`
}

// Schema is the user-facing schema of the active source, with any active
// type overrides attached.
type Schema struct {
	Columns    []Column          `json:"columns"`
	RowCount   int64             `json:"row_count"`
	SourceType SourceType        `json:"source_type"`
	Overrides  map[string]string `json:"type_overrides,omitempty"`
}

// OverrideResult confirms a type override, reporting the inferred type it
// shadows.
type OverrideResult struct {
	Column       string `json:"column"`
	OriginalType string `json:"original_type"`
	NewType      string `json:"new_type"`
}

// TableResult holds an ad-hoc query's column order and rows.
type TableResult struct {
	Columns  []string                 `json:"columns"`
	Rows     []map[string]interface{} `json:"rows"`
	RowCount int64                    `json:"row_count"`
}

// ValidOverrideTypes is the fixed enumeration accepted by type overrides.
var ValidOverrideTypes = map[string]bool{
	"VARCHAR":   true,
	"INTEGER":   true,
	"BIGINT":    true,
	"DOUBLE":    true,
	"DATE":      true,
	"TIMESTAMP": true,
	"BOOLEAN":   true,
}
