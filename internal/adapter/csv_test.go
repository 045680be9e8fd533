package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datasnap/internal/domain"
	"datasnap/internal/session"
)

// writeCSV writes a temp CSV fixture and returns its path.
func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVImport(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	path := writeCSV(t, "name,age,score\nalice,30,91.5\nbob,25,78.0\ncarol,41,88.25\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Header: true})
	require.NoError(t, err)

	assert.EqualValues(t, 3, result.RowCount)
	require.Len(t, result.Columns, 3)
	assert.Equal(t, domain.SourceCSV, result.SourceType)

	age := columnByName(t, result.Columns, "age")
	assert.Contains(t, age.Type, "INT")
	score := columnByName(t, result.Columns, "score")
	assert.Equal(t, "DOUBLE", score.Type)
	name := columnByName(t, result.Columns, "name")
	assert.Equal(t, "VARCHAR", name.Type)
}

func TestCSVImport_FiltersAllNullRows(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	// Blank lines survive the bulk read as all-null rows under null
	// padding; the second pass must drop them and renumber densely.
	path := writeCSV(t, "a,b\n1,x\n,\n2,y\n\n3,z\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Header: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.RowCount)

	rows, err := db.QueryContext(ctx,
		"SELECT "+domain.RowNumColumn+", a FROM "+session.TableName+" ORDER BY "+domain.RowNumColumn)
	require.NoError(t, err)
	defer rows.Close()

	var nums []int64
	for rows.Next() {
		var num, a int64
		require.NoError(t, rows.Scan(&num, &a))
		nums = append(nums, num)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int64{1, 2, 3}, nums)
}

func TestCSVImport_PartialRowKept(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	// A row with any non-null cell is data, not padding.
	path := writeCSV(t, "a,b\n1,\n,x\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Header: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.RowCount)
}

func TestCSVImport_MixedColumnFallsBackToVarchar(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	// The late string value must demote the whole column; detection scans
	// the entire file, not a prefix.
	path := writeCSV(t, "v\n1\n2\n3\nnot-a-number\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Header: true})
	require.NoError(t, err)

	v := columnByName(t, result.Columns, "v")
	assert.Equal(t, "VARCHAR", v.Type)
	assert.EqualValues(t, 4, result.RowCount)
}

func TestCSVImport_CustomDelimiter(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	path := writeCSV(t, "a;b\n1;x\n2;y\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Delimiter: ";", Header: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.RowCount)
	require.Len(t, result.Columns, 2)
	assert.Equal(t, "a", result.Columns[0].Name)
}

func TestCSVImport_NoHeader(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	path := writeCSV(t, "1,x\n2,y\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Header: false})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.RowCount)
	require.Len(t, result.Columns, 2)
	// Generated names, none taken from the first data row.
	assert.NotEqual(t, "1", result.Columns[0].Name)
}

func TestCSVImport_Errors(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	t.Run("missing_file", func(t *testing.T) {
		_, err := a.Import(ctx, ImportOptions{Path: "/nonexistent/data.csv", Header: true})
		var nerr *domain.NotFoundError
		require.ErrorAs(t, err, &nerr)
	})

	t.Run("multi_char_delimiter", func(t *testing.T) {
		path := writeCSV(t, "a,b\n1,2\n")
		_, err := a.Import(ctx, ImportOptions{Path: path, Delimiter: "||", Header: true})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestCSVImport_ReplacesPreviousImport(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	first := writeCSV(t, "a\n1\n2\n3\n")
	_, err := a.Import(ctx, ImportOptions{Path: first, Header: true})
	require.NoError(t, err)

	second := writeCSV(t, "b\nx\n")
	result, err := a.Import(ctx, ImportOptions{Path: second, Header: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.RowCount)

	meta, err := a.Metadata(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, meta.RowCount)
	assert.Equal(t, 1, meta.ColumnCount)
	assert.Equal(t, domain.SourceCSV, meta.SourceType)
}

func TestCSVImport_AmbiguousDateWarning(t *testing.T) {
	db, logger := setupDB(t)
	a := NewCSVAdapter(db, logger)
	ctx := context.Background()

	path := writeCSV(t, "when\n2024-03-04\n2024-05-06\n")
	result, err := a.Import(ctx, ImportOptions{Path: path, Header: true})
	require.NoError(t, err)

	when := columnByName(t, result.Columns, "when")
	assert.Contains(t, when.Type, "DATE")
	// ISO dates read identically under US and EU conventions.
	assert.Empty(t, result.Warnings)
}
