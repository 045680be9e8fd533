package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeFixtureCSV writes a small CSV and returns its path.
func writeFixtureCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "orders.csv")
	content := "id,state,total\n1,CA,10.50\n2,TX,22.00\n3,CA,5.25\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVCommand_PrintsImportResult(t *testing.T) {
	out, err := executeCommand(t, "csv", writeFixtureCSV(t))
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 3, result["row_count"])
}

func TestCSVCommand_RowAction(t *testing.T) {
	out, err := executeCommand(t, "csv", writeFixtureCSV(t), "--row", "2")
	require.NoError(t, err)

	var row struct {
		RowNumber int64                  `json:"row_number"`
		Data      map[string]interface{} `json:"data"`
		Checksum  string                 `json:"checksum"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &row))
	assert.EqualValues(t, 2, row.RowNumber)
	assert.Equal(t, "TX", row.Data["state"])
	assert.Len(t, row.Checksum, 64)
}

func TestCSVCommand_FilterAction(t *testing.T) {
	out, err := executeCommand(t, "csv", writeFixtureCSV(t), "--filter", "state = 'CA'")
	require.NoError(t, err)

	var result struct {
		TotalCount int64 `json:"total_count"`
		Rows       []struct {
			RowNumber int64 `json:"row_number"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 2, result.TotalCount)
	require.Len(t, result.Rows, 2)
	assert.EqualValues(t, 1, result.Rows[0].RowNumber)
	assert.EqualValues(t, 3, result.Rows[1].RowNumber)
}

func TestCSVCommand_ChecksumRoundTrip(t *testing.T) {
	path := writeFixtureCSV(t)

	out, err := executeCommand(t, "csv", path, "--checksums")
	require.NoError(t, err)

	var result struct {
		Checksums []struct {
			RowNumber int64  `json:"row_number"`
			Checksum  string `json:"checksum"`
		} `json:"checksums"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, 3, result.Count)

	// The digest of an unchanged file verifies in a separate invocation.
	out, err = executeCommand(t, "csv", path,
		"--verify", "1:"+result.Checksums[0].Checksum)
	require.NoError(t, err)

	var verify struct {
		Matches bool `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &verify))
	assert.True(t, verify.Matches)
}

func TestCSVCommand_OverrideThenQuery(t *testing.T) {
	out, err := executeCommand(t, "csv", writeFixtureCSV(t),
		"--override", "id=VARCHAR",
		"--query", "SELECT id FROM imported_data ORDER BY id LIMIT 1")
	require.NoError(t, err)

	var result struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Rows, 1)
}

func TestCSVCommand_RejectsMutatingQuery(t *testing.T) {
	_, err := executeCommand(t, "csv", writeFixtureCSV(t),
		"--query", "DROP TABLE imported_data")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query rejected")
}

func TestCSVCommand_MissingFile(t *testing.T) {
	_, err := executeCommand(t, "csv", "/nonexistent/orders.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDBCommand_RequiresConnectionString(t *testing.T) {
	t.Setenv("DATASNAP_DB_URL", "")

	_, err := executeCommand(t, "db", "SELECT * FROM orders WHERE id = 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATASNAP_DB_URL")

	_, err = executeCommand(t, "tables")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATASNAP_DB_URL")
}

func TestSheetsCommand_MissingFile(t *testing.T) {
	_, err := executeCommand(t, "sheets", "/nonexistent/book.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	out, err := executeCommand(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"csv", "excel", "sheets", "db", "tables"} {
		assert.Contains(t, out, name)
	}
}
