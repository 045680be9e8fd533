package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureReadOnly_Allowed(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"plain_select", "SELECT * FROM imported_data"},
		{"lowercase_select", "select id, name from imported_data"},
		{"with_cte", "WITH t AS (SELECT 1) SELECT * FROM t"},
		{"describe", "DESCRIBE imported_data"},
		{"show", "SHOW TABLES"},
		{"explain", "EXPLAIN SELECT 1"},
		{"trailing_semicolon", "SELECT 1;"},
		{"trailing_semicolon_and_space", "SELECT 1; \n"},
		{"verb_in_string_literal", "SELECT * FROM imported_data WHERE note = 'please DROP me'"},
		{"verb_in_quoted_identifier", `SELECT "drop" FROM imported_data`},
		{"verb_in_line_comment", "SELECT 1 -- DELETE everything\n"},
		{"verb_in_block_comment", "SELECT /* UPDATE x */ 1"},
		{"verb_as_substring_of_ident", "SELECT created_at, updated_at FROM imported_data"},
		{"aggregates_and_grouping", "SELECT city, COUNT(*) FROM imported_data GROUP BY city HAVING COUNT(*) > 2"},
		{"escaped_quote_in_string", "SELECT * FROM imported_data WHERE name = 'O''Brien; DROP TABLE x'"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, EnsureReadOnly(tc.sql))
		})
	}
}

func TestEnsureReadOnly_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantMsg string
	}{
		{"insert", "INSERT INTO imported_data VALUES (1)", "only SELECT"},
		{"update", "UPDATE imported_data SET a = 1", "only SELECT"},
		{"delete", "DELETE FROM imported_data", "only SELECT"},
		{"drop", "DROP TABLE imported_data", "only SELECT"},
		{"create", "CREATE TABLE x (a INT)", "only SELECT"},
		{"pragma", "PRAGMA database_list", "only SELECT"},
		{"attach", "ATTACH 'foo.db' AS x", "only SELECT"},
		{"lowercase_insert", "insert into imported_data values (1)", "only SELECT"},
		{"leading_comment_then_drop", "/* hi */ DROP TABLE imported_data", "only SELECT"},
		{"bare_identifier", "foo", "only SELECT"},
		{"piggybacked_statement", "SELECT 1; DROP TABLE imported_data", "multi-statement"},
		{"piggybacked_select", "SELECT 1; SELECT 2", "multi-statement"},
		{"nested_mutating_verb", "SELECT * FROM imported_data WHERE id IN (DELETE FROM t RETURNING id)", "forbidden verb DELETE"},
		{"copy_inside_select", "SELECT 1 UNION ALL COPY t TO 'f.csv'", "forbidden verb COPY"},
		{"set_inside", "SELECT 1 SET threads = 1", "forbidden verb SET"},
		{"empty", "", "empty statement"},
		{"whitespace_only", "   \n\t", "empty statement"},
		{"comment_only", "-- nothing here", "empty statement"},
		{"unterminated_string", "SELECT 'oops", "malformed"},
		{"unterminated_comment", "SELECT 1 /* oops", "malformed"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureReadOnly(tc.sql)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)
		})
	}
}

func TestLexer_Tokens(t *testing.T) {
	l := newLexer(`SELECT "col one", 'a;b', 42 FROM t;`)

	want := []struct {
		typ     tokenType
		literal string
	}{
		{tokenKeyword, "SELECT"},
		{tokenIdent, "col one"},
		{tokenSymbol, ","},
		{tokenString, "a;b"},
		{tokenSymbol, ","},
		{tokenNumber, "42"},
		{tokenIdent, "FROM"},
		{tokenIdent, "t"},
		{tokenSemicolon, ";"},
		{tokenEOF, ""},
	}

	for i, w := range want {
		tok, err := l.next()
		require.NoError(t, err, "token %d", i)
		assert.Equal(t, w.typ, tok.typ, "token %d type", i)
		assert.Equal(t, w.literal, tok.literal, "token %d literal", i)
	}
}

func TestLexer_DoubledQuotes(t *testing.T) {
	l := newLexer(`'O''Brien'`)
	tok, err := l.next()
	require.NoError(t, err)
	assert.Equal(t, tokenString, tok.typ)
	assert.Equal(t, "O'Brien", tok.literal)
}

func TestEnsureNoComments(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain_predicate", "state = 'TX' AND total > 5", false},
		{"quoted_dashes", "note = '-- not a comment'", false},
		{"line_comment", "state = 'TX' --", true},
		{"line_comment_with_text", "state = 'TX' -- AND total > 5", true},
		{"block_comment", "state = 'TX' /* hide */", true},
		{"leading_block_comment", "/* x */ state = 'TX'", true},
		{"unterminated_block", "state = 'TX' /*", true},
		{"unterminated_string", "state = 'TX", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureNoComments(tc.sql)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
