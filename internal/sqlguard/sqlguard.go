// Package sqlguard enforces a read-only statement policy for ad-hoc queries.
//
// It classifies statements at the token level rather than by substring
// matching: keywords inside string literals, quoted identifiers, or comments
// never trigger the guard, while mutating verbs anywhere in the real token
// stream always do. Multi-statement input is rejected outright to prevent
// piggy-backed statements ("SELECT 1; DROP TABLE x").
package sqlguard

import (
	"fmt"
	"strings"
)

// mutatingVerbs are keywords that modify data, schema, or engine state.
// Any occurrence in the token stream disqualifies the statement.
var mutatingVerbs = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"DROP":     true,
	"ALTER":    true,
	"CREATE":   true,
	"TRUNCATE": true,
	"MERGE":    true,
	"REPLACE":  true,
	"GRANT":    true,
	"REVOKE":   true,
	"ATTACH":   true,
	"DETACH":   true,
	"COPY":     true,
	"CALL":     true,
	"INSTALL":  true,
	"LOAD":     true,
	"SET":      true,
	"PRAGMA":   true,
	"EXPORT":   true,
	"IMPORT":   true,
	"VACUUM":   true,
}

// readOnlyStarters are keywords allowed to open a statement.
var readOnlyStarters = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"DESCRIBE": true,
	"SHOW":     true,
	"EXPLAIN":  true,
}

func isKeyword(word string) bool {
	upper := strings.ToUpper(word)
	return mutatingVerbs[upper] || readOnlyStarters[upper]
}

// EnsureReadOnly returns nil when sql is a single read-only statement.
// Otherwise it returns an error naming the offending verb or structure.
// The check runs entirely before execution; callers must not send the
// statement to the database when an error is returned.
func EnsureReadOnly(sql string) error {
	l := newLexer(sql)

	sawToken := false
	first := true
	for {
		tok, err := l.next()
		if err != nil {
			return fmt.Errorf("malformed statement: %w", err)
		}
		if tok.typ == tokenEOF {
			break
		}
		if tok.typ == tokenSemicolon {
			// A trailing semicolon is fine; anything after it is a second
			// statement.
			rest, err := l.next()
			if err != nil {
				return fmt.Errorf("malformed statement: %w", err)
			}
			if rest.typ != tokenEOF {
				return fmt.Errorf("multi-statement input is not allowed")
			}
			break
		}
		sawToken = true

		if first {
			if tok.typ != tokenKeyword || !readOnlyStarters[tok.literal] {
				return fmt.Errorf("only SELECT statements are allowed")
			}
			first = false
			continue
		}
		if tok.typ == tokenKeyword && mutatingVerbs[tok.literal] {
			return fmt.Errorf("statement contains forbidden verb %s", tok.literal)
		}
	}

	if !sawToken {
		return fmt.Errorf("empty statement")
	}
	return nil
}

// EnsureNoComments returns an error when sql contains a line or block
// comment. A fragment spliced into a larger statement must not be able to
// comment out the text assembled after it.
func EnsureNoComments(sql string) error {
	l := newLexer(sql)
	for {
		tok, err := l.next()
		if err != nil {
			return fmt.Errorf("malformed fragment: %w", err)
		}
		if tok.typ == tokenEOF {
			break
		}
	}
	if l.sawComment {
		return fmt.Errorf("comments are not allowed here")
	}
	return nil
}
