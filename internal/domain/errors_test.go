package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not_found", ErrNotFound("row %d not found", 7), "row 7 not found"},
		{"validation", ErrValidation("bad delimiter %q", ";;"), `bad delimiter ";;"`},
		{"connection", ErrConnection("host %s unreachable", "db1"), "host db1 unreachable"},
		{"security", ErrSecurity("verb %s refused", "DROP"), "verb DROP refused"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestErrorTypesDistinguishable(t *testing.T) {
	var err error = ErrValidation("nope")
	wrapped := fmt.Errorf("import failed: %w", err)

	var verr *ValidationError
	require.True(t, errors.As(wrapped, &verr))

	var nerr *NotFoundError
	assert.False(t, errors.As(wrapped, &nerr))
}
