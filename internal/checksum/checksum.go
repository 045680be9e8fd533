// Package checksum computes deterministic, order-independent row digests.
//
// A row digest is the SHA-256 of a canonical serialization of the row's
// column-name to value mapping. Keys are sorted lexicographically before
// serialization, so the digest depends only on the row's content, never on
// the column-iteration order of the adapter or query path that produced it.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row computes the 64-character hex SHA-256 digest of a row.
func Row(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(canonicalValue(data[k]))
	}
	b.WriteByte('}')

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalValue renders a single cell value in its canonical text form.
// The representation must be stable for every value type the analytical
// store can return through database/sql.
func canonicalValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return canonicalFloat(float64(val))
	case float64:
		return canonicalFloat(val)
	case string:
		return strconv.Quote(val)
	case []byte:
		return strconv.Quote(string(val))
	case time.Time:
		return strconv.Quote(val.UTC().Format(time.RFC3339Nano))
	default:
		return strconv.Quote(fmt.Sprintf("%v", val))
	}
}

// canonicalFloat renders floats as integers when they hold whole values so
// the digest does not depend on whether a column surfaced as INTEGER or
// DOUBLE across import paths.
func canonicalFloat(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
