// Package typeinfer provides pure type classification for raw cell values
// and date-format ambiguity detection.
//
// Classification is strict: a value only earns a non-string type when it
// parses completely. Columns with disagreeing value types fall back to
// VARCHAR so no data is ever truncated or coerced.
package typeinfer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DuckDB type names assigned by inference.
const (
	TypeInteger   = "INTEGER"
	TypeBigInt    = "BIGINT"
	TypeDouble    = "DOUBLE"
	TypeDate      = "DATE"
	TypeTimestamp = "TIMESTAMP"
	TypeBoolean   = "BOOLEAN"
	TypeVarchar   = "VARCHAR"
)

// excelSerialPattern matches 5-digit numbers that may be Excel serial dates.
var excelSerialPattern = regexp.MustCompile(`^\d{5}$`)

// dateLayouts are accepted unambiguous date formats.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// timestampLayouts are accepted timestamp formats.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// slashDatePattern matches D/M/Y-style dates whose day/month order is
// potentially ambiguous.
var slashDatePattern = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2,4})$`)

// ClassifyValue returns the strictest DuckDB type the raw text value parses
// as. Empty strings classify as VARCHAR; callers should skip nulls before
// classification.
func ClassifyValue(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return TypeVarchar
	}

	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return TypeInteger
		}
		return TypeBigInt
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return TypeDouble
	}
	switch strings.ToLower(v) {
	case "true", "false":
		return TypeBoolean
	}
	if _, ok := ParseDate(v); ok {
		return TypeDate
	}
	if _, ok := ParseTimestamp(v); ok {
		return TypeTimestamp
	}
	return TypeVarchar
}

// ParseTimestamp parses a timestamp string in any accepted layout.
func ParseTimestamp(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnifyColumn reconciles the per-value types of one column into a single
// column type. Numeric widths widen (INTEGER -> BIGINT -> DOUBLE); any other
// disagreement falls back to VARCHAR.
func UnifyColumn(types []string) string {
	if len(types) == 0 {
		return TypeVarchar
	}
	seen := make(map[string]bool, 4)
	for _, t := range types {
		seen[t] = true
	}
	if len(seen) == 1 {
		return types[0]
	}
	if seen[TypeVarchar] {
		return TypeVarchar
	}

	numericOnly := true
	for t := range seen {
		if t != TypeInteger && t != TypeBigInt && t != TypeDouble {
			numericOnly = false
			break
		}
	}
	if numericOnly {
		if seen[TypeDouble] {
			return TypeDouble
		}
		return TypeBigInt
	}
	if len(seen) == 2 && seen[TypeDate] && seen[TypeTimestamp] {
		return TypeTimestamp
	}
	return TypeVarchar
}

// IsExcelSerial reports whether value looks like an Excel date serial: a
// bare 5-digit day count from the 1899 epoch. Plain classification reads
// these as integers; spreadsheet columns with a date-like header may opt in
// to the serial reading instead.
func IsExcelSerial(value string) bool {
	return excelSerialPattern.MatchString(strings.TrimSpace(value))
}

// ParseDate parses an unambiguous date string. Slash-style D/M/Y dates are
// parsed US-first (MM/DD/YYYY); use DetectAmbiguity to surface the EU
// reading when it differs.
func ParseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	if m := slashDatePattern.FindStringSubmatch(v); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok { // US order: month/day
			return t, true
		}
		if t, ok := buildDate(m[2], m[1], m[3]); ok { // EU order: day/month
			return t, true
		}
	}
	if excelSerialPattern.MatchString(v) {
		serial, _ := strconv.Atoi(v)
		return excelSerialToDate(serial), true
	}
	return time.Time{}, false
}

// DetectAmbiguity reports whether a date value reads differently under US
// (month-first) and EU (day-first) conventions. The returned warning states
// both interpretations and that the US reading was used.
func DetectAmbiguity(value string) (string, bool) {
	m := slashDatePattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return "", false
	}
	us, usOK := buildDate(m[1], m[2], m[3])
	eu, euOK := buildDate(m[2], m[1], m[3])
	if !usOK || !euOK || us.Equal(eu) {
		return "", false
	}
	msg := fmt.Sprintf(
		"Date %q could be %s (US) or %s (EU). Using US format.",
		value,
		us.Format("Jan 02, 2006"),
		eu.Format("Jan 02, 2006"),
	)
	return msg, true
}

// buildDate assembles a date from month/day/year digit strings, rejecting
// out-of-range components.
func buildDate(monthStr, dayStr, yearStr string) (time.Time, bool) {
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	year, _ := strconv.Atoi(yearStr)
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// excelSerialToDate converts an Excel serial day number to a date.
// The epoch is Dec 30, 1899, which absorbs Excel's 1900 leap-year bug.
func excelSerialToDate(serial int) time.Time {
	epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	return epoch.AddDate(0, 0, serial)
}
