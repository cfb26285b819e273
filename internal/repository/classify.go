package repository

// classify.go contains the pure store-error classifier used by the ride
// creation fallback cascade. The backing store's column layout drifts
// between deployments, and the only signal distinguishing "wrong layout,
// try the next one" from a genuine failure is the wording of the error
// returned by a rejected insert. All predicates here are side-effect
// free string inspections; they never touch the database and are safe
// to call on any error, including nil.
//
// Two phrasing families are recognised: the hosted REST gateway some
// deployments sit behind ("Could not find the 'seats' column", "column
// rides.seats does not exist", "... of relation ..."), and the MySQL
// server used by self-hosted deployments ("Unknown column 'seats' in
// 'field list'", "Column 'seats' cannot be null").

import (
	"fmt"
	"strings"
)

// ErrorMessage extracts a best-effort human-readable message from a
// failed store call. It prefers the error's own text and falls back to
// fmt formatting for anything unusual wrapped inside.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%v", err)
}

// MissingColumn reports whether msg indicates that the store could not
// resolve column as a column of the target table. Matching is
// case-insensitive and covers the gateway's "could not find" and
// "schema cache" phrasings as well as the SQL "does not exist" /
// "unknown column" patterns.
func MissingColumn(msg, column string) bool {
	if msg == "" || column == "" {
		return false
	}
	m := strings.ToLower(msg)
	col := strings.ToLower(column)
	quoted := "'" + col + "'"

	if strings.Contains(m, "could not find") && strings.Contains(m, quoted) && strings.Contains(m, "column") {
		return true
	}
	if strings.Contains(m, "schema cache") && strings.Contains(m, quoted) {
		return true
	}
	if strings.Contains(m, "unknown column") && strings.Contains(m, quoted) {
		return true
	}
	if strings.Contains(m, "does not exist") && strings.Contains(m, "column") && containsColumnRef(m, col) {
		return true
	}
	if strings.Contains(m, "of relation") && strings.Contains(m, "column") && containsColumnRef(m, col) {
		return true
	}
	return false
}

// NotNullColumn reports whether msg describes a NOT NULL violation on
// the named column.
func NotNullColumn(msg, column string) bool {
	if msg == "" || column == "" {
		return false
	}
	m := strings.ToLower(msg)
	col := strings.ToLower(column)
	if !containsColumnRef(m, col) {
		return false
	}
	if strings.Contains(m, "not-null") || strings.Contains(m, "not null") {
		return true
	}
	// MySQL wording: Column 'x' cannot be null
	if strings.Contains(m, "cannot be null") {
		return true
	}
	return false
}

// TimeTypeMismatch reports whether msg indicates that a value was
// rejected by a TIME-typed column, which means the deployment stores a
// bare wall-clock time instead of a full timestamp.
func TimeTypeMismatch(msg string) bool {
	if msg == "" {
		return false
	}
	m := strings.ToLower(msg)
	if strings.Contains(m, "type time") {
		return true
	}
	if strings.Contains(m, "invalid input syntax") && strings.Contains(m, "time") {
		return true
	}
	// MySQL wording: Incorrect time value: '...' for column 'departure_time'
	if strings.Contains(m, "incorrect time value") {
		return true
	}
	return false
}

// containsColumnRef matches the column name in any of the quoting
// styles the two error families use: 'col', "col", `col`, or a
// table-qualified reference like rides.col.
func containsColumnRef(lowerMsg, lowerCol string) bool {
	for _, pat := range []string{
		"'" + lowerCol + "'",
		`"` + lowerCol + `"`,
		"`" + lowerCol + "`",
		"." + lowerCol,
		" " + lowerCol + " ",
	} {
		if strings.Contains(lowerMsg, pat) {
			return true
		}
	}
	return false
}
