package store

import (
	"database/sql"
	"time"
)

// Timestamps are stored as RFC3339Nano UTC strings and booleans as
// integers; modernc's driver round-trips both reliably that way.

func toTS(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fromTS(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTS(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return toTS(*t)
}

func fromNullableTS(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromTS(v.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func intToBool(v int) bool {
	return v != 0
}
