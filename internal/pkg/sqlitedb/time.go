package sqlitedb

import (
	"fmt"
	"time"
)

// Timestamps are stored as fixed-width UTC TEXT so string comparison in
// WHERE clauses orders them chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	// rows written by hand or by older builds may use plain RFC3339
	if t, rerr := time.Parse(time.RFC3339Nano, s); rerr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("sqlitedb: bad timestamp %q: %w", s, err)
}
