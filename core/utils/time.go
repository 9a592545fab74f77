package utils

import "time"

func NowUTC() time.Time {
	return time.Now().UTC()
}

// SplitTimestamp renders a timestamp the way the history tables store it:
// a calendar date and a wall-clock time as separate text columns, so rows
// sort chronologically with (date DESC, time DESC).
func SplitTimestamp(t time.Time) (date string, clock string) {
	t = t.UTC()
	return t.Format("2006-01-02"), t.Format("15:04:05")
}

// JoinTimestamp is the inverse of SplitTimestamp. Returns the zero time when
// either column is malformed.
func JoinTimestamp(date, clock string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", date+" "+clock)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
