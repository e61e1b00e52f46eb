package dto

import "time"

const (
	// DateLayout is the wire format for due dates.
	DateLayout = "2006-01-02"
	// TimestampLayout is the wire format for submission and interaction times.
	TimestampLayout = "2006-01-02 15:04:05"
)

// FormatDate renders a calendar date.
func FormatDate(value time.Time) string {
	return value.Format(DateLayout)
}

// FormatTimestamp renders a timestamp, or nil for an unset value.
func FormatTimestamp(value *time.Time) *string {
	if value == nil || value.IsZero() {
		return nil
	}
	formatted := value.UTC().Format(TimestampLayout)
	return &formatted
}

// ParseDate parses a due date in the wire format.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, time.UTC)
}
