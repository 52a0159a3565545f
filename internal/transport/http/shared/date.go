package shared

import "time"

// ParseDate accepts YYYY-MM-DD or RFC3339 and returns the UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, value); err != nil {
			return time.Time{}, err
		}
	}
	y, m, d := parsed.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
