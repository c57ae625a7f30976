package models

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"01/2006",
	"1/2006",
	"01/02/2006",
	"Jan 2006",
	"January 2006",
	"Jan. 2006",
	"2006",
}

// ParseDate accepts the date shapes found in profiles and resumes and returns
// the calendar date they denote. Month-only inputs resolve to the first day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatISODate renders a source date as YYYY-MM-DD, the value format of
// native date inputs. Unparseable input yields "".
func FormatISODate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}
