package model

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the canonical text form of a milestone date.
const DateLayout = "2006-01-02"

// DateParseError reports date text that could not be read. It is a soft
// error: callers store the milestone as absent.
type DateParseError struct {
	Text string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("unrecognised date %q, expected YYYY-MM-DD", e.Text)
}

// ParseISODate parses strict YYYY-MM-DD text.
func ParseISODate(text string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(text))
	if err != nil {
		return civil.Date{}, &DateParseError{Text: text}
	}
	return d, nil
}

// cellLayouts are the text layouts accepted when reading sheet cells.
var cellLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"2006/1/2",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseCellDate reads a date from sheet cell text in any accepted layout.
// Empty or unrecognised text yields false.
func ParseCellDate(text string) (civil.Date, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return civil.Date{}, false
	}
	for _, layout := range cellLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}

// FormatDate renders d as YYYY-MM-DD, or "" when d is absent.
func FormatDate(d civil.Date) string {
	if !d.IsValid() {
		return ""
	}
	return d.String()
}
