// Package timeparse normalises free-text temporal expressions into a
// {date, time, datetime} triple in UTC.
package timeparse

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"assistant-nlu/internal/common/validation"
)

const (
	DateLayout = validation.DateLayout
	TimeLayout = "15:04:05"
)

// ParsedTime is the result of a parse. All fields are nil when no temporal
// expression was found.
type ParsedTime struct {
	Date     *string    `json:"date"`
	Time     *string    `json:"time"`
	DateTime *time.Time `json:"datetime"`
}

// IsZero reports whether nothing was extracted.
func (p ParsedTime) IsZero() bool {
	return p.Date == nil && p.Time == nil && p.DateTime == nil
}

// DateTimeString returns the datetime as RFC3339, or "" when absent.
func (p ParsedTime) DateTimeString() string {
	if p.DateTime == nil {
		return ""
	}
	return p.DateTime.Format(time.RFC3339)
}

func fromTime(t time.Time) ParsedTime {
	t = t.UTC()
	d := t.Format(DateLayout)
	c := t.Format(TimeLayout)
	return ParsedTime{Date: &d, Time: &c, DateTime: &t}
}

var (
	relativeDurationRe = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+(hour|hr|day|week)s?\b`)
	tomorrowRe         = regexp.MustCompile(`(?i)\btomorrow\b`)
	clockRe            = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm|a\.m\.|p\.m\.)?`)

	isoDateRe     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:\d{2})?)?`)
	numericDateRe = regexp.MustCompile(`\b(?:\d{4}[/.]\d{1,2}[/.]\d{1,2}|\d{1,2}[/.]\d{1,2}[/.](?:\d{4}|\d{2}))\b`)
	monthDayRe    = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayMonthRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthNames + `)\b\.?(?:,?\s+(\d{4})\b)?`)
)

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Parser is safe for concurrent use; it holds no per-call state.
type Parser struct {
	fuzzy *when.Parser
}

// New builds a parser with the English and common rule sets.
func New() *Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Parser{fuzzy: w}
}

// Parse extracts the first temporal expression in text relative to now.
// For a fixed now it is a pure function of text.
func (p *Parser) Parse(text string, now time.Time) ParsedTime {
	text = strings.TrimSpace(text)
	if text == "" {
		return ParsedTime{}
	}
	now = now.UTC()

	if t, ok := p.parseFuzzy(text, now); ok {
		return fromTime(t)
	}
	if t, ok := parseRelativeDuration(text, now); ok {
		return fromTime(t)
	}
	if t, ok := parseTomorrowClock(text, now); ok {
		return fromTime(t)
	}
	return ParsedTime{}
}

// parseFuzzy looks for an explicit calendar date anywhere in the text first
// and then hands the text to natural-language extraction. Panics from either
// library are treated as no match.
func (p *Parser) parseFuzzy(text string, now time.Time) (result time.Time, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			result, ok = time.Time{}, false
		}
	}()

	if t, ok := parseAbsolute(text, now); ok {
		return t, true
	}

	r, err := p.fuzzy.Parse(text, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time.UTC(), true
}

// parseAbsolute returns the earliest explicit date in text. A date written
// without a clock takes the first clock time found in the rest of the text,
// or midnight. A date written without a year takes the year of now.
func parseAbsolute(text string, now time.Time) (time.Time, bool) {
	var (
		best     time.Time
		bestLoc  []int
		hasClock bool
	)
	consider := func(loc []int, t time.Time, clock bool) {
		if bestLoc == nil || loc[0] < bestLoc[0] {
			best, bestLoc, hasClock = t, loc, clock
		}
	}

	if loc := isoDateRe.FindStringIndex(text); loc != nil {
		if t, clock, ok := parseISO(text[loc[0]:loc[1]]); ok {
			consider(loc, t, clock)
		}
	}
	if loc := numericDateRe.FindStringIndex(text); loc != nil {
		if t, err := dateparse.ParseIn(text[loc[0]:loc[1]], time.UTC); err == nil {
			consider(loc, withYear(t.UTC(), now), false)
		}
	}
	if m := monthDayRe.FindStringSubmatchIndex(text); m != nil {
		if t, ok := calendarDate(text[m[2]:m[3]], text[m[4]:m[5]], group(text, m, 3), now); ok {
			consider(m[:2], t, false)
		}
	}
	if m := dayMonthRe.FindStringSubmatchIndex(text); m != nil {
		if t, ok := calendarDate(text[m[4]:m[5]], text[m[2]:m[3]], group(text, m, 3), now); ok {
			consider(m[:2], t, false)
		}
	}

	if bestLoc == nil {
		return time.Time{}, false
	}
	if !hasClock {
		if h, m, found := findClock(text[:bestLoc[0]] + " " + text[bestLoc[1]:]); found {
			best = time.Date(best.Year(), best.Month(), best.Day(), h, m, 0, 0, time.UTC)
		}
	}
	return best, true
}

func parseISO(s string) (time.Time, bool, bool) {
	if t, ok := validation.ParseDateTimeValue(s); ok {
		return t, true, true
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false, false
	}
	return t, false, true
}

// calendarDate builds a date from a month name, a day and an optional year.
// Impossible days such as February 30 are rejected rather than rolled over.
func calendarDate(month, day, year string, now time.Time) (time.Time, bool) {
	mon, ok := months[strings.ToLower(month)[:3]]
	if !ok {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	y := now.Year()
	if year != "" {
		if y, err = strconv.Atoi(year); err != nil {
			return time.Time{}, false
		}
	}
	t := time.Date(y, mon, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != mon {
		return time.Time{}, false
	}
	return t, true
}

// withYear fills in the year of now for inputs that carried none.
func withYear(t, now time.Time) time.Time {
	if t.Year() != 0 {
		return t
	}
	return time.Date(now.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func group(text string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return text[m[2*i]:m[2*i+1]]
}

func parseRelativeDuration(text string, now time.Time) (time.Time, bool) {
	m := relativeDurationRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch strings.ToLower(m[2]) {
	case "hour", "hr":
		return now.Add(time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, n), true
	case "week":
		return now.AddDate(0, 0, 7*n), true
	}
	return time.Time{}, false
}

func parseTomorrowClock(text string, now time.Time) (time.Time, bool) {
	if !tomorrowRe.MatchString(text) {
		return time.Time{}, false
	}
	hour, minute, found := findClock(text)
	if !found {
		return time.Time{}, false
	}
	day := now.AddDate(0, 0, 1)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), true
}

// findClock returns the first clock time that carries either a meridiem or
// minutes, so bare numbers are never taken for hours.
func findClock(text string) (hour, minute int, ok bool) {
	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		if m[2] == "" && m[3] == "" {
			continue
		}
		h, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		mins := 0
		if m[2] != "" {
			mins, _ = strconv.Atoi(m[2])
		}
		switch strings.ToLower(strings.ReplaceAll(m[3], ".", "")) {
		case "pm":
			if h < 12 {
				h += 12
			}
		case "am":
			if h == 12 {
				h = 0
			}
		}
		if h > 23 || mins > 59 {
			continue
		}
		return h, mins, true
	}
	return 0, 0, false
}
