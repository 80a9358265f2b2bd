package timeparse

import (
	"strings"
	"time"

	"assistant-nlu/internal/common/validation"
)

// ParseDate resolves a loosely typed date entity into YYYY-MM-DD. It accepts
// the keywords today, yesterday and tomorrow, time values, ISO dates and
// anything the fuzzy parser understands.
func (p *Parser) ParseDate(value interface{}, now time.Time) (string, bool) {
	now = now.UTC()
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.UTC().Format(DateLayout), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return p.ParseDate(*v, now)
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case "":
			return "", false
		case "today":
			return now.Format(DateLayout), true
		case "yesterday":
			return now.AddDate(0, 0, -1).Format(DateLayout), true
		case "tomorrow":
			return now.AddDate(0, 0, 1).Format(DateLayout), true
		}
		if d, err := time.Parse(DateLayout, s); err == nil {
			return d.Format(DateLayout), true
		}
		if parsed := p.Parse(v, now); parsed.Date != nil {
			return *parsed.Date, true
		}
	}
	return "", false
}

// ParseDateTime resolves a loosely typed datetime entity into a UTC time.
// Naive values are taken as UTC.
func (p *Parser) ParseDateTime(value interface{}, now time.Time) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return p.ParseDateTime(*v, now)
	case string:
		if strings.TrimSpace(v) == "" {
			return time.Time{}, false
		}
		if t, ok := validation.ParseDateTimeValue(v); ok {
			return t, true
		}
		if parsed := p.Parse(v, now); parsed.DateTime != nil {
			return *parsed.DateTime, true
		}
	}
	return time.Time{}, false
}
