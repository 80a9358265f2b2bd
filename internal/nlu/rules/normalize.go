package rules

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var spaceRe = regexp.MustCompile(`\s+`)

// Normalize folds compatibility forms (full-width digits and symbols,
// non-breaking spaces) and collapses whitespace. Case is preserved so
// extracted content keeps the user's spelling.
func Normalize(text string) string {
	return collapseSpaces(norm.NFKC.String(text))
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec`

var temporalPhraseRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:on\s+)?\d{4}-\d{2}-\d{2}(?:[t ]\d{2}:\d{2}(?::\d{2})?(?:z|[+-]\d{2}:\d{2})?)?`),
	regexp.MustCompile(`(?i)\b(?:on\s+)?(?:\d{4}[/.]\d{1,2}[/.]\d{1,2}|\d{1,2}[/.]\d{1,2}[/.](?:\d{4}|\d{2}))\b`),
	regexp.MustCompile(`(?i)\b(?:on\s+)?(?:` + monthNames + `)\.?\s+\d{1,2}(?:st|nd|rd|th)?\b(?:,?\s+\d{4}\b)?`),
	regexp.MustCompile(`(?i)\b(?:on\s+)?(?:the\s+)?\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:` + monthNames + `)\b\.?(?:,?\s+\d{4}\b)?`),
	regexp.MustCompile(`(?i)\b(?:at|by|around)\s*\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)?`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)`),
	regexp.MustCompile(`(?i)\b(?:in|within)\s+\d+\s+(?:minutes?|mins?|hours?|hrs?|days?|weeks?|months?)\b`),
	regexp.MustCompile(`(?i)\b(?:on\s+)?(?:(?:this|next|coming)\s+)?(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\b(?:the\s+)?day\s+after\s+tomorrow\b`),
	regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|yesterday|this\s+(?:morning|afternoon|evening)|next\s+week|noon|midnight)\b`),
}

var danglingRe = regexp.MustCompile(`(?i)(?:\s+(?:at|on|by|in|for|to))+\s*$`)

// stripTemporal removes time phrases from s so that what remains is the
// subject of a reminder or meeting.
func stripTemporal(s string) string {
	for _, re := range temporalPhraseRes {
		s = re.ReplaceAllString(s, " ")
	}
	s = collapseSpaces(s)
	s = strings.TrimRight(s, " ,.;:!-")
	s = danglingRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
