package rules

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

var ErrNoAmount = errors.New("no amount found")

// Amounts use a single convention: ',' groups thousands and '.' is the
// decimal point, so "1,234.56" is 1234.56 and "1.234,56" is 1.234.
var amountRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

var currencySymbols = []struct{ symbol, iso string }{
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"₹", "INR"},
	{"¥", "JPY"},
}

var currencyWordRe = regexp.MustCompile(`(?i)\b(usd|eur|gbp|inr|jpy|cad|aud|chf|dollars?|bucks|euros?|pounds?|rupees?|yen)\b`)

var currencyWords = map[string]string{
	"dollar": "USD",
	"buck":   "USD",
	"euro":   "EUR",
	"pound":  "GBP",
	"rupee":  "INR",
	"yen":    "JPY",
}

const DefaultCurrency = "USD"

// ParseAmount returns the first number in raw.
func ParseAmount(raw string) (float64, error) {
	m := amountRe.FindString(raw)
	if m == "" {
		return 0, ErrNoAmount
	}
	m = strings.TrimRight(strings.ReplaceAll(m, ",", ""), ".")
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// DetectCurrency maps a currency symbol, ISO code or word in raw to an ISO
// code. ok is false when raw names no currency.
func DetectCurrency(raw string) (code string, ok bool) {
	for _, c := range currencySymbols {
		if strings.Contains(raw, c.symbol) {
			return c.iso, true
		}
	}
	m := currencyWordRe.FindString(raw)
	if m == "" {
		return "", false
	}
	word := strings.ToLower(m)
	if len(word) == 3 && word != "yen" {
		return strings.ToUpper(word), true
	}
	word = strings.TrimSuffix(word, "s")
	iso, ok := currencyWords[word]
	return iso, ok
}

// hasMoney reports whether s carries an explicit currency marker next to a
// number.
func hasMoney(s string) bool {
	if !amountRe.MatchString(s) {
		return false
	}
	_, ok := DetectCurrency(s)
	return ok
}

// stripAmount removes the money expression from s, leaving the surrounding
// words.
func stripAmount(s string) string {
	for _, c := range currencySymbols {
		s = strings.ReplaceAll(s, c.symbol, " ")
	}
	s = currencyWordRe.ReplaceAllString(s, " ")
	s = amountRe.ReplaceAllString(s, " ")
	return collapseSpaces(s)
}
