package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"assistant-nlu/internal/nlu/ontology"
)

var (
	bareNumberRe   = regexp.MustCompile(`^\d[\d,]*(?:\.\d+)?$`)
	hashtagRe      = regexp.MustCompile(`#(\w+)`)
	relativeDayRe  = regexp.MustCompile(`(?i)\b(today|yesterday)\b`)
	questionPrefix = regexp.MustCompile(`(?i)^question\s*:\s*`)
)

var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"Food", []string{"lunch", "dinner", "breakfast", "coffee", "groceries", "grocery", "restaurant", "food", "snack", "pizza"}},
	{"Transport", []string{"uber", "lyft", "taxi", "cab", "bus", "train", "metro", "fuel", "gas", "parking", "flight"}},
	{"Office", []string{"office", "stationery", "printer", "supplies"}},
	{"Bills", []string{"rent", "electricity", "water bill", "internet", "phone bill", "utilities", "insurance"}},
	{"Shopping", []string{"clothes", "shoes", "amazon", "gift", "shopping"}},
	{"Entertainment", []string{"movie", "cinema", "netflix", "concert", "game", "spotify"}},
	{"Health", []string{"pharmacy", "medicine", "doctor", "dentist", "gym"}},
}

// InferCategory maps a spending description to a coarse category.
func InferCategory(description string) string {
	lower := strings.ToLower(description)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.category
			}
		}
	}
	return DefaultCategory
}

func spendingEntities(amount float64, currency, description string) ontology.Entities {
	if currency == "" {
		currency = DefaultCurrency
	}
	if description == "" {
		description = DefaultDescription
	}
	return ontology.Entities{
		ontology.FieldAmount:      amount,
		ontology.FieldCurrency:    currency,
		ontology.FieldDescription: description,
		ontology.FieldCategory:    InferCategory(description),
	}
}

// pickAmountGroup decides which of two captures holds the money. A capture
// with a currency marker wins; otherwise a capture that is only a number.
func pickAmountGroup(a, b string) (amountRaw, rest string, err error) {
	switch {
	case hasMoney(a):
		return a, b, nil
	case hasMoney(b):
		return b, a, nil
	case bareNumberRe.MatchString(a):
		return a, b, nil
	case bareNumberRe.MatchString(b):
		return b, a, nil
	}
	return "", "", ErrNoAmount
}

func extractSpending(m Match) (ontology.Entities, error) {
	amountRaw, rest, err := pickAmountGroup(m.Group("a"), m.Group("b"))
	if err != nil {
		return nil, err
	}
	amount, err := ParseAmount(amountRaw)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("non-positive amount %v", amount)
	}
	currency, _ := DetectCurrency(amountRaw)

	description := collapseSpaces(rest + " " + stripAmount(amountRaw))
	var date string
	if day := relativeDayRe.FindString(description); day != "" {
		if d, ok := m.Times.ParseDate(day, m.Now); ok {
			date = d
		}
		description = collapseSpaces(relativeDayRe.ReplaceAllString(description, " "))
	}
	description = strings.Trim(description, " ,.")

	entities := spendingEntities(amount, currency, description)
	if date != "" {
		entities[ontology.FieldDate] = date
	}
	return entities, nil
}

func extractReminder(m Match) (ontology.Entities, error) {
	body := m.Group("body")
	parsed := m.Times.Parse(body, m.Now)
	if parsed.DateTime == nil {
		return nil, errNoTime
	}
	content := stripTemporal(body)
	if content == "" {
		return nil, errEmptyText
	}
	return ontology.Entities{
		ontology.FieldContent:  content,
		ontology.FieldDateTime: parsed.DateTimeString(),
	}, nil
}

func extractMeeting(m Match) (ontology.Entities, error) {
	parsed := m.Times.Parse(m.Text, m.Now)
	if parsed.DateTime == nil {
		return nil, errNoTime
	}

	kind := strings.ToLower(m.Group("kind"))
	subject := strings.ToUpper(kind[:1]) + kind[1:]
	if with := stripTemporal(m.Group("with")); with != "" {
		subject += " with " + with
	}

	entities := ontology.Entities{
		ontology.FieldDateTime: parsed.DateTimeString(),
		ontology.FieldSubject:  subject,
	}
	if content := stripTemporal(m.Text); content != "" {
		entities[ontology.FieldContent] = content
	}
	return entities, nil
}

func extractNote(m Match) (ontology.Entities, error) {
	content := strings.TrimSpace(m.Group("content"))
	if content == "" {
		return nil, errEmptyText
	}
	entities := ontology.Entities{
		ontology.FieldContent:  content,
		ontology.FieldIsGlobal: true,
	}
	if tags := hashtags(content); len(tags) > 0 {
		entities[ontology.FieldTags] = tags
	}
	return entities, nil
}

func hashtags(s string) []string {
	var tags []string
	for _, t := range hashtagRe.FindAllStringSubmatch(s, -1) {
		tags = append(tags, strings.ToLower(t[1]))
	}
	return tags
}

var spendingRanges = map[string]string{
	"today":      "today",
	"yesterday":  "yesterday",
	"this week":  "week",
	"last week":  "last_week",
	"this month": "month",
	"last month": "last_month",
	"this year":  "year",
}

func extractQuerySpending(m Match) (ontology.Entities, error) {
	timeRange := DefaultSpendingRange
	if r, ok := spendingRanges[collapseSpaces(strings.ToLower(m.Group("range")))]; ok {
		timeRange = r
	}
	entities := ontology.Entities{ontology.FieldTimeRange: timeRange}
	if c := m.Group("category"); c != "" {
		entities[ontology.FieldCategory] = strings.ToUpper(c[:1]) + strings.ToLower(c[1:])
	}
	return entities, nil
}

var reminderFilters = map[string]string{
	"today":      "today",
	"tomorrow":   "tomorrow",
	"this week":  "week",
	"next week":  "next_week",
	"this month": "month",
}

func extractGetReminders(m Match) (ontology.Entities, error) {
	filter := DefaultReminderFilter
	if f, ok := reminderFilters[collapseSpaces(strings.ToLower(m.Group("filter")))]; ok {
		filter = f
	}
	return ontology.Entities{ontology.FieldFilter: filter}, nil
}

func extractNoteSummary(m Match) (ontology.Entities, error) {
	topic := strings.TrimSpace(m.Group("topic"))
	if topic == "" {
		return nil, errEmptyText
	}
	if tags := hashtags(topic); len(tags) > 0 {
		return ontology.Entities{ontology.FieldTags: tags}, nil
	}
	return ontology.Entities{ontology.FieldKeywords: []string{topic}}, nil
}

func extractSummary(m Match) (ontology.Entities, error) {
	period := strings.ToLower(m.Group("period"))
	day := m.Now
	switch strings.ToLower(m.Group("rel")) {
	case "yesterday":
		day = m.Now.AddDate(0, 0, -1)
	case "last":
		switch period {
		case "day":
			day = m.Now.AddDate(0, 0, -1)
		case "week":
			day = m.Now.AddDate(0, 0, -7)
		case "month":
			day = m.Now.AddDate(0, -1, 0)
		}
	}
	return ontology.Entities{
		ontology.FieldPeriod: period,
		ontology.FieldDate:   day.Format("2006-01-02"),
	}, nil
}

func extractSummaryOnDate(m Match) (ontology.Entities, error) {
	date, ok := m.Times.ParseDate(m.Group("when"), m.Now)
	if !ok {
		return nil, errors.New("unparseable summary date")
	}
	return ontology.Entities{
		ontology.FieldPeriod: "day",
		ontology.FieldDate:   date,
	}, nil
}

func extractInvestment(m Match) (ontology.Entities, error) {
	asset := strings.Trim(m.Group("asset"), " .,")
	if asset == "" {
		return nil, errEmptyText
	}
	if len(asset) <= 5 && !strings.Contains(asset, " ") {
		asset = strings.ToUpper(asset)
	}

	entities := ontology.Entities{
		ontology.FieldContent: m.Text,
		ontology.FieldTitle:   asset,
	}
	if raw := m.Group("amount"); raw != "" {
		amount, err := ParseAmount(raw)
		if err != nil {
			return nil, err
		}
		entities[ontology.FieldAmount] = amount
		currency, ok := DetectCurrency(raw)
		if !ok {
			currency = DefaultCurrency
		}
		entities[ontology.FieldCurrency] = currency
	}
	return entities, nil
}

var medicalLogTypes = []struct {
	logType  string
	keywords []string
}{
	{"medication", []string{"took my medication", "took my meds", "took my medicine", "took my pills", "took my pill", "dose of"}},
	{"vitals", []string{"blood pressure", "blood sugar", "heart rate", "glucose"}},
	{"symptom", []string{"headache", "migraine", "fever", "nausea", "symptom", "sore throat"}},
	{"appointment", []string{"doctor visit", "checkup", "check-up"}},
}

func medicalKeywords() []string {
	var out []string
	for _, t := range medicalLogTypes {
		out = append(out, t.keywords...)
	}
	return out
}

func extractMedical(m Match) (ontology.Entities, error) {
	logType := "general"
	kw := m.Groups["keyword"]
	for _, t := range medicalLogTypes {
		for _, k := range t.keywords {
			if k == kw {
				logType = t.logType
			}
		}
	}
	return ontology.Entities{
		ontology.FieldContent: m.Text,
		ontology.FieldLogType: logType,
	}, nil
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "about": true, "with": true, "my": true,
	"notes": true, "note": true, "any": true, "all": true, "from": true, "that": true,
}

func extractSearch(m Match) (ontology.Entities, error) {
	query := strings.Trim(m.Group("query"), " ?.")
	if query == "" {
		return nil, errEmptyText
	}
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ",.;:!?\"'")
		if len(w) > 2 && !stopwords[w] {
			keywords = append(keywords, w)
		}
	}
	entities := ontology.Entities{ontology.FieldQuery: query}
	if len(keywords) > 0 {
		entities[ontology.FieldKeywords] = keywords
	}
	return entities, nil
}

func extractQuestion(m Match) (ontology.Entities, error) {
	q := strings.TrimSpace(questionPrefix.ReplaceAllString(m.Text, ""))
	if q == "" {
		return nil, errEmptyText
	}
	return ontology.Entities{ontology.FieldQuestionText: q}, nil
}
