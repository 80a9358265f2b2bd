package rules

import (
	"errors"
	"regexp"
	"strings"

	"assistant-nlu/internal/nlu/ontology"
)

const (
	DefaultDescription    = "Miscellaneous"
	DefaultCategory       = "Other"
	DefaultReminderFilter = "week"
	DefaultSpendingRange  = "month"
)

var (
	errNoTime    = errors.New("no time expression")
	errEmptyText = errors.New("empty capture")
)

// DefaultRules returns the rule table in priority order. Explicit command
// prefixes come first, then money expressions; question detection is last
// since almost anything can be phrased as one.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "reminder",
			Intent:  ontology.IntentSetReminder,
			Pattern: regexp.MustCompile(`(?i)^(?:please\s+)?(?:remind\s+me\s+(?:to\s+|about\s+|that\s+)?|set\s+(?:a\s+|an?\s+)?reminder\s+(?:to\s+|for\s+|about\s+)?|don'?t\s+let\s+me\s+forget\s+(?:to\s+)?)(?P<body>.+)$`),
			Extract: extractReminder,
		},
		{
			Name:    "meeting",
			Intent:  ontology.IntentScheduleMeeting,
			Pattern: regexp.MustCompile(`(?i)\b(?:schedule|book|set\s+up|arrange|plan)\s+(?:a\s+|an\s+)?(?P<kind>meeting|call|appointment|sync|catch[\s-]?up)\b(?:\s+with\s+(?P<with>.+?))?(?P<rest>\s+(?:at|on|for|tomorrow|today|next|this|in)\b.*)?[.!]?$`),
			Extract: extractMeeting,
		},
		{
			Name:    "spending_verb",
			Intent:  ontology.IntentLogSpending,
			Pattern: regexp.MustCompile(`(?i)\b(?:spent|spend|paid|pay|paying)\s+(?P<a>.+?)\s+(?:on|for|at)\s+(?P<b>.+?)[.!]?$`),
			Extract: extractSpending,
		},
		{
			Name:    "spending_log",
			Intent:  ontology.IntentLogSpending,
			Pattern: regexp.MustCompile(`(?i)^(?:log(?:ged)?\s+(?:spending|expense|an?\s+expense)|expense|add\s+expense)\s*[:\-]?\s*(?P<a>.+?)(?:\s+(?:on|for)\s+(?P<b>.+?))?[.!]?$`),
			Extract: extractSpending,
		},
		{
			Name:    "spending_cost",
			Intent:  ontology.IntentLogSpending,
			Pattern: regexp.MustCompile(`(?i)^(?P<b>.+?)\s+(?:cost|costs)(?:\s+me)?\s+(?P<a>.+?)[.!]?$`),
			Extract: extractSpending,
		},
		{
			Name:    "note_explicit",
			Intent:  ontology.IntentSaveNote,
			Pattern: regexp.MustCompile(`(?i)^(?:(?:save|take|make|add)\s+(?:a\s+)?note|note\s*:|remember\s+that|jot\s+down)\s*(?:that\s+)?:?\s*(?P<content>.+)$`),
			Extract: extractNote,
		},
		{
			Name:    "query_spending",
			Intent:  ontology.IntentQuerySpending,
			Pattern: regexp.MustCompile(`(?i)\b(?:how\s+much\s+(?:did\s+i|have\s+i|i)\s+(?:spend|spent)|(?:show|list)\s+(?:me\s+)?my\s+(?:spending|expenses))(?:\s+on\s+(?P<category>[a-z ]+?))?(?:\s+(?P<range>today|yesterday|this\s+week|last\s+week|this\s+month|last\s+month|this\s+year))?\s*\??$`),
			Extract: extractQuerySpending,
		},
		{
			Name:    "get_reminders",
			Intent:  ontology.IntentGetReminders,
			Pattern: regexp.MustCompile(`(?i)\b(?:what\s+are\s+my|show\s+(?:me\s+)?my|list(?:\s+my)?|do\s+i\s+have\s+any|any)\s+(?:upcoming\s+)?reminders?\b(?:\s+(?:for\s+)?(?P<filter>today|tomorrow|this\s+week|next\s+week|this\s+month))?`),
			Extract: extractGetReminders,
		},
		{
			Name:    "note_summary",
			Intent:  ontology.IntentGetNoteSummary,
			Pattern: regexp.MustCompile(`(?i)\bsummari[sz]e\s+(?:my\s+|all\s+)?notes?\s+(?:about|on|regarding|tagged|with\s+tag)\s+(?P<topic>.+?)\??$`),
			Extract: extractNoteSummary,
		},
		{
			Name:    "summary_period",
			Intent:  ontology.IntentGetSummary,
			Pattern: regexp.MustCompile(`(?i)\b(?:summari[sz]e|(?:give\s+me\s+)?(?:a\s+)?summary\s+of|recap)\s+(?:my\s+|the\s+)?(?:(?P<rel>today|yesterday|this|last)(?:'s)?\s+)?(?P<period>day|week|month)\b`),
			Extract: extractSummary,
		},
		{
			Name:    "summary_on_date",
			Intent:  ontology.IntentGetSummary,
			Pattern: regexp.MustCompile(`(?i)\bwhat\s+(?:did\s+i\s+do|happened)\s+(?:on\s+)?(?P<when>.+?)\??$`),
			Extract: extractSummaryOnDate,
		},
		{
			Name:    "investment_trade",
			Intent:  ontology.IntentLogInvestment,
			Pattern: regexp.MustCompile(`(?i)\b(?:bought|sold|purchased)\s+(?P<qty>\d[\d,.]*)\s+(?:shares?|units?|coins?|lots?)\s+(?:of\s+)?(?P<asset>[A-Za-z][\w.\-]*)`),
			Extract: extractInvestment,
		},
		{
			Name:    "investment_invested",
			Intent:  ontology.IntentLogInvestment,
			Pattern: regexp.MustCompile(`(?i)\binvest(?:ed|ing)?\s+(?P<amount>.+?)\s+(?:in|into)\s+(?P<asset>.+?)[.!]?$`),
			Extract: extractInvestment,
		},
		{
			Name:     "medical",
			Intent:   ontology.IntentLogMedical,
			Keywords: medicalKeywords(),
			Extract:  extractMedical,
		},
		{
			Name:    "search",
			Intent:  ontology.IntentSearchInformation,
			Pattern: regexp.MustCompile(`(?i)^(?:search|find|look\s+up|look\s+for)\s+(?:my\s+)?(?:notes?\s+)?(?:for|about|on|regarding)?\s*(?P<query>.+?)\??$`),
			Extract: extractSearch,
		},
		{
			Name:    "question",
			Intent:  ontology.IntentAskQuestion,
			Pattern: regexp.MustCompile(`(?i)^(?:question\s*:\s*.+|(?:what|who|when|where|why|how|which|is|are|can|could|should|do|does|did|will|would)\b.+\?)$`),
			Extract: extractQuestion,
		},
	}
}

var (
	schedulingKeywordRe = regexp.MustCompile(`(?i)\b(?:meeting|appointment|call\s+with|sync\s+with|interview|standup|catch[\s-]?up)\b`)
	spendingKeywordRe   = regexp.MustCompile(`(?i)\b(?:spent|paid|bought|cost|expense|purchase[d]?)\b`)
)

// DefaultChecks returns the fallback checks consulted after the table.
func DefaultChecks() []Check {
	return []Check{
		{
			Name:   "scheduling_keyword_with_time",
			Intent: ontology.IntentScheduleMeeting,
			Apply: func(m Match) (ontology.Entities, bool) {
				if !schedulingKeywordRe.MatchString(m.Text) {
					return nil, false
				}
				parsed := m.Times.Parse(m.Text, m.Now)
				if parsed.DateTime == nil {
					return nil, false
				}
				entities := ontology.Entities{
					ontology.FieldDateTime: parsed.DateTimeString(),
				}
				if subject := stripTemporal(m.Text); subject != "" {
					entities[ontology.FieldSubject] = subject
				}
				return entities, true
			},
		},
		{
			Name:   "spending_keyword_with_amount",
			Intent: ontology.IntentLogSpending,
			Apply: func(m Match) (ontology.Entities, bool) {
				if !spendingKeywordRe.MatchString(m.Text) || !hasMoney(m.Text) {
					return nil, false
				}
				amount, err := ParseAmount(m.Text)
				if err != nil {
					return nil, false
				}
				currency, _ := DetectCurrency(m.Text)
				description := spendingKeywordRe.ReplaceAllString(stripAmount(m.Text), " ")
				description = strings.Trim(collapseSpaces(description), " ,.")
				return spendingEntities(amount, currency, description), true
			},
		},
	}
}
