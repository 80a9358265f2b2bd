// Package rules implements the deterministic first stage of the pipeline:
// an explicitly ordered table of (intent, pattern, extractor) entries
// followed by a few non-regex checks.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	apperrors "assistant-nlu/internal/common/errors"
	"assistant-nlu/internal/common/logger"
	"assistant-nlu/internal/common/validation"
	"assistant-nlu/internal/nlu/ontology"
	"assistant-nlu/internal/nlu/timeparse"
)

// Match is what an extractor sees when its rule fires.
type Match struct {
	// Text is the normalised utterance.
	Text string
	// Groups holds the submatches by name; unnamed groups are keyed by index.
	Groups map[string]string
	Now    time.Time
	Times  *timeparse.Parser
}

// Group returns the trimmed submatch called name.
func (m Match) Group(name string) string {
	return strings.TrimSpace(m.Groups[name])
}

// Extractor turns a structural match into an entity bag. Returning an error
// means the rule does not apply after all.
type Extractor func(m Match) (ontology.Entities, error)

// Rule is one row of the priority table. Either Pattern or Keywords must be
// set; Keywords match on case-insensitive substring membership.
type Rule struct {
	Name     string
	Intent   ontology.Intent
	Pattern  *regexp.Regexp
	Keywords []string
	Extract  Extractor
}

func (r Rule) match(text string) (map[string]string, bool) {
	if r.Pattern != nil {
		sub := r.Pattern.FindStringSubmatch(text)
		if sub == nil {
			return nil, false
		}
		groups := make(map[string]string, len(sub))
		for i, name := range r.Pattern.SubexpNames() {
			if name == "" {
				name = fmt.Sprint(i)
			}
			groups[name] = sub[i]
		}
		return groups, true
	}

	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return map[string]string{"0": text, "keyword": kw}, true
		}
	}
	return nil, false
}

// Check is a non-regex fallback consulted after the table.
type Check struct {
	Name   string
	Intent ontology.Intent
	Apply  func(m Match) (ontology.Entities, bool)
}

// Engine holds no per-call state and may be shared between goroutines.
type Engine struct {
	rules  []Rule
	checks []Check
	times  *timeparse.Parser
	logger logger.Logger
}

// NewEngine builds an engine over the default table.
func NewEngine(times *timeparse.Parser, log logger.Logger) *Engine {
	return NewEngineWithRules(DefaultRules(), DefaultChecks(), times, log)
}

// NewEngineWithRules builds an engine over an explicit table. Order in rules
// is priority order.
func NewEngineWithRules(rules []Rule, checks []Check, times *timeparse.Parser, log logger.Logger) *Engine {
	if times == nil {
		times = timeparse.New()
	}
	return &Engine{
		rules:  rules,
		checks: checks,
		times:  times,
		logger: log.With(map[string]interface{}{"stage": "rules"}),
	}
}

// Rules returns the table in priority order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Match classifies text. It returns an unknown result, never an error, when
// nothing valid matched.
func (e *Engine) Match(text string, now time.Time) ontology.Result {
	normalized := Normalize(text)
	if normalized == "" {
		return ontology.Unknown(nil)
	}
	now = now.UTC()

	for _, rule := range e.rules {
		groups, ok := rule.match(normalized)
		if !ok {
			continue
		}
		m := Match{Text: normalized, Groups: groups, Now: now, Times: e.times}

		entities, err := e.runExtractor(rule, m)
		if err != nil {
			stdErr := apperrors.NewRuleExtractionFailedError(rule.Name, err)
			e.logger.Debug("extractor rejected match", map[string]interface{}{
				"rule":      rule.Name,
				"errorCode": string(stdErr.Code),
				"error":     stdErr.Details,
			})
			continue
		}
		if result := ontology.Validate(rule.Intent, entities); !result.Valid {
			stdErr := apperrors.NewEntityValidationFailedError(string(rule.Intent), strings.Join(validation.GetErrorMessages(result), "; "))
			e.logger.Debug("extracted entities failed validation", map[string]interface{}{
				"rule":      rule.Name,
				"errorCode": string(stdErr.Code),
				"errors":    stdErr.Details,
			})
			continue
		}

		e.logger.Debug("rule matched", map[string]interface{}{
			"rule":   rule.Name,
			"intent": string(rule.Intent),
		})
		return ontology.Result{Intent: rule.Intent, Entities: entities}
	}

	m := Match{Text: normalized, Groups: map[string]string{"0": normalized}, Now: now, Times: e.times}
	for _, check := range e.checks {
		entities, ok := check.Apply(m)
		if !ok {
			continue
		}
		if !ontology.Validate(check.Intent, entities).Valid {
			continue
		}
		e.logger.Debug("fallback check matched", map[string]interface{}{
			"check":  check.Name,
			"intent": string(check.Intent),
		})
		return ontology.Result{Intent: check.Intent, Entities: entities}
	}

	return ontology.Unknown(nil)
}

// runExtractor converts extractor panics into errors so one bad rule cannot
// abort the scan.
func (e *Engine) runExtractor(rule Rule, m Match) (entities ontology.Entities, err error) {
	defer func() {
		if r := recover(); r != nil {
			entities, err = nil, fmt.Errorf("extractor %s panicked: %v", rule.Name, r)
		}
	}()
	if rule.Extract == nil {
		return ontology.Entities{}, nil
	}
	return rule.Extract(m)
}
