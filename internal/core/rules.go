package core

import (
	"fmt"
	"strings"
	"unicode"
)

// Tokenize lower-cases content and splits it into words of letters and
// digits. Apostrophes inside a word are dropped so "don't" becomes "dont".
func Tokenize(content string) []string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range content {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r):
			current.WriteRune(unicode.ToLower(r))
		case r == '\'' || r == '’':
			// joined
		default:
			flush()
		}
	}
	flush()
	return words
}

// CountWords aggregates token counts across texts.
func CountWords(texts ...string) map[string]int {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, word := range Tokenize(text) {
			counts[word]++
		}
	}
	return counts
}

// ValidOperator reports whether op is a supported comparison.
func ValidOperator(op string) bool {
	switch op {
	case ">", ">=", "==", "<", "<=", "!=":
		return true
	}
	return false
}

// Validate checks a condition before it is stored.
func (c Condition) Validate() error {
	if strings.TrimSpace(c.Word) == "" {
		return fmt.Errorf("condition word is required")
	}
	if !ValidOperator(c.Operator) {
		return fmt.Errorf("unsupported operator %q", c.Operator)
	}
	if c.Count < 0 {
		return fmt.Errorf("condition count must be non-negative, got %d", c.Count)
	}
	return nil
}

// Matches reports whether the condition holds for the given word counts.
func (c Condition) Matches(counts map[string]int) bool {
	n := counts[strings.ToLower(strings.TrimSpace(c.Word))]
	switch c.Operator {
	case ">":
		return n > c.Count
	case ">=":
		return n >= c.Count
	case "==":
		return n == c.Count
	case "<":
		return n < c.Count
	case "<=":
		return n <= c.Count
	case "!=":
		return n != c.Count
	}
	return false
}

// Evaluate returns the actions of every rule whose conditions all hold.
// A rule without conditions never fires.
func Evaluate(counts map[string]int, rules []ParsedRule) []string {
	var actions []string
	for _, rule := range rules {
		if len(rule.ParsedConditions) == 0 {
			continue
		}
		fired := true
		for _, cond := range rule.ParsedConditions {
			if !cond.Matches(counts) {
				fired = false
				break
			}
		}
		if fired {
			actions = append(actions, rule.Action)
		}
	}
	return actions
}

// IsEscalationAction reports whether action hands the call to a human.
func IsEscalationAction(action string) bool {
	switch strings.ToLower(action) {
	case ActionEscalate, ActionHumanHandoff:
		return true
	}
	return false
}
