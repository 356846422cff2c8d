package sentiment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type abuseScreen struct {
	english       []string
	hindi         []string
	englishTokens map[string]struct{}
	hindiTokens   map[string]struct{}
	patterns      []*regexp.Regexp
}

func newAbuseScreen() abuseScreen {
	patterns := make([]*regexp.Regexp, 0, len(abusePatterns))
	for _, p := range abusePatterns {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	return abuseScreen{
		english:       englishAbuse,
		hindi:         hindiAbuse,
		englishTokens: englishAbuseTokens,
		hindiTokens:   hindiAbuseTokens,
		patterns:      patterns,
	}
}

// Normalize lower-cases text, drops punctuation and the obfuscation
// characters '*', '-' and '_', and collapses whitespace.
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '*' || r == '-' || r == '_':
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// DetectAbuse screens text against the English and Hindi lexicons and the
// obfuscation patterns. Any signal marks the text abusive.
func (a *Analyzer) DetectAbuse(text string) core.AbuseResult {
	lower := strings.ToLower(text)
	cleaned := Normalize(text)
	tokens := core.Tokenize(cleaned)

	res := core.AbuseResult{
		EnglishAbuse: containsAny(lower, cleaned, a.abuse.english) || hasToken(tokens, a.abuse.englishTokens),
		HindiAbuse:   containsAny(lower, cleaned, a.abuse.hindi) || hasToken(tokens, a.abuse.hindiTokens),
	}
	for _, re := range a.abuse.patterns {
		if re.MatchString(cleaned) {
			res.PatternAbuse = true
			break
		}
	}
	res.IsAbusive = res.EnglishAbuse || res.HindiAbuse || res.PatternAbuse

	if res.IsAbusive {
		log.Warn().
			Str("component", "sentiment").
			Bool("english", res.EnglishAbuse).
			Bool("hindi", res.HindiAbuse).
			Bool("pattern", res.PatternAbuse).
			Msg("abusive content detected")
	}
	return res
}

func containsAny(lower, cleaned string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) || strings.Contains(cleaned, w) {
			return true
		}
	}
	return false
}

func hasToken(tokens []string, words map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := words[t]; ok {
			return true
		}
	}
	return false
}
