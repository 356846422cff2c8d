package knowledge

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

func stopSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func tokenSet(text string) map[string]struct{} {
	tokens := core.Tokenize(text)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func contains(s, sub string) bool { return strings.Contains(s, sub) }

// truncate cuts s to at most n runes and trims trailing space.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if runeLen(s) <= n {
		return strings.TrimSpace(s)
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// ellipsize fits s into max runes, replacing the tail with "..." when it
// does not fit.
func ellipsize(s string, max int) string {
	if runeLen(s) <= max {
		return s
	}
	return truncate(s, max-3) + "..."
}

// SplitSentences splits text after terminal punctuation followed by
// whitespace. Sentences keep their punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '।':
		return true
	}
	return false
}
