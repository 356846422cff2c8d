// Package knowledge ranks caller-supplied knowledge entries and extracts
// short answers from them.
package knowledge

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

const (
	titleHit        = 10
	contentHit      = 2
	partialHit      = 1
	coveragePerWord = 2
	partialMinLen   = 5
	partialTokenLen = 3
)

var searchStopWords = stopSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "is", "are", "was", "were", "be", "been", "being",
	"what", "how", "when", "where", "why", "who", "which", "this", "that",
	"me", "tell", "about", "your", "you", "i", "my", "can", "could", "would",
	"do", "does", "we", "our", "please",
)

// Match is a scored knowledge entry.
type Match struct {
	Entry core.KnowledgeEntry
	Index int
	Score int
}

// Searcher scores entries by title and content overlap with a query.
type Searcher struct {
	stopWords map[string]struct{}
}

func NewSearcher() *Searcher {
	return &Searcher{stopWords: searchStopWords}
}

// MeaningfulWords returns the distinct query tokens that are not stop words,
// in order of first appearance.
func (s *Searcher) MeaningfulWords(query string) []string {
	seen := make(map[string]struct{})
	var words []string
	for _, w := range core.Tokenize(query) {
		if _, stop := s.stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// Score rates one entry against the meaningful query words.
func (s *Searcher) Score(words []string, entry core.KnowledgeEntry) int {
	title := tokenSet(entry.Title)
	contentTokens := core.Tokenize(entry.Content)
	content := make(map[string]struct{}, len(contentTokens))
	for _, t := range contentTokens {
		content[t] = struct{}{}
	}

	score := 0
	matched := 0
	for _, w := range words {
		if _, ok := title[w]; ok {
			score += titleHit
		}
		if _, ok := content[w]; ok {
			score += contentHit
			matched++
		}
		if runeLen(w) >= partialMinLen {
			for _, t := range contentTokens {
				if crossMatch(w, t) {
					score += partialHit
				}
			}
		}
	}
	if matched > 1 {
		score += matched * coveragePerWord
	}
	return score
}

// SearchRanked returns every entry scoring above zero, best first. Equal
// scores keep their input order.
func (s *Searcher) SearchRanked(query string, entries []core.KnowledgeEntry) []Match {
	if len(entries) == 0 {
		return nil
	}
	words := s.MeaningfulWords(query)
	if len(words) == 0 {
		return nil
	}

	var matches []Match
	for i, e := range entries {
		if score := s.Score(words, e); score > 0 {
			matches = append(matches, Match{Entry: e, Index: i, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// Search returns the content of the best-scoring entry verbatim, or "" when
// nothing matches.
func (s *Searcher) Search(query string, entries []core.KnowledgeEntry) string {
	matches := s.SearchRanked(query, entries)

	log.Debug().
		Str("component", "knowledge").
		Int("entries", len(entries)).
		Int("matches", len(matches)).
		Msg("knowledge search")

	if len(matches) == 0 {
		return ""
	}
	return matches[0].Entry.Content
}

// crossMatch reports whether either word contains the other. Very short
// tokens are ignored so "a" or "to" never count as partial matches.
func crossMatch(word, token string) bool {
	if runeLen(token) < partialTokenLen {
		return false
	}
	return contains(token, word) || contains(word, token)
}
