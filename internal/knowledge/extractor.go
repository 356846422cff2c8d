package knowledge

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// Complexity levels.
const (
	LevelDetailed = "detailed"
	LevelList     = "list"
	LevelSimple   = "simple"
	LevelDefault  = "default"
)

const (
	minSentenceLen  = 15
	minKeywordLen   = 4
	keywordHit      = 2
	maxPositionBias = 3
	minTailRoom     = 30
)

// Complexity is the answer budget chosen for a question.
type Complexity struct {
	Level        string
	MaxSentences int
	MaxChars     int
}

var (
	detailedPatterns = []string{
		"explain", "describe", "tell me about", "how does",
		"what are the steps", "give me details", "elaborate",
		"samjhao", "batao detail", "kaise kaam",
		"differences between", "compare", "contrast",
		"advantages", "disadvantages", "pros and cons",
	}
	listPatterns = []string{
		"list", "types", "kinds", "examples",
		"what all", "which are", "give me",
		"highlights", "points", "features",
		"prakar", "types kya",
	}
	simplePatterns = []string{
		"what is", "who is", "when is", "where is",
		"kya hai", "kaun hai", "kab hai", "kahan hai",
		"yes or no", "true or false",
		"how many", "kitne", "kitna",
	}
)

var extractStopWords = stopSet(
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "is", "are", "was", "were", "what", "how", "when",
	"where", "why", "who", "which", "tell", "me", "about", "your",
	"kya", "hai", "kaise", "batao", "give", "get", "any", "some",
	"does", "this", "that", "there", "have", "please",
)

// Extractor pulls a short, relevance-ranked answer out of free text. It is
// stateless and safe for concurrent use.
type Extractor struct {
	stopWords map[string]struct{}
}

func NewExtractor() *Extractor {
	return &Extractor{stopWords: extractStopWords}
}

// Classify picks the answer budget for a question. Detailed phrasing wins
// over list phrasing, which wins over simple phrasing.
func (e *Extractor) Classify(question string) Complexity {
	q := strings.ToLower(question)
	switch {
	case containsAnyPattern(q, detailedPatterns):
		return Complexity{Level: LevelDetailed, MaxSentences: 3, MaxChars: 200}
	case containsAnyPattern(q, listPatterns):
		return Complexity{Level: LevelList, MaxSentences: 2, MaxChars: 180}
	case containsAnyPattern(q, simplePatterns):
		return Complexity{Level: LevelSimple, MaxSentences: 1, MaxChars: 120}
	default:
		return Complexity{Level: LevelDefault, MaxSentences: 2, MaxChars: 160}
	}
}

// FixedBudget is the budget used when a caller asks for an explicit number
// of sentences instead of a classified one.
func FixedBudget(sentences int) Complexity {
	if sentences < 1 {
		sentences = 1
	}
	return Complexity{Level: LevelDefault, MaxSentences: sentences, MaxChars: min(sentences*80, 200)}
}

// Keywords returns the distinct question words longer than three runes that
// are not stop words.
func (e *Extractor) Keywords(question string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range core.Tokenize(question) {
		if runeLen(w) < minKeywordLen {
			continue
		}
		if _, stop := e.stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// Extract answers question from raw using the classified budget.
func (e *Extractor) Extract(question, raw string) string {
	return e.ExtractWithBudget(question, raw, e.Classify(question))
}

type scoredSentence struct {
	index int
	text  string
	score int
}

// ExtractWithBudget selects the highest scoring sentences that fit budget
// and returns them in their original order. It returns "" when raw has no
// usable sentence.
func (e *Extractor) ExtractWithBudget(question, raw string, budget Complexity) string {
	var sentences []string
	for _, s := range SplitSentences(raw) {
		if runeLen(s) >= minSentenceLen {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return ""
	}
	first := ellipsize(sentences[0], budget.MaxChars)

	keywords := e.Keywords(question)
	if len(keywords) == 0 {
		return first
	}

	scored := make([]scoredSentence, len(sentences))
	for i, s := range sentences {
		scored[i] = scoredSentence{index: i, text: s, score: e.scoreSentence(s, keywords, i)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	var picked []scoredSentence
	total := 0
	for _, s := range scored {
		if s.score <= 0 || len(picked) >= budget.MaxSentences {
			break
		}
		sep := 0
		if len(picked) > 0 {
			sep = 1
		}
		n := runeLen(s.text) + sep
		if total+n > budget.MaxChars {
			if room := budget.MaxChars - total - sep; room > minTailRoom {
				picked = append(picked, scoredSentence{index: s.index, text: truncate(s.text, room-3) + "..."})
			}
			break
		}
		picked = append(picked, s)
		total += n
	}
	if len(picked) == 0 {
		return first
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })
	parts := make([]string, len(picked))
	for i, p := range picked {
		parts[i] = p.text
	}
	answer := ellipsize(strings.Join(parts, " "), budget.MaxChars)

	log.Debug().
		Str("component", "knowledge").
		Str("complexity", budget.Level).
		Int("sentences", len(picked)).
		Int("chars", runeLen(answer)).
		Msg("answer extracted")
	return answer
}

func (e *Extractor) scoreSentence(sentence string, keywords []string, index int) int {
	tokens := core.Tokenize(sentence)
	present := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		present[t] = struct{}{}
	}

	score := 0
	for _, kw := range keywords {
		if _, ok := present[kw]; ok {
			score += keywordHit
		}
	}
	for _, kw := range keywords {
		if runeLen(kw) < partialMinLen {
			continue
		}
		for _, t := range tokens {
			if crossMatch(kw, t) {
				score++
			}
		}
	}
	return score + max(0, maxPositionBias-index)
}

func containsAnyPattern(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
