package knowledge

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

var pricingEntry = core.KnowledgeEntry{
	Title:   "Pricing",
	Content: "Our basic plan is $99/month. Enterprise plans are custom. We also offer annual discounts.",
}

func TestSearch_TitleBeatsContent(t *testing.T) {
	s := NewSearcher()
	entries := []core.KnowledgeEntry{
		{Title: "General", Content: "Our pricing plans start at $99."},
		{Title: "Pricing Plans", Content: "Contact sales for details."},
	}

	ranked := s.SearchRanked("pricing plans", entries)
	require.Len(t, ranked, 2)
	assert.Equal(t, 1, ranked[0].Index)
	assert.Equal(t, 20, ranked[0].Score)
	assert.Equal(t, 10, ranked[1].Score)

	assert.Equal(t, "Contact sales for details.", s.Search("pricing plans", entries))
}

func TestSearch_Edges(t *testing.T) {
	s := NewSearcher()

	tests := []struct {
		name    string
		query   string
		entries []core.KnowledgeEntry
		want    string
	}{
		{"no entries", "pricing", nil, ""},
		{"only stop words", "what is your", []core.KnowledgeEntry{pricingEntry}, ""},
		{"no overlap", "weather forecast", []core.KnowledgeEntry{pricingEntry}, ""},
		{"title hit", "What is your pricing?", []core.KnowledgeEntry{pricingEntry}, pricingEntry.Content},
		{
			"ties keep input order",
			"refund",
			[]core.KnowledgeEntry{{Title: "Refund", Content: "first"}, {Title: "Refund", Content: "second"}},
			"first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Search(tt.query, tt.entries))
		})
	}
}

func TestSearch_PartialAndCoverage(t *testing.T) {
	s := NewSearcher()
	words := s.MeaningfulWords("hosting storage")
	require.Equal(t, []string{"hosting", "storage"}, words)

	// content +2 +2, coverage +4, partial +1 +1
	score := s.Score(words, core.KnowledgeEntry{Content: "Hosting with storage included"})
	assert.Equal(t, 10, score)

	// partial only: "hosting" inside "webhosting"
	score = s.Score([]string{"hosting"}, core.KnowledgeEntry{Content: "Managed webhosting"})
	assert.Equal(t, 1, score)
}

func TestClassify(t *testing.T) {
	e := NewExtractor()

	tests := []struct {
		question string
		level    string
		budget   [2]int
	}{
		{"Explain the features", LevelDetailed, [2]int{3, 200}},
		{"What are the types of plans?", LevelList, [2]int{2, 180}},
		{"How many users are allowed?", LevelSimple, [2]int{1, 120}},
		{"kitna paisa lagega", LevelSimple, [2]int{1, 120}},
		{"Pricing please", LevelDefault, [2]int{2, 160}},
	}

	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			got := e.Classify(tt.question)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.budget[0], got.MaxSentences)
			assert.Equal(t, tt.budget[1], got.MaxChars)
		})
	}
}

func TestExtract_PricingQuestion(t *testing.T) {
	e := NewExtractor()

	got := e.Extract("What is your pricing?", pricingEntry.Content)
	assert.Equal(t, "Our basic plan is $99/month.", got)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), 120)
}

func TestExtract_KeepsDocumentOrder(t *testing.T) {
	e := NewExtractor()
	raw := "Cloud hosting is our core offering today. " +
		"We provide backup services for every plan. " +
		"Support is available around the clock. " +
		"Backup retention lasts thirty days on storage."

	got := e.Extract("Explain backup retention and storage", raw)
	assert.Equal(t,
		"Cloud hosting is our core offering today. We provide backup services for every plan. Backup retention lasts thirty days on storage.",
		got)

	last := -1
	for _, sentence := range SplitSentences(got) {
		idx := strings.Index(raw, sentence)
		require.GreaterOrEqual(t, idx, 0, "sentence %q not in source", sentence)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestExtract_RespectsBudget(t *testing.T) {
	e := NewExtractor()
	long := strings.Repeat("pricing details for premium storage tiers ", 5)
	raw := strings.Join([]string{long + ".", long + "!", long + "?"}, " ")

	for _, q := range []string{"What is pricing?", "List pricing", "Explain pricing", "pricing"} {
		budget := e.Classify(q)
		got := e.Extract(q, raw)
		assert.NotEmpty(t, got)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), budget.MaxChars, q)
		assert.True(t, strings.HasSuffix(got, "..."), q)
	}
}

func TestExtractWithBudget_CountsSeparators(t *testing.T) {
	e := NewExtractor()
	first := "Pricing starts at 99 dollars a month."
	second := "Pricing includes free support."
	raw := first + " " + second

	tests := []struct {
		name     string
		maxChars int
		want     string
	}{
		{"both fit with the joining space", 68, first + " " + second},
		{"one short keeps the first whole", 67, first},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractWithBudget("pricing", raw, Complexity{Level: "test", MaxSentences: 2, MaxChars: tt.maxChars})
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.maxChars)
		})
	}
}

func TestExtract_LogsComplexityField(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })

	NewExtractor().Extract("What is your pricing?", pricingEntry.Content)

	line, _, _ := bytes.Cut(buf.Bytes(), []byte("\n"))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, LevelSimple, entry["complexity"])
	assert.Equal(t, 1, bytes.Count(line, []byte(`"level"`)))
}

func TestExtract_Fallbacks(t *testing.T) {
	e := NewExtractor()

	assert.Empty(t, e.Extract("pricing", ""))
	assert.Empty(t, e.Extract("pricing", "Yes."))

	// no usable keywords
	assert.Equal(t, "Our basic plan is $99/month.", e.Extract("what is it?", pricingEntry.Content))
}

func TestFixedBudget(t *testing.T) {
	assert.Equal(t, Complexity{Level: LevelDefault, MaxSentences: 2, MaxChars: 160}, FixedBudget(2))
	assert.Equal(t, Complexity{Level: LevelDefault, MaxSentences: 3, MaxChars: 200}, FixedBudget(3))
	assert.Equal(t, 1, FixedBudget(0).MaxSentences)
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("Price is $9.99 today. Call us! Really?")
	assert.Equal(t, []string{"Price is $9.99 today.", "Call us!", "Really?"}, got)
}
