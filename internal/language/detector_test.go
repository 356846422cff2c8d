package language

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

func fixedIdentifier(code string, reliable bool) Identifier {
	return func(string) (string, bool) { return code, reliable }
}

func TestDetect_ExplicitPreferenceWins(t *testing.T) {
	d := NewDetector(DefaultOptions())

	got := d.Detect("Hello there", "hi-IN")
	assert.Equal(t, core.LanguageResult{Label: core.Hindi, Confidence: 1.0}, got)

	got = d.Detect("aap kaise hain, kya haal hai", "en-IN")
	assert.Equal(t, core.LanguageResult{Label: core.English, Confidence: 1.0}, got)
}

func TestDetect_Lexical(t *testing.T) {
	d := NewDetectorWithIdentifier(DefaultOptions(), fixedIdentifier("en", true))

	tests := []struct {
		name       string
		text       string
		want       core.Language
		confidence float64
	}{
		{"english", "What is your pricing?", core.English, 0.9},
		{"hindi", "aap kya kaam karte hain", core.Hindi, 0.9},
		{"hinglish", "mujhe pricing ke baare mein tell me please", core.Hinglish, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.text, "auto")
			assert.Equal(t, tt.want, got.Label)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
		})
	}
}

func TestDetect_StatisticalFallback(t *testing.T) {
	hindi := NewDetectorWithIdentifier(DefaultOptions(), fixedIdentifier("hi", true))
	got := hindi.Detect("नमस्ते आपका स्वागत है", "auto")
	assert.Equal(t, core.Hindi, got.Label)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)

	other := NewDetectorWithIdentifier(DefaultOptions(), fixedIdentifier("de", true))
	got = other.Detect("Guten Morgen zusammen", "")
	assert.Equal(t, core.Hinglish, got.Label)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)

	unreliable := NewDetectorWithIdentifier(DefaultOptions(), fixedIdentifier("de", false))
	got = unreliable.Detect("zzz qqq", "")
	assert.Equal(t, core.English, got.Label)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
}

func TestDetect_FailSoft(t *testing.T) {
	panicky := NewDetectorWithIdentifier(DefaultOptions(), func(string) (string, bool) {
		panic("degenerate input")
	})

	got := panicky.Detect("zzz qqq", "auto")
	assert.Equal(t, core.LanguageResult{Label: core.English, Confidence: 0.5}, got)

	got = panicky.Detect("   ", "auto")
	assert.Equal(t, core.LanguageResult{Label: core.English, Confidence: 0.5}, got)
}

func TestExplicitPreference(t *testing.T) {
	lang, ok := ExplicitPreference("auto")
	assert.False(t, ok)
	assert.Empty(t, lang)

	lang, ok = ExplicitPreference("HI-IN")
	assert.True(t, ok)
	assert.Equal(t, core.Hindi, lang)
}
