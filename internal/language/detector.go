// Package language classifies utterances as English, Hindi or Hinglish.
package language

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// Options holds the ratio thresholds used by the lexical pass.
type Options struct {
	// MixedRatio is the share of Hindi (and, for Hinglish, English) indicator
	// words required to call the text Hindi or Hinglish.
	MixedRatio float64
	// EnglishRatio is the share of English indicator words required to call
	// the text English once Hindi has been ruled out.
	EnglishRatio float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{MixedRatio: 0.25, EnglishRatio: 0.3}
}

// Identifier is the statistical fallback. It returns an ISO 639-1 code
// ("en", "hi", ...) and whether the verdict is reliable.
type Identifier func(text string) (code string, reliable bool)

// Detector combines weighted lexical matching with a statistical identifier.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	opts     Options
	identify Identifier
}

// NewDetector creates a detector backed by whatlanggo.
func NewDetector(opts Options) *Detector {
	return NewDetectorWithIdentifier(opts, whatlangIdentify)
}

// NewDetectorWithIdentifier creates a detector with a custom statistical fallback.
func NewDetectorWithIdentifier(opts Options, identify Identifier) *Detector {
	def := DefaultOptions()
	if opts.MixedRatio <= 0 {
		opts.MixedRatio = def.MixedRatio
	}
	if opts.EnglishRatio <= 0 {
		opts.EnglishRatio = def.EnglishRatio
	}
	if identify == nil {
		identify = whatlangIdentify
	}
	return &Detector{opts: opts, identify: identify}
}

func whatlangIdentify(text string) (string, bool) {
	info := whatlanggo.Detect(text)
	return info.Lang.Iso6391(), info.IsReliable()
}

// ExplicitPreference maps a voice-settings language onto a fixed language.
// "auto" and unknown values report false.
func ExplicitPreference(preference string) (core.Language, bool) {
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "hi-in", "hi", "hindi":
		return core.Hindi, true
	case "en-in", "en", "en-us", "english":
		return core.English, true
	}
	return "", false
}

// Detect classifies text. An explicit preference always wins. Detect never
// fails: internal errors resolve to english@0.5.
func (d *Detector) Detect(text, preference string) (result core.LanguageResult) {
	if lang, ok := ExplicitPreference(preference); ok {
		return core.LanguageResult{Label: lang, Confidence: 1.0}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("component", "language").Msg("language detection failed")
			result = core.LanguageResult{Label: core.English, Confidence: 0.5}
		}
	}()

	words := core.Tokenize(text)
	if len(words) == 0 {
		return core.LanguageResult{Label: core.English, Confidence: 0.5}
	}

	var hindiMatches, englishMatches int
	for _, w := range words {
		if _, ok := hindiWords[w]; ok {
			hindiMatches++
		}
		if _, ok := englishWords[w]; ok {
			englishMatches++
		}
	}
	total := float64(len(words))
	hindiRatio := float64(hindiMatches) / total
	englishRatio := float64(englishMatches) / total

	log.Debug().
		Str("component", "language").
		Int("hindi", hindiMatches).
		Int("english", englishMatches).
		Int("total", len(words)).
		Msg("lexical language counts")

	if hindiRatio >= d.opts.MixedRatio {
		if englishRatio >= d.opts.MixedRatio {
			return core.LanguageResult{Label: core.Hinglish, Confidence: 0.85}
		}
		return core.LanguageResult{Label: core.Hindi, Confidence: 0.9}
	}

	code, reliable := d.identify(text)
	if reliable && code == "hi" {
		return core.LanguageResult{Label: core.Hindi, Confidence: 0.8}
	}
	if englishRatio >= d.opts.EnglishRatio {
		return core.LanguageResult{Label: core.English, Confidence: 0.9}
	}
	if !reliable || code == "en" {
		return core.LanguageResult{Label: core.English, Confidence: 0.7}
	}
	return core.LanguageResult{Label: core.Hinglish, Confidence: 0.7}
}
