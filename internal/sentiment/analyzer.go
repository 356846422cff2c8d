// Package sentiment scores utterance polarity and screens for abusive content.
package sentiment

import (
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

const (
	negationFactor  = -0.5
	intensifyFactor = 1.3
	modifierWindow  = 3
	neutralBand     = 0.1
)

// Analyzer holds the polarity lexicon and the abuse screens. The zero value
// is not usable; construct with NewAnalyzer.
type Analyzer struct {
	polarity     map[string]float64
	negations    map[string]struct{}
	intensifiers map[string]struct{}
	abuse        abuseScreen
}

// NewAnalyzer builds an analyzer with the default English and romanized
// Hindi lexicons.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		polarity:     polarityLexicon,
		negations:    negationWords,
		intensifiers: intensifierWords,
		abuse:        newAbuseScreen(),
	}
}

// Polarity returns the mean lexicon score of the sentiment-bearing words in
// text, in [-1, 1]. A negation within the preceding three words flips and
// dampens a score; an intensifier scales it.
func (a *Analyzer) Polarity(text string) float64 {
	words := core.Tokenize(text)

	var sum float64
	var scored int
	negateUntil, intensifyUntil := -1, -1
	for i, w := range words {
		if _, ok := a.negations[w]; ok {
			negateUntil = i + modifierWindow
			continue
		}
		if _, ok := a.intensifiers[w]; ok {
			intensifyUntil = i + modifierWindow
			continue
		}
		value, ok := a.polarity[w]
		if !ok {
			continue
		}
		if i <= intensifyUntil {
			value *= intensifyFactor
			intensifyUntil = -1
		}
		if i <= negateUntil {
			value *= negationFactor
			negateUntil = -1
		}
		sum += value
		scored++
	}
	if scored == 0 {
		return 0
	}
	return clamp(sum/float64(scored), -1, 1)
}

// Analyze labels the polarity of text. Neutral results carry a fixed 0.5
// score. Analyze never fails.
func (a *Analyzer) Analyze(text string) (result core.SentimentResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("component", "sentiment").Msg("sentiment analysis failed")
			result = core.SentimentResult{Label: core.SentimentNeutral, Score: 0.5}
		}
	}()

	p := a.Polarity(text)
	switch {
	case p > neutralBand:
		return core.SentimentResult{Label: core.SentimentPositive, Score: p}
	case p < -neutralBand:
		return core.SentimentResult{Label: core.SentimentNegative, Score: -p}
	default:
		return core.SentimentResult{Label: core.SentimentNeutral, Score: 0.5}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
