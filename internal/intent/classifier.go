// Package intent scores utterances against a fixed table of call intents.
package intent

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

const (
	phraseMultiplier  = 1.5
	negativeDampener  = 0.3
	continuityBonus   = 0.5
	continuityTurns   = 2
	defaultSaturation = 2
)

// Options tunes the classifier without replacing the pattern table.
type Options struct {
	// Thresholds overrides per-intent acceptance thresholds.
	Thresholds map[core.Intent]float64
}

// Classifier scores text against its patterns. It keeps no per-call state;
// callers pass the call's recent winners for the continuity bonus.
type Classifier struct {
	patterns []compiled
}

type compiled struct {
	Pattern
	keywords []string
	phrases  []string
	negative []string
}

// NewClassifier builds a classifier over DefaultPatterns.
func NewClassifier(opts Options) *Classifier {
	return NewClassifierWithPatterns(DefaultPatterns(), opts)
}

// NewClassifierWithPatterns builds a classifier over a custom table.
func NewClassifierWithPatterns(patterns []Pattern, opts Options) *Classifier {
	c := &Classifier{patterns: make([]compiled, 0, len(patterns))}
	for _, p := range patterns {
		if t, ok := opts.Thresholds[p.Intent]; ok {
			p.Threshold = t
		}
		if p.SaturationHits <= 0 {
			p.SaturationHits = defaultSaturation
		}
		c.patterns = append(c.patterns, compiled{
			Pattern:  p,
			keywords: normalizeAll(p.Keywords),
			phrases:  normalizeAll(p.Phrases),
			negative: normalizeAll(p.NegativeContext),
		})
	}
	return c
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := strings.Join(core.Tokenize(s), " "); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Classify returns the highest-confidence intent that clears its own
// threshold, or question@0.5 when nothing does. recent holds the call's
// previous winners, oldest first.
func (c *Classifier) Classify(text string, recent []core.Intent) core.IntentResult {
	padded := " " + strings.Join(core.Tokenize(text), " ") + " "

	if len(recent) > continuityTurns {
		recent = recent[len(recent)-continuityTurns:]
	}

	var best *core.IntentResult
	candidates := make(map[core.Intent]float64)

	for _, p := range c.patterns {
		var score float64
		var keywords, phrases []string

		for _, kw := range p.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				score += p.Weight
				keywords = append(keywords, kw)
			}
		}
		for _, ph := range p.phrases {
			if strings.Contains(padded, " "+ph) {
				score += p.Weight * phraseMultiplier
				phrases = append(phrases, ph)
			}
		}
		if score == 0 {
			continue
		}
		for _, neg := range p.negative {
			if strings.Contains(padded, " "+neg+" ") {
				score *= negativeDampener
				break
			}
		}
		for _, prev := range recent {
			if prev == p.Intent {
				score += continuityBonus
				break
			}
		}

		confidence := score / (p.Weight * p.SaturationHits)
		if confidence > 1 {
			confidence = 1
		}
		candidates[p.Intent] = confidence

		if confidence < p.Threshold {
			continue
		}
		if best == nil || confidence > best.Confidence {
			best = &core.IntentResult{
				Label:           p.Intent,
				Confidence:      confidence,
				Score:           score,
				MatchedKeywords: keywords,
				MatchedPhrases:  phrases,
			}
		}
	}

	if best == nil {
		return core.IntentResult{Label: core.IntentQuestion, Confidence: 0.5, Candidates: candidates}
	}
	best.Candidates = candidates

	log.Debug().
		Str("component", "intent").
		Str("intent", string(best.Label)).
		Float64("confidence", best.Confidence).
		Strs("keywords", best.MatchedKeywords).
		Strs("phrases", best.MatchedPhrases).
		Msg("intent classified")
	return *best
}
