package intent

import "github.com/kaphack/voicecall-assistant/internal/core"

// Pattern is the scoring definition of one intent.
type Pattern struct {
	Intent core.Intent
	// Keywords match whole words or word sequences.
	Keywords []string
	// Phrases match at a word start, so "no thank" covers "no thanks".
	Phrases []string
	// NegativeContext dampens the score when any entry is present.
	NegativeContext []string
	Weight          float64
	Threshold       float64
	// SaturationHits is the number of keyword-equivalent hits that yields
	// full confidence.
	SaturationHits float64
}

// DefaultPatterns returns the built-in intent table in tie-break order.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			Intent: core.IntentGoodbye,
			Keywords: []string{
				"bye", "goodbye", "good bye", "later", "talk later", "enough",
				"sufficient", "no thanks", "not interested", "dont want",
				"stop", "band", "ruko", "chaliye", "rakhdo", "nahi chahiye",
			},
			Phrases: []string{
				"no thank", "not interest", "talk later", "call later",
				"nahi chahiye", "band karo", "enough information", "thik hai bye",
				"all set", "i am good", "thanks but", "not now", "maybe later", "thats all",
			},
			NegativeContext: []string{"yes", "tell me", "haan", "more", "continue", "go on"},
			Weight:          2.0,
			Threshold:       0.45,
			SaturationHits:  2,
		},
		{
			Intent: core.IntentServices,
			Keywords: []string{
				"service", "services", "offer", "provide", "kya", "seva",
				"product", "products", "solution", "solutions", "help", "support", "feature", "features",
				"capability", "what do you", "kya karte", "batao", "details",
			},
			Phrases: []string{
				"what do you", "kya aap", "tell me about", "batao", "explain",
				"samjhao", "what services", "kya services",
			},
			Weight:         1.0,
			Threshold:      0.5,
			SaturationHits: 2,
		},
		{
			Intent: core.IntentPricing,
			Keywords: []string{
				"price", "prices", "cost", "costs", "rate", "fee", "fees", "paisa", "kitna", "amount",
				"charge", "charges", "expensive", "cheap", "budget", "plan", "plans", "pricing",
				"rupees", "rupaye", "dollar", "package",
			},
			Phrases: []string{
				"how much", "kitna paisa", "cost me", "price for", "rate card",
				"kitna lagega", "kya rate", "pricing details",
			},
			Weight:         1.5,
			Threshold:      0.5,
			SaturationHits: 2,
		},
		{
			Intent: core.IntentInterested,
			Keywords: []string{
				"interested", "yes", "accha", "haan", "good", "great", "amazing",
				"perfect", "excellent", "wonderful", "sounds good", "like it",
				"impressed", "nice", "badiya", "achha",
			},
			Phrases: []string{
				"sounds good", "accha lagta", "i like", "pasand hai", "interested in",
				"want to know", "tell me more",
			},
			Weight:         0.8,
			Threshold:      0.4,
			SaturationHits: 2,
		},
		{
			Intent: core.IntentContact,
			Keywords: []string{
				"contact", "phone", "email", "address", "sampark", "call", "reach",
				"connect", "meeting", "appointment", "visit", "meet",
			},
			Phrases: []string{
				"get in touch", "sampark karna", "call me", "contact details",
				"how to reach", "meeting schedule",
			},
			Weight:         1.2,
			Threshold:      0.5,
			SaturationHits: 2,
		},
		{
			Intent: core.IntentComplaint,
			Keywords: []string{
				"problem", "issue", "complaint", "wrong", "error", "galat",
				"pareshani", "dikkat", "not working", "broken", "failed",
				"bug", "glitch",
			},
			Phrases: []string{
				"not working", "kaam nahi", "having trouble", "problem hai",
				"doesnt work", "facing issue",
			},
			Weight:         1.4,
			Threshold:      0.6,
			SaturationHits: 2,
		},
		{
			Intent: core.IntentDemo,
			Keywords: []string{
				"demo", "show", "example", "trial", "test", "dikhao", "sample",
				"preview", "walkthrough", "presentation",
			},
			Phrases: []string{
				"show me", "dikhao mujhe", "can i see", "demo chahiye",
				"want to see", "live demo",
			},
			Weight:         1.1,
			Threshold:      0.5,
			SaturationHits: 2,
		},
		{
			Intent: core.IntentQuestion,
			Keywords: []string{
				"what", "how", "when", "where", "why", "who", "which",
				"kya", "kaise", "kab", "kahan", "kyun", "kaun", "kaunsa",
				"explain", "tell", "batao", "samjhao",
			},
			Phrases: []string{
				"tell me", "can you explain", "i want to know", "batao mujhe",
				"what is", "how does", "kaise hota",
			},
			Weight:         0.9,
			Threshold:      0.3,
			SaturationHits: 3,
		},
	}
}
