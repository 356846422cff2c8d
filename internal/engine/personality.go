package engine

import (
	"fmt"
	"strings"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type traits struct {
	Traits []string
	Style  string
}

var personalities = map[core.Persona]traits{
	core.PersonaPriyanshu: {Traits: []string{"professional", "helpful", "confident"}, Style: "formal_friendly"},
	core.PersonaTanmay:    {Traits: []string{"energetic", "enthusiastic", "casual"}, Style: "informal_excited"},
	core.PersonaEkta:      {Traits: []string{"formal", "respectful", "structured"}, Style: "very_formal"},
	core.PersonaPriyanka:  {Traits: []string{"technical", "precise", "analytical"}, Style: "technical_professional"},
}

// PersonalityPrompt builds the system prompt handed to an LLM when a
// generic answer is rewritten in the persona's voice.
func PersonalityPrompt(persona core.Persona, lang core.Language, sentiment core.SentimentResult, company string) string {
	p, ok := personalities[persona]
	if !ok {
		persona = core.DefaultPersona
		p = personalities[persona]
	}
	if company == "" {
		company = defaultCompany.in(core.English)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a voice AI assistant for %s with these traits: %s.\n",
		displayNames[persona], company, strings.Join(p.Traits, ", "))
	fmt.Fprintf(&b, "Style: %s\n", p.Style)
	fmt.Fprintf(&b, "Language: %s\n", lang)
	fmt.Fprintf(&b, "User sentiment: %s (confidence: %.2f)\n\n", sentiment.Label, sentiment.Score)
	fmt.Fprintf(&b, "Respond naturally in %s with your personality. Keep responses under 50 words for voice calls.\n", lang)
	b.WriteString("Be culturally appropriate and match the user's emotional tone.")
	return b.String()
}
