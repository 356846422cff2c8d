// Package voice holds the speech collaborators around the engine:
// speech-to-text for caller audio and text-to-speech for replies.
package voice

import (
	"errors"
	"strings"
	"time"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// ErrNotConfigured is returned by collaborators missing credentials.
var ErrNotConfigured = errors.New("voice: not configured")

// Transcript is recognised caller speech.
type Transcript struct {
	Text     string        `json:"text"`
	Language string        `json:"language,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Speech is synthesized reply audio.
type Speech struct {
	Audio    []byte        `json:"-"`
	Format   string        `json:"format"`
	Voice    string        `json:"voice"`
	Duration time.Duration `json:"duration"`
}

// Voice selects a TTS voice.
type Voice struct {
	LanguageCode string
	Name         string
}

var personaGender = map[core.Persona]string{
	core.PersonaPriyanshu: "male",
	core.PersonaTanmay:    "male",
	core.PersonaEkta:      "female",
	core.PersonaPriyanka:  "female",
}

// Select picks the voice for a persona and reply language. A full voice
// name such as "en-IN-Neural2-C" in override wins.
func Select(persona core.Persona, lang core.Language, override string) Voice {
	if parts := strings.Split(strings.TrimSpace(override), "-"); len(parts) >= 3 {
		return Voice{LanguageCode: parts[0] + "-" + parts[1], Name: strings.TrimSpace(override)}
	}

	code := "en-IN"
	if lang == core.Hindi {
		code = "hi-IN"
	}
	variant := "B"
	if personaGender[persona] == "female" {
		variant = "A"
	}
	return Voice{LanguageCode: code, Name: code + "-Neural2-" + variant}
}
