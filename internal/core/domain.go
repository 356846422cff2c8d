package core

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrEmptyMessage is returned by transports when a turn carries no user text.
var ErrEmptyMessage = errors.New("empty user message")

// Language is the detected or requested reply language.
type Language string

const (
	English  Language = "english"
	Hindi    Language = "hindi"
	Hinglish Language = "hinglish"
)

// Languages lists every supported reply language.
var Languages = []Language{English, Hindi, Hinglish}

// Stage is a phase of the call script.
type Stage string

const (
	StageGreeting          Stage = "greeting"
	StageIntroduction      Stage = "introduction"
	StageNeedsAssessment   Stage = "needs_assessment"
	StageSolutionPitch     Stage = "solution_pitch"
	StageObjectionHandling Stage = "objection_handling"
	StageClosing           Stage = "closing"
	StageEscalation        Stage = "escalation"
)

// Pseudo-stages reported to callers for short-circuited turns. They never
// enter the state machine.
const (
	StageAbusiveWarning = "abusive_warning"
	StageClosed         = "closed"
	StageError          = "error"
)

// Intent is the classified purpose of a single utterance.
type Intent string

const (
	IntentGoodbye    Intent = "goodbye"
	IntentServices   Intent = "services"
	IntentPricing    Intent = "pricing"
	IntentInterested Intent = "interested"
	IntentContact    Intent = "contact"
	IntentComplaint  Intent = "complaint"
	IntentDemo       Intent = "demo"
	IntentQuestion   Intent = "question"
)

// Persona is one of the four fixed response personalities.
type Persona string

const (
	PersonaPriyanshu Persona = "priyanshu"
	PersonaTanmay    Persona = "tanmay"
	PersonaEkta      Persona = "ekta"
	PersonaPriyanka  Persona = "priyanka"
)

// DefaultPersona is used when voice settings name no known persona.
const DefaultPersona = PersonaPriyanshu

// ParsePersona maps a free-form name onto a known persona.
func ParsePersona(name string) Persona {
	switch p := Persona(strings.ToLower(strings.TrimSpace(name))); p {
	case PersonaPriyanshu, PersonaTanmay, PersonaEkta, PersonaPriyanka:
		return p
	default:
		return DefaultPersona
	}
}

// KnowledgeEntry is a caller-supplied snippet the engine may quote from.
type KnowledgeEntry struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	ChunkID string `json:"chunk_id,omitempty"`
}

// CallData carries metadata about the call owner.
type CallData struct {
	CompanyName    string `json:"companyName,omitempty"`
	CallerNumber   string `json:"callerNumber,omitempty"`
	ReceiverNumber string `json:"receiverNumber,omitempty"`
}

// VoiceSettings selects persona, language preference and TTS voice.
type VoiceSettings struct {
	Personality string `json:"personality,omitempty"`
	Language    string `json:"language,omitempty"` // "auto", "hi-IN", "en-IN"
	Voice       string `json:"voice,omitempty"`
}

// Request is one user turn.
type Request struct {
	UserMessage   string           `json:"userMessage"`
	CallData      CallData         `json:"callData"`
	VoiceSettings VoiceSettings    `json:"voiceSettings"`
	CallID        string           `json:"callId,omitempty"`
	KnowledgeBase []KnowledgeEntry `json:"knowledgeBase,omitempty"`
}

// LanguageResult is the output of language detection.
type LanguageResult struct {
	Label      Language `json:"label"`
	Confidence float64  `json:"confidence"`
}

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// SentimentResult is the polarity classification of an utterance.
type SentimentResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// AbuseResult reports which abuse signals fired.
type AbuseResult struct {
	IsAbusive    bool `json:"is_abusive"`
	EnglishAbuse bool `json:"english_abuse"`
	HindiAbuse   bool `json:"hindi_abuse"`
	PatternAbuse bool `json:"pattern_abuse"`
}

// IntentResult is the winning intent plus the evidence behind it.
type IntentResult struct {
	Label           Intent             `json:"intent"`
	Confidence      float64            `json:"confidence"`
	Score           float64            `json:"score"`
	MatchedKeywords []string           `json:"matched_keywords,omitempty"`
	MatchedPhrases  []string           `json:"matched_phrases,omitempty"`
	Candidates      map[Intent]float64 `json:"candidates,omitempty"`
}

// Exchange is one remembered user/assistant pair.
type Exchange struct {
	UserText string   `json:"user"`
	AIText   string   `json:"ai"`
	Language Language `json:"language"`
	Intent   Intent   `json:"intent,omitempty"`
}

// AnswerSource records which branch produced the reply text.
type AnswerSource string

const (
	SourceKnowledge AnswerSource = "knowledge"
	SourceTemplate  AnswerSource = "template"
	SourceGeneric   AnswerSource = "generic"
	SourceAbuse     AnswerSource = "abuse"
	SourceGoodbye   AnswerSource = "goodbye"
	SourceFallback  AnswerSource = "fallback"
	SourceLLM       AnswerSource = "llm"
)

// Response is the structured result of one turn. The JSON shape is the
// stable contract serialized by the transports.
type Response struct {
	AIResponse         string          `json:"ai_response"`
	DetectedLanguage   Language        `json:"detected_language"`
	LanguageConfidence float64         `json:"language_confidence"`
	Sentiment          SentimentResult `json:"sentiment"`
	Personality        Persona         `json:"personality"`
	ContextUsed        bool            `json:"context_used"`
	ConversationStage  string          `json:"conversation_stage"`
	ShouldEscalate     bool            `json:"should_escalate"`
	AbusiveDetected    bool            `json:"abusive_detected"`
	Intent             Intent          `json:"intent"`
	IntentConfidence   float64         `json:"intent_confidence"`
	GoodbyeDetected    bool            `json:"goodbye_detected"`
	TriggeredActions   []string        `json:"triggered_actions,omitempty"`

	Source AnswerSource `json:"-"`
}

// Turn is the persisted record of a completed turn.
type Turn struct {
	ID             string   `json:"id"`
	CallID         string   `json:"call_id"`
	UserText       string   `json:"user_text"`
	AIText         string   `json:"ai_text"`
	Language       Language `json:"language"`
	Intent         Intent   `json:"intent"`
	Stage          string   `json:"stage"`
	ShouldEscalate bool     `json:"should_escalate"`
	Abusive        bool     `json:"abusive"`
	Goodbye        bool     `json:"goodbye"`
	Timestamp      int64    `json:"timestamp"` // unix millis
}

// Condition represents a single check, e.g., "word 'help' count >= 3"
type Condition struct {
	Word     string `json:"word"`
	Operator string `json:"operator"` // ">", ">=", "==", etc.
	Count    int    `json:"count"`
}

// Rule represents an escalation rule
type Rule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Conditions json.RawMessage `json:"conditions"` // Stored as JSON in DB, unmarshaled to []Condition
	Action     string          `json:"action"`     // e.g., "escalate", "human_handoff", "log"
}

// ParsedRule is a helper struct with unmarshaled conditions
type ParsedRule struct {
	Rule
	ParsedConditions []Condition
}

// Escalation actions understood by the engine. Other actions are reported
// but have no effect on the call.
const (
	ActionEscalate     = "escalate"
	ActionHumanHandoff = "human_handoff"
)
