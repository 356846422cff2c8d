// Package engine composes the per-turn reply: it runs the classifiers,
// drives the call's stage machine and renders the answer in the caller's
// language and persona.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/conversation"
	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/intent"
	"github.com/kaphack/voicecall-assistant/internal/knowledge"
	"github.com/kaphack/voicecall-assistant/internal/language"
	"github.com/kaphack/voicecall-assistant/internal/metrics"
	"github.com/kaphack/voicecall-assistant/internal/sentiment"
)

type LanguageDetector interface {
	Detect(text, preference string) core.LanguageResult
}

type SentimentAnalyzer interface {
	Analyze(text string) core.SentimentResult
	DetectAbuse(text string) core.AbuseResult
}

type IntentClassifier interface {
	Classify(text string, recent []core.Intent) core.IntentResult
}

type KnowledgeSearcher interface {
	Search(query string, entries []core.KnowledgeEntry) string
}

type AnswerExtractor interface {
	Extract(question, raw string) string
	ExtractWithBudget(question, raw string, budget knowledge.Complexity) string
}

// Options configures the default components. Any non-nil component
// override replaces its default.
type Options struct {
	Language     language.Options
	Intent       intent.Options
	MemoryWindow int

	Detector  LanguageDetector
	Sentiment SentimentAnalyzer
	Intents   IntentClassifier
	Searcher  KnowledgeSearcher
	Extractor AnswerExtractor
}

const (
	minKnowledgeLen  = 20
	stageExcerptMax  = 400
	pitchExcerptMax  = 500
	reasonAbuse      = "abuse"
	reasonRequest    = "request"
	reasonRule       = "rule"
	reasonScript     = "script"
	reasonError      = "error"
	componentLogName = "engine"
)

// Engine is safe for concurrent use. Turns of the same call are
// serialised on the call's session.
type Engine struct {
	detector  LanguageDetector
	sentiment SentimentAnalyzer
	intents   IntentClassifier
	searcher  KnowledgeSearcher
	extractor AnswerExtractor

	store  *conversation.Store
	state  *conversation.StateManager
	memory *conversation.Memory

	rulesMu sync.RWMutex
	rules   []core.ParsedRule
}

func New(store *conversation.Store, opts Options) *Engine {
	e := &Engine{
		detector:  opts.Detector,
		sentiment: opts.Sentiment,
		intents:   opts.Intents,
		searcher:  opts.Searcher,
		extractor: opts.Extractor,
		store:     store,
		state:     conversation.NewStateManager(store),
		memory:    conversation.NewMemory(store, opts.MemoryWindow),
	}
	if e.detector == nil {
		e.detector = language.NewDetector(opts.Language)
	}
	if e.sentiment == nil {
		e.sentiment = sentiment.NewAnalyzer()
	}
	if e.intents == nil {
		e.intents = intent.NewClassifier(opts.Intent)
	}
	if e.searcher == nil {
		e.searcher = knowledge.NewSearcher()
	}
	if e.extractor == nil {
		e.extractor = knowledge.NewExtractor()
	}
	return e
}

// SetRules replaces the escalation rules evaluated on every turn.
func (e *Engine) SetRules(rules []core.ParsedRule) {
	e.rulesMu.Lock()
	defer e.rulesMu.Unlock()
	e.rules = rules
}

// Rules returns the active escalation rules.
func (e *Engine) Rules() []core.ParsedRule {
	e.rulesMu.RLock()
	defer e.rulesMu.RUnlock()
	return e.rules
}

// History returns the remembered exchanges of a call.
func (e *Engine) History(callID string) []core.Exchange {
	if _, ok := e.store.Lookup(callID); !ok {
		return nil
	}
	return e.memory.Context(callID)
}

type turn struct {
	callID  string
	session *conversation.Session
	persona core.Persona
	lang    core.Language
	text    string
	tokens  []string
	req     core.Request
	reason  string
}

// Generate answers one user turn. It never fails: empty input, cancelled
// contexts and internal panics all resolve to a well-formed fallback reply.
func (e *Engine) Generate(ctx context.Context, req core.Request) (resp core.Response) {
	start := time.Now()
	t := &turn{
		callID:  strings.TrimSpace(req.CallID),
		persona: core.ParsePersona(req.VoiceSettings.Personality),
		lang:    core.English,
		text:    strings.TrimSpace(req.UserMessage),
		req:     req,
	}
	if lang, ok := language.ExplicitPreference(req.VoiceSettings.Language); ok {
		t.lang = lang
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("component", componentLogName).
				Str("call_id", t.callID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("turn failed")
			resp = e.failure(t)
		}
		e.observe(t, resp, start)
	}()

	if t.text == "" {
		return e.empty(t)
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("component", componentLogName).Str("call_id", t.callID).Msg("turn cancelled")
		return e.failure(t)
	}

	if t.callID != "" {
		t.session = e.store.Session(t.callID)
		t.session.LockTurn()
		defer t.session.UnlockTurn()
	}
	return e.run(t)
}

func (e *Engine) run(t *turn) core.Response {
	t.tokens = core.Tokenize(t.text)

	detected := e.detector.Detect(t.text, t.req.VoiceSettings.Language)
	t.lang = detected.Label
	mood := e.sentiment.Analyze(t.text)

	resp := core.Response{
		DetectedLanguage:   detected.Label,
		LanguageConfidence: detected.Confidence,
		Sentiment:          mood,
		Personality:        t.persona,
	}

	stage := core.StageGreeting
	if t.session != nil {
		stage = e.state.CurrentStage(t.callID)
	}

	if abuse := e.sentiment.DetectAbuse(t.text); abuse.IsAbusive {
		t.reason = reasonAbuse
		resp.AIResponse = abusive.in(t.lang)
		resp.ConversationStage = core.StageAbusiveWarning
		resp.ShouldEscalate = true
		resp.AbusiveDetected = true
		resp.Source = core.SourceAbuse
		return resp
	}

	var history []core.Exchange
	var recent []core.Intent
	if t.session != nil {
		history = e.memory.Context(t.callID)
		recent = t.session.RecentIntents()
	}
	resp.ContextUsed = len(history) > 0

	classified := e.intents.Classify(t.text, recent)
	resp.Intent = classified.Label
	resp.IntentConfidence = classified.Confidence

	if classified.Label == core.IntentGoodbye {
		if t.session != nil {
			e.state.Advance(t.callID, core.StageEscalation)
		}
		resp.AIResponse = Goodbye(t.persona, t.lang)
		resp.ConversationStage = core.StageClosed
		resp.GoodbyeDetected = true
		resp.Source = core.SourceGoodbye
		return resp
	}

	kb := e.searcher.Search(t.text, t.req.KnowledgeBase)

	escalate := wantsHuman(t.tokens)
	if escalate {
		t.reason = reasonRequest
	}
	texts := make([]string, 0, len(history)+1)
	for _, ex := range history {
		texts = append(texts, ex.UserText)
	}
	texts = append(texts, t.text)
	resp.TriggeredActions = core.Evaluate(core.CountWords(texts...), e.Rules())
	for _, action := range resp.TriggeredActions {
		if core.IsEscalationAction(action) && !escalate {
			escalate = true
			t.reason = reasonRule
		}
	}
	if escalate {
		stage = core.StageEscalation
		if t.session != nil {
			e.state.Advance(t.callID, core.StageEscalation)
		}
	}

	if isQuestion(classified.Label, t.tokens) && kb != "" {
		resp.AIResponse, resp.Source = e.knowledgeAnswer(t, kb)
	} else {
		resp.AIResponse, resp.Source = e.stageAnswer(t, stage, classified.Label, mood, kb)
	}

	if t.session != nil {
		before := stage
		if !escalate {
			stage = e.state.Advance(t.callID, "")
			if stage == core.StageEscalation && before != core.StageEscalation {
				t.reason = reasonScript
			}
		}
		e.memory.Append(t.callID, core.Exchange{
			UserText: t.text,
			AIText:   resp.AIResponse,
			Language: t.lang,
			Intent:   classified.Label,
		})
		t.session.RecordIntent(classified.Label)
	}

	resp.ConversationStage = string(stage)
	resp.ShouldEscalate = stage == core.StageEscalation
	return resp
}

func (e *Engine) knowledgeAnswer(t *turn, kb string) (string, core.AnswerSource) {
	if utf8.RuneCountInString(strings.TrimSpace(kb)) < minKnowledgeLen {
		return noKnowledge.in(t.lang), core.SourceTemplate
	}
	answer := e.extractor.Extract(t.text, kb)
	if answer == "" {
		return noKnowledge.in(t.lang), core.SourceTemplate
	}
	return AnswerIntro(t.persona, t.lang) + answer + followUps.in(t.lang), core.SourceKnowledge
}

func (e *Engine) excerpt(t *turn, kb string, sentences, max int) string {
	if kb == "" {
		return ""
	}
	return clip(e.extractor.ExtractWithBudget(t.text, kb, knowledge.FixedBudget(sentences)), max)
}

func (e *Engine) stageAnswer(t *turn, stage core.Stage, it core.Intent, mood core.SentimentResult, kb string) (string, core.AnswerSource) {
	company := strings.TrimSpace(t.req.CallData.CompanyName)
	if company == "" {
		company = defaultCompany.in(t.lang)
	}

	switch stage {
	case core.StageGreeting:
		return Greeting(t.persona, t.lang, company), core.SourceTemplate

	case core.StageIntroduction:
		if info := e.excerpt(t, kb, 2, stageExcerptMax); info != "" {
			return fmt.Sprintf(introWithKnowledge.in(t.lang), info), core.SourceKnowledge
		}
		return fmt.Sprintf(introCompany.in(t.lang), company), core.SourceTemplate

	case core.StageNeedsAssessment:
		switch it {
		case core.IntentPricing:
			return needsPricing.in(t.lang), core.SourceTemplate
		case core.IntentServices:
			if info := e.excerpt(t, kb, 2, stageExcerptMax); info != "" {
				return fmt.Sprintf(needsServicesKnowledge.in(t.lang), info), core.SourceKnowledge
			}
			return needsServices.in(t.lang), core.SourceTemplate
		}

	case core.StageSolutionPitch:
		if info := e.excerpt(t, kb, 3, pitchExcerptMax); info != "" {
			return fmt.Sprintf(pitchKnowledge.in(t.lang), info), core.SourceKnowledge
		}
		return pitch.in(t.lang), core.SourceTemplate

	case core.StageObjectionHandling:
		if mood.Label == core.SentimentNegative {
			return objectionConcern.in(t.lang), core.SourceTemplate
		}
		return objectionOpen.in(t.lang), core.SourceTemplate

	case core.StageClosing:
		if hasAny(t.tokens, affirmatives) {
			return closingAccepted.in(t.lang), core.SourceTemplate
		}
		return closingDeclined.in(t.lang), core.SourceTemplate

	case core.StageEscalation:
		return escalating.in(t.lang), core.SourceTemplate
	}
	return generic.in(t.lang), core.SourceGeneric
}

func (e *Engine) empty(t *turn) core.Response {
	stage := core.StageGreeting
	if t.callID != "" {
		if s, ok := e.state.Stage(t.callID); ok {
			stage = s
		}
	}
	confidence := 0.5
	if _, ok := language.ExplicitPreference(t.req.VoiceSettings.Language); ok {
		confidence = 1.0
	}
	return core.Response{
		AIResponse:         pleaseRepeat.in(t.lang),
		DetectedLanguage:   t.lang,
		LanguageConfidence: confidence,
		Sentiment:          core.SentimentResult{Label: core.SentimentNeutral, Score: 0.5},
		Personality:        t.persona,
		ConversationStage:  string(stage),
		ShouldEscalate:     stage == core.StageEscalation,
		Source:             core.SourceFallback,
	}
}

func (e *Engine) failure(t *turn) core.Response {
	t.reason = reasonError
	metrics.EngineFailures.Inc()
	return core.Response{
		AIResponse:         failureReply.in(t.lang),
		DetectedLanguage:   t.lang,
		LanguageConfidence: 0.5,
		Sentiment:          core.SentimentResult{Label: core.SentimentNeutral, Score: 0.5},
		Personality:        t.persona,
		ConversationStage:  core.StageError,
		ShouldEscalate:     true,
		Source:             core.SourceFallback,
	}
}

func (e *Engine) observe(t *turn, resp core.Response, start time.Time) {
	metrics.GenerateLatency.Observe(time.Since(start).Seconds())
	metrics.TurnsTotal.WithLabelValues(string(resp.DetectedLanguage), string(resp.Intent), resp.ConversationStage).Inc()
	if resp.AbusiveDetected {
		metrics.AbusiveTurns.Inc()
	}
	if resp.GoodbyeDetected {
		metrics.Goodbyes.Inc()
	}
	if t.reason != "" {
		metrics.Escalations.WithLabelValues(t.reason).Inc()
	}

	log.Info().
		Str("component", componentLogName).
		Str("call_id", t.callID).
		Str("language", string(resp.DetectedLanguage)).
		Str("intent", string(resp.Intent)).
		Float64("intent_confidence", resp.IntentConfidence).
		Str("stage", resp.ConversationStage).
		Str("source", string(resp.Source)).
		Bool("escalate", resp.ShouldEscalate).
		Strs("actions", resp.TriggeredActions).
		Dur("took", time.Since(start)).
		Msg("turn completed")
}

var (
	questionWords = []string{
		"what", "how", "when", "where", "why", "who", "which",
		"kya", "kaise", "kab", "kahan", "kyun", "kaun", "kaunsa",
		"tell", "explain", "batao", "samjhao", "about", "baare",
	}
	humanRequests = []string{
		"human", "agent", "representative", "person", "insaan", "vyakti",
		"team member", "specialist",
	}
	affirmatives = []string{"yes", "haan", "sure", "okay", "ok", "haanji"}
)

func isQuestion(in core.Intent, tokens []string) bool {
	return in == core.IntentQuestion || hasAny(tokens, questionWords)
}

func wantsHuman(tokens []string) bool {
	return hasAny(tokens, humanRequests)
}

// hasAny reports whether any term, a word or space-separated word
// sequence, occurs in tokens on word boundaries.
func hasAny(tokens []string, terms []string) bool {
	padded := " " + strings.Join(tokens, " ") + " "
	for _, term := range terms {
		if strings.Contains(padded, " "+term+" ") {
			return true
		}
	}
	return false
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
