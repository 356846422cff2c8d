// Package service is the application layer shared by every transport: it
// runs the engine, optionally polishes generic replies with an LLM, drives
// the voice pipeline and records completed turns.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/engine"
	"github.com/kaphack/voicecall-assistant/internal/metrics"
	"github.com/kaphack/voicecall-assistant/internal/voice"
)

// Responder produces the reply for one turn.
type Responder interface {
	Generate(ctx context.Context, req core.Request) core.Response
}

// TurnRecorder persists completed turns.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, turn core.Turn) error
}

type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (voice.Transcript, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, v voice.Voice) (voice.Speech, error)
}

type Options struct {
	// Recorders by name; the name labels failure metrics.
	Recorders map[string]TurnRecorder
	LLM       Completer
	// LLMTimeout bounds one enhancement call.
	LLMTimeout  time.Duration
	Transcriber Transcriber
	Synthesizer Synthesizer
	// RecordTimeout bounds one recorder write.
	RecordTimeout time.Duration
}

type Assistant struct {
	engine Responder
	opts   Options
	now    func() time.Time
	wg     sync.WaitGroup
}

func New(e Responder, opts Options) *Assistant {
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 3 * time.Second
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 5 * time.Second
	}
	return &Assistant{engine: e, opts: opts, now: time.Now}
}

// Respond answers one text turn and records it when the call is known.
func (a *Assistant) Respond(ctx context.Context, req core.Request) core.Response {
	resp := a.engine.Generate(ctx, req)

	if resp.Source == core.SourceGeneric && a.opts.LLM != nil {
		a.enhance(ctx, req, &resp)
	}

	a.record(ctx, req, resp)
	return resp
}

func (a *Assistant) enhance(ctx context.Context, req core.Request, resp *core.Response) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.LLMTimeout)
	defer cancel()

	prompt := engine.PersonalityPrompt(resp.Personality, resp.DetectedLanguage, resp.Sentiment, req.CallData.CompanyName)
	text, err := a.opts.LLM.Complete(ctx, prompt, req.UserMessage)
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("llm").Inc()
		log.Warn().Err(err).Str("component", "assistant").Str("call_id", req.CallID).Msg("llm enhancement failed, keeping template reply")
		return
	}
	resp.AIResponse = text
	resp.Source = core.SourceLLM
}

func (a *Assistant) record(ctx context.Context, req core.Request, resp core.Response) {
	if len(a.opts.Recorders) == 0 || strings.TrimSpace(req.CallID) == "" || strings.TrimSpace(req.UserMessage) == "" {
		return
	}
	turn := core.Turn{
		ID:             uuid.New().String(),
		CallID:         strings.TrimSpace(req.CallID),
		UserText:       req.UserMessage,
		AIText:         resp.AIResponse,
		Language:       resp.DetectedLanguage,
		Intent:         resp.Intent,
		Stage:          resp.ConversationStage,
		ShouldEscalate: resp.ShouldEscalate,
		Abusive:        resp.AbusiveDetected,
		Goodbye:        resp.GoodbyeDetected,
		Timestamp:      a.now().UnixMilli(),
	}

	base := context.WithoutCancel(ctx)
	for name, rec := range a.opts.Recorders {
		a.wg.Add(1)
		go func(name string, rec TurnRecorder) {
			defer a.wg.Done()
			ctx, cancel := context.WithTimeout(base, a.opts.RecordTimeout)
			defer cancel()
			if err := rec.RecordTurn(ctx, turn); err != nil {
				metrics.RecorderErrors.WithLabelValues(name).Inc()
				log.Error().Err(err).Str("component", "assistant").Str("recorder", name).Str("call_id", turn.CallID).Msg("failed to record turn")
			}
		}(name, rec)
	}
}

// Transcribe turns caller audio into text. A blank transcript yields
// core.ErrEmptyMessage.
func (a *Assistant) Transcribe(ctx context.Context, audio []byte, format string) (voice.Transcript, error) {
	if a.opts.Transcriber == nil {
		return voice.Transcript{}, voice.ErrNotConfigured
	}
	tr, err := a.opts.Transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("stt").Inc()
		return voice.Transcript{}, fmt.Errorf("transcription failed: %w", err)
	}
	if strings.TrimSpace(tr.Text) == "" {
		return tr, core.ErrEmptyMessage
	}
	return tr, nil
}

// Synthesize renders reply text in the persona's voice.
func (a *Assistant) Synthesize(ctx context.Context, text string, persona core.Persona, lang core.Language, override string) (voice.Speech, error) {
	if a.opts.Synthesizer == nil {
		return voice.Speech{}, voice.ErrNotConfigured
	}
	speech, err := a.opts.Synthesizer.Synthesize(ctx, text, voice.Select(persona, lang, override))
	if err != nil {
		metrics.CollaboratorErrors.WithLabelValues("tts").Inc()
		return voice.Speech{}, fmt.Errorf("synthesis failed: %w", err)
	}
	return speech, nil
}

// VoiceResult is the outcome of a full audio turn.
type VoiceResult struct {
	Transcript voice.Transcript `json:"transcript"`
	Response   core.Response    `json:"response"`
	Speech     *voice.Speech    `json:"speech,omitempty"`
}

// ProcessVoice runs audio through transcription, the engine and speech
// synthesis. Unheard audio still gets the engine's please-repeat reply.
// Synthesis failures degrade to a text-only result.
func (a *Assistant) ProcessVoice(ctx context.Context, audio []byte, format string, req core.Request) (VoiceResult, error) {
	tr, err := a.Transcribe(ctx, audio, format)
	if err != nil && !errors.Is(err, core.ErrEmptyMessage) {
		return VoiceResult{}, err
	}
	req.UserMessage = tr.Text

	result := VoiceResult{Transcript: tr, Response: a.Respond(ctx, req)}

	speech, err := a.Synthesize(ctx, result.Response.AIResponse, result.Response.Personality,
		result.Response.DetectedLanguage, req.VoiceSettings.Voice)
	if err != nil {
		if !errors.Is(err, voice.ErrNotConfigured) {
			log.Warn().Err(err).Str("component", "assistant").Str("call_id", req.CallID).Msg("returning text-only reply")
		}
		return result, nil
	}
	result.Speech = &speech
	return result, nil
}

// Close waits for in-flight turn records.
func (a *Assistant) Close() {
	a.wg.Wait()
}
