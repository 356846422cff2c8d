// Package httpapi is the REST surface of the assistant.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/kaphack/voicecall-assistant/internal/api"
	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/language"
	"github.com/kaphack/voicecall-assistant/internal/metrics"
	"github.com/kaphack/voicecall-assistant/internal/service"
	"github.com/kaphack/voicecall-assistant/internal/voice"
)

const maxAudioBytes = 25 << 20

type Assistant interface {
	Respond(ctx context.Context, req core.Request) core.Response
	Transcribe(ctx context.Context, audio []byte, format string) (voice.Transcript, error)
	Synthesize(ctx context.Context, text string, persona core.Persona, lang core.Language, override string) (voice.Speech, error)
	ProcessVoice(ctx context.Context, audio []byte, format string, req core.Request) (service.VoiceResult, error)
}

type TurnStore interface {
	CallTurns(ctx context.Context, callID string) ([]core.Turn, error)
}

type Deps struct {
	Assistant Assistant
	// Turns is optional; without it the transcript endpoint answers 503.
	Turns TurnStore
	// Rules is optional; without it /api/rules is not served.
	Rules *api.Handler
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	deps Deps
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), metricsMiddleware())

	h := &handlers{deps: deps}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/generate", h.generate)
	v1.POST("/voice/transcribe", h.transcribe)
	v1.POST("/voice/synthesize", h.synthesize)
	v1.POST("/voice/process", h.processVoice)
	v1.GET("/calls/:id/turns", h.callTurns)

	if deps.Rules != nil {
		deps.Rules.RegisterRoutes(r)
	}
	return r
}

func (h *handlers) generate(c *gin.Context) {
	var req core.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid json: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.deps.Assistant.Respond(c.Request.Context(), req))
}

func (h *handlers) transcribe(c *gin.Context) {
	audio, format, ok := readAudio(c)
	if !ok {
		return
	}
	tr, err := h.deps.Assistant.Transcribe(c.Request.Context(), audio, format)
	if err != nil {
		writeVoiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

type SynthesizeRequest struct {
	Text        string `json:"text"`
	Personality string `json:"personality"`
	Language    string `json:"language"`
	Voice       string `json:"voice"`
}

type SpeechResponse struct {
	Audio      string `json:"audio"`
	Format     string `json:"format"`
	Voice      string `json:"voice"`
	DurationMS int64  `json:"duration_ms"`
}

func speechJSON(s voice.Speech) SpeechResponse {
	return SpeechResponse{
		Audio:      base64.StdEncoding.EncodeToString(s.Audio),
		Format:     s.Format,
		Voice:      s.Voice,
		DurationMS: s.Duration.Milliseconds(),
	}
}

func (h *handlers) synthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid json: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}
	speech, err := h.deps.Assistant.Synthesize(c.Request.Context(), req.Text,
		core.ParsePersona(req.Personality), parseLanguage(req.Language), req.Voice)
	if err != nil {
		writeVoiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, speechJSON(speech))
}

type VoiceProcessResponse struct {
	Transcript voice.Transcript `json:"transcript"`
	Response   core.Response    `json:"response"`
	Speech     *SpeechResponse  `json:"speech,omitempty"`
}

// processVoice takes multipart "audio" plus an optional "request" field
// holding the JSON turn without its userMessage.
func (h *handlers) processVoice(c *gin.Context) {
	audio, format, ok := readAudio(c)
	if !ok {
		return
	}
	var req core.Request
	if raw := c.PostForm("request"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request field: " + err.Error()})
			return
		}
	}

	res, err := h.deps.Assistant.ProcessVoice(c.Request.Context(), audio, format, req)
	if err != nil {
		writeVoiceError(c, err)
		return
	}
	out := VoiceProcessResponse{Transcript: res.Transcript, Response: res.Response}
	if res.Speech != nil {
		s := speechJSON(*res.Speech)
		out.Speech = &s
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) callTurns(c *gin.Context) {
	if h.deps.Turns == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "turn log is not enabled"})
		return
	}
	turns, err := h.deps.Turns.CallTurns(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Error().Err(err).Str("component", "http").Str("call_id", c.Param("id")).Msg("failed to load turns")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load turns"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_id": c.Param("id"), "turns": turns})
}

func readAudio(c *gin.Context) ([]byte, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAudioBytes)
	fh, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "audio file is required"})
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable audio file"})
		return nil, "", false
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable audio file"})
		return nil, "", false
	}

	format := strings.ToLower(strings.TrimSpace(c.PostForm("format")))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
	}
	return audio, format, true
}

func parseLanguage(s string) core.Language {
	l := core.Language(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range core.Languages {
		if l == known {
			return l
		}
	}
	if pref, ok := language.ExplicitPreference(s); ok {
		return pref
	}
	return core.English
}

func writeVoiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, voice.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "voice service is not configured"})
	case errors.Is(err, core.ErrEmptyMessage):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "no speech recognised"})
	default:
		log.Error().Err(err).Str("component", "http").Str("path", c.FullPath()).Msg("voice request failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "voice service failed"})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("component", "http").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RequestCount.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}
