package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaphack/voicecall-assistant/internal/conversation"
	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/engine"
	"github.com/kaphack/voicecall-assistant/internal/service"
	"github.com/kaphack/voicecall-assistant/internal/voice"
)

type stubSTT struct{ text string }

func (s stubSTT) Transcribe(context.Context, []byte, string) (voice.Transcript, error) {
	return voice.Transcript{Text: s.text, Language: "english"}, nil
}

type stubTTS struct{}

func (stubTTS) Synthesize(_ context.Context, text string, v voice.Voice) (voice.Speech, error) {
	return voice.Speech{Audio: []byte("mp3:" + text), Format: "mp3", Voice: v.Name}, nil
}

type stubTurns struct {
	turns []core.Turn
	err   error
}

func (s stubTurns) CallTurns(context.Context, string) ([]core.Turn, error) {
	return s.turns, s.err
}

func newTestRouter(opts service.Options, turns TurnStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := engine.New(conversation.NewStore(conversation.Options{}), engine.Options{})
	return NewRouter(Deps{Assistant: service.New(e, opts), Turns: turns})
}

func multipartBody(t *testing.T, filename string, audio []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := w.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, _ = fw.Write(audio)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	r := newTestRouter(service.Options{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGenerate(t *testing.T) {
	r := newTestRouter(service.Options{}, nil)
	body := `{
		"userMessage": "What is your pricing?",
		"callId": "call-1",
		"voiceSettings": {"language": "en-IN", "personality": "priyanshu"},
		"knowledgeBase": [{"title": "Pricing", "content": "Our basic plan is $99/month. Enterprise plans are custom."}]
	}`
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["ai_response"], "Our basic plan is $99/month.")
	assert.Equal(t, "english", resp["detected_language"])
	assert.Equal(t, "introduction", resp["conversation_stage"])
	assert.Equal(t, false, resp["should_escalate"])
	assert.Equal(t, "question", resp["intent"])
	assert.Contains(t, resp, "sentiment")
	assert.NotContains(t, resp, "Source")
}

func TestGenerate_BadJSON(t *testing.T) {
	r := newTestRouter(service.Options{}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/generate", strings.NewReader(`{"userMessage":`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoiceProcess(t *testing.T) {
	r := newTestRouter(service.Options{Transcriber: stubSTT{text: "bye bye, thanks"}, Synthesizer: stubTTS{}}, nil)
	body, ct := multipartBody(t, "turn.wav", []byte("RIFF"), map[string]string{
		"request": `{"callId":"call-5","voiceSettings":{"language":"en-IN","personality":"ekta"}}`,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/process", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got VoiceProcessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "bye bye, thanks", got.Transcript.Text)
	assert.True(t, got.Response.GoodbyeDetected)
	assert.Equal(t, core.PersonaEkta, got.Response.Personality)
	require.NotNil(t, got.Speech)
	audio, err := base64.StdEncoding.DecodeString(got.Speech.Audio)
	require.NoError(t, err)
	assert.Equal(t, "mp3:"+got.Response.AIResponse, string(audio))
	assert.Equal(t, "en-IN-Neural2-A", got.Speech.Voice)
}

func TestVoiceEndpoints_Errors(t *testing.T) {
	unconfigured := newTestRouter(service.Options{}, nil)

	t.Run("missing audio", func(t *testing.T) {
		body, ct := multipartBody(t, "", nil, map[string]string{"format": "wav"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		unconfigured.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("stt not configured", func(t *testing.T) {
		body, ct := multipartBody(t, "a.wav", []byte("RIFF"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		unconfigured.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("silence", func(t *testing.T) {
		r := newTestRouter(service.Options{Transcriber: stubSTT{text: ""}}, nil)
		body, ct := multipartBody(t, "a.wav", []byte("RIFF"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("synthesize needs text", func(t *testing.T) {
		w := httptest.NewRecorder()
		unconfigured.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/voice/synthesize", strings.NewReader(`{"text":" "}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSynthesize(t *testing.T) {
	r := newTestRouter(service.Options{Synthesizer: stubTTS{}}, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/voice/synthesize",
		strings.NewReader(`{"text":"Namaste","personality":"tanmay","language":"hi-IN"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	var got SpeechResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "hi-IN-Neural2-B", got.Voice)
	assert.Equal(t, "mp3", got.Format)
}

func TestCallTurns(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(service.Options{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/calls/c1/turns", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("listed", func(t *testing.T) {
		store := stubTurns{turns: []core.Turn{{ID: "t1", CallID: "c1", UserText: "hello"}}}
		w := httptest.NewRecorder()
		newTestRouter(service.Options{}, store).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/calls/c1/turns", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var got struct {
			CallID string      `json:"call_id"`
			Turns  []core.Turn `json:"turns"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "c1", got.CallID)
		require.Len(t, got.Turns, 1)
		assert.Equal(t, "hello", got.Turns[0].UserText)
	})

	t.Run("store failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		newTestRouter(service.Options{}, stubTurns{err: errors.New("db down")}).
			ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/calls/c1/turns", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(service.Options{}, nil)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "voiceassist_http_requests_total")
}
