package voice

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		persona  core.Persona
		lang     core.Language
		override string
		want     Voice
	}{
		{"male english", core.PersonaPriyanshu, core.English, "", Voice{"en-IN", "en-IN-Neural2-B"}},
		{"female hindi", core.PersonaEkta, core.Hindi, "", Voice{"hi-IN", "hi-IN-Neural2-A"}},
		{"hinglish reads as indian english", core.PersonaPriyanka, core.Hinglish, "", Voice{"en-IN", "en-IN-Neural2-A"}},
		{"explicit voice", core.PersonaTanmay, core.Hindi, "en-US-Wavenet-D", Voice{"en-US", "en-US-Wavenet-D"}},
		{"short override ignored", core.PersonaTanmay, core.English, "tanmay", Voice{"en-IN", "en-IN-Neural2-B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.persona, tt.lang, tt.override))
		})
	}
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		mr := multipart.NewReader(r.Body, params["boundary"])
		fields := map[string]string{}
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(part)
			if part.FormName() == "file" {
				assert.Equal(t, "audio.webm", part.FileName())
			}
			fields[part.FormName()] = string(data)
		}
		assert.Equal(t, "RIFFdata", fields["file"])
		assert.Equal(t, "whisper-1", fields["model"])

		_, _ = w.Write([]byte(`{"text":" What is your pricing? ","language":"english","duration":1.5}`))
	}))
	defer srv.Close()

	tr := NewOpenAITranscriber(TranscriberConfig{APIKey: "key", BaseURL: srv.URL})
	got, err := tr.Transcribe(context.Background(), []byte("RIFFdata"), "webm")

	require.NoError(t, err)
	assert.Equal(t, "What is your pricing?", got.Text)
	assert.Equal(t, "english", got.Language)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
}

func TestTranscribe_Errors(t *testing.T) {
	_, err := NewOpenAITranscriber(TranscriberConfig{}).Transcribe(context.Background(), []byte("x"), "wav")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewOpenAITranscriber(TranscriberConfig{APIKey: "k"}).Transcribe(context.Background(), nil, "wav")
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported format", http.StatusBadRequest)
	}))
	defer srv.Close()
	_, err = NewOpenAITranscriber(TranscriberConfig{APIKey: "k", BaseURL: srv.URL}).Transcribe(context.Background(), []byte("x"), "ogg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSynthesize(t *testing.T) {
	var got *texttospeechpb.SynthesizeSpeechRequest
	g := &GoogleSynthesizer{synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		got = req
		return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: []byte("not really mp3")}, nil
	}}

	speech, err := g.Synthesize(context.Background(), " Namaste! ", Voice{LanguageCode: "hi-IN", Name: "hi-IN-Neural2-A"})
	require.NoError(t, err)
	assert.Equal(t, []byte("not really mp3"), speech.Audio)
	assert.Equal(t, "mp3", speech.Format)
	assert.Equal(t, "hi-IN-Neural2-A", speech.Voice)
	assert.Zero(t, speech.Duration)

	require.NotNil(t, got)
	assert.Equal(t, "Namaste!", got.GetInput().GetText())
	assert.Equal(t, "hi-IN", got.GetVoice().GetLanguageCode())
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, got.GetAudioConfig().GetAudioEncoding())
}

func TestSynthesize_Errors(t *testing.T) {
	var nilSynth *GoogleSynthesizer
	_, err := nilSynth.Synthesize(context.Background(), "hi", Voice{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	failing := &GoogleSynthesizer{synthesize: func(context.Context, *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
		return nil, errors.New("quota exceeded")
	}}
	_, err = failing.Synthesize(context.Background(), "hi", Voice{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "quota exceeded"))

	_, err = failing.Synthesize(context.Background(), "   ", Voice{})
	assert.Error(t, err)
}

func TestMP3Duration_RejectsGarbage(t *testing.T) {
	_, err := MP3Duration([]byte("definitely not audio"))
	assert.Error(t, err)
}
