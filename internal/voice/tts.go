package voice

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/hajimehoshi/go-mp3"
	"github.com/rs/zerolog/log"
)

type synthesizeFunc func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)

// GoogleSynthesizer renders replies with Google Cloud Text-to-Speech as
// MP3.
type GoogleSynthesizer struct {
	synthesize synthesizeFunc
	close      func() error
}

// NewGoogleSynthesizer connects with application default credentials.
func NewGoogleSynthesizer(ctx context.Context) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return &GoogleSynthesizer{
		synthesize: func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
			return client.SynthesizeSpeech(ctx, req)
		},
		close: client.Close,
	}, nil
}

func (g *GoogleSynthesizer) Close() error {
	if g.close == nil {
		return nil
	}
	return g.close()
}

// Synthesize renders text with v.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, v Voice) (Speech, error) {
	if g == nil || g.synthesize == nil {
		return Speech{}, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Speech{}, fmt.Errorf("voice: nothing to synthesize")
	}

	resp, err := g.synthesize(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: v.LanguageCode,
			Name:         v.Name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  1.0,
		},
	})
	if err != nil {
		return Speech{}, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	speech := Speech{Audio: resp.GetAudioContent(), Format: "mp3", Voice: v.Name}
	if d, err := MP3Duration(speech.Audio); err != nil {
		log.Debug().Err(err).Str("component", "tts").Msg("could not measure audio duration")
	} else {
		speech.Duration = d
	}
	return speech, nil
}

// MP3Duration decodes audio far enough to know its playing time.
func MP3Duration(audio []byte) (time.Duration, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return 0, fmt.Errorf("failed to decode mp3: %w", err)
	}
	if dec.SampleRate() <= 0 {
		return 0, fmt.Errorf("mp3 reports no sample rate")
	}
	// decoded PCM is 16-bit stereo: 4 bytes per sample frame
	frames := dec.Length() / 4
	return time.Duration(frames) * time.Second / time.Duration(dec.SampleRate()), nil
}
