package main

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaphack/voicecall-assistant/internal/config"
	"github.com/kaphack/voicecall-assistant/internal/voice"
)

type fakeSynth struct {
	closed int
}

func (f *fakeSynth) Synthesize(context.Context, string, voice.Voice) (voice.Speech, error) {
	return voice.Speech{}, nil
}

func (f *fakeSynth) Close() error {
	f.closed++
	return nil
}

func stubSynthesizer(t *testing.T, fn func(context.Context) (synthesizer, error)) {
	t.Helper()
	prev := newSynthesizer
	newSynthesizer = fn
	t.Cleanup(func() { newSynthesizer = prev })
}

func TestServe_SynthesizerFailure(t *testing.T) {
	stubSynthesizer(t, func(context.Context) (synthesizer, error) {
		return nil, errors.New("no credentials")
	})

	cfg := config.Default()
	cfg.Kafka.Enabled = true
	cfg.TTS.Enabled = true

	err := serve(context.Background(), cfg)
	assert.EqualError(t, err, "no credentials")
}

func TestServe_ClosesResourcesWhenListenFails(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	synth := &fakeSynth{}
	stubSynthesizer(t, func(context.Context) (synthesizer, error) { return synth, nil })

	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.GRPC.Addr = busy.Addr().String()
	cfg.Kafka.Enabled = true
	cfg.TTS.Enabled = true

	err = serve(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
	assert.Equal(t, 1, synth.closed)
}
