package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10000, cfg.Sessions.Max)
	assert.Equal(t, 30*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, 5, cfg.Sessions.MemoryWindow)
	assert.InDelta(t, 0.25, cfg.Engine.Language.MixedRatio, 1e-9)
	assert.False(t, cfg.Kafka.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voiceassist.yaml")
	body := `
http:
  addr: ":9090"
kafka:
  enabled: true
  brokers: ["k1:9092", "k2:9092"]
sessions:
  idle_ttl: 10m
engine:
  intent:
    thresholds:
      goodbye: 0.6
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("VOICEASSIST_HTTP_ADDR", ":7070")
	t.Setenv("VOICEASSIST_WORKERS_COUNT", "16")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, 16, cfg.Workers.Count)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 10*time.Minute, cfg.Sessions.IdleTTL)
	assert.Equal(t, "console", cfg.Logging.Format)

	thresholds, err := cfg.IntentThresholds()
	require.NoError(t, err)
	assert.Equal(t, map[core.Intent]float64{core.IntentGoodbye: 0.6}, thresholds)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty http addr", func(c *Config) { c.HTTP.Addr = "" }},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Brokers = nil }},
		{"zero sessions", func(c *Config) { c.Sessions.Max = 0 }},
		{"zero ttl", func(c *Config) { c.Sessions.IdleTTL = 0 }},
		{"no workers", func(c *Config) { c.Workers.Count = 0 }},
		{"ratio above one", func(c *Config) { c.Engine.Language.EnglishRatio = 1.5 }},
		{"unknown intent", func(c *Config) { c.Engine.Intent.Thresholds = map[string]float64{"weather": 0.5} }},
		{"threshold out of range", func(c *Config) { c.Engine.Intent.Thresholds = map[string]float64{"demo": 0} }},
		{"llm without key", func(c *Config) { c.LLM.Enabled = true }},
		{"stt without key", func(c *Config) { c.STT.Enabled = true }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
