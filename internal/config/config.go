// Package config loads the service configuration from an optional YAML
// file and VOICEASSIST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	DB       DBConfig       `mapstructure:"db"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Workers  WorkersConfig  `mapstructure:"workers"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Engine   EngineConfig   `mapstructure:"engine"`
	LLM      LLMConfig      `mapstructure:"llm"`
	STT      STTConfig      `mapstructure:"stt"`
	TTS      TTSConfig      `mapstructure:"tts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type KafkaConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Brokers        []string `mapstructure:"brokers"`
	UtteranceTopic string   `mapstructure:"utterance_topic"`
	ReplyTopic     string   `mapstructure:"reply_topic"`
	TurnTopic      string   `mapstructure:"turn_topic"`
	GroupID        string   `mapstructure:"group_id"`
}

type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
}

type SessionsConfig struct {
	Max          int           `mapstructure:"max"`
	IdleTTL      time.Duration `mapstructure:"idle_ttl"`
	MemoryWindow int           `mapstructure:"memory_window"`
}

type WorkersConfig struct {
	Count     int `mapstructure:"count"`
	QueueSize int `mapstructure:"queue_size"`
}

type RulesConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

type EngineConfig struct {
	Language LanguageConfig `mapstructure:"language"`
	Intent   IntentConfig   `mapstructure:"intent"`
}

type LanguageConfig struct {
	MixedRatio   float64 `mapstructure:"mixed_ratio"`
	EnglishRatio float64 `mapstructure:"english_ratio"`
}

// IntentConfig overrides per-intent confidence thresholds, keyed by intent
// name.
type IntentConfig struct {
	Thresholds map[string]float64 `mapstructure:"thresholds"`
}

type LLMConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type STTConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type TTSConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		GRPC: GRPCConfig{Addr: ":50051"},
		Kafka: KafkaConfig{
			Brokers:        []string{"localhost:9092"},
			UtteranceTopic: "call-utterances",
			ReplyTopic:     "call-replies",
			TurnTopic:      "call-turns",
			GroupID:        "voiceassist",
		},
		DB: DBConfig{
			User: "voiceassist",
			Host: "localhost",
			Port: 3306,
			Name: "voiceassist",
		},
		Sessions: SessionsConfig{
			Max:          10000,
			IdleTTL:      30 * time.Minute,
			MemoryWindow: 5,
		},
		Workers: WorkersConfig{Count: 8, QueueSize: 100},
		Rules:   RulesConfig{RefreshInterval: 30 * time.Second},
		Engine: EngineConfig{
			Language: LanguageConfig{MixedRatio: 0.25, EnglishRatio: 0.3},
			Intent:   IntentConfig{Thresholds: map[string]float64{}},
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: 3 * time.Second,
		},
		STT: STTConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "whisper-1",
			Timeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from path, or from voiceassist.yaml in the
// working directory when path is empty. A missing default file is not an
// error. Environment variables such as VOICEASSIST_KAFKA_BROKERS win over
// the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOICEASSIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("voiceassist")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/voiceassist")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("grpc.addr", d.GRPC.Addr)

	v.SetDefault("kafka.enabled", d.Kafka.Enabled)
	v.SetDefault("kafka.brokers", d.Kafka.Brokers)
	v.SetDefault("kafka.utterance_topic", d.Kafka.UtteranceTopic)
	v.SetDefault("kafka.reply_topic", d.Kafka.ReplyTopic)
	v.SetDefault("kafka.turn_topic", d.Kafka.TurnTopic)
	v.SetDefault("kafka.group_id", d.Kafka.GroupID)

	v.SetDefault("db.enabled", d.DB.Enabled)
	v.SetDefault("db.user", d.DB.User)
	v.SetDefault("db.password", d.DB.Password)
	v.SetDefault("db.host", d.DB.Host)
	v.SetDefault("db.port", d.DB.Port)
	v.SetDefault("db.name", d.DB.Name)

	v.SetDefault("sessions.max", d.Sessions.Max)
	v.SetDefault("sessions.idle_ttl", d.Sessions.IdleTTL)
	v.SetDefault("sessions.memory_window", d.Sessions.MemoryWindow)

	v.SetDefault("workers.count", d.Workers.Count)
	v.SetDefault("workers.queue_size", d.Workers.QueueSize)

	v.SetDefault("rules.refresh_interval", d.Rules.RefreshInterval)

	v.SetDefault("engine.language.mixed_ratio", d.Engine.Language.MixedRatio)
	v.SetDefault("engine.language.english_ratio", d.Engine.Language.EnglishRatio)
	v.SetDefault("engine.intent.thresholds", d.Engine.Intent.Thresholds)

	v.SetDefault("llm.enabled", d.LLM.Enabled)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("stt.enabled", d.STT.Enabled)
	v.SetDefault("stt.api_key", d.STT.APIKey)
	v.SetDefault("stt.base_url", d.STT.BaseURL)
	v.SetDefault("stt.model", d.STT.Model)
	v.SetDefault("stt.timeout", d.STT.Timeout)

	v.SetDefault("tts.enabled", d.TTS.Enabled)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Validate checks values the service cannot start without.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return fmt.Errorf("grpc.addr is required")
	}
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka is enabled")
		}
		if c.Kafka.UtteranceTopic == "" || c.Kafka.ReplyTopic == "" {
			return fmt.Errorf("kafka.utterance_topic and kafka.reply_topic are required when kafka is enabled")
		}
	}
	if c.DB.Enabled && (c.DB.Host == "" || c.DB.Name == "") {
		return fmt.Errorf("db.host and db.name are required when db is enabled")
	}
	if c.Sessions.Max <= 0 {
		return fmt.Errorf("sessions.max must be positive, got %d", c.Sessions.Max)
	}
	if c.Sessions.IdleTTL <= 0 {
		return fmt.Errorf("sessions.idle_ttl must be positive, got %s", c.Sessions.IdleTTL)
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be positive, got %d", c.Workers.Count)
	}
	if r := c.Engine.Language; r.MixedRatio < 0 || r.MixedRatio > 1 || r.EnglishRatio < 0 || r.EnglishRatio > 1 {
		return fmt.Errorf("engine.language ratios must be within [0,1]")
	}
	if _, err := c.IntentThresholds(); err != nil {
		return err
	}
	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required when llm is enabled")
	}
	if c.STT.Enabled && c.STT.APIKey == "" {
		return fmt.Errorf("stt.api_key is required when stt is enabled")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %s (must be json or console)", c.Logging.Format)
	}
	return nil
}

// IntentThresholds converts the configured overrides into classifier
// thresholds, rejecting unknown intents and values outside (0,1].
func (c *Config) IntentThresholds() (map[core.Intent]float64, error) {
	known := map[core.Intent]bool{
		core.IntentGoodbye: true, core.IntentServices: true, core.IntentPricing: true,
		core.IntentInterested: true, core.IntentContact: true, core.IntentComplaint: true,
		core.IntentDemo: true, core.IntentQuestion: true,
	}
	out := make(map[core.Intent]float64, len(c.Engine.Intent.Thresholds))
	for name, value := range c.Engine.Intent.Thresholds {
		in := core.Intent(strings.ToLower(name))
		if !known[in] {
			return nil, fmt.Errorf("engine.intent.thresholds: unknown intent %q", name)
		}
		if value <= 0 || value > 1 {
			return nil, fmt.Errorf("engine.intent.thresholds.%s must be within (0,1], got %v", name, value)
		}
		out[in] = value
	}
	return out, nil
}
