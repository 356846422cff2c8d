// Package kafka carries turns over Kafka: utterances come in on one topic,
// replies and the turn log go out on others.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

// Utterance is the inbound message. The message key, when set, names the
// call and wins over the body's callId.
type Utterance struct {
	core.Request
	MessageID string `json:"messageId,omitempty"`
}

// Reply is published for every processed utterance.
type Reply struct {
	CallID    string        `json:"callId"`
	MessageID string        `json:"messageId,omitempty"`
	Response  core.Response `json:"response"`
}

type Responder interface {
	Respond(ctx context.Context, req core.Request) core.Response
}

type Dispatcher interface {
	Dispatch(ctx context.Context, key string, fn func()) error
}

type ReplyPublisher interface {
	Publish(ctx context.Context, key string, v any) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader    messageReader
	assistant Responder
	pool      Dispatcher
	replies   ReplyPublisher
}

func NewConsumer(brokers []string, topic, groupID string, assistant Responder, pool Dispatcher, replies ReplyPublisher) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, assistant: assistant, pool: pool, replies: replies}
}

// Start consumes until ctx ends. Each utterance is processed on the worker
// owning its call, so a call's replies keep the order of its utterances.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()
	log.Info().Str("component", "kafka").Msg("consumer started")

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		u, err := decode(m)
		if err != nil {
			log.Warn().Err(err).Str("component", "kafka").Int64("offset", m.Offset).Msg("dropping utterance")
			continue
		}

		if err := c.pool.Dispatch(ctx, u.CallID, func() { c.handle(ctx, u) }); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to dispatch utterance: %w", err)
		}
	}
}

func decode(m kafka.Message) (Utterance, error) {
	var u Utterance
	if err := json.Unmarshal(m.Value, &u); err != nil {
		return Utterance{}, fmt.Errorf("invalid utterance: %w", err)
	}
	if len(m.Key) > 0 {
		u.CallID = string(m.Key)
	}
	u.CallID = strings.TrimSpace(u.CallID)
	if u.CallID == "" {
		return Utterance{}, errors.New("utterance has no call id")
	}
	return u, nil
}

func (c *Consumer) handle(ctx context.Context, u Utterance) {
	resp := c.assistant.Respond(ctx, u.Request)
	if resp.ShouldEscalate {
		log.Info().
			Str("component", "kafka").
			Str("call_id", u.CallID).
			Str("stage", resp.ConversationStage).
			Strs("actions", resp.TriggeredActions).
			Msg("call escalated")
	}
	reply := Reply{CallID: u.CallID, MessageID: u.MessageID, Response: resp}
	if err := c.replies.Publish(ctx, u.CallID, reply); err != nil {
		log.Error().Err(err).Str("component", "kafka").Str("call_id", u.CallID).Msg("failed to publish reply")
	}
}
