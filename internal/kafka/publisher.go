package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes JSON values keyed by call id, so one call's messages
// stay on one partition.
type Publisher struct {
	writer     messageWriter
	topic      string
	maxRetries uint64
}

func NewPublisher(brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{writer: w, topic: topic, maxRetries: 3}
}

// Publish marshals v and writes it under key, retrying transient write
// failures with exponential backoff until ctx ends.
func (p *Publisher) Publish(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	msg := kafka.Message{Key: []byte(key), Value: value, Time: time.Now()}

	attempt := 0
	op := func() error {
		attempt++
		err := p.writer.WriteMessages(ctx, msg)
		if err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("component", "kafka").Str("topic", p.topic).Str("key", key).Int("attempt", attempt).Msg("kafka write failed")
		}
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// TurnRecorder streams completed turns to a topic.
type TurnRecorder struct {
	pub *Publisher
}

func NewTurnRecorder(pub *Publisher) *TurnRecorder {
	return &TurnRecorder{pub: pub}
}

func (r *TurnRecorder) RecordTurn(ctx context.Context, turn core.Turn) error {
	return r.pub.Publish(ctx, turn.CallID, turn)
}
