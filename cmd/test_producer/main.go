package main

import (
	"context"
	"encoding/json"
	"flag"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/kaphack/voicecall-assistant/internal/core"
	kafkaio "github.com/kaphack/voicecall-assistant/internal/kafka"
)

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma separated Kafka brokers")
	topic := flag.String("topic", "call-utterances", "utterance topic")
	callID := flag.String("call_id", "call-test-1", "call id, used as the message key")
	text := flag.String("text", "help me please, I need help", "caller utterance")
	flag.Parse()

	w := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer w.Close()

	body, err := json.Marshal(kafkaio.Utterance{
		Request: core.Request{
			UserMessage:   *text,
			CallID:        *callID,
			VoiceSettings: core.VoiceSettings{Language: "auto"},
		},
		MessageID: "msg-1",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode utterance")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(*callID), Value: body}); err != nil {
		log.Fatal().Err(err).Msg("failed to write message")
	}
	log.Info().Str("topic", *topic).Str("call_id", *callID).Msg("utterance sent")
}
