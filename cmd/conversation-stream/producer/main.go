package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/grpcserver"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "gRPC server address")
	callID := flag.String("call_id", "", "call id (optional)")
	lang := flag.String("language", "auto", "language preference: auto, en-IN or hi-IN")
	persona := flag.String("personality", "priyanshu", "agent persona")
	company := flag.String("company", "", "company name used in greetings")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *callID == "" {
		*callID = fmt.Sprintf("cli-%d", time.Now().UnixNano())
	}

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	stream, err := grpcserver.NewClient(conn).Converse(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stream")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			reply, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("stream closed")
				return
			}
			fmt.Printf("agent> %s\n", reply.AIResponse)
			log.Debug().
				Str("intent", string(reply.Intent)).
				Str("stage", reply.ConversationStage).
				Bool("escalate", reply.ShouldEscalate).
				Msg("turn")
			if reply.ShouldEscalate {
				log.Info().Str("call_id", reply.CallID).Msg("call escalated to a human")
			}
		}
	}()

	log.Info().Str("call_id", *callID).Str("addr", *addr).Msg("conversation open; type a line and press ENTER, Ctrl+D to hang up")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		err := stream.Send(core.Request{
			UserMessage:   text,
			CallID:        *callID,
			CallData:      core.CallData{CompanyName: *company},
			VoiceSettings: core.VoiceSettings{Personality: *persona, Language: *lang},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to send turn")
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("stdin error")
	}

	if err := stream.CloseSend(); err != nil {
		log.Error().Err(err).Msg("failed to close stream")
	}
	<-done
}
