package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/kaphack/voicecall-assistant/internal/api"
	"github.com/kaphack/voicecall-assistant/internal/config"
	"github.com/kaphack/voicecall-assistant/internal/conversation"
	"github.com/kaphack/voicecall-assistant/internal/db"
	"github.com/kaphack/voicecall-assistant/internal/engine"
	"github.com/kaphack/voicecall-assistant/internal/grpcserver"
	"github.com/kaphack/voicecall-assistant/internal/httpapi"
	"github.com/kaphack/voicecall-assistant/internal/intent"
	"github.com/kaphack/voicecall-assistant/internal/kafka"
	"github.com/kaphack/voicecall-assistant/internal/language"
	"github.com/kaphack/voicecall-assistant/internal/llm"
	"github.com/kaphack/voicecall-assistant/internal/logging"
	"github.com/kaphack/voicecall-assistant/internal/service"
	"github.com/kaphack/voicecall-assistant/internal/voice"
	"github.com/kaphack/voicecall-assistant/internal/workers"
)

const shutdownTimeout = 10 * time.Second

type synthesizer interface {
	service.Synthesizer
	Close() error
}

var newSynthesizer = func(ctx context.Context) (synthesizer, error) {
	return voice.NewGoogleSynthesizer(ctx)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC APIs and the optional Kafka consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	thresholds, err := cfg.IntentThresholds()
	if err != nil {
		return err
	}

	store := conversation.NewStore(conversation.Options{
		MaxSessions: cfg.Sessions.Max,
		IdleTTL:     cfg.Sessions.IdleTTL,
	})
	eng := engine.New(store, engine.Options{
		Language: language.Options{
			MixedRatio:   cfg.Engine.Language.MixedRatio,
			EnglishRatio: cfg.Engine.Language.EnglishRatio,
		},
		Intent:       intent.Options{Thresholds: thresholds},
		MemoryWindow: cfg.Sessions.MemoryWindow,
	})

	opts := service.Options{Recorders: map[string]service.TurnRecorder{}}
	deps := httpapi.Deps{}
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn().Err(err).Str("component", "server").Msg("close failed")
			}
		}
	}()

	var repo *db.Repository
	if cfg.DB.Enabled {
		repo, err = db.NewRepository(ctx, db.Config{
			User:     cfg.DB.User,
			Password: cfg.DB.Password,
			Host:     cfg.DB.Host,
			Port:     cfg.DB.Port,
			Name:     cfg.DB.Name,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		closers = append(closers, repo.Close)
		if err := api.SeedDefaults(ctx, repo); err != nil {
			log.Warn().Err(err).Str("component", "server").Msg("failed to seed rules")
		}
		opts.Recorders["mysql"] = repo
		deps.Turns = repo
		deps.Rules = api.NewHandler(repo, eng)
	}

	var replies *kafka.Publisher
	if cfg.Kafka.Enabled {
		replies = kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.ReplyTopic)
		closers = append(closers, replies.Close)
		if cfg.Kafka.TurnTopic != "" {
			turns := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TurnTopic)
			closers = append(closers, turns.Close)
			opts.Recorders["kafka"] = kafka.NewTurnRecorder(turns)
		}
	}

	if cfg.LLM.Enabled {
		opts.LLM = llm.NewCompleter(llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: cfg.LLM.Timeout,
		})
		opts.LLMTimeout = cfg.LLM.Timeout
	}
	if cfg.STT.Enabled {
		opts.Transcriber = voice.NewOpenAITranscriber(voice.TranscriberConfig{
			APIKey:  cfg.STT.APIKey,
			BaseURL: cfg.STT.BaseURL,
			Model:   cfg.STT.Model,
			Timeout: cfg.STT.Timeout,
		})
	}
	if cfg.TTS.Enabled {
		tts, err := newSynthesizer(ctx)
		if err != nil {
			return err
		}
		closers = append(closers, tts.Close)
		opts.Synthesizer = tts
	}

	assistant := service.New(eng, opts)
	deps.Assistant = assistant
	pool := workers.NewPool(cfg.Workers.Count, cfg.Workers.QueueSize)

	defer func() {
		pool.Stop()
		assistant.Close()
		log.Info().Str("component", "server").Msg("workers drained")
	}()

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC.Addr, err)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcserver.UnaryLogger()))
	grpcserver.RegisterAssistantServer(grpcServer, grpcserver.NewServer(assistant, pool))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("component", "server").Str("addr", cfg.HTTP.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Str("component", "server").Str("addr", cfg.GRPC.Addr).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.UtteranceTopic, cfg.Kafka.GroupID, assistant, pool, replies)
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	if repo != nil {
		g.Go(func() error {
			return api.RunRefresher(ctx, repo, eng, cfg.Rules.RefreshInterval)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Str("component", "server").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Str("component", "server").Msg("http shutdown failed")
		}
		grpcServer.GracefulStop()
		return nil
	})

	return g.Wait()
}
