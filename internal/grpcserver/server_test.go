package grpcserver

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kaphack/voicecall-assistant/internal/conversation"
	"github.com/kaphack/voicecall-assistant/internal/core"
	"github.com/kaphack/voicecall-assistant/internal/engine"
	"github.com/kaphack/voicecall-assistant/internal/service"
	"github.com/kaphack/voicecall-assistant/internal/workers"
)

func startServer(t *testing.T) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	pool := workers.NewPool(4, 16)
	assistant := service.New(engine.New(conversation.NewStore(conversation.Options{}), engine.Options{}), service.Options{})

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryLogger()))
	RegisterAssistantServer(srv, NewServer(assistant, pool))
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Stop()
		pool.Stop()
	})
	return NewClient(conn)
}

func TestGenerate(t *testing.T) {
	client := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := client.Generate(ctx, core.Request{
		UserMessage:   "What is your pricing?",
		CallID:        "call-1",
		VoiceSettings: core.VoiceSettings{Language: "en-IN"},
		KnowledgeBase: []core.KnowledgeEntry{{Title: "Pricing", Content: "Our basic plan is $99/month. Enterprise plans are custom."}},
	})
	require.NoError(t, err)

	assert.Equal(t, "call-1", reply.CallID)
	assert.Contains(t, reply.AIResponse, "Our basic plan is $99/month.")
	assert.Equal(t, core.English, reply.DetectedLanguage)
	assert.Equal(t, string(core.StageIntroduction), reply.ConversationStage)
}

func TestConverse_OrderedRepliesAndGeneratedCallID(t *testing.T) {
	client := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Converse(ctx)
	require.NoError(t, err)

	turns := []string{"hello", "ok", "bye bye, thanks"}
	for _, text := range turns {
		require.NoError(t, stream.Send(core.Request{UserMessage: text, VoiceSettings: core.VoiceSettings{Language: "en-IN"}}))
	}
	require.NoError(t, stream.CloseSend())

	var replies []Reply
	for {
		r, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		replies = append(replies, r)
	}

	require.Len(t, replies, 3)
	assert.NotEmpty(t, replies[0].CallID)
	for _, r := range replies {
		assert.Equal(t, replies[0].CallID, r.CallID)
	}
	assert.Equal(t, string(core.StageIntroduction), replies[0].ConversationStage)
	assert.True(t, replies[1].ContextUsed)
	assert.True(t, replies[2].GoodbyeDetected)
	assert.Equal(t, core.StageClosed, replies[2].ConversationStage)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	srv := NewServer(nil, nil)
	in, err := structpb.NewStruct(map[string]any{"userMessage": 42.0})
	require.NoError(t, err)

	_, err = srv.Generate(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRequestCodec(t *testing.T) {
	req := core.Request{
		UserMessage:   "namaste",
		CallID:        " call-3 ",
		CallData:      core.CallData{CompanyName: "Acme"},
		VoiceSettings: core.VoiceSettings{Personality: "ekta", Language: "hi-IN"},
		KnowledgeBase: []core.KnowledgeEntry{{Title: "t", Content: "c"}},
	}
	in, err := EncodeRequest(req)
	require.NoError(t, err)

	got, err := DecodeRequest(in)
	require.NoError(t, err)
	req.CallID = "call-3"
	assert.Equal(t, req, got)
}
