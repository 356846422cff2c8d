// Package grpcserver exposes the assistant over gRPC as
// voiceassist.v1.Assistant. Messages are google.protobuf.Struct values
// carrying the same JSON shape as the HTTP API.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

const (
	ServiceName    = "voiceassist.v1.Assistant"
	GenerateMethod = "/" + ServiceName + "/Generate"
	ConverseMethod = "/" + ServiceName + "/Converse"
)

// AssistantServer is the service implementation registered by
// RegisterAssistantServer.
type AssistantServer interface {
	Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Converse(stream grpc.ServerStream) error
}

func RegisterAssistantServer(s grpc.ServiceRegistrar, srv AssistantServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AssistantServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Converse",
			Handler:       converseHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "voiceassist/v1/assistant.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AssistantServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GenerateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AssistantServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func converseHandler(srv any, stream grpc.ServerStream) error {
	return srv.(AssistantServer).Converse(stream)
}

type Responder interface {
	Respond(ctx context.Context, req core.Request) core.Response
}

type Dispatcher interface {
	Dispatch(ctx context.Context, key string, fn func()) error
}

type Server struct {
	assistant Responder
	pool      Dispatcher
}

func NewServer(assistant Responder, pool Dispatcher) *Server {
	return &Server{assistant: assistant, pool: pool}
}

// Generate answers a single turn.
func (s *Server) Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := DecodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	out, err := EncodeResponse(req.CallID, s.assistant.Respond(ctx, req))
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Converse carries one call: every inbound message is a turn and gets one
// reply, in order. A stream whose first turn has no callId is given one.
func (s *Server) Converse(stream grpc.ServerStream) error {
	ctx := stream.Context()
	var (
		sendMu  sync.Mutex
		pending sync.WaitGroup
		sendErr error
		callID  string
	)
	defer pending.Wait()

	log.Info().Str("component", "grpc").Msg("conversation stream opened")
	for {
		in := new(structpb.Struct)
		if err := stream.RecvMsg(in); err != nil {
			if errors.Is(err, io.EOF) {
				pending.Wait()
				log.Info().Str("component", "grpc").Str("call_id", callID).Msg("conversation stream closed")
				sendMu.Lock()
				defer sendMu.Unlock()
				return sendErr
			}
			return err
		}

		req, err := DecodeRequest(in)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}
		if callID == "" {
			callID = req.CallID
			if callID == "" {
				callID = uuid.New().String()
			}
		}
		req.CallID = callID

		pending.Add(1)
		err = s.pool.Dispatch(ctx, callID, func() {
			defer pending.Done()
			out, err := EncodeResponse(callID, s.assistant.Respond(ctx, req))
			sendMu.Lock()
			defer sendMu.Unlock()
			if sendErr != nil {
				return
			}
			if err == nil {
				err = stream.SendMsg(out)
			}
			if err != nil {
				sendErr = err
				log.Warn().Err(err).Str("component", "grpc").Str("call_id", callID).Msg("failed to send reply")
			}
		})
		if err != nil {
			pending.Done()
			return status.Error(codes.Unavailable, err.Error())
		}
	}
}

// DecodeRequest reads a turn from its Struct form.
func DecodeRequest(in *structpb.Struct) (core.Request, error) {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return core.Request{}, fmt.Errorf("invalid request: %w", err)
	}
	var req core.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return core.Request{}, fmt.Errorf("invalid request: %w", err)
	}
	req.CallID = strings.TrimSpace(req.CallID)
	return req, nil
}

// EncodeRequest is the client side of DecodeRequest.
func EncodeRequest(req core.Request) (*structpb.Struct, error) {
	return toStruct(req)
}

// Reply is a decoded response; CallID names the call it belongs to.
type Reply struct {
	CallID string `json:"callId,omitempty"`
	core.Response
}

// EncodeResponse renders a response with its call id.
func EncodeResponse(callID string, resp core.Response) (*structpb.Struct, error) {
	return toStruct(Reply{CallID: callID, Response: resp})
}

// DecodeReply is the client side of EncodeResponse.
func DecodeReply(in *structpb.Struct) (Reply, error) {
	raw, err := json.Marshal(in.AsMap())
	if err != nil {
		return Reply{}, fmt.Errorf("invalid reply: %w", err)
	}
	var r Reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return Reply{}, fmt.Errorf("invalid reply: %w", err)
	}
	return r, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return structpb.NewStruct(m)
}

// UnaryLogger logs every unary call with its status code and latency.
func UnaryLogger() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Info().
			Str("component", "grpc").
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("took", time.Since(start)).
			Msg("unary call")
		return resp, err
	}
}
