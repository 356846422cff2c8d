package grpcserver

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/kaphack/voicecall-assistant/internal/core"
)

type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Generate(ctx context.Context, req core.Request, opts ...grpc.CallOption) (Reply, error) {
	in, err := EncodeRequest(req)
	if err != nil {
		return Reply{}, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GenerateMethod, in, out, opts...); err != nil {
		return Reply{}, err
	}
	return DecodeReply(out)
}

// ConverseStream is the client half of a Converse call.
type ConverseStream struct {
	stream grpc.ClientStream
}

func (c *Client) Converse(ctx context.Context, opts ...grpc.CallOption) (*ConverseStream, error) {
	stream, err := c.conn.NewStream(ctx, &ServiceDesc.Streams[0], ConverseMethod, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}
	return &ConverseStream{stream: stream}, nil
}

func (s *ConverseStream) Send(req core.Request) error {
	in, err := EncodeRequest(req)
	if err != nil {
		return err
	}
	return s.stream.SendMsg(in)
}

func (s *ConverseStream) Recv() (Reply, error) {
	out := new(structpb.Struct)
	if err := s.stream.RecvMsg(out); err != nil {
		return Reply{}, err
	}
	return DecodeReply(out)
}

// CloseSend signals that no more turns follow.
func (s *ConverseStream) CloseSend() error {
	return s.stream.CloseSend()
}
