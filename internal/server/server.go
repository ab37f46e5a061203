// Package server hosts a gRPC server that routes unary calls to handlers by
// full method name without generated service stubs. Request and response
// payloads cross the server boundary as raw protobuf frames; handlers own
// the wire encoding of their messages.
package server

import (
	"context"
	"fmt"
	"net"

	"github.com/tordynnar/service-f/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// HandlerFunc processes one unary call. md carries the incoming request
// metadata (never nil) and req the raw request message bytes.
type HandlerFunc func(ctx context.Context, md metadata.MD, req []byte) ([]byte, error)

// rawFrame carries message bytes through the gRPC transport untouched.
type rawFrame struct {
	payload []byte
}

// rawCodec passes frames through without protobuf (de)serialization. It
// registers under the default codec name so unmodified clients can call the
// server with their own generated stubs.
type rawCodec struct{}

func (rawCodec) Name() string { return "proto" }

func (rawCodec) Marshal(v any) ([]byte, error) {
	f, ok := v.(*rawFrame)
	if !ok {
		return nil, fmt.Errorf("rawCodec: unexpected message type %T", v)
	}
	return f.payload, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*rawFrame)
	if !ok {
		return fmt.Errorf("rawCodec: unexpected message type %T", v)
	}
	f.payload = data
	return nil
}

// Config holds the gRPC server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// MaxRecvMsgSize bounds inbound message size in bytes. Zero means the
	// grpc-go default.
	MaxRecvMsgSize int
}

// Server routes unary gRPC calls to registered handlers.
type Server struct {
	server *grpc.Server
	addr   string
	routes map[string]HandlerFunc
}

// New creates a server with default configuration.
func New(addr string) *Server {
	return NewWithConfig(Config{Addr: addr})
}

// NewWithConfig creates a server with the given configuration.
func NewWithConfig(cfg Config) *Server {
	s := &Server{
		addr:   cfg.Addr,
		routes: make(map[string]HandlerFunc),
	}

	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(rawCodec{}),
		grpc.UnknownServiceHandler(s.handleStream),
	}
	if cfg.MaxRecvMsgSize > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize))
	}

	s.server = grpc.NewServer(opts...)
	return s
}

// Handle registers fn for a full method name such as
// "/grpcarch.ServiceF/FetchLegacyData". Registration must finish before
// Start; the route table is not synchronized.
func (s *Server) Handle(fullMethod string, fn HandlerFunc) {
	s.routes[fullMethod] = fn
}

// handleStream services every inbound call. grpc-go hands all methods to the
// unknown-service handler because no generated service is registered.
func (s *Server) handleStream(_ any, stream grpc.ServerStream) error {
	method, ok := grpc.MethodFromServerStream(stream)
	if !ok {
		return status.Error(codes.Internal, "no method in stream")
	}

	fn, ok := s.routes[method]
	if !ok {
		logging.Warn("unknown method requested", logging.F("method", method))
		return status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}

	var req rawFrame
	if err := stream.RecvMsg(&req); err != nil {
		return err
	}

	ctx := stream.Context()
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	}

	payload, err := fn(ctx, md, req.payload)
	if err != nil {
		return err
	}
	return stream.SendMsg(&rawFrame{payload: payload})
}

// Start listens on the configured address and serves until Stop. It blocks.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener. It blocks.
func (s *Server) ServeListener(lis net.Listener) error {
	logging.Info("gRPC server started", logging.F("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Stop gracefully stops the server, draining in-flight calls.
func (s *Server) Stop() {
	s.server.GracefulStop()
}
