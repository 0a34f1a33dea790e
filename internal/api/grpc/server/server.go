package server

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"github.com/dtroode/usergraph/internal/model"
)

var _ model.Server = (*GRPCServer)(nil)

// GRPCServer serves a gRPC server on a fixed address.
type GRPCServer struct {
	server *grpc.Server
	addr   string
}

func NewGRPCServer(server *grpc.Server, addr string) *GRPCServer {
	return &GRPCServer{server: server, addr: addr}
}

// Start blocks serving connections accepted from securityLayer.
func (s *GRPCServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := s.server.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop closes listeners and connections without waiting for pending RPCs.
func (s *GRPCServer) Stop(_ context.Context) error {
	s.server.Stop()
	return nil
}

func (s *GRPCServer) Address() string {
	return s.addr
}
