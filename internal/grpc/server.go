package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/jacobekanem/gainz/internal/authz"
	"github.com/jacobekanem/gainz/internal/logging"
	"github.com/jacobekanem/gainz/internal/pb"
)

// Server exposes token validation over gRPC for services that prefer RPC to
// the REST relay. Both the authentication and authorization binaries run
// one.
type Server struct {
	pb.UnimplementedAuthorizationServiceServer
	address string
	authz   *authz.Service
	logger  *logging.Logger
}

func NewServer(address string, authzService *authz.Service, logger *logging.Logger) *Server {
	return &Server{
		address: address,
		authz:   authzService,
		logger:  logger,
	}
}

// Run serves until the context is canceled, then stops gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer()
	pb.RegisterAuthorizationServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info("stopping gRPC server")
		srv.GracefulStop()
	}()

	s.logger.Info("starting gRPC server", "address", s.address)

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
