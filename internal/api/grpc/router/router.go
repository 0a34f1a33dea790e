package router

import (
	"context"
	"fmt"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/dtroode/usergraph/internal/api/grpc/middleware"
	"github.com/dtroode/usergraph/internal/logger"
)

// ServiceName is the health service key reporting the GraphQL gateway state.
const ServiceName = "usergraph.UserGraph"

// Router builds the gRPC server carrying the standard health service.
type Router struct {
	health *health.Server
	logger *logger.Logger
}

func New(health *health.Server, logger *logger.Logger) *Router {
	return &Router{
		health: health,
		logger: logger,
	}
}

// Register creates the server with logging and panic recovery interceptors
// and registers the health and reflection services.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recoveryOpt := recovery.WithRecoveryHandlerContext(r.recoverPanic)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

func (r *Router) recoverPanic(ctx context.Context, p any) error {
	r.logger.Error("gRPC handler panicked",
		"panic", fmt.Sprint(p))
	return status.Error(codes.Internal, "internal server error")
}
