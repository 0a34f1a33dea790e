package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/usergraph/internal/api/graphql"
	grpcRouter "github.com/dtroode/usergraph/internal/api/grpc/router"
	grpcServer "github.com/dtroode/usergraph/internal/api/grpc/server"
	httpRouter "github.com/dtroode/usergraph/internal/api/http/router"
	httpServer "github.com/dtroode/usergraph/internal/api/http/server"
	"github.com/dtroode/usergraph/internal/config"
	"github.com/dtroode/usergraph/internal/logger"
	"github.com/dtroode/usergraph/internal/metrics"
	"github.com/dtroode/usergraph/internal/model"
	"github.com/dtroode/usergraph/internal/repository/mongodb"
	"github.com/dtroode/usergraph/internal/server"
	"github.com/dtroode/usergraph/internal/service"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type connector interface {
	Connect(ctx context.Context) (*mongo.Database, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	logAppVersion()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("failed to run server", "error", err)
	}
}

// prepareStore connects to the database and ensures indexes before any
// server accepts traffic.
func prepareStore(ctx context.Context, conn connector, newIndexes func() (model.IndexManager, error)) error {
	if _, err := conn.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	indexes, err := newIndexes()
	if err != nil {
		return fmt.Errorf("failed to initialize user repository: %w", err)
	}
	if err := indexes.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}
	return nil
}

// run serves until ctx is done or a server fails to start.
func run(ctx context.Context, cfg *config.Config, logger *logger.Logger) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	conn := mongodb.NewConnection(cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
	err := prepareStore(ctx, conn, func() (model.IndexManager, error) {
		return mongodb.NewUserRepository(conn)
	})
	if err != nil {
		return err
	}

	userService := service.NewUser(func() (model.UserStore, error) {
		return mongodb.NewUserRepository(conn)
	}, logger)

	var (
		observer       graphql.OperationObserver
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		registry := metrics.NewRegistry()
		observer = registry
		metricsHandler = registry.Handler()
	}

	router := httpRouter.New(httpRouter.Config{
		GraphQLPath: cfg.HTTP.GraphQLPath,
		Playground:  cfg.HTTP.Playground,
		MetricsPath: cfg.Metrics.Path,
	}, graphql.NewHandler(userService, logger, observer), metricsHandler, conn, logger)

	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	servers := []model.Server{
		httpServer.NewHTTPServer(router.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port)),
	}

	healthServer := health.NewServer()
	if cfg.GRPC.Enabled {
		r := grpcRouter.New(healthServer, logger)
		servers = append(servers, grpcServer.NewGRPCServer(r.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)))
		healthServer.SetServingStatus(grpcRouter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	healthServer.Shutdown()
	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}
	wg.Wait()

	if err := conn.Close(shutdownCtx); err != nil {
		logger.Error("failed to close database connection", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
