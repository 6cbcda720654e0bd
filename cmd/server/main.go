package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/farhapartex/adlibrary-proxy/internal/config"
	grpcServer "github.com/farhapartex/adlibrary-proxy/internal/grpc"
	"github.com/farhapartex/adlibrary-proxy/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Configuration loaded",
		logger.String("port", cfg.Server.GRPCPort),
		logger.String("endpoint", cfg.AdLibrary.Endpoint),
		logger.Duration("server_timeout", cfg.Server.ServerTimeout),
		logger.Duration("page_delay", cfg.Performance.PageDelay),
	)

	address := fmt.Sprintf(":%s", cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", address)
	if err != nil {
		log.Error("Failed to listen", logger.String("address", address), logger.Error(err))
		os.Exit(1)
	}

	grpcSrv := grpc.NewServer(
		grpc.MaxConcurrentStreams(16),
	)

	searchServer := grpcServer.NewServer(cfg, log)
	grpcServer.RegisterAdLibraryServer(grpcSrv, searchServer)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus(grpcServer.ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Info("Received shutdown signal, gracefully stopping server")
		healthSrv.Shutdown()
		grpcSrv.GracefulStop()
		log.Info("Server stopped")
	}()

	log.Info("Serving", logger.String("address", address))
	if err := grpcSrv.Serve(lis); err != nil {
		log.Error("Failed to serve", logger.Error(err))
		os.Exit(1)
	}
}
