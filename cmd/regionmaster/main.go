package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"regionmaster/internal/catalog"
	catalogrpc "regionmaster/internal/catalog/grpc"
	"regionmaster/internal/config"
	"regionmaster/internal/coordination"
	"regionmaster/internal/logging"
	"regionmaster/internal/master"
	mastergrpc "regionmaster/internal/master/grpc"
	"regionmaster/internal/observability/metrics"
	"regionmaster/internal/observability/tracing"
	grpcserver "regionmaster/internal/server/grpc"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults when empty)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.TracingConfig("master", cfg.Master.Address))
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background()) //nolint:errcheck

	collector := metrics.NewAssignmentCollector(nil, cfg.Metrics.Namespace)
	if cfg.Metrics.Address != "" {
		if err := metrics.StartServer(ctx, cfg.Metrics.Address, nil, logger); err != nil {
			logger.Fatal("failed to start metrics server", zap.Error(err))
		}
		go metrics.RunRates(ctx, cfg.Metrics.RateInterval, collector.Rates()...)
	}

	coord, closeCoord := openCoordination(ctx, cfg.Coordination, logger)
	defer closeCoord()

	catalogClient := catalogrpc.NewClient(nil, cfg.Master.RPCTimeout, logger)
	defer catalogClient.Close()

	regions := master.NewRegionManager()
	coordinator := master.NewCoordinator(master.Config{
		Workers:        cfg.Master.Workers,
		InitialBackoff: cfg.Master.InitialBackoff,
		MaxBackoff:     cfg.Master.MaxBackoff,
	}, regions, catalog.NewClient(regions, catalogClient), coord, collector, logger)
	scanner := master.NewScanner(master.ScannerConfig{
		Interval:                  cfg.Master.ScanInterval,
		ExpectedCatalogPartitions: cfg.Master.ExpectedCatalogPartitions,
	}, regions, catalogClient, collector, logger)

	coordinator.Start(ctx)
	go scanner.Run(ctx)

	srv := grpcserver.New(grpcserver.Config{Address: cfg.Master.Address}, grpcserver.BinderFunc(func(s *grpc.Server) {
		mastergrpc.Register(s, coordinator, regions, logger)
	}), logger)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("failed to start grpc server", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	srv.Stop()
	cancel()
	coordinator.Stop()
}

// openCoordination connects to the JetStream KV bucket when a URL is configured
// and falls back to in-process markers otherwise.
func openCoordination(ctx context.Context, cfg config.CoordinationConfig, logger *zap.Logger) (coordination.Client, func()) {
	if cfg.URL == "" {
		logger.Warn("no coordination url configured, keeping unassigned markers in memory")
		return coordination.NewMemoryClient(), func() {}
	}
	nc, err := nats.Connect(cfg.URL, nats.Name("regionmaster"), nats.MaxReconnects(-1))
	if err != nil {
		logger.Fatal("failed to connect to coordination service", zap.String("url", cfg.URL), zap.Error(err))
	}
	js, err := jetstream.New(nc)
	if err != nil {
		logger.Fatal("failed to open jetstream", zap.Error(err))
	}
	client, err := coordination.OpenKVClient(ctx, js, cfg.Bucket, logger)
	if err != nil {
		logger.Fatal("failed to open coordination bucket", zap.Error(err))
	}
	return client, nc.Close
}
