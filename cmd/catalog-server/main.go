package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"regionmaster/internal/catalog"
	catalogrpc "regionmaster/internal/catalog/grpc"
	"regionmaster/internal/config"
	"regionmaster/internal/logging"
	mastergrpc "regionmaster/internal/master/grpc"
	"regionmaster/internal/observability/tracing"
	"regionmaster/internal/region"
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

	store, err := catalog.OpenStore(cfg.Catalog.Backend, cfg.Catalog.Dir)
	if err != nil {
		logger.Fatal("failed to open catalog store", zap.String("dir", cfg.Catalog.Dir), zap.Error(err))
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.TracingConfig("catalog-server", cfg.Catalog.Address))
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background()) //nolint:errcheck

	srv := grpcserver.New(grpcserver.Config{Address: cfg.Catalog.Address}, grpcserver.BinderFunc(func(s *grpc.Server) {
		catalogrpc.Register(s, store, logger)
	}), logger)
	if err := srv.Start(ctx); err != nil {
		logger.Fatal("failed to start grpc server", zap.Error(err))
	}

	self, err := serverIdentity(cfg.Catalog)
	if err != nil {
		logger.Fatal("invalid advertise address", zap.Error(err))
	}
	go announce(ctx, cfg.Catalog.MasterAddress, self, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()
	srv.Stop()
}

func serverIdentity(cfg config.CatalogConfig) (region.Server, error) {
	addr := cfg.Advertise
	if addr == "" {
		addr = cfg.Address
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return region.Server{}, err
	}
	if host == "" {
		host = "127.0.0.1"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return region.Server{}, err
	}
	return region.Server{Host: host, Port: port, StartCode: time.Now().UnixMilli()}, nil
}

// announce reports the catalog partitions served by this process to the
// master, retrying until the master accepts them.
func announce(ctx context.Context, masterAddr string, self region.Server, logger *zap.Logger) {
	client, err := mastergrpc.Dial(ctx, masterAddr, 5*time.Second)
	if err != nil {
		logger.Error("failed to dial master", zap.String("master", masterAddr), zap.Error(err))
		return
	}
	defer client.Close()

	for _, info := range []region.Info{region.RootInfo, region.FirstMetaInfo} {
		b := backoff.NewExponentialBackOff()
		b.MaxInterval = 10 * time.Second
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			return struct{}{}, client.ReportOpen(ctx, info, self)
		}, backoff.WithBackOff(b), backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("report to master failed", zap.String("region", info.Name()),
				zap.Duration("retry_in", next), zap.Error(err))
		}))
		if err != nil {
			logger.Error("gave up reporting catalog partition", zap.String("region", info.Name()), zap.Error(err))
			return
		}
		logger.Info("reported catalog partition open", zap.String("region", info.Name()), zap.String("server", self.Name()))
	}
}
