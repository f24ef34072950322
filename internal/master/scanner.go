package master

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"regionmaster/internal/catalog"
	"regionmaster/internal/observability/metrics"
	"regionmaster/internal/region"
)

// CatalogReader reads every row of a catalog partition.
type CatalogReader interface {
	Scan(ctx context.Context, loc region.CatalogLocation) ([]catalog.Row, error)
}

type ScannerConfig struct {
	Interval time.Duration
	// ExpectedCatalogPartitions is the number of meta partitions that must
	// be online before the initial catalog scan counts as complete.
	ExpectedCatalogPartitions int
}

// Scanner brings newly opened catalog partitions online after their first
// scan and periodically rescans the online ones.
type Scanner struct {
	cfg     ScannerConfig
	regions *RegionManager
	reader  CatalogReader
	metrics *metrics.AssignmentCollector
	logger  *zap.Logger
}

func NewScanner(cfg ScannerConfig, regions *RegionManager, reader CatalogReader,
	collector *metrics.AssignmentCollector, logger *zap.Logger) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.ExpectedCatalogPartitions <= 0 {
		cfg.ExpectedCatalogPartitions = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		cfg:     cfg,
		regions: regions,
		reader:  reader,
		metrics: collector,
		logger:  logger.Named("scanner"),
	}
}

// Run scans on every trigger and interval tick until ctx is done.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.regions.ScanTrigger():
		case <-ticker.C:
		}
		if err := s.ScanOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("catalog scan incomplete", zap.Error(err))
		}
	}
}

// ScanOnce runs a single pass: pending partitions first, then the online ones.
func (s *Scanner) ScanOnce(ctx context.Context) error {
	var firstErr error
	for {
		loc, ok := s.regions.NextCatalogToScan()
		if !ok {
			break
		}
		rows, err := s.reader.Scan(ctx, loc)
		if err != nil {
			s.regions.AddCatalogToScan(loc)
			firstErr = fmt.Errorf("initial scan of %s: %w", loc, err)
			break
		}
		var offlined bool
		s.regions.Do(func(tx *Txn) {
			if offlined = tx.IsOfflined(loc.Region); !offlined {
				tx.PutCatalogOnline(loc)
			}
		})
		if offlined {
			s.logger.Info("skipping offlined catalog partition", zap.String("region", loc.Region.Name()))
			continue
		}
		s.logger.Info("catalog partition online", zap.String("region", loc.Region.Name()),
			zap.String("server", loc.Address), zap.Int("rows", len(rows)))
	}

	online := s.regions.OnlineCatalog()
	if !s.regions.IsInitialCatalogScanComplete() && firstErr == nil && len(online) >= s.cfg.ExpectedCatalogPartitions {
		s.regions.SetInitialCatalogScanComplete()
		s.logger.Info("initial catalog scan complete", zap.Int("partitions", len(online)))
	}

	total := 0
	for _, loc := range online {
		rows, err := s.reader.Scan(ctx, loc)
		if err != nil {
			s.logger.Warn("catalog rescan failed", zap.String("region", loc.Region.Name()), zap.Error(err))
			continue
		}
		total += len(rows)
	}
	s.metrics.ObserveScan(total, len(online))
	return firstErr
}
