package master

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"regionmaster/internal/catalog"
	"regionmaster/internal/coordination"
	"regionmaster/internal/observability/metrics"
	"regionmaster/internal/region"
)

const (
	// KindOpen names region open transitions in logs and metrics.
	KindOpen = "open"
	// OpenPriority runs open transitions ahead of everything else.
	OpenPriority = 0
)

// openTransition brings a region reported open by a server online: it writes
// the assignment into the catalog and then reconciles the manager state,
// unless the region was offlined in the meantime.
type openTransition struct {
	info    region.Info
	server  region.Server
	regions *RegionManager
	catalog catalog.Client
	coord   coordination.Client
	metrics *metrics.AssignmentCollector
	logger  *zap.Logger
}

// NewOpenTransition builds the operation processing an open report of info by server.
func NewOpenTransition(info region.Info, server region.Server, regions *RegionManager, catalogClient catalog.Client,
	coord coordination.Client, collector *metrics.AssignmentCollector, logger *zap.Logger) Operation {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &openTransition{
		info:    info,
		server:  server,
		regions: regions,
		catalog: catalogClient,
		coord:   coord,
		metrics: collector,
		logger:  logger,
	}
}

func (o *openTransition) Priority() int       { return OpenPriority }
func (o *openTransition) Region() region.Info { return o.info }
func (o *openTransition) Kind() string        { return KindOpen }

func (o *openTransition) String() string {
	return fmt.Sprintf("ProcessRegionOpen of %s, server: %s", o.info.Name(), o.server.Name())
}

func (o *openTransition) Process(ctx context.Context) (Result, error) {
	loc, err := o.catalog.Locate(ctx, o.info)
	if err != nil {
		if errors.Is(err, catalog.ErrNotLocatable) {
			o.logger.Debug("catalog partition not online yet", zap.String("region", o.info.Name()))
			return Delayed, nil
		}
		return Delayed, fmt.Errorf("locate catalog for %s: %w", o.info.Name(), err)
	}

	err = o.catalog.Put(ctx, loc, o.info, catalog.Assignment{
		Server:    o.server.HostPort(),
		StartCode: o.server.StartCode,
	})
	if err != nil {
		return Delayed, fmt.Errorf("update catalog row %s: %w", o.info.Name(), err)
	}
	o.logger.Info("updated catalog row",
		zap.String("row", o.info.Name()),
		zap.String("catalog", loc.Region.Name()),
		zap.Int64("startcode", o.server.StartCode),
		zap.String("server", o.server.HostPort()))

	var lostRace, wake bool
	o.regions.Do(func(tx *Txn) {
		if tx.IsOfflined(o.info) {
			lostRace = true
			tx.ClearTransition(o.info)
			return
		}
		if o.info.IsMeta() {
			catalogLoc := region.CatalogLocation{Address: o.server.HostPort(), Region: o.info}
			if tx.IsInitialCatalogScanComplete() {
				tx.PutCatalogOnline(catalogLoc)
				wake = true
			} else {
				tx.AddCatalogToScan(catalogLoc)
			}
		}
		tx.SetOnline(o.info, o.server)
	})

	if wake {
		o.regions.TriggerScanNow()
	}
	if lostRace {
		o.logger.Warn("region opened while being offlined, deleting unassigned marker",
			zap.String("region", o.info.Name()),
			zap.String("server", o.server.Name()))
		o.metrics.OfflineRace()
		if err := o.coord.DeleteUnassigned(ctx, o.info.EncodedName()); err != nil {
			if coordination.IsConnectivityError(err) {
				o.metrics.CoordinationUnavailable()
				return Delayed, fmt.Errorf("delete unassigned marker of %s: %w: %w", o.info.Name(), coordination.ErrUnavailable, err)
			}
			return Delayed, fmt.Errorf("delete unassigned marker of %s: %w", o.info.Name(), err)
		}
		return Succeeded, nil
	}
	o.metrics.RegionOpened()
	return Succeeded, nil
}
