package master

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"regionmaster/internal/catalog"
	"regionmaster/internal/coordination"
	"regionmaster/internal/observability/metrics"
	"regionmaster/internal/region"
)

var (
	// ErrUnsupportedReport indicates a report kind the coordinator does not process.
	ErrUnsupportedReport = errors.New("master: unsupported status report")
	// ErrInvalidReport indicates a report missing its region or server.
	ErrInvalidReport = errors.New("master: invalid status report")
	// ErrStopped indicates the coordinator no longer accepts work.
	ErrStopped = errors.New("master: coordinator stopped")

	errOperationPanic = errors.New("master: operation panicked")
)

// ReportKind is the status change a storage server reports for a region.
type ReportKind int

const (
	ReportOpen ReportKind = iota + 1
	ReportClose
	ReportSplit
)

func (k ReportKind) String() string {
	switch k {
	case ReportOpen:
		return "open"
	case ReportClose:
		return "close"
	case ReportSplit:
		return "split"
	default:
		return fmt.Sprintf("report(%d)", int(k))
	}
}

// StatusReport is a region status change sent by a storage server.
type StatusReport struct {
	Kind   ReportKind
	Region region.Info
	Server region.Server
}

// Config tunes the coordinator.
type Config struct {
	Workers        int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	return c
}

// Coordinator serializes status reports into operations and runs them on a
// pool of workers. Operations on different regions run in parallel; two
// operations on the same region never do.
type Coordinator struct {
	cfg     Config
	regions *RegionManager
	catalog catalog.Client
	coord   coordination.Client
	metrics *metrics.AssignmentCollector
	logger  *zap.Logger
	tracer  trace.Tracer
	queue   *opQueue

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCoordinator wires a coordinator. The collector and logger may be nil.
func NewCoordinator(cfg Config, regions *RegionManager, catalogClient catalog.Client, coord coordination.Client,
	collector *metrics.AssignmentCollector, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:     cfg.withDefaults(),
		regions: regions,
		catalog: catalogClient,
		coord:   coord,
		metrics: collector,
		logger:  logger.Named("coordinator"),
		tracer:  otel.Tracer("regionmaster/master"),
		queue:   newOpQueue(),
	}
}

// Submit turns a status report into work. An open of the root partition is
// recorded directly; other opens are queued as open transitions.
func (c *Coordinator) Submit(report StatusReport) error {
	if report.Region.IsZero() || report.Server.IsZero() {
		return fmt.Errorf("%w: region %q server %q", ErrInvalidReport, report.Region.Name(), report.Server.Name())
	}
	if c.isStopped() {
		return ErrStopped
	}
	switch report.Kind {
	case ReportOpen:
		if report.Region.IsRoot() {
			c.regions.SetRootLocation(report.Server.HostPort())
			c.logger.Info("root catalog partition online", zap.String("server", report.Server.HostPort()))
			return nil
		}
		c.regions.SetOpen(report.Region, report.Server)
		return c.SubmitOperation(NewOpenTransition(report.Region, report.Server, c.regions, c.catalog, c.coord,
			c.metrics, c.logger.Named("open")))
	case ReportClose, ReportSplit:
		return fmt.Errorf("%w: %s", ErrUnsupportedReport, report.Kind)
	default:
		return fmt.Errorf("%w: kind %s", ErrInvalidReport, report.Kind)
	}
}

// SubmitOperation queues op for processing.
func (c *Coordinator) SubmitOperation(op Operation) error {
	if c.isStopped() {
		return ErrStopped
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.InitialBackoff
	b.MaxInterval = c.cfg.MaxBackoff
	b.Reset()
	item := &queuedOp{
		op:      op,
		id:      uuid.NewString(),
		region:  op.Region().EncodedName(),
		backoff: b,
	}
	c.queue.push(item)
	c.metrics.SetQueueDepth(c.queue.len())
	c.logger.Debug("queued operation", zap.String("op", op.String()), zap.String("id", item.id))
	return nil
}

// MarkOffline records an administrative request to stop serving info.
func (c *Coordinator) MarkOffline(info region.Info) {
	c.regions.SetOffline(info)
	c.logger.Info("region marked offline", zap.String("region", info.Name()))
}

// ClearOffline withdraws an offline request so later open reports for info
// bring it online again.
func (c *Coordinator) ClearOffline(info region.Info) {
	c.regions.ClearOffline(info)
	c.logger.Info("offline request withdrawn", zap.String("region", info.Name()))
}

// Unassign puts info back in transition and registers its unassigned marker.
// An unassigned catalog partition stops serving lookups until reopened.
func (c *Coordinator) Unassign(ctx context.Context, info region.Info) error {
	if info.IsMeta() {
		c.regions.RemoveCatalog(info)
	}
	c.regions.SetUnassigned(info)
	err := c.coord.CreateUnassigned(ctx, info.EncodedName(), []byte(info.Name()))
	if err != nil && !errors.Is(err, coordination.ErrMarkerExists) {
		return fmt.Errorf("create unassigned marker for %s: %w", info.Name(), err)
	}
	return nil
}

// DropTable makes queued and future operations on table fail instead of retrying.
func (c *Coordinator) DropTable(table string) {
	c.regions.MarkTableDropped(table)
	c.logger.Info("table dropped", zap.String("table", table))
}

// Pending returns the number of queued operations, excluding running ones.
func (c *Coordinator) Pending() int {
	return c.queue.len()
}

// Start launches the workers. Calling Start more than once has no effect.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	for i := 0; i < c.cfg.Workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}
	c.logger.Info("coordinator started", zap.Int("workers", c.cfg.Workers))
}

// Stop rejects new work and waits for running attempts to return.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

func (c *Coordinator) isStopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *Coordinator) worker(ctx context.Context) {
	defer c.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		item, wait := c.queue.pop()
		if item != nil {
			c.run(ctx, item)
			continue
		}
		var timer *time.Timer
		var timeout <-chan time.Time
		if wait > 0 {
			timer = time.NewTimer(wait)
			timeout = timer.C
		}
		select {
		case <-ctx.Done():
		case <-c.queue.notify:
		case <-timeout:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (c *Coordinator) run(ctx context.Context, item *queuedOp) {
	defer c.queue.done(item)

	result, err := c.attempt(ctx, item)
	logger := c.logger.With(zap.String("op", item.op.String()), zap.String("id", item.id),
		zap.Int("attempt", item.attempts))

	switch result {
	case Succeeded:
		logger.Debug("operation succeeded")
	case Delayed:
		if ctx.Err() != nil {
			return
		}
		delay := item.backoff.NextBackOff()
		switch {
		case errors.Is(err, coordination.ErrUnavailable):
			logger.Warn("coordination service unreachable, retrying", zap.Duration("backoff", delay), zap.Error(err))
		case err != nil:
			logger.Warn("operation failed, retrying", zap.Duration("backoff", delay), zap.Error(err))
		default:
			logger.Debug("operation delayed", zap.Duration("backoff", delay))
		}
		c.queue.pushDelayed(item, delay)
	case Failed:
		logger.Error("operation failed", zap.Error(err))
	}
	c.metrics.SetQueueDepth(c.queue.len())
}

// attempt runs one Process call and classifies its outcome.
func (c *Coordinator) attempt(ctx context.Context, item *queuedOp) (result Result, err error) {
	info := item.op.Region()
	ctx, span := c.tracer.Start(ctx, "master."+item.op.Kind(), trace.WithAttributes(
		attribute.String("region", info.Name()),
		attribute.String("op.id", item.id),
		attribute.Int("op.attempt", item.attempts+1),
	))
	start := time.Now()
	item.attempts++

	defer func() {
		if r := recover(); r != nil {
			result, err = Failed, fmt.Errorf("%w: %v", errOperationPanic, r)
		}
		result = c.classify(info, result, err)
		span.SetAttributes(attribute.String("op.result", result.String()))
		if err != nil {
			span.RecordError(err)
			if result == Failed {
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.End()
		c.metrics.ObserveAttempt(item.op.Kind(), result.String(), time.Since(start))
	}()

	return item.op.Process(ctx)
}

func (c *Coordinator) classify(info region.Info, result Result, err error) Result {
	if errors.Is(err, errOperationPanic) {
		return Failed
	}
	dropped := c.regions.IsTableDropped(info.Table)
	if err != nil {
		if catalog.IsPermanent(err) || dropped {
			return Failed
		}
		return Delayed
	}
	if result == Delayed && dropped {
		return Failed
	}
	return result
}
