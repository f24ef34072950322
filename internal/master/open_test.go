package master_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"regionmaster/internal/catalog"
	"regionmaster/internal/coordination"
	"regionmaster/internal/master"
	"regionmaster/internal/observability/metrics"
	"regionmaster/internal/region"
)

type openFixture struct {
	regions *master.RegionManager
	writer  *recordingWriter
	coord   *coordination.MemoryClient
}

func newOpenFixture() *openFixture {
	return &openFixture{
		regions: master.NewRegionManager(),
		writer:  newRecordingWriter(),
		coord:   coordination.NewMemoryClient(),
	}
}

func (f *openFixture) transition(t *testing.T, info region.Info, server region.Server) master.Operation {
	return master.NewOpenTransition(info, server, f.regions, catalog.NewClient(f.regions, f.writer), f.coord,
		nil, zaptest.NewLogger(t))
}

func TestOpenWritesCatalogRow(t *testing.T) {
	f := newOpenFixture()
	f.regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, []byte("m"), 11)
	f.regions.SetOpen(r1, serverA)

	op := f.transition(t, r1, serverA)
	require.Equal(t, master.OpenPriority, op.Priority())
	result, err := op.Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)

	a, ok := f.writer.row(r1.Name())
	require.True(t, ok)
	require.Equal(t, catalog.Assignment{Server: "10.0.0.1:60020", StartCode: 5}, a)
	require.Equal(t, "meta-1:60020", f.writer.lastTarget().Address)

	require.False(t, f.regions.IsOfflined(r1))
	server, ok := f.regions.OnlineServer(r1)
	require.True(t, ok)
	require.True(t, server.SameIncarnation(serverA))
	_, inTransition := f.regions.RegionInTransition(r1)
	require.False(t, inTransition)
}

func TestOpenCatalogPartitionBeforeInitialScan(t *testing.T) {
	f := newOpenFixture()
	f.regions.SetRootLocation("root:60020")
	r1 := region.FirstMetaInfo

	result, err := f.transition(t, r1, serverA).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)

	require.Equal(t, region.RootInfo.Name(), f.writer.lastTarget().Region.Name())
	pending := f.regions.PendingCatalogScan()
	require.Len(t, pending, 1)
	require.True(t, pending[0].Region.Equal(r1))
	require.Equal(t, serverA.HostPort(), pending[0].Address)
	require.Empty(t, f.regions.OnlineCatalog())
}

func TestOpenCatalogPartitionAfterInitialScanWakesScanner(t *testing.T) {
	f := newOpenFixture()
	f.regions.SetRootLocation("root:60020")
	f.regions.SetInitialCatalogScanComplete()
	meta2 := region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 2)

	result, err := f.transition(t, meta2, serverA).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)

	online := f.regions.OnlineCatalog()
	require.Len(t, online, 1)
	require.True(t, online[0].Region.Equal(meta2))
	require.Empty(t, f.regions.PendingCatalogScan())

	select {
	case <-f.regions.ScanTrigger():
	default:
		t.Fatal("expected scanner wake")
	}
}

func TestOpenDelayedWhenCatalogNotLocatable(t *testing.T) {
	f := newOpenFixture()
	r1 := region.NewInfo("users", nil, nil, 11)
	f.regions.SetOpen(r1, serverA)
	before := f.regions.Snapshot()

	result, err := f.transition(t, r1, serverA).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Delayed, result)
	require.Equal(t, 0, f.writer.attempts())
	require.Equal(t, before, f.regions.Snapshot())
}

func TestOpenOfOfflinedRegionDeletesMarker(t *testing.T) {
	f := newOpenFixture()
	ctx := context.Background()
	f.regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, nil, 11)
	require.NoError(t, f.coord.CreateUnassigned(ctx, r1.EncodedName(), nil))
	f.regions.SetOffline(r1)
	before := f.regions.Snapshot()

	result, err := f.transition(t, r1, serverA).Process(ctx)
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)

	exists, err := f.coord.UnassignedExists(ctx, r1.EncodedName())
	require.NoError(t, err)
	require.False(t, exists)
	require.Equal(t, 1, f.coord.Deletes())
	require.True(t, f.regions.IsOfflined(r1))
	require.Equal(t, before, f.regions.Snapshot())
}

func TestOfflineAfterOpenLeavesRegionOffline(t *testing.T) {
	f := newOpenFixture()
	f.regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, nil, 11)

	result, err := f.transition(t, r1, serverA).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)
	f.regions.SetOffline(r1)

	_, online := f.regions.OnlineServer(r1)
	require.False(t, online)
	require.True(t, f.regions.IsOfflined(r1))
	require.Equal(t, 0, f.coord.Deletes())
}

func TestOfflineDuringCatalogWriteWins(t *testing.T) {
	f := newOpenFixture()
	f.regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	f.regions.SetInitialCatalogScanComplete()
	f.regions.SetRootLocation("root:60020")
	meta2 := region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 2)
	f.writer.onPut = func(info region.Info) { f.regions.SetOffline(info) }

	result, err := f.transition(t, meta2, serverA).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)

	require.True(t, f.regions.IsOfflined(meta2))
	for _, loc := range f.regions.OnlineCatalog() {
		require.False(t, loc.Region.Equal(meta2))
	}
	_, online := f.regions.OnlineServer(meta2)
	require.False(t, online)
	require.Equal(t, 1, f.coord.Deletes())
}

func TestOpenRewritesIdenticalRowOnRetry(t *testing.T) {
	f := newOpenFixture()
	f.regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, nil, 11)
	op := f.transition(t, r1, serverA)

	for i := 0; i < 2; i++ {
		result, err := op.Process(context.Background())
		require.NoError(t, err)
		require.Equal(t, master.Succeeded, result)
	}
	require.Equal(t, 2, f.writer.attempts())
	a, _ := f.writer.row(r1.Name())
	require.Equal(t, catalog.Assignment{Server: serverA.HostPort(), StartCode: serverA.StartCode}, a)
	require.Len(t, f.regions.Snapshot().InTransition, 0)
}

type failingCoordination struct {
	*coordination.MemoryClient
	err error
}

func (c failingCoordination) DeleteUnassigned(context.Context, string) error {
	return c.err
}

func TestOpenPropagatesMarkerDeleteError(t *testing.T) {
	regions := master.NewRegionManager()
	regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, nil, 11)
	regions.SetOffline(r1)

	op := master.NewOpenTransition(r1, serverA, regions, catalog.NewClient(regions, newRecordingWriter()),
		failingCoordination{coordination.NewMemoryClient(), errors.New("marker store rejected delete")}, nil,
		zaptest.NewLogger(t))
	result, err := op.Process(context.Background())
	require.Error(t, err)
	require.Equal(t, master.Delayed, result)
	require.False(t, catalog.IsPermanent(err))
	require.False(t, errors.Is(err, coordination.ErrUnavailable))
}

func TestOpenMarksUnreachableCoordination(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewAssignmentCollector(reg, "")
	regions := master.NewRegionManager()
	regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, nil, 11)
	regions.SetOffline(r1)

	op := master.NewOpenTransition(r1, serverA, regions, catalog.NewClient(regions, newRecordingWriter()),
		failingCoordination{coordination.NewMemoryClient(), fmt.Errorf("kv delete: %w", nats.ErrTimeout)}, collector,
		zaptest.NewLogger(t))
	result, err := op.Process(context.Background())
	require.Equal(t, master.Delayed, result)
	require.True(t, errors.Is(err, coordination.ErrUnavailable))
	require.True(t, errors.Is(err, nats.ErrTimeout))

	expected := `
# HELP regionmaster_coordination_unavailable_total Coordination calls that failed because the service was unreachable.
# TYPE regionmaster_coordination_unavailable_total counter
regionmaster_coordination_unavailable_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"regionmaster_coordination_unavailable_total"))
}

func TestLostRaceClearsTransition(t *testing.T) {
	f := newOpenFixture()
	f.regions.PutCatalogOnline(metaOnline("meta-1:60020"))
	r1 := region.NewInfo("users", nil, nil, 11)
	f.regions.SetOffline(r1)
	f.regions.SetOpen(r1, serverA)

	result, err := f.transition(t, r1, serverA).Process(context.Background())
	require.NoError(t, err)
	require.Equal(t, master.Succeeded, result)

	_, inTransition := f.regions.RegionInTransition(r1)
	require.False(t, inTransition)
	require.True(t, f.regions.IsOfflined(r1))
	_, online := f.regions.OnlineServer(r1)
	require.False(t, online)
}
