package master_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"regionmaster/internal/catalog"
	"regionmaster/internal/master"
	"regionmaster/internal/region"
)

func TestLocateCatalog(t *testing.T) {
	m := master.NewRegionManager()
	users := region.NewInfo("users", []byte("c"), nil, 7)

	_, err := m.LocateCatalog(region.FirstMetaInfo)
	require.True(t, errors.Is(err, catalog.ErrNotLocatable))
	_, err = m.LocateCatalog(users)
	require.True(t, errors.Is(err, catalog.ErrNotLocatable))
	_, err = m.LocateCatalog(region.RootInfo)
	require.True(t, errors.Is(err, catalog.ErrNotLocatable))

	m.SetRootLocation("root:60020")
	loc, err := m.LocateCatalog(region.FirstMetaInfo)
	require.NoError(t, err)
	require.Equal(t, "root:60020", loc.Address)
	require.True(t, loc.Region.IsRoot())

	meta1 := region.NewInfo(region.MetaTableName, nil, []byte("users,m"), 1)
	meta2 := region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 2)
	m.PutCatalogOnline(region.CatalogLocation{Address: "meta-2:60020", Region: meta2})
	m.PutCatalogOnline(region.CatalogLocation{Address: "meta-1:60020", Region: meta1})

	cases := []struct {
		info region.Info
		addr string
	}{
		{region.NewInfo("users", []byte("a"), nil, 3), "meta-1:60020"},
		{region.NewInfo("users", []byte("m"), nil, 5), "meta-2:60020"},
		{region.NewInfo("users", []byte("q"), nil, 4), "meta-2:60020"},
		{region.NewInfo("accounts", nil, nil, 9), "meta-1:60020"},
	}
	for _, tc := range cases {
		loc, err := m.Locate(context.Background(), tc.info)
		require.NoError(t, err, tc.info.Name())
		require.Equal(t, tc.addr, loc.Address, tc.info.Name())
	}

	online := m.OnlineCatalog()
	require.Len(t, online, 2)
	require.True(t, online[0].Region.Equal(meta1))
}

func TestLocateCatalogGap(t *testing.T) {
	m := master.NewRegionManager()
	meta2 := region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 2)
	m.PutCatalogOnline(region.CatalogLocation{Address: "meta-2:60020", Region: meta2})

	_, err := m.LocateCatalog(region.NewInfo("users", []byte("a"), nil, 3))
	require.True(t, errors.Is(err, catalog.ErrNotLocatable))
}

func TestSetOfflineRemovesRegionEverywhere(t *testing.T) {
	m := master.NewRegionManager()
	meta := region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 2)
	loc := region.CatalogLocation{Address: "meta-2:60020", Region: meta}
	m.PutCatalogOnline(loc)
	m.AddCatalogToScan(loc)
	m.SetOpen(meta, serverA)
	m.Do(func(tx *master.Txn) { tx.SetOnline(meta, serverA) })

	m.SetOffline(meta)

	require.True(t, m.IsOfflined(meta))
	require.Empty(t, m.OnlineCatalog())
	require.Empty(t, m.PendingCatalogScan())
	require.Empty(t, m.RegionsInTransition())
	_, online := m.OnlineServer(meta)
	require.False(t, online)

	m.ClearOffline(meta)
	require.False(t, m.IsOfflined(meta))
}

func TestSetOfflineDropsOnlyMatchingPendingScan(t *testing.T) {
	m := master.NewRegionManager()
	meta1 := region.CatalogLocation{Address: "a:1", Region: region.NewInfo(region.MetaTableName, nil, []byte("m"), 1)}
	meta2 := region.CatalogLocation{Address: "b:1", Region: region.NewInfo(region.MetaTableName, []byte("m"), []byte("t"), 2)}
	meta3 := region.CatalogLocation{Address: "c:1", Region: region.NewInfo(region.MetaTableName, []byte("t"), nil, 3)}
	m.AddCatalogToScan(meta1)
	m.AddCatalogToScan(meta2)
	m.AddCatalogToScan(meta3)

	m.SetOffline(meta2.Region)

	pending := m.PendingCatalogScan()
	require.Len(t, pending, 2)
	require.Equal(t, "a:1", pending[0].Address)
	require.Equal(t, "c:1", pending[1].Address)
	require.Empty(t, m.OnlineCatalog())
}

func TestRemoveCatalog(t *testing.T) {
	m := master.NewRegionManager()
	meta1 := region.NewInfo(region.MetaTableName, nil, []byte("users,m"), 1)
	meta2 := region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 2)
	m.PutCatalogOnline(region.CatalogLocation{Address: "meta-1:60020", Region: meta1})
	m.PutCatalogOnline(region.CatalogLocation{Address: "meta-2:60020", Region: meta2})

	// Same start key, different partition: nothing is removed.
	m.RemoveCatalog(region.NewInfo(region.MetaTableName, []byte("users,m"), nil, 8))
	require.Len(t, m.OnlineCatalog(), 2)
	m.RemoveCatalog(region.NewInfo(region.MetaTableName, []byte("users,x"), nil, 2))
	require.Len(t, m.OnlineCatalog(), 2)

	m.RemoveCatalog(meta2)
	online := m.OnlineCatalog()
	require.Len(t, online, 1)
	require.True(t, online[0].Region.Equal(meta1))
	_, err := m.LocateCatalog(region.NewInfo("users", []byte("q"), nil, 4))
	require.True(t, errors.Is(err, catalog.ErrNotLocatable))

	m.RemoveCatalog(meta2)
	require.Len(t, m.OnlineCatalog(), 1)
}

func TestOfflinedForTable(t *testing.T) {
	m := master.NewRegionManager()
	u1 := region.NewInfo("users", nil, []byte("m"), 1)
	u2 := region.NewInfo("users", []byte("m"), nil, 2)
	other := region.NewInfo("users_archive", nil, nil, 3)
	m.SetOffline(u2)
	m.SetOffline(other)
	m.SetOffline(u1)

	got := m.OfflinedForTable("users")
	require.Len(t, got, 2)
	require.True(t, got[0].Equal(u1))
	require.True(t, got[1].Equal(u2))
	require.Empty(t, m.OfflinedForTable("orders"))
}

func TestPendingCatalogScanIsFIFO(t *testing.T) {
	m := master.NewRegionManager()
	first := region.CatalogLocation{Address: "a:1", Region: region.NewInfo(region.MetaTableName, nil, []byte("m"), 1)}
	second := region.CatalogLocation{Address: "b:1", Region: region.NewInfo(region.MetaTableName, []byte("m"), nil, 2)}
	m.AddCatalogToScan(first)
	m.AddCatalogToScan(second)
	m.AddCatalogToScan(first)
	require.Len(t, m.PendingCatalogScan(), 2)

	loc, ok := m.NextCatalogToScan()
	require.True(t, ok)
	require.Equal(t, "a:1", loc.Address)
	loc, ok = m.NextCatalogToScan()
	require.True(t, ok)
	require.Equal(t, "b:1", loc.Address)
	_, ok = m.NextCatalogToScan()
	require.False(t, ok)
}

func TestTriggerScanNowCoalesces(t *testing.T) {
	m := master.NewRegionManager()
	m.TriggerScanNow()
	m.TriggerScanNow()

	<-m.ScanTrigger()
	select {
	case <-m.ScanTrigger():
		t.Fatal("expected a single pending wake")
	default:
	}
}

func TestSnapshot(t *testing.T) {
	m := master.NewRegionManager()
	r1 := region.NewInfo("users", nil, []byte("m"), 1)
	r2 := region.NewInfo("users", []byte("m"), nil, 2)
	m.SetRootLocation("root:1")
	m.PutCatalogOnline(metaOnline("meta:1"))
	m.SetUnassigned(r1)
	m.SetOpen(r2, serverB)
	m.SetOffline(region.NewInfo("orders", nil, nil, 3))
	m.MarkTableDropped("orders")

	snap := m.Snapshot()
	require.Equal(t, "root:1", snap.RootLocation)
	require.False(t, snap.InitialScanComplete)
	require.Len(t, snap.OnlineCatalog, 1)
	require.Len(t, snap.InTransition, 2)
	require.Len(t, snap.Offlined, 1)
	require.Equal(t, 0, snap.OnlineRegions)
	require.True(t, m.IsTableDropped("orders"))
	require.False(t, m.IsTableDropped("users"))

	m.RemoveRegion(r1)
	require.Len(t, m.RegionsInTransition(), 1)
}
