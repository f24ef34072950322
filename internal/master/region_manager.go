// Package master implements the region assignment engine of the cluster
// master: the shared cluster state, the operation coordinator and the
// catalog scanner.
package master

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huandu/skiplist"
	art "github.com/plar/go-adaptive-radix-tree"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"regionmaster/internal/catalog"
	"regionmaster/internal/region"
)

// RegionStateKind is the assignment phase of a region in transition.
type RegionStateKind int

const (
	// StateUnassigned means the region waits for a server.
	StateUnassigned RegionStateKind = iota
	// StateOpen means a server reported the region open and the catalog
	// has not been updated yet.
	StateOpen
)

func (k RegionStateKind) String() string {
	switch k {
	case StateUnassigned:
		return "unassigned"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("state(%d)", int(k))
	}
}

// RegionState tracks a region in transition.
type RegionState struct {
	Region region.Info
	Server region.Server
	State  RegionStateKind
	Since  time.Time
}

type onlineRegion struct {
	info   region.Info
	server region.Server
}

// Snapshot is a consistent copy of the manager state.
type Snapshot struct {
	RootLocation        string
	InitialScanComplete bool
	OnlineCatalog       []region.CatalogLocation
	PendingCatalogScan  []region.CatalogLocation
	Offlined            []region.Info
	InTransition        []RegionState
	OnlineRegions       int
}

// RegionManager owns the master's in-memory view of the cluster. A single
// mutex guards every field; callers never hold it across network calls.
type RegionManager struct {
	mu sync.Mutex

	rootLocation        string
	onlineCatalog       *skiplist.SkipList // start key -> region.CatalogLocation
	pendingCatalogScan  []region.CatalogLocation
	offlined            art.Tree // region name -> region.Info
	inTransition        map[string]RegionState
	online              map[string]onlineRegion
	initialScanComplete bool
	droppedTables       map[string]struct{}

	trigger chan struct{}
	now     func() time.Time
}

var _ catalog.Locator = (*RegionManager)(nil)

// NewRegionManager returns an empty manager.
func NewRegionManager() *RegionManager {
	return &RegionManager{
		onlineCatalog: skiplist.New(skiplist.Bytes),
		offlined:      art.New(),
		inTransition:  make(map[string]RegionState),
		online:        make(map[string]onlineRegion),
		droppedTables: make(map[string]struct{}),
		trigger:       make(chan struct{}, 1),
		now:           time.Now,
	}
}

// Txn exposes the manager mutators while the manager lock is held. It must
// not escape the function passed to Do.
type Txn struct {
	m *RegionManager
}

// Do runs fn under the manager lock so a multi-step reconciliation is
// observed atomically by every other caller.
func (m *RegionManager) Do(fn func(tx *Txn)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&Txn{m: m})
}

func (tx *Txn) IsOfflined(info region.Info) bool {
	return tx.m.isOfflinedLocked(info)
}

func (tx *Txn) IsInitialCatalogScanComplete() bool {
	return tx.m.initialScanComplete
}

func (tx *Txn) AddCatalogToScan(loc region.CatalogLocation) {
	tx.m.addCatalogToScanLocked(loc)
}

func (tx *Txn) PutCatalogOnline(loc region.CatalogLocation) {
	tx.m.putCatalogOnlineLocked(loc)
}

// SetOnline records the region as served by server and clears it from the
// regions in transition.
func (tx *Txn) SetOnline(info region.Info, server region.Server) {
	enc := info.EncodedName()
	tx.m.online[enc] = onlineRegion{info: info, server: server}
	delete(tx.m.inTransition, enc)
}

// ClearTransition forgets the transition state of info without recording
// it online.
func (tx *Txn) ClearTransition(info region.Info) {
	delete(tx.m.inTransition, info.EncodedName())
}

func (m *RegionManager) SetRootLocation(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootLocation = addr
}

// RootLocation returns the address of the root catalog partition, or "" if unknown.
func (m *RegionManager) RootLocation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootLocation
}

// AddCatalogToScan queues a catalog partition for its first scan.
func (m *RegionManager) AddCatalogToScan(loc region.CatalogLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addCatalogToScanLocked(loc)
}

func (m *RegionManager) addCatalogToScanLocked(loc region.CatalogLocation) {
	for i, pending := range m.pendingCatalogScan {
		if pending.Region.Equal(loc.Region) {
			m.pendingCatalogScan[i] = loc
			return
		}
	}
	m.pendingCatalogScan = append(m.pendingCatalogScan, loc)
}

// NextCatalogToScan pops the oldest catalog partition awaiting a scan.
func (m *RegionManager) NextCatalogToScan() (region.CatalogLocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pendingCatalogScan) == 0 {
		return region.CatalogLocation{}, false
	}
	loc := m.pendingCatalogScan[0]
	m.pendingCatalogScan = m.pendingCatalogScan[1:]
	return loc, true
}

func (m *RegionManager) PendingCatalogScan() []region.CatalogLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]region.CatalogLocation(nil), m.pendingCatalogScan...)
}

// PutCatalogOnline records the server hosting a catalog partition.
func (m *RegionManager) PutCatalogOnline(loc region.CatalogLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCatalogOnlineLocked(loc)
}

func (m *RegionManager) putCatalogOnlineLocked(loc region.CatalogLocation) {
	m.onlineCatalog.Set(append([]byte(nil), loc.StartKey()...), loc)
}

// RemoveCatalog drops a catalog partition from the online set.
func (m *RegionManager) RemoveCatalog(info region.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeCatalogLocked(info)
}

func (m *RegionManager) removeCatalogLocked(info region.Info) {
	elem := m.onlineCatalog.Get(info.Range.Start)
	if elem == nil {
		return
	}
	if loc, _ := elem.Value.(region.CatalogLocation); loc.Region.Equal(info) {
		m.onlineCatalog.RemoveElement(elem)
	}
}

// OnlineCatalog lists online catalog partitions ordered by start key.
func (m *RegionManager) OnlineCatalog() []region.CatalogLocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]region.CatalogLocation, 0, m.onlineCatalog.Len())
	for elem := m.onlineCatalog.Front(); elem != nil; elem = elem.Next() {
		out = append(out, elem.Value.(region.CatalogLocation))
	}
	return out
}

func (m *RegionManager) IsInitialCatalogScanComplete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialScanComplete
}

func (m *RegionManager) SetInitialCatalogScanComplete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialScanComplete = true
}

func (m *RegionManager) IsOfflined(info region.Info) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isOfflinedLocked(info)
}

func (m *RegionManager) isOfflinedLocked(info region.Info) bool {
	_, found := m.offlined.Search(art.Key(info.Name()))
	return found
}

// SetOffline marks a region to stop serving. The region leaves every online
// set and the regions in transition in the same critical section.
func (m *RegionManager) SetOffline(info region.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offlined.Insert(art.Key(info.Name()), info)
	enc := info.EncodedName()
	delete(m.online, enc)
	delete(m.inTransition, enc)
	if info.IsMeta() {
		m.removeCatalogLocked(info)
		for i := len(m.pendingCatalogScan) - 1; i >= 0; i-- {
			if m.pendingCatalogScan[i].Region.Equal(info) {
				m.pendingCatalogScan = slices.Delete(m.pendingCatalogScan, i, i+1)
			}
		}
	}
	if info.IsRoot() {
		m.rootLocation = ""
	}
}

// ClearOffline withdraws an offline request.
func (m *RegionManager) ClearOffline(info region.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offlined.Delete(art.Key(info.Name()))
}

// OfflinedForTable lists offlined regions of table in name order.
func (m *RegionManager) OfflinedForTable(table string) []region.Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []region.Info
	m.offlined.ForEachPrefix(art.Key(table+","), func(node art.Node) bool {
		if node.Kind() == art.Leaf {
			out = append(out, node.Value().(region.Info))
		}
		return true
	})
	return out
}

func (m *RegionManager) SetUnassigned(info region.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTransition[info.EncodedName()] = RegionState{Region: info, State: StateUnassigned, Since: m.now()}
}

// SetOpen records that server reported info open.
func (m *RegionManager) SetOpen(info region.Info, server region.Server) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inTransition[info.EncodedName()] = RegionState{Region: info, Server: server, State: StateOpen, Since: m.now()}
}

// RemoveRegion forgets a region entirely except for a pending offline request.
func (m *RegionManager) RemoveRegion(info region.Info) {
	m.mu.Lock()
	defer m.mu.Unlock()
	enc := info.EncodedName()
	delete(m.inTransition, enc)
	delete(m.online, enc)
}

// RegionInTransition returns the transition state of info, if any.
func (m *RegionManager) RegionInTransition(info region.Info) (RegionState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.inTransition[info.EncodedName()]
	return st, ok
}

// RegionsInTransition lists regions in transition ordered by encoded name.
func (m *RegionManager) RegionsInTransition() []RegionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regionsInTransitionLocked()
}

func (m *RegionManager) regionsInTransitionLocked() []RegionState {
	keys := maps.Keys(m.inTransition)
	slices.Sort(keys)
	out := make([]RegionState, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.inTransition[k])
	}
	return out
}

// OnlineServer returns the server recorded as hosting info.
func (m *RegionManager) OnlineServer(info region.Info) (region.Server, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.online[info.EncodedName()]
	return r.server, ok
}

func (m *RegionManager) MarkTableDropped(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedTables[table] = struct{}{}
}

func (m *RegionManager) IsTableDropped(table string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.droppedTables[table]
	return ok
}

// Locate implements catalog.Locator on top of the online catalog partitions.
func (m *RegionManager) Locate(_ context.Context, info region.Info) (region.CatalogLocation, error) {
	return m.LocateCatalog(info)
}

// LocateCatalog finds the catalog partition holding the row of info. Meta
// partitions are recorded in the root partition; user regions in the online
// meta partition whose range contains the region name.
func (m *RegionManager) LocateCatalog(info region.Info) (region.CatalogLocation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case info.IsRoot():
		return region.CatalogLocation{}, fmt.Errorf("%w: root partition has no catalog row", catalog.ErrNotLocatable)
	case info.IsMeta():
		if m.rootLocation == "" {
			return region.CatalogLocation{}, fmt.Errorf("%w: root location unknown", catalog.ErrNotLocatable)
		}
		return region.CatalogLocation{Address: m.rootLocation, Region: region.RootInfo}, nil
	}
	key := []byte(info.Name())
	elem := m.onlineCatalog.Back()
	for elem != nil && bytes.Compare(elem.Key().([]byte), key) > 0 {
		elem = elem.Prev()
	}
	if elem == nil {
		return region.CatalogLocation{}, fmt.Errorf("%w: no online partition for %s", catalog.ErrNotLocatable, info.Name())
	}
	loc := elem.Value.(region.CatalogLocation)
	if !loc.Region.ContainsKey(key) {
		return region.CatalogLocation{}, fmt.Errorf("%w: no online partition for %s", catalog.ErrNotLocatable, info.Name())
	}
	return loc, nil
}

// TriggerScanNow wakes the catalog scanner without blocking.
func (m *RegionManager) TriggerScanNow() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// ScanTrigger is signalled by TriggerScanNow.
func (m *RegionManager) ScanTrigger() <-chan struct{} {
	return m.trigger
}

func (m *RegionManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		RootLocation:        m.rootLocation,
		InitialScanComplete: m.initialScanComplete,
		PendingCatalogScan:  append([]region.CatalogLocation(nil), m.pendingCatalogScan...),
		InTransition:        m.regionsInTransitionLocked(),
		OnlineRegions:       len(m.online),
	}
	for elem := m.onlineCatalog.Front(); elem != nil; elem = elem.Next() {
		snap.OnlineCatalog = append(snap.OnlineCatalog, elem.Value.(region.CatalogLocation))
	}
	m.offlined.ForEach(func(node art.Node) bool {
		snap.Offlined = append(snap.Offlined, node.Value().(region.Info))
		return true
	}, art.TraverseLeaf)
	return snap
}
