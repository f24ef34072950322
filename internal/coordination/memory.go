package coordination

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryClient keeps markers in process memory. It is used when no
// coordination service is configured and by tests.
type MemoryClient struct {
	mu      sync.Mutex
	markers map[string][]byte
	deletes int
}

var _ Client = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{markers: make(map[string][]byte)}
}

func (m *MemoryClient) CreateUnassigned(_ context.Context, encodedName string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.markers[encodedName]; ok {
		return fmt.Errorf("%w: %s", ErrMarkerExists, encodedName)
	}
	m.markers[encodedName] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryClient) DeleteUnassigned(_ context.Context, encodedName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.markers, encodedName)
	return nil
}

func (m *MemoryClient) UnassignedExists(_ context.Context, encodedName string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.markers[encodedName]
	return ok, nil
}

func (m *MemoryClient) ListUnassigned(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.markers))
	for name := range m.markers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Deletes returns how many DeleteUnassigned calls were made.
func (m *MemoryClient) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}
