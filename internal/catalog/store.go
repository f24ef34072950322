package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	// BackendBolt stores rows in a bbolt file, one bucket per catalog partition.
	BackendBolt = "bolt"
	// BackendPebble stores rows in a pebble LSM under prefixed keys.
	BackendPebble = "pebble"

	storeLockName = "catalog.lock"
)

// Store persists catalog rows grouped by the catalog partition holding them.
type Store interface {
	Put(catalogRegion string, row Row) error
	Get(catalogRegion, regionName string) (Row, error)
	Scan(catalogRegion string, fn func(Row) error) error
	Close() error
}

// OpenStore opens the backend under dir and holds an exclusive lock on the
// directory until Close.
func OpenStore(backend, dir string) (Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("catalog directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	lock := flock.New(filepath.Join(dir, storeLockName))
	held, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock catalog directory: %w", err)
	}
	if !held {
		return nil, ErrStoreInUse
	}

	var store Store
	switch backend {
	case "", BackendBolt:
		store, err = newBoltStore(dir)
	case BackendPebble:
		store, err = newPebbleStore(dir)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &lockedStore{Store: store, lock: lock}, nil
}

type lockedStore struct {
	Store
	lock *flock.Flock
}

func (s *lockedStore) Close() error {
	err := s.Store.Close()
	if e := s.lock.Unlock(); err == nil {
		err = e
	}
	return err
}
