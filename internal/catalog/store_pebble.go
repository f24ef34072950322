package catalog

import (
	"encoding/json"
	"errors"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

const pebbleDirName = "pebble"

// Keys are "<catalogRegion>\x00<regionName>" so a partition scans as one prefix.
type pebbleStore struct {
	db *pebble.DB
}

func newPebbleStore(dir string) (*pebbleStore, error) {
	db, err := pebble.Open(filepath.Join(dir, pebbleDirName), &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &pebbleStore{db: db}, nil
}

func pebbleKey(catalogRegion, regionName string) []byte {
	key := make([]byte, 0, len(catalogRegion)+1+len(regionName))
	key = append(key, catalogRegion...)
	key = append(key, 0)
	return append(key, regionName...)
}

func (p *pebbleStore) Put(catalogRegion string, row Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return p.db.Set(pebbleKey(catalogRegion, row.Region), data, pebble.Sync)
}

func (p *pebbleStore) Get(catalogRegion, regionName string) (Row, error) {
	data, closer, err := p.db.Get(pebbleKey(catalogRegion, regionName))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Row{}, ErrRowNotFound
		}
		return Row{}, err
	}
	defer closer.Close()
	var row Row
	if err := json.Unmarshal(data, &row); err != nil {
		return Row{}, err
	}
	return row, nil
}

func (p *pebbleStore) Scan(catalogRegion string, fn func(Row) error) error {
	lower := pebbleKey(catalogRegion, "")
	upper := append([]byte(catalogRegion), 1)
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		var row Row
		if err := json.Unmarshal(iter.Value(), &row); err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (p *pebbleStore) Close() error {
	return p.db.Close()
}
