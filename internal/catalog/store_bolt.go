package catalog

import (
	"encoding/json"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

const boltFileName = "catalog.db"

type boltStore struct {
	db *bolt.DB
}

func newBoltStore(dir string) (*boltStore, error) {
	db, err := bolt.Open(filepath.Join(dir, boltFileName), 0o600, &bolt.Options{Timeout: 0})
	if err != nil {
		return nil, err
	}
	return &boltStore{db: db}, nil
}

func (b *boltStore) Put(catalogRegion string, row Row) error {
	if err := row.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(catalogRegion))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(row.Region), data)
	})
}

func (b *boltStore) Get(catalogRegion, regionName string) (Row, error) {
	var row Row
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogRegion))
		if bucket == nil {
			return ErrRowNotFound
		}
		data := bucket.Get([]byte(regionName))
		if data == nil {
			return ErrRowNotFound
		}
		return json.Unmarshal(data, &row)
	})
	return row, err
}

func (b *boltStore) Scan(catalogRegion string, fn func(Row) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogRegion))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var row Row
			if err := json.Unmarshal(v, &row); err != nil {
				return err
			}
			return fn(row)
		})
	})
}

func (b *boltStore) Close() error {
	return b.db.Close()
}
