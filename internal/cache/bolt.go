package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	// Default database filename
	defaultDBFile = "resolver.db"
)

var resolutionsBucket = []byte("resolutions")

// boltRecord is the on-disk representation of one entry.
type boltRecord struct {
	Value     []byte    `json:"v"`
	ExpiresAt time.Time `json:"exp"`
}

// BoltStore persists entries in a single BoltDB bucket so resolved links survive restarts.
type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

// NewBoltStore opens (or creates) the database at dbPath.
// If dbPath is empty, uses the default database file in current directory.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", defaultDBFile)
	}

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(resolutionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// Get returns the stored value. Expired records read as a miss and are left for Sweep.
func (s *BoltStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	var rec boltRecord
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(resolutionsBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !found || s.expired(rec) {
		return nil, false, nil
	}
	return rec.Value, true, nil
}

func (s *BoltStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	rec := boltRecord{Value: value}
	if ttl > 0 {
		rec.ExpiresAt = s.now().Add(ttl)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(resolutionsBucket).Put([]byte(key), data)
	})
}

// Sweep deletes expired records and returns how many were removed.
func (s *BoltStore) Sweep() (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(resolutionsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil || s.expired(rec) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Close closes the database connection.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) expired(rec boltRecord) bool {
	return !rec.ExpiresAt.IsZero() && s.now().After(rec.ExpiresAt)
}
