// Package database provides data persistence using BoltDB.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/amaumene/streamhub/internal/models"
)

const (
	// Default database file permissions
	dbFileMode = 0600
	dbDirMode  = 0755

	// Default database filename
	defaultDBFile = "data.db"
)

var (
	bucketMeta         = []byte("meta")
	bucketDebridStatus = []byte("debrid_status")
	bucketMagnets      = []byte("magnets")
)

// MetaCache is persisted metadata for one IMDB id.
type MetaCache struct {
	Meta      models.MediaMeta `json:"meta"`
	CreatedAt time.Time        `json:"created_at"`
}

// DebridStatus is a persisted cache-check answer of one provider for one hash.
type DebridStatus struct {
	Provider  string             `json:"provider"`
	Hash      string             `json:"hash"`
	Status    models.CacheStatus `json:"status"`
	CheckedAt time.Time          `json:"checked_at"`
}

// Magnet is a torrent added to a debrid account during playback resolution,
// tracked so it can be removed later.
type Magnet struct {
	ID         string    `json:"id"`
	Hash       string    `json:"hash"`
	Name       string    `json:"name"`
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	APIKey     string    `json:"api_key"`
	AddedAt    time.Time `json:"added_at"`
}

// Database defines the interface for data persistence operations.
type Database interface {
	// GetCachedMeta retrieves metadata by IMDB id, nil when absent
	GetCachedMeta(imdbID string) (*MetaCache, error)
	// StoreMeta stores resolved metadata
	StoreMeta(meta models.MediaMeta) error
	// GetDebridStatuses returns the statuses for the given hashes that are
	// younger than maxAge
	GetDebridStatuses(provider string, hashes []string, maxAge time.Duration) (map[string]models.CacheStatus, error)
	// StoreDebridStatuses stores cache-check answers
	StoreDebridStatuses(provider string, statuses map[string]models.CacheStatus) error
	// StoreMagnet stores a magnet link
	StoreMagnet(magnet *Magnet) error
	// GetMagnets retrieves all stored magnets
	GetMagnets() ([]Magnet, error)
	// GetOldMagnets retrieves magnets older than specified duration
	GetOldMagnets(olderThan time.Duration) ([]Magnet, error)
	// DeleteMagnet removes a magnet by ID
	DeleteMagnet(id string) error
	// Close closes the database connection
	Close() error
}

// BoltDB implements the Database interface using BoltDB.
type BoltDB struct {
	db *bolt.DB
}

// NewBolt creates a new BoltDB database instance.
// If dbPath is empty, uses the default database file in current directory.
func NewBolt(dbPath string) (*BoltDB, error) {
	if dbPath == "" {
		dbPath = filepath.Join(".", defaultDBFile)
	}

	// Ensure database directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, dbDirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, dbFileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketDebridStatus, bucketMagnets} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// GetCachedMeta retrieves cached metadata by IMDB id.
// Returns nil if not found, without error.
func (b *BoltDB) GetCachedMeta(imdbID string) (*MetaCache, error) {
	var cached *MetaCache
	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get([]byte(imdbID))
		if data == nil {
			return nil
		}
		cached = &MetaCache{}
		return json.Unmarshal(data, cached)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get meta cache: %w", err)
	}
	return cached, nil
}

// StoreMeta stores metadata keyed by its id, replacing any previous entry.
func (b *BoltDB) StoreMeta(meta models.MediaMeta) error {
	if meta.ID == "" {
		return errors.New("meta without id")
	}
	data, err := json.Marshal(MetaCache{Meta: meta, CreatedAt: time.Now()})
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put([]byte(meta.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store meta cache: %w", err)
	}
	return nil
}

func statusKey(provider, hash string) []byte {
	return []byte(provider + "|" + hash)
}

// GetDebridStatuses returns the fresh statuses for hashes. Expired entries
// are left for StoreDebridStatuses to overwrite.
func (b *BoltDB) GetDebridStatuses(provider string, hashes []string, maxAge time.Duration) (map[string]models.CacheStatus, error) {
	out := make(map[string]models.CacheStatus)
	cutoff := time.Now().Add(-maxAge)

	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDebridStatus)
		for _, h := range hashes {
			data := bucket.Get(statusKey(provider, h))
			if data == nil {
				continue
			}
			var st DebridStatus
			if err := json.Unmarshal(data, &st); err != nil {
				continue
			}
			if st.CheckedAt.Before(cutoff) {
				continue
			}
			out[h] = st.Status
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get debrid statuses: %w", err)
	}
	return out, nil
}

// StoreDebridStatuses stores the answers of one provider in a single
// transaction.
func (b *BoltDB) StoreDebridStatuses(provider string, statuses map[string]models.CacheStatus) error {
	if len(statuses) == 0 {
		return nil
	}
	now := time.Now()
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDebridStatus)
		for h, s := range statuses {
			data, err := json.Marshal(DebridStatus{Provider: provider, Hash: h, Status: s, CheckedAt: now})
			if err != nil {
				return err
			}
			if err := bucket.Put(statusKey(provider, h), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store debrid statuses: %w", err)
	}
	return nil
}

// StoreMagnet stores a magnet link in the database.
// Updates existing entries or creates new ones.
func (b *BoltDB) StoreMagnet(magnet *Magnet) error {
	if magnet.AddedAt.IsZero() {
		magnet.AddedAt = time.Now()
	}
	data, err := json.Marshal(magnet)
	if err != nil {
		return err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMagnets).Put([]byte(magnet.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store magnet: %w", err)
	}
	return nil
}

// GetMagnets retrieves all stored magnets from the database.
func (b *BoltDB) GetMagnets() ([]Magnet, error) {
	return b.findMagnets(func(Magnet) bool { return true })
}

// GetOldMagnets returns magnets older than the specified duration.
// Used primarily for cleanup operations.
func (b *BoltDB) GetOldMagnets(olderThan time.Duration) ([]Magnet, error) {
	cutoff := time.Now().Add(-olderThan)
	return b.findMagnets(func(m Magnet) bool { return m.AddedAt.Before(cutoff) })
}

func (b *BoltDB) findMagnets(keep func(Magnet) bool) ([]Magnet, error) {
	var magnets []Magnet
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMagnets).ForEach(func(_, v []byte) error {
			var m Magnet
			if err := json.Unmarshal(v, &m); err != nil {
				return nil
			}
			if keep(m) {
				magnets = append(magnets, m)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get magnets: %w", err)
	}
	return magnets, nil
}

// DeleteMagnet removes a magnet by ID from the database.
// Returns nil if the magnet doesn't exist.
func (b *BoltDB) DeleteMagnet(id string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMagnets).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("failed to delete magnet: %w", err)
	}
	return nil
}
