package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when no analysis is cached for a position.
var ErrNotFound = errors.New("storage: no cached analysis")

// AnalysisRecord stores the result of a finished search for one position.
type AnalysisRecord struct {
	BestMove   string    `json:"best_move"`
	Score      int       `json:"score"`
	Depth      int       `json:"depth"`
	Nodes      uint64    `json:"nodes"`
	PV         []string  `json:"pv,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Storage wraps BadgerDB for the persistent analysis cache.
type Storage struct {
	db *badger.DB
}

// NewStorage opens the analysis cache in the default data directory.
func NewStorage() (*Storage, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}
	return Open(cacheDir)
}

// Open opens the analysis cache rooted at dir.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open analysis cache: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// positionKey derives a fixed-size key from an SFEN string.
func positionKey(sfen string) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, xxhash.Sum64String(sfen))
	return key
}

// SaveAnalysis caches the search result for a position.
func (s *Storage) SaveAnalysis(sfen string, rec *AnalysisRecord) error {
	rec.AnalyzedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(positionKey(sfen), data)
	})
}

// LoadAnalysis returns the cached search result for a position,
// or ErrNotFound if the position has not been analyzed.
func (s *Storage) LoadAnalysis(sfen string) (*AnalysisRecord, error) {
	var rec AnalysisRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(positionKey(sfen))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// DropAll removes every cached record.
func (s *Storage) DropAll() error {
	return s.db.DropAll()
}
