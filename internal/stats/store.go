// Package stats persists one transaction-volume summary per completed epoch.
package stats

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// recordKeyPrefix namespaces epoch records; the epoch number follows as 8
// big-endian bytes so iteration yields ascending epochs.
const recordKeyPrefix = "epoch/"

// Record is one persisted per-epoch summary. Written once shortly after the
// epoch ends, never mutated.
type Record struct {
	Epoch                 uint64    `json:"epoch"`
	EstimatedTransactions uint64    `json:"estimated_transactions"`
	RecordedAt            time.Time `json:"recorded_at"`
}

type StoreConfig struct {
	Logger *slog.Logger
	Path   string
	NowFn  func() time.Time
}

func (c *StoreConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Path == "" {
		return errors.New("path is required")
	}
	if c.NowFn == nil {
		c.NowFn = time.Now
	}
	return nil
}

// Store is an embedded LevelDB keyed by epoch number. It assumes a single
// writer process; the RecordOnce check-then-write is not atomic, and a lost
// race simply rewrites the same epoch's summary.
type Store struct {
	log   *slog.Logger
	db    *leveldb.DB
	nowFn func() time.Time
}

func Open(cfg *StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(cfg.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats store at %s: %w", cfg.Path, err)
	}
	return &Store{
		log:   cfg.Logger,
		db:    db,
		nowFn: cfg.NowFn,
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RecordOnce persists a summary for the epoch unless one already exists.
// Returns whether a record was written; re-recording an epoch is a no-op.
func (s *Store) RecordOnce(epoch uint64, estimatedTransactions uint64) (bool, error) {
	key := recordKey(epoch)
	exists, err := s.db.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing record: %w", err)
	}
	if exists {
		s.log.Debug("epoch already recorded", "epoch", epoch)
		return false, nil
	}

	rec := Record{
		Epoch:                 epoch,
		EstimatedTransactions: estimatedTransactions,
		RecordedAt:            s.nowFn().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to marshal record for epoch %d: %w", epoch, err)
	}
	if err := s.db.Put(key, data, nil); err != nil {
		return false, fmt.Errorf("failed to write record for epoch %d: %w", epoch, err)
	}
	s.log.Debug("recorded epoch stats", "epoch", epoch, "estimatedTransactions", estimatedTransactions)
	return true, nil
}

// LoadAll scans every persisted record in ascending epoch order. The normal
// write pattern records epochs as they complete, so this matches insertion
// order. An empty store yields an empty slice, not an error.
func (s *Store) LoadAll() ([]Record, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(recordKeyPrefix)), nil)
	defer iter.Release()

	var records []Record
	for iter.Next() {
		var rec Record
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode record at key %x: %w", iter.Key(), err)
		}
		records = append(records, rec)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("failed to scan records: %w", err)
	}
	return records, nil
}

func recordKey(epoch uint64) []byte {
	key := make([]byte, len(recordKeyPrefix)+8)
	copy(key, recordKeyPrefix)
	binary.BigEndian.PutUint64(key[len(recordKeyPrefix):], epoch)
	return key
}
