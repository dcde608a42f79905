// Package db provides a light block store persisted in a tm-db database.
// It is meant for trust roots and verified headers that must survive
// restarts; per-witness detection state belongs in store/memory instead.
package db

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	dbm "github.com/tendermint/tm-db"

	"github.com/corvuschain/corvus-light/light/store"
	tmsync "github.com/corvuschain/corvus-light/libs/sync"
	"github.com/corvuschain/corvus-light/types"
)

// Store implements store.Store on top of a tm-db database.
//
// The number of blocks kept per status can be optionally limited by calling
// SetLimit with the desired limit: on insert, the oldest blocks beyond the
// limit are pruned.
type Store struct {
	db     dbm.DB
	prefix string

	mtx   tmsync.Mutex
	limit int
}

var _ store.Store = (*Store)(nil)

// New returns a Store backed by db. All keys are namespaced by prefix, so
// several stores (e.g. one per chain) can share one database.
func New(db dbm.DB, prefix string) *Store {
	return &Store{db: db, prefix: prefix}
}

// SetLimit limits the number of blocks kept per status. E.g. 3 will result
// in storing only the blocks for the 3 latest heights of each status.
func (s *Store) SetLimit(limit int) *Store {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.limit = limit
	return s
}

// Insert adds the block under (its height, status), replacing any block
// already stored under the same pair.
func (s *Store) Insert(lb *types.LightBlock, status store.Status) error {
	bz, err := json.Marshal(lb)
	if err != nil {
		return errors.Wrap(err, "marshalling LightBlock")
	}

	if err := s.db.SetSync(s.key(status, lb.Height), bz); err != nil {
		return err
	}

	s.mtx.Lock()
	limit := s.limit
	s.mtx.Unlock()
	if limit > 0 {
		return s.prune(status, limit)
	}
	return nil
}

// Get returns the block stored under (height, status), or nil.
func (s *Store) Get(height int64, status store.Status) (*types.LightBlock, error) {
	bz, err := s.db.Get(s.key(status, height))
	if err != nil {
		return nil, err
	}
	if len(bz) == 0 {
		return nil, nil
	}
	return s.decode(bz)
}

// Highest returns the block with the greatest height stored under status, or
// nil.
func (s *Store) Highest(status store.Status) (*types.LightBlock, error) {
	itr, err := s.db.ReverseIterator(s.key(status, 1), s.keyUpperBound(status))
	if err != nil {
		return nil, err
	}
	defer itr.Close()

	if !itr.Valid() {
		return nil, itr.Error()
	}
	return s.decode(itr.Value())
}

// HighestTrustedOrVerified returns the block with the greatest height stored
// under StatusTrusted or StatusVerified, or nil.
func (s *Store) HighestTrustedOrVerified() (*types.LightBlock, error) {
	trusted, err := s.Highest(store.StatusTrusted)
	if err != nil {
		return nil, err
	}
	verified, err := s.Highest(store.StatusVerified)
	if err != nil {
		return nil, err
	}

	switch {
	case trusted == nil:
		return verified, nil
	case verified == nil:
		return trusted, nil
	case trusted.Height >= verified.Height:
		return trusted, nil
	default:
		return verified, nil
	}
}

// UpdateStatus moves the block stored under (height, from) to (height, to).
// No-op if the block is absent or the move is a downgrade.
func (s *Store) UpdateStatus(height int64, from, to store.Status) error {
	if to < from {
		return nil
	}

	bz, err := s.db.Get(s.key(from, height))
	if err != nil {
		return err
	}
	if len(bz) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete(s.key(from, height)); err != nil {
		return err
	}
	if err := batch.Set(s.key(to, height), bz); err != nil {
		return err
	}
	return batch.WriteSync()
}

// prune deletes all but the latest n blocks of the given status.
func (s *Store) prune(status store.Status, n int) error {
	itr, err := s.db.ReverseIterator(s.key(status, 1), s.keyUpperBound(status))
	if err != nil {
		return err
	}
	defer itr.Close()

	batch := s.db.NewBatch()
	defer batch.Close()

	seen := 0
	for ; itr.Valid(); itr.Next() {
		seen++
		if seen <= n {
			continue
		}
		key := make([]byte, len(itr.Key()))
		copy(key, itr.Key())
		if err := batch.Delete(key); err != nil {
			return err
		}
	}
	if err := itr.Error(); err != nil {
		return err
	}

	return batch.WriteSync()
}

func (s *Store) decode(bz []byte) (*types.LightBlock, error) {
	var lb types.LightBlock
	if err := json.Unmarshal(bz, &lb); err != nil {
		return nil, errors.Wrap(err, "unmarshalling LightBlock")
	}

	// Recompute cached totals so deep-equality with freshly built sets holds.
	if lb.ValidatorSet != nil {
		lb.ValidatorSet.TotalVotingPower()
	}
	if lb.NextValidatorSet != nil {
		lb.NextValidatorSet.TotalVotingPower()
	}
	return &lb, nil
}

//----------------------------------------
// key encoding

func (s *Store) key(status store.Status, height int64) []byte {
	return []byte(fmt.Sprintf("lb/%s/%d/%020d", s.prefix, status, height))
}

func (s *Store) keyUpperBound(status store.Status) []byte {
	return append([]byte(fmt.Sprintf("lb/%s/%d/", s.prefix, status)), 0xff)
}
