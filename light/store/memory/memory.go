// Package memory provides an in-memory light block store. Its main use is as
// the throwaway state of a single witness verification: the fork detector
// creates one per witness and drops it afterwards, so a failed check can
// never pollute the next one.
package memory

import (
	"github.com/corvuschain/corvus-light/light/store"
	tmsync "github.com/corvuschain/corvus-light/libs/sync"
	"github.com/corvuschain/corvus-light/types"
)

type key struct {
	height int64
	status store.Status
}

// Store implements store.Store backed by a plain map.
type Store struct {
	mtx    tmsync.RWMutex
	blocks map[key]*types.LightBlock
}

var _ store.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		blocks: make(map[key]*types.LightBlock),
	}
}

// Insert adds the block under (its height, status), replacing any block
// already stored under the same pair.
func (s *Store) Insert(lb *types.LightBlock, status store.Status) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.blocks[key{lb.Height, status}] = lb
	return nil
}

// Get returns the block stored under (height, status), or nil.
func (s *Store) Get(height int64, status store.Status) (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.blocks[key{height, status}], nil
}

// Highest returns the block with the greatest height stored under status, or
// nil.
func (s *Store) Highest(status store.Status) (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.highest(status), nil
}

// HighestTrustedOrVerified returns the block with the greatest height stored
// under StatusTrusted or StatusVerified, or nil.
func (s *Store) HighestTrustedOrVerified() (*types.LightBlock, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	trusted := s.highest(store.StatusTrusted)
	verified := s.highest(store.StatusVerified)

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

func (s *Store) highest(status store.Status) *types.LightBlock {
	var best *types.LightBlock
	for k, lb := range s.blocks {
		if k.status != status {
			continue
		}
		if best == nil || k.height > best.Height {
			best = lb
		}
	}
	return best
}

// UpdateStatus moves the block stored under (height, from) to (height, to).
// No-op if the block is absent or the move is a downgrade.
func (s *Store) UpdateStatus(height int64, from, to store.Status) error {
	if to < from {
		return nil
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	lb, ok := s.blocks[key{height, from}]
	if !ok {
		return nil
	}
	delete(s.blocks, key{height, from})
	s.blocks[key{height, to}] = lb
	return nil
}

// Size returns the number of stored blocks across all statuses.
func (s *Store) Size() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return len(s.blocks)
}
