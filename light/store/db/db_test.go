package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/corvuschain/corvus-light/internal/test/factory"
	"github.com/corvuschain/corvus-light/light/store"
	"github.com/corvuschain/corvus-light/types"
)

const chainID = "corvus-test"

func genChain(t *testing.T, numBlocks int64) map[int64]*types.LightBlock {
	t.Helper()

	bTime, _ := time.Parse(time.RFC3339, "2006-01-02T15:04:05Z")
	headers, valsets, _ := factory.GenLightBlocksWithKeys(chainID, numBlocks, 3, bTime)

	blocks := make(map[int64]*types.LightBlock, numBlocks)
	for height := int64(1); height <= numBlocks; height++ {
		blocks[height] = &types.LightBlock{
			SignedHeader:     headers[height],
			ValidatorSet:     valsets[height],
			NextValidatorSet: valsets[height+1],
			Provider:         "test",
		}
	}
	return blocks
}

func TestStoreRoundTrip(t *testing.T) {
	blocks := genChain(t, 3)
	s := New(dbm.NewMemDB(), chainID)

	require.NoError(t, s.Insert(blocks[2], store.StatusTrusted))

	got, err := s.Get(2, store.StatusTrusted)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, blocks[2].Hash(), got.Hash())
	assert.Equal(t, blocks[2].Provider, got.Provider)
	require.NoError(t, got.ValidateBasic(chainID))

	// absent (height, status) pairs come back nil, not as an error
	got, err = s.Get(2, store.StatusVerified)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = s.Get(9, store.StatusTrusted)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreHighest(t *testing.T) {
	blocks := genChain(t, 12)
	s := New(dbm.NewMemDB(), chainID)

	require.NoError(t, s.Insert(blocks[1], store.StatusTrusted))
	require.NoError(t, s.Insert(blocks[2], store.StatusVerified))
	// heights must sort numerically, not lexically
	require.NoError(t, s.Insert(blocks[10], store.StatusVerified))
	require.NoError(t, s.Insert(blocks[12], store.StatusUnverified))

	lb, err := s.Highest(store.StatusVerified)
	require.NoError(t, err)
	require.NotNil(t, lb)
	assert.EqualValues(t, 10, lb.Height)

	lb, err = s.HighestTrustedOrVerified()
	require.NoError(t, err)
	require.NotNil(t, lb)
	assert.EqualValues(t, 10, lb.Height)

	lb, err = s.Highest(store.StatusFailed)
	require.NoError(t, err)
	assert.Nil(t, lb)
}

func TestStoreUpdateStatus(t *testing.T) {
	blocks := genChain(t, 2)
	s := New(dbm.NewMemDB(), chainID)

	require.NoError(t, s.Insert(blocks[2], store.StatusUnverified))
	require.NoError(t, s.UpdateStatus(2, store.StatusUnverified, store.StatusVerified))

	lb, err := s.Get(2, store.StatusVerified)
	require.NoError(t, err)
	assert.NotNil(t, lb)
	lb, err = s.Get(2, store.StatusUnverified)
	require.NoError(t, err)
	assert.Nil(t, lb)

	// downgrades are ignored
	require.NoError(t, s.UpdateStatus(2, store.StatusVerified, store.StatusUnverified))
	lb, err = s.Get(2, store.StatusVerified)
	require.NoError(t, err)
	assert.NotNil(t, lb)
}

func TestStorePrune(t *testing.T) {
	blocks := genChain(t, 5)
	s := New(dbm.NewMemDB(), chainID).SetLimit(2)

	for height := int64(1); height <= 5; height++ {
		require.NoError(t, s.Insert(blocks[height], store.StatusTrusted))
	}

	// only the latest two heights survive
	for height := int64(1); height <= 3; height++ {
		lb, err := s.Get(height, store.StatusTrusted)
		require.NoError(t, err)
		assert.Nil(t, lb, "expected height %d to be pruned", height)
	}
	for height := int64(4); height <= 5; height++ {
		lb, err := s.Get(height, store.StatusTrusted)
		require.NoError(t, err)
		assert.NotNil(t, lb, "expected height %d to survive pruning", height)
	}
}

func TestStoresWithDifferentPrefixesAreIsolated(t *testing.T) {
	blocks := genChain(t, 1)
	db := dbm.NewMemDB()
	s1 := New(db, "chain-1")
	s2 := New(db, "chain-2")

	require.NoError(t, s1.Insert(blocks[1], store.StatusTrusted))

	lb, err := s2.Get(1, store.StatusTrusted)
	require.NoError(t, err)
	assert.Nil(t, lb)
}
