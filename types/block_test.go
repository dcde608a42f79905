package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvuschain/corvus-light/crypto/ed25519"
	"github.com/corvuschain/corvus-light/crypto/tmhash"
	"github.com/corvuschain/corvus-light/version"
)

func testHeader() *Header {
	addr := ed25519.GenPrivKeyFromSecret([]byte("proposer")).PubKey().Address()
	return &Header{
		Version:            version.Consensus{Block: 11, App: 2},
		ChainID:            "test-chain",
		Height:             7,
		Time:               time.Unix(1610000000, 450).UTC(),
		LastBlockID:        BlockID{Hash: tmhash.Sum([]byte("prev"))},
		LastCommitHash:     tmhash.Sum([]byte("last_commit")),
		DataHash:           tmhash.Sum([]byte("data")),
		ValidatorsHash:     tmhash.Sum([]byte("vals")),
		NextValidatorsHash: tmhash.Sum([]byte("next_vals")),
		ConsensusHash:      tmhash.Sum([]byte("consensus")),
		AppHash:            tmhash.Sum([]byte("app")),
		LastResultsHash:    tmhash.Sum([]byte("results")),
		EvidenceHash:       tmhash.Sum([]byte("evidence")),
		ProposerAddress:    addr,
	}
}

func TestHeaderHashDeterministic(t *testing.T) {
	h := testHeader()
	require.NotNil(t, h.Hash())
	assert.Equal(t, h.Hash(), h.Hash())
	assert.Len(t, h.Hash().Bytes(), tmhash.Size)
}

func TestHeaderHashChangesWithEveryField(t *testing.T) {
	base := testHeader().Hash()

	mutations := map[string]func(*Header){
		"version":              func(h *Header) { h.Version.App++ },
		"chain id":             func(h *Header) { h.ChainID = "other-chain" },
		"height":               func(h *Header) { h.Height++ },
		"time":                 func(h *Header) { h.Time = h.Time.Add(time.Nanosecond) },
		"last block id":        func(h *Header) { h.LastBlockID.Hash = tmhash.Sum([]byte("other")) },
		"last commit hash":     func(h *Header) { h.LastCommitHash = tmhash.Sum([]byte("other")) },
		"data hash":            func(h *Header) { h.DataHash = tmhash.Sum([]byte("other")) },
		"validators hash":      func(h *Header) { h.ValidatorsHash = tmhash.Sum([]byte("other")) },
		"next validators hash": func(h *Header) { h.NextValidatorsHash = tmhash.Sum([]byte("other")) },
		"consensus hash":       func(h *Header) { h.ConsensusHash = tmhash.Sum([]byte("other")) },
		"app hash":             func(h *Header) { h.AppHash = tmhash.Sum([]byte("other")) },
		"last results hash":    func(h *Header) { h.LastResultsHash = tmhash.Sum([]byte("other")) },
		"evidence hash":        func(h *Header) { h.EvidenceHash = tmhash.Sum([]byte("other")) },
		"proposer address": func(h *Header) {
			h.ProposerAddress = ed25519.GenPrivKeyFromSecret([]byte("other")).PubKey().Address()
		},
	}

	for name, mutate := range mutations {
		h := testHeader()
		mutate(h)
		assert.NotEqual(t, base, h.Hash(), "mutating %s did not change the header hash", name)
	}
}

func TestHeaderHashEmptyFieldsKeepPosition(t *testing.T) {
	// An empty optional field and a missing one must hash identically, and
	// emptying different fields must produce different hashes (the tree is
	// positional, not sparse).
	h1 := testHeader()
	h1.DataHash = nil
	h2 := testHeader()
	h2.EvidenceHash = nil

	require.NotNil(t, h1.Hash())
	require.NotNil(t, h2.Hash())
	assert.NotEqual(t, h1.Hash(), h2.Hash())
}

func TestHeaderHashNilCases(t *testing.T) {
	var h *Header
	assert.Nil(t, h.Hash())

	noVals := testHeader()
	noVals.ValidatorsHash = nil
	assert.Nil(t, noVals.Hash())
}

func TestHeaderHashNegativeTime(t *testing.T) {
	h := testHeader()
	h.Time = time.Unix(-1234567890, 0).UTC() // well before the epoch
	require.NotNil(t, h.Hash())
	assert.NotEqual(t, testHeader().Hash(), h.Hash())
}

func TestHeaderValidateBasic(t *testing.T) {
	h := testHeader()
	require.NoError(t, h.ValidateBasic())

	noChain := testHeader()
	noChain.ChainID = ""
	assert.Error(t, noChain.ValidateBasic())

	longChain := testHeader()
	longChain.ChainID = string(make([]byte, MaxChainIDLen+1))
	assert.Error(t, longChain.ValidateBasic())

	zeroHeight := testHeader()
	zeroHeight.Height = 0
	assert.Error(t, zeroHeight.ValidateBasic())

	badHash := testHeader()
	badHash.DataHash = []byte("too short")
	assert.Error(t, badHash.ValidateBasic())

	badProposer := testHeader()
	badProposer.ProposerAddress = []byte("short")
	assert.Error(t, badProposer.ValidateBasic())
}

func TestBlockIDValidateBasic(t *testing.T) {
	assert.NoError(t, BlockID{}.ValidateBasic())

	valid := BlockID{
		Hash:          tmhash.Sum([]byte("block")),
		PartSetHeader: PartSetHeader{Total: 1, Hash: tmhash.Sum([]byte("parts"))},
	}
	assert.NoError(t, valid.ValidateBasic())
	assert.True(t, valid.IsComplete())
	assert.False(t, valid.IsZero())

	invalid := BlockID{Hash: []byte("nope")}
	assert.Error(t, invalid.ValidateBasic())
}

func TestCommitSigValidateBasic(t *testing.T) {
	absent := NewCommitSigAbsent()
	assert.NoError(t, absent.ValidateBasic())
	assert.True(t, absent.Absent())
	assert.False(t, absent.ForBlock())

	addr := ed25519.GenPrivKeyFromSecret([]byte("val")).PubKey().Address()
	forBlock := NewCommitSigForBlock(make([]byte, 64), addr, time.Unix(1610000000, 0))
	assert.NoError(t, forBlock.ValidateBasic())
	assert.True(t, forBlock.ForBlock())

	noSig := NewCommitSigForBlock(nil, addr, time.Unix(1610000000, 0))
	assert.Error(t, noSig.ValidateBasic())

	hugeSig := NewCommitSigForBlock(make([]byte, MaxSignatureSize+1), addr, time.Unix(1610000000, 0))
	assert.Error(t, hugeSig.ValidateBasic())
}
