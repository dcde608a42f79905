// Package factory produces deterministic keys, validator sets and signed
// headers for tests. Indexes of generated keys line up with validator set
// indexes as long as all validators carry the same voting power.
package factory

import (
	"sort"
	"time"

	"github.com/corvuschain/corvus-light/crypto"
	"github.com/corvuschain/corvus-light/crypto/ed25519"
	"github.com/corvuschain/corvus-light/crypto/tmhash"
	"github.com/corvuschain/corvus-light/types"
	"github.com/corvuschain/corvus-light/version"
)

// PrivKeys is a helper type for a list of signing keys, sorted by the
// address of the corresponding validator.
type PrivKeys []crypto.PrivKey

// GenPrivKeys produces n deterministic ed25519 private keys derived from
// seed, sorted by validator address.
func GenPrivKeys(n int, seed string) PrivKeys {
	res := make(PrivKeys, n)
	for i := range res {
		secret := append([]byte(seed), byte(i))
		res[i] = ed25519.GenPrivKeyFromSecret(secret)
	}
	sort.Slice(res, func(i, j int) bool {
		iAddr := res[i].PubKey().Address()
		jAddr := res[j].PubKey().Address()
		return iAddr.String() < jAddr.String()
	})
	return res
}

// Extend adds n more deterministic keys to the list, re-sorting by address.
func (pkz PrivKeys) Extend(n int, seed string) PrivKeys {
	extra := GenPrivKeys(n, seed)
	res := make(PrivKeys, 0, len(pkz)+n)
	res = append(res, pkz...)
	res = append(res, extra...)
	sort.Slice(res, func(i, j int) bool {
		return res[i].PubKey().Address().String() < res[j].PubKey().Address().String()
	})
	return res
}

// ToValidators produces a valset from the set of keys.
// The first key has weight `init` and it increases by `inc` every step so we
// can have all the same weight, or a simple linear distribution (should be
// enough for testing).
func (pkz PrivKeys) ToValidators(init, inc int64) *types.ValidatorSet {
	res := make([]*types.Validator, len(pkz))
	for i, k := range pkz {
		res[i] = types.NewValidator(k.PubKey(), init+int64(i)*inc)
	}
	return types.NewValidatorSet(res)
}

// SignHeader properly signs the header with all keys from first to last
// exclusive. Keys that are not part of valSet are skipped.
func (pkz PrivKeys) SignHeader(header *types.Header, valSet *types.ValidatorSet, first, last int) *types.Commit {
	blockID := MakeBlockID(header.Hash(), 1, tmhash.Sum([]byte("part_set")))

	sigs := make([]types.CommitSig, valSet.Size())
	for i := range sigs {
		sigs[i] = types.NewCommitSigAbsent()
	}

	commit := types.NewCommit(header.Height, 1, blockID, sigs)

	for i := first; i < last && i < len(pkz); i++ {
		k := pkz[i]
		addr := k.PubKey().Address()
		idx, val := valSet.GetByAddress(addr)
		if val == nil {
			continue
		}

		commit.Signatures[idx] = types.CommitSig{
			BlockIDFlag:      types.BlockIDFlagCommit,
			ValidatorAddress: addr,
			Timestamp:        header.Time,
			Signature:        nil,
		}

		sig, err := k.Sign(commit.VoteSignBytes(header.ChainID, idx))
		if err != nil {
			panic(err)
		}
		commit.Signatures[idx].Signature = sig
	}

	return commit
}

func genHeader(chainID string, height int64, bTime time.Time, valset, nextValset *types.ValidatorSet,
	appHash, consHash, resHash []byte) *types.Header {

	return &types.Header{
		Version: version.Consensus{Block: 11, App: 1},
		ChainID: chainID,
		Height:  height,
		Time:    bTime,
		// LastBlockID
		// LastCommitHash
		ValidatorsHash:     valset.Hash(),
		NextValidatorsHash: nextValset.Hash(),
		DataHash:           tmhash.Sum([]byte("data")),
		ConsensusHash:      consHash,
		AppHash:            appHash,
		LastResultsHash:    resHash,
		ProposerAddress:    valset.Validators[0].Address,
	}
}

// GenSignedHeader calls genHeader and SignHeader and combines them into a
// SignedHeader.
func (pkz PrivKeys) GenSignedHeader(chainID string, height int64, bTime time.Time,
	valset, nextValset *types.ValidatorSet, appHash, consHash, resHash []byte, first, last int) *types.SignedHeader {

	header := genHeader(chainID, height, bTime, valset, nextValset, appHash, consHash, resHash)
	return &types.SignedHeader{
		Header: header,
		Commit: pkz.SignHeader(header, valset, first, last),
	}
}

// GenSignedHeaderLastBlockID calls genHeader and SignHeader and combines
// them into a SignedHeader, but takes the LastBlockID to point to a
// previous header.
func (pkz PrivKeys) GenSignedHeaderLastBlockID(chainID string, height int64, bTime time.Time,
	valset, nextValset *types.ValidatorSet, appHash, consHash, resHash []byte, first, last int,
	lastBlockID types.BlockID) *types.SignedHeader {

	header := genHeader(chainID, height, bTime, valset, nextValset, appHash, consHash, resHash)
	header.LastBlockID = lastBlockID
	return &types.SignedHeader{
		Header: header,
		Commit: pkz.SignHeader(header, valset, first, last),
	}
}

// MakeBlockID returns a complete BlockID.
func MakeBlockID(hash []byte, partSetSize uint32, partSetHash []byte) types.BlockID {
	return types.BlockID{
		Hash: hash,
		PartSetHeader: types.PartSetHeader{
			Total: partSetSize,
			Hash:  partSetHash,
		},
	}
}

// GenLightBlocksWithKeys generates the headers and validator sets for a mock
// chain of numBlocks heights, all produced by the same validator set. The
// header at height h carries time bTime + h minutes.
func GenLightBlocksWithKeys(chainID string, numBlocks int64, valSize int, bTime time.Time) (
	map[int64]*types.SignedHeader, map[int64]*types.ValidatorSet, PrivKeys) {

	var (
		headers = make(map[int64]*types.SignedHeader, numBlocks)
		valsets = make(map[int64]*types.ValidatorSet, numBlocks+1)
		keys    = GenPrivKeys(valSize, chainID)
		vals    = keys.ToValidators(10, 0)
	)

	for height := int64(1); height <= numBlocks+1; height++ {
		valsets[height] = vals
	}

	headers[1] = keys.GenSignedHeader(chainID, 1, bTime.Add(1*time.Minute), vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))

	for height := int64(2); height <= numBlocks; height++ {
		headers[height] = keys.GenSignedHeaderLastBlockID(chainID, height,
			bTime.Add(time.Duration(height)*time.Minute), vals, vals,
			hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys),
			types.BlockID{Hash: headers[height-1].Hash()})
	}

	return headers, valsets, keys
}

func hash(s string) []byte {
	return tmhash.Sum([]byte(s))
}
