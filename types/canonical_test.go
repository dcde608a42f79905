package types

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvuschain/corvus-light/crypto/tmhash"
	"github.com/corvuschain/corvus-light/version"
)

func TestCanonicalTimeBytes(t *testing.T) {
	testCases := []struct {
		name    string
		time    time.Time
		seconds int64
		nanos   int32
	}{
		{"epoch", time.Unix(0, 0).UTC(), 0, 0},
		{"positive", time.Unix(1610000000, 123).UTC(), 1610000000, 123},
		{"negative seconds", time.Unix(-1234567890, 42).UTC(), -1234567890, 42},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			bz := canonicalTimeBytes(tc.time)
			// always both fields, fixed width: 1 + 8 + 1 + 4
			require.Len(t, bz, 14)
			assert.EqualValues(t, 0x09, bz[0])
			assert.EqualValues(t, 0x15, bz[9])

			gotSeconds := int64(binary.LittleEndian.Uint64(bz[1:9]))
			gotNanos := int32(binary.LittleEndian.Uint32(bz[10:14]))
			assert.Equal(t, tc.seconds, gotSeconds)
			assert.Equal(t, tc.nanos, gotNanos)
		})
	}
}

func TestCanonicalBlockIDBytes(t *testing.T) {
	// the zero BlockID encodes to nothing, preserving proto3 emptiness
	assert.Empty(t, canonicalBlockIDBytes(BlockID{}))

	bid := BlockID{
		Hash: tmhash.Sum([]byte("block")),
		PartSetHeader: PartSetHeader{
			Total: 1,
			Hash:  tmhash.Sum([]byte("parts")),
		},
	}
	bz := canonicalBlockIDBytes(bid)
	assert.NotEmpty(t, bz)
	assert.NotEqual(t, bz, canonicalBlockIDBytes(BlockID{Hash: tmhash.Sum([]byte("other"))}))
}

func TestCanonicalConsensusBytes(t *testing.T) {
	assert.Empty(t, canonicalConsensusBytes(version.Consensus{}))
	assert.NotEqual(t,
		canonicalConsensusBytes(version.Consensus{Block: 11}),
		canonicalConsensusBytes(version.Consensus{Block: 11, App: 1}),
	)
}

func TestCdcEncode(t *testing.T) {
	// empty values encode to nil so the Merkle leaf stays zero-length
	assert.Nil(t, cdcEncode(""))
	assert.Nil(t, cdcEncode(int64(0)))

	assert.NotNil(t, cdcEncode("chain"))
	assert.NotNil(t, cdcEncode(int64(5)))
	assert.NotEqual(t, cdcEncode(int64(5)), cdcEncode(int64(6)))
}

func TestVoteSignBytesFixedWidthHeight(t *testing.T) {
	bid := BlockID{Hash: tmhash.Sum([]byte("block"))}
	ts := time.Unix(1610000000, 0).UTC()

	low := canonicalVoteBytes(PrecommitType, 1, 0, bid, ts, "test-chain")
	high := canonicalVoteBytes(PrecommitType, 1<<40, 0, bid, ts, "test-chain")

	// heights must not change the shape of the sign bytes
	assert.Equal(t, len(low), len(high))
	assert.NotEqual(t, low, high)
}
