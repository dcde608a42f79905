package types

import (
	"encoding/binary"
	"time"

	"github.com/corvuschain/corvus-light/version"
)

// Canonical wire encodings of the header and vote fields that are themselves
// messages. Scalar header fields go through cdcEncode; the encoders below
// produce the canonical protobuf wire form for the composite ones, in the
// field order fixed by the consensus encoding. Changing any of them changes
// every header hash and every vote signature on the chain.

// canonicalTimeBytes encodes t as (seconds: sfixed64, nanos: sfixed32)
// counted from the Unix epoch. Both fields are always present so that the
// encoding is positional and fixed-width; negative seconds encode as two's
// complement and round-trip exactly.
func canonicalTimeBytes(t time.Time) []byte {
	buf := make([]byte, 0, 14)
	buf = append(buf, 0x09) // field 1, wire type 1 (64-bit)
	buf = appendFixed64(buf, uint64(t.Unix()))
	buf = append(buf, 0x15) // field 2, wire type 5 (32-bit)
	buf = appendFixed32(buf, uint32(int32(t.Nanosecond())))
	return buf
}

// canonicalConsensusBytes encodes the consensus version as
// (block: uvarint, app: uvarint). Zero fields are omitted.
func canonicalConsensusBytes(v version.Consensus) []byte {
	var buf []byte
	if v.Block != 0 {
		buf = append(buf, 0x08) // field 1, varint
		buf = appendUvarint(buf, v.Block)
	}
	if v.App != 0 {
		buf = append(buf, 0x10) // field 2, varint
		buf = appendUvarint(buf, v.App)
	}
	return buf
}

// canonicalPartSetHeaderBytes encodes (total: uvarint, hash: bytes).
func canonicalPartSetHeaderBytes(psh PartSetHeader) []byte {
	var buf []byte
	if psh.Total != 0 {
		buf = append(buf, 0x08) // field 1, varint
		buf = appendUvarint(buf, uint64(psh.Total))
	}
	if len(psh.Hash) != 0 {
		buf = append(buf, 0x12) // field 2, length-delimited
		buf = appendLengthPrefixed(buf, psh.Hash)
	}
	return buf
}

// canonicalBlockIDBytes encodes (hash: bytes, part_set_header: message).
func canonicalBlockIDBytes(blockID BlockID) []byte {
	var buf []byte
	if len(blockID.Hash) != 0 {
		buf = append(buf, 0x0a) // field 1, length-delimited
		buf = appendLengthPrefixed(buf, blockID.Hash)
	}
	if psh := canonicalPartSetHeaderBytes(blockID.PartSetHeader); len(psh) != 0 {
		buf = append(buf, 0x12) // field 2, length-delimited
		buf = appendLengthPrefixed(buf, psh)
	}
	return buf
}

// canonicalVoteBytes encodes the vote a validator signs:
// (type: varint, height: sfixed64, round: sfixed64, block_id: message,
// timestamp: message, chain_id: bytes). Height and round are fixed-width so
// that sign bytes for different heights always have the same length and a
// signature cannot be replayed across heights by varint truncation.
func canonicalVoteBytes(msgType SignedMsgType, height int64, round int32, blockID BlockID, ts time.Time, chainID string) []byte {
	var buf []byte
	if msgType != UnknownType {
		buf = append(buf, 0x08) // field 1, varint
		buf = appendUvarint(buf, uint64(msgType))
	}
	buf = append(buf, 0x11) // field 2, wire type 1 (64-bit)
	buf = appendFixed64(buf, uint64(height))
	buf = append(buf, 0x19) // field 3, wire type 1 (64-bit)
	buf = appendFixed64(buf, uint64(round))
	if bid := canonicalBlockIDBytes(blockID); len(bid) != 0 {
		buf = append(buf, 0x22) // field 4, length-delimited
		buf = appendLengthPrefixed(buf, bid)
	}
	buf = append(buf, 0x2a) // field 5, length-delimited
	buf = appendLengthPrefixed(buf, canonicalTimeBytes(ts))
	buf = append(buf, 0x32) // field 6, length-delimited
	buf = appendLengthPrefixed(buf, []byte(chainID))
	return buf
}

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendLengthPrefixed(buf, field []byte) []byte {
	buf = appendUvarint(buf, uint64(len(field)))
	return append(buf, field...)
}

func appendFixed64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendFixed32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
