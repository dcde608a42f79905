// Package coretypes defines the result shapes of the full-node RPC endpoints
// the light client consumes. Only the fields the light client depends on are
// declared; anything else a node returns is ignored on decode.
package coretypes

import (
	tmbytes "github.com/corvuschain/corvus-light/libs/bytes"
	"github.com/corvuschain/corvus-light/types"
)

// ResultCommit is the result of the /commit endpoint.
type ResultCommit struct {
	types.SignedHeader `json:"signed_header"`
	CanonicalCommit    bool `json:"canonical"`
}

// ResultValidators is the result of the /validators endpoint.
// Note the validators are sorted by voting power - this is the canonical
// order.
type ResultValidators struct {
	BlockHeight int64              `json:"block_height"`
	Validators  []*types.Validator `json:"validators"`

	Count int `json:"count"`
	Total int `json:"total"`
}

// ResultStatus is the result of the /status endpoint: node info plus the
// node's view of the chain head.
type ResultStatus struct {
	NodeInfo NodeInfo `json:"node_info"`
	SyncInfo SyncInfo `json:"sync_info"`
}

// NodeInfo identifies the node and the network it is on.
type NodeInfo struct {
	ID      types.NodeID `json:"id"`
	Network string       `json:"network"`
	Version string       `json:"version"`
}

// SyncInfo is the node's view of the head of the chain.
type SyncInfo struct {
	LatestBlockHash   tmbytes.HexBytes `json:"latest_block_hash"`
	LatestBlockHeight int64            `json:"latest_block_height"`
	CatchingUp        bool             `json:"catching_up"`
}
