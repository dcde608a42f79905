package provider

import (
	"context"

	"github.com/corvuschain/corvus-light/types"
)

// Provider provides information for the light client to sync (verification
// happens in the client).
type Provider interface {
	// ChainID returns the blockchain ID.
	ChainID() string

	// ID returns the identity of the peer backing this provider. It is
	// stamped onto every LightBlock the provider returns so that
	// misbehaviour can be attributed.
	ID() types.NodeID

	// LightBlock returns the LightBlock that corresponds to the given
	// height.
	//
	// 0 - the latest.
	// height must be >= 0.
	//
	// If the provider fails to fetch the LightBlock due to the IO or other
	// issues, an error will be returned.
	// If there's no LightBlock for the given height, ErrLightBlockNotFound
	// error is returned.
	LightBlock(ctx context.Context, height int64) (*types.LightBlock, error)
}
