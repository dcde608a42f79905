// Package mock provides deterministic map-backed providers for tests.
package mock

import (
	"context"
	"fmt"

	"github.com/corvuschain/corvus-light/light/provider"
	"github.com/corvuschain/corvus-light/types"
)

// Mock is a provider serving a fixed set of headers and validator sets.
type Mock struct {
	id      types.NodeID
	chainID string
	headers map[int64]*types.SignedHeader
	vals    map[int64]*types.ValidatorSet

	latestHeight int64
}

var _ provider.Provider = (*Mock)(nil)

// New creates a mock provider identified by id, serving the given headers
// and validator sets.
func New(id types.NodeID, chainID string, headers map[int64]*types.SignedHeader,
	vals map[int64]*types.ValidatorSet) *Mock {

	var latest int64
	for height := range headers {
		if height > latest {
			latest = height
		}
	}
	return &Mock{
		id:           id,
		chainID:      chainID,
		headers:      headers,
		vals:         vals,
		latestHeight: latest,
	}
}

func (p *Mock) ChainID() string { return p.chainID }

func (p *Mock) ID() types.NodeID { return p.id }

func (p *Mock) String() string { return fmt.Sprintf("mock{%s}", p.id) }

func (p *Mock) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, provider.ErrNoResponse
	}

	if height > p.latestHeight {
		return nil, provider.ErrHeightTooHigh
	}
	if height == 0 {
		height = p.latestHeight
	}

	sh, ok := p.headers[height]
	if !ok {
		return nil, provider.ErrLightBlockNotFound
	}
	vals, ok := p.vals[height]
	if !ok {
		return nil, provider.ErrLightBlockNotFound
	}
	nextVals, ok := p.vals[height+1]
	if !ok {
		// validator sets beyond the chain head are frozen
		nextVals = vals
	}

	lb := &types.LightBlock{
		SignedHeader:     sh,
		ValidatorSet:     vals,
		NextValidatorSet: nextVals,
		Provider:         p.id,
	}
	if err := lb.ValidateBasic(p.chainID); err != nil {
		return nil, provider.ErrBadLightBlock{Reason: err}
	}
	return lb, nil
}

//-----------------------------------------------------------------------------

// Dead is a provider that never responds. It is used to exercise timeout
// handling.
type Dead struct {
	id      types.NodeID
	chainID string
}

var _ provider.Provider = (*Dead)(nil)

// NewDead creates a provider which always fails with ErrNoResponse.
func NewDead(id types.NodeID, chainID string) *Dead {
	return &Dead{id: id, chainID: chainID}
}

func (p *Dead) ChainID() string { return p.chainID }

func (p *Dead) ID() types.NodeID { return p.id }

func (p *Dead) String() string { return fmt.Sprintf("dead{%s}", p.id) }

func (p *Dead) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	return nil, provider.ErrNoResponse
}

//-----------------------------------------------------------------------------

// Flaky wraps a provider and fails with ErrNoResponse for the configured
// heights, responding normally for all others.
type Flaky struct {
	*Mock
	deadHeights map[int64]bool
}

var _ provider.Provider = (*Flaky)(nil)

// NewFlaky creates a provider which serves the given chain except at
// deadHeights, where it fails with ErrNoResponse.
func NewFlaky(mock *Mock, deadHeights []int64) *Flaky {
	dead := make(map[int64]bool, len(deadHeights))
	for _, h := range deadHeights {
		dead[h] = true
	}
	return &Flaky{Mock: mock, deadHeights: dead}
}

func (p *Flaky) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	if p.deadHeights[height] {
		return nil, provider.ErrNoResponse
	}
	return p.Mock.LightBlock(ctx, height)
}
