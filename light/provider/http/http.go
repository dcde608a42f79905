// Package http provides a light client Provider backed by the JSON-RPC
// interface of a full node. Light blocks are assembled from the /commit and
// /validators endpoints; /status is used to learn the peer identity and to
// check the chain ID.
package http

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/corvuschain/corvus-light/light/provider"
	"github.com/corvuschain/corvus-light/rpc/coretypes"
	"github.com/corvuschain/corvus-light/rpc/jsonrpc"
	"github.com/corvuschain/corvus-light/types"
)

// maxValidatorPages bounds how many /validators pages are followed for a
// single height.
const maxValidatorPages = 100

type http struct {
	chainID string
	id      types.NodeID
	client  *jsonrpc.Client
}

var _ provider.Provider = (*http)(nil)

// New creates a HTTP provider, which is using the jsonrpc.Client to fetch
// headers and validator sets from a remote node. It performs a /status call
// to learn the node's identity and to verify it is on the expected chain.
func New(ctx context.Context, chainID, remote string) (provider.Provider, error) {
	client, err := jsonrpc.New(remote)
	if err != nil {
		return nil, err
	}
	return NewWithClient(ctx, chainID, client)
}

// NewWithClient allows you to provide a custom client.
func NewWithClient(ctx context.Context, chainID string, client *jsonrpc.Client) (provider.Provider, error) {
	p := &http{
		chainID: chainID,
		client:  client,
	}

	status, err := p.status(ctx)
	if err != nil {
		return nil, err
	}
	if status.NodeInfo.Network != chainID {
		return nil, fmt.Errorf("expected node on chain %q, got %q", chainID, status.NodeInfo.Network)
	}
	p.id = status.NodeInfo.ID
	if p.id == "" {
		p.id = types.NodeID(hostID(client.Remote()))
	}

	return p, nil
}

func (p *http) ChainID() string { return p.chainID }

func (p *http) ID() types.NodeID { return p.id }

func (p *http) String() string { return fmt.Sprintf("http{%s}", p.client.Remote()) }

// LightBlock fetches a LightBlock at the given height and checks the chain
// ID matches, stamping the block with this provider's identity.
func (p *http) LightBlock(ctx context.Context, height int64) (*types.LightBlock, error) {
	if height < 0 {
		return nil, provider.ErrBadLightBlock{Reason: errors.New("negative height")}
	}

	sh, err := p.signedHeader(ctx, height)
	if err != nil {
		return nil, err
	}
	if height != 0 && sh.Height != height {
		return nil, provider.ErrBadLightBlock{
			Reason: fmt.Errorf("height %d responded doesn't match height %d requested", sh.Height, height),
		}
	}

	vals, err := p.validatorSet(ctx, sh.Height)
	if err != nil {
		return nil, err
	}
	nextVals, err := p.validatorSet(ctx, sh.Height+1)
	if err != nil {
		return nil, err
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

func (p *http) status(ctx context.Context) (*coretypes.ResultStatus, error) {
	var res coretypes.ResultStatus
	if err := p.client.Call(ctx, "status", nil, &res); err != nil {
		return nil, mapRPCError(ctx, err)
	}
	return &res, nil
}

func (p *http) signedHeader(ctx context.Context, height int64) (*types.SignedHeader, error) {
	params := map[string]interface{}{}
	if height > 0 {
		params["height"] = height
	}

	var res coretypes.ResultCommit
	if err := p.client.Call(ctx, "commit", params, &res); err != nil {
		return nil, mapRPCError(ctx, err)
	}
	return &res.SignedHeader, nil
}

func (p *http) validatorSet(ctx context.Context, height int64) (*types.ValidatorSet, error) {
	if height < 1 {
		return nil, provider.ErrBadLightBlock{Reason: fmt.Errorf("expected height >= 1, got height %d", height)}
	}

	var (
		perPage = 100
		vals    = []*types.Validator{}
		page    = 1
		total   = -1
	)

	for len(vals) != total {
		if page > maxValidatorPages {
			return nil, provider.ErrBadLightBlock{Reason: errors.New("too many validator pages")}
		}

		var res coretypes.ResultValidators
		err := p.client.Call(ctx, "validators", map[string]interface{}{
			"height":   height,
			"page":     page,
			"per_page": perPage,
		}, &res)
		if err != nil {
			return nil, mapRPCError(ctx, err)
		}

		if len(res.Validators) == 0 {
			return nil, provider.ErrBadLightBlock{
				Reason: fmt.Errorf("validator set is empty (height: %d, page: %d)", height, page),
			}
		}
		if res.Total <= 0 {
			return nil, provider.ErrBadLightBlock{
				Reason: fmt.Errorf("total number of vals is <= 0: %d (height: %d, page: %d)", res.Total, height, page),
			}
		}

		total = res.Total
		vals = append(vals, res.Validators...)
		page++
	}

	return types.NewValidatorSet(vals), nil
}

// mapRPCError translates transport and node errors into the provider error
// taxonomy the light client classifies on.
func mapRPCError(ctx context.Context, err error) error {
	// the client either timed out or was cancelled
	if ctx.Err() != nil || isTimeoutError(err) {
		return provider.ErrNoResponse
	}

	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch {
		case strings.Contains(rpcErr.Data, "height must be less than or equal"):
			return provider.ErrHeightTooHigh
		case strings.Contains(rpcErr.Data, "could not find results for height"),
			strings.Contains(rpcErr.Data, "not found"):
			return provider.ErrLightBlockNotFound
		default:
			return provider.ErrBadLightBlock{Reason: rpcErr}
		}
	}

	return err
}

func isTimeoutError(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// hostID derives a stable fallback identity from the remote address for
// nodes that do not report an ID.
func hostID(remote string) string {
	u, err := url.Parse(remote)
	if err != nil || u.Host == "" {
		return remote
	}
	return u.Host
}
