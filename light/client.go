package light

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corvuschain/corvus-light/light/provider"
	"github.com/corvuschain/corvus-light/light/store"
	"github.com/corvuschain/corvus-light/libs/log"
	tmmath "github.com/corvuschain/corvus-light/libs/math"
	"github.com/corvuschain/corvus-light/types"
)

const (
	defaultMaxClockDrift = 10 * time.Second
)

// Option sets a parameter for the client.
type Option func(*Client)

// Logger option can be used to set a logger for the client.
func Logger(logger log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// TrustLevel option can be used to change the default trust level (1/3) used
// across non-adjacent verification hops.
func TrustLevel(lvl tmmath.Fraction) Option {
	return func(c *Client) {
		c.trustLevel = lvl
	}
}

// MaxClockDrift defines how much new header's time can drift into
// the future. Default: 10s.
func MaxClockDrift(d time.Duration) Option {
	return func(c *Client) {
		c.maxClockDrift = d
	}
}

// CurrentTime overrides the source of time. Used in tests to freeze the
// clock.
func CurrentTime(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client drives skipping verification against a single peer. It holds no
// block state of its own: every operation works on a caller-supplied
// store.Store, so the same client can be used for independent checks that
// must not contaminate one another.
type Client struct {
	chainID        string
	trustingPeriod time.Duration // how long a trusted header can anchor verification
	trustLevel     tmmath.Fraction
	maxClockDrift  time.Duration

	provider provider.Provider

	logger log.Logger
	now    func() time.Time
}

// NewClient returns a new light client connected to the peer behind the
// given provider.
//
// See all Options for the additional configuration.
func NewClient(
	chainID string,
	trustingPeriod time.Duration,
	p provider.Provider,
	opts ...Option) (*Client, error) {

	if chainID == "" {
		return nil, errors.New("empty chain ID")
	}
	if trustingPeriod <= 0 {
		return nil, errors.New("negative or zero trusting period")
	}
	if p == nil {
		return nil, errors.New("nil provider")
	}

	c := &Client{
		chainID:        chainID,
		trustingPeriod: trustingPeriod,
		trustLevel:     DefaultTrustLevel,
		maxClockDrift:  defaultMaxClockDrift,
		provider:       p,
		logger:         log.NewNopLogger(),
		now:            time.Now,
	}

	for _, o := range opts {
		o(c)
	}

	if err := ValidateTrustLevel(c.trustLevel); err != nil {
		return nil, err
	}

	return c, nil
}

// ChainID returns the chain ID the light client was configured with.
func (c *Client) ChainID() string {
	return c.chainID
}

// ID returns the identity of the peer this client verifies against.
func (c *Client) ID() types.NodeID {
	return c.provider.ID()
}

func (c *Client) String() string {
	return fmt.Sprintf("light.Client{%s @ %s}", c.chainID, c.provider.ID())
}

// GetOrFetchBlock returns the light block at the given height from st if one
// is present under any status, fetching it from the peer and inserting it
// with StatusUnverified otherwise. The returned status reflects where the
// block came from.
func (c *Client) GetOrFetchBlock(ctx context.Context, height int64, st store.Store) (*types.LightBlock, store.Status, error) {
	if height <= 0 {
		return nil, store.StatusUnverified, errors.New("height must be positive")
	}

	for _, status := range []store.Status{store.StatusTrusted, store.StatusVerified, store.StatusUnverified} {
		lb, err := st.Get(height, status)
		if err != nil {
			return nil, status, err
		}
		if lb != nil {
			return lb, status, nil
		}
	}

	lb, err := c.provider.LightBlock(ctx, height)
	if err != nil {
		return nil, store.StatusUnverified, err
	}

	if err := lb.ValidateBasic(c.chainID); err != nil {
		return nil, store.StatusUnverified, provider.ErrBadLightBlock{Reason: err}
	}
	if lb.Provider == "" {
		lb.Provider = c.provider.ID()
	}

	if err := st.Insert(lb, store.StatusUnverified); err != nil {
		return nil, store.StatusUnverified, err
	}

	c.logger.Debug("fetched light block", "height", height, "peer", lb.Provider)
	return lb, store.StatusUnverified, nil
}

// VerifyToTarget attempts to extend the chain of verified headers in st up
// to the given height, anchored at the highest trusted-or-verified block
// already in the store.
//
// It uses the skipping (bisection) algorithm: a single hop from the anchor
// to the target is accepted when more than trustLevel of the anchor's next
// validator set signed the target; when the validator sets drifted too far,
// an intermediate header is fetched from the peer and the hop is split.
// Intermediate and target blocks are recorded into st with StatusVerified as
// they are proven.
//
// The error reports why the target could not be reached:
//   - ErrOldHeaderExpired: the anchor fell outside the trusting period;
//   - ErrTargetLowerThanTrustedState: the store is already past the target;
//   - a provider error (e.g. unreachable peer) from fetching a header;
//   - ErrInvalidHeader and friends: the peer's chain is inconsistent.
func (c *Client) VerifyToTarget(ctx context.Context, height int64, st store.Store) error {
	trusted, err := st.HighestTrustedOrVerified()
	if err != nil {
		return err
	}
	if trusted == nil {
		return ErrNoTrustedState
	}

	if trusted.Height > height {
		return ErrTargetLowerThanTrustedState{Target: height, Trusted: trusted.Height}
	}
	if trusted.Height == height {
		return nil
	}

	if HeaderExpired(trusted.SignedHeader, c.trustingPeriod, c.now()) {
		return ErrOldHeaderExpired{At: trusted.Time.Add(c.trustingPeriod), Now: c.now()}
	}

	target, _, err := c.GetOrFetchBlock(ctx, height, st)
	if err != nil {
		return err
	}

	c.logger.Debug("verifying to target", "trustedHeight", trusted.Height, "targetHeight", height,
		"targetHash", target.Hash())

	var (
		verified = trusted
		// candidates still to be proven; the top of the stack is always the
		// lowest unverified height
		pending = []*types.LightBlock{target}
	)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		untrusted := pending[len(pending)-1]

		err := Verify(verified.SignedHeader, verified.NextValidatorSet,
			untrusted.SignedHeader, untrusted.ValidatorSet,
			c.trustingPeriod, c.now(), c.maxClockDrift, c.trustLevel)
		switch err.(type) {
		case nil:
			if err := st.UpdateStatus(untrusted.Height, store.StatusUnverified, store.StatusVerified); err != nil {
				return err
			}
			c.logger.Debug("verified candidate header", "height", untrusted.Height, "hash", untrusted.Hash())

			verified = untrusted
			pending = pending[:len(pending)-1]

		case ErrNewValSetCantBeTrusted:
			// the gap is too wide to cross in one hop; bisect it
			pivot := (verified.Height + untrusted.Height) / 2
			if pivot == verified.Height {
				// nothing left to bisect; the peer's chain can't be followed
				return err
			}

			interim, _, fErr := c.GetOrFetchBlock(ctx, pivot, st)
			if fErr != nil {
				return fErr
			}
			c.logger.Debug("bisecting", "pivotHeight", pivot, "trustedHeight", verified.Height,
				"targetHeight", untrusted.Height)
			pending = append(pending, interim)

		default:
			if sErr := st.UpdateStatus(untrusted.Height, store.StatusUnverified, store.StatusFailed); sErr != nil {
				return sErr
			}
			return err
		}
	}

	return nil
}
