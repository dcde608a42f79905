package light_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvuschain/corvus-light/internal/test/factory"
	"github.com/corvuschain/corvus-light/light"
	mockp "github.com/corvuschain/corvus-light/light/provider/mock"
	"github.com/corvuschain/corvus-light/light/store"
	"github.com/corvuschain/corvus-light/light/store/memory"
	"github.com/corvuschain/corvus-light/libs/log"
	tmmath "github.com/corvuschain/corvus-light/libs/math"
	"github.com/corvuschain/corvus-light/types"
)

func TestNewClientValidation(t *testing.T) {
	p := mockp.NewDead("w", chainID)

	testCases := []struct {
		name    string
		chainID string
		period  time.Duration
		opts    []light.Option
		err     bool
	}{
		{"ok", chainID, trustPeriod, nil, false},
		{"empty chain id", "", trustPeriod, nil, true},
		{"zero trusting period", chainID, 0, nil, true},
		{"negative trusting period", chainID, -1 * time.Hour, nil, true},
		{"trust level too small", chainID, trustPeriod,
			[]light.Option{light.TrustLevel(tmmath.Fraction{Numerator: 1, Denominator: 4})}, true},
		{"trust level above one", chainID, trustPeriod,
			[]light.Option{light.TrustLevel(tmmath.Fraction{Numerator: 5, Denominator: 4})}, true},
		{"custom trust level", chainID, trustPeriod,
			[]light.Option{light.TrustLevel(tmmath.Fraction{Numerator: 2, Denominator: 3})}, false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := light.NewClient(tc.chainID, tc.period, p, tc.opts...)
			if tc.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err := light.NewClient(chainID, trustPeriod, nil)
	assert.Error(t, err)
}

func TestClientGetOrFetchBlock(t *testing.T) {
	f := newDetectorFixture(t)
	now := bTime.Add(1 * time.Hour)
	ctx := context.Background()

	c := newWitness(t, mockp.New("w1", chainID, f.headers, f.valsets), now)
	st := memory.New()

	// fetches and records as unverified
	lb, status, err := c.GetOrFetchBlock(ctx, 10, st)
	require.NoError(t, err)
	assert.Equal(t, store.StatusUnverified, status)
	assert.Equal(t, f.headers[10].Hash(), lb.Hash())
	assert.EqualValues(t, "w1", lb.Provider)

	stored, err := st.Get(10, store.StatusUnverified)
	require.NoError(t, err)
	require.NotNil(t, stored)

	// a stored block short-circuits the provider entirely
	dead := newWitness(t, mockp.NewDead("w-dead", chainID), now)
	require.NoError(t, st.Insert(f.trusted, store.StatusTrusted))
	lb, status, err = dead.GetOrFetchBlock(ctx, 1, st)
	require.NoError(t, err)
	assert.Equal(t, store.StatusTrusted, status)
	assert.Equal(t, f.trusted, lb)

	// provider errors pass through untouched
	_, _, err = dead.GetOrFetchBlock(ctx, 2, st)
	assert.True(t, light.IsTimeout(err))

	// invalid height
	_, _, err = c.GetOrFetchBlock(ctx, 0, st)
	assert.Error(t, err)
}

func TestClientVerifyToTargetSingleHop(t *testing.T) {
	f := newDetectorFixture(t)
	now := bTime.Add(1 * time.Hour)
	ctx := context.Background()

	c := newWitness(t, mockp.New("w1", chainID, f.headers, f.valsets), now)
	st := memory.New()
	require.NoError(t, st.Insert(f.trusted, store.StatusVerified))

	err := c.VerifyToTarget(ctx, 10, st)
	require.NoError(t, err)

	verified, err := st.Get(10, store.StatusVerified)
	require.NoError(t, err)
	require.NotNil(t, verified)
	assert.Equal(t, f.headers[10].Hash(), verified.Hash())
}

// The validator set rotates completely at every height, so the verifier has
// to bisect down to adjacent hops.
func TestClientVerifyToTargetBisection(t *testing.T) {
	var (
		keys1 = factory.GenPrivKeys(4, "one")
		keys2 = factory.GenPrivKeys(4, "two")
		keys3 = factory.GenPrivKeys(4, "three")
		vals1 = keys1.ToValidators(10, 0)
		vals2 = keys2.ToValidators(10, 0)
		vals3 = keys3.ToValidators(10, 0)
	)

	h1 := keys1.GenSignedHeader(chainID, 1, bTime.Add(1*time.Minute), vals1, vals2,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys1))
	h2 := keys2.GenSignedHeaderLastBlockID(chainID, 2, bTime.Add(2*time.Minute), vals2, vals3,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys2),
		types.BlockID{Hash: h1.Hash()})
	h3 := keys3.GenSignedHeaderLastBlockID(chainID, 3, bTime.Add(3*time.Minute), vals3, vals3,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys3),
		types.BlockID{Hash: h2.Hash()})

	headers := map[int64]*types.SignedHeader{1: h1, 2: h2, 3: h3}
	valsets := map[int64]*types.ValidatorSet{1: vals1, 2: vals2, 3: vals3, 4: vals3}

	now := bTime.Add(1 * time.Hour)
	c := newWitness(t, mockp.New("w1", chainID, headers, valsets), now)

	st := memory.New()
	trusted := &types.LightBlock{
		SignedHeader:     h1,
		ValidatorSet:     vals1,
		NextValidatorSet: vals2,
		Provider:         "primary",
	}
	require.NoError(t, st.Insert(trusted, store.StatusVerified))

	err := c.VerifyToTarget(context.Background(), 3, st)
	require.NoError(t, err)

	// the pivot got verified on the way to the target
	for _, height := range []int64{2, 3} {
		lb, err := st.Get(height, store.StatusVerified)
		require.NoError(t, err)
		assert.NotNil(t, lb, "expected height %d to be verified", height)
	}
}

func TestClientVerifyToTargetErrors(t *testing.T) {
	f := newDetectorFixture(t)
	ctx := context.Background()

	t.Run("no trusted state", func(t *testing.T) {
		c := newWitness(t, mockp.New("w1", chainID, f.headers, f.valsets), bTime.Add(1*time.Hour))
		err := c.VerifyToTarget(ctx, 10, memory.New())
		assert.Equal(t, light.ErrNoTrustedState, err)
	})

	t.Run("target lower than trusted state", func(t *testing.T) {
		c := newWitness(t, mockp.New("w1", chainID, f.headers, f.valsets), bTime.Add(1*time.Hour))
		st := memory.New()
		require.NoError(t, st.Insert(f.verified, store.StatusVerified))

		err := c.VerifyToTarget(ctx, 5, st)
		require.Error(t, err)
		targetErr, ok := err.(light.ErrTargetLowerThanTrustedState)
		require.True(t, ok, "got %T", err)
		assert.EqualValues(t, 5, targetErr.Target)
		assert.EqualValues(t, 10, targetErr.Trusted)
	})

	t.Run("target equals trusted state", func(t *testing.T) {
		c := newWitness(t, mockp.New("w1", chainID, f.headers, f.valsets), bTime.Add(1*time.Hour))
		st := memory.New()
		require.NoError(t, st.Insert(f.trusted, store.StatusVerified))

		assert.NoError(t, c.VerifyToTarget(ctx, 1, st))
	})

	t.Run("expired trusted state", func(t *testing.T) {
		c := newWitness(t, mockp.New("w1", chainID, f.headers, f.valsets), bTime.Add(5*time.Hour))
		st := memory.New()
		require.NoError(t, st.Insert(f.trusted, store.StatusVerified))

		err := c.VerifyToTarget(ctx, 10, st)
		require.Error(t, err)
		assert.True(t, light.HasExpired(err))
	})

	t.Run("unreachable peer", func(t *testing.T) {
		c := newWitness(t, mockp.NewDead("w-dead", chainID), bTime.Add(1*time.Hour))
		st := memory.New()
		require.NoError(t, st.Insert(f.trusted, store.StatusVerified))

		err := c.VerifyToTarget(ctx, 10, st)
		require.Error(t, err)
		assert.True(t, light.IsTimeout(err))
	})

	t.Run("invalid branch", func(t *testing.T) {
		forked := f.forkedHeaders(0, 1)
		c := newWitness(t, mockp.New("w-faulty", chainID, forked, f.valsets), bTime.Add(1*time.Hour))
		st := memory.New()
		require.NoError(t, st.Insert(f.trusted, store.StatusVerified))

		err := c.VerifyToTarget(ctx, 10, st)
		require.Error(t, err)
		assert.False(t, light.HasExpired(err))
		assert.False(t, light.IsTimeout(err))

		// the hop that failed is parked under StatusFailed
		failed, err := st.Get(2, store.StatusFailed)
		require.NoError(t, err)
		assert.NotNil(t, failed)
	})
}

func TestClientAccessors(t *testing.T) {
	c, err := light.NewClient(chainID, trustPeriod, mockp.NewDead("w-id", chainID),
		light.Logger(log.TestingLogger()))
	require.NoError(t, err)

	assert.Equal(t, chainID, c.ChainID())
	assert.EqualValues(t, "w-id", c.ID())
	assert.Contains(t, c.String(), "w-id")
}
