package light_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvuschain/corvus-light/internal/test/factory"
	"github.com/corvuschain/corvus-light/light"
	tmmath "github.com/corvuschain/corvus-light/libs/math"
	"github.com/corvuschain/corvus-light/types"
)

const maxClockDrift = 10 * time.Second

func TestVerifyAdjacentHeaders(t *testing.T) {
	var (
		keys = factory.GenPrivKeys(4, "adjacent")
		vals = keys.ToValidators(20, 10)

		// 100% signed
		header = keys.GenSignedHeader(chainID, 1, bTime, vals, vals,
			hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))
	)

	testCases := []struct {
		name      string
		newHeader *types.SignedHeader
		newVals   *types.ValidatorSet
		period    time.Duration
		now       time.Time
		expErr    bool
	}{
		{
			"good",
			keys.GenSignedHeaderLastBlockID(chainID, 2, bTime.Add(30*time.Minute), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys),
				types.BlockID{Hash: header.Hash()}),
			vals,
			3 * time.Hour,
			bTime.Add(1 * time.Hour),
			false,
		},
		{
			"expired trusted header",
			keys.GenSignedHeader(chainID, 2, bTime.Add(30*time.Minute), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys)),
			vals,
			1 * time.Hour,
			bTime.Add(2 * time.Hour),
			true,
		},
		{
			"new header from the future",
			keys.GenSignedHeader(chainID, 2, bTime.Add(3*time.Hour), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys)),
			vals,
			4 * time.Hour,
			bTime.Add(1 * time.Hour),
			true,
		},
		{
			"new header time before old header time",
			keys.GenSignedHeader(chainID, 2, bTime.Add(-1*time.Hour), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys)),
			vals,
			4 * time.Hour,
			bTime.Add(1 * time.Hour),
			true,
		},
		{
			"1/4 signed",
			keys.GenSignedHeader(chainID, 2, bTime.Add(30*time.Minute), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), len(keys)-1, len(keys)),
			vals,
			4 * time.Hour,
			bTime.Add(1 * time.Hour),
			true,
		},
		{
			"vals hash doesn't match the supplied vals",
			keys.GenSignedHeader(chainID, 2, bTime.Add(30*time.Minute), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys)),
			factory.GenPrivKeys(4, "other").ToValidators(10, 1),
			4 * time.Hour,
			bTime.Add(1 * time.Hour),
			true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := light.VerifyAdjacent(header, tc.newHeader, tc.newVals, tc.period, tc.now, maxClockDrift)
			if tc.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	// non-adjacent heights are rejected outright
	h3 := keys.GenSignedHeader(chainID, 3, bTime.Add(1*time.Hour), vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))
	err := light.VerifyAdjacent(header, h3, vals, 4*time.Hour, bTime.Add(2*time.Hour), maxClockDrift)
	assert.Error(t, err)
}

func TestVerifyNonAdjacentHeaders(t *testing.T) {
	var (
		keys = factory.GenPrivKeys(4, "nonadjacent")
		vals = keys.ToValidators(20, 10)

		header = keys.GenSignedHeader(chainID, 1, bTime, vals, vals,
			hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))

		// the whole original set plus 3 new validators, two heights later
		transitKeys = keys.Extend(3, "transit")
		transitVals = transitKeys.ToValidators(10, 0)

		newKeys = factory.GenPrivKeys(4, "completely-different")
		newVals = newKeys.ToValidators(10, 0)
	)

	testCases := []struct {
		name      string
		newHeader *types.SignedHeader
		newVals   *types.ValidatorSet
		period    time.Duration
		now       time.Time
		expErr    func(*testing.T, error)
	}{
		{
			"good skip over two heights",
			keys.GenSignedHeader(chainID, 3, bTime.Add(1*time.Hour), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys)),
			vals,
			3 * time.Hour,
			bTime.Add(2 * time.Hour),
			nil,
		},
		{
			"good, 3 vals added and the whole old set still signs",
			transitKeys.GenSignedHeader(chainID, 3, bTime.Add(1*time.Hour), transitVals, transitVals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(transitKeys)),
			transitVals,
			3 * time.Hour,
			bTime.Add(2 * time.Hour),
			nil,
		},
		{
			"unknown validator set signed",
			newKeys.GenSignedHeader(chainID, 3, bTime.Add(1*time.Hour), newVals, newVals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(newKeys)),
			newVals,
			3 * time.Hour,
			bTime.Add(2 * time.Hour),
			func(t *testing.T, err error) {
				_, ok := err.(light.ErrNewValSetCantBeTrusted)
				assert.True(t, ok, "expected ErrNewValSetCantBeTrusted, got %T", err)
			},
		},
		{
			"expired trusted header",
			keys.GenSignedHeader(chainID, 3, bTime.Add(1*time.Hour), vals, vals,
				hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys)),
			vals,
			1 * time.Hour,
			bTime.Add(2 * time.Hour),
			func(t *testing.T, err error) {
				assert.True(t, light.HasExpired(err))
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := light.VerifyNonAdjacent(header, vals, tc.newHeader, tc.newVals,
				tc.period, tc.now, maxClockDrift, light.DefaultTrustLevel)
			if tc.expErr == nil {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				tc.expErr(t, err)
			}
		})
	}

	// adjacent heights are rejected outright
	h2 := keys.GenSignedHeader(chainID, 2, bTime.Add(30*time.Minute), vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))
	err := light.VerifyNonAdjacent(header, vals, h2, vals, 3*time.Hour, bTime.Add(1*time.Hour),
		maxClockDrift, light.DefaultTrustLevel)
	assert.Error(t, err)
}

func TestVerifyBackwards(t *testing.T) {
	keys := factory.GenPrivKeys(4, "backwards")
	vals := keys.ToValidators(10, 0)

	h1 := keys.GenSignedHeader(chainID, 1, bTime, vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))
	h2 := keys.GenSignedHeaderLastBlockID(chainID, 2, bTime.Add(30*time.Minute), vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys),
		types.BlockID{Hash: h1.Hash()})

	assert.NoError(t, light.VerifyBackwards(h1.Header, h2.Header))

	// header whose hash the trusted header does not link to
	h1bad := keys.GenSignedHeader(chainID, 1, bTime.Add(1*time.Minute), vals, vals,
		hash("app_hash_2"), hash("cons_hash"), hash("results_hash"), 0, len(keys))
	assert.Error(t, light.VerifyBackwards(h1bad.Header, h2.Header))

	// older header must have an earlier time
	h1future := keys.GenSignedHeader(chainID, 1, bTime.Add(1*time.Hour), vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))
	assert.Error(t, light.VerifyBackwards(h1future.Header, h2.Header))
}

func TestValidateTrustLevel(t *testing.T) {
	testCases := []struct {
		lvl   tmmath.Fraction
		valid bool
	}{
		// valid
		{tmmath.Fraction{Numerator: 1, Denominator: 1}, true},
		{tmmath.Fraction{Numerator: 1, Denominator: 3}, true},
		{tmmath.Fraction{Numerator: 2, Denominator: 3}, true},
		{tmmath.Fraction{Numerator: 3, Denominator: 3}, true},
		{tmmath.Fraction{Numerator: 4, Denominator: 5}, true},

		// invalid
		{tmmath.Fraction{Numerator: 6, Denominator: 5}, false},
		{tmmath.Fraction{Numerator: 0, Denominator: 1}, false},
		{tmmath.Fraction{Numerator: 0, Denominator: 0}, false},
		{tmmath.Fraction{Numerator: 1, Denominator: 0}, false},
		{tmmath.Fraction{Numerator: 1, Denominator: 4}, false},
	}

	for _, tc := range testCases {
		err := light.ValidateTrustLevel(tc.lvl)
		if !tc.valid {
			assert.Error(t, err, "%v", tc.lvl)
		} else {
			assert.NoError(t, err, "%v", tc.lvl)
		}
	}
}

func TestHeaderExpired(t *testing.T) {
	keys := factory.GenPrivKeys(4, "expired")
	vals := keys.ToValidators(10, 0)
	h := keys.GenSignedHeader(chainID, 1, bTime, vals, vals,
		hash("app_hash"), hash("cons_hash"), hash("results_hash"), 0, len(keys))

	assert.False(t, light.HeaderExpired(h, 1*time.Hour, bTime.Add(30*time.Minute)))
	assert.True(t, light.HeaderExpired(h, 1*time.Hour, bTime.Add(1*time.Hour)))
	assert.True(t, light.HeaderExpired(h, 1*time.Hour, bTime.Add(2*time.Hour)))
}
