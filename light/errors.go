package light

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/corvuschain/corvus-light/light/provider"
	"github.com/corvuschain/corvus-light/types"
)

// ErrOldHeaderExpired means the old (trusted) header has expired according to
// the given trustingPeriod and current time. If so, the light client must be
// reset subjectively.
type ErrOldHeaderExpired struct {
	At  time.Time
	Now time.Time
}

func (e ErrOldHeaderExpired) Error() string {
	return fmt.Sprintf("old header has expired at %v (now: %v)", e.At, e.Now)
}

// ErrNewValSetCantBeTrusted means the new validator set (within the untrusted
// header) can't be trusted because < 1/3rd (+trustLevel+ of the trusted
// validator set) signed.
type ErrNewValSetCantBeTrusted struct {
	Reason types.ErrNotEnoughVotingPowerSigned
}

func (e ErrNewValSetCantBeTrusted) Error() string {
	return fmt.Sprintf("can't trust new val set: %v", e.Reason)
}

// ErrInvalidHeader means the header either contains invalid fields or was not
// properly signed.
type ErrInvalidHeader struct {
	Reason error
}

func (e ErrInvalidHeader) Error() string {
	return fmt.Sprintf("invalid header: %v", e.Reason)
}

func (e ErrInvalidHeader) Unwrap() error { return e.Reason }

// ErrTargetLowerThanTrustedState means the target height is lower than the
// highest trusted height in the store, so there is nothing to verify.
type ErrTargetLowerThanTrustedState struct {
	Target  int64
	Trusted int64
}

func (e ErrTargetLowerThanTrustedState) Error() string {
	return fmt.Sprintf("target height %d is lower than the trusted height %d", e.Target, e.Trusted)
}

var (
	// ErrNoWitnesses means none were provided to the fork detector.
	ErrNoWitnesses = errors.New("no witnesses connected. please reset light client")

	// ErrNoTrustedState means the light store given to the verification
	// driver holds no trusted or verified block to anchor on.
	ErrNoTrustedState = errors.New("no trusted state in light store")
)

// HasExpired reports whether err means a trusted header fell outside its
// trusting period.
func HasExpired(err error) bool {
	var e ErrOldHeaderExpired
	return errors.As(err, &e)
}

// IsTimeout reports whether err means a peer was unreachable or slow past
// the transport threshold, as opposed to having misbehaved.
func IsTimeout(err error) bool {
	if errors.Is(err, provider.ErrNoResponse) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
