package light

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/corvuschain/corvus-light/light/store"
	"github.com/corvuschain/corvus-light/light/store/memory"
	"github.com/corvuschain/corvus-light/libs/log"
	"github.com/corvuschain/corvus-light/types"
)

// The detector is a second wall of defense for the light client: after the
// primary has convinced the client of a block, the block is cross-checked
// against a set of witness peers. A witness serving a conflicting block that
// nevertheless verifies from the trusted root is proof of a fork; the result
// feeds the evidence reporting done by the caller.

// ForkDetection is the result of one detection pass across all witnesses.
type ForkDetection struct {
	Forks []Fork
}

// Detected reports whether at least one witness contributed an entry to
// Forks: a fork, a fault or a timeout. Note the converse is weak: a pass with
// no entries only means no witness contradicted the primary in this pass.
func (fd ForkDetection) Detected() bool {
	return len(fd.Forks) > 0
}

// Fork describes a single witness's divergence from the primary. It is one
// of Forked, Faulty or Timeout.
type Fork interface {
	fork()
}

// Forked is an actual fork: the witness committed a different block at the
// primary's height and its branch verifies from the trusted root (or would
// have, within the trusting period).
type Forked struct {
	// Light block the primary convinced us of.
	Primary *types.LightBlock
	// Conflicting light block served by the witness.
	Witness *types.LightBlock
}

// Faulty means the witness served a conflicting block whose branch fails
// verification for reasons other than trust expiry: the fault is
// attributable to the witness.
type Faulty struct {
	// Witness is the conflicting block, or nil if the witness failed before
	// serving one.
	Witness *types.LightBlock
	Reason  error
}

// Timeout means the witness was unreachable or too slow. Not attributable.
type Timeout struct {
	Peer   types.NodeID
	Reason error
}

func (Forked) fork()  {}
func (Faulty) fork()  {}
func (Timeout) fork() {}

// ForkDetector is an interface for a fork detector.
type ForkDetector interface {
	// DetectForks cross-checks the verified block against each witness,
	// using trusted block as the verification root.
	DetectForks(ctx context.Context, verifiedBlock, trustedBlock *types.LightBlock,
		witnesses []*Client) (ForkDetection, error)
}

// ProdForkDetector is a production-ready fork detector which compares light
// blocks fetched from the witnesses by hash. If the hashes don't match, the
// detector then attempts to verify the light block pulled from the witness
// against a fresh store containing only the given trusted block, and then:
//
//   - if the verification succeeds, we have a real fork;
//   - if verification fails because of lack of trust (expiry), we still have
//     a fork and record it;
//   - if the witness could not be reached, it has timed out;
//   - if verification fails for any other reason, the witness is deemed
//     faulty.
//
// Note only header hashes are compared: two blocks with identical headers
// but divergent commits count as agreement here. Divergent commits under the
// same header surface during verification instead.
type ProdForkDetector struct {
	hasher Hasher

	logger log.Logger
}

var _ ForkDetector = (*ProdForkDetector)(nil)

// NewForkDetector constructs a fork detector that identifies headers by the
// given hasher. A nil hasher means DefaultHasher.
func NewForkDetector(hasher Hasher) *ProdForkDetector {
	if hasher == nil {
		hasher = DefaultHasher
	}
	return &ProdForkDetector{
		hasher: hasher,
		logger: log.NewNopLogger(),
	}
}

// SetLogger sets the logger.
func (d *ProdForkDetector) SetLogger(logger log.Logger) {
	d.logger = logger
}

// DetectForks fetches each witness's block at verifiedBlock's height and
// classifies every disagreement. Witnesses are checked one after another,
// each against its own throwaway store, so a failure at one witness cannot
// leak into the check of the next. Forks appear in the result in witness
// order.
//
// Operational failures at a witness are captured in the returned Forks, not
// as an error: a detector that aborted on the first unreachable witness
// could be blinded by a Byzantine network. The returned error is reserved
// for caller bugs (bad heights, no witnesses).
func (d *ProdForkDetector) DetectForks(
	ctx context.Context,
	verifiedBlock, trustedBlock *types.LightBlock,
	witnesses []*Client,
) (ForkDetection, error) {

	if verifiedBlock == nil {
		return ForkDetection{}, errors.New("nil verified block")
	}
	if trustedBlock == nil {
		return ForkDetection{}, errors.New("nil trusted block")
	}
	if verifiedBlock.Height <= trustedBlock.Height {
		return ForkDetection{}, fmt.Errorf("verified block height %d must be greater than the trusted height %d",
			verifiedBlock.Height, trustedBlock.Height)
	}
	if len(witnesses) == 0 {
		return ForkDetection{}, ErrNoWitnesses
	}

	primaryHash := d.hasher.HashHeader(verifiedBlock.Header)

	d.logger.Debug("running fork detection", "height", verifiedBlock.Height,
		"hash", primaryHash, "witnesses", len(witnesses))

	forks := make([]Fork, 0, len(witnesses))

	for _, witness := range witnesses {
		st := memory.New()

		witnessBlock, _, err := witness.GetOrFetchBlock(ctx, verifiedBlock.Height, st)
		if err != nil {
			if IsTimeout(err) {
				d.logger.Info("witness did not respond", "witness", witness.ID(), "err", err)
				forks = append(forks, Timeout{Peer: witness.ID(), Reason: err})
			} else {
				d.logger.Info("witness failed to provide a block", "witness", witness.ID(), "err", err)
				forks = append(forks, Faulty{Reason: err})
			}
			continue
		}

		witnessHash := d.hasher.HashHeader(witnessBlock.Header)
		if bytes.Equal(primaryHash, witnessHash) {
			// hashes match, continue with the next witness, if any
			d.logger.Debug("matching header received by witness", "witness", witness.ID(),
				"height", verifiedBlock.Height)
			continue
		}

		// Conflicting header. Re-verify the witness's branch from our own
		// trusted root before accusing anyone.
		if err := st.Insert(trustedBlock, store.StatusVerified); err != nil {
			return ForkDetection{}, err
		}
		if err := st.Insert(witnessBlock, store.StatusUnverified); err != nil {
			return ForkDetection{}, err
		}

		err = witness.VerifyToTarget(ctx, verifiedBlock.Height, st)
		switch {
		case err == nil:
			d.logger.Info("fork detected", "witness", witness.ID(),
				"height", verifiedBlock.Height, "witnessHash", witnessHash)
			forks = append(forks, Forked{Primary: verifiedBlock, Witness: witnessBlock})

		case HasExpired(err):
			// the branch was consistent as far as we could follow it; only
			// our trust in the root ran out. Still evidence of divergence.
			d.logger.Info("fork detected (outside trusting period)", "witness", witness.ID(),
				"height", verifiedBlock.Height, "witnessHash", witnessHash)
			forks = append(forks, Forked{Primary: verifiedBlock, Witness: witnessBlock})

		case IsTimeout(err):
			d.logger.Info("witness timed out during verification", "witness", witness.ID(), "err", err)
			forks = append(forks, Timeout{Peer: witnessBlock.Provider, Reason: err})

		default:
			d.logger.Info("witness deemed faulty", "witness", witness.ID(), "err", err)
			forks = append(forks, Faulty{Witness: witnessBlock, Reason: err})
		}
	}

	return ForkDetection{Forks: forks}, nil
}
