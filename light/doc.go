/*
Package light implements the verification core of a light client for a
Byzantine-fault-tolerant blockchain.

A Client wraps a single peer and drives skipping verification against it: a
header at a distant height is accepted once more than a trust level
(default 1/3) of an already-trusted validator set signed it, bisecting
through intermediate headers when the validator sets have drifted too far
apart. All block state flows through a caller-supplied store so that
independent checks stay isolated.

On top of that, ProdForkDetector cross-checks a block the primary peer
convinced us of against a set of witness peers. Each witness's block at the
same height is compared by header hash; a conflicting block is re-verified
from our own trusted root on a throwaway store and the disagreement is
classified as a genuine fork (Forked), an attributable fault of the witness
(Faulty), or an unreachable peer (Timeout). Reporting the resulting evidence
to the network is the caller's job.

Verification primitives (Verify, VerifyAdjacent, VerifyNonAdjacent,
VerifyBackwards) are exported for callers that manage their own state.
*/
package light
