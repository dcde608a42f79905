package version

var (
	// CoreSemVer is the current version of the light-client library.
	// It's the Semantic Version of the software.
	CoreSemVer = "0.4.1"
)

// Consensus captures the consensus rules for processing a block in the
// blockchain, including all blockchain data structures and the rules of the
// application's state transition machine.
type Consensus struct {
	Block uint64 `json:"block"`
	App   uint64 `json:"app"`
}
