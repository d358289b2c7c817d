package types

// Event is a typed notification emitted during a state transition. Height is
// stamped by the node when the enclosing call commits, so off-chain indexers
// can resume from a block cursor.
type Event struct {
	Type       string            `json:"type"`
	Height     uint64            `json:"height"`
	Attributes map[string]string `json:"attributes"`
}
