package entitlement

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/holiman/uint256"
)

// Checkpoint is one (block, value) pair in a subject's history. Histories are
// strictly ascending in Block; a write landing on the block of the last entry
// overwrites that entry's value instead of appending.
type Checkpoint struct {
	Block uint64
	Value *big.Int
}

// pushCheckpoint records value at block on top of history and returns the
// updated slice. The value is range-checked against the 256-bit storage bound
// before anything is written.
func pushCheckpoint(history []Checkpoint, block uint64, value *big.Int) ([]Checkpoint, error) {
	bounded, err := boundedValue(value)
	if err != nil {
		return nil, err
	}
	if n := len(history); n > 0 && history[n-1].Block == block {
		history[n-1].Value = bounded
		return history, nil
	}
	return append(history, Checkpoint{Block: block, Value: bounded}), nil
}

// checkpointValueAt returns the value recorded at the greatest block <= target,
// or zero when the target predates all history (the subject never held value).
// The last entry answers "current" queries without searching.
func checkpointValueAt(history []Checkpoint, target uint64) *big.Int {
	n := len(history)
	if n == 0 {
		return big.NewInt(0)
	}
	if last := history[n-1]; last.Block <= target {
		return copyAmount(last.Value)
	}
	idx := sort.Search(n, func(i int) bool { return history[i].Block > target })
	if idx == 0 {
		return big.NewInt(0)
	}
	return copyAmount(history[idx-1].Value)
}

func boundedValue(v *big.Int) (*big.Int, error) {
	if v == nil {
		return big.NewInt(0), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative value %s", ErrValueOverflow, v)
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, fmt.Errorf("%w: %s", ErrValueOverflow, v)
	}
	return new(big.Int).Set(v), nil
}

func copyAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
