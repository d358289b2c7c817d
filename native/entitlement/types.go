package entitlement

import "math/big"

// Category classifies the reward an entitlement belongs to. The ordinal values
// are part of the persisted format and must never be reordered.
type Category uint8

const (
	CategoryStaking Category = iota
	CategoryRoyalty
	CategoryPromotion
	CategoryPartnership
)

func (c Category) Valid() bool {
	switch c {
	case CategoryStaking, CategoryRoyalty, CategoryPromotion, CategoryPartnership:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	switch c {
	case CategoryStaking:
		return "staking"
	case CategoryRoyalty:
		return "royalty"
	case CategoryPromotion:
		return "promotion"
	case CategoryPartnership:
		return "partnership"
	default:
		return "unknown"
	}
}

// WhitelistEntry is one claimable entitlement. The record is immutable once
// persisted; consuming it via mint flips a separate one-way flag rather than
// mutating the entry.
type WhitelistEntry struct {
	Account  [20]byte
	Amount   *big.Int
	Category Category
}

// Clone produces a deep copy so callers cannot alias the stored amount.
func (e *WhitelistEntry) Clone() *WhitelistEntry {
	if e == nil {
		return nil
	}
	out := *e
	if e.Amount != nil {
		out.Amount = new(big.Int).Set(e.Amount)
	} else {
		out.Amount = big.NewInt(0)
	}
	return &out
}

// WhitelistAddition is one row of a batch insert request.
type WhitelistAddition struct {
	Index    uint64
	Account  [20]byte
	Amount   *big.Int
	Category Category
}

// SnapshotRecord freezes the block number used for a calendar period's
// proportional-share queries. Written once per (year, month), never updated.
type SnapshotRecord struct {
	Year      uint16
	Month     uint8
	Block     uint64
	Timestamp uint64
}
