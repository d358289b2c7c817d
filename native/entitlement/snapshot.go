package entitlement

import (
	"fmt"
	"math/big"
	"time"

	"rewardmint/core/events"
)

// ShareScale is the fixed-point denominator for share fractions: a fraction
// of 1.0 is reported as 10^18.
var ShareScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// SnapshotState describes the snapshot persistence the preview component
// needs from the surrounding state implementation.
type SnapshotState interface {
	SnapshotRecord(year uint16, month uint8) (*SnapshotRecord, bool, error)
	PutSnapshotRecord(rec *SnapshotRecord) error
	IsOwner(addr [20]byte) bool
}

// Snapshots freezes one block number per calendar month and answers
// proportional-share and reward-preview queries against the ledger at that
// block. Actual payout happens off-chain; only the preview lives here.
type Snapshots struct {
	st      SnapshotState
	ledger  *Ledger
	emitter events.Emitter
}

func NewSnapshots(st SnapshotState, ledger *Ledger) *Snapshots {
	return &Snapshots{st: st, ledger: ledger, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast snapshot records.
// Passing nil resets the emitter to a no-op implementation.
func (s *Snapshots) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		s.emitter = events.NoopEmitter{}
		return
	}
	s.emitter = emitter
}

// Take freezes the current block for (year, month). Owner-only; a period can
// be frozen exactly once and the month must be a calendar month.
func (s *Snapshots) Take(caller [20]byte, block uint64, now time.Time, year uint16, month uint8) (uint64, error) {
	if !s.st.IsOwner(caller) {
		return 0, ErrNotOwner
	}
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if _, exists, err := s.st.SnapshotRecord(year, month); err != nil {
		return 0, err
	} else if exists {
		return 0, fmt.Errorf("%w: %04d-%02d", ErrSnapshotExists, year, month)
	}
	rec := &SnapshotRecord{
		Year:      year,
		Month:     month,
		Block:     block,
		Timestamp: uint64(now.Unix()),
	}
	if err := s.st.PutSnapshotRecord(rec); err != nil {
		return 0, err
	}
	s.emitter.Emit(events.MonthlySnapshotTaken{
		Year:      year,
		Month:     month,
		Block:     block,
		Timestamp: rec.Timestamp,
	})
	return block, nil
}

// Record returns the frozen snapshot for (year, month) when one exists.
func (s *Snapshots) Record(year uint16, month uint8) (*SnapshotRecord, bool, error) {
	rec, exists, err := s.st.SnapshotRecord(year, month)
	if err != nil || !exists {
		return nil, false, err
	}
	out := *rec
	return &out, true, nil
}

// ShareAt reports account's balance, the total supply, and the account's
// share fraction (scaled by ShareScale) at the period's frozen block. All
// zeros when no snapshot exists for the period or the supply is zero.
func (s *Snapshots) ShareAt(year uint16, month uint8, account [20]byte) (*big.Int, *big.Int, *big.Int, error) {
	rec, exists, err := s.st.SnapshotRecord(year, month)
	if err != nil {
		return nil, nil, nil, err
	}
	if !exists {
		return big.NewInt(0), big.NewInt(0), big.NewInt(0), nil
	}
	balance, err := s.ledger.BalanceAtBlock(account, rec.Block)
	if err != nil {
		return nil, nil, nil, err
	}
	supply, err := s.ledger.TotalSupplyAtBlock(rec.Block)
	if err != nil {
		return nil, nil, nil, err
	}
	share := big.NewInt(0)
	if supply.Sign() > 0 {
		share = new(big.Int).Mul(balance, ShareScale)
		share.Quo(share, supply)
	}
	return balance, supply, share, nil
}

// PreviewReward computes allocation * balance / totalSupply at the period's
// frozen block, multiplying before dividing so the intermediate product keeps
// full precision. Zero when no snapshot exists or the supply is zero.
func (s *Snapshots) PreviewReward(year uint16, month uint8, account [20]byte, allocation *big.Int) (*big.Int, error) {
	if allocation == nil || allocation.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	rec, exists, err := s.st.SnapshotRecord(year, month)
	if err != nil {
		return nil, err
	}
	if !exists {
		return big.NewInt(0), nil
	}
	balance, err := s.ledger.BalanceAtBlock(account, rec.Block)
	if err != nil {
		return nil, err
	}
	supply, err := s.ledger.TotalSupplyAtBlock(rec.Block)
	if err != nil {
		return nil, err
	}
	if supply.Sign() == 0 {
		return big.NewInt(0), nil
	}
	reward := new(big.Int).Mul(allocation, balance)
	return reward.Quo(reward, supply), nil
}
