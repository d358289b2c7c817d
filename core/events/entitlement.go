package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"rewardmint/core/types"
)

const (
	TypeEntitlementMinted       = "entitlement.minted"
	TypeWhitelistAdded          = "entitlement.whitelist.added"
	TypeWhitelistRemoved        = "entitlement.whitelist.removed"
	TypeWhitelistBatchCompleted = "entitlement.whitelist.batchCompleted"
	TypeMonthlySnapshotTaken    = "entitlement.snapshot.taken"
	TypeOperatorAdded           = "entitlement.operator.added"
	TypeOperatorRemoved         = "entitlement.operator.removed"
	TypeOwnershipTransferred    = "entitlement.ownershipTransferred"
)

// EntitlementMinted records the one-shot conversion of a whitelist entry into
// issued balance.
type EntitlementMinted struct {
	Recipient [20]byte
	Caller    [20]byte
	Index     uint64
	Amount    *big.Int
	Category  string
	Label     string
}

func (EntitlementMinted) EventType() string { return TypeEntitlementMinted }

func (e EntitlementMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeEntitlementMinted,
		Attributes: map[string]string{
			"recipient": formatAddress(e.Recipient),
			"caller":    formatAddress(e.Caller),
			"index":     formatUint(e.Index),
			"amount":    formatAmount(e.Amount),
			"category":  e.Category,
			"label":     e.Label,
		},
	}
}

type WhitelistAdded struct {
	Index    uint64
	Account  [20]byte
	Amount   *big.Int
	Category string
}

func (WhitelistAdded) EventType() string { return TypeWhitelistAdded }

func (e WhitelistAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistAdded,
		Attributes: map[string]string{
			"index":    formatUint(e.Index),
			"account":  formatAddress(e.Account),
			"amount":   formatAmount(e.Amount),
			"category": e.Category,
		},
	}
}

// WhitelistRemoved carries the canceled amount so indexers can reconcile
// entitlement totals that were announced but never minted.
type WhitelistRemoved struct {
	Index   uint64
	Account [20]byte
	Amount  *big.Int
}

func (WhitelistRemoved) EventType() string { return TypeWhitelistRemoved }

func (e WhitelistRemoved) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistRemoved,
		Attributes: map[string]string{
			"index":   formatUint(e.Index),
			"account": formatAddress(e.Account),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type WhitelistBatchCompleted struct {
	Sequence uint64
	Count    uint64
	MinIndex uint64
	MaxIndex uint64
}

func (WhitelistBatchCompleted) EventType() string { return TypeWhitelistBatchCompleted }

func (e WhitelistBatchCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeWhitelistBatchCompleted,
		Attributes: map[string]string{
			"sequence": formatUint(e.Sequence),
			"count":    formatUint(e.Count),
			"minIndex": formatUint(e.MinIndex),
			"maxIndex": formatUint(e.MaxIndex),
		},
	}
}

type MonthlySnapshotTaken struct {
	Year      uint16
	Month     uint8
	Block     uint64
	Timestamp uint64
}

func (MonthlySnapshotTaken) EventType() string { return TypeMonthlySnapshotTaken }

func (e MonthlySnapshotTaken) Event() *types.Event {
	return &types.Event{
		Type: TypeMonthlySnapshotTaken,
		Attributes: map[string]string{
			"year":      formatUint(uint64(e.Year)),
			"month":     formatUint(uint64(e.Month)),
			"block":     formatUint(e.Block),
			"timestamp": formatUint(e.Timestamp),
		},
	}
}

type OperatorAdded struct {
	Operator [20]byte
}

func (OperatorAdded) EventType() string { return TypeOperatorAdded }

func (e OperatorAdded) Event() *types.Event {
	return &types.Event{
		Type:       TypeOperatorAdded,
		Attributes: map[string]string{"operator": formatAddress(e.Operator)},
	}
}

type OperatorRemoved struct {
	Operator [20]byte
}

func (OperatorRemoved) EventType() string { return TypeOperatorRemoved }

func (e OperatorRemoved) Event() *types.Event {
	return &types.Event{
		Type:       TypeOperatorRemoved,
		Attributes: map[string]string{"operator": formatAddress(e.Operator)},
	}
}

type OwnershipTransferred struct {
	Previous [20]byte
	Current  [20]byte
}

func (OwnershipTransferred) EventType() string { return TypeOwnershipTransferred }

func (e OwnershipTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeOwnershipTransferred,
		Attributes: map[string]string{
			"previousOwner": formatAddress(e.Previous),
			"newOwner":      formatAddress(e.Current),
		},
	}
}

func formatAddress(addr [20]byte) string {
	return common.BytesToAddress(addr[:]).Hex()
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}
