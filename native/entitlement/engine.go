package entitlement

import (
	"fmt"
	"math/big"
	"strings"

	"rewardmint/core/events"
)

// EngineState describes the authorization and mint-flag persistence the mint
// engine needs from the surrounding state implementation.
type EngineState interface {
	WhitelistEntry(index uint64) (*WhitelistEntry, bool, error)
	MintedFlag(index uint64) (bool, error)
	SetMintedFlag(index uint64) error
	Operators() ([][20]byte, error)
	IsOperator(addr [20]byte) (bool, error)
	AddOperator(addr [20]byte) error
	RemoveOperator(addr [20]byte) error
	Owner() ([20]byte, error)
	SetOwner(addr [20]byte) error
	IsOwner(addr [20]byte) bool
}

// Engine drives the unminted -> minted transition for whitelist entries and
// manages the delegated-operator set.
type Engine struct {
	st      EngineState
	ledger  *Ledger
	emitter events.Emitter
}

func NewEngine(st EngineState, ledger *Ledger) *Engine {
	return &Engine{st: st, ledger: ledger, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast engine updates.
// Passing nil resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Mint consumes the entitlement at index exactly once, issuing the recorded
// amount to the recorded account. Preconditions are checked in a fixed order
// so each failure surfaces its own reason: spent index, missing entry,
// redirected recipient, unauthorized caller, zero amount.
//
// The minted flag is set before issuance: a re-entered call for the same
// index observes AlreadyMinted and cannot double-spend.
func (e *Engine) Mint(block uint64, caller, to [20]byte, index uint64, label string) error {
	minted, err := e.st.MintedFlag(index)
	if err != nil {
		return err
	}
	if minted {
		return fmt.Errorf("%w: index %d", ErrAlreadyMinted, index)
	}
	entry, exists, err := e.st.WhitelistEntry(index)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: index %d", ErrEntryNotFound, index)
	}
	if to != entry.Account {
		return ErrRecipientMismatch
	}
	if caller != entry.Account {
		operator, err := e.st.IsOperator(caller)
		if err != nil {
			return err
		}
		if !operator {
			return ErrNotAuthorized
		}
	}
	if entry.Amount == nil || entry.Amount.Sign() <= 0 {
		return fmt.Errorf("%w: index %d", ErrZeroAmount, index)
	}

	if err := e.st.SetMintedFlag(index); err != nil {
		return err
	}
	balance, err := e.ledger.CurrentBalance(to)
	if err != nil {
		return err
	}
	supply, err := e.ledger.CurrentSupply()
	if err != nil {
		return err
	}
	newBalance := new(big.Int).Add(balance, entry.Amount)
	newSupply := new(big.Int).Add(supply, entry.Amount)
	if err := e.ledger.RecordIssuance(block, to, newBalance, newSupply); err != nil {
		return err
	}
	e.emitter.Emit(events.EntitlementMinted{
		Recipient: to,
		Caller:    caller,
		Index:     index,
		Amount:    copyAmount(entry.Amount),
		Category:  entry.Category.String(),
		Label:     strings.TrimSpace(label),
	})
	return nil
}

// AddOperator authorizes an address to execute mints on behalf of entitled
// accounts. Owner-only; double-adding fails.
func (e *Engine) AddOperator(caller, operator [20]byte) error {
	if !e.st.IsOwner(caller) {
		return ErrNotOwner
	}
	if operator == ([20]byte{}) {
		return ErrZeroAccount
	}
	existing, err := e.st.IsOperator(operator)
	if err != nil {
		return err
	}
	if existing {
		return ErrOperatorExists
	}
	if err := e.st.AddOperator(operator); err != nil {
		return err
	}
	e.emitter.Emit(events.OperatorAdded{Operator: operator})
	return nil
}

// BatchAddOperators adds every operator or none; validation runs over the
// full batch before the first write.
func (e *Engine) BatchAddOperators(caller [20]byte, operators [][20]byte) error {
	if !e.st.IsOwner(caller) {
		return ErrNotOwner
	}
	if len(operators) == 0 {
		return ErrEmptyBatch
	}
	seen := make(map[[20]byte]struct{}, len(operators))
	for _, operator := range operators {
		if operator == ([20]byte{}) {
			return ErrZeroAccount
		}
		if _, dup := seen[operator]; dup {
			return ErrOperatorExists
		}
		seen[operator] = struct{}{}
		existing, err := e.st.IsOperator(operator)
		if err != nil {
			return err
		}
		if existing {
			return ErrOperatorExists
		}
	}
	for _, operator := range operators {
		if err := e.st.AddOperator(operator); err != nil {
			return err
		}
		e.emitter.Emit(events.OperatorAdded{Operator: operator})
	}
	return nil
}

// RemoveOperator revokes a delegation. Owner-only; removing an address that
// was never authorized fails.
func (e *Engine) RemoveOperator(caller, operator [20]byte) error {
	if !e.st.IsOwner(caller) {
		return ErrNotOwner
	}
	existing, err := e.st.IsOperator(operator)
	if err != nil {
		return err
	}
	if !existing {
		return ErrOperatorNotFound
	}
	if err := e.st.RemoveOperator(operator); err != nil {
		return err
	}
	e.emitter.Emit(events.OperatorRemoved{Operator: operator})
	return nil
}

// IsOperator reports delegated-operator membership.
func (e *Engine) IsOperator(addr [20]byte) (bool, error) {
	return e.st.IsOperator(addr)
}

// TransferOwnership hands the owner role to a new address. Renouncing is not
// offered: an ownerless registry could never be populated again.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if !e.st.IsOwner(caller) {
		return ErrNotOwner
	}
	if newOwner == ([20]byte{}) {
		return ErrZeroAccount
	}
	previous, err := e.st.Owner()
	if err != nil {
		return err
	}
	if err := e.st.SetOwner(newOwner); err != nil {
		return err
	}
	e.emitter.Emit(events.OwnershipTransferred{Previous: previous, Current: newOwner})
	return nil
}
