package entitlement

import "math/big"

// LedgerState describes the checkpoint persistence the ledger needs from the
// surrounding state implementation.
type LedgerState interface {
	AccountCheckpoints(addr [20]byte) ([]Checkpoint, error)
	SetAccountCheckpoints(addr [20]byte, history []Checkpoint) error
	SupplyCheckpoints() ([]Checkpoint, error)
	SetSupplyCheckpoints(history []Checkpoint) error
}

// Ledger maintains one checkpoint history per account plus a shared history
// for the total supply. Issuance is the only operation that creates value;
// both histories are advanced within the same state transition so the supply
// at any block equals the sum of all balances at that block.
type Ledger struct {
	st LedgerState
}

func NewLedger(st LedgerState) *Ledger {
	return &Ledger{st: st}
}

// RecordIssuance pushes the post-issuance balance and supply checkpoints for
// the given block. Either both checkpoints land or neither does: the bound
// check for both magnitudes runs before the first write.
func (l *Ledger) RecordIssuance(block uint64, account [20]byte, newBalance, newSupply *big.Int) error {
	if _, err := boundedValue(newBalance); err != nil {
		return err
	}
	if _, err := boundedValue(newSupply); err != nil {
		return err
	}
	accountHistory, err := l.st.AccountCheckpoints(account)
	if err != nil {
		return err
	}
	accountHistory, err = pushCheckpoint(accountHistory, block, newBalance)
	if err != nil {
		return err
	}
	if err := l.st.SetAccountCheckpoints(account, accountHistory); err != nil {
		return err
	}
	supplyHistory, err := l.st.SupplyCheckpoints()
	if err != nil {
		return err
	}
	supplyHistory, err = pushCheckpoint(supplyHistory, block, newSupply)
	if err != nil {
		return err
	}
	return l.st.SetSupplyCheckpoints(supplyHistory)
}

// BalanceAtBlock answers "what did account hold as of block". Zero when the
// account had no history at or before the block.
func (l *Ledger) BalanceAtBlock(account [20]byte, block uint64) (*big.Int, error) {
	history, err := l.st.AccountCheckpoints(account)
	if err != nil {
		return nil, err
	}
	return checkpointValueAt(history, block), nil
}

// TotalSupplyAtBlock answers "what was the aggregate supply as of block".
func (l *Ledger) TotalSupplyAtBlock(block uint64) (*big.Int, error) {
	history, err := l.st.SupplyCheckpoints()
	if err != nil {
		return nil, err
	}
	return checkpointValueAt(history, block), nil
}

// CurrentBalance returns the latest recorded balance for account.
func (l *Ledger) CurrentBalance(account [20]byte) (*big.Int, error) {
	history, err := l.st.AccountCheckpoints(account)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return big.NewInt(0), nil
	}
	return copyAmount(history[len(history)-1].Value), nil
}

// CurrentSupply returns the latest recorded total supply.
func (l *Ledger) CurrentSupply() (*big.Int, error) {
	history, err := l.st.SupplyCheckpoints()
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return big.NewInt(0), nil
	}
	return copyAmount(history[len(history)-1].Value), nil
}

// Transfer unconditionally rejects account-to-account movement. The ledger
// tracks entitlement, not a tradable asset; issuance is the only way value
// comes into existence and it never moves afterwards.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	return ErrTransfersDisabled
}
