package entitlement_test

import (
	"errors"
	"math/big"
	"testing"

	"rewardmint/core/events"
	"rewardmint/core/state"
	"rewardmint/native/entitlement"
	"rewardmint/storage"
)

type testFixture struct {
	manager  *state.Manager
	registry *entitlement.Registry
	engine   *entitlement.Engine
	ledger   *entitlement.Ledger
	owner    [20]byte
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	manager := state.NewManager(db)
	owner := addr(0x01)
	if err := manager.SetOwner(owner); err != nil {
		t.Fatalf("set owner: %v", err)
	}
	ledger := entitlement.NewLedger(manager)
	return &testFixture{
		manager:  manager,
		registry: entitlement.NewRegistry(manager),
		engine:   entitlement.NewEngine(manager, ledger),
		ledger:   ledger,
		owner:    owner,
	}
}

func (f *testFixture) whitelist(t *testing.T, index uint64, account [20]byte, amount int64, category entitlement.Category) {
	t.Helper()
	err := f.registry.BatchAdd(f.owner, []entitlement.WhitelistAddition{
		{Index: index, Account: account, Amount: big.NewInt(amount), Category: category},
	})
	if err != nil {
		t.Fatalf("whitelist index %d: %v", index, err)
	}
}

func TestEngineMint(t *testing.T) {
	f := newTestFixture(t)
	emitter := &capturingEmitter{}
	f.engine.SetEmitter(emitter)
	recipient := addr(0xAA)
	f.whitelist(t, 5, recipient, 100, entitlement.CategoryRoyalty)

	if err := f.engine.Mint(10, recipient, recipient, 5, "monthly"); err != nil {
		t.Fatalf("mint: %v", err)
	}

	balance, err := f.ledger.BalanceAtBlock(recipient, 10)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100, got %s", balance)
	}
	supply, err := f.ledger.TotalSupplyAtBlock(10)
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected supply 100, got %s", supply)
	}

	_, minted, found, err := f.registry.Entry(5)
	if err != nil {
		t.Fatalf("entry: %v", err)
	}
	if !found || !minted {
		t.Fatalf("expected minted entry to remain visible, found=%v minted=%v", found, minted)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	evt, ok := emitter.events[0].(events.EntitlementMinted)
	if !ok {
		t.Fatalf("expected EntitlementMinted, got %T", emitter.events[0])
	}
	if evt.Index != 5 || evt.Amount.Cmp(big.NewInt(100)) != 0 || evt.Category != "royalty" || evt.Label != "monthly" {
		t.Fatalf("unexpected mint event: %+v", evt)
	}
}

func TestEngineMintTwiceFails(t *testing.T) {
	f := newTestFixture(t)
	recipient := addr(0xAA)
	f.whitelist(t, 5, recipient, 100, entitlement.CategoryRoyalty)

	if err := f.engine.Mint(10, recipient, recipient, 5, "monthly"); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if err := f.engine.Mint(11, recipient, recipient, 5, "monthly"); !errors.Is(err, entitlement.ErrAlreadyMinted) {
		t.Fatalf("expected ErrAlreadyMinted, got %v", err)
	}

	// Ledger state after the failed second call is identical to after the
	// first.
	balance, err := f.ledger.CurrentBalance(recipient)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance unchanged at 100, got %s", balance)
	}
	supply, err := f.ledger.CurrentSupply()
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected supply unchanged at 100, got %s", supply)
	}
}

func TestEngineMintByOperator(t *testing.T) {
	f := newTestFixture(t)
	recipient := addr(0xAA)
	operator := addr(0x0F)
	f.whitelist(t, 7, recipient, 55, entitlement.CategoryPromotion)
	if err := f.engine.AddOperator(f.owner, operator); err != nil {
		t.Fatalf("add operator: %v", err)
	}

	if err := f.engine.Mint(10, operator, recipient, 7, "delegated"); err != nil {
		t.Fatalf("operator mint: %v", err)
	}
	balance, err := f.ledger.CurrentBalance(recipient)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(55)) != 0 {
		t.Fatalf("expected balance 55, got %s", balance)
	}
}

func TestEngineMintPreconditions(t *testing.T) {
	f := newTestFixture(t)
	recipient := addr(0xAA)
	stranger := addr(0x99)
	f.whitelist(t, 7, recipient, 55, entitlement.CategoryPromotion)

	// Missing entry.
	if err := f.engine.Mint(10, recipient, recipient, 8, ""); !errors.Is(err, entitlement.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	// Delegated calls cannot redirect funds.
	if err := f.engine.Mint(10, recipient, stranger, 7, ""); !errors.Is(err, entitlement.ErrRecipientMismatch) {
		t.Fatalf("expected ErrRecipientMismatch, got %v", err)
	}
	// Caller is neither the entitled account nor an operator. The owner gets
	// no special treatment here.
	if err := f.engine.Mint(10, stranger, recipient, 7, ""); !errors.Is(err, entitlement.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if err := f.engine.Mint(10, f.owner, recipient, 7, ""); !errors.Is(err, entitlement.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for owner, got %v", err)
	}
}

func TestEngineOperatorManagement(t *testing.T) {
	f := newTestFixture(t)
	operator := addr(0x0F)

	if err := f.engine.AddOperator(addr(0x99), operator); !errors.Is(err, entitlement.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.engine.AddOperator(f.owner, operator); err != nil {
		t.Fatalf("add operator: %v", err)
	}
	if err := f.engine.AddOperator(f.owner, operator); !errors.Is(err, entitlement.ErrOperatorExists) {
		t.Fatalf("expected ErrOperatorExists, got %v", err)
	}
	ok, err := f.engine.IsOperator(operator)
	if err != nil || !ok {
		t.Fatalf("expected operator membership, ok=%v err=%v", ok, err)
	}
	if err := f.engine.RemoveOperator(f.owner, operator); err != nil {
		t.Fatalf("remove operator: %v", err)
	}
	if err := f.engine.RemoveOperator(f.owner, operator); !errors.Is(err, entitlement.ErrOperatorNotFound) {
		t.Fatalf("expected ErrOperatorNotFound, got %v", err)
	}
}

func TestEngineBatchAddOperatorsAtomic(t *testing.T) {
	f := newTestFixture(t)
	first, second := addr(0x10), addr(0x11)
	if err := f.engine.AddOperator(f.owner, second); err != nil {
		t.Fatalf("add operator: %v", err)
	}
	err := f.engine.BatchAddOperators(f.owner, [][20]byte{first, second})
	if !errors.Is(err, entitlement.ErrOperatorExists) {
		t.Fatalf("expected ErrOperatorExists, got %v", err)
	}
	ok, err := f.engine.IsOperator(first)
	if err != nil {
		t.Fatalf("is operator: %v", err)
	}
	if ok {
		t.Fatalf("first operator persisted from rejected batch")
	}
}

func TestEngineTransferOwnership(t *testing.T) {
	f := newTestFixture(t)
	newOwner := addr(0x02)

	if err := f.engine.TransferOwnership(newOwner, newOwner); !errors.Is(err, entitlement.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.engine.TransferOwnership(f.owner, newOwner); err != nil {
		t.Fatalf("transfer ownership: %v", err)
	}
	// Previous owner loses batch rights, the new owner gains them.
	err := f.registry.BatchAdd(f.owner, []entitlement.WhitelistAddition{
		{Index: 1, Account: addr(0xAA), Amount: big.NewInt(1), Category: entitlement.CategoryStaking},
	})
	if !errors.Is(err, entitlement.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for previous owner, got %v", err)
	}
	err = f.registry.BatchAdd(newOwner, []entitlement.WhitelistAddition{
		{Index: 1, Account: addr(0xAA), Amount: big.NewInt(1), Category: entitlement.CategoryStaking},
	})
	if err != nil {
		t.Fatalf("batch add by new owner: %v", err)
	}
}
