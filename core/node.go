package core

import (
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"rewardmint/core/events"
	"rewardmint/core/state"
	"rewardmint/core/types"
	"rewardmint/native/entitlement"
	"rewardmint/observability/metrics"
	"rewardmint/storage"
)

// Node is the aggregate root for the entitlement contract. It owns the state
// manager, the block height, and the event log, and serializes every
// state-changing call under one mutex so each call commits or reverts as a
// whole. The block number is a logical clock: it advances once per committed
// mutation and failed calls never move it.
type Node struct {
	mu sync.RWMutex

	state     *state.Manager
	ledger    *entitlement.Ledger
	registry  *entitlement.Registry
	engine    *entitlement.Engine
	snapshots *entitlement.Snapshots

	height    uint64
	eventLog  []types.Event
	collector *eventCollector

	logger  *slog.Logger
	metrics *metrics.EntitlementMetrics
	now     func() time.Time
}

// eventCollector buffers events emitted during one state-changing call so
// they only become visible when the call commits.
type eventCollector struct {
	pending []events.Event
}

func (c *eventCollector) Emit(evt events.Event) {
	c.pending = append(c.pending, evt)
}

func (c *eventCollector) drain() []events.Event {
	out := c.pending
	c.pending = nil
	return out
}

// NewNode wires the entitlement components over the provided database. The
// owner is persisted on first start; on later starts the stored owner wins
// and the argument is ignored.
func NewNode(db storage.Database, owner [20]byte, logger *slog.Logger) (*Node, error) {
	if logger == nil {
		logger = slog.Default()
	}
	st := state.NewManager(db)
	stored, err := st.Owner()
	if err != nil {
		return nil, err
	}
	if stored == ([20]byte{}) {
		if owner == ([20]byte{}) {
			return nil, fmt.Errorf("core: owner address required for genesis")
		}
		if err := st.SetOwner(owner); err != nil {
			return nil, err
		}
		if err := st.Commit(); err != nil {
			return nil, err
		}
	}
	height, err := st.ChainHeight()
	if err != nil {
		return nil, err
	}

	collector := &eventCollector{}
	ledger := entitlement.NewLedger(st)
	registry := entitlement.NewRegistry(st)
	registry.SetEmitter(collector)
	engine := entitlement.NewEngine(st, ledger)
	engine.SetEmitter(collector)
	snapshots := entitlement.NewSnapshots(st, ledger)
	snapshots.SetEmitter(collector)

	return &Node{
		state:     st,
		ledger:    ledger,
		registry:  registry,
		engine:    engine,
		snapshots: snapshots,
		height:    height,
		collector: collector,
		logger:    logger.With("component", "node"),
		metrics:   metrics.Entitlement(),
		now:       time.Now,
	}, nil
}

// withCommit runs fn against the staged state at the next block height and
// commits height, state, and buffered events together on success. On failure
// every staged write and buffered event is dropped.
func (n *Node) withCommit(method string, fn func(block uint64) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	block := n.height + 1
	if err := fn(block); err != nil {
		n.state.Discard()
		n.collector.drain()
		return err
	}
	if err := n.state.SetChainHeight(block); err != nil {
		n.state.Discard()
		n.collector.drain()
		return err
	}
	if err := n.state.Commit(); err != nil {
		n.state.Discard()
		n.collector.drain()
		return err
	}
	n.height = block
	for _, evt := range n.collector.drain() {
		renderer, ok := evt.(events.Renderer)
		if !ok {
			continue
		}
		rendered := renderer.Event()
		rendered.Height = block
		n.eventLog = append(n.eventLog, *rendered)
	}
	n.logger.Info("state transition committed", "method", method, "height", block)
	return nil
}

// Height returns the block height of the last committed state transition.
func (n *Node) Height() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.height
}

// Owner returns the current privileged owner.
func (n *Node) Owner() ([20]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state.Owner()
}

// AddAuthorizedUser delegates mint authority to operator.
func (n *Node) AddAuthorizedUser(caller, operator [20]byte) error {
	return n.withCommit("addAuthorizedUser", func(uint64) error {
		return n.engine.AddOperator(caller, operator)
	})
}

// BatchAddAuthorizedUsers delegates mint authority to every operator or none.
func (n *Node) BatchAddAuthorizedUsers(caller [20]byte, operators [][20]byte) error {
	return n.withCommit("batchAddAuthorizedUsers", func(uint64) error {
		return n.engine.BatchAddOperators(caller, operators)
	})
}

// RemoveAuthorizedUser revokes a delegation.
func (n *Node) RemoveAuthorizedUser(caller, operator [20]byte) error {
	return n.withCommit("removeAuthorizedUser", func(uint64) error {
		return n.engine.RemoveOperator(caller, operator)
	})
}

// IsAuthorizedUser reports delegated-operator membership.
func (n *Node) IsAuthorizedUser(addr [20]byte) (bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.engine.IsOperator(addr)
}

// TransferOwnership hands the owner role to newOwner.
func (n *Node) TransferOwnership(caller, newOwner [20]byte) error {
	return n.withCommit("transferOwnership", func(uint64) error {
		return n.engine.TransferOwnership(caller, newOwner)
	})
}

// BatchAddToWhitelist inserts entitlement records from four parallel arrays.
// The arrays must have equal length; the whole batch lands or nothing does.
func (n *Node) BatchAddToWhitelist(caller [20]byte, indices []uint64, accounts [][20]byte, amounts []*big.Int, categories []uint8) error {
	if len(indices) != len(accounts) || len(indices) != len(amounts) || len(indices) != len(categories) {
		return entitlement.ErrLengthMismatch
	}
	additions := make([]entitlement.WhitelistAddition, len(indices))
	for i := range indices {
		additions[i] = entitlement.WhitelistAddition{
			Index:    indices[i],
			Account:  accounts[i],
			Amount:   amounts[i],
			Category: entitlement.Category(categories[i]),
		}
	}
	err := n.withCommit("batchAddToWhitelist", func(uint64) error {
		return n.registry.BatchAdd(caller, additions)
	})
	if err == nil {
		n.metrics.RecordBatchInsert(len(additions))
	}
	return err
}

// BatchRemoveFromWhitelist deletes unminted entries, aborting on a minted
// index when failOnMinted is set and skipping it otherwise.
func (n *Node) BatchRemoveFromWhitelist(caller [20]byte, indices []uint64, failOnMinted bool) error {
	return n.withCommit("batchRemoveFromWhitelist", func(uint64) error {
		return n.registry.BatchRemove(caller, indices, failOnMinted)
	})
}

// Mint consumes the entitlement at index, issuing its amount to the recorded
// account. Callable by the entitled account or a delegated operator.
func (n *Node) Mint(caller, to [20]byte, index uint64, label string) error {
	err := n.withCommit("mint", func(block uint64) error {
		return n.engine.Mint(block, caller, to, index, label)
	})
	if err == nil {
		n.metrics.RecordMint()
	}
	return err
}

// Transfer always fails: issued value never moves between accounts.
func (n *Node) Transfer(from, to [20]byte, amount *big.Int) error {
	return n.ledger.Transfer(from, to, amount)
}

// TakeMonthlySnapshot freezes the current block for (year, month) and
// returns it.
func (n *Node) TakeMonthlySnapshot(caller [20]byte, year uint16, month uint8) (uint64, error) {
	var frozen uint64
	err := n.withCommit("takeMonthlySnapshot", func(block uint64) error {
		var err error
		frozen, err = n.snapshots.Take(caller, block, n.now(), year, month)
		return err
	})
	if err != nil {
		return 0, err
	}
	n.metrics.RecordSnapshot()
	return frozen, nil
}

// BalanceOfAtBlock answers a historical balance query.
func (n *Node) BalanceOfAtBlock(account [20]byte, block uint64) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ledger.BalanceAtBlock(account, block)
}

// TotalSupplyAtBlock answers a historical supply query.
func (n *Node) TotalSupplyAtBlock(block uint64) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.ledger.TotalSupplyAtBlock(block)
}

// GetMonthlySnapshotShare returns (balance, totalSupply, shareFraction) at
// the period's frozen block, or all zeros when no snapshot exists.
func (n *Node) GetMonthlySnapshotShare(year uint16, month uint8, account [20]byte) (*big.Int, *big.Int, *big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snapshots.ShareAt(year, month, account)
}

// PreviewMonthlyReward computes the off-chain payout preview for account.
func (n *Node) PreviewMonthlyReward(year uint16, month uint8, account [20]byte, allocation *big.Int) (*big.Int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snapshots.PreviewReward(year, month, account, allocation)
}

// GetMonthlySnapshot returns the frozen record for (year, month) when one
// exists.
func (n *Node) GetMonthlySnapshot(year uint16, month uint8) (*entitlement.SnapshotRecord, bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.snapshots.Record(year, month)
}

// GetWhitelistInfo returns the entry at index together with its minted flag.
// Absence is reported through the boolean, not an error.
func (n *Node) GetWhitelistInfo(index uint64) (*entitlement.WhitelistEntry, bool, bool, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.registry.Entry(index)
}

// NextIndex exposes the advisory next-available-index counter.
func (n *Node) NextIndex() (uint64, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.registry.NextIndex()
}

// Events returns the committed events at or after fromBlock.
func (n *Node) Events(fromBlock uint64) []types.Event {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]types.Event, 0, len(n.eventLog))
	for _, evt := range n.eventLog {
		if evt.Height >= fromBlock {
			out = append(out, evt)
		}
	}
	return out
}
