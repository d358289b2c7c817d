package state

import (
	"fmt"

	"rewardmint/native/entitlement"
)

// Logical key prefixes for the entitlement module. Keys are hashed before
// they touch the database, so only uniqueness matters here.
const (
	whitelistPrefix   = "entitlement/whitelist/%d"
	mintedPrefix      = "entitlement/minted/%d"
	accountCkptPrefix = "entitlement/checkpoints/account/%x"
	supplyCkptKey     = "entitlement/checkpoints/supply"
	snapshotPrefix    = "entitlement/snapshot/%d/%d"
	operatorsKey      = "entitlement/operators"
	ownerKey          = "entitlement/owner"
	nextIndexKey      = "entitlement/nextIndex"
	batchSeqKey       = "entitlement/batchSequence"
	heightKey         = "entitlement/height"
)

func whitelistKey(index uint64) []byte {
	return []byte(fmt.Sprintf(whitelistPrefix, index))
}

func mintedKey(index uint64) []byte {
	return []byte(fmt.Sprintf(mintedPrefix, index))
}

func accountCkptKey(addr [20]byte) []byte {
	return []byte(fmt.Sprintf(accountCkptPrefix, addr))
}

func snapshotKey(year uint16, month uint8) []byte {
	return []byte(fmt.Sprintf(snapshotPrefix, year, month))
}

// WhitelistEntry loads the entitlement record stored at index.
func (m *Manager) WhitelistEntry(index uint64) (*entitlement.WhitelistEntry, bool, error) {
	entry := new(entitlement.WhitelistEntry)
	ok, err := m.kvGet(whitelistKey(index), entry)
	if err != nil || !ok {
		return nil, false, err
	}
	return entry, true, nil
}

// PutWhitelistEntry persists the entitlement record at index.
func (m *Manager) PutWhitelistEntry(index uint64, entry *entitlement.WhitelistEntry) error {
	if entry == nil {
		return fmt.Errorf("state: nil whitelist entry")
	}
	return m.kvPut(whitelistKey(index), entry)
}

// DeleteWhitelistEntry removes the entitlement record at index.
func (m *Manager) DeleteWhitelistEntry(index uint64) error {
	return m.kvDelete(whitelistKey(index))
}

// MintedFlag reports whether index has been consumed by a mint.
func (m *Manager) MintedFlag(index uint64) (bool, error) {
	var minted bool
	ok, err := m.kvGet(mintedKey(index), &minted)
	if err != nil {
		return false, err
	}
	return ok && minted, nil
}

// SetMintedFlag marks index as consumed. The transition is one-way; no
// clearing accessor exists.
func (m *Manager) SetMintedFlag(index uint64) error {
	return m.kvPut(mintedKey(index), true)
}

// AccountCheckpoints loads the balance history for addr.
func (m *Manager) AccountCheckpoints(addr [20]byte) ([]entitlement.Checkpoint, error) {
	var history []entitlement.Checkpoint
	if _, err := m.kvGet(accountCkptKey(addr), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SetAccountCheckpoints persists the balance history for addr.
func (m *Manager) SetAccountCheckpoints(addr [20]byte, history []entitlement.Checkpoint) error {
	return m.kvPut(accountCkptKey(addr), history)
}

// SupplyCheckpoints loads the total-supply history.
func (m *Manager) SupplyCheckpoints() ([]entitlement.Checkpoint, error) {
	var history []entitlement.Checkpoint
	if _, err := m.kvGet([]byte(supplyCkptKey), &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SetSupplyCheckpoints persists the total-supply history.
func (m *Manager) SetSupplyCheckpoints(history []entitlement.Checkpoint) error {
	return m.kvPut([]byte(supplyCkptKey), history)
}

// SnapshotRecord loads the frozen block for (year, month).
func (m *Manager) SnapshotRecord(year uint16, month uint8) (*entitlement.SnapshotRecord, bool, error) {
	rec := new(entitlement.SnapshotRecord)
	ok, err := m.kvGet(snapshotKey(year, month), rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}

// PutSnapshotRecord persists a frozen block for the record's period.
func (m *Manager) PutSnapshotRecord(rec *entitlement.SnapshotRecord) error {
	if rec == nil {
		return fmt.Errorf("state: nil snapshot record")
	}
	return m.kvPut(snapshotKey(rec.Year, rec.Month), rec)
}

// Operators returns the delegated-operator set in insertion order.
func (m *Manager) Operators() ([][20]byte, error) {
	var operators [][20]byte
	if _, err := m.kvGet([]byte(operatorsKey), &operators); err != nil {
		return nil, err
	}
	return operators, nil
}

// IsOperator reports delegated-operator membership for addr.
func (m *Manager) IsOperator(addr [20]byte) (bool, error) {
	operators, err := m.Operators()
	if err != nil {
		return false, err
	}
	for _, operator := range operators {
		if operator == addr {
			return true, nil
		}
	}
	return false, nil
}

// AddOperator appends addr to the operator set. Membership checks belong to
// the engine; duplicates are ignored here to keep the list deterministic.
func (m *Manager) AddOperator(addr [20]byte) error {
	operators, err := m.Operators()
	if err != nil {
		return err
	}
	for _, operator := range operators {
		if operator == addr {
			return nil
		}
	}
	return m.kvPut([]byte(operatorsKey), append(operators, addr))
}

// RemoveOperator drops addr from the operator set.
func (m *Manager) RemoveOperator(addr [20]byte) error {
	operators, err := m.Operators()
	if err != nil {
		return err
	}
	filtered := operators[:0]
	for _, operator := range operators {
		if operator != addr {
			filtered = append(filtered, operator)
		}
	}
	return m.kvPut([]byte(operatorsKey), filtered)
}

// Owner returns the privileged owner address.
func (m *Manager) Owner() ([20]byte, error) {
	var owner [20]byte
	if _, err := m.kvGet([]byte(ownerKey), &owner); err != nil {
		return [20]byte{}, err
	}
	return owner, nil
}

// SetOwner records the privileged owner address.
func (m *Manager) SetOwner(addr [20]byte) error {
	return m.kvPut([]byte(ownerKey), addr)
}

// IsOwner reports whether addr holds the owner role. Errors while reading
// state result in a false return, matching the best-effort semantics the
// authorization guards require.
func (m *Manager) IsOwner(addr [20]byte) bool {
	if addr == ([20]byte{}) {
		return false
	}
	owner, err := m.Owner()
	if err != nil {
		return false
	}
	return owner == addr
}

// NextIndex returns the advisory next-available-index counter.
func (m *Manager) NextIndex() (uint64, error) {
	var next uint64
	if _, err := m.kvGet([]byte(nextIndexKey), &next); err != nil {
		return 0, err
	}
	return next, nil
}

// SetNextIndex records the advisory next-available-index counter.
func (m *Manager) SetNextIndex(next uint64) error {
	return m.kvPut([]byte(nextIndexKey), next)
}

// BatchSequence returns the number of completed whitelist batches.
func (m *Manager) BatchSequence() (uint64, error) {
	var seq uint64
	if _, err := m.kvGet([]byte(batchSeqKey), &seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// SetBatchSequence records the completed-batch counter.
func (m *Manager) SetBatchSequence(seq uint64) error {
	return m.kvPut([]byte(batchSeqKey), seq)
}

// ChainHeight returns the last committed block height.
func (m *Manager) ChainHeight() (uint64, error) {
	var height uint64
	if _, err := m.kvGet([]byte(heightKey), &height); err != nil {
		return 0, err
	}
	return height, nil
}

// SetChainHeight records the last committed block height.
func (m *Manager) SetChainHeight(height uint64) error {
	return m.kvPut([]byte(heightKey), height)
}
