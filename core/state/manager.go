package state

import (
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"rewardmint/storage"
)

// Manager mediates all contract state access. Writes are staged in an
// in-memory overlay and only reach the backing database on Commit, which
// gives every state-changing call all-or-nothing semantics: the caller runs
// the operation, then either commits the staged writes or discards them.
type Manager struct {
	db      storage.Database
	overlay map[string]stagedValue
}

type stagedValue struct {
	data    []byte
	deleted bool
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db, overlay: make(map[string]stagedValue)}
}

// Commit flushes every staged write to the backing database and clears the
// overlay. A failed flush leaves the database partially written only at the
// storage layer; callers treat any commit error as fatal.
func (m *Manager) Commit() error {
	for key, staged := range m.overlay {
		if staged.deleted {
			if err := m.db.Delete([]byte(key)); err != nil {
				return fmt.Errorf("state: commit delete: %w", err)
			}
			continue
		}
		if err := m.db.Put([]byte(key), staged.data); err != nil {
			return fmt.Errorf("state: commit put: %w", err)
		}
	}
	m.overlay = make(map[string]stagedValue)
	return nil
}

// Discard drops every staged write, reverting the manager to the last
// committed state.
func (m *Manager) Discard() {
	m.overlay = make(map[string]stagedValue)
}

// Dirty reports whether uncommitted writes are staged.
func (m *Manager) Dirty() bool {
	return len(m.overlay) > 0
}

// kvKey hashes logical keys so arbitrary-length prefixes map onto fixed-width
// database keys with no delimiter ambiguity.
func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// kvPut stages the RLP encoding of value under the supplied key.
func (m *Manager) kvPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.overlay[string(kvKey(key))] = stagedValue{data: encoded}
	return nil
}

// kvGet decodes the value stored under the supplied key into out, reading
// through the overlay first. The boolean reports whether the key exists.
func (m *Manager) kvGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("state: key must not be empty")
	}
	hashed := kvKey(key)
	data, ok, err := m.lookup(hashed)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// kvDelete stages a tombstone for the supplied key.
func (m *Manager) kvDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("state: key must not be empty")
	}
	m.overlay[string(kvKey(key))] = stagedValue{deleted: true}
	return nil
}

func (m *Manager) lookup(hashed []byte) ([]byte, bool, error) {
	if staged, ok := m.overlay[string(hashed)]; ok {
		if staged.deleted {
			return nil, false, nil
		}
		return staged.data, true, nil
	}
	data, err := m.db.Get(hashed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}
