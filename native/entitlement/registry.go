package entitlement

import (
	"fmt"

	"rewardmint/core/events"
)

// RegistryState describes the whitelist persistence the registry needs from
// the surrounding state implementation.
type RegistryState interface {
	WhitelistEntry(index uint64) (*WhitelistEntry, bool, error)
	PutWhitelistEntry(index uint64, entry *WhitelistEntry) error
	DeleteWhitelistEntry(index uint64) error
	MintedFlag(index uint64) (bool, error)
	NextIndex() (uint64, error)
	SetNextIndex(next uint64) error
	BatchSequence() (uint64, error)
	SetBatchSequence(seq uint64) error
	IsOwner(addr [20]byte) bool
}

// Registry manages the whitelist of claimable entitlements. All mutations are
// owner-only and batch-scoped: a batch either lands completely or not at all.
type Registry struct {
	st      RegistryState
	emitter events.Emitter
}

func NewRegistry(st RegistryState) *Registry {
	return &Registry{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// BatchAdd inserts every addition or none. Validation runs over the full
// batch before the first write: a zero account, non-positive amount, unknown
// category, live entry, spent index, or duplicate index inside the batch
// rejects the whole request.
func (r *Registry) BatchAdd(caller [20]byte, additions []WhitelistAddition) error {
	if !r.st.IsOwner(caller) {
		return ErrNotOwner
	}
	if len(additions) == 0 {
		return ErrEmptyBatch
	}
	seen := make(map[uint64]struct{}, len(additions))
	for _, add := range additions {
		if add.Account == ([20]byte{}) {
			return fmt.Errorf("%w: index %d", ErrZeroAccount, add.Index)
		}
		if add.Amount == nil || add.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: index %d", ErrZeroAmount, add.Index)
		}
		if !add.Category.Valid() {
			return fmt.Errorf("%w: index %d category %d", ErrInvalidCategory, add.Index, add.Category)
		}
		if _, dup := seen[add.Index]; dup {
			return fmt.Errorf("%w: index %d repeated in batch", ErrEntryExists, add.Index)
		}
		seen[add.Index] = struct{}{}
		if _, exists, err := r.st.WhitelistEntry(add.Index); err != nil {
			return err
		} else if exists {
			return fmt.Errorf("%w: index %d", ErrEntryExists, add.Index)
		}
		minted, err := r.st.MintedFlag(add.Index)
		if err != nil {
			return err
		}
		if minted {
			return fmt.Errorf("%w: index %d", ErrAlreadyMinted, add.Index)
		}
	}

	minIndex, maxIndex := additions[0].Index, additions[0].Index
	for _, add := range additions {
		if add.Index < minIndex {
			minIndex = add.Index
		}
		if add.Index > maxIndex {
			maxIndex = add.Index
		}
		entry := &WhitelistEntry{Account: add.Account, Amount: add.Amount, Category: add.Category}
		if err := r.st.PutWhitelistEntry(add.Index, entry.Clone()); err != nil {
			return err
		}
		r.emitter.Emit(events.WhitelistAdded{
			Index:    add.Index,
			Account:  add.Account,
			Amount:   copyAmount(add.Amount),
			Category: add.Category.String(),
		})
	}

	seq, err := r.st.BatchSequence()
	if err != nil {
		return err
	}
	seq++
	if err := r.st.SetBatchSequence(seq); err != nil {
		return err
	}
	// Advisory only. A later batch of smaller indices moves this backwards;
	// callers must not treat it as a uniqueness source.
	if err := r.st.SetNextIndex(maxIndex + 1); err != nil {
		return err
	}
	r.emitter.Emit(events.WhitelistBatchCompleted{
		Sequence: seq,
		Count:    uint64(len(additions)),
		MinIndex: minIndex,
		MaxIndex: maxIndex,
	})
	return nil
}

// BatchRemove deletes unminted entries. Absent indices are skipped silently.
// A minted index aborts the whole call when failOnMinted is set and is
// skipped otherwise, letting the caller pick strict or lenient cleanup.
func (r *Registry) BatchRemove(caller [20]byte, indices []uint64, failOnMinted bool) error {
	if !r.st.IsOwner(caller) {
		return ErrNotOwner
	}
	if len(indices) == 0 {
		return ErrEmptyBatch
	}
	// Pre-scan so a strict removal aborts before any entry is deleted.
	if failOnMinted {
		for _, index := range indices {
			minted, err := r.st.MintedFlag(index)
			if err != nil {
				return err
			}
			if minted {
				return fmt.Errorf("%w: index %d", ErrAlreadyMinted, index)
			}
		}
	}
	for _, index := range indices {
		entry, exists, err := r.st.WhitelistEntry(index)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		minted, err := r.st.MintedFlag(index)
		if err != nil {
			return err
		}
		if minted {
			continue
		}
		if err := r.st.DeleteWhitelistEntry(index); err != nil {
			return err
		}
		r.emitter.Emit(events.WhitelistRemoved{
			Index:   index,
			Account: entry.Account,
			Amount:  copyAmount(entry.Amount),
		})
	}
	return nil
}

// Entry returns the stored whitelist record and its minted flag. Absence is
// reported through the boolean, never as an error.
func (r *Registry) Entry(index uint64) (*WhitelistEntry, bool, bool, error) {
	entry, exists, err := r.st.WhitelistEntry(index)
	if err != nil {
		return nil, false, false, err
	}
	minted, err := r.st.MintedFlag(index)
	if err != nil {
		return nil, false, false, err
	}
	if !exists {
		return nil, minted, false, nil
	}
	return entry.Clone(), minted, true, nil
}

// NextIndex exposes the advisory next-available-index counter.
func (r *Registry) NextIndex() (uint64, error) {
	return r.st.NextIndex()
}
