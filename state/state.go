// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/pozk/ledger/kv"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/stackedmap"
)

// StorageBucket holds committed contract slots.
const StorageBucket = kv.Bucket("s")

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return "state: " + e.cause.Error()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr pozk.Address
	key  pozk.Bytes32
}

func (k storageKey) bytes() []byte {
	b := make([]byte, 0, pozk.AddressLength+32)
	b = append(b, k.addr[:]...)
	return append(b, k.key[:]...)
}

// State manages contract storage slots on top of a kv store.
// Writes are journaled in memory until staged and committed.
type State struct {
	db    kv.Getter
	cache *Cache
	sm    *stackedmap.StackedMap[storageKey, rlp.RawValue]
}

// New create a state object over committed storage. cache may be nil.
func New(db kv.Getter, cache *Cache) *State {
	s := &State{
		db:    StorageBucket.NewGetter(db),
		cache: cache,
	}
	s.sm = stackedmap.New(s.load)
	return s
}

func (s *State) load(k storageKey) (rlp.RawValue, bool, error) {
	key := k.bytes()
	if v, ok := s.cache.Get(key); ok {
		return v, true, nil
	}
	v, err := s.db.Get(key)
	if err != nil {
		if !s.db.IsNotFound(err) {
			return nil, false, err
		}
		v = nil
	}
	s.cache.Set(key, v)
	return v, true, nil
}

// GetRawStorage returns storage raw value for the given address and key.
func (s *State) GetRawStorage(addr pozk.Address, key pozk.Bytes32) (rlp.RawValue, error) {
	v, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// SetRawStorage set storage raw value for the given address and key.
func (s *State) SetRawStorage(addr pozk.Address, key pozk.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr pozk.Address, key pozk.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
// dec receives an empty slice when the slot was never written.
func (s *State) DecodeStorage(addr pozk.Address, key pozk.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Stage collects the latest value of every slot written since New.
func (s *State) Stage() *Stage {
	latest := make(map[storageKey]int)
	var changes []change
	for _, e := range s.sm.Journal() {
		if i, ok := latest[e.Key]; ok {
			changes[i].value = e.Value
			continue
		}
		latest[e.Key] = len(changes)
		changes = append(changes, change{e.Key, e.Value})
	}
	return &Stage{changes: changes, cache: s.cache}
}

type change struct {
	key   storageKey
	value rlp.RawValue
}

// Stage holds slot changes ready to be written.
type Stage struct {
	changes []change
	cache   *Cache
}

// Len returns the count of changed slots.
func (st *Stage) Len() int {
	return len(st.changes)
}

// Commit writes the changes into putter. Empty values delete the slot.
func (st *Stage) Commit(putter kv.Putter) error {
	p := StorageBucket.NewPutter(putter)
	for _, c := range st.changes {
		key := c.key.bytes()
		var err error
		if len(c.value) == 0 {
			err = p.Delete(key)
		} else {
			err = p.Put(key, c.value)
		}
		if err != nil {
			return &Error{err}
		}
	}
	return nil
}

// Publish refreshes the read cache after the putter was written.
func (st *Stage) Publish() {
	for _, c := range st.changes {
		st.cache.Set(c.key.bytes(), c.value)
	}
}
