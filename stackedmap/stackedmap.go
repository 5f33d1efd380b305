// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stackedmap provides a map with checkpoint and revert semantics.
package stackedmap

// Entry is one recorded Put.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Source loads values missing from every level.
type Source[K comparable, V any] func(key K) (value V, exist bool, err error)

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []Entry[K, V]
}

// StackedMap maintains maps in a stack.
// Each level inherits the key/values of the levels below it, and popping a
// level discards every Put made since the matching Push.
type StackedMap[K comparable, V any] struct {
	src    Source[K, V]
	levels []*level[K, V]
	// depths at which each key was written, topmost last
	revs map[K][]int
}

// New creates a stacked map with one level on top of src.
func New[K comparable, V any](src Source[K, V]) *StackedMap[K, V] {
	sm := &StackedMap[K, V]{
		src:  src,
		revs: make(map[K][]int),
	}
	sm.Push()
	return sm
}

// Depth returns depth of stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes a new level and returns the depth before the push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop discards the top level.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.revs[key]
		if len(revs) <= 1 {
			delete(sm.revs, key)
		} else {
			sm.revs[key] = revs[:len(revs)-1]
		}
	}
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pops levels until stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get returns the value visible from the top level, falling back to the source.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if revs, ok := sm.revs[key]; ok {
		return sm.levels[revs[len(revs)-1]].kvs[key], true, nil
	}
	return sm.src(key)
}

// Put writes into the top level. It panics if the stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	depth := len(sm.levels) - 1
	top := sm.levels[depth]
	if _, written := top.kvs[key]; !written {
		sm.revs[key] = append(sm.revs[key], depth)
	}
	top.kvs[key] = value
	top.journal = append(top.journal, Entry[K, V]{key, value})
}

// Journal returns every live Put in order.
func (sm *StackedMap[K, V]) Journal() []Entry[K, V] {
	var j []Entry[K, V]
	for _, lvl := range sm.levels {
		j = append(j, lvl.journal...)
	}
	return j
}
