// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Waiter wakes up once per broadcast.
type Waiter interface {
	// C returns a channel closed by the next broadcast after the previous C call.
	C() <-chan struct{}
}

// Signal wakes every waiter on Broadcast.
// The zero value is ready to use.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func (s *Signal) current() chan struct{} {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Broadcast wakes all waiters.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	close(s.current())
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// NewWaiter creates a waiter that observes broadcasts made after its creation.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	w := &waiter{sig: s, ch: s.current()}
	s.mu.Unlock()
	return w
}

type waiter struct {
	sig *Signal
	ch  chan struct{}
}

func (w *waiter) C() <-chan struct{} {
	ch := w.ch
	w.sig.mu.Lock()
	w.ch = w.sig.current()
	w.sig.mu.Unlock()
	return ch
}
