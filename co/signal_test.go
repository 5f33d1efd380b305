// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pozk/ledger/co"
)

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestBroadcastBeforeWaiter(t *testing.T) {
	var sig co.Signal
	sig.Broadcast()
	assert.False(t, closed(sig.NewWaiter().C()))
}

func TestBroadcastWakesAll(t *testing.T) {
	var sig co.Signal
	ws := make([]co.Waiter, 10)
	for i := range ws {
		ws[i] = sig.NewWaiter()
	}
	sig.Broadcast()
	for _, w := range ws {
		assert.True(t, closed(w.C()))
	}
}

func TestWaiterRearms(t *testing.T) {
	var sig co.Signal
	w := sig.NewWaiter()

	sig.Broadcast()
	assert.True(t, closed(w.C()))
	next := w.C()
	assert.False(t, closed(next))

	sig.Broadcast()
	select {
	case <-next:
	case <-time.After(time.Second):
		t.Fatal("waiter not woken")
	}
}

func TestGoes(t *testing.T) {
	var g co.Goes
	n := make(chan int, 3)
	for i := range 3 {
		g.Go(func() { n <- i })
	}
	<-g.Done()
	g.Wait()
	assert.Len(t, n, 3)
}
