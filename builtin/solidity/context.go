// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

// Context binds a builtin contract address to the state it reads and the
// buffer it emits events into.
type Context struct {
	address pozk.Address
	state   *state.State
	events  *events.Buffer
}

func NewContext(address pozk.Address, state *state.State, events *events.Buffer) *Context {
	return &Context{
		address: address,
		state:   state,
		events:  events,
	}
}

func (c *Context) Address() pozk.Address {
	return c.address
}

func (c *Context) State() *state.State {
	return c.state
}

// Emit records ev as emitted by this contract.
func (c *Context) Emit(ev *events.Event) {
	ev.Contract = c.address
	c.events.Add(ev)
}
