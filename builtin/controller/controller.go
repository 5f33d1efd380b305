// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package controller records which controller keys may act for an account
// when accepting and submitting tasks.
package controller

import (
	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var (
	slotDelegates = solidity.Slot("delegates")
	slotIndex     = solidity.Slot("index")
)

// Controller binder of the controller contract.
type Controller struct {
	ctx       *solidity.Context
	delegates *solidity.Mapping[solidity.CompositeKey, bool]
	index     *solidity.List[pozk.Address, pozk.Address]
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer) *Controller {
	ctx := solidity.NewContext(addr, state, buf)
	return &Controller{
		ctx:       ctx,
		delegates: solidity.NewMapping[solidity.CompositeKey, bool](ctx, slotDelegates),
		index:     solidity.NewList[pozk.Address, pozk.Address](ctx, slotIndex),
	}
}

// Authorized returns whether caller may act for account.
func (c *Controller) Authorized(account, caller pozk.Address) (bool, error) {
	if account == caller {
		return true, nil
	}
	return c.delegates.Get(solidity.Compose(account, caller))
}

// Add lets controller act for account.
func (c *Controller) Add(account, controller pozk.Address) error {
	if controller.IsZero() || controller == account {
		return reverts.Violation("invalid controller")
	}
	key := solidity.Compose(account, controller)
	exists, err := c.delegates.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.index.Append(account, controller); err != nil {
			return err
		}
	}
	if err := c.delegates.Set(key, true); err != nil {
		return err
	}
	c.ctx.Emit((&events.Event{Name: events.ControllerChanged, Account: account}).
		WithData(map[string]any{"controller": controller.String(), "active": true}))
	return nil
}

// Remove revokes controller.
func (c *Controller) Remove(account, controller pozk.Address) error {
	key := solidity.Compose(account, controller)
	ok, err := c.delegates.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Violation("controller not found")
	}
	if err := c.delegates.Set(key, false); err != nil {
		return err
	}
	c.ctx.Emit((&events.Event{Name: events.ControllerChanged, Account: account}).
		WithData(map[string]any{"controller": controller.String(), "active": false}))
	return nil
}

// Controllers returns the active controllers of account.
func (c *Controller) Controllers(account pozk.Address) ([]pozk.Address, error) {
	all, err := c.index.All(account)
	if err != nil {
		return nil, err
	}
	active := make([]pozk.Address, 0, len(all))
	for _, ctl := range all {
		ok, err := c.delegates.Get(solidity.Compose(account, ctl))
		if err != nil {
			return nil, err
		}
		if ok {
			active = append(active, ctl)
		}
	}
	return active, nil
}
