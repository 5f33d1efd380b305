// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"time"

	"github.com/pozk/ledger/builtin/controller"
	"github.com/pozk/ledger/builtin/epoch"
	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/builtin/reward"
	"github.com/pozk/ledger/builtin/stake"
	"github.com/pozk/ledger/builtin/task"
	"github.com/pozk/ledger/builtin/token"
	"github.com/pozk/ledger/builtin/vesting"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

// Builtin contracts binding.
var (
	Token      = newContract("Token")
	Epoch      = newContract("Epoch")
	Prover     = newContract("Prover")
	Controller = newContract("Controller")
	Stake      = newContract("Stake")
	Vesting    = newContract("Vesting")
	Task       = newContract("Task")
	Reward     = newContract("Reward")
)

// BaseToken is the token stakes, deposits and base rewards are paid in.
var BaseToken = pozk.BytesToAddress([]byte("ZKP"))

// Contracts is the set of contracts bound to one state.
type Contracts struct {
	Token      *token.Token
	Epoch      *epoch.Epoch
	Prover     *prover.Registry
	Controller *controller.Controller
	Stake      *stake.Ledger
	Vesting    *vesting.Vesting
	Task       *task.Tracker
	Reward     *reward.Settlement
}

// Options customizes the binding.
type Options struct {
	Now      func() uint64
	Verifier task.Verifier
	Sizer    reward.PoolSizer
	// WrapSizer, when set, decorates the pool sizer, e.g. with a cache.
	WrapSizer func(inner reward.PoolSizer, clock reward.Clock) reward.PoolSizer
}

// Bind wires every contract against st, emitting into buf.
func Bind(st *state.State, buf *events.Buffer, opts Options) *Contracts {
	if opts.Now == nil {
		opts.Now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	c := &Contracts{}
	c.Token = token.New(Token.Address, st, buf)
	c.Epoch = epoch.New(Epoch.Address, st, buf)
	c.Prover = prover.New(Prover.Address, st, buf, c.Epoch)
	c.Controller = controller.New(Controller.Address, st, buf)
	c.Stake = stake.New(Stake.Address, st, buf, BaseToken, c.Epoch, c.Prover, c.Token)
	c.Vesting = vesting.New(Vesting.Address, st, buf, BaseToken, c.Epoch, c.Token)
	c.Task = task.New(Task.Address, st, buf, task.Deps{
		BaseToken: BaseToken,
		Now:       opts.Now,
		Clock:     c.Epoch,
		Gov:       c.Epoch,
		Provers:   c.Prover,
		Miners:    c.Stake,
		Delegates: c.Controller,
		Bank:      c.Token,
		Verifier:  opts.Verifier,
	})
	sizer := opts.Sizer
	if sizer == nil {
		sizer = &reward.WeightedPool{Fund: c.Vesting, Work: c.Task, Provers: c.Prover, Stakes: c.Stake}
	}
	if opts.WrapSizer != nil {
		sizer = opts.WrapSizer(sizer, c.Epoch)
	}
	c.Reward = reward.New(Reward.Address, st, buf, reward.Deps{
		Clock:   c.Epoch,
		Gov:     c.Epoch,
		Work:    c.Task,
		Stakes:  c.Stake,
		Provers: c.Prover,
		Fund:    c.Vesting,
		Bank:    c.Token,
		Sizer:   sizer,
	})
	return c
}
