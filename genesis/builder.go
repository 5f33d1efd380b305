// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/pozk"
)

// Builder helper to build the initial ledger state.
type Builder struct {
	timestamp uint64
	procs     []func(c *builtin.Contracts) error
	calls     []call
}

type call struct {
	caller pozk.Address
	fn     func(c *builtin.Contracts, caller pozk.Address) error
}

// Timestamp sets the start time of epoch 0.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State adds a raw state procedure, run before any call.
func (b *Builder) State(proc func(c *builtin.Contracts) error) *Builder {
	b.procs = append(b.procs, proc)
	return b
}

// Call adds an operation performed as caller once the state procedures ran.
func (b *Builder) Call(caller pozk.Address, fn func(c *builtin.Contracts, caller pozk.Address) error) *Builder {
	b.calls = append(b.calls, call{caller, fn})
	return b
}

// Build applies the procedures and calls to c.
func (b *Builder) Build(c *builtin.Contracts) error {
	for _, proc := range b.procs {
		if err := proc(c); err != nil {
			return errors.Wrap(err, "state process")
		}
	}
	for i, call := range b.calls {
		if err := call.fn(c, call.caller); err != nil {
			return errors.Wrapf(err, "genesis call %d", i)
		}
	}
	return nil
}
