// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"maps"
	"slices"

	"github.com/pkg/errors"

	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/builtin/reward"
	"github.com/pozk/ledger/pozk"
)

// Genesis is a built-in or customized initial ledger.
type Genesis struct {
	builder *Builder
	id      pozk.Bytes32
	name    string
}

// ID returns the hash of the document the genesis was built from.
func (g *Genesis) ID() pozk.Bytes32 {
	return g.id
}

// Name returns the network name.
func (g *Genesis) Name() string {
	return g.name
}

// Build applies the genesis to an empty state.
func (g *Genesis) Build(c *builtin.Contracts) error {
	return g.builder.Build(c)
}

// New creates the genesis described by doc. A zero launch time takes now.
func New(doc *Document, now uint64) (*Genesis, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	raw, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	launch := doc.LaunchTime
	if launch == 0 {
		launch = now
	}
	mode, err := pozk.ParseMode(doc.Mode)
	if err != nil {
		return nil, err
	}
	gov := doc.Dao[0]

	builder := new(Builder).
		Timestamp(launch).
		State(func(c *builtin.Contracts) error {
			if err := c.Epoch.Init(launch, doc.Period, mode, doc.Dao); err != nil {
				return err
			}
			for _, a := range doc.Accounts {
				token := builtin.BaseToken
				if a.Token != nil {
					token = *a.Token
				}
				if err := c.Token.Mint(token, a.Address, a.Balance.Int()); err != nil {
					return errors.WithMessagef(err, "alloc %v", a.Address)
				}
			}
			return nil
		})

	params := doc.Params
	if params.MinStakeAmount != nil {
		builder.Call(gov, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Prover.SetDefaultMinStake(caller, params.MinStakeAmount.Int())
		})
	}
	if params.DisputeDeposit != nil {
		builder.Call(gov, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Task.SetDisputeDeposit(caller, params.DisputeDeposit.Int())
		})
	}
	if params.DisputeWindow != 0 {
		builder.Call(gov, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Task.SetDisputeWindow(caller, params.DisputeWindow)
		})
	}
	for _, name := range slices.Sorted(maps.Keys(params.Tranches)) {
		role, _ := pozk.ParseRole(name)
		tr := params.Tranches[name]
		builder.Call(gov, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Reward.SetTranche(caller, role, reward.Tranche(tr))
		})
	}
	if params.Issuance != nil {
		builder.Call(gov, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Vesting.SetIssuance(caller, params.Issuance.Int())
		})
	}
	for _, f := range doc.Vesting {
		builder.Call(f.Funder, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Vesting.ApproveForReward(caller, f.Amount.Int())
		})
	}
	for _, p := range doc.Provers {
		builder.Call(p.Owner, func(c *builtin.Contracts, caller pozk.Address) error {
			return c.Prover.Register(caller, p.ID, prover.Params{
				Work:     p.Work,
				Version:  p.Version,
				Overtime: p.Overtime,
				Verifier: p.Verifier,
			})
		})
		if p.Approved {
			builder.Call(gov, func(c *builtin.Contracts, caller pozk.Address) error {
				return c.Prover.Approve(caller, p.ID, p.Minable, true)
			})
		}
	}

	return &Genesis{
		builder: builder,
		id:      pozk.Blake2b(raw),
		name:    doc.Name,
	}, nil
}
