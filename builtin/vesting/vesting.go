// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vesting holds the reward fund and reserves a fixed issuance for each
// epoch when it closes.
package vesting

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "vesting")

var (
	slotUnreserved = solidity.Slot("unreserved")
	slotIssuance   = solidity.Slot("issuance")
	slotReserved   = solidity.Slot("reserved")
	slotReleased   = solidity.Slot("released")
	slotDone       = solidity.Slot("reserve-done")
)

// Governance answers DAO membership.
type Governance interface {
	RequireDao(caller pozk.Address) error
}

// Bank moves tokens between accounts.
type Bank interface {
	Transfer(token, from, to pozk.Address, amount *big.Int) error
}

// Vesting binder of the reward fund.
type Vesting struct {
	ctx        *solidity.Context
	baseToken  pozk.Address
	gov        Governance
	bank       Bank
	unreserved *solidity.Uint256
	issuance   *solidity.Uint256
	reserved   *solidity.Mapping[solidity.Uint64Key, *big.Int]
	released   *solidity.Mapping[solidity.Uint64Key, *big.Int]
	done       *solidity.Mapping[solidity.Uint64Key, bool]
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer, baseToken pozk.Address, gov Governance, bank Bank) *Vesting {
	ctx := solidity.NewContext(addr, state, buf)
	return &Vesting{
		ctx:        ctx,
		baseToken:  baseToken,
		gov:        gov,
		bank:       bank,
		unreserved: solidity.NewUint256(ctx, slotUnreserved),
		issuance:   solidity.NewUint256(ctx, slotIssuance),
		reserved:   solidity.NewMapping[solidity.Uint64Key, *big.Int](ctx, slotReserved),
		released:   solidity.NewMapping[solidity.Uint64Key, *big.Int](ctx, slotReleased),
		done:       solidity.NewMapping[solidity.Uint64Key, bool](ctx, slotDone),
	}
}

// Address returns the fund address.
func (v *Vesting) Address() pozk.Address {
	return v.ctx.Address()
}

// Unreserved returns the fund not yet assigned to any epoch.
func (v *Vesting) Unreserved() (*big.Int, error) {
	return v.unreserved.Get()
}

// Issuance returns the amount reserved per closed epoch.
func (v *Vesting) Issuance() (*big.Int, error) {
	return v.issuance.Get()
}

// ApproveForReward moves amount from caller into the fund.
func (v *Vesting) ApproveForReward(caller pozk.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Violation("invalid amount")
	}
	if err := v.bank.Transfer(v.baseToken, caller, v.Address(), amount); err != nil {
		return err
	}
	if err := v.unreserved.Add(amount); err != nil {
		return err
	}
	v.ctx.Emit(&events.Event{Name: events.VestingFunded, Account: caller, Token: v.baseToken, Amount: new(big.Int).Set(amount)})
	return nil
}

// SetIssuance sets the per-epoch reservation.
func (v *Vesting) SetIssuance(caller pozk.Address, perEpoch *big.Int) error {
	if err := v.gov.RequireDao(caller); err != nil {
		return err
	}
	if perEpoch.Sign() < 0 {
		return reverts.Violation("invalid issuance")
	}
	if err := v.issuance.Set(perEpoch); err != nil {
		return err
	}
	v.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller}).
		WithData(map[string]string{"issuance": perEpoch.String()}))
	return nil
}

// Reserve assigns the issuance of a closed epoch, bounded by the fund left.
func (v *Vesting) Reserve(epoch uint64) (*big.Int, error) {
	key := solidity.Uint64Key(epoch)
	done, err := v.done.Get(key)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, reverts.Settled("epoch already reserved")
	}
	issuance, err := v.issuance.Get()
	if err != nil {
		return nil, err
	}
	unreserved, err := v.unreserved.Get()
	if err != nil {
		return nil, err
	}
	amount := pozk.MinBig(issuance, unreserved)
	if err := v.unreserved.Sub(amount); err != nil {
		return nil, err
	}
	if err := v.reserved.Set(key, amount); err != nil {
		return nil, err
	}
	if err := v.done.Set(key, true); err != nil {
		return nil, err
	}

	if amount.Cmp(issuance) < 0 {
		logger.Warn("reward fund short of issuance", "epoch", epoch, "reserved", amount, "issuance", issuance)
	}
	v.ctx.Emit((&events.Event{Name: events.IssuanceReserved, Token: v.baseToken, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]uint64{"epoch": epoch}))
	return amount, nil
}

// Reserved returns the issuance reserved for epoch.
func (v *Vesting) Reserved(epoch uint64) (*big.Int, error) {
	return v.reserved.Get(solidity.Uint64Key(epoch))
}

// Released returns how much of the reservation of epoch was paid out.
func (v *Vesting) Released(epoch uint64) (*big.Int, error) {
	return v.released.Get(solidity.Uint64Key(epoch))
}

// Release pays amount out of the reservation of epoch.
func (v *Vesting) Release(epoch uint64, to pozk.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	key := solidity.Uint64Key(epoch)
	reserved, err := v.reserved.Get(key)
	if err != nil {
		return err
	}
	released, err := v.released.Get(key)
	if err != nil {
		return err
	}
	released.Add(released, amount)
	if released.Cmp(reserved) > 0 {
		return reverts.Insufficient("epoch reservation exhausted")
	}
	if err := v.released.Set(key, released); err != nil {
		return err
	}
	return v.bank.Transfer(v.baseToken, v.Address(), to, amount)
}
