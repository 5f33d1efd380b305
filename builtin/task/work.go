// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package task

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
)

func countKey(epoch uint64, prover, account pozk.Address, role pozk.Role) solidity.CompositeKey {
	return solidity.Compose(solidity.Uint64Key(epoch), prover, account, solidity.RoleKey(role))
}

func totalKey(epoch uint64, prover pozk.Address, role pozk.Role) solidity.CompositeKey {
	return solidity.Compose(solidity.Uint64Key(epoch), prover, solidity.RoleKey(role))
}

func accountKey(epoch uint64, account pozk.Address, role pozk.Role) solidity.CompositeKey {
	return solidity.Compose(solidity.Uint64Key(epoch), account, solidity.RoleKey(role))
}

func (t *Tracker) count(epoch uint64, prover, account pozk.Address, role pozk.Role) error {
	key := countKey(epoch, prover, account, role)
	n, err := t.counts.Get(key)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := t.accountProvers.Append(accountKey(epoch, account, role), prover); err != nil {
			return err
		}
	}
	if err := t.counts.Set(key, n+1); err != nil {
		return err
	}
	tk := totalKey(epoch, prover, role)
	total, err := t.totals.Get(tk)
	if err != nil {
		return err
	}
	return t.totals.Set(tk, total+1)
}

func (t *Tracker) addWeight(epoch uint64, prover pozk.Address, work uint64) error {
	key := solidity.Compose(solidity.Uint64Key(epoch), prover)
	w, err := t.weights.Get(key)
	if err != nil {
		return err
	}
	if w == 0 {
		if err := t.epochProvers.Append(solidity.Uint64Key(epoch), prover); err != nil {
			return err
		}
	}
	return t.weights.Set(key, w+work)
}

// Count returns the tasks account completed for prover in epoch under role.
func (t *Tracker) Count(epoch uint64, prover, account pozk.Address, role pozk.Role) (uint64, error) {
	return t.counts.Get(countKey(epoch, prover, account, role))
}

// Total returns the tasks counted for prover in epoch under role, over all accounts.
func (t *Tracker) Total(epoch uint64, prover pozk.Address, role pozk.Role) (uint64, error) {
	return t.totals.Get(totalKey(epoch, prover, role))
}

// Weight returns the work weight submitted for prover in epoch.
func (t *Tracker) Weight(epoch uint64, prover pozk.Address) (uint64, error) {
	return t.weights.Get(solidity.Compose(solidity.Uint64Key(epoch), prover))
}

// AccountProvers lists the provers account has work counted against in epoch.
func (t *Tracker) AccountProvers(epoch uint64, account pozk.Address, role pozk.Role) ([]pozk.Address, error) {
	return t.accountProvers.All(accountKey(epoch, account, role))
}

// EpochProvers lists the provers with submitted work in epoch.
func (t *Tracker) EpochProvers(epoch uint64) ([]pozk.Address, error) {
	return t.epochProvers.All(solidity.Uint64Key(epoch))
}

// DisputeDeposit returns the deposit required to dispute a task.
func (t *Tracker) DisputeDeposit() (*big.Int, error) {
	return t.disputeDeposit.Get()
}

// DisputeWindow returns the number of epochs a submission stays disputable.
func (t *Tracker) DisputeWindow() (uint64, error) {
	return t.disputeWindow.Get()
}

func (t *Tracker) SetDisputeDeposit(caller pozk.Address, amount *big.Int) error {
	if err := t.gov.RequireDao(caller); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return reverts.Violation("invalid deposit")
	}
	if err := t.disputeDeposit.Set(amount); err != nil {
		return err
	}
	t.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller}).
		WithData(map[string]string{"disputeDeposit": amount.String()}))
	return nil
}

func (t *Tracker) SetDisputeWindow(caller pozk.Address, epochs uint64) error {
	if err := t.gov.RequireDao(caller); err != nil {
		return err
	}
	if epochs == 0 {
		return reverts.Violation("invalid dispute window")
	}
	if err := t.disputeWindow.Set(epochs); err != nil {
		return err
	}
	t.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller}).
		WithData(map[string]uint64{"disputeWindow": epochs}))
	return nil
}
