// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
)

// Slash removes up to amount from the position, staked funds first and then
// the unstaking bucket. It returns the amount actually removed, which stays in
// the ledger escrow for the caller to reassign.
func (l *Ledger) Slash(role pozk.Role, subject, account pozk.Address, amount *big.Int, taskID uint64) (*big.Int, error) {
	key := PositionKey{role, subject}
	if err := l.validate(key, false); err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return new(big.Int), nil
	}
	pos, err := l.position(key, account)
	if err != nil {
		return nil, err
	}
	fromStaked := pozk.MinBig(amount, pos.Staked)
	rest := new(big.Int).Sub(amount, fromStaked)
	fromUnstaking := pozk.MinBig(rest, pos.Unstaking)
	removed := new(big.Int).Add(fromStaked, fromUnstaking)
	if removed.Sign() == 0 {
		return removed, nil
	}

	if fromStaked.Sign() > 0 {
		h, err := l.clock.Height()
		if err != nil {
			return nil, err
		}
		if err := l.checkpoint(key, account, pos, h); err != nil {
			return nil, err
		}
	}
	pos.Staked = new(big.Int).Sub(pos.Staked, fromStaked)
	pos.Unstaking = new(big.Int).Sub(pos.Unstaking, fromUnstaking)
	if err := l.setPosition(key, account, pos); err != nil {
		return nil, err
	}

	logger.Debug("slashed", "role", role, "prover", subject, "account", account, "requested", amount, "removed", removed)
	l.ctx.Emit((&events.Event{Name: events.Slashed, Role: role, Prover: subject, Account: account, TaskID: taskID, Amount: new(big.Int).Set(removed)}).
		WithData(map[string]string{"requested": amount.String(), "fromStaked": fromStaked.String(), "fromUnstaking": fromUnstaking.String()}))
	return removed, nil
}

// ScheduleSlash files a slash to be applied when the current epoch closes.
func (l *Ledger) ScheduleSlash(role pozk.Role, subject, account, beneficiary pozk.Address, amount *big.Int, taskID uint64) error {
	if amount.Sign() <= 0 {
		return nil
	}
	if err := l.validate(PositionKey{role, subject}, false); err != nil {
		return err
	}
	h, err := l.clock.Height()
	if err != nil {
		return err
	}
	s := ScheduledSlash{
		Role:        role,
		Subject:     subject,
		Account:     account,
		Beneficiary: beneficiary,
		Amount:      new(big.Int).Set(amount),
		TaskID:      taskID,
	}
	if err := l.slashes.Append(solidity.Uint64Key(h+1), s); err != nil {
		return err
	}
	l.ctx.Emit((&events.Event{Name: events.SlashScheduled, Role: role, Prover: subject, Account: account, TaskID: taskID, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]any{"beneficiary": beneficiary.String(), "epoch": h + 1}))
	return nil
}

// Scheduled lists slashes filed for epoch.
func (l *Ledger) Scheduled(epoch uint64) ([]ScheduledSlash, error) {
	return l.slashes.All(solidity.Uint64Key(epoch))
}

// ApplySlashes executes the slashes filed for height, crediting what is
// removed to each beneficiary's claimable balance. It runs once per height.
func (l *Ledger) ApplySlashes(height uint64) error {
	done, err := l.applied.Get(solidity.Uint64Key(height))
	if err != nil {
		return err
	}
	if done {
		return reverts.Settled("slashes already applied")
	}
	list, err := l.Scheduled(height)
	if err != nil {
		return err
	}
	for _, s := range list {
		removed, err := l.Slash(s.Role, s.Subject, s.Account, s.Amount, s.TaskID)
		if err != nil {
			return err
		}
		if removed.Sign() == 0 {
			continue
		}
		if err := l.addClaimable(s.Beneficiary, removed); err != nil {
			return err
		}
		l.ctx.Emit(&events.Event{Name: events.Credited, Account: s.Beneficiary, TaskID: s.TaskID, Amount: new(big.Int).Set(removed)})
	}
	if len(list) > 0 {
		logger.Info("slashes applied", "epoch", height, "count", len(list))
	}
	return l.applied.Set(solidity.Uint64Key(height), true)
}
