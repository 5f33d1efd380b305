// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package stake is the ledger of prover, miner and player stakes. It handles
// delayed unstaking, claims, reward credits and dispute slashing.
package stake

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "stake")

var (
	slotPositions   = solidity.Slot("positions")
	slotOwned       = solidity.Slot("owned")
	slotClaimable   = solidity.Slot("claimable")
	slotPending     = solidity.Slot("pending")
	slotCheckpoints = solidity.Slot("checkpoints")
	slotSlashes     = solidity.Slot("slashes")
	slotApplied     = solidity.Slot("slashes-applied")
)

// Ledger binder of the stake contract. Staked funds are held under the
// contract address in the base token.
type Ledger struct {
	ctx       *solidity.Context
	baseToken pozk.Address
	clock     Clock
	provers   Provers
	bank      Bank

	positions   *solidity.Mapping[solidity.CompositeKey, *Position]
	owned       *solidity.List[pozk.Address, PositionKey]
	claimable   *solidity.Mapping[pozk.Address, *big.Int]
	pending     *solidity.Mapping[pozk.Address, *Pending]
	checkpoints *solidity.List[solidity.CompositeKey, Checkpoint]
	slashes     *solidity.List[solidity.Uint64Key, ScheduledSlash]
	applied     *solidity.Mapping[solidity.Uint64Key, bool]
}

func New(
	addr pozk.Address,
	state *state.State,
	buf *events.Buffer,
	baseToken pozk.Address,
	clock Clock,
	provers Provers,
	bank Bank,
) *Ledger {
	ctx := solidity.NewContext(addr, state, buf)
	return &Ledger{
		ctx:         ctx,
		baseToken:   baseToken,
		clock:       clock,
		provers:     provers,
		bank:        bank,
		positions:   solidity.NewMapping[solidity.CompositeKey, *Position](ctx, slotPositions),
		owned:       solidity.NewList[pozk.Address, PositionKey](ctx, slotOwned),
		claimable:   solidity.NewMapping[pozk.Address, *big.Int](ctx, slotClaimable),
		pending:     solidity.NewMapping[pozk.Address, *Pending](ctx, slotPending),
		checkpoints: solidity.NewList[solidity.CompositeKey, Checkpoint](ctx, slotCheckpoints),
		slashes:     solidity.NewList[solidity.Uint64Key, ScheduledSlash](ctx, slotSlashes),
		applied:     solidity.NewMapping[solidity.Uint64Key, bool](ctx, slotApplied),
	}
}

// Address returns the escrow address of the ledger.
func (l *Ledger) Address() pozk.Address {
	return l.ctx.Address()
}

func (l *Ledger) validate(key PositionKey, mustExist bool) error {
	if !key.Role.Valid() {
		return reverts.Violation("invalid role")
	}
	if !key.Role.HasSubject() {
		if !key.Subject.IsZero() {
			return reverts.Violation("player stake has no prover")
		}
		return nil
	}
	if key.Subject.IsZero() {
		return reverts.Violation("prover required")
	}
	if !mustExist {
		return nil
	}
	rec, err := l.provers.Get(key.Subject)
	if err != nil {
		return err
	}
	if rec == nil {
		return reverts.Violation("prover not registered")
	}
	return nil
}

func (l *Ledger) position(key PositionKey, account pozk.Address) (*Position, error) {
	pos, err := l.positions.Get(key.storageKey(account))
	if err != nil {
		return nil, err
	}
	if pos.Staked == nil {
		pos.Staked = new(big.Int)
	}
	if pos.Unstaking == nil {
		pos.Unstaking = new(big.Int)
	}
	return pos, nil
}

func (l *Ledger) setPosition(key PositionKey, account pozk.Address, pos *Position) error {
	sk := key.storageKey(account)
	exists, err := l.positions.Exists(sk)
	if err != nil {
		return err
	}
	if !exists {
		if err := l.owned.Append(account, key); err != nil {
			return err
		}
	}
	return l.positions.Set(sk, pos)
}

// checkpoint saves the staked amount before the first change of the epoch.
func (l *Ledger) checkpoint(key PositionKey, account pozk.Address, pos *Position, epoch uint64) error {
	sk := key.storageKey(account)
	n, err := l.checkpoints.Len(sk)
	if err != nil {
		return err
	}
	if n > 0 {
		last, err := l.checkpoints.Get(sk, n-1)
		if err != nil {
			return err
		}
		if last.Epoch == epoch {
			return nil
		}
	}
	return l.checkpoints.Append(sk, Checkpoint{Epoch: epoch, Staked: new(big.Int).Set(pos.Staked)})
}

// Position returns the position, zero valued if it was never staked.
func (l *Ledger) Position(role pozk.Role, subject, account pozk.Address) (*Position, error) {
	return l.position(PositionKey{role, subject}, account)
}

// Holdings lists every position account ever staked into.
func (l *Ledger) Holdings(account pozk.Address) ([]Holding, error) {
	keys, err := l.owned.All(account)
	if err != nil {
		return nil, err
	}
	holdings := make([]Holding, 0, len(keys))
	for _, key := range keys {
		pos, err := l.position(key, account)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, Holding{key, *pos})
	}
	return holdings, nil
}

// StakeAt returns the staked amount the position had when epoch ended.
// For the current epoch it returns the live amount.
func (l *Ledger) StakeAt(role pozk.Role, subject, account pozk.Address, epoch uint64) (*big.Int, error) {
	key := PositionKey{role, subject}
	sk := key.storageKey(account)
	n, err := l.checkpoints.Len(sk)
	if err != nil {
		return nil, err
	}
	// first checkpoint taken after epoch
	lo, hi := uint64(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		cp, err := l.checkpoints.Get(sk, mid)
		if err != nil {
			return nil, err
		}
		if cp.Epoch > epoch {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo < n {
		cp, err := l.checkpoints.Get(sk, lo)
		if err != nil {
			return nil, err
		}
		return cp.Staked, nil
	}
	pos, err := l.position(key, account)
	if err != nil {
		return nil, err
	}
	return pos.Staked, nil
}

// MinerStaking returns the live miner stake of account for prover.
func (l *Ledger) MinerStaking(prover, account pozk.Address) (*big.Int, error) {
	pos, err := l.position(PositionKey{pozk.RoleMiner, prover}, account)
	if err != nil {
		return nil, err
	}
	return pos.Staked, nil
}

// IsMiner reports whether account meets the minimum miner stake of prover.
func (l *Ledger) IsMiner(prover, account pozk.Address) (bool, error) {
	rec, err := l.provers.Get(prover)
	if err != nil || rec == nil {
		return false, err
	}
	staked, err := l.MinerStaking(prover, account)
	if err != nil {
		return false, err
	}
	return staked.Sign() > 0 && staked.Cmp(rec.MinStakeAmount) >= 0, nil
}

// Stake pulls amount from caller and adds it to the position of account.
func (l *Ledger) Stake(caller pozk.Address, role pozk.Role, subject, account pozk.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Violation("invalid amount")
	}
	key := PositionKey{role, subject}
	if err := l.validate(key, true); err != nil {
		return err
	}
	h, err := l.clock.Height()
	if err != nil {
		return err
	}
	if err := l.bank.Transfer(l.baseToken, caller, l.Address(), amount); err != nil {
		return err
	}
	pos, err := l.position(key, account)
	if err != nil {
		return err
	}
	if err := l.checkpoint(key, account, pos, h); err != nil {
		return err
	}
	pos.Staked.Add(pos.Staked, amount)
	if err := l.setPosition(key, account, pos); err != nil {
		return err
	}

	logger.Debug("staked", "role", role, "prover", subject, "account", account, "amount", amount)
	ev := &events.Event{Name: events.Staked, Role: role, Prover: subject, Account: account, Amount: new(big.Int).Set(amount)}
	if caller != account {
		ev.WithData(map[string]string{"from": caller.String()})
	}
	l.ctx.Emit(ev)
	return nil
}

// Unstake moves amount from staked to the unstaking bucket of the caller's
// position. The whole bucket becomes claimable after the current epoch.
func (l *Ledger) Unstake(account pozk.Address, role pozk.Role, subject pozk.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Violation("invalid amount")
	}
	key := PositionKey{role, subject}
	if err := l.validate(key, false); err != nil {
		return err
	}
	pos, err := l.position(key, account)
	if err != nil {
		return err
	}
	if pos.Staked.Cmp(amount) < 0 {
		return reverts.Insufficient("insufficient staking")
	}
	if role == pozk.RoleMiner {
		rec, err := l.provers.Get(subject)
		if err != nil {
			return err
		}
		remaining := new(big.Int).Sub(pos.Staked, amount)
		if rec != nil && remaining.Sign() > 0 && remaining.Cmp(rec.MinStakeAmount) < 0 {
			return reverts.Violation("remaining stake below minimum")
		}
	}
	h, err := l.clock.Height()
	if err != nil {
		return err
	}
	if err := l.checkpoint(key, account, pos, h); err != nil {
		return err
	}
	pos.Staked.Sub(pos.Staked, amount)
	pos.Unstaking.Add(pos.Unstaking, amount)
	pos.UnstakingReadyAt = h + 1
	if err := l.setPosition(key, account, pos); err != nil {
		return err
	}

	logger.Debug("unstaked", "role", role, "prover", subject, "account", account, "amount", amount, "readyAt", h+1)
	l.ctx.Emit((&events.Event{Name: events.Unstaked, Role: role, Prover: subject, Account: account, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]uint64{"readyAt": h + 1}))
	return nil
}

// Claimable returns what Claim would pay to account now.
func (l *Ledger) Claimable(account pozk.Address) (*big.Int, error) {
	h, err := l.clock.Height()
	if err != nil {
		return nil, err
	}
	total, err := l.claimable.Get(account)
	if err != nil {
		return nil, err
	}
	p, err := l.pending.Get(account)
	if err != nil {
		return nil, err
	}
	if p.Amount != nil && h >= p.ReadyAt {
		total.Add(total, p.Amount)
	}
	keys, err := l.owned.All(account)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		pos, err := l.position(key, account)
		if err != nil {
			return nil, err
		}
		if pos.Unstaking.Sign() > 0 && h >= pos.UnstakingReadyAt {
			total.Add(total, pos.Unstaking)
		}
	}
	return total, nil
}

// Pending returns credits of account that are not claimable yet.
func (l *Ledger) Pending(account pozk.Address) (*Pending, error) {
	h, err := l.clock.Height()
	if err != nil {
		return nil, err
	}
	p, err := l.pending.Get(account)
	if err != nil {
		return nil, err
	}
	if p.Amount == nil || h >= p.ReadyAt {
		return &Pending{Amount: new(big.Int)}, nil
	}
	return p, nil
}

// Claim pays out matured unstaking, matured credits and claimable balance.
func (l *Ledger) Claim(account pozk.Address) (*big.Int, error) {
	h, err := l.clock.Height()
	if err != nil {
		return nil, err
	}
	total, err := l.claimable.Get(account)
	if err != nil {
		return nil, err
	}

	p, err := l.pending.Get(account)
	if err != nil {
		return nil, err
	}
	if p.Amount != nil && p.Amount.Sign() > 0 && h >= p.ReadyAt {
		total.Add(total, p.Amount)
		if err := l.pending.Set(account, &Pending{Amount: new(big.Int)}); err != nil {
			return nil, err
		}
	}

	keys, err := l.owned.All(account)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		pos, err := l.position(key, account)
		if err != nil {
			return nil, err
		}
		if pos.Unstaking.Sign() == 0 || h < pos.UnstakingReadyAt {
			continue
		}
		total.Add(total, pos.Unstaking)
		pos.Unstaking = new(big.Int)
		pos.UnstakingReadyAt = 0
		if err := l.setPosition(key, account, pos); err != nil {
			return nil, err
		}
	}

	if total.Sign() == 0 {
		return nil, reverts.Violation("nothing to claim")
	}
	if err := l.claimable.Set(account, new(big.Int)); err != nil {
		return nil, err
	}
	if err := l.bank.Transfer(l.baseToken, l.Address(), account, total); err != nil {
		return nil, errors.WithMessage(err, "pay claim")
	}

	logger.Debug("claimed", "account", account, "amount", total)
	l.ctx.Emit(&events.Event{Name: events.Claimed, Account: account, Amount: new(big.Int).Set(total)})
	return total, nil
}

// Credit adds a reward to account, claimable once the current epoch closes.
// The funds must already be held by the ledger.
func (l *Ledger) Credit(account pozk.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return nil
	}
	h, err := l.clock.Height()
	if err != nil {
		return err
	}
	p, err := l.pending.Get(account)
	if err != nil {
		return err
	}
	if p.Amount == nil {
		p.Amount = new(big.Int)
	}
	if p.Amount.Sign() > 0 && h >= p.ReadyAt {
		if err := l.addClaimable(account, p.Amount); err != nil {
			return err
		}
		p.Amount = new(big.Int)
	}
	p.Amount.Add(p.Amount, amount)
	p.ReadyAt = h + 1
	if err := l.pending.Set(account, p); err != nil {
		return err
	}

	l.ctx.Emit((&events.Event{Name: events.Credited, Account: account, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]uint64{"readyAt": h + 1}))
	return nil
}

func (l *Ledger) addClaimable(account pozk.Address, amount *big.Int) error {
	c, err := l.claimable.Get(account)
	if err != nil {
		return err
	}
	return l.claimable.Set(account, c.Add(c, amount))
}
