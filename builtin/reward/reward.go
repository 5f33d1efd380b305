// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reward settles per-epoch rewards of miners and players from the work
// they completed, and manages auxiliary prover-scoped reward deposits.
package reward

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/metrics"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "reward")

var (
	slotTranches  = solidity.Slot("tranches")
	slotCollected = solidity.Slot("collected")
	slotExtras    = solidity.Slot("extras")
	slotFrozen    = solidity.Slot("frozen-tranches")

	metricCollected = metrics.LazyLoadCounterVec("reward_collected_count", []string{"role"})
)

// Settlement binder of the reward contract. Extra deposits are escrowed under
// the contract address.
type Settlement struct {
	ctx     *solidity.Context
	clock   Clock
	gov     Governance
	work    Work
	stakes  Stakes
	provers Provers
	fund    Fund
	bank    Bank
	sizer   PoolSizer

	tranches  *solidity.Mapping[solidity.RoleKey, *Tranche]
	collected *solidity.Mapping[solidity.CompositeKey, bool]
	extras    *solidity.Mapping[solidity.CompositeKey, *ExtraDeposit]
	frozen    *solidity.Mapping[solidity.CompositeKey, *Tranche]
}

// Deps groups the collaborators of settlement. Sizer defaults to a WeightedPool.
type Deps struct {
	Clock   Clock
	Gov     Governance
	Work    Work
	Stakes  Stakes
	Provers Provers
	Fund    Fund
	Bank    Bank
	Sizer   PoolSizer
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer, deps Deps) *Settlement {
	ctx := solidity.NewContext(addr, state, buf)
	sizer := deps.Sizer
	if sizer == nil {
		sizer = &WeightedPool{Fund: deps.Fund, Work: deps.Work, Provers: deps.Provers, Stakes: deps.Stakes}
	}
	return &Settlement{
		ctx:       ctx,
		clock:     deps.Clock,
		gov:       deps.Gov,
		work:      deps.Work,
		stakes:    deps.Stakes,
		provers:   deps.Provers,
		fund:      deps.Fund,
		bank:      deps.Bank,
		sizer:     sizer,
		tranches:  solidity.NewMapping[solidity.RoleKey, *Tranche](ctx, slotTranches),
		collected: solidity.NewMapping[solidity.CompositeKey, bool](ctx, slotCollected),
		extras:    solidity.NewMapping[solidity.CompositeKey, *ExtraDeposit](ctx, slotExtras),
		frozen:    solidity.NewMapping[solidity.CompositeKey, *Tranche](ctx, slotFrozen),
	}
}

func collectKey(epoch uint64, prover, account pozk.Address, role pozk.Role) solidity.CompositeKey {
	return solidity.Compose(solidity.Uint64Key(epoch), prover, account, solidity.RoleKey(role))
}

func extraKey(prover pozk.Address, epoch uint64) solidity.CompositeKey {
	return solidity.Compose(prover, solidity.Uint64Key(epoch))
}

func rewardRole(role pozk.Role) error {
	if role != pozk.RoleMiner && role != pozk.RolePlayer {
		return reverts.Violation("invalid reward role")
	}
	return nil
}

// Address returns the escrow address of extra deposits.
func (s *Settlement) Address() pozk.Address {
	return s.ctx.Address()
}

// Tranche returns the reward curve of role.
func (s *Settlement) Tranche(role pozk.Role) (*Tranche, error) {
	if err := rewardRole(role); err != nil {
		return nil, err
	}
	tr, err := s.tranches.Get(solidity.RoleKey(role))
	if err != nil {
		return nil, err
	}
	if *tr == (Tranche{}) {
		def := DefaultTranche
		return &def, nil
	}
	return tr, nil
}

// SetTranche replaces the reward curve of role. The pool shares of both
// roles may not exceed 100%.
func (s *Settlement) SetTranche(caller pozk.Address, role pozk.Role, tr Tranche) error {
	if err := s.gov.RequireDao(caller); err != nil {
		return err
	}
	if err := rewardRole(role); err != nil {
		return err
	}
	if tr.FloorPct > tr.CeilPct || tr.CeilPct > 100 || tr.SharePct > 100 {
		return reverts.Violation("invalid tranche")
	}
	other := pozk.RolePlayer
	if role == pozk.RolePlayer {
		other = pozk.RoleMiner
	}
	ot, err := s.Tranche(other)
	if err != nil {
		return err
	}
	if ot.SharePct+tr.SharePct > 100 {
		return reverts.Violation("tranche shares exceed 100%")
	}
	if err := s.tranches.Set(solidity.RoleKey(role), &tr); err != nil {
		return err
	}
	s.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller, Role: role}).
		WithData(map[string]any{"tranche": tr}))
	return nil
}

func frozenKey(epoch uint64, role pozk.Role) solidity.CompositeKey {
	return solidity.Compose(solidity.Uint64Key(epoch), solidity.RoleKey(role))
}

// Freeze records the tranches in force when epoch closed. Settlement of the
// epoch reads them instead of the live configuration.
func (s *Settlement) Freeze(epoch uint64) error {
	for _, role := range []pozk.Role{pozk.RoleMiner, pozk.RolePlayer} {
		key := frozenKey(epoch, role)
		cur, err := s.frozen.Get(key)
		if err != nil {
			return err
		}
		if *cur != (Tranche{}) {
			return reverts.Settled("tranches already frozen")
		}
		tr, err := s.Tranche(role)
		if err != nil {
			return err
		}
		if err := s.frozen.Set(key, tr); err != nil {
			return err
		}
	}
	return nil
}

// TrancheAt returns the tranche of role frozen for epoch. Epochs closed
// without a frozen copy fall back to the live tranche.
func (s *Settlement) TrancheAt(epoch uint64, role pozk.Role) (*Tranche, error) {
	if err := rewardRole(role); err != nil {
		return nil, err
	}
	tr, err := s.frozen.Get(frozenKey(epoch, role))
	if err != nil {
		return nil, err
	}
	if *tr != (Tranche{}) {
		return tr, nil
	}
	return s.Tranche(role)
}

// Collected reports whether the reward of the tuple was collected.
func (s *Settlement) Collected(epoch uint64, prover, account pozk.Address, role pozk.Role) (bool, error) {
	return s.collected.Get(collectKey(epoch, prover, account, role))
}

// Extra returns the extra deposit of prover for epoch, nil if none.
func (s *Settlement) Extra(prover pozk.Address, epoch uint64) (*ExtraDeposit, error) {
	dep, err := s.extras.Get(extraKey(prover, epoch))
	if err != nil {
		return nil, err
	}
	if dep.Amount == nil || dep.Amount.Sign() == 0 {
		return nil, nil
	}
	return dep, nil
}

// share returns the numerator and denominator of the fraction of a prover
// pool owed to account: share% * pct% * x/X.
func (s *Settlement) share(epoch uint64, prover, account pozk.Address, role pozk.Role) (num, den *big.Int, err error) {
	zero := new(big.Int)
	x, err := s.work.Count(epoch, prover, account, role)
	if err != nil || x == 0 {
		return zero, nil, err
	}
	subject := prover
	if role == pozk.RolePlayer {
		subject = pozk.Address{}
	}
	staked, err := s.stakes.StakeAt(role, subject, account, epoch)
	if err != nil {
		return nil, nil, err
	}
	if staked.Sign() <= 0 {
		return zero, nil, nil
	}
	total, err := s.work.Total(epoch, prover, role)
	if err != nil {
		return nil, nil, err
	}
	tr, err := s.TrancheAt(epoch, role)
	if err != nil {
		return nil, nil, err
	}
	pct := Percent(x, *tr)
	num = new(big.Int).SetUint64(tr.SharePct * pct)
	num.Mul(num, new(big.Int).SetUint64(x))
	den = new(big.Int).SetUint64(100 * 100)
	den.Mul(den, new(big.Int).SetUint64(total))
	return num, den, nil
}

// Estimate returns what Collect would pay for the tuple, ignoring whether it
// was collected already.
func (s *Settlement) Estimate(epoch uint64, prover, account pozk.Address, role pozk.Role) (*Payout, error) {
	if err := rewardRole(role); err != nil {
		return nil, err
	}
	payout := &Payout{Base: new(big.Int), Extra: new(big.Int)}
	num, den, err := s.share(epoch, prover, account, role)
	if err != nil || num.Sign() == 0 {
		return payout, err
	}
	pool, err := s.sizer.Pool(epoch, prover)
	if err != nil {
		return nil, err
	}
	if payout.Base, err = mulDiv(pool, num, den); err != nil {
		return nil, err
	}
	dep, err := s.Extra(prover, epoch)
	if err != nil {
		return nil, err
	}
	if dep != nil && !dep.Claimed {
		payout.Token = dep.Token
		if payout.Extra, err = mulDiv(dep.Amount, num, den); err != nil {
			return nil, err
		}
	}
	return payout, nil
}

func (s *Settlement) requireClosed(epoch uint64) error {
	h, err := s.clock.Height()
	if err != nil {
		return err
	}
	if epoch >= h {
		return reverts.Violation("epoch not finalized")
	}
	return nil
}

// Collect settles the reward of account for the work it did for prover in a
// closed epoch. Base rewards are credited to the stake ledger and become
// claimable one epoch later; extra deposit shares are paid out directly.
func (s *Settlement) Collect(epoch uint64, prover, account pozk.Address, role pozk.Role) (*Payout, error) {
	if err := rewardRole(role); err != nil {
		return nil, err
	}
	if err := s.requireClosed(epoch); err != nil {
		return nil, err
	}
	key := collectKey(epoch, prover, account, role)
	done, err := s.collected.Get(key)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, reverts.Settled("reward already collected")
	}
	payout, err := s.Estimate(epoch, prover, account, role)
	if err != nil {
		return nil, err
	}
	if err := s.collected.Set(key, true); err != nil {
		return nil, err
	}

	if payout.Base.Sign() > 0 {
		if err := s.fund.Release(epoch, s.stakes.Address(), payout.Base); err != nil {
			return nil, err
		}
		if err := s.stakes.Credit(account, payout.Base); err != nil {
			return nil, err
		}
	}
	if payout.Extra.Sign() > 0 {
		if err := s.bank.Transfer(payout.Token, s.Address(), account, payout.Extra); err != nil {
			return nil, err
		}
		dep, err := s.Extra(prover, epoch)
		if err != nil {
			return nil, err
		}
		if !dep.Distributed {
			dep.Distributed = true
			if err := s.extras.Set(extraKey(prover, epoch), dep); err != nil {
				return nil, err
			}
		}
	}

	metricCollected().AddWithLabel(1, map[string]string{"role": role.String()})
	logger.Debug("reward collected", "epoch", epoch, "prover", prover, "account", account, "role", role, "base", payout.Base, "extra", payout.Extra)
	ev := &events.Event{Name: events.RewardCollected, Prover: prover, Account: account, Role: role, Amount: new(big.Int).Set(payout.Base)}
	if payout.Extra.Sign() > 0 {
		ev.Token = payout.Token
		ev.WithData(map[string]string{"extra": payout.Extra.String()})
	}
	s.ctx.Emit(ev)
	return payout, nil
}

// BatchCollect collects every reward account earned in epoch, skipping
// tuples already collected. It returns the total base reward credited.
func (s *Settlement) BatchCollect(epoch uint64, account pozk.Address) (*big.Int, error) {
	if err := s.requireClosed(epoch); err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, role := range []pozk.Role{pozk.RoleMiner, pozk.RolePlayer} {
		provers, err := s.work.AccountProvers(epoch, account, role)
		if err != nil {
			return nil, err
		}
		for _, p := range provers {
			done, err := s.Collected(epoch, p, account, role)
			if err != nil {
				return nil, err
			}
			if done {
				continue
			}
			payout, err := s.Collect(epoch, p, account, role)
			if err != nil {
				return nil, err
			}
			total.Add(total, payout.Base)
		}
	}
	return total, nil
}

// DepositExtra adds an extra reward pool in token for prover in an epoch that
// is not closed yet. Each (prover, epoch) takes one token from one depositor.
func (s *Settlement) DepositExtra(caller, prover pozk.Address, epoch uint64, token pozk.Address, amount *big.Int) error {
	if amount.Sign() <= 0 {
		return reverts.Violation("invalid amount")
	}
	if token.IsZero() {
		return reverts.Violation("invalid token")
	}
	rec, err := s.provers.Get(prover)
	if err != nil {
		return err
	}
	if rec == nil {
		return reverts.Violation("prover not registered")
	}
	h, err := s.clock.Height()
	if err != nil {
		return err
	}
	if epoch < h {
		return reverts.Violation("epoch closed")
	}
	dep, err := s.Extra(prover, epoch)
	if err != nil {
		return err
	}
	if dep == nil {
		dep = &ExtraDeposit{Depositor: caller, Token: token, Amount: new(big.Int)}
	}
	if dep.Depositor != caller {
		return reverts.Denied("deposit owned by another account")
	}
	if dep.Token != token {
		return reverts.Violation("token mismatch")
	}
	if err := s.bank.Transfer(token, caller, s.Address(), amount); err != nil {
		return err
	}
	dep.Amount.Add(dep.Amount, amount)
	if err := s.extras.Set(extraKey(prover, epoch), dep); err != nil {
		return err
	}

	s.ctx.Emit((&events.Event{Name: events.ExtraDeposited, Prover: prover, Account: caller, Token: token, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]uint64{"epoch": epoch}))
	return nil
}

// ClaimExtra returns an extra deposit to its depositor once the epoch has
// closed, provided nobody collected against it.
func (s *Settlement) ClaimExtra(caller, prover pozk.Address, epoch uint64) (*big.Int, error) {
	dep, err := s.Extra(prover, epoch)
	if err != nil {
		return nil, err
	}
	if dep == nil {
		return nil, reverts.Violation("no deposit")
	}
	if dep.Depositor != caller {
		return nil, reverts.Denied("depositor only")
	}
	if err := s.requireClosed(epoch); err != nil {
		return nil, err
	}
	if dep.Distributed {
		return nil, reverts.Settled("already distributed")
	}
	if dep.Claimed {
		return nil, reverts.Settled("already claimed")
	}
	dep.Claimed = true
	if err := s.extras.Set(extraKey(prover, epoch), dep); err != nil {
		return nil, err
	}
	if err := s.bank.Transfer(dep.Token, s.Address(), caller, dep.Amount); err != nil {
		return nil, err
	}

	s.ctx.Emit((&events.Event{Name: events.ExtraClaimed, Prover: prover, Account: caller, Token: dep.Token, Amount: new(big.Int).Set(dep.Amount)}).
		WithData(map[string]uint64{"epoch": epoch}))
	return dep.Amount, nil
}
