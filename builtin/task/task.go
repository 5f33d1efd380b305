// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package task tracks the task lifecycle from creation to dispute resolution
// and keeps the per-epoch work counts read by reward settlement.
package task

import (
	"math/big"

	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "task")

// DefaultDisputeWindow is the number of epochs a submission stays disputable.
const DefaultDisputeWindow = 1

var (
	slotCounter        = solidity.Slot("counter")
	slotTasks          = solidity.Slot("tasks")
	slotDisputeDeposit = solidity.Slot("dispute-deposit")
	slotCounts         = solidity.Slot("counts")
	slotTotals         = solidity.Slot("totals")
	slotWeights        = solidity.Slot("weights")
	slotAccountProvers = solidity.Slot("account-provers")
	slotEpochProvers   = solidity.Slot("epoch-provers")
)

// Tracker binder of the task contract. Dispute deposits are escrowed under
// the contract address.
type Tracker struct {
	ctx       *solidity.Context
	baseToken pozk.Address
	now       func() uint64
	clock     Clock
	gov       Governance
	provers   Provers
	miners    Miners
	delegates Delegates
	bank      Bank
	verifier  Verifier

	counter        *solidity.Value[uint64]
	tasks          *solidity.Mapping[solidity.Uint64Key, *Task]
	disputeDeposit *solidity.Uint256
	disputeWindow  *solidity.ConfigVariable
	counts         *solidity.Mapping[solidity.CompositeKey, uint64]
	totals         *solidity.Mapping[solidity.CompositeKey, uint64]
	weights        *solidity.Mapping[solidity.CompositeKey, uint64]
	accountProvers *solidity.List[solidity.CompositeKey, pozk.Address]
	epochProvers   *solidity.List[solidity.Uint64Key, pozk.Address]
}

// Deps groups the collaborators of the tracker.
type Deps struct {
	BaseToken pozk.Address
	Now       func() uint64
	Clock     Clock
	Gov       Governance
	Provers   Provers
	Miners    Miners
	Delegates Delegates
	Bank      Bank
	Verifier  Verifier
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer, deps Deps) *Tracker {
	ctx := solidity.NewContext(addr, state, buf)
	verifier := deps.Verifier
	if verifier == nil {
		verifier = AcceptAll
	}
	return &Tracker{
		ctx:            ctx,
		baseToken:      deps.BaseToken,
		now:            deps.Now,
		clock:          deps.Clock,
		gov:            deps.Gov,
		provers:        deps.Provers,
		miners:         deps.Miners,
		delegates:      deps.Delegates,
		bank:           deps.Bank,
		verifier:       verifier,
		counter:        solidity.NewValue[uint64](ctx, slotCounter),
		tasks:          solidity.NewMapping[solidity.Uint64Key, *Task](ctx, slotTasks),
		disputeDeposit: solidity.NewUint256(ctx, slotDisputeDeposit),
		disputeWindow:  solidity.NewConfigVariable(ctx, "dispute-window", DefaultDisputeWindow),
		counts:         solidity.NewMapping[solidity.CompositeKey, uint64](ctx, slotCounts),
		totals:         solidity.NewMapping[solidity.CompositeKey, uint64](ctx, slotTotals),
		weights:        solidity.NewMapping[solidity.CompositeKey, uint64](ctx, slotWeights),
		accountProvers: solidity.NewList[solidity.CompositeKey, pozk.Address](ctx, slotAccountProvers),
		epochProvers:   solidity.NewList[solidity.Uint64Key, pozk.Address](ctx, slotEpochProvers),
	}
}

// Address returns the escrow address of the tracker.
func (t *Tracker) Address() pozk.Address {
	return t.ctx.Address()
}

// NextID returns the id the next created task receives.
func (t *Tracker) NextID() (uint64, error) {
	n, err := t.counter.Get()
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// Get returns the stored task, or nil if absent.
func (t *Tracker) Get(id uint64) (*Task, error) {
	task, err := t.tasks.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, err
	}
	if task.ID == 0 {
		return nil, nil
	}
	if task.Deposit == nil {
		task.Deposit = new(big.Int)
	}
	return task, nil
}

func (t *Tracker) mustGet(id uint64) (*Task, error) {
	task, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, reverts.Violation("task not found")
	}
	return task, nil
}

func (t *Tracker) save(task *Task) error {
	return t.tasks.Set(solidity.Uint64Key(task.ID), task)
}

func (t *Tracker) activeProver(id pozk.Address) (*prover.Record, error) {
	rec, err := t.provers.Get(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.Violation("prover not registered")
	}
	if !rec.Active() {
		return nil, reverts.Violation("prover not active")
	}
	return rec, nil
}

// authorize accepts the account itself or one of its controllers.
func (t *Tracker) authorize(account, caller pozk.Address) error {
	if caller == account {
		return nil
	}
	ok, err := t.delegates.Authorized(account, caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Denied("not miner or controller")
	}
	return nil
}

// Status returns the effective state at epoch current. Submitted tasks past
// their dispute window count as resolved.
func (t *Tracker) Status(id uint64, current uint64) (State, error) {
	task, err := t.mustGet(id)
	if err != nil {
		return 0, err
	}
	if task.State != Submitted {
		return task.State, nil
	}
	window, err := t.disputeWindow.Get()
	if err != nil {
		return 0, err
	}
	if current >= task.SubmittedAt+window {
		return Resolved, nil
	}
	return Submitted, nil
}

// Create stores a new task for player against an active prover.
func (t *Tracker) Create(caller, proverID, player pozk.Address, taskType uint8, inputs, publics []byte) (uint64, error) {
	if _, err := t.activeProver(proverID); err != nil {
		return 0, err
	}
	if player.IsZero() {
		player = caller
	}
	h, err := t.clock.Height()
	if err != nil {
		return 0, err
	}
	id, err := t.NextID()
	if err != nil {
		return 0, err
	}
	if err := t.counter.Set(id); err != nil {
		return 0, err
	}
	task := &Task{
		ID:        id,
		Prover:    proverID,
		Creator:   caller,
		Player:    player,
		TaskType:  taskType,
		Inputs:    inputs,
		Publics:   publics,
		State:     Created,
		CreatedAt: h,
		Deposit:   new(big.Int),
	}
	if err := t.save(task); err != nil {
		return 0, err
	}

	logger.Debug("task created", "id", id, "prover", proverID, "player", player)
	t.ctx.Emit(&events.Event{Name: events.TaskCreated, Prover: proverID, Account: player, TaskID: id})
	return id, nil
}

// Accept assigns the task to miner. A task accepted earlier may be taken over
// once its overtime has passed without a submission.
func (t *Tracker) Accept(caller pozk.Address, id uint64, miner pozk.Address, url string) error {
	task, err := t.mustGet(id)
	if err != nil {
		return err
	}
	rec, err := t.activeProver(task.Prover)
	if err != nil {
		return err
	}
	if err := t.authorize(miner, caller); err != nil {
		return err
	}
	now := t.now()
	switch {
	case task.State == Created:
	case task.State == Accepted && now >= task.AcceptedTime+uint64(rec.Overtime):
	default:
		return reverts.Newf(reverts.StateViolation, "task %v not acceptable", task.State)
	}

	mode, err := t.clock.Mode()
	if err != nil {
		return err
	}
	if mode == pozk.Permissioned {
		if !rec.Minable {
			return reverts.Denied("prover not minable")
		}
		ok, err := t.miners.IsMiner(task.Prover, miner)
		if err != nil {
			return err
		}
		if !ok {
			return reverts.Denied("not a miner")
		}
	}

	h, err := t.clock.Height()
	if err != nil {
		return err
	}
	task.Miner = miner
	task.URL = url
	task.State = Accepted
	task.AcceptedAt = h
	task.AcceptedTime = now
	if err := t.save(task); err != nil {
		return err
	}

	logger.Debug("task accepted", "id", id, "miner", miner)
	t.ctx.Emit((&events.Event{Name: events.TaskAccepted, Prover: task.Prover, Account: miner, TaskID: id}).
		WithData(map[string]string{"url": url}))
	return nil
}

// Submit records the proof of an accepted task and counts the work for the
// miner and the player in the current epoch.
func (t *Tracker) Submit(caller pozk.Address, id uint64, proof []byte) error {
	task, err := t.mustGet(id)
	if err != nil {
		return err
	}
	if task.State != Accepted {
		return reverts.Newf(reverts.StateViolation, "task %v not submittable", task.State)
	}
	if err := t.authorize(task.Miner, caller); err != nil {
		return err
	}
	rec, err := t.provers.Get(task.Prover)
	if err != nil {
		return err
	}
	if rec == nil {
		return reverts.Violation("prover not registered")
	}
	if t.now() > task.AcceptedTime+uint64(rec.Overtime) {
		return reverts.Violation("task overtime")
	}
	ok, err := t.verifier.Verify(task, rec.Verifier, proof)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Violation("invalid proof")
	}

	h, err := t.clock.Height()
	if err != nil {
		return err
	}
	if err := t.count(h, task.Prover, task.Miner, pozk.RoleMiner); err != nil {
		return err
	}
	if err := t.count(h, task.Prover, task.Player, pozk.RolePlayer); err != nil {
		return err
	}
	if err := t.addWeight(h, task.Prover, uint64(rec.Work)); err != nil {
		return err
	}

	task.State = Submitted
	task.SubmittedAt = h
	task.ProofHash = pozk.Blake2b(proof)
	if err := t.save(task); err != nil {
		return err
	}

	logger.Debug("task submitted", "id", id, "miner", task.Miner, "epoch", h)
	t.ctx.Emit(&events.Event{Name: events.TaskSubmitted, Prover: task.Prover, Account: task.Miner, TaskID: id})
	return nil
}

// Dispute escrows the dispute deposit from the task's player.
func (t *Tracker) Dispute(caller pozk.Address, id uint64) error {
	task, err := t.mustGet(id)
	if err != nil {
		return err
	}
	h, err := t.clock.Height()
	if err != nil {
		return err
	}
	if st, err := t.Status(id, h); err != nil {
		return err
	} else if st != Submitted {
		return reverts.Violation("not disputable")
	}
	if caller != task.Player {
		return reverts.Denied("player only")
	}
	deposit, err := t.disputeDeposit.Get()
	if err != nil {
		return err
	}
	if err := t.bank.Transfer(t.baseToken, caller, t.Address(), deposit); err != nil {
		return err
	}
	task.Deposit = deposit
	task.Disputant = caller
	task.State = Disputed
	if err := t.save(task); err != nil {
		return err
	}

	logger.Debug("task disputed", "id", id, "disputant", caller, "deposit", deposit)
	t.ctx.Emit(&events.Event{Name: events.TaskDisputed, Prover: task.Prover, Account: caller, TaskID: id, Amount: new(big.Int).Set(deposit)})
	return nil
}

// Adjudicate resolves a disputed task. The disputant receives playerAward from
// the escrowed deposit. Without slashing the miner is paid minerAward from the
// deposit too; with slashing the miner's stake is slashed by both awards at the
// next epoch boundary in favour of the disputant. The caller keeps the rest.
func (t *Tracker) Adjudicate(caller pozk.Address, id uint64, playerAward, minerAward *big.Int, slash bool) error {
	if err := t.gov.RequireDao(caller); err != nil {
		return err
	}
	task, err := t.mustGet(id)
	if err != nil {
		return err
	}
	if task.State != Disputed {
		return reverts.Violation("task not disputed")
	}
	if playerAward.Sign() < 0 || minerAward.Sign() < 0 {
		return reverts.Violation("invalid award")
	}
	paid := new(big.Int).Set(playerAward)
	if !slash {
		paid.Add(paid, minerAward)
	}
	if paid.Cmp(task.Deposit) > 0 {
		return reverts.Insufficient("awards exceed deposit")
	}
	fee := new(big.Int).Sub(task.Deposit, paid)

	escrow := t.Address()
	if err := t.bank.Transfer(t.baseToken, escrow, task.Disputant, playerAward); err != nil {
		return err
	}
	if !slash {
		if err := t.bank.Transfer(t.baseToken, escrow, task.Miner, minerAward); err != nil {
			return err
		}
	}
	if err := t.bank.Transfer(t.baseToken, escrow, caller, fee); err != nil {
		return err
	}
	if slash {
		penalty := new(big.Int).Add(playerAward, minerAward)
		if err := t.miners.ScheduleSlash(pozk.RoleMiner, task.Prover, task.Miner, task.Disputant, penalty, id); err != nil {
			return err
		}
	}
	task.State = Resolved
	if err := t.save(task); err != nil {
		return err
	}

	logger.Debug("task adjudicated", "id", id, "playerAward", playerAward, "minerAward", minerAward, "slash", slash)
	t.ctx.Emit((&events.Event{Name: events.TaskAdjudicated, Prover: task.Prover, Account: task.Miner, TaskID: id}).
		WithData(map[string]any{
			"playerAward": playerAward.String(),
			"minerAward":  minerAward.String(),
			"fee":         fee.String(),
			"slash":       slash,
		}))
	return nil
}
