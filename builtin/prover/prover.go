// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package prover is the registry of provers: units of work that miners
// perform and players order.
package prover

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "prover")

var (
	slotRecords    = solidity.Slot("records")
	slotIndex      = solidity.Slot("index")
	slotDefaultMin = solidity.Slot("default-min-stake")
	indexKey       = solidity.Uint64Key(0)
)

// Governance answers DAO membership.
type Governance interface {
	RequireDao(caller pozk.Address) error
	IsDao(account pozk.Address) (bool, error)
}

// Record is the registry entry of a prover.
type Record struct {
	Owner          pozk.Address
	Work           uint32
	Overtime       uint32
	Version        uint32
	Verifier       pozk.Address
	Approved       bool
	Minable        bool
	Stopped        bool
	MinStakeAmount *big.Int
}

// Active reports whether the prover takes new work.
func (r *Record) Active() bool {
	return r.Approved && !r.Stopped
}

// Params are the work parameters supplied on register and upgrade.
type Params struct {
	Work     uint32
	Version  uint32
	Overtime uint32
	Verifier pozk.Address
}

func (p Params) validate() error {
	if p.Work == 0 {
		return reverts.Violation("invalid work weight")
	}
	if p.Overtime == 0 {
		return reverts.Violation("invalid overtime")
	}
	return nil
}

// Registry binder of the prover registry contract.
type Registry struct {
	ctx        *solidity.Context
	gov        Governance
	records    *solidity.Mapping[pozk.Address, *Record]
	index      *solidity.List[solidity.Uint64Key, pozk.Address]
	defaultMin *solidity.Uint256
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer, gov Governance) *Registry {
	ctx := solidity.NewContext(addr, state, buf)
	return &Registry{
		ctx:        ctx,
		gov:        gov,
		records:    solidity.NewMapping[pozk.Address, *Record](ctx, slotRecords),
		index:      solidity.NewList[solidity.Uint64Key, pozk.Address](ctx, slotIndex),
		defaultMin: solidity.NewUint256(ctx, slotDefaultMin),
	}
}

// Get returns the record of prover, nil if not registered.
func (r *Registry) Get(prover pozk.Address) (*Record, error) {
	exists, err := r.records.Exists(prover)
	if err != nil || !exists {
		return nil, err
	}
	return r.records.Get(prover)
}

func (r *Registry) mustGet(prover pozk.Address) (*Record, error) {
	rec, err := r.Get(prover)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, reverts.Violation("prover not registered")
	}
	return rec, nil
}

// Provers lists every registered prover in registration order.
func (r *Registry) Provers() ([]pozk.Address, error) {
	return r.index.All(indexKey)
}

// DefaultMinStake returns the minimum miner stake copied into new records.
func (r *Registry) DefaultMinStake() (*big.Int, error) {
	return r.defaultMin.Get()
}

// SetDefaultMinStake changes the minimum stake given to provers registered later.
func (r *Registry) SetDefaultMinStake(caller pozk.Address, amount *big.Int) error {
	if err := r.gov.RequireDao(caller); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return reverts.Violation("invalid amount")
	}
	if err := r.defaultMin.Set(amount); err != nil {
		return err
	}
	r.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]any{"defaultMinStake": amount.String()}))
	return nil
}

// Register creates a pending record owned by caller.
func (r *Registry) Register(caller, prover pozk.Address, params Params) error {
	if prover.IsZero() {
		return reverts.Violation("invalid prover")
	}
	if err := params.validate(); err != nil {
		return err
	}
	exists, err := r.records.Exists(prover)
	if err != nil {
		return err
	}
	if exists {
		return reverts.Violation("prover already registered")
	}
	min, err := r.defaultMin.Get()
	if err != nil {
		return err
	}

	rec := &Record{
		Owner:          caller,
		Work:           params.Work,
		Overtime:       params.Overtime,
		Version:        params.Version,
		Verifier:       params.Verifier,
		MinStakeAmount: min,
	}
	if err := r.records.Set(prover, rec); err != nil {
		return err
	}
	if err := r.index.Append(indexKey, prover); err != nil {
		return err
	}

	logger.Debug("prover registered", "prover", prover, "owner", caller, "work", params.Work)
	r.ctx.Emit((&events.Event{Name: events.ProverRegistered, Prover: prover, Account: caller}).WithData(params))
	return nil
}

// Approve admits or rejects a prover. Only the DAO decides.
func (r *Registry) Approve(caller, prover pozk.Address, minable, ok bool) error {
	if err := r.gov.RequireDao(caller); err != nil {
		return err
	}
	rec, err := r.mustGet(prover)
	if err != nil {
		return err
	}
	rec.Approved = ok
	rec.Minable = minable
	if err := r.records.Set(prover, rec); err != nil {
		return err
	}

	logger.Debug("prover approved", "prover", prover, "ok", ok, "minable", minable)
	r.ctx.Emit((&events.Event{Name: events.ProverApproved, Prover: prover, Account: caller}).
		WithData(map[string]bool{"approved": ok, "minable": minable}))
	return nil
}

func (r *Registry) requireOwnerOrDao(caller pozk.Address, rec *Record) error {
	if caller == rec.Owner {
		return nil
	}
	ok, err := r.gov.IsDao(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Denied("owner or dao only")
	}
	return nil
}

// Stop stops the prover from taking new tasks.
func (r *Registry) Stop(caller, prover pozk.Address) error {
	rec, err := r.mustGet(prover)
	if err != nil {
		return err
	}
	if err := r.requireOwnerOrDao(caller, rec); err != nil {
		return err
	}
	if rec.Stopped {
		return reverts.Violation("prover already stopped")
	}
	rec.Stopped = true
	if err := r.records.Set(prover, rec); err != nil {
		return err
	}

	logger.Debug("prover stopped", "prover", prover)
	r.ctx.Emit(&events.Event{Name: events.ProverStopped, Prover: prover, Account: caller})
	return nil
}

// Upgrade replaces the work parameters. The prover goes back to pending approval.
func (r *Registry) Upgrade(caller, prover pozk.Address, params Params) error {
	rec, err := r.mustGet(prover)
	if err != nil {
		return err
	}
	if caller != rec.Owner {
		return reverts.Denied("owner only")
	}
	if err := params.validate(); err != nil {
		return err
	}
	if params.Version <= rec.Version {
		return reverts.Violation("version must increase")
	}
	rec.Work = params.Work
	rec.Overtime = params.Overtime
	rec.Version = params.Version
	rec.Verifier = params.Verifier
	rec.Approved = false
	if err := r.records.Set(prover, rec); err != nil {
		return err
	}

	logger.Debug("prover upgraded", "prover", prover, "version", params.Version)
	r.ctx.Emit((&events.Event{Name: events.ProverUpgraded, Prover: prover, Account: caller}).WithData(params))
	return nil
}

// SetMinStakeAmount sets the miner eligibility threshold of one prover.
func (r *Registry) SetMinStakeAmount(caller, prover pozk.Address, amount *big.Int) error {
	if err := r.gov.RequireDao(caller); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return reverts.Violation("invalid amount")
	}
	rec, err := r.mustGet(prover)
	if err != nil {
		return err
	}
	rec.MinStakeAmount = new(big.Int).Set(amount)
	if err := r.records.Set(prover, rec); err != nil {
		return err
	}
	r.ctx.Emit((&events.Event{Name: events.ConfigChanged, Prover: prover, Account: caller, Amount: new(big.Int).Set(amount)}).
		WithData(map[string]any{"minStakeAmount": amount.String()}))
	return nil
}
