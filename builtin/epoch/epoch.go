// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package epoch is the clock of the ledger. It tracks the epoch height, the
// period after which anyone may advance it, the acceptance mode and the DAO
// set allowed to govern configuration.
package epoch

import (
	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "epoch")

// DefaultPeriod is the epoch length used until governance sets one.
const DefaultPeriod = 60

var (
	slotHeight    = solidity.Slot("height")
	slotStartedAt = solidity.Slot("started-at")
	slotMode      = solidity.Slot("mode")
	slotDaos      = solidity.Slot("daos")
	slotRecords   = solidity.Slot("records")
)

// Record describes a closed epoch.
type Record struct {
	Height    uint64
	StartedAt uint64
	EndedAt   uint64
}

// Epoch binder of the clock contract.
type Epoch struct {
	ctx       *solidity.Context
	height    *solidity.Value[uint64]
	startedAt *solidity.Value[uint64]
	period    *solidity.ConfigVariable
	mode      *solidity.Value[uint8]
	daos      *solidity.Mapping[pozk.Address, bool]
	records   *solidity.Mapping[solidity.Uint64Key, *Record]
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer) *Epoch {
	ctx := solidity.NewContext(addr, state, buf)
	return &Epoch{
		ctx:       ctx,
		height:    solidity.NewValue[uint64](ctx, slotHeight),
		startedAt: solidity.NewValue[uint64](ctx, slotStartedAt),
		period:    solidity.NewConfigVariable(ctx, "period", DefaultPeriod),
		mode:      solidity.NewValue[uint8](ctx, slotMode),
		daos:      solidity.NewMapping[pozk.Address, bool](ctx, slotDaos),
		records:   solidity.NewMapping[solidity.Uint64Key, *Record](ctx, slotRecords),
	}
}

// Init opens epoch 0 at startedAt. Used by genesis.
func (e *Epoch) Init(startedAt, period uint64, mode pozk.Mode, daos []pozk.Address) error {
	if period == 0 {
		return reverts.Violation("invalid period")
	}
	if err := e.startedAt.Set(startedAt); err != nil {
		return err
	}
	if err := e.period.Set(period); err != nil {
		return err
	}
	if err := e.mode.Set(uint8(mode)); err != nil {
		return err
	}
	for _, dao := range daos {
		if err := e.daos.Set(dao, true); err != nil {
			return err
		}
	}
	return nil
}

func (e *Epoch) Height() (uint64, error) {
	return e.height.Get()
}

func (e *Epoch) StartedAt() (uint64, error) {
	return e.startedAt.Get()
}

func (e *Epoch) Period() (uint64, error) {
	return e.period.Get()
}

func (e *Epoch) Mode() (pozk.Mode, error) {
	m, err := e.mode.Get()
	return pozk.Mode(m), err
}

// Closed reports whether the given epoch has ended.
func (e *Epoch) Closed(epoch uint64) (bool, error) {
	h, err := e.height.Get()
	if err != nil {
		return false, err
	}
	return epoch < h, nil
}

// Record returns the closed epoch record, nil if the epoch is still open.
func (e *Epoch) Record(epoch uint64) (*Record, error) {
	closed, err := e.Closed(epoch)
	if err != nil || !closed {
		return nil, err
	}
	return e.records.Get(solidity.Uint64Key(epoch))
}

// Due returns whether the current epoch may be closed at now.
func (e *Epoch) Due(now uint64) (bool, error) {
	started, err := e.startedAt.Get()
	if err != nil {
		return false, err
	}
	period, err := e.period.Get()
	if err != nil {
		return false, err
	}
	return now >= started+period, nil
}

// Peek returns the height the clock would have after TryAdvance(now).
func (e *Epoch) Peek(now uint64) (uint64, error) {
	h, err := e.height.Get()
	if err != nil {
		return 0, err
	}
	due, err := e.Due(now)
	if err != nil {
		return 0, err
	}
	if due {
		h++
	}
	return h, nil
}

// TryAdvance closes the current epoch when its period has elapsed at now and
// opens the next one starting at now. It moves at most one epoch per call and
// returns the height that was closed.
func (e *Epoch) TryAdvance(now uint64) (closed uint64, advanced bool, err error) {
	due, err := e.Due(now)
	if err != nil || !due {
		return 0, false, err
	}
	h, err := e.height.Get()
	if err != nil {
		return 0, false, err
	}
	started, err := e.startedAt.Get()
	if err != nil {
		return 0, false, err
	}

	rec := &Record{Height: h, StartedAt: started, EndedAt: now}
	if err := e.records.Set(solidity.Uint64Key(h), rec); err != nil {
		return 0, false, err
	}
	if err := e.height.Set(h + 1); err != nil {
		return 0, false, err
	}
	if err := e.startedAt.Set(now); err != nil {
		return 0, false, err
	}

	logger.Info("epoch closed", "height", h, "startedAt", started, "endedAt", now)
	e.ctx.Emit((&events.Event{Name: events.EpochClosed}).WithData(rec))
	return h, true, nil
}

// IsDao returns whether account belongs to the DAO set.
func (e *Epoch) IsDao(account pozk.Address) (bool, error) {
	return e.daos.Get(account)
}

// RequireDao rejects callers outside the DAO set.
func (e *Epoch) RequireDao(caller pozk.Address) error {
	ok, err := e.daos.Get(caller)
	if err != nil {
		return err
	}
	if !ok {
		return reverts.Denied("dao only")
	}
	return nil
}

// SetPeriod changes the epoch length for future advances.
func (e *Epoch) SetPeriod(caller pozk.Address, seconds uint64) error {
	if err := e.RequireDao(caller); err != nil {
		return err
	}
	if seconds == 0 {
		return reverts.Violation("invalid period")
	}
	if err := e.period.Set(seconds); err != nil {
		return err
	}
	e.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller}).
		WithData(map[string]any{"period": seconds}))
	return nil
}

// SetMode switches between permissioned and permissionless acceptance.
func (e *Epoch) SetMode(caller pozk.Address, mode pozk.Mode) error {
	if err := e.RequireDao(caller); err != nil {
		return err
	}
	if mode != pozk.Permissioned && mode != pozk.Permissionless {
		return reverts.Violation("invalid mode")
	}
	if err := e.mode.Set(uint8(mode)); err != nil {
		return err
	}
	e.ctx.Emit((&events.Event{Name: events.ConfigChanged, Account: caller}).
		WithData(map[string]any{"mode": mode.String()}))
	return nil
}

// AddDao adds or removes account from the DAO set.
func (e *Epoch) AddDao(caller, account pozk.Address, ok bool) error {
	if err := e.RequireDao(caller); err != nil {
		return err
	}
	if account.IsZero() {
		return reverts.Violation("invalid account")
	}
	if err := e.daos.Set(account, ok); err != nil {
		return err
	}
	e.ctx.Emit((&events.Event{Name: events.DaoChanged, Account: account}).
		WithData(map[string]any{"member": ok, "by": caller.String()}))
	return nil
}
