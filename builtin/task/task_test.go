// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package task

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/token"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/lvldb"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
	"github.com/pozk/ledger/test/datagen"
)

var base = pozk.BytesToAddress([]byte("base"))

type clock struct {
	h    uint64
	mode pozk.Mode
}

func (c *clock) Height() (uint64, error)  { return c.h, nil }
func (c *clock) Mode() (pozk.Mode, error) { return c.mode, nil }

type gov pozk.Address

func (g gov) RequireDao(caller pozk.Address) error {
	if caller != pozk.Address(g) {
		return reverts.Denied("dao only")
	}
	return nil
}

type registry map[pozk.Address]*prover.Record

func (r registry) Get(id pozk.Address) (*prover.Record, error) { return r[id], nil }

type slashCall struct {
	account, beneficiary pozk.Address
	amount               *big.Int
}

type miners struct {
	eligible map[pozk.Address]bool
	slashes  []slashCall
}

func (m *miners) IsMiner(_, account pozk.Address) (bool, error) { return m.eligible[account], nil }

func (m *miners) ScheduleSlash(_ pozk.Role, _, account, beneficiary pozk.Address, amount *big.Int, _ uint64) error {
	m.slashes = append(m.slashes, slashCall{account, beneficiary, amount})
	return nil
}

type delegates map[[2]pozk.Address]bool

func (d delegates) Authorized(account, caller pozk.Address) (bool, error) {
	return d[[2]pozk.Address{account, caller}], nil
}

type fixture struct {
	tracker   *Tracker
	bank      *token.Token
	clock     *clock
	now       uint64
	provs     registry
	miners    *miners
	delegates delegates
	dao       pozk.Address
	prover    pozk.Address
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	buf := events.NewBuffer(nil)
	f := &fixture{
		bank:      token.New(pozk.BytesToAddress([]byte("Token")), st, buf),
		clock:     &clock{},
		now:       1000,
		provs:     registry{},
		miners:    &miners{eligible: map[pozk.Address]bool{}},
		delegates: delegates{},
		dao:       datagen.RandAddress(),
		prover:    datagen.RandAddress(),
	}
	f.provs[f.prover] = &prover.Record{Owner: datagen.RandAddress(), Work: 7, Overtime: 100, Approved: true, Minable: true, MinStakeAmount: new(big.Int)}
	f.tracker = New(pozk.BytesToAddress([]byte("Task")), st, buf, Deps{
		BaseToken: base,
		Now:       func() uint64 { return f.now },
		Clock:     f.clock,
		Gov:       gov(f.dao),
		Provers:   f.provs,
		Miners:    f.miners,
		Delegates: f.delegates,
		Bank:      f.bank,
	})
	return f
}

func (f *fixture) balance(t *testing.T, a pozk.Address) int64 {
	b, err := f.bank.Balance(base, a)
	require.NoError(t, err)
	return b.Int64()
}

// submitted runs a task up to Submitted and returns its id.
func (f *fixture) submitted(t *testing.T, player, miner pozk.Address) uint64 {
	f.miners.eligible[miner] = true
	id, err := f.tracker.Create(player, f.prover, pozk.Address{}, 1, []byte("in"), nil)
	require.NoError(t, err)
	require.NoError(t, f.tracker.Accept(miner, id, miner, "http://miner"))
	require.NoError(t, f.tracker.Submit(miner, id, []byte("proof")))
	return id
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	player := datagen.RandAddress()

	assert.Equal(t, uint64(1), must(f.tracker.NextID()))
	id, err := f.tracker.Create(player, f.prover, pozk.Address{}, 2, []byte("in"), []byte("pub"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, uint64(2), must(f.tracker.NextID()))

	task, err := f.tracker.Get(id)
	require.NoError(t, err)
	assert.Equal(t, player, task.Player)
	assert.Equal(t, Created, task.State)

	_, err = f.tracker.Create(player, datagen.RandAddress(), player, 1, nil, nil)
	assert.True(t, reverts.Is(err, reverts.StateViolation))

	f.provs[f.prover].Stopped = true
	_, err = f.tracker.Create(player, f.prover, player, 1, nil, nil)
	assert.True(t, reverts.Is(err, reverts.StateViolation))
	assert.True(t, reverts.Is(f.tracker.Accept(player, id, player, ""), reverts.StateViolation))

	missing, err := f.tracker.Get(99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAcceptRules(t *testing.T) {
	f := newFixture(t)
	player := datagen.RandAddress()
	miner := datagen.RandAddress()
	other := datagen.RandAddress()
	ctrl := datagen.RandAddress()

	id, err := f.tracker.Create(player, f.prover, player, 1, nil, nil)
	require.NoError(t, err)

	// permissioned: stake eligibility required
	assert.True(t, reverts.Is(f.tracker.Accept(miner, id, miner, ""), reverts.AuthorizationDenied))
	// only the miner or its controller may accept for it
	f.miners.eligible[miner] = true
	assert.True(t, reverts.Is(f.tracker.Accept(ctrl, id, miner, ""), reverts.AuthorizationDenied))
	f.delegates[[2]pozk.Address{miner, ctrl}] = true
	require.NoError(t, f.tracker.Accept(ctrl, id, miner, "url"))

	// taken until overtime passes
	f.clock.mode = pozk.Permissionless
	assert.True(t, reverts.Is(f.tracker.Accept(other, id, other, ""), reverts.StateViolation))
	f.now += 100
	require.NoError(t, f.tracker.Accept(other, id, other, ""))
	task, _ := f.tracker.Get(id)
	assert.Equal(t, other, task.Miner)

	// the previous miner lost the task
	assert.True(t, reverts.Is(f.tracker.Submit(miner, id, nil), reverts.AuthorizationDenied))
}

func TestPermissionedRequiresMinableProver(t *testing.T) {
	f := newFixture(t)
	player := datagen.RandAddress()
	miner := datagen.RandAddress()
	f.miners.eligible[miner] = true
	f.provs[f.prover].Minable = false

	id, err := f.tracker.Create(player, f.prover, player, 1, nil, nil)
	require.NoError(t, err)
	assert.True(t, reverts.Is(f.tracker.Accept(miner, id, miner, ""), reverts.AuthorizationDenied))

	f.clock.mode = pozk.Permissionless
	assert.NoError(t, f.tracker.Accept(miner, id, miner, ""))
}

func TestSubmitCountsWork(t *testing.T) {
	f := newFixture(t)
	player := datagen.RandAddress()
	miner := datagen.RandAddress()
	f.clock.h = 3

	f.submitted(t, player, miner)
	f.submitted(t, player, miner)

	assert.Equal(t, uint64(2), must(f.tracker.Count(3, f.prover, miner, pozk.RoleMiner)))
	assert.Equal(t, uint64(2), must(f.tracker.Count(3, f.prover, player, pozk.RolePlayer)))
	assert.Equal(t, uint64(0), must(f.tracker.Count(3, f.prover, player, pozk.RoleMiner)))
	assert.Equal(t, uint64(2), must(f.tracker.Total(3, f.prover, pozk.RoleMiner)))
	assert.Equal(t, uint64(14), must(f.tracker.Weight(3, f.prover)))
	assert.Equal(t, []pozk.Address{f.prover}, must(f.tracker.AccountProvers(3, miner, pozk.RoleMiner)))
	assert.Equal(t, []pozk.Address{f.prover}, must(f.tracker.EpochProvers(3)))
}

func TestSubmitRejections(t *testing.T) {
	f := newFixture(t)
	player := datagen.RandAddress()
	miner := datagen.RandAddress()
	f.miners.eligible[miner] = true

	id, err := f.tracker.Create(player, f.prover, player, 1, nil, nil)
	require.NoError(t, err)
	assert.True(t, reverts.Is(f.tracker.Submit(miner, id, nil), reverts.StateViolation))

	require.NoError(t, f.tracker.Accept(miner, id, miner, ""))
	assert.True(t, reverts.Is(f.tracker.Submit(player, id, nil), reverts.AuthorizationDenied))

	f.tracker.verifier = VerifierFunc(func(_ *Task, _ pozk.Address, proof []byte) (bool, error) {
		return string(proof) == "ok", nil
	})
	assert.True(t, reverts.Is(f.tracker.Submit(miner, id, []byte("bad")), reverts.StateViolation))

	f.tracker.verifier = VerifierFunc(func(*Task, pozk.Address, []byte) (bool, error) {
		return false, errors.New("verifier down")
	})
	err = f.tracker.Submit(miner, id, []byte("ok"))
	assert.Error(t, err)
	assert.False(t, reverts.IsRevertErr(err))

	f.tracker.verifier = AcceptAll
	f.now += 101
	assert.True(t, reverts.Is(f.tracker.Submit(miner, id, nil), reverts.StateViolation))
}

func TestDisputeWindow(t *testing.T) {
	f := newFixture(t)
	player := datagen.RandAddress()
	miner := datagen.RandAddress()
	require.NoError(t, f.bank.Mint(base, player, big.NewInt(100)))
	require.NoError(t, f.tracker.SetDisputeDeposit(f.dao, big.NewInt(10)))

	id := f.submitted(t, player, miner)
	assert.Equal(t, M(Submitted, nil), M(f.tracker.Status(id, 0)))
	assert.Equal(t, M(Resolved, nil), M(f.tracker.Status(id, 1)))

	assert.True(t, reverts.Is(f.tracker.Dispute(miner, id), reverts.AuthorizationDenied))

	f.clock.h = 1
	assert.True(t, reverts.Is(f.tracker.Dispute(player, id), reverts.StateViolation))

	require.NoError(t, f.tracker.SetDisputeWindow(f.dao, 2))
	require.NoError(t, f.tracker.Dispute(player, id))
	assert.Equal(t, int64(90), f.balance(t, player))
	assert.Equal(t, int64(10), f.balance(t, f.tracker.Address()))
	assert.True(t, reverts.Is(f.tracker.Dispute(player, id), reverts.StateViolation))
}

func TestAdjudicate(t *testing.T) {
	const deposit = 20
	tests := []struct {
		name           string
		playerAward    int64
		minerAward     int64
		slash          bool
		kind           reverts.Kind
		disputant      int64
		miner          int64
		resolver       int64
		slashScheduled int64
	}{
		{"slash keeps miner award as penalty", deposit - 5, 0, true, 0, deposit - 5, 0, 5, deposit - 5},
		{"slash with extra penalty", 10, 30, true, 0, 10, 0, 10, 40},
		{"no slash pays miner", 5, 10, false, 0, 5, 10, 5, 0},
		{"awards exceed deposit", 15, 10, false, reverts.InsufficientBalance, 0, 0, 0, 0},
		{"negative award", -1, 0, false, reverts.StateViolation, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			player := datagen.RandAddress()
			miner := datagen.RandAddress()
			require.NoError(t, f.bank.Mint(base, player, big.NewInt(deposit)))
			require.NoError(t, f.tracker.SetDisputeDeposit(f.dao, big.NewInt(deposit)))
			id := f.submitted(t, player, miner)
			require.NoError(t, f.tracker.Dispute(player, id))

			assert.True(t, reverts.Is(f.tracker.Adjudicate(player, id, big.NewInt(0), big.NewInt(0), false), reverts.AuthorizationDenied))

			err := f.tracker.Adjudicate(f.dao, id, big.NewInt(tt.playerAward), big.NewInt(tt.minerAward), tt.slash)
			if tt.kind != 0 {
				assert.True(t, reverts.Is(err, tt.kind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.disputant, f.balance(t, player))
			assert.Equal(t, tt.miner, f.balance(t, miner))
			assert.Equal(t, tt.resolver, f.balance(t, f.dao))
			assert.Equal(t, int64(0), f.balance(t, f.tracker.Address()))
			if tt.slashScheduled > 0 {
				require.Len(t, f.miners.slashes, 1)
				assert.Equal(t, miner, f.miners.slashes[0].account)
				assert.Equal(t, player, f.miners.slashes[0].beneficiary)
				assert.Equal(t, tt.slashScheduled, f.miners.slashes[0].amount.Int64())
			} else {
				assert.Empty(t, f.miners.slashes)
			}
			assert.Equal(t, M(Resolved, nil), M(f.tracker.Status(id, 0)))
			assert.True(t, reverts.Is(f.tracker.Adjudicate(f.dao, id, big.NewInt(0), big.NewInt(0), false), reverts.StateViolation))
		})
	}
}

func M(a ...any) []any {
	return a
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
