// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"
	"testing"

	fuzz "github.com/google/gofuzz"
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

type clock struct{ h uint64 }

func (c *clock) Height() (uint64, error) { return c.h, nil }

type registry map[pozk.Address]*prover.Record

func (r registry) Get(id pozk.Address) (*prover.Record, error) { return r[id], nil }

var base = pozk.BytesToAddress([]byte("base"))

type fixture struct {
	ledger *Ledger
	token  *token.Token
	clock  *clock
	provs  registry
	buf    *events.Buffer
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	buf := events.NewBuffer(nil)
	f := &fixture{
		token: token.New(pozk.BytesToAddress([]byte("Token")), st, buf),
		clock: &clock{},
		provs: registry{},
		buf:   buf,
	}
	f.ledger = New(pozk.BytesToAddress([]byte("Stake")), st, buf, base, f.clock, f.provs, f.token)
	return f
}

func (f *fixture) fund(t *testing.T, account pozk.Address, amount int64) {
	require.NoError(t, f.token.Mint(base, account, big.NewInt(amount)))
}

func (f *fixture) addProver(minStake int64) pozk.Address {
	id := datagen.RandAddress()
	f.provs[id] = &prover.Record{Owner: datagen.RandAddress(), Work: 1, Overtime: 1, Approved: true, Minable: true, MinStakeAmount: big.NewInt(minStake)}
	return id
}

func (f *fixture) balance(t *testing.T, account pozk.Address) *big.Int {
	b, err := f.token.Balance(base, account)
	require.NoError(t, err)
	return b
}

func M(a ...any) []any {
	return a
}

func i64(v *big.Int, err error) int64 {
	if err != nil {
		panic(err)
	}
	return v.Int64()
}

func TestStakeValidation(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	f.fund(t, acc, 100)
	p := f.addProver(10)

	tests := []struct {
		name    string
		role    pozk.Role
		subject pozk.Address
		amount  int64
		kind    reverts.Kind
	}{
		{"zero amount", pozk.RoleMiner, p, 0, reverts.StateViolation},
		{"bad role", pozk.Role(9), p, 1, reverts.StateViolation},
		{"player with prover", pozk.RolePlayer, p, 1, reverts.StateViolation},
		{"miner without prover", pozk.RoleMiner, pozk.Address{}, 1, reverts.StateViolation},
		{"unknown prover", pozk.RoleMiner, datagen.RandAddress(), 1, reverts.StateViolation},
		{"over balance", pozk.RoleMiner, p, 101, reverts.InsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.ledger.Stake(acc, tt.role, tt.subject, acc, big.NewInt(tt.amount))
			assert.True(t, reverts.Is(err, tt.kind), "got %v", err)
		})
	}
	assert.Equal(t, big.NewInt(100), f.balance(t, acc))
}

func TestStakeUnstakeClaim(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	p := f.addProver(10)
	f.fund(t, acc, 100)

	require.NoError(t, f.ledger.Stake(acc, pozk.RoleMiner, p, acc, big.NewInt(60)))
	require.NoError(t, f.ledger.Stake(acc, pozk.RolePlayer, pozk.Address{}, acc, big.NewInt(40)))
	assert.Zero(t, f.balance(t, acc).Sign())
	assert.Equal(t, big.NewInt(100), f.balance(t, f.ledger.Address()))

	assert.Equal(t, M(true, nil), M(f.ledger.IsMiner(p, acc)))

	err := f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(61))
	assert.True(t, reverts.Is(err, reverts.InsufficientBalance))
	// leaving 5 would fall under the minimum of 10
	err = f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(55))
	assert.True(t, reverts.Is(err, reverts.StateViolation))

	require.NoError(t, f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(20)))
	require.NoError(t, f.ledger.Unstake(acc, pozk.RolePlayer, pozk.Address{}, big.NewInt(40)))

	pos, err := f.ledger.Position(pozk.RoleMiner, p, acc)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(40), pos.Staked)
	assert.Equal(t, big.NewInt(20), pos.Unstaking)
	assert.Equal(t, uint64(1), pos.UnstakingReadyAt)

	// nothing matured in the same epoch
	assert.Equal(t, int64(0), i64(f.ledger.Claimable(acc)))
	_, err = f.ledger.Claim(acc)
	assert.True(t, reverts.Is(err, reverts.StateViolation))

	f.clock.h = 1
	assert.Equal(t, M(big.NewInt(60), nil), M(f.ledger.Claimable(acc)))
	assert.Equal(t, M(big.NewInt(60), nil), M(f.ledger.Claim(acc)))
	assert.Equal(t, big.NewInt(60), f.balance(t, acc))
	assert.Equal(t, big.NewInt(40), f.balance(t, f.ledger.Address()))

	_, err = f.ledger.Claim(acc)
	assert.True(t, reverts.Is(err, reverts.StateViolation))

	// full exit is allowed below the minimum
	require.NoError(t, f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(40)))
	assert.Equal(t, M(false, nil), M(f.ledger.IsMiner(p, acc)))

	holdings, err := f.ledger.Holdings(acc)
	require.NoError(t, err)
	assert.Len(t, holdings, 2)
}

func TestUnstakeAccumulatesAndResetsReadiness(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	f.fund(t, acc, 10)
	require.NoError(t, f.ledger.Stake(acc, pozk.RolePlayer, pozk.Address{}, acc, big.NewInt(10)))

	require.NoError(t, f.ledger.Unstake(acc, pozk.RolePlayer, pozk.Address{}, big.NewInt(4)))
	f.clock.h = 3
	require.NoError(t, f.ledger.Unstake(acc, pozk.RolePlayer, pozk.Address{}, big.NewInt(3)))

	pos, _ := f.ledger.Position(pozk.RolePlayer, pozk.Address{}, acc)
	assert.Equal(t, big.NewInt(7), pos.Unstaking)
	assert.Equal(t, uint64(4), pos.UnstakingReadyAt)
	assert.Equal(t, int64(0), i64(f.ledger.Claimable(acc)))
}

func TestStakeDelegatedByOtherAccount(t *testing.T) {
	f := newFixture(t)
	payer := datagen.RandAddress()
	owner := datagen.RandAddress()
	f.fund(t, payer, 5)
	require.NoError(t, f.ledger.Stake(payer, pozk.RolePlayer, pozk.Address{}, owner, big.NewInt(5)))

	pos, _ := f.ledger.Position(pozk.RolePlayer, pozk.Address{}, owner)
	assert.Equal(t, big.NewInt(5), pos.Staked)
	assert.True(t, reverts.Is(f.ledger.Unstake(payer, pozk.RolePlayer, pozk.Address{}, big.NewInt(1)), reverts.InsufficientBalance))
}

func TestStakeAt(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	p := f.addProver(0)
	f.fund(t, acc, 100)

	stakeAt := func(e uint64) *big.Int {
		v, err := f.ledger.StakeAt(pozk.RoleMiner, p, acc, e)
		require.NoError(t, err)
		return v
	}

	f.clock.h = 2
	require.NoError(t, f.ledger.Stake(acc, pozk.RoleMiner, p, acc, big.NewInt(10)))
	require.NoError(t, f.ledger.Stake(acc, pozk.RoleMiner, p, acc, big.NewInt(10)))
	f.clock.h = 5
	require.NoError(t, f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(5)))
	f.clock.h = 7
	require.NoError(t, f.ledger.Stake(acc, pozk.RoleMiner, p, acc, big.NewInt(30)))

	assert.Equal(t, int64(0), stakeAt(0).Int64())
	assert.Equal(t, int64(0), stakeAt(1).Int64())
	assert.Equal(t, int64(20), stakeAt(2).Int64())
	assert.Equal(t, int64(20), stakeAt(4).Int64())
	assert.Equal(t, int64(15), stakeAt(5).Int64())
	assert.Equal(t, int64(15), stakeAt(6).Int64())
	assert.Equal(t, int64(45), stakeAt(7).Int64())
	assert.Equal(t, int64(45), stakeAt(100).Int64())
}

func TestCreditMaturity(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	// rewards are funded into escrow by the caller
	f.fund(t, f.ledger.Address(), 100)

	require.NoError(t, f.ledger.Credit(acc, big.NewInt(30)))
	require.NoError(t, f.ledger.Credit(acc, new(big.Int)))
	assert.Equal(t, int64(0), i64(f.ledger.Claimable(acc)))
	pending, err := f.ledger.Pending(acc)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(30), pending.Amount)

	f.clock.h = 1
	assert.Equal(t, M(big.NewInt(30), nil), M(f.ledger.Claimable(acc)))
	// a new credit keeps the matured one claimable
	require.NoError(t, f.ledger.Credit(acc, big.NewInt(20)))
	assert.Equal(t, M(big.NewInt(30), nil), M(f.ledger.Claimable(acc)))

	f.clock.h = 2
	assert.Equal(t, M(big.NewInt(50), nil), M(f.ledger.Claim(acc)))
	assert.Equal(t, big.NewInt(50), f.balance(t, acc))
}

func TestSlashOrder(t *testing.T) {
	f := newFixture(t)
	acc := datagen.RandAddress()
	p := f.addProver(0)
	f.fund(t, acc, 100)
	require.NoError(t, f.ledger.Stake(acc, pozk.RoleMiner, p, acc, big.NewInt(100)))
	require.NoError(t, f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(70)))

	assert.Equal(t, M(big.NewInt(40), nil), M(f.ledger.Slash(pozk.RoleMiner, p, acc, big.NewInt(40), 1)))
	pos, _ := f.ledger.Position(pozk.RoleMiner, p, acc)
	assert.Equal(t, int64(0), pos.Staked.Int64())
	assert.Equal(t, int64(60), pos.Unstaking.Int64())

	// best effort when the position runs dry
	assert.Equal(t, M(big.NewInt(60), nil), M(f.ledger.Slash(pozk.RoleMiner, p, acc, big.NewInt(1000), 1)))
	assert.Equal(t, int64(0), i64(f.ledger.Slash(pozk.RoleMiner, p, acc, big.NewInt(1), 1)))
}

func TestScheduledSlashAppliesAtBoundary(t *testing.T) {
	f := newFixture(t)
	miner := datagen.RandAddress()
	disputant := datagen.RandAddress()
	p := f.addProver(0)
	f.fund(t, miner, 50)
	require.NoError(t, f.ledger.Stake(miner, pozk.RoleMiner, p, miner, big.NewInt(50)))

	f.clock.h = 4
	require.NoError(t, f.ledger.ScheduleSlash(pozk.RoleMiner, p, miner, disputant, big.NewInt(30), 9))
	require.NoError(t, f.ledger.ScheduleSlash(pozk.RoleMiner, p, miner, disputant, big.NewInt(30), 10))
	list, err := f.ledger.Scheduled(5)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// untouched until applied
	assert.Equal(t, M(big.NewInt(50), nil), M(f.ledger.MinerStaking(p, miner)))

	f.clock.h = 5
	require.NoError(t, f.ledger.ApplySlashes(5))
	assert.True(t, reverts.Is(f.ledger.ApplySlashes(5), reverts.AlreadySettled))
	assert.Equal(t, int64(0), i64(f.ledger.MinerStaking(p, miner)))
	assert.Equal(t, M(big.NewInt(50), nil), M(f.ledger.Claimable(disputant)))
	assert.Equal(t, M(big.NewInt(50), nil), M(f.ledger.Claim(disputant)))

	// stake of epoch 4 is still the pre-slash amount
	assert.Equal(t, M(big.NewInt(50), nil), M(f.ledger.StakeAt(pozk.RoleMiner, p, miner, 4)))
}

func TestSlashNeverExceedsPosition(t *testing.T) {
	fz := fuzz.New().NilChance(0)
	for range 50 {
		f := newFixture(t)
		acc := datagen.RandAddress()
		p := f.addProver(0)

		var staked, unstaked, slash uint32
		fz.Fuzz(&staked)
		fz.Fuzz(&unstaked)
		fz.Fuzz(&slash)
		if staked == 0 {
			staked = 1
		}
		unstaked %= staked

		f.fund(t, acc, int64(staked))
		require.NoError(t, f.ledger.Stake(acc, pozk.RoleMiner, p, acc, big.NewInt(int64(staked))))
		if unstaked > 0 {
			require.NoError(t, f.ledger.Unstake(acc, pozk.RoleMiner, p, big.NewInt(int64(unstaked))))
		}
		removed, err := f.ledger.Slash(pozk.RoleMiner, p, acc, big.NewInt(int64(slash)), 0)
		require.NoError(t, err)

		pos, _ := f.ledger.Position(pozk.RoleMiner, p, acc)
		assert.Equal(t, int64(min(staked, slash)), removed.Int64())
		assert.True(t, pos.Staked.Sign() >= 0)
		assert.True(t, pos.Unstaking.Sign() >= 0)
		total := new(big.Int).Add(pos.Staked, pos.Unstaking)
		assert.Equal(t, int64(staked), total.Int64()+removed.Int64())
	}
}
