// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package testsys builds an in-memory ledger with a controllable clock.
package testsys

import (
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/genesis"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/lvldb"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
	"github.com/pozk/ledger/system"
)

// Period is the epoch length of the test ledger.
const Period = 10

// Well known accounts of the test genesis.
var (
	Dao     = pozk.BytesToAddress([]byte("dao"))
	Owner   = pozk.BytesToAddress([]byte("owner"))
	Miner   = pozk.BytesToAddress([]byte("miner"))
	Player  = pozk.BytesToAddress([]byte("player"))
	Sponsor = pozk.BytesToAddress([]byte("sponsor"))
	Prover  = pozk.BytesToAddress([]byte("prover"))
	USD     = pozk.BytesToAddress([]byte("USD"))
)

// Sys is a ledger backed by in-memory stores.
type Sys struct {
	*system.System
	t     testing.TB
	DB    *lvldb.LevelDB
	LogDB *logdb.LogDB
	now   atomic.Uint64
}

func amount(v int64) *genesis.Amount { return genesis.NewAmount(big.NewInt(v)) }

// Document returns the genesis document of the test ledger.
func Document() *genesis.Document {
	return &genesis.Document{
		Name:   "testsys",
		Period: Period,
		Mode:   "permissionless",
		Dao:    []pozk.Address{Dao},
		Accounts: []genesis.Account{
			{Address: Dao, Balance: amount(1_000_000)},
			{Address: Owner, Balance: amount(10_000)},
			{Address: Miner, Balance: amount(10_000)},
			{Address: Player, Balance: amount(10_000)},
			{Address: Sponsor, Token: &USD, Balance: amount(10_000)},
		},
		Params: genesis.Params{
			MinStakeAmount: amount(100),
			DisputeDeposit: amount(50),
			Issuance:       amount(1000),
		},
		Vesting: []genesis.Funding{{Funder: Dao, Amount: amount(100_000)}},
		Provers: []genesis.Prover{{ID: Prover, Owner: Owner, Work: 1, Overtime: 100, Approved: true, Minable: true}},
	}
}

// New creates a ledger with the test genesis applied at unix time 1000.
func New(t testing.TB) *Sys {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() {
		logDB.Close()
		db.Close()
	})

	s := &Sys{t: t, DB: db, LogDB: logDB}
	s.now.Store(1000)
	s.System, err = system.New(db, logDB, state.NewCache(1), system.Options{Now: s.now.Load})
	require.NoError(t, err)

	gen, err := genesis.New(Document(), s.now.Load())
	require.NoError(t, err)
	require.NoError(t, s.Genesis(gen.Build))
	return s
}

// Forward moves the clock without committing anything.
func (s *Sys) Forward(seconds uint64) {
	s.now.Add(seconds)
}

// Tick moves the clock one period forward and commits the boundary.
func (s *Sys) Tick() uint64 {
	s.now.Add(Period)
	info, err := s.Advance()
	require.NoError(s.t, err)
	return info.Height
}

// StakeAll stakes the prover owner, the miner and the player.
func (s *Sys) StakeAll() {
	require.NoError(s.t, s.Stake(Owner, pozk.RoleProver, Prover, Owner, big.NewInt(1000)))
	require.NoError(s.t, s.Stake(Miner, pozk.RoleMiner, Prover, Miner, big.NewInt(100)))
	require.NoError(s.t, s.Stake(Player, pozk.RolePlayer, pozk.Address{}, Player, big.NewInt(100)))
}

// Work runs n tasks from creation to submission.
func (s *Sys) Work(n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		id, err := s.CreateTask(Player, Prover, pozk.Address{}, 1, []byte("in"), []byte("pub"))
		require.NoError(s.t, err)
		require.NoError(s.t, s.AcceptTask(Miner, id, Miner, "https://miner"))
		require.NoError(s.t, s.SubmitTask(Miner, id, []byte("proof")))
		ids[i] = id
	}
	return ids
}
