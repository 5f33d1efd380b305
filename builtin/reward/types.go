// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reward

import (
	"math/big"

	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/pozk"
)

// Tranche configures the reward curve of one role.
type Tranche struct {
	FloorPct     uint64
	CeilPct      uint64
	TaskCountCap uint64
	SharePct     uint64 // share of the prover pool assigned to the role
}

// DefaultTranche is used until governance sets a tranche.
var DefaultTranche = Tranche{FloorPct: 10, CeilPct: 90, TaskCountCap: 10, SharePct: 50}

// Percent returns the reward percentage for x completed tasks, interpolated
// from floor to ceil and capped at ceil.
func Percent(x uint64, tr Tranche) uint64 {
	if tr.TaskCountCap == 0 || x >= tr.TaskCountCap {
		return tr.CeilPct
	}
	return min(tr.CeilPct, tr.FloorPct+x*(tr.CeilPct-tr.FloorPct)/tr.TaskCountCap)
}

// ExtraDeposit is an auxiliary reward pool in an arbitrary token.
type ExtraDeposit struct {
	Depositor   pozk.Address
	Token       pozk.Address
	Amount      *big.Int
	Distributed bool
	Claimed     bool
}

// Payout is what one collection pays.
type Payout struct {
	Base  *big.Int
	Extra *big.Int
	Token pozk.Address // token of Extra
}

// Clock supplies the epoch height.
type Clock interface {
	Height() (uint64, error)
}

// Governance answers DAO membership.
type Governance interface {
	RequireDao(caller pozk.Address) error
}

// Work reads the work counts of the task tracker.
type Work interface {
	Count(epoch uint64, prover, account pozk.Address, role pozk.Role) (uint64, error)
	Total(epoch uint64, prover pozk.Address, role pozk.Role) (uint64, error)
	Weight(epoch uint64, prover pozk.Address) (uint64, error)
	AccountProvers(epoch uint64, account pozk.Address, role pozk.Role) ([]pozk.Address, error)
	EpochProvers(epoch uint64) ([]pozk.Address, error)
}

// Stakes is the part of the stake ledger settlement relies on.
type Stakes interface {
	Address() pozk.Address
	StakeAt(role pozk.Role, subject, account pozk.Address, epoch uint64) (*big.Int, error)
	Credit(account pozk.Address, amount *big.Int) error
}

// Provers looks up registry records.
type Provers interface {
	Get(id pozk.Address) (*prover.Record, error)
}

// Fund pays base rewards out of the per-epoch reservation.
type Fund interface {
	Reserved(epoch uint64) (*big.Int, error)
	Release(epoch uint64, to pozk.Address, amount *big.Int) error
}

// Bank moves tokens between accounts.
type Bank interface {
	Transfer(token, from, to pozk.Address, amount *big.Int) error
}

// PoolSizer returns the base reward pool of a prover for a closed epoch.
type PoolSizer interface {
	Pool(epoch uint64, prover pozk.Address) (*big.Int, error)
}
