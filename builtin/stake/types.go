// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"math/big"

	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/pozk"
)

// Clock supplies the current epoch height.
type Clock interface {
	Height() (uint64, error)
}

// Provers looks up registry records.
type Provers interface {
	Get(id pozk.Address) (*prover.Record, error)
}

// Bank moves tokens between accounts.
type Bank interface {
	Transfer(token, from, to pozk.Address, amount *big.Int) error
}

// Position is the stake of one account in one role.
type Position struct {
	Staked           *big.Int
	Unstaking        *big.Int
	UnstakingReadyAt uint64
}

func newPosition() *Position {
	return &Position{Staked: new(big.Int), Unstaking: new(big.Int)}
}

// PositionKey identifies a position of an account. Subject is zero for players.
type PositionKey struct {
	Role    pozk.Role
	Subject pozk.Address
}

func (k PositionKey) storageKey(account pozk.Address) solidity.CompositeKey {
	return solidity.Compose(solidity.RoleKey(k.Role), k.Subject, account)
}

// Pending is a credit that becomes claimable from ReadyAt.
type Pending struct {
	Amount  *big.Int
	ReadyAt uint64
}

// Checkpoint holds the staked amount a position had before its first change in Epoch.
type Checkpoint struct {
	Epoch  uint64
	Staked *big.Int
}

// ScheduledSlash is a dispute penalty applied when the clock reaches the epoch it is filed under.
type ScheduledSlash struct {
	Role        pozk.Role
	Subject     pozk.Address
	Account     pozk.Address
	Beneficiary pozk.Address
	Amount      *big.Int
	TaskID      uint64
}

// Holding pairs a position with its key, for listings.
type Holding struct {
	PositionKey
	Position
}
