// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package task

import (
	"math/big"

	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/pozk"
)

// State is the lifecycle stage of a task.
type State uint8

const (
	Created State = iota + 1
	Accepted
	Submitted
	Disputed
	Resolved
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Accepted:
		return "accepted"
	case Submitted:
		return "submitted"
	case Disputed:
		return "disputed"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Task is one unit of work created by a player against a prover.
type Task struct {
	ID       uint64
	Prover   pozk.Address
	Creator  pozk.Address
	Player   pozk.Address
	Miner    pozk.Address
	TaskType uint8
	Inputs   []byte
	Publics  []byte
	URL      string
	State    State

	CreatedAt    uint64 // epoch
	AcceptedAt   uint64 // epoch
	SubmittedAt  uint64 // epoch
	AcceptedTime uint64 // unix seconds, bounds the overtime

	Deposit   *big.Int
	Disputant pozk.Address
	ProofHash pozk.Bytes32
}

// Clock supplies the epoch height and acceptance mode.
type Clock interface {
	Height() (uint64, error)
	Mode() (pozk.Mode, error)
}

// Governance answers DAO membership.
type Governance interface {
	RequireDao(caller pozk.Address) error
}

// Provers looks up registry records.
type Provers interface {
	Get(id pozk.Address) (*prover.Record, error)
}

// Miners is the part of the stake ledger the tracker relies on.
type Miners interface {
	IsMiner(prover, account pozk.Address) (bool, error)
	ScheduleSlash(role pozk.Role, subject, account, beneficiary pozk.Address, amount *big.Int, taskID uint64) error
}

// Delegates authorizes controller keys acting for an account.
type Delegates interface {
	Authorized(account, caller pozk.Address) (bool, error)
}

// Bank moves tokens between accounts.
type Bank interface {
	Transfer(token, from, to pozk.Address, amount *big.Int) error
}

// Verifier checks a submitted proof. The result is trusted as is.
type Verifier interface {
	Verify(task *Task, verifier pozk.Address, proof []byte) (bool, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(task *Task, verifier pozk.Address, proof []byte) (bool, error)

func (f VerifierFunc) Verify(task *Task, verifier pozk.Address, proof []byte) (bool, error) {
	return f(task, verifier, proof)
}

// AcceptAll accepts every proof.
var AcceptAll = VerifierFunc(func(*Task, pozk.Address, []byte) (bool, error) { return true, nil })
