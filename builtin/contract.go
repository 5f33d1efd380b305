// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/pozk/ledger/pozk"
)

type contract struct {
	Name    string
	Address pozk.Address
}

func newContract(name string) *contract {
	return &contract{name, pozk.BytesToAddress([]byte(name))}
}

// All lists every builtin contract.
func All() []*contract {
	return []*contract{Token, Epoch, Prover, Controller, Stake, Vesting, Task, Reward}
}

// NameOf returns the contract name owning addr, or empty.
func NameOf(addr pozk.Address) string {
	for _, c := range All() {
		if c.Address == addr {
			return c.Name
		}
	}
	return ""
}
