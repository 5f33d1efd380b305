// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pozk/ledger/pozk"
)

func TestAddresses(t *testing.T) {
	seen := map[pozk.Address]bool{BaseToken: true}
	for _, c := range All() {
		assert.False(t, seen[c.Address], c.Name)
		seen[c.Address] = true
		assert.Equal(t, c.Name, NameOf(c.Address))
	}
	assert.Equal(t, "", NameOf(pozk.Address{}))
}
