// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package token keeps balances of the base reward token and of any other
// token used for extra prover rewards. Builtin contracts hold escrowed funds
// under their own address.
package token

import (
	"math/big"

	"github.com/pozk/ledger/builtin/reverts"
	"github.com/pozk/ledger/builtin/solidity"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "token")

var (
	slotBalances = solidity.Slot("balances")
	slotSupply   = solidity.Slot("supply")
)

// Token binder of the token book.
type Token struct {
	ctx      *solidity.Context
	balances *solidity.Mapping[solidity.CompositeKey, *big.Int]
	supply   *solidity.Mapping[pozk.Address, *big.Int]
}

func New(addr pozk.Address, state *state.State, buf *events.Buffer) *Token {
	ctx := solidity.NewContext(addr, state, buf)
	return &Token{
		ctx:      ctx,
		balances: solidity.NewMapping[solidity.CompositeKey, *big.Int](ctx, slotBalances),
		supply:   solidity.NewMapping[pozk.Address, *big.Int](ctx, slotSupply),
	}
}

func balanceKey(token, account pozk.Address) solidity.CompositeKey {
	return solidity.Compose(token, account)
}

// Balance returns the token balance of account.
func (t *Token) Balance(token, account pozk.Address) (*big.Int, error) {
	return t.balances.Get(balanceKey(token, account))
}

// Supply returns the total minted amount of token.
func (t *Token) Supply(token pozk.Address) (*big.Int, error) {
	return t.supply.Get(token)
}

// Mint creates new tokens, used by genesis allocations.
func (t *Token) Mint(token, to pozk.Address, amount *big.Int) error {
	bal, err := t.Balance(token, to)
	if err != nil {
		return err
	}
	supply, err := t.supply.Get(token)
	if err != nil {
		return err
	}
	if err := t.balances.Set(balanceKey(token, to), bal.Add(bal, amount)); err != nil {
		return err
	}
	return t.supply.Set(token, supply.Add(supply, amount))
}

// Transfer moves amount of token from one account to another.
func (t *Token) Transfer(token, from, to pozk.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return reverts.Violation("negative amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	fromBal, err := t.Balance(token, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.Newf(reverts.InsufficientBalance, "insufficient %v balance", token)
	}
	toBal, err := t.Balance(token, to)
	if err != nil {
		return err
	}
	if err := t.balances.Set(balanceKey(token, from), fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	if err := t.balances.Set(balanceKey(token, to), toBal.Add(toBal, amount)); err != nil {
		return err
	}

	logger.Trace("transfer", "token", token, "from", from, "to", to, "amount", amount)
	t.ctx.Emit((&events.Event{
		Name:    events.Transfer,
		Token:   token,
		Account: from,
		Amount:  new(big.Int).Set(amount),
	}).WithData(map[string]string{"to": to.String()}))
	return nil
}
