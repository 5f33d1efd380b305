// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stakes

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

// Position is the JSON form of one staking position.
type Position struct {
	Role             string                `json:"role"`
	Subject          *pozk.Address         `json:"subject,omitempty"`
	Staked           *math.HexOrDecimal256 `json:"staked"`
	Unstaking        *math.HexOrDecimal256 `json:"unstaking"`
	UnstakingReadyAt uint64                `json:"unstakingReadyAt"`
}

// Pending is a credit that matures at ReadyAt.
type Pending struct {
	Amount  *math.HexOrDecimal256 `json:"amount"`
	ReadyAt uint64                `json:"readyAt"`
}

// Account summarizes the ledger standing of an account.
type Account struct {
	Positions []*Position           `json:"positions"`
	Claimable *math.HexOrDecimal256 `json:"claimable"`
	Pending   *Pending              `json:"pending"`
}

type Stakes struct {
	sys *system.System
}

func New(sys *system.System) *Stakes {
	return &Stakes{sys}
}

func (s *Stakes) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	account, err := restutil.AddressVar(req, "account")
	if err != nil {
		return err
	}
	var out Account
	if err := s.sys.View(func(c *builtin.Contracts) error {
		holdings, err := c.Stake.Holdings(account)
		if err != nil {
			return err
		}
		out.Positions = make([]*Position, 0, len(holdings))
		for _, h := range holdings {
			pos := &Position{
				Role:             h.Role.String(),
				Staked:           (*math.HexOrDecimal256)(h.Staked),
				Unstaking:        (*math.HexOrDecimal256)(h.Unstaking),
				UnstakingReadyAt: h.UnstakingReadyAt,
			}
			if h.Role.HasSubject() {
				subject := h.Subject
				pos.Subject = &subject
			}
			out.Positions = append(out.Positions, pos)
		}
		claimable, err := c.Stake.Claimable(account)
		if err != nil {
			return err
		}
		out.Claimable = (*math.HexOrDecimal256)(claimable)
		pending, err := c.Stake.Pending(account)
		if err != nil {
			return err
		}
		out.Pending = &Pending{Amount: (*math.HexOrDecimal256)(pending.Amount), ReadyAt: pending.ReadyAt}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (s *Stakes) handleGetClaimable(w http.ResponseWriter, req *http.Request) error {
	account, err := restutil.AddressVar(req, "account")
	if err != nil {
		return err
	}
	var claimable *math.HexOrDecimal256
	if err := s.sys.View(func(c *builtin.Contracts) error {
		v, err := c.Stake.Claimable(account)
		claimable = (*math.HexOrDecimal256)(v)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"claimable": claimable})
}

func (s *Stakes) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{account}").
		Methods(http.MethodGet).
		Name("GET /stakes/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetAccount))
	sub.Path("/{account}/claimable").
		Methods(http.MethodGet).
		Name("GET /stakes/{account}/claimable").
		HandlerFunc(restutil.WrapHandlerFunc(s.handleGetClaimable))
}
