// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

// Reward is what collecting a (epoch, prover, account, role) tuple pays.
type Reward struct {
	Epoch     uint64                `json:"epoch"`
	Prover    pozk.Address          `json:"prover"`
	Account   pozk.Address          `json:"account"`
	Role      string                `json:"role"`
	Base      *math.HexOrDecimal256 `json:"base"`
	Extra     *math.HexOrDecimal256 `json:"extra"`
	Token     *pozk.Address         `json:"token,omitempty"`
	Final     bool                  `json:"final"`
	Collected bool                  `json:"collected"`
}

type Rewards struct {
	sys *system.System
}

func New(sys *system.System) *Rewards {
	return &Rewards{sys}
}

func (r *Rewards) handleGet(w http.ResponseWriter, req *http.Request) error {
	epoch, err := restutil.Uint64Var(req, "epoch")
	if err != nil {
		return err
	}
	prover, err := restutil.AddressVar(req, "prover")
	if err != nil {
		return err
	}
	account, err := restutil.AddressVar(req, "account")
	if err != nil {
		return err
	}
	role, err := restutil.RoleQuery(req, pozk.RoleMiner)
	if err != nil {
		return err
	}

	out := Reward{Epoch: epoch, Prover: prover, Account: account, Role: role.String()}
	if err := r.sys.View(func(c *builtin.Contracts) error {
		payout, err := c.Reward.Estimate(epoch, prover, account, role)
		if err != nil {
			return err
		}
		out.Base = (*math.HexOrDecimal256)(payout.Base)
		out.Extra = (*math.HexOrDecimal256)(payout.Extra)
		if !payout.Token.IsZero() {
			token := payout.Token
			out.Token = &token
		}
		if out.Collected, err = c.Reward.Collected(epoch, prover, account, role); err != nil {
			return err
		}
		h, err := c.Epoch.Height()
		out.Final = epoch < h
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (r *Rewards) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{epoch:[0-9]+}/{prover}/{account}").
		Methods(http.MethodGet).
		Name("GET /rewards/{epoch}/{prover}/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(r.handleGet))
}
