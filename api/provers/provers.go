// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package provers

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/builtin/prover"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

// Prover is the JSON form of a registry record.
type Prover struct {
	ID             pozk.Address          `json:"id"`
	Owner          pozk.Address          `json:"owner"`
	Work           uint32                `json:"work"`
	Version        uint32                `json:"version"`
	Overtime       uint32                `json:"overtime"`
	Verifier       pozk.Address          `json:"verifier"`
	Approved       bool                  `json:"approved"`
	Minable        bool                  `json:"minable"`
	Stopped        bool                  `json:"stopped"`
	MinStakeAmount *math.HexOrDecimal256 `json:"minStakeAmount"`
}

func convertProver(id pozk.Address, r *prover.Record) *Prover {
	return &Prover{
		ID:             id,
		Owner:          r.Owner,
		Work:           r.Work,
		Version:        r.Version,
		Overtime:       r.Overtime,
		Verifier:       r.Verifier,
		Approved:       r.Approved,
		Minable:        r.Minable,
		Stopped:        r.Stopped,
		MinStakeAmount: (*math.HexOrDecimal256)(r.MinStakeAmount),
	}
}

// Miner reports the miner standing of an account at a prover.
type Miner struct {
	Staking *math.HexOrDecimal256 `json:"staking"`
	IsMiner bool                  `json:"isMiner"`
}

type Provers struct {
	sys *system.System
}

func New(sys *system.System) *Provers {
	return &Provers{sys}
}

func (p *Provers) handleList(w http.ResponseWriter, _ *http.Request) error {
	var list []*Prover
	if err := p.sys.View(func(c *builtin.Contracts) error {
		ids, err := c.Prover.Provers()
		if err != nil {
			return err
		}
		list = make([]*Prover, 0, len(ids))
		for _, id := range ids {
			r, err := c.Prover.Get(id)
			if err != nil {
				return err
			}
			if r != nil {
				list = append(list, convertProver(id, r))
			}
		}
		return nil
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, list)
}

func (p *Provers) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := restutil.AddressVar(req, "id")
	if err != nil {
		return err
	}
	var out *Prover
	if err := p.sys.View(func(c *builtin.Contracts) error {
		r, err := c.Prover.Get(id)
		if err != nil || r == nil {
			return err
		}
		out = convertProver(id, r)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return restutil.NotFound(errors.New("prover not registered"))
	}
	return restutil.WriteJSON(w, out)
}

func (p *Provers) handleGetMiner(w http.ResponseWriter, req *http.Request) error {
	id, err := restutil.AddressVar(req, "id")
	if err != nil {
		return err
	}
	account, err := restutil.AddressVar(req, "account")
	if err != nil {
		return err
	}
	var out Miner
	if err := p.sys.View(func(c *builtin.Contracts) error {
		staking, err := c.Stake.MinerStaking(id, account)
		if err != nil {
			return err
		}
		out.Staking = (*math.HexOrDecimal256)(staking)
		out.IsMiner, err = c.Stake.IsMiner(id, account)
		return err
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, &out)
}

func (p *Provers) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /provers").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleList))
	sub.Path("/{id}").
		Methods(http.MethodGet).
		Name("GET /provers/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGet))
	sub.Path("/{id}/miners/{account}").
		Methods(http.MethodGet).
		Name("GET /provers/{id}/miners/{account}").
		HandlerFunc(restutil.WrapHandlerFunc(p.handleGetMiner))
}
