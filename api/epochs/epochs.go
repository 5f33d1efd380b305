// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epochs

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/system"
)

// Epoch is the JSON form of the open epoch.
type Epoch struct {
	Height    uint64 `json:"height"`
	StartedAt uint64 `json:"startedAt"`
	Period    uint64 `json:"period"`
	Mode      string `json:"mode"`
	Now       uint64 `json:"now"`
}

// Record is the JSON form of a closed epoch.
type Record struct {
	Height    uint64 `json:"height"`
	StartedAt uint64 `json:"startedAt"`
	EndedAt   uint64 `json:"endedAt"`
}

type Epochs struct {
	sys *system.System
}

func New(sys *system.System) *Epochs {
	return &Epochs{sys}
}

func (e *Epochs) convert(info *system.EpochInfo) *Epoch {
	return &Epoch{
		Height:    info.Height,
		StartedAt: info.StartedAt,
		Period:    info.Period,
		Mode:      info.Mode.String(),
		Now:       e.sys.Now(),
	}
}

func (e *Epochs) handleGetEpoch(w http.ResponseWriter, _ *http.Request) error {
	info, err := e.sys.Epoch()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, e.convert(info))
}

func (e *Epochs) handleAdvance(w http.ResponseWriter, _ *http.Request) error {
	info, err := e.sys.Advance()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, e.convert(info))
}

func (e *Epochs) handleGetRecord(w http.ResponseWriter, req *http.Request) error {
	height, err := restutil.Uint64Var(req, "height")
	if err != nil {
		return err
	}
	var rec *Record
	if err := e.sys.View(func(c *builtin.Contracts) error {
		r, err := c.Epoch.Record(height)
		if err != nil || r == nil {
			return err
		}
		rec = &Record{Height: r.Height, StartedAt: r.StartedAt, EndedAt: r.EndedAt}
		return nil
	}); err != nil {
		return err
	}
	if rec == nil {
		return restutil.NotFound(errors.New("epoch not closed"))
	}
	return restutil.WriteJSON(w, rec)
}

// Mount registers the open epoch under pathPrefix+"/epoch" and closed epoch
// records under pathPrefix+"/epochs".
func (e *Epochs) Mount(root *mux.Router, pathPrefix string) {
	root.Path(pathPrefix + "/epoch").
		Methods(http.MethodGet).
		Name("GET /epoch").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleGetEpoch))
	root.Path(pathPrefix + "/epoch/advance").
		Methods(http.MethodPost).
		Name("POST /epoch/advance").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleAdvance))
	root.Path(pathPrefix + "/epochs/{height}").
		Methods(http.MethodGet).
		Name("GET /epochs/{height}").
		HandlerFunc(restutil.WrapHandlerFunc(e.handleGetRecord))
}
