// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tasks

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/builtin/task"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

// Task is the JSON form of a tracked task.
type Task struct {
	ID           uint64                `json:"id"`
	Prover       pozk.Address          `json:"prover"`
	Creator      pozk.Address          `json:"creator"`
	Player       pozk.Address          `json:"player"`
	Miner        *pozk.Address         `json:"miner"`
	TaskType     uint8                 `json:"taskType"`
	Inputs       hexutil.Bytes         `json:"inputs"`
	Publics      hexutil.Bytes         `json:"publics"`
	URL          string                `json:"url,omitempty"`
	State        task.State            `json:"state"`
	Status       task.State            `json:"status"`
	CreatedAt    uint64                `json:"createdAt"`
	AcceptedAt   uint64                `json:"acceptedAt,omitempty"`
	SubmittedAt  uint64                `json:"submittedAt,omitempty"`
	AcceptedTime uint64                `json:"acceptedTime,omitempty"`
	Deposit      *math.HexOrDecimal256 `json:"deposit"`
	Disputant    *pozk.Address         `json:"disputant,omitempty"`
	ProofHash    *pozk.Bytes32         `json:"proofHash,omitempty"`
}

func convertTask(t *task.Task, status task.State) *Task {
	out := &Task{
		ID:           t.ID,
		Prover:       t.Prover,
		Creator:      t.Creator,
		Player:       t.Player,
		TaskType:     t.TaskType,
		Inputs:       t.Inputs,
		Publics:      t.Publics,
		URL:          t.URL,
		State:        t.State,
		Status:       status,
		CreatedAt:    t.CreatedAt,
		AcceptedAt:   t.AcceptedAt,
		SubmittedAt:  t.SubmittedAt,
		AcceptedTime: t.AcceptedTime,
		Deposit:      (*math.HexOrDecimal256)(t.Deposit),
	}
	if !t.Miner.IsZero() {
		miner := t.Miner
		out.Miner = &miner
	}
	if !t.Disputant.IsZero() {
		disputant := t.Disputant
		out.Disputant = &disputant
	}
	if !t.ProofHash.IsZero() {
		hash := t.ProofHash
		out.ProofHash = &hash
	}
	return out
}

type Tasks struct {
	sys *system.System
}

func New(sys *system.System) *Tasks {
	return &Tasks{sys}
}

func (t *Tasks) handleNextID(w http.ResponseWriter, _ *http.Request) error {
	var next uint64
	if err := t.sys.View(func(c *builtin.Contracts) (err error) {
		next, err = c.Task.NextID()
		return
	}); err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"nextId": next})
}

func (t *Tasks) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := restutil.Uint64Var(req, "id")
	if err != nil {
		return err
	}
	var out *Task
	if err := t.sys.View(func(c *builtin.Contracts) error {
		tk, err := c.Task.Get(id)
		if err != nil || tk == nil {
			return err
		}
		h, err := c.Epoch.Height()
		if err != nil {
			return err
		}
		status, err := c.Task.Status(id, h)
		if err != nil {
			return err
		}
		out = convertTask(tk, status)
		return nil
	}); err != nil {
		return err
	}
	if out == nil {
		return restutil.NotFound(errors.New("task not found"))
	}
	return restutil.WriteJSON(w, out)
}

func (t *Tasks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/next").
		Methods(http.MethodGet).
		Name("GET /tasks/next").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleNextID))
	sub.Path("/{id:[0-9]+}").
		Methods(http.MethodGet).
		Name("GET /tasks/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(t.handleGet))
}
