// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"encoding/json"
	"fmt"
	"math"

	ethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/pozk"
)

// EventCriteria matches events whose set fields all equal the given values.
type EventCriteria struct {
	Name     *string       `json:"name,omitempty"`
	Contract *pozk.Address `json:"contract,omitempty"`
	Prover   *pozk.Address `json:"prover,omitempty"`
	Account  *pozk.Address `json:"account,omitempty"`
	Token    *pozk.Address `json:"token,omitempty"`
	Role     *string       `json:"role,omitempty"`
	TaskID   *uint64       `json:"taskID,omitempty"`
}

// Range is an inclusive epoch range. Open ends are unbounded.
type Range struct {
	From *uint64 `json:"from,omitempty"`
	To   *uint64 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter is the body of an event query.
type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

// Event is the JSON form of an indexed event.
type Event struct {
	Seq      int64                    `json:"seq"`
	Name     string                   `json:"name"`
	Epoch    uint64                   `json:"epoch"`
	Contract pozk.Address             `json:"contract"`
	Prover   *pozk.Address            `json:"prover,omitempty"`
	Account  *pozk.Address            `json:"account,omitempty"`
	Role     string                   `json:"role,omitempty"`
	TaskID   uint64                   `json:"taskID,omitempty"`
	Token    *pozk.Address            `json:"token,omitempty"`
	Amount   *ethmath.HexOrDecimal256 `json:"amount,omitempty"`
	Data     json.RawMessage          `json:"data,omitempty"`
}

func optAddress(a pozk.Address) *pozk.Address {
	if a.IsZero() {
		return nil
	}
	return &a
}

// ConvertEvent converts an indexed event into its JSON form.
func ConvertEvent(e *logdb.Event) *Event {
	ev := &Event{
		Seq:      int64(e.Seq),
		Name:     e.Name,
		Epoch:    e.Epoch,
		Contract: e.Contract,
		Prover:   optAddress(e.Prover),
		Account:  optAddress(e.Account),
		TaskID:   e.TaskID,
		Token:    optAddress(e.Token),
	}
	if e.Role.Valid() {
		ev.Role = e.Role.String()
	}
	if e.Amount != nil {
		ev.Amount = (*ethmath.HexOrDecimal256)(e.Amount)
	}
	if len(e.Data) > 0 {
		ev.Data = json.RawMessage(e.Data)
	}
	return ev
}

func convertCriteria(c *EventCriteria) (*logdb.EventCriteria, error) {
	crit := &logdb.EventCriteria{
		Name:     c.Name,
		Contract: c.Contract,
		Prover:   c.Prover,
		Account:  c.Account,
		Token:    c.Token,
		TaskID:   c.TaskID,
	}
	if c.Role != nil {
		role, err := pozk.ParseRole(*c.Role)
		if err != nil {
			return nil, err
		}
		crit.Role = &role
	}
	return crit, nil
}

// ConvertCriteriaSet converts JSON criteria into index criteria.
func ConvertCriteriaSet(set []*EventCriteria) ([]*logdb.EventCriteria, error) {
	out := make([]*logdb.EventCriteria, 0, len(set))
	for i, c := range set {
		if c == nil {
			return nil, fmt.Errorf("criteriaSet[%d]: null not allowed", i)
		}
		crit, err := convertCriteria(c)
		if err != nil {
			return nil, fmt.Errorf("criteriaSet[%d]: %w", i, err)
		}
		out = append(out, crit)
	}
	return out, nil
}

// ConvertEventFilter converts a JSON filter into an index filter.
func ConvertEventFilter(f *EventFilter) (*logdb.EventFilter, error) {
	set, err := ConvertCriteriaSet(f.CriteriaSet)
	if err != nil {
		return nil, err
	}
	filter := &logdb.EventFilter{
		CriteriaSet: set,
		Order:       f.Order,
	}
	if f.Range != nil {
		r := &logdb.Range{To: math.MaxInt64}
		if f.Range.From != nil {
			r.From = *f.Range.From
		}
		if f.Range.To != nil {
			r.To = *f.Range.To
		}
		filter.Range = r
	}
	if f.Options != nil {
		filter.Options = &logdb.Options{Offset: f.Options.Offset, Limit: f.Options.Limit}
	}
	return filter, nil
}

// Match reports whether e satisfies any of the criteria, or there are none.
func Match(set []*logdb.EventCriteria, e *logdb.Event) bool {
	if len(set) == 0 {
		return true
	}
	for _, c := range set {
		if matchOne(c, e) {
			return true
		}
	}
	return false
}

func matchOne(c *logdb.EventCriteria, e *logdb.Event) bool {
	switch {
	case c.Name != nil && *c.Name != e.Name,
		c.Contract != nil && *c.Contract != e.Contract,
		c.Prover != nil && *c.Prover != e.Prover,
		c.Account != nil && *c.Account != e.Account,
		c.Token != nil && *c.Token != e.Token,
		c.Role != nil && *c.Role != e.Role,
		c.TaskID != nil && *c.TaskID != e.TaskID:
		return false
	}
	return true
}
