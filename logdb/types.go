// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
)

// Event is an indexed event with its sequence.
type Event struct {
	Seq Sequence
	*events.Event
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range bounds the epochs of a query, both ends included.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventCriteria matches events on every non-nil field.
type EventCriteria struct {
	Name     *string
	Contract *pozk.Address
	Prover   *pozk.Address
	Account  *pozk.Address
	Token    *pozk.Address
	Role     *pozk.Role
	TaskID   *uint64
}

// EventFilter selects events matching any of CriteriaSet within Range.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
