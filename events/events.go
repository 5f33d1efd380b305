// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events defines the state-change records emitted by every mutation.
package events

import (
	"encoding/json"
	"math/big"

	"github.com/pozk/ledger/pozk"
)

// Event names.
const (
	EpochClosed       = "EpochClosed"
	ConfigChanged     = "ConfigChanged"
	DaoChanged        = "DaoChanged"
	ProverRegistered  = "ProverRegistered"
	ProverApproved    = "ProverApproved"
	ProverStopped     = "ProverStopped"
	ProverUpgraded    = "ProverUpgraded"
	Staked            = "Staked"
	Unstaked          = "Unstaked"
	Claimed           = "Claimed"
	SlashScheduled    = "SlashScheduled"
	Slashed           = "Slashed"
	Credited          = "Credited"
	TaskCreated       = "TaskCreated"
	TaskAccepted      = "TaskAccepted"
	TaskSubmitted     = "TaskSubmitted"
	TaskDisputed      = "TaskDisputed"
	TaskAdjudicated   = "TaskAdjudicated"
	RewardCollected   = "RewardCollected"
	ExtraDeposited    = "ExtraDeposited"
	ExtraClaimed      = "ExtraClaimed"
	Transfer          = "Transfer"
	ControllerChanged = "ControllerChanged"
	VestingFunded     = "VestingFunded"
	IssuanceReserved  = "IssuanceReserved"
)

// Event is one state transition.
// Fields not relevant to an event stay zero.
type Event struct {
	Name     string
	Epoch    uint64
	Contract pozk.Address
	Prover   pozk.Address
	Account  pozk.Address
	Role     pozk.Role
	TaskID   uint64
	Token    pozk.Address
	Amount   *big.Int `rlp:"nil"`
	Data     []byte
}

// WithData attaches v as JSON data.
func (e *Event) WithData(v any) *Event {
	e.Data, _ = json.Marshal(v)
	return e
}

// Buffer collects events emitted during one operation.
type Buffer struct {
	epoch func() uint64
	list  []*Event
}

// NewBuffer creates a buffer stamping each event with the epoch returned by epoch.
func NewBuffer(epoch func() uint64) *Buffer {
	return &Buffer{epoch: epoch}
}

// Add appends the event.
func (b *Buffer) Add(ev *Event) {
	if b == nil {
		return
	}
	if b.epoch != nil {
		ev.Epoch = b.epoch()
	}
	b.list = append(b.list, ev)
}

// Len returns the count of buffered events.
func (b *Buffer) Len() int {
	return len(b.list)
}

// Truncate drops events added after the buffer held n.
func (b *Buffer) Truncate(n int) {
	for i := n; i < len(b.list); i++ {
		b.list[i] = nil
	}
	b.list = b.list[:n]
}

// Drain returns and clears the buffered events.
func (b *Buffer) Drain() []*Event {
	list := b.list
	b.list = nil
	return list
}
