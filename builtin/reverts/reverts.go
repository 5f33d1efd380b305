// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a rejected operation.
type Kind uint8

const (
	// StateViolation: the target is not in the state the operation requires.
	StateViolation Kind = iota + 1
	// AuthorizationDenied: the caller lacks the required role.
	AuthorizationDenied
	// InsufficientBalance: the amount exceeds what is available.
	InsufficientBalance
	// AlreadySettled: an exactly-once guard was already consumed.
	AlreadySettled
)

func (k Kind) String() string {
	switch k {
	case StateViolation:
		return "state violation"
	case AuthorizationDenied:
		return "authorization denied"
	case InsufficientBalance:
		return "insufficient balance"
	case AlreadySettled:
		return "already settled"
	}
	return "unknown"
}

// ErrRevert is a user-facing rejection. The operation that produced it left no side effect.
type ErrRevert struct {
	kind    Kind
	message string
}

// New creates a revert of the given kind.
func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

// Newf creates a revert with a formatted message.
func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Kind returns the revert class.
func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// Violation is shorthand for a StateViolation revert.
func Violation(message string) *ErrRevert { return New(StateViolation, message) }

// Denied is shorthand for an AuthorizationDenied revert.
func Denied(message string) *ErrRevert { return New(AuthorizationDenied, message) }

// Insufficient is shorthand for an InsufficientBalance revert.
func Insufficient(message string) *ErrRevert { return New(InsufficientBalance, message) }

// Settled is shorthand for an AlreadySettled revert.
func Settled(message string) *ErrRevert { return New(AlreadySettled, message) }

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf extracts the revert kind from err.
func KindOf(err error) (Kind, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind, true
	}
	return 0, false
}

// Is reports whether err is a revert of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
