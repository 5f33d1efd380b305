// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pozk

import (
	"errors"
	"strings"
)

// Role is the capacity in which an account stakes and earns.
type Role uint8

const (
	RoleProver Role = iota + 1
	RoleMiner
	RolePlayer
)

// Valid returns whether r is a known role.
func (r Role) Valid() bool {
	return r >= RoleProver && r <= RolePlayer
}

// HasSubject reports whether positions of this role are scoped to a prover.
func (r Role) HasSubject() bool {
	return r == RoleProver || r == RoleMiner
}

func (r Role) String() string {
	switch r {
	case RoleProver:
		return "prover"
	case RoleMiner:
		return "miner"
	case RolePlayer:
		return "player"
	default:
		return "unknown"
	}
}

// ParseRole parses the lower-case role name.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prover":
		return RoleProver, nil
	case "miner":
		return RoleMiner, nil
	case "player":
		return RolePlayer, nil
	}
	return 0, errors.New("invalid role")
}

// Mode selects who may accept tasks.
type Mode uint8

const (
	// Permissioned requires miners to meet the prover's minimum stake.
	Permissioned Mode = iota
	// Permissionless lets any account accept.
	Permissionless
)

func (m Mode) String() string {
	if m == Permissionless {
		return "permissionless"
	}
	return "permissioned"
}

// ParseMode parses the lower-case mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permissioned":
		return Permissioned, nil
	case "permissionless":
		return Permissionless, nil
	}
	return 0, errors.New("invalid mode")
}
