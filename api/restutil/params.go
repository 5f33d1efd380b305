// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package restutil

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/pozk"
)

// AddressVar parses the address path variable name.
func AddressVar(req *http.Request, name string) (pozk.Address, error) {
	addr, err := pozk.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return pozk.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// Uint64Var parses the unsigned integer path variable name.
func Uint64Var(req *http.Request, name string) (uint64, error) {
	v, err := strconv.ParseUint(mux.Vars(req)[name], 0, 64)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, name))
	}
	return v, nil
}

// RoleQuery parses the role query parameter, falling back to def when absent.
func RoleQuery(req *http.Request, def pozk.Role) (pozk.Role, error) {
	s := req.URL.Query().Get("role")
	if s == "" {
		return def, nil
	}
	role, err := pozk.ParseRole(s)
	if err != nil {
		return 0, BadRequest(errors.WithMessage(err, "role"))
	}
	return role, nil
}
