// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/mux"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/log"
)

type LogStatus struct {
	Enabled bool `json:"enabled"`
}

type apiLogs struct {
	enabled *atomic.Bool
	mu      sync.Mutex
}

func newAPILogs(enabled *atomic.Bool) *apiLogs {
	return &apiLogs{enabled: enabled}
}

func (a *apiLogs) handleGet(w http.ResponseWriter, _ *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return restutil.WriteJSON(w, LogStatus{Enabled: a.enabled.Load()})
}

func (a *apiLogs) handlePost(w http.ResponseWriter, req *http.Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var body LogStatus
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(err)
	}
	a.enabled.Store(body.Enabled)
	log.Info("api logs updated", "pkg", "admin", "enabled", body.Enabled)

	return restutil.WriteJSON(w, LogStatus{Enabled: a.enabled.Load()})
}

func (a *apiLogs) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /admin/apilogs").
		HandlerFunc(restutil.WrapHandlerFunc(a.handleGet))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /admin/apilogs").
		HandlerFunc(restutil.WrapHandlerFunc(a.handlePost))
}
