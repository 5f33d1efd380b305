// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/health"
)

type healthAPI struct {
	health *health.Health
}

func newHealth(h *health.Health) *healthAPI {
	return &healthAPI{health: h}
}

func (h *healthAPI) handleGet(w http.ResponseWriter, req *http.Request) error {
	var maxSilence time.Duration
	if s := req.URL.Query().Get("maxSilence"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return restutil.BadRequest(errors.WithMessage(err, "maxSilence"))
		}
		maxSilence = d
	}

	status := h.health.Status(maxSilence)
	if !status.Healthy {
		w.Header().Set("Content-Type", restutil.JSONContentType)
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	return restutil.WriteJSON(w, status)
}

func (h *healthAPI) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /admin/health").
		HandlerFunc(restutil.WrapHandlerFunc(h.handleGet))
}
