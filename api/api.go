// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package api serves the ledger over HTTP.
package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/pozk/ledger/api/epochs"
	"github.com/pozk/ledger/api/events"
	"github.com/pozk/ledger/api/provers"
	"github.com/pozk/ledger/api/rewards"
	"github.com/pozk/ledger/api/stakes"
	"github.com/pozk/ledger/api/subscriptions"
	"github.com/pozk/ledger/api/tasks"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/system"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	LogsLimit            uint64
}

// New return api router
func New(sys *system.System, logDB *logdb.LogDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	epochs.New(sys).
		Mount(router, "")
	provers.New(sys).
		Mount(router, "/provers")
	stakes.New(sys).
		Mount(router, "/stakes")
	tasks.New(sys).
		Mount(router, "/tasks")
	rewards.New(sys).
		Mount(router, "/rewards")
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}
	subs := subscriptions.New(sys, origins)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}
	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = new(atomic.Bool)
	}
	router.Use(RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
