// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/api/restutil"
	"github.com/pozk/ledger/log"
)

type LogLevelRequest struct {
	Level string `json:"level"`
}

type LogLevelResponse struct {
	CurrentLevel string `json:"currentLevel"`
}

var levels = map[string]slog.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
	"crit":  log.LevelCrit,
}

type logLevel struct {
	level *slog.LevelVar
}

func newLogLevel(level *slog.LevelVar) *logLevel {
	return &logLevel{level: level}
}

func (l *logLevel) handleGet(w http.ResponseWriter, _ *http.Request) error {
	return restutil.WriteJSON(w, LogLevelResponse{CurrentLevel: l.level.Level().String()})
}

func (l *logLevel) handlePost(w http.ResponseWriter, req *http.Request) error {
	var body LogLevelRequest
	if err := restutil.ParseJSON(req.Body, &body); err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "body"))
	}
	level, ok := levels[body.Level]
	if !ok {
		return restutil.BadRequest(errors.New("invalid verbosity level"))
	}
	l.level.Set(level)
	log.Info("log level changed", "pkg", "admin", "level", body.Level)

	return restutil.WriteJSON(w, LogLevelResponse{CurrentLevel: l.level.Level().String()})
}

func (l *logLevel) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /admin/loglevel").
		HandlerFunc(restutil.WrapHandlerFunc(l.handleGet))
	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /admin/loglevel").
		HandlerFunc(restutil.WrapHandlerFunc(l.handlePost))
}
