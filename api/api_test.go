// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozk/ledger/metrics"
	"github.com/pozk/ledger/test/testsys"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func newServer(t *testing.T) (*testsys.Sys, *httptest.Server) {
	sys := testsys.New(t)
	enabled := new(atomic.Bool)
	enabled.Store(true)
	handler, closeFn := New(sys.System, sys.LogDB, Options{
		AllowedOrigins:  "*",
		EnableReqLogger: enabled,
		EnableMetrics:   true,
		LogsLimit:       100,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeFn()
		ts.Close()
	})
	return sys, ts
}

func TestRoutes(t *testing.T) {
	sys, ts := newServer(t)
	sys.StakeAll()
	sys.Work(1)

	for _, tt := range []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/epoch", http.StatusOK},
		{http.MethodPost, "/epoch/advance", http.StatusOK},
		{http.MethodGet, "/epochs/0", http.StatusNotFound},
		{http.MethodGet, "/provers/" + testsys.Prover.String(), http.StatusOK},
		{http.MethodGet, "/provers/" + testsys.Prover.String() + "/miners/" + testsys.Miner.String(), http.StatusOK},
		{http.MethodGet, "/stakes/" + testsys.Miner.String(), http.StatusOK},
		{http.MethodGet, "/stakes/" + testsys.Miner.String() + "/claimable", http.StatusOK},
		{http.MethodGet, "/tasks/next", http.StatusOK},
		{http.MethodGet, "/tasks/1", http.StatusOK},
		{http.MethodGet, "/rewards/0/" + testsys.Prover.String() + "/" + testsys.Miner.String() + "?role=prover", http.StatusConflict},
		{http.MethodPost, "/logs/event", http.StatusOK},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	} {
		var body io.Reader
		if tt.method == http.MethodPost {
			body = strings.NewReader("{}")
		}
		req, err := http.NewRequest(tt.method, ts.URL+tt.path, body)
		require.NoError(t, err)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, tt.code, res.StatusCode, "%s %s", tt.method, tt.path)
		if tt.path != "/nowhere" {
			assert.NotEmpty(t, res.Header.Get(RequestIDHeader), tt.path)
		}
	}
}

func TestRequestID(t *testing.T) {
	_, ts := newServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/epoch", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "given")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "given", res.Header.Get(RequestIDHeader))

	res, err = http.Get(ts.URL + "/epoch")
	require.NoError(t, err)
	res.Body.Close()
	assert.Len(t, res.Header.Get(RequestIDHeader), 36)
}

func TestMetrics(t *testing.T) {
	_, ts := newServer(t)

	for range 3 {
		res, err := http.Get(ts.URL + "/epoch")
		require.NoError(t, err)
		res.Body.Close()
	}

	rec := httptest.NewRecorder()
	metrics.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rec.Body)
	require.NoError(t, err)

	family, ok := families["pozk_api_request_count"]
	require.True(t, ok, "api_request_count missing")
	found := false
	for _, m := range family.GetMetric() {
		labels := map[string]string{}
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		if labels["path"] == "GET /epoch" && labels["code"] == "200" {
			found = true
			assert.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(3))
		}
	}
	assert.True(t, found)
}
