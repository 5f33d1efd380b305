// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	assert.Nil(t, HTTPHandler())
	LazyLoadCounter("noop_count")().Add(1)
	LazyLoadGaugeVec("noop_gauge", []string{"a"})().SetWithLabel(1, map[string]string{"a": "b"})
}

func TestPrometheus(t *testing.T) {
	// defined before the service switches, bound on first use
	counter := LazyLoadCounterVec("test_collected_count", []string{"role"})
	InitializePrometheusMetrics()
	InitializePrometheusMetrics()

	counter().AddWithLabel(2, map[string]string{"role": "miner"})
	LazyLoadGauge("test_height")().Set(7)
	LazyLoadHistogramVec("test_duration_ms", []string{"path"}, BucketHTTPReqs)().
		ObserveWithLabels(12, map[string]string{"path": "/epoch"})
	// same name returns the registered meter
	current().Counter("test_plain").Add(1)
	current().Counter("test_plain").Add(1)

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()
	res, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `pozk_test_collected_count{role="miner"} 2`)
	assert.Contains(t, text, "pozk_test_height 7")
	assert.Contains(t, text, "pozk_test_plain 2")
	assert.Contains(t, text, `pozk_test_duration_ms_count{path="/epoch"} 1`)
}
