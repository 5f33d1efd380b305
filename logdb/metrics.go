// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/pozk/ledger/metrics"
)

var (
	metricQueryParameters = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"parameters"})
	metricQueryOrder      = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricLimitBucket     = metrics.LazyLoadHistogramVec("logdb_query_limit_bucket", []string{"type"}, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
	metricWritten = metrics.LazyLoadCounter("logdb_events_written_count")
)

func metricsHandleEventsFilter(filter *EventFilter) {
	order := string(ASC)
	if filter.Order == DESC {
		order = string(DESC)
	}
	metricQueryOrder().AddWithLabel(1, map[string]string{"order": order})
	if filter.Options != nil {
		metricLimitBucket().ObserveWithLabels(int64(min(filter.Options.Limit, 1001)), map[string]string{"type": "event"})
	}

	for _, c := range filter.CriteriaSet {
		var used []string
		if c.Name != nil {
			used = append(used, "name")
		}
		if c.Contract != nil {
			used = append(used, "contract")
		}
		if c.Prover != nil {
			used = append(used, "prover")
		}
		if c.Account != nil {
			used = append(used, "account")
		}
		if c.Token != nil {
			used = append(used, "token")
		}
		if c.Role != nil {
			used = append(used, "role")
		}
		if c.TaskID != nil {
			used = append(used, "taskID")
		}
		metricQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(used, ",")})
	}
}
