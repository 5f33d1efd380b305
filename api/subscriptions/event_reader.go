// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"encoding/json"

	apievents "github.com/pozk/ledger/api/events"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/system"
)

// eventReader walks the event journal from a cursor, keeping the events
// that match its criteria.
type eventReader struct {
	sys      *system.System
	cursor   logdb.Sequence
	criteria []*logdb.EventCriteria
	limit    int
	cache    *messageCache
}

func newEventReader(sys *system.System, pos logdb.Sequence, criteria []*logdb.EventCriteria, limit int, cache *messageCache) *eventReader {
	return &eventReader{
		sys:      sys,
		cursor:   pos,
		criteria: criteria,
		limit:    limit,
		cache:    cache,
	}
}

// Read returns the encoded messages after the cursor. The boolean reports
// whether the journal had any new events, matching or not.
func (r *eventReader) Read() ([][]byte, bool, error) {
	list, err := r.sys.EventsAfter(r.cursor, r.limit)
	if err != nil {
		return nil, false, err
	}
	var msgs [][]byte
	for _, ev := range list {
		r.cursor = ev.Seq
		if !apievents.Match(r.criteria, ev) {
			continue
		}
		msg, _, err := r.cache.GetOrAdd(ev.Seq, func() ([]byte, error) {
			return json.Marshal(apievents.ConvertEvent(ev))
		})
		if err != nil {
			return nil, false, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, len(list) > 0, nil
}
