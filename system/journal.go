// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package system

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/logdb"
)

func seqKey(seq logdb.Sequence) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(seq))
	return k[:]
}

// encodeEvent renders ev as a snappy compressed RLP blob. Event data is
// JSON, which compresses well.
func encodeEvent(ev *events.Event) ([]byte, error) {
	data, err := rlp.EncodeToBytes(ev)
	if err != nil {
		return nil, errors.Wrapf(err, "encode event %s", ev.Name)
	}
	return snappy.Encode(nil, data), nil
}

func decodeEvent(blob []byte) (*events.Event, error) {
	data, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, errors.Wrap(err, "decompress journaled event")
	}
	var ev events.Event
	if err := rlp.DecodeBytes(data, &ev); err != nil {
		return nil, errors.Wrap(err, "decode journaled event")
	}
	return &ev, nil
}

// EventsAfter returns journaled events with a sequence greater than seq, in
// order. At most limit events are returned, or all when limit is 0.
func (s *System) EventsAfter(seq logdb.Sequence, limit int) ([]*logdb.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventsAfter(seq, limit)
}

func (s *System) eventsAfter(seq logdb.Sequence, limit int) ([]*logdb.Event, error) {
	r := journalBucket.Range()
	if seq >= 0 {
		r.Start = journalBucket.Key(seqKey(seq + 1))
	}
	it := s.db.Iterate(r)
	defer it.Release()

	var list []*logdb.Event
	for it.Next() {
		if limit > 0 && len(list) >= limit {
			break
		}
		key := it.Key()[len(journalBucket):]
		ev, err := decodeEvent(it.Value())
		if err != nil {
			return nil, err
		}
		list = append(list, &logdb.Event{
			Seq:   logdb.Sequence(binary.BigEndian.Uint64(key)),
			Event: ev,
		})
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate journal")
	}
	return list, nil
}
