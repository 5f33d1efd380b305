// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package system serializes every ledger operation against one committed
// state, runs the epoch tick ahead of each of them and persists state changes
// together with the events they emitted.
package system

import (
	"encoding/binary"
	"math/big"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/builtin/reward"
	"github.com/pozk/ledger/builtin/task"
	"github.com/pozk/ledger/cache"
	"github.com/pozk/ledger/co"
	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/kv"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/metrics"
	"github.com/pozk/ledger/state"
)

var logger = log.WithContext("pkg", "system")

var (
	metricOps      = metrics.LazyLoadCounterVec("system_op_count", []string{"op", "status"})
	metricDuration = metrics.LazyLoadHistogramVec("system_op_duration_ms", []string{"op"}, metrics.BucketHTTPReqs)
	metricHeight   = metrics.LazyLoadGauge("system_epoch_height")
)

const (
	journalBucket = kv.Bucket("e")
	metaBucket    = kv.Bucket("m")
)

var (
	headKey    = []byte("head")
	genesisKey = []byte("genesis")
)

// Options configures a System.
type Options struct {
	// Now returns wall time in unix seconds. Defaults to time.Now.
	Now func() uint64
	// Verifier checks submitted proofs. Defaults to task.AcceptAll.
	Verifier task.Verifier
	// PoolCacheSize bounds the closed-epoch pool cache. Defaults to 4096.
	PoolCacheSize int
}

// System owns the committed ledger state.
type System struct {
	mu       sync.RWMutex
	db       kv.Store
	logDB    *logdb.LogDB
	cache    *state.Cache
	pools    *cache.LRU[poolKey, *big.Int]
	now      func() uint64
	verifier task.Verifier
	head     logdb.Sequence
	ticker   co.Signal
}

// New opens the system over db. logDB may be nil, in which case events are
// only journaled.
func New(db kv.Store, logDB *logdb.LogDB, stateCache *state.Cache, opts Options) (*System, error) {
	if opts.Now == nil {
		opts.Now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	if opts.Verifier == nil {
		opts.Verifier = task.AcceptAll
	}
	if opts.PoolCacheSize <= 0 {
		opts.PoolCacheSize = 4096
	}
	pools, err := cache.NewLRU[poolKey, *big.Int](opts.PoolCacheSize)
	if err != nil {
		return nil, err
	}
	s := &System{
		db:       db,
		logDB:    logDB,
		cache:    stateCache,
		pools:    pools,
		now:      opts.Now,
		verifier: opts.Verifier,
		head:     -1,
	}

	meta := metaBucket.NewGetter(db)
	data, err := meta.Get(headKey)
	switch {
	case err == nil:
		if len(data) != 8 {
			return nil, errors.New("corrupted journal head")
		}
		s.head = logdb.Sequence(binary.BigEndian.Uint64(data))
	case db.IsNotFound(err):
	default:
		return nil, errors.Wrap(err, "load journal head")
	}
	return s, nil
}

// Now returns the current wall time used by operations.
func (s *System) Now() uint64 {
	return s.now()
}

// Head returns the sequence of the newest journaled event, or -1.
func (s *System) Head() logdb.Sequence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head
}

// NewTicker returns a waiter woken after each commit that journaled events.
func (s *System) NewTicker() co.Waiter {
	return s.ticker.NewWaiter()
}

// Initialized reports whether genesis has been applied.
func (s *System) Initialized() (bool, error) {
	return metaBucket.NewGetter(s.db).Has(genesisKey)
}

// session is one in-memory binding of the contracts over committed state.
type session struct {
	st     *state.State
	buf    *events.Buffer
	c      *builtin.Contracts
	sizer  *cachedSizer
	closed *uint64

	// stampErr is the first failure reading the height for an event.
	stampErr error
}

func (s *System) newSession() *session {
	ss := &session{st: state.New(s.db, s.cache)}
	ss.buf = events.NewBuffer(func() uint64 {
		h, err := ss.c.Epoch.Height()
		if err != nil && ss.stampErr == nil {
			logger.Warn("failed to read epoch height for event", "err", err)
			ss.stampErr = err
		}
		return h
	})
	ss.c = builtin.Bind(ss.st, ss.buf, builtin.Options{
		Now:      s.now,
		Verifier: s.verifier,
		WrapSizer: func(inner reward.PoolSizer, clock reward.Clock) reward.PoolSizer {
			ss.sizer = newCachedSizer(inner, clock, s.pools)
			return ss.sizer
		},
	})
	return ss
}

// advance closes the current epoch when it is due and runs the boundary
// hooks: the closed epoch's issuance is reserved, then slashes scheduled for
// the new height are applied.
func (ss *session) advance(now uint64) error {
	closed, advanced, err := ss.c.Epoch.TryAdvance(now)
	if err != nil || !advanced {
		return err
	}
	if _, err := ss.c.Vesting.Reserve(closed); err != nil {
		return err
	}
	if err := ss.c.Reward.Freeze(closed); err != nil {
		return err
	}
	if err := ss.c.Stake.ApplySlashes(closed + 1); err != nil {
		return err
	}
	ss.closed = &closed
	return nil
}

// Genesis applies fn to an empty state and commits it. It fails when
// genesis was applied already.
func (s *System) Genesis(fn func(c *builtin.Contracts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.Initialized()
	if err != nil {
		return err
	}
	if ok {
		return errors.New("genesis already applied")
	}
	ss := s.newSession()
	if err := fn(ss.c); err != nil {
		return err
	}
	return s.commit(ss, func(bulk kv.Putter) error {
		return metaBucket.NewPutter(bulk).Put(genesisKey, []byte{1})
	})
}

// run executes one mutating operation. The epoch tick runs first in its own
// checkpoint and is kept even when the operation fails.
func (s *System) run(op string, fn func(c *builtin.Contracts) error) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	ss := s.newSession()
	tick := ss.st.NewCheckpoint()
	if err := ss.advance(s.now()); err != nil {
		ss.st.RevertTo(tick)
		metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "error"})
		return errors.WithMessage(err, "advance epoch")
	}

	n := ss.buf.Len()
	rev := ss.st.NewCheckpoint()
	opErr := fn(ss.c)
	if opErr != nil {
		ss.st.RevertTo(rev)
		ss.buf.Truncate(n)
		logger.Debug("operation reverted", "op", op, "err", opErr)
	}

	if err := s.commit(ss, nil); err != nil {
		metricOps().AddWithLabel(1, map[string]string{"op": op, "status": "error"})
		return err
	}

	status := "ok"
	if opErr != nil {
		status = "reverted"
	}
	metricOps().AddWithLabel(1, map[string]string{"op": op, "status": status})
	metricDuration().ObserveWithLabels(time.Since(start).Milliseconds(), map[string]string{"op": op})
	return opErr
}

// view runs fn against committed state as it would look after the next
// tick. Nothing is written.
func (s *System) view(fn func(c *builtin.Contracts) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss := s.newSession()
	if err := ss.advance(s.now()); err != nil {
		return errors.WithMessage(err, "advance epoch")
	}
	if err := fn(ss.c); err != nil {
		return err
	}
	ss.sizer.publish()
	return nil
}

// commit writes state changes and journaled events in one batch, then
// indexes the events and wakes subscribers.
func (s *System) commit(ss *session, extra func(bulk kv.Putter) error) error {
	if ss.stampErr != nil {
		return errors.WithMessage(ss.stampErr, "stamp event epoch")
	}
	list := ss.buf.Drain()
	stage := ss.st.Stage()
	if stage.Len() == 0 && len(list) == 0 && extra == nil {
		return nil
	}

	bulk := s.db.Bulk()
	if err := stage.Commit(bulk); err != nil {
		return err
	}
	head := s.head
	seqs := make([]logdb.Sequence, len(list))
	journal := journalBucket.NewPutter(bulk)
	for i, ev := range list {
		head = head.Next(ev.Epoch)
		seqs[i] = head
		data, err := encodeEvent(ev)
		if err != nil {
			return err
		}
		if err := journal.Put(seqKey(head), data); err != nil {
			return err
		}
	}
	if len(list) > 0 {
		if err := metaBucket.NewPutter(bulk).Put(headKey, seqKey(head)); err != nil {
			return err
		}
	}
	if extra != nil {
		if err := extra(bulk); err != nil {
			return err
		}
	}
	if err := bulk.Write(); err != nil {
		return errors.WithMessage(err, "commit")
	}

	stage.Publish()
	ss.sizer.publish()
	s.head = head
	if ss.closed != nil {
		metricHeight().Set(int64(*ss.closed + 1))
	}

	if len(list) > 0 {
		if err := s.index(seqs, list); err != nil {
			logger.Warn("failed to index events", "from", seqs[0], "to", head, "err", err)
		}
		s.ticker.Broadcast()
	}
	return nil
}

func (s *System) index(seqs []logdb.Sequence, list []*events.Event) error {
	if s.logDB == nil {
		return nil
	}
	w, err := s.logDB.NewWriter()
	if err != nil {
		return err
	}
	for i, ev := range list {
		if err := w.Write(seqs[i], ev); err != nil {
			w.Rollback()
			return err
		}
	}
	return w.Commit()
}

// SyncLogDB indexes journaled events the log index is missing, which happens
// when indexing failed after a commit.
func (s *System) SyncLogDB() error {
	if s.logDB == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	newest, err := s.logDB.NewestSequence()
	if err != nil {
		return err
	}
	if newest >= s.head {
		return nil
	}
	list, err := s.eventsAfter(newest, 0)
	if err != nil {
		return err
	}
	seqs := make([]logdb.Sequence, len(list))
	evs := make([]*events.Event, len(list))
	for i, e := range list {
		seqs[i], evs[i] = e.Seq, e.Event
	}
	if err := s.index(seqs, evs); err != nil {
		return err
	}
	logger.Info("log index synced", "from", newest, "to", s.head, "events", len(list))
	return nil
}
