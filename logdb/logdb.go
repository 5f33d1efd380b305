// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes ledger events in sqlite for filtered queries.
package logdb

import (
	"context"
	"database/sql"
	"math/big"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/pozk/ledger/events"
	"github.com/pozk/ledger/pozk"
)

const (
	newestQuery = "SELECT seq FROM event ORDER BY seq DESC LIMIT 1"
	insertQuery = "INSERT OR REPLACE INTO event(seq, epoch, name, contract, prover, account, role, taskID, token, amount, data) VALUES(?,?,?,?,?,?,?,?,?,?,?)"
)

type LogDB struct {
	path          string
	db            *sql.DB
	newest        *sql.Stmt
	insert        *sql.Stmt
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if path == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "create schema")
	}

	newest, err := db.Prepare(newestQuery)
	if err != nil {
		return nil, errors.Wrap(err, "prepare newest")
	}
	insert, err := db.Prepare(insertQuery)
	if err != nil {
		newest.Close()
		return nil, errors.Wrap(err, "prepare insert")
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		newest:        newest,
		insert:        insert,
		driverVersion: driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.newest.Close()
	db.insert.Close()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the sqlite library version.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// NewestSequence returns the sequence of the last indexed event, -1 if none.
func (db *LogDB) NewestSequence() (Sequence, error) {
	var seq int64
	if err := db.newest.QueryRow().Scan(&seq); err != nil {
		if err == sql.ErrNoRows {
			return -1, nil
		}
		return 0, err
	}
	return Sequence(seq), nil
}

// FilterEvents returns events matching filter, or all events for a nil filter.
func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	if filter == nil {
		return db.queryEvents(ctx, "SELECT * FROM event ORDER BY seq ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := "SELECT * FROM event WHERE 1"
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND epoch >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND epoch <= ? "
		}
	}
	for i, c := range filter.CriteriaSet {
		if i == 0 {
			stmt += " AND (( 1"
		} else {
			stmt += " OR ( 1"
		}
		if c.Name != nil {
			args = append(args, *c.Name)
			stmt += " AND name = ? "
		}
		if c.Contract != nil {
			args = append(args, c.Contract.Bytes())
			stmt += " AND contract = ? "
		}
		if c.Prover != nil {
			args = append(args, c.Prover.Bytes())
			stmt += " AND prover = ? "
		}
		if c.Account != nil {
			args = append(args, c.Account.Bytes())
			stmt += " AND account = ? "
		}
		if c.Token != nil {
			args = append(args, c.Token.Bytes())
			stmt += " AND token = ? "
		}
		if c.Role != nil {
			args = append(args, uint8(*c.Role))
			stmt += " AND role = ? "
		}
		if c.TaskID != nil {
			args = append(args, *c.TaskID)
			stmt += " AND taskID = ? "
		}
		stmt += ")"
	}
	if len(filter.CriteriaSet) > 0 {
		stmt += ")"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq      int64
			epoch    uint64
			name     string
			contract []byte
			prover   []byte
			account  []byte
			role     uint8
			taskID   uint64
			token    []byte
			amount   sql.NullString
			data     []byte
		)
		if err := rows.Scan(&seq, &epoch, &name, &contract, &prover, &account, &role, &taskID, &token, &amount, &data); err != nil {
			return nil, err
		}
		ev := &events.Event{
			Name:     name,
			Epoch:    epoch,
			Contract: pozk.BytesToAddress(contract),
			Prover:   pozk.BytesToAddress(prover),
			Account:  pozk.BytesToAddress(account),
			Role:     pozk.Role(role),
			TaskID:   taskID,
			Token:    pozk.BytesToAddress(token),
			Data:     data,
		}
		if amount.Valid {
			v, ok := new(big.Int).SetString(amount.String, 10)
			if !ok {
				return nil, errors.Errorf("bad amount %q at seq %d", amount.String, seq)
			}
			ev.Amount = v
		}
		list = append(list, &Event{Seq: Sequence(seq), Event: ev})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

// Writer inserts events inside one sqlite transaction.
type Writer struct {
	db   *LogDB
	tx   *sql.Tx
	stmt *sql.Stmt
	n    int
}

// NewWriter begins a write transaction.
func (db *LogDB) NewWriter() (*Writer, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return nil, err
	}
	return &Writer{db: db, tx: tx, stmt: tx.Stmt(db.insert)}, nil
}

// Write adds one event under seq.
func (w *Writer) Write(seq Sequence, ev *events.Event) error {
	var amount any
	if ev.Amount != nil {
		amount = ev.Amount.String()
	}
	if _, err := w.stmt.Exec(
		int64(seq),
		ev.Epoch,
		ev.Name,
		ev.Contract.Bytes(),
		ev.Prover.Bytes(),
		ev.Account.Bytes(),
		uint8(ev.Role),
		ev.TaskID,
		ev.Token.Bytes(),
		amount,
		ev.Data,
	); err != nil {
		return errors.Wrapf(err, "insert event %d", seq)
	}
	w.n++
	return nil
}

// Commit commits the written events.
func (w *Writer) Commit() error {
	defer w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		return err
	}
	metricWritten().Add(int64(w.n))
	return nil
}

// Rollback discards the written events.
func (w *Writer) Rollback() error {
	defer w.stmt.Close()
	return w.tx.Rollback()
}
