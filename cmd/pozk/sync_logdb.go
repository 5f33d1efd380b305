// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/system"
)

const reindexStep = 2048

var verifyFlag = cli.BoolFlag{
	Name:  "verify",
	Usage: "compare the log index against the journal instead of rewriting it",
}

var reindexCommand = cli.Command{
	Name:   "reindex",
	Usage:  "rewrite the event log index from the journal",
	Flags:  []cli.Flag{dataDirFlag, genesisFlag, verbosityFlag, cacheFlag, verifyFlag},
	Action: reindexAction,
}

func reindexAction(ctx *cli.Context) error {
	initLogger(ctx)

	gene, _ := loadGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)
	mainDB, stateCache := openMainDB(ctx, instanceDir)
	defer mainDB.Close()
	logDB := openLogDB(instanceDir)
	defer logDB.Close()

	sys, err := system.New(mainDB, nil, stateCache, system.Options{})
	if err != nil {
		return err
	}

	exitCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if ctx.Bool(verifyFlag.Name) {
		fmt.Println(">> Verifying log db <<")
		if err := verifyLogDB(exitCtx, os.Stdout, sys, logDB); err != nil {
			return err
		}
		fmt.Println("log db is consistent with the journal")
		return nil
	}
	fmt.Println(">> Rebuilding log db <<")
	return rebuildLogDB(exitCtx, os.Stdout, sys, logDB)
}

func newProgressBar(out io.Writer, sys *system.System) *pb.ProgressBar {
	total := int64(0)
	if head := sys.Head(); head >= 0 {
		total = int64(head.Epoch()) + 1
	}
	bar := pb.New64(total).
		Set64(0).
		SetMaxWidth(90)
	bar.Output = out
	return bar.Start()
}

// rebuildLogDB writes every journaled event into logDB. Rows are keyed by
// sequence, so rerunning it over a partial index is safe.
func rebuildLogDB(ctx context.Context, out io.Writer, sys *system.System, logDB *logdb.LogDB) error {
	bar := newProgressBar(out, sys)
	defer func() { bar.NotPrint = true }()

	cursor := logdb.Sequence(-1)
	for {
		list, err := sys.EventsAfter(cursor, reindexStep)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			break
		}
		w, err := logDB.NewWriter()
		if err != nil {
			return err
		}
		for _, e := range list {
			if err := w.Write(e.Seq, e.Event); err != nil {
				w.Rollback()
				return err
			}
		}
		if err := w.Commit(); err != nil {
			return err
		}
		cursor = list[len(list)-1].Seq
		bar.Set64(int64(cursor.Epoch()) + 1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	bar.Finish()
	return nil
}

// verifyLogDB pages through the journal and the index side by side and
// prints a diff of the first page that differs.
func verifyLogDB(ctx context.Context, out io.Writer, sys *system.System, logDB *logdb.LogDB) error {
	bar := newProgressBar(out, sys)
	defer func() { bar.NotPrint = true }()

	var (
		cursor = logdb.Sequence(-1)
		offset uint64
	)
	for {
		expected, err := sys.EventsAfter(cursor, reindexStep)
		if err != nil {
			return err
		}
		actual, err := logDB.FilterEvents(ctx, &logdb.EventFilter{
			Options: &logdb.Options{Offset: offset, Limit: reindexStep},
		})
		if err != nil {
			return err
		}

		e, a := flattenEvents(expected), flattenEvents(actual)
		if !reflect.DeepEqual(e, a) {
			fmt.Fprintln(out, "\nDiff event logs")
			fmt.Fprintln(out, jsonDiff(e, a))
			return errors.New("incorrect logs")
		}
		if len(expected) == 0 {
			break
		}
		cursor = expected[len(expected)-1].Seq
		offset += uint64(len(expected))
		bar.Set64(int64(cursor.Epoch()) + 1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	bar.Finish()
	return nil
}

type flatEvent struct {
	Seq      int64  `json:"seq"`
	Name     string `json:"name"`
	Epoch    uint64 `json:"epoch"`
	Contract string `json:"contract"`
	Prover   string `json:"prover"`
	Account  string `json:"account"`
	Role     string `json:"role"`
	TaskID   uint64 `json:"taskID"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
	Data     string `json:"data"`
}

// flattenEvents renders events so that a nil and an empty payload compare
// equal.
func flattenEvents(list []*logdb.Event) []flatEvent {
	flat := make([]flatEvent, 0, len(list))
	for _, e := range list {
		f := flatEvent{
			Seq:      int64(e.Seq),
			Name:     e.Name,
			Epoch:    e.Epoch,
			Contract: e.Contract.String(),
			Prover:   e.Prover.String(),
			Account:  e.Account.String(),
			Role:     e.Role.String(),
			TaskID:   e.TaskID,
			Token:    e.Token.String(),
			Data:     hex.EncodeToString(e.Data),
		}
		if e.Amount != nil {
			f.Amount = e.Amount.String()
		}
		flat = append(flat, f)
	}
	return flat
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Expected",
		ToFile:   "Actual",
		Context:  1,
	})
	return diff
}
