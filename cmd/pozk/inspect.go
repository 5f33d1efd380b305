// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pozk/ledger/builtin"
	"github.com/pozk/ledger/genesis"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func genesisAction(*cli.Context) error {
	_, err := os.Stdout.Write(genesis.DefaultYAML())
	return err
}

func inspectAction(ctx *cli.Context) error {
	initLogger(ctx)

	accounts := make([]pozk.Address, 0, len(ctx.Args()))
	for _, arg := range ctx.Args() {
		addr, err := pozk.ParseAddress(arg)
		if err != nil {
			return errors.WithMessagef(err, "account %q", arg)
		}
		accounts = append(accounts, addr)
	}

	gene, _ := loadGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)
	mainDB, stateCache := openMainDB(ctx, instanceDir)
	defer mainDB.Close()

	sys, err := system.New(mainDB, nil, stateCache, system.Options{})
	if err != nil {
		return err
	}
	if ok, err := sys.Initialized(); err != nil {
		return err
	} else if !ok {
		return errors.New("ledger not initialized, run the node once first")
	}
	return inspect(os.Stdout, sys, accounts)
}

func inspect(w io.Writer, sys *system.System, accounts []pozk.Address) error {
	info, err := sys.Epoch()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "# epoch")
	dumper.Fdump(w, info)

	return sys.View(func(c *builtin.Contracts) error {
		ids, err := c.Prover.Provers()
		if err != nil {
			return err
		}
		for _, id := range ids {
			rec, err := c.Prover.Get(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "# prover %v\n", id)
			dumper.Fdump(w, rec)
		}
		for _, account := range accounts {
			holdings, err := c.Stake.Holdings(account)
			if err != nil {
				return err
			}
			claimable, err := c.Stake.Claimable(account)
			if err != nil {
				return err
			}
			balance, err := c.Token.Balance(builtin.BaseToken, account)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "# account %v\n", account)
			dumper.Fdump(w, holdings)
			fmt.Fprintf(w, "claimable: %v\nbalance: %v\n", claimable, balance)
		}
		return nil
	})
}
