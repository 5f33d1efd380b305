// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/system"
)

var (
	removeFlag = cli.BoolFlag{
		Name:  "remove",
		Usage: "remove instead of add",
	}
	minableFlag = cli.BoolFlag{
		Name:  "minable",
		Usage: "let miners of the prover accept in permissioned mode",
	}
	rejectFlag = cli.BoolFlag{
		Name:  "reject",
		Usage: "revoke the approval",
	}
)

var adminFlags = []cli.Flag{dataDirFlag, genesisFlag, verbosityFlag, callerFlag}

var adminCommand = cli.Command{
	Name:  "admin",
	Usage: "run governance operations against a local data dir",
	Subcommands: []cli.Command{
		{
			Name:      "set-period",
			Usage:     "set the epoch length",
			ArgsUsage: "<seconds>",
			Flags:     adminFlags,
			Action: adminAction(func(ctx *cli.Context, sys *system.System, caller pozk.Address) error {
				seconds, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
				if err != nil {
					return errors.WithMessage(err, "seconds")
				}
				return sys.SetPeriod(caller, seconds)
			}),
		},
		{
			Name:      "set-mode",
			Usage:     "switch between permissioned and permissionless accept",
			ArgsUsage: "<permissioned|permissionless>",
			Flags:     adminFlags,
			Action: adminAction(func(ctx *cli.Context, sys *system.System, caller pozk.Address) error {
				mode, err := pozk.ParseMode(ctx.Args().First())
				if err != nil {
					return err
				}
				return sys.SetMode(caller, mode)
			}),
		},
		{
			Name:      "add-dao",
			Usage:     "add or remove a DAO member",
			ArgsUsage: "<account>",
			Flags:     append(adminFlags, removeFlag),
			Action: adminAction(func(ctx *cli.Context, sys *system.System, caller pozk.Address) error {
				account, err := pozk.ParseAddress(ctx.Args().First())
				if err != nil {
					return errors.WithMessage(err, "account")
				}
				return sys.AddDao(caller, account, !ctx.Bool(removeFlag.Name))
			}),
		},
		{
			Name:      "approve-prover",
			Usage:     "approve or reject a registered prover",
			ArgsUsage: "<prover>",
			Flags:     append(adminFlags, minableFlag, rejectFlag),
			Action: adminAction(func(ctx *cli.Context, sys *system.System, caller pozk.Address) error {
				id, err := pozk.ParseAddress(ctx.Args().First())
				if err != nil {
					return errors.WithMessage(err, "prover")
				}
				return sys.ApproveProver(caller, id, ctx.Bool(minableFlag.Name), !ctx.Bool(rejectFlag.Name))
			}),
		},
	},
}

type adminFunc func(ctx *cli.Context, sys *system.System, caller pozk.Address) error

// adminAction opens the local ledger and runs fn as the --caller account.
func adminAction(fn adminFunc) func(ctx *cli.Context) error {
	return func(ctx *cli.Context) error {
		initLogger(ctx)
		if ctx.NArg() != 1 {
			return fmt.Errorf("expected 1 argument, got %d", ctx.NArg())
		}
		caller, err := parseCaller(ctx)
		if err != nil {
			return err
		}

		gene, _ := loadGenesis(ctx)
		instanceDir := makeInstanceDir(ctx, gene)
		mainDB, stateCache := openMainDB(ctx, instanceDir)
		defer mainDB.Close()
		logDB := openLogDB(instanceDir)
		defer logDB.Close()

		sys := initSystem(mainDB, logDB, stateCache, gene)
		if err := fn(ctx, sys, caller); err != nil {
			return err
		}
		info, err := sys.Epoch()
		if err != nil {
			return err
		}
		fmt.Printf("ok (epoch %d, period %d, mode %v)\n", info.Height, info.Period, info.Mode)
		return nil
	}
}
