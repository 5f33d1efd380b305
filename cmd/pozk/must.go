// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/pozk/ledger/co"
	"github.com/pozk/ledger/genesis"
	"github.com/pozk/ledger/log"
	"github.com/pozk/ledger/logdb"
	"github.com/pozk/ledger/lvldb"
	"github.com/pozk/ledger/metrics"
	"github.com/pozk/ledger/pozk"
	"github.com/pozk/ledger/state"
	"github.com/pozk/ledger/system"
)

const defaultTickInterval = 5 * time.Second

func fatal(args ...any) {
	var w io.Writer
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func initLogger(ctx *cli.Context) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(log.FromVerbosity(ctx.Int(verbosityFlag.Name)))
	if ctx.Bool(jsonLogsFlag.Name) {
		log.SetDefault(log.NewJSONHandler(os.Stderr, level))
		return level
	}
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewTerminalHandler(os.Stderr, level, useColor))
	return level
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".pozk")
	}
	return ""
}

func loadGenesis(ctx *cli.Context) (*genesis.Genesis, *genesis.Document) {
	var (
		doc *genesis.Document
		err error
	)
	if path := ctx.String(genesisFlag.Name); path != "" {
		doc, err = genesis.Load(path)
	} else {
		doc, err = genesis.Parse(genesis.DefaultYAML())
	}
	if err != nil {
		fatal("load genesis:", err)
	}
	gene, err := genesis.New(doc, uint64(time.Now().Unix()))
	if err != nil {
		fatal("build genesis:", err)
	}
	return gene, doc
}

// makeInstanceDir returns the directory of the ledger instance created from gene.
func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal(fmt.Sprintf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name))
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatal(fmt.Sprintf("create instance dir [%v]: %v", instanceDir, err))
	}
	return instanceDir
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		log.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			log.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func openMainDB(ctx *cli.Context, instanceDir string) (*lvldb.LevelDB, *state.Cache) {
	cacheMB := normalizeCacheSize(ctx.Int(cacheFlag.Name))
	log.Debug("cache size(MB)", "size", cacheMB)

	// Ensure Go's GC ignores the database cache for trigger percentage
	gogc := math.Max(20, math.Min(100, 100/(float64(cacheMB)/1024)))
	log.Debug("sanitize Go's GC trigger", "percent", int(gogc))
	debug.SetGCPercent(int(gogc))

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: 500,
	})
	if err != nil {
		fatal(fmt.Sprintf("open main database [%v]: %v", dir, err))
	}
	return db, state.NewCache(cacheMB / 2)
}

func openLogDB(instanceDir string) *logdb.LogDB {
	dir := filepath.Join(instanceDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		fatal(fmt.Sprintf("open log database [%v]: %v", dir, err))
	}
	return db
}

// initSystem opens the ledger and applies gene when the store is empty.
func initSystem(db *lvldb.LevelDB, logDB *logdb.LogDB, stateCache *state.Cache, gene *genesis.Genesis) *system.System {
	sys, err := system.New(db, logDB, stateCache, system.Options{})
	if err != nil {
		fatal("open ledger:", err)
	}
	ok, err := sys.Initialized()
	if err != nil {
		fatal("read ledger:", err)
	}
	if !ok {
		if err := sys.Genesis(gene.Build); err != nil {
			fatal("apply genesis:", err)
		}
		log.Info("genesis applied", "name", gene.Name(), "id", gene.ID())
	}
	if err := sys.SyncLogDB(); err != nil {
		fatal("sync log database:", err)
	}
	return sys
}

func parseCaller(ctx *cli.Context) (pozk.Address, error) {
	s := ctx.String(callerFlag.Name)
	if s == "" {
		return pozk.Address{}, fmt.Errorf("missing --%s", callerFlag.Name)
	}
	return pozk.ParseAddress(s)
}

// checkClockOffset warns when the local clock drifts from NTP by more than
// half an epoch, since epoch boundaries follow wall time.
func checkClockOffset(period uint64) {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > time.Duration(period)*time.Second/2 {
		log.Warn("clock offset detected", "offset", resp.ClockOffset)
	}
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// websocket connections live beyond the timeout
		if r.Header.Get("Upgrade") == "websocket" {
			h.ServeHTTP(w, r)
			return
		}
		http.TimeoutHandler(h, timeout, "request timed out").ServeHTTP(w, r)
	})
}

// serve runs handler on addr until the returned stop func is called.
func serve(name, addr string, handler http.Handler) (net.Addr, func()) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatal(fmt.Sprintf("listen %s addr [%v]: %v", name, addr, err))
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			log.Error("server stopped", "name", name, "err", err)
		}
	})
	return listener.Addr(), func() {
		srv.Close()
		goes.Wait()
	}
}

func startAPIServer(ctx *cli.Context, handler http.Handler) (string, func()) {
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}
	addr, stop := serve("API", ctx.String(apiAddrFlag.Name), handler)
	return "http://" + addr.String() + "/", stop
}

func startAdminServer(addr string, handler http.Handler) (string, func()) {
	listenAddr, stop := serve("admin", addr, handler)
	return "http://" + listenAddr.String() + "/admin", stop
}

func startMetricsServer(addr string) (string, func()) {
	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	listenAddr, stop := serve("metrics", addr, router)
	return "http://" + listenAddr.String() + "/metrics", stop
}
