// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakevault/stakevault/api"
	"github.com/stakevault/stakevault/bank"
	"github.com/stakevault/stakevault/eventdb"
	"github.com/stakevault/stakevault/genesis"
	"github.com/stakevault/stakevault/kv"
	"github.com/stakevault/stakevault/ledger"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/metrics"
	"github.com/stakevault/stakevault/vault"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")

	// treasury holds every asset the ledger takes custody of
	treasuryAddr = vault.BytesToAddress([]byte("stakevault-treasury"))
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "StakeVault",
		Usage:     "Multi-pool staking ledger node",
		Copyright: "2026 The StakeVault developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiEventsLimitFlag,
			verbosityFlag,
			pprofFlag,
			enableMetricsFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	genesisPath := ctx.String(genesisFlag.Name)
	if genesisPath == "" {
		return fmt.Errorf("-%s is required", genesisFlag.Name)
	}
	gene, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}
	rewardConfig, err := gene.RewardConfig()
	if err != nil {
		return err
	}

	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}

	mainDB, err := openMainDB(dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	eventDB, err := openEventDB(dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing event database..."); eventDB.Close() }()

	bk, err := bank.NewPersistent(kv.Bucket("b").ProxyGetPutter(mainDB), treasuryAddr)
	if err != nil {
		return err
	}
	store, err := ledger.NewPersistentStore(kv.Bucket("l").ProxyGetPutter(mainDB))
	if err != nil {
		return err
	}

	led := ledger.New(store, bk, rewardConfig)
	svc := ledger.NewService(led, bk, nil)

	if err := gene.Apply(led, bk, uint64(time.Now().Unix())); err != nil {
		return err
	}

	handler, closeAPI := api.New(svc, eventDB, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		EventsLimit:    ctx.Uint64(apiEventsLimitFlag.Name),
		PprofOn:        ctx.Bool(pprofFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
	})
	defer closeAPI()

	srv := &http.Server{Handler: handler}
	listener, err := net.Listen("tcp", ctx.String(apiAddrFlag.Name))
	if err != nil {
		return fmt.Errorf("listen API addr [%v]: %w", ctx.String(apiAddrFlag.Name), err)
	}

	exitCtx := handleExitSignal()
	group, groupCtx := errgroup.WithContext(exitCtx)

	group.Go(func() error {
		logger.Info("API server started", "addr", "http://"+listener.Addr().String())
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			return fmt.Errorf("API server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return pumpEvents(groupCtx, led, eventDB)
	})

	printStartupMessage(gene, dataDir, "http://"+listener.Addr().String())

	return group.Wait()
}

// pumpEvents drains live ledger notifications into the persisted log.
func pumpEvents(ctx context.Context, led *ledger.Ledger, eventDB *eventdb.EventDB) error {
	ch := make(chan *ledger.Event, 256)
	sub := led.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case ev := <-ch:
			if err := eventDB.Insert(ev); err != nil {
				logger.Error("failed to persist event", "kind", ev.Kind, "err", err)
			}
		}
	}
}

func printStartupMessage(gene *genesis.Genesis, dataDir string, apiURL string) {
	fmt.Printf(`Starting %v
    Version     [ %v ]
    Managers    [ %v ]
    Pools       [ %v ]
    Data dir    [ %v ]
    API portal  [ %v ]
`,
		"StakeVault",
		fullVersion(),
		len(gene.Managers),
		len(gene.Pools),
		dataDir,
		apiURL)
}
