// Copyright (c) 2026 The StakeVault developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/stakevault/stakevault/eventdb"
	"github.com/stakevault/stakevault/log"
	"github.com/stakevault/stakevault/lvldb"
)

func initLogger(ctx *cli.Context) {
	verbosity := ctx.Int(verbosityFlag.Name)
	var lvl slog.Level
	switch {
	case verbosity >= 5:
		lvl = slog.LevelDebug
	case verbosity >= 3:
		lvl = slog.LevelInfo
	case verbosity == 2:
		lvl = slog.LevelWarn
	default:
		lvl = slog.LevelError
	}
	log.SetRootHandler(log.NewTerminalHandler(lvl))
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".stakevault")
	}
	return ""
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

func makeDataDir(ctx *cli.Context) (string, error) {
	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create data dir %q: %w", dir, err)
	}
	return dir, nil
}

func openMainDB(dataDir string) (*lvldb.LevelDB, error) {
	db, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{})
	if err != nil {
		return nil, fmt.Errorf("open main database: %w", err)
	}
	return db, nil
}

func openEventDB(dataDir string) (*eventdb.EventDB, error) {
	db, err := eventdb.New(filepath.Join(dataDir, "events.db"))
	if err != nil {
		return nil, fmt.Errorf("open event database: %w", err)
	}
	return db, nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
