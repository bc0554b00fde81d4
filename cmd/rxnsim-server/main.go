package main

import (
	"context"
	"net/http"
	"os"

	"github.com/daniacca/rxnsim/internal/kinetics"
	"github.com/daniacca/rxnsim/internal/store"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	var st store.Store
	if cfg.DBPath != "" {
		sqlStore, err := store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			logger.Fatalf("opening store: %v", err)
		}
		st = sqlStore
		logger.Infof("persisting networks and runs to %s", cfg.DBPath)
	}

	srv := NewServer(logger, st)
	defer srv.Close()

	if cfg.NetworkFile != "" {
		data, err := os.ReadFile(cfg.NetworkFile)
		if err != nil {
			logger.Fatalf("reading network file: %v", err)
		}
		netCfg, err := kinetics.DecodeNetworkJSON(data)
		if err != nil {
			logger.Fatalf("decoding network file: %v", err)
		}
		if err := srv.LoadNetwork(context.Background(), netCfg); err != nil {
			logger.Fatalf("loading network: %v", err)
		}
	}

	logger.Infof("rxnsim-server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.routes()); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
