// Package cli implements the rxnsim CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniacca/rxnsim/internal/kinetics"
	"github.com/daniacca/rxnsim/internal/store"
)

var (
	dbPath   string
	logLevel string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "rxnsim",
	Short: "Stochastic simulation of reaction networks",
	Long:  "Kinetic Monte Carlo simulation of reversible reaction networks: compile a network, run it, sweep conditions, replay trajectories.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite path for runs (default: $RXNSIM_DB; empty disables persistence)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return os.Getenv("RXNSIM_DB")
}

// openStore returns the configured store, or nil when persistence is off.
func openStore() (store.Store, error) {
	path := getDBPath()
	if path == "" {
		return nil, nil
	}
	return store.NewSQLiteStore(path)
}

func loadNetwork(path string) (kinetics.NetworkConfig, *kinetics.Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kinetics.NetworkConfig{}, nil, fmt.Errorf("reading network file: %w", err)
	}
	cfg, err := kinetics.DecodeNetworkJSON(data)
	if err != nil {
		return kinetics.NetworkConfig{}, nil, err
	}
	net, err := kinetics.CompileNetwork(cfg)
	if err != nil {
		return kinetics.NetworkConfig{}, nil, err
	}
	return cfg, net, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
