package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/daniacca/rxnsim/internal/kinetics"
)

func init() {
	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Reconstruct the population trajectory of a stored run",
		Long:  "Replay the event history of a stored run against its network and initial condition, writing the per-species trajectory as CSV (time, species, count).",
		Args:  cobra.ExactArgs(1),
		Run:   runReplay,
	}
	cmd.Flags().StringP("network", "n", "", "Path to network JSON file (overrides the stored network)")
	cmd.Flags().StringP("out", "o", "", "Output CSV path (default stdout)")
	RootCmd.AddCommand(cmd)
}

func runReplay(cmd *cobra.Command, args []string) {
	networkFile, _ := cmd.Flags().GetString("network")
	outPath, _ := cmd.Flags().GetString("out")

	st := mustOpenStore()
	defer st.Close()

	ctx := context.Background()
	rec, found, err := st.GetRun(ctx, args[0])
	if err != nil {
		exitErr("loading run", err)
	}
	if !found {
		exitErr("loading run", fmt.Errorf("run %s not found", args[0]))
	}

	var net *kinetics.Network
	if networkFile != "" {
		_, net, err = loadNetwork(networkFile)
		if err != nil {
			exitErr("loading network", err)
		}
	} else {
		cfg, ok, err := st.GetNetwork(ctx, rec.NetworkName)
		if err != nil {
			exitErr("loading stored network", err)
		}
		if !ok {
			exitErr("loading stored network",
				fmt.Errorf("network %q not in store, pass --network", rec.NetworkName))
		}
		net, err = kinetics.CompileNetwork(cfg)
		if err != nil {
			exitErr("compiling network", err)
		}
	}

	if err := kinetics.ValidateRunRecord(rec, net); err != nil {
		exitErr("validating run record", err)
	}

	initial, err := net.InitialState(rec.Initial)
	if err != nil {
		exitErr("rebuilding initial state", err)
	}
	traj, err := kinetics.ReplayTrajectory(net, initial, rec.History)
	if err != nil {
		exitErr("replaying trajectory", err)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			exitErr("creating output file", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()
	_ = w.Write([]string{"time", "species", "count"})

	ids := make([]kinetics.SpeciesID, 0, len(traj.Series))
	for id := range traj.Series {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		for _, pt := range traj.Series[id] {
			_ = w.Write([]string{
				strconv.FormatFloat(pt.Time, 'g', -1, 64),
				strconv.Itoa(int(id)),
				strconv.FormatInt(pt.Count, 10),
			})
		}
	}
}
