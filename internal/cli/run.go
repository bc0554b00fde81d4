package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/daniacca/rxnsim/internal/kinetics"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation",
		Long:  "Compile a network, build the initial state from a condition file, run N steps, and print (or persist) the run record.",
		Run:   runRun,
	}

	cmd.Flags().StringP("network", "n", "", "Path to network JSON file (required)")
	cmd.Flags().StringP("condition", "c", "", "Path to initial condition JSON file (required)")
	cmd.Flags().IntP("steps", "s", 0, "Number of steps (required)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 picks one from the clock)")
	cmd.Flags().String("label", "", "Run label")
	cmd.Flags().Float64("max-time", 0, "Stop early once simulated time exceeds this bound (0 = no bound)")
	cmd.Flags().Bool("history", false, "Include the full event history in the output")

	cmd.MarkFlagRequired("network")
	cmd.MarkFlagRequired("condition")
	cmd.MarkFlagRequired("steps")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, _ []string) {
	networkFile, _ := cmd.Flags().GetString("network")
	conditionFile, _ := cmd.Flags().GetString("condition")
	steps, _ := cmd.Flags().GetInt("steps")
	seed, _ := cmd.Flags().GetInt64("seed")
	label, _ := cmd.Flags().GetString("label")
	maxTime, _ := cmd.Flags().GetFloat64("max-time")
	withHistory, _ := cmd.Flags().GetBool("history")

	cfg, net, err := loadNetwork(networkFile)
	if err != nil {
		exitErr("loading network", err)
	}
	ic, err := loadInitialCondition(conditionFile)
	if err != nil {
		exitErr("loading initial condition", err)
	}
	initial, err := net.InitialState(ic)
	if err != nil {
		exitErr("building initial state", err)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := newCLILogger(logLevel)
	opts := []kinetics.Option{
		kinetics.WithSeed(seed),
		kinetics.WithLogger(logger),
	}
	if maxTime > 0 {
		opts = append(opts, kinetics.WithMaxTime(maxTime))
	}

	sim, err := kinetics.NewSimulation(net, initial, opts...)
	if err != nil {
		exitErr("building simulation", err)
	}

	started := time.Now()
	history, runErr := sim.Run(steps)
	wall := time.Since(started).Seconds()

	rec := kinetics.RunRecord{
		Label:       label,
		NetworkName: cfg.Name,
		Seed:        seed,
		Steps:       steps,
		Volume:      ic.Volume,
		Initial:     ic,
		Status:      sim.Status().String(),
		History:     history,
		Stats:       kinetics.AnalyzeWaitingTimes(history),
		WallSeconds: wall,
	}

	st, err := openStore()
	if err != nil {
		exitErr("opening store", err)
	}
	if st != nil {
		defer st.Close()
		saved, err := st.SaveRun(context.Background(), rec)
		if err != nil {
			exitErr("persisting run", err)
		}
		rec = saved
	}

	if !withHistory {
		rec.History = nil
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		exitErr("encoding run record", err)
	}
	fmt.Println(string(out))

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "run aborted: %v\n", runErr)
		os.Exit(1)
	}
}

func loadInitialCondition(path string) (kinetics.InitialCondition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return kinetics.InitialCondition{}, fmt.Errorf("reading condition file: %w", err)
	}
	var ic kinetics.InitialCondition
	if err := json.Unmarshal(data, &ic); err != nil {
		return kinetics.InitialCondition{}, fmt.Errorf("parsing condition JSON: %w", err)
	}
	return ic, nil
}
