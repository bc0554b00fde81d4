package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daniacca/rxnsim/internal/sweep"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sweep [config.yaml]",
		Short: "Run a parameter sweep",
		Long:  "Run every (volume, steps) combination in a YAML sweep config, repeated per iteration, as parallel independent runs over one compiled network.",
		Args:  cobra.ExactArgs(1),
		Run:   runSweep,
	}
	RootCmd.AddCommand(cmd)
}

func runSweep(_ *cobra.Command, args []string) {
	cfg, err := sweep.LoadConfig(args[0])
	if err != nil {
		exitErr("loading sweep config", err)
	}

	_, net, err := loadNetwork(cfg.NetworkFile)
	if err != nil {
		exitErr("loading network", err)
	}

	st, err := openStore()
	if err != nil {
		exitErr("opening store", err)
	}
	if st != nil {
		defer st.Close()
	}

	runner := sweep.NewRunner(net, st, newCLILogger(logLevel))
	results, err := runner.Run(context.Background(), cfg)
	if err != nil {
		exitErr("running sweep", err)
	}

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "run %s failed: %v\n", res.Record.Label, res.Err)
			continue
		}
		fmt.Printf("%s  id=%s steps=%d sim_time=%.6g wall=%.3fs\n",
			res.Record.Label, res.Record.RunID, res.Record.Stats.Steps,
			res.Record.Stats.Total, res.Record.WallSeconds)
	}

	summary := sweep.Summarize(results)
	fmt.Printf("completed=%d failed=%d avg_wall=%.3fs std_wall=%.3fs avg_sim_time=%.6g std_sim_time=%.6g\n",
		summary.Completed, summary.Failed, summary.MeanWall, summary.StdWall,
		summary.MeanSimTime, summary.StdSimTime)
}
