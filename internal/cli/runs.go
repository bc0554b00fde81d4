package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daniacca/rxnsim/internal/store"
)

func init() {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Run:   runRunsList,
	}
	listCmd.Flags().IntP("limit", "l", 50, "Maximum number of runs to list")

	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show a stored run record, event history included",
		Args:  cobra.ExactArgs(1),
		Run:   runRunsShow,
	}

	rmCmd := &cobra.Command{
		Use:   "rm [run-id]",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		Run:   runRunsRm,
	}

	runsCmd.AddCommand(listCmd, showCmd, rmCmd)
	RootCmd.AddCommand(runsCmd)
}

func mustOpenStore() store.Store {
	st, err := openStore()
	if err != nil {
		exitErr("opening store", err)
	}
	if st == nil {
		exitErr("opening store", fmt.Errorf("no database configured (use --db or $RXNSIM_DB)"))
	}
	return st
}

func runRunsList(cmd *cobra.Command, _ []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	st := mustOpenStore()
	defer st.Close()

	recs, err := st.ListRuns(context.Background(), limit)
	if err != nil {
		exitErr("listing runs", err)
	}
	for _, rec := range recs {
		fmt.Printf("%s  %-24s network=%s status=%s steps=%d sim_time=%.6g\n",
			rec.RunID, rec.Label, rec.NetworkName, rec.Status, rec.Stats.Steps, rec.Stats.Total)
	}
}

func runRunsShow(_ *cobra.Command, args []string) {
	st := mustOpenStore()
	defer st.Close()

	rec, found, err := st.GetRun(context.Background(), args[0])
	if err != nil {
		exitErr("loading run", err)
	}
	if !found {
		exitErr("loading run", fmt.Errorf("run %s not found", args[0]))
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		exitErr("encoding run", err)
	}
	fmt.Println(string(out))
}

func runRunsRm(_ *cobra.Command, args []string) {
	st := mustOpenStore()
	defer st.Close()

	if err := st.DeleteRun(context.Background(), args[0]); err != nil {
		exitErr("deleting run", err)
	}
	fmt.Printf("deleted %s\n", args[0])
}
