package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/simon/core"
	"github.com/lixenwraith/simon/score"
)

func newScoresCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scores",
		Short: "List the best score of each difficulty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Scores.Path == "" {
				return fmt.Errorf("no score database configured")
			}

			store, err := score.NewSQLiteStore(cfg.Scores.Path)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := store.Open(ctx); err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(ctx); err != nil {
				return err
			}

			return printScores(cmd, store)
		},
	}
}

func printScores(cmd *cobra.Command, store score.Store) error {
	best, err := store.ListBest(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DIFFICULTY\tBEST")
	for _, d := range core.Difficulties() {
		fmt.Fprintf(w, "%s\t%d\n", d.Config().Name, best[d])
	}
	return w.Flush()
}
