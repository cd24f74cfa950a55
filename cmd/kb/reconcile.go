package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kkaufmann/knowledge-base/pkg/merge"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Merge duplicate entities",
		Args:  cobra.NoArgs,
		RunE:  runReconcile,
	}

	cmd.Flags().Bool("dry", false, "report what would be merged without writing")
	cmd.Flags().Bool("prune", false, "delete entities left with no facts and no relations")

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	dry, _ := cmd.Flags().GetBool("dry")
	prune, _ := cmd.Flags().GetBool("prune")

	stats, err := k.Merger.Run(cmd.Context(), merge.RunOptions{DryRun: dry, Prune: prune})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb := "merged"
	if dry {
		verb = "would merge"
	}
	for _, p := range stats.Merged {
		fmt.Fprintf(out, "%s %q -> %q\n", verb, p.DuplicateName, p.PrimaryName)
	}
	for _, p := range stats.Skipped {
		fmt.Fprintf(out, "skipped %q -> %q (entity already merged this run; re-run to pick it up)\n",
			p.DuplicateName, p.PrimaryName)
	}
	for _, e := range stats.Pruned {
		fmt.Fprintf(out, "pruned orphan %q\n", e.Name)
	}
	fmt.Fprintf(out, "%d facts moved, %d facts skipped, %d relations repointed\n",
		stats.Totals.FactsMoved, stats.Totals.FactsSkipped, stats.Totals.RelationsRepointed)
	return nil
}
