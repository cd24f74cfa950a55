package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kkaufmann/knowledge-base/pkg/ledger"
)

func newDecisionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decisions",
		Short: "List logged decisions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runDecisions,
	}

	cmd.Flags().Bool("all", false, "include superseded decisions")

	return cmd
}

func runDecisions(cmd *cobra.Command, _ []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	all, _ := cmd.Flags().GetBool("all")
	decisions, err := k.Query.Decisions(cmd.Context(), all)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, d := range decisions {
		fmt.Fprintf(out, "[%s] %s", d.DecidedAt, d.Title)
		if d.Status != "active" {
			fmt.Fprintf(out, " (%s)", d.Status)
		}
		fmt.Fprintln(out)
		if d.Rationale != "" {
			fmt.Fprintf(out, "    %s\n", d.Rationale)
		}
	}
	return nil
}

func newDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide <title>",
		Short: "Log a decision",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecide,
	}

	cmd.Flags().String("rationale", "", "why the decision was made")
	cmd.Flags().String("context", "", "surrounding context for the decision")
	cmd.Flags().String("date", "", "decision date (YYYY-MM-DD, default today)")

	return cmd
}

func runDecide(cmd *cobra.Command, args []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	rationale, _ := cmd.Flags().GetString("rationale")
	context, _ := cmd.Flags().GetString("context")
	date, _ := cmd.Flags().GetString("date")

	err = k.Ledger.LogDecision(cmd.Context(), ledger.DecisionEntry{
		Title:         args[0],
		Rationale:     rationale,
		Context:       context,
		EffectiveDate: date,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "decision logged: %s\n", args[0])
	return nil
}
