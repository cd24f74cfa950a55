package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search current facts, decisions, and entity names",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	res, err := k.Query.Search(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(res.Facts) == 0 && len(res.Decisions) == 0 && len(res.Entities) == 0 {
		fmt.Fprintf(out, "no results for %q\n", args[0])
		return nil
	}

	for _, f := range res.Facts {
		fmt.Fprintf(out, "fact      %s %s: %s\n", f.EntityName, f.Attribute, f.Value)
	}
	for _, d := range res.Decisions {
		fmt.Fprintf(out, "decision  [%s] %s\n", d.DecidedAt, d.Title)
	}
	for _, e := range res.Entities {
		fmt.Fprintf(out, "entity    %s (%s)\n", e.Name, e.Type)
	}
	return nil
}
