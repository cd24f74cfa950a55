package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newDomainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "Manage domain assignments",
	}

	cmd.AddCommand(newDomainsRecomputeCmd(), newDomainsShowCmd())

	return cmd
}

func newDomainsRecomputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute",
		Short: "Recompute every entity's domains from fact provenance",
		Args:  cobra.NoArgs,
		RunE:  runDomainsRecompute,
	}
}

func runDomainsRecompute(cmd *cobra.Command, _ []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	stats, err := k.Classifier.Recompute(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	domains := make([]string, 0, len(stats.DomainCounts))
	for d := range stats.DomainCounts {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	for _, d := range domains {
		fmt.Fprintf(out, "%-20s %d entities\n", d, stats.DomainCounts[d])
	}
	fmt.Fprintf(out, "%d assignments written\n", stats.AssignmentsWritten)
	if len(stats.Orphans) > 0 {
		fmt.Fprintf(out, "%d entities have no facts and were not classified\n", len(stats.Orphans))
	}
	return nil
}

func newDomainsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <domain>",
		Short: "List the entities assigned to a domain",
		Args:  cobra.ExactArgs(1),
		RunE:  runDomainsShow,
	}
}

func runDomainsShow(cmd *cobra.Command, args []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	entities, err := k.Query.ByDomain(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entities {
		fmt.Fprintf(out, "%-30s %3.0f%% %d facts\n", e.Name, e.Confidence*100, e.FactCount)
	}
	fmt.Fprintf(out, "%d entities in %s\n", len(entities), args[0])
	return nil
}
