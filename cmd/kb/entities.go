package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List all entities with their current fact counts",
		Args:  cobra.NoArgs,
		RunE:  runEntities,
	}
}

func runEntities(cmd *cobra.Command, _ []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	entities, err := k.Query.Entities(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range entities {
		fmt.Fprintf(out, "%-30s %-8s %d facts\n", e.Name, e.Type, e.FactCount)
	}
	fmt.Fprintf(out, "%d entities\n", len(entities))
	return nil
}
