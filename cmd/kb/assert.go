package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kkaufmann/knowledge-base/pkg/ledger"
)

func newAssertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assert <entity> <attribute> <value>",
		Short: "Assert a fact, superseding any conflicting current value",
		Args:  cobra.ExactArgs(3),
		RunE:  runAssert,
	}

	cmd.Flags().String("type", "", "entity type hint (person, project, company, concept, feature, tool)")
	cmd.Flags().String("source", "", "provenance label for the fact")
	cmd.Flags().String("date", "", "effective date (YYYY-MM-DD, default today)")

	return cmd
}

func runAssert(cmd *cobra.Command, args []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	entityType, _ := cmd.Flags().GetString("type")
	source, _ := cmd.Flags().GetString("source")
	date, _ := cmd.Flags().GetString("date")

	outcome, err := k.Ledger.AssertFact(cmd.Context(), ledger.FactAssertion{
		Entity:        args[0],
		EntityType:    entityType,
		Attribute:     args[1],
		Value:         args[2],
		Source:        source,
		EffectiveDate: date,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s (%s)\n", args[0], args[1], args[2], outcome)
	return nil
}
