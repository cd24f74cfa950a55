package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kkaufmann/knowledge-base/pkg/ledger"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest an extraction batch (JSON) from a file or stdin",
		Long: "Reads a JSON batch with entities, facts, relations, and decisions and\n" +
			"integrates it in a single transaction. With no file argument the batch\n" +
			"is read from stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().String("source", "", "provenance label applied to every fact in the batch")
	cmd.Flags().String("date", "", "effective date (YYYY-MM-DD, default today)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	var reader io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var batch ledger.Batch
	if err := json.NewDecoder(reader).Decode(&batch); err != nil {
		return fmt.Errorf("failed to parse batch: %w", err)
	}

	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	source, _ := cmd.Flags().GetString("source")
	date, _ := cmd.Flags().GetString("date")

	stats, err := k.Ledger.IngestBatch(cmd.Context(), batch, source, date)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "entities:  %d created, %d resolved\n", stats.EntitiesCreated, stats.EntitiesResolved)
	fmt.Fprintf(out, "facts:     %d created, %d superseded, %d skipped\n",
		stats.FactsCreated, stats.FactsSuperseded, stats.FactsSkipped+stats.FactsSkippedLessDetail)
	fmt.Fprintf(out, "relations: %d created, %d ended, %d skipped, %d dropped\n",
		stats.RelationsCreated, stats.RelationsEnded, stats.RelationsSkipped, stats.RelationsDropped)
	fmt.Fprintf(out, "decisions: %d logged\n", stats.DecisionsLogged)
	if stats.Rejected > 0 {
		fmt.Fprintf(out, "rejected:  %d malformed records\n", stats.Rejected)
	}
	return nil
}
