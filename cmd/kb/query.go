package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kkaufmann/knowledge-base/pkg/query"
	"github.com/kkaufmann/knowledge-base/pkg/store"
)

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Show everything known about an entity",
		Args:  cobra.ExactArgs(1),
		RunE:  runQuery,
	}

	cmd.Flags().Bool("history", false, "include superseded facts and ended relations")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	k, err := openKB()
	if err != nil {
		return err
	}
	defer k.Close()

	history, _ := cmd.Flags().GetBool("history")
	views, err := k.Query.Lookup(cmd.Context(), args[0], history)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintf(out, "no entity matching %q\n", args[0])
		return nil
	}
	for i, v := range views {
		if i > 0 {
			fmt.Fprintln(out)
		}
		printEntityView(out, v)
	}
	return nil
}

func printEntityView(out io.Writer, v *query.EntityView) {
	fmt.Fprintf(out, "%s (%s) [%s]\n", v.Entity.Name, v.Entity.Type, v.Entity.ID)

	if len(v.Domains) > 0 {
		labels := make([]string, 0, len(v.Domains))
		for _, d := range v.Domains {
			labels = append(labels, fmt.Sprintf("%s %.0f%%", d.Domain, d.Confidence*100))
		}
		fmt.Fprintf(out, "  domains: %s\n", strings.Join(labels, ", "))
	}

	for _, f := range v.Facts {
		fmt.Fprintf(out, "  %s: %s%s\n", f.Attribute, f.Value, factSuffix(f))
	}
	for _, r := range v.Relations {
		arrow := "->"
		if !r.Outgoing {
			arrow = "<-"
		}
		closed := ""
		if !r.Current() {
			closed = fmt.Sprintf(" (ended %s)", *r.ValidTo)
		}
		fmt.Fprintf(out, "  %s %s %s%s\n", arrow, r.RelationType, r.OtherName, closed)
	}
}

func factSuffix(f *store.Fact) string {
	var parts []string
	if f.Source != "" {
		parts = append(parts, f.Source)
	}
	parts = append(parts, "since "+f.ValidFrom)
	if !f.Current() {
		parts = append(parts, "until "+*f.ValidTo)
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
