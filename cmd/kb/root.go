// Command kb is the CLI for the temporal knowledge base: asserting facts,
// logging decisions, ingesting extraction batches, and querying what is
// currently (or was ever) true.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kkaufmann/knowledge-base/pkg/kb"
)

// NewRootCmd creates the root kb command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kb",
		Short:         "kb is a temporal knowledge base",
		Long:          "kb stores versioned facts, relations, and decisions about entities,\nsuperseding old values instead of overwriting them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	root.PersistentFlags().String("db", "", "path to the SQLite database (default ~/.claude/knowledge/knowledge.db)")
	root.PersistentFlags().String("rules", "", "path to the domain rules YAML file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newQueryCmd(),
		newSearchCmd(),
		newEntitiesCmd(),
		newDecisionsCmd(),
		newAssertCmd(),
		newDecideCmd(),
		newIngestCmd(),
		newReconcileCmd(),
		newDomainsCmd(),
	)

	return root
}

// initViper binds flags and KB_* environment variables so that flag > env >
// default precedence is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()
	v.SetEnvPrefix("KB")
	v.AutomaticEnv()

	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("db_path", flags.Lookup("db")); err != nil {
		return err
	}
	if err := v.BindPFlag("rules_path", flags.Lookup("rules")); err != nil {
		return err
	}
	if err := v.BindPFlag("verbose", flags.Lookup("verbose")); err != nil {
		return err
	}
	return nil
}

// openKB builds a KB handle from the resolved configuration.
func openKB() (*kb.KB, error) {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return kb.New(kb.Config{
		DBPath:    viper.GetString("db_path"),
		RulesPath: viper.GetString("rules_path"),
		Logger:    logger,
	})
}
