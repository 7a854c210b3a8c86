package cmd

import (
	"log/slog"

	"github.com/cottand/lemma/core/eval"
	"github.com/cottand/lemma/core/proof"
	"github.com/cottand/lemma/internal/log"
	"github.com/cottand/lemma/library/basics"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the lemma command with all of its subcommands
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "lemma [subcommand]",
		Short:        "lemma\n a small proof kernel over inductive types, with a bundled library of proofs",
		SilenceUsage: true,
	}
	logLevel := root.PersistentFlags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	sections := root.PersistentFlags().StringSlice("sections", nil, "sections to print debug and info logs for (registry, check, eval, prop, tactic, library)")
	noMemo := root.PersistentFlags().Bool("no-memo", false, "do not cache the results of function calls")
	manual := root.PersistentFlags().Bool("manual-instantiation", false, "make apply require explicit instantiations")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		log.SetLevel(slog.Level(*logLevel))
		if cmd.Flags().Changed("sections") {
			log.SetSections(*sections...)
		}
	}
	load := func() (*basics.Library, error) {
		lib, err := basics.Load(
			eval.Settings{Memoize: !*noMemo},
			proof.Settings{AutoInstantiate: !*manual},
		)
		if err != nil {
			return nil, errors.Wrap(err, "could not load the bundled library")
		}
		return lib, nil
	}

	root.AddCommand(newCheckCmd(load), newSearchCmd(load), newEvalCmd(load))
	return root
}

type loader func() (*basics.Library, error)
