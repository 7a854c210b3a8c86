package cmd

import (
	"fmt"
	"slices"

	"github.com/cottand/lemma/core/lerr"
	"github.com/cottand/lemma/library/basics"
	"github.com/cottand/lemma/util"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newCheckCmd(load loader) *cobra.Command {
	var verbose *bool
	c := &cobra.Command{
		Use:   "check [theorem...]",
		Short: "Replay the proofs of the bundled library",
		Long: "Replay the proofs of the bundled library in order, and report on the given theorems, " +
			"or on all of them when none are given",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, load, args, *verbose)
		},
	}
	verbose = c.Flags().BoolP("verbose", "v", false, "print the statement of every reported theorem")
	return c
}

func runCheck(cmd *cobra.Command, load loader, names []string, verbose bool) error {
	lib, err := load()
	if err != nil {
		return err
	}
	theorems := basics.Theorems()
	known := util.SetFromSeq(slices.Values(lo.Map(theorems, func(th basics.Theorem, _ int) string { return th.Name })), len(theorems))
	for _, name := range names {
		if !known.Contains(name) {
			return lerr.New(lerr.UnknownHypothesisError{Name: name})
		}
	}
	reported := set.From(names)
	out := cmd.OutOrStdout()

	failed := 0
	for _, th := range theorems {
		s, err := lib.Prove(th)
		if len(names) > 0 && !reported.Contains(th.Name) {
			if err != nil {
				return errors.Wrapf(err, "%s is needed by later theorems", th.Name)
			}
			continue
		}
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(out, "FAIL %s: %v\n", th.Name, err)
			if s != nil {
				_, _ = fmt.Fprintf(out, "%s\n", s)
			}
			continue
		}
		_, _ = fmt.Fprintf(out, "ok   %s (%d steps)\n", th.Name, len(s.Steps))
		if verbose {
			_, _ = fmt.Fprintf(out, "     %s\n", th.Statement)
		}
	}
	if failed > 0 {
		return errors.Errorf("%d theorem(s) failed", failed)
	}
	return nil
}
