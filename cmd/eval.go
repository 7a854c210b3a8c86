package cmd

import (
	"fmt"
	"strings"

	"github.com/cottand/lemma/core/check"
	"github.com/cottand/lemma/core/term"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newEvalCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <function> [value...]",
		Short: "Evaluate a bundled function",
		Long: "Evaluate a bundled function on values, such as 'eval is_a_member Friday work_week'. " +
			"Arguments may be constructors, numerals, constants, or parenthesised applications.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := load()
			if err != nil {
				return err
			}
			expr, err := parseTerm(strings.Join(args, " "), lib.Types)
			if err != nil {
				return err
			}
			if _, isCall := expr.(*term.App); !isCall {
				return errors.Errorf("'%s' is not a function application", expr)
			}
			if _, err := check.NewTyper(lib.Types, lib.Env).Infer(check.NewScope(), expr); err != nil {
				return errors.Wrapf(err, "evaluating %s", expr)
			}
			result, err := lib.Env.Normalize(expr)
			if err != nil {
				return errors.Wrapf(err, "evaluating %s", expr)
			}
			if !term.IsValue(result) {
				return errors.Errorf("%s did not evaluate to a value: %s", expr, result)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
