package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   `search "<signature>"`,
		Short: "Find the bundled functions whose signature has the given shape",
		Long: "Find the bundled functions whose signature has the given shape, such as 'list X -> nat'. " +
			"Capitalised names are type parameters, and may stand for any type.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parseType(strings.Join(args, " "))
			if err != nil {
				return err
			}
			lib, err := load()
			if err != nil {
				return err
			}
			found := lib.Env.FindByTypeShape(query)
			if len(found) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no function has shape %s\n", query)
				return nil
			}
			for _, fd := range found {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s : %s\n", fd.Name, fd.Signature())
			}
			return nil
		},
	}
}
