package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vesta-fin/vesta/internal/statement"
)

func newBanksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "banks",
		Short: "List supported bank statement formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, format := range statement.DefaultRegistry().Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), format)
			}
			return nil
		},
	}
}
