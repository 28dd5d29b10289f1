package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vesta-fin/vesta/internal/auditlog"
)

func newLogCommand() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the import history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := auditlog.Read(dataDir)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No imports recorded.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-9s  batch %s  acct %s  %s  %d accepted, %d rejected  %s\n",
					e.Timestamp.Format("2006-01-02 15:04"), e.Event, e.BatchID, e.AccountID,
					e.Format, e.Accepted, e.Rejected, e.Details)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", ".", "vesta data directory")
	return cmd
}
