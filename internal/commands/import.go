package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vesta-fin/vesta/internal/model"
	"github.com/vesta-fin/vesta/internal/money"
)

func newImportCommand() *cobra.Command {
	var dataDir string
	var accountID int
	var bank string
	var commit bool

	cmd := &cobra.Command{
		Use:   "import <statement-file>",
		Short: "Run a bank statement through the import pipeline",
		Long: `Parses a statement, shows the candidate transactions and rejections,
and with --commit persists the batch to the store. Without --commit the
batch is preview-only and nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, dataDir, accountID, bank, args[0], commit)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data", ".", "vesta data directory")
	cmd.Flags().IntVar(&accountID, "account", 0, "target account id (required)")
	_ = cmd.MarkFlagRequired("account")
	cmd.Flags().StringVar(&bank, "bank", "", "statement format, detected from content when omitted")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the batch instead of previewing")

	return cmd
}

func runImport(cmd *cobra.Command, dataDir string, accountID int, bank, file string, commit bool) error {
	svc, _, _, err := buildService(dataDir)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading statement: %w", err)
	}

	ctx := cmd.Context()
	batch, err := svc.RunImport(ctx, accountID, filepath.Base(file), raw, bank)
	if err != nil {
		return err
	}

	printBatch(cmd.OutOrStdout(), batch)

	if !commit {
		fmt.Fprintln(cmd.OutOrStdout(), "\nPreview only; re-run with --commit to persist.")
		return nil
	}

	committed, err := svc.Commit(ctx, batch.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nCommitted %d transactions (batch %s).\n", len(committed.Candidates), committed.ID)
	return nil
}

func printBatch(w io.Writer, batch *model.ImportBatch) {
	fmt.Fprintf(w, "Batch %s (%s, %s): %d candidates, %d rejected\n",
		batch.ID, batch.SourceFormat, batch.FileName, len(batch.Candidates), len(batch.Rejected))

	for _, c := range batch.Candidates {
		ts := c.Timestamp.Format("2006-01-02")
		if c.HasTime {
			ts = c.Timestamp.Format("2006-01-02 15:04")
		}
		marker := ""
		if c.TransferLink != "" {
			marker = " [transfer]"
		}
		fmt.Fprintf(w, "  %s  %12s %s  acct %d  %s%s\n",
			ts, money.FormatRU(c.Amount), c.Currency, c.AccountID, c.Description, marker)
	}
	for _, r := range batch.Rejected {
		fmt.Fprintf(w, "  rejected (%s): %s\n", r.Reason, r.Detail)
	}
	for _, n := range batch.Notes {
		fmt.Fprintf(w, "  note: %s\n", n.Note)
	}
}
