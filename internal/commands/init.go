package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vesta-fin/vesta/internal/config"
	"github.com/vesta-fin/vesta/internal/gitops"
	"github.com/vesta-fin/vesta/internal/model"
	"github.com/vesta-fin/vesta/internal/statement"
	"github.com/vesta-fin/vesta/internal/store"
)

func newInitCommand() *cobra.Command {
	var accounts []string
	var currency string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new vesta data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd, absDir, currency, accounts)
		},
	}

	cmd.Flags().StringVar(&currency, "currency", "RUB", "default statement currency")
	cmd.Flags().StringArrayVar(&accounts, "account", nil,
		"account as name:bank:last4 (e.g. \"Alfa Main:alfabank:1234\"), repeatable")

	return cmd
}

func runInit(cmd *cobra.Command, dir, currency string, accountSpecs []string) error {
	st, err := store.Init(dir)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Currency = currency

	accounts, err := parseAccountSpecs(accountSpecs)
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		if err := st.SaveAccounts(cmd.Context(), accounts); err != nil {
			return err
		}
		for _, a := range accounts {
			cfg.BankAccounts = append(cfg.BankAccounts, config.BankAccount{
				Name: a.Name, Bank: a.Bank, LastFour: a.LastFour, AccountID: a.ID,
			})
		}
	}

	if err := config.Save(filepath.Join(dir, configFile), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	hash, err := gitops.CommitAll(dir, "init: new vesta data directory", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized vesta data directory at %s (%s)\n", dir, hash)
	return nil
}

// parseAccountSpecs expands repeated --account name:bank:last4 flags,
// assigning ids in flag order.
func parseAccountSpecs(specs []string) ([]model.Account, error) {
	registry := statement.DefaultRegistry()
	var accounts []model.Account
	for i, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("account %q: want name:bank:last4", spec)
		}
		bank := strings.ToLower(strings.TrimSpace(parts[1]))
		if registry.Get(bank) == nil {
			return nil, fmt.Errorf("account %q: unknown bank %q, supported: %s",
				spec, bank, strings.Join(registry.Formats(), ", "))
		}
		accounts = append(accounts, model.Account{
			ID:       i + 1,
			Name:     strings.TrimSpace(parts[0]),
			Bank:     bank,
			LastFour: strings.TrimSpace(parts[2]),
		})
	}
	return accounts, nil
}
