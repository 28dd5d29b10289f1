// Package commands wires the import pipeline into the vesta CLI.
package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vesta-fin/vesta/internal/buildinfo"
	"github.com/vesta-fin/vesta/internal/config"
	"github.com/vesta-fin/vesta/internal/dedup"
	"github.com/vesta-fin/vesta/internal/importer"
	"github.com/vesta-fin/vesta/internal/logger"
	"github.com/vesta-fin/vesta/internal/statement"
	"github.com/vesta-fin/vesta/internal/store"
	"github.com/vesta-fin/vesta/internal/transfer"
)

const configFile = "vesta.yaml"

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vesta",
		Short:   "Household bank statement import",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newBanksCommand())
	rootCmd.AddCommand(newLogCommand())
	rootCmd.AddCommand(newServeCommand())

	return rootCmd
}

// loadConfig reads <dataDir>/vesta.yaml, falling back to defaults when
// the file does not exist.
func loadConfig(dataDir string) (*config.Config, error) {
	cfg, err := config.Load(filepath.Join(dataDir, configFile))
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildService assembles the pipeline over an existing data directory.
func buildService(dataDir string) (*importer.Service, *store.Store, *statement.Registry, error) {
	cfg, err := loadConfig(dataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	dedupCfg := dedup.Config{
		WindowDays:          cfg.Thresholds.DedupWindowDays,
		SimilarityThreshold: cfg.Thresholds.SimilarityThreshold,
	}
	st.SetDedupConfig(dedupCfg)

	registry := statement.DefaultRegistry()
	svcCfg := importer.Config{
		Currency: cfg.Currency,
		Dedup:    dedupCfg,
		Transfer: transfer.Config{WindowMinutes: cfg.Thresholds.TransferWindowMinutes},
		DataDir:  dataDir,
		Git: importer.GitOptions{
			Enabled:     cfg.Git.AutoCommit,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
		},
	}

	svc := importer.NewService(st, st, st, registry, svcCfg, logger.New())
	return svc, st, registry, nil
}
