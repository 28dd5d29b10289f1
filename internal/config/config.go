package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the top-level vesta.yaml configuration.
type Config struct {
	Currency     string           `yaml:"currency"`
	BankAccounts []BankAccount    `yaml:"bank_accounts,omitempty"`
	Thresholds   ThresholdsConfig `yaml:"thresholds"`
	Git          GitConfig        `yaml:"git"`
}

// BankAccount maps a bank statement feed to a store account.
type BankAccount struct {
	Name      string `yaml:"name"`
	Bank      string `yaml:"bank"` // statement format tag: alfabank, raiffeisen, sberbank
	LastFour  string `yaml:"last_four"`
	AccountID int    `yaml:"account_id"`
}

// ThresholdsConfig holds the heuristic tolerances of the import
// pipeline. These are conservative defaults, exposed here rather than
// hard-coded, pending calibration against real statement samples.
type ThresholdsConfig struct {
	DedupWindowDays       int     `yaml:"dedup_window_days"`
	SimilarityThreshold   float64 `yaml:"similarity_threshold"`
	TransferWindowMinutes int     `yaml:"transfer_window_minutes"`
}

// GitConfig controls auto-committing the data directory after a batch
// commits.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a vesta.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with conservative defaults for a new data
// directory.
func Default() *Config {
	return &Config{
		Currency: "RUB",
		Thresholds: ThresholdsConfig{
			DedupWindowDays:       1,
			SimilarityThreshold:   0.85,
			TransferWindowMinutes: 120,
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Vesta",
			AuthorEmail: "vesta@localhost",
		},
	}
}
