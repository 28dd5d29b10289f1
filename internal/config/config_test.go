package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.BankAccounts = []BankAccount{
		{Name: "Альфа дебетовая", Bank: "alfabank", LastFour: "7733", AccountID: 1},
	}

	path := filepath.Join(t.TempDir(), "vesta.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Currency, got.Currency)
	assert.Equal(t, cfg.Thresholds.DedupWindowDays, got.Thresholds.DedupWindowDays)
	assert.InDelta(t, cfg.Thresholds.SimilarityThreshold, got.Thresholds.SimilarityThreshold, 0.001)
	assert.Equal(t, cfg.Thresholds.TransferWindowMinutes, got.Thresholds.TransferWindowMinutes)
	assert.Equal(t, cfg.Git.AutoCommit, got.Git.AutoCommit)
	require.Len(t, got.BankAccounts, 1)
	assert.Equal(t, "alfabank", got.BankAccounts[0].Bank)
	assert.Equal(t, 1, got.BankAccounts[0].AccountID)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "RUB", cfg.Currency)
	assert.Equal(t, 1, cfg.Thresholds.DedupWindowDays)
	assert.InDelta(t, 0.85, cfg.Thresholds.SimilarityThreshold, 0.001)
	assert.Equal(t, 120, cfg.Thresholds.TransferWindowMinutes)
	assert.False(t, cfg.Git.AutoCommit)
	assert.Empty(t, cfg.BankAccounts)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vesta.yaml")
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "currency: RUB")
	assert.Contains(t, contents, "dedup_window_days: 1")
	assert.Contains(t, contents, "auto_commit: false")
}
