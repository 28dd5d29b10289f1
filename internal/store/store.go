// Package store is the file-backed reference store behind the import
// pipeline. Each table is a CSV file under the data directory, written
// whole on mutation and read whole on access. Commits are serialized
// per account and re-run the duplicate checks against the latest
// committed state before appending.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vesta-fin/vesta/internal/dedup"
)

const (
	accountsFile     = "accounts.csv"
	categoriesFile   = "categories.csv"
	rulesFile        = "rules.csv"
	contactsFile     = "contacts.csv"
	transactionsFile = "transactions.csv"
)

// Store provides CSV-table persistence for accounts, categories,
// rules, contacts and committed transactions.
type Store struct {
	dataDir  string
	dedupCfg dedup.Config

	mu        sync.Mutex // guards acctLocks and all table writes
	acctLocks map[int]*sync.Mutex
}

// Open returns a Store over an existing data directory.
func Open(dataDir string) (*Store, error) {
	info, err := os.Stat(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening data dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data dir %s is not a directory", dataDir)
	}
	return &Store{dataDir: dataDir, dedupCfg: dedup.DefaultConfig(), acctLocks: make(map[int]*sync.Mutex)}, nil
}

// Init creates the data directory and seeds the default category tree
// and rule table. Existing tables are left untouched.
func Init(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s := &Store{dataDir: dataDir, dedupCfg: dedup.DefaultConfig(), acctLocks: make(map[int]*sync.Mutex)}

	if _, err := os.Stat(s.path(categoriesFile)); os.IsNotExist(err) {
		if err := s.writeCategories(DefaultCategories()); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.path(rulesFile)); os.IsNotExist(err) {
		if err := s.writeRules(DefaultRules()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetDedupConfig overrides the tolerances used by the pre-commit
// duplicate re-check.
func (s *Store) SetDedupConfig(cfg dedup.Config) {
	s.dedupCfg = cfg
}

// DataDir returns the directory the store persists into.
func (s *Store) DataDir() string {
	return s.dataDir
}

func (s *Store) path(file string) string {
	return filepath.Join(s.dataDir, file)
}

// accountLock returns the commit mutex for one account.
func (s *Store) accountLock(accountID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.acctLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.acctLocks[accountID] = lock
	}
	return lock
}
