package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/vesta-fin/vesta/internal/model"
)

// AccountsHeader is the CSV header for accounts.csv.
const AccountsHeader = "account_id,name,bank,last_four,owner_name,owner_phone"

const (
	acctNumFields     = 6
	acctColID         = 0
	acctColName       = 1
	acctColBank       = 2
	acctColLastFour   = 3
	acctColOwnerName  = 4
	acctColOwnerPhone = 5
)

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account) []string {
	row := make([]string, acctNumFields)
	row[acctColID] = strconv.Itoa(a.ID)
	row[acctColName] = a.Name
	row[acctColBank] = a.Bank
	row[acctColLastFour] = a.LastFour
	row[acctColOwnerName] = a.OwnerName
	row[acctColOwnerPhone] = a.OwnerPhone
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != acctNumFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", acctNumFields, len(record))
	}

	id, err := strconv.Atoi(record[acctColID])
	if err != nil {
		return model.Account{}, fmt.Errorf("parsing account_id %q: %w", record[acctColID], err)
	}

	return model.Account{
		ID:         id,
		Name:       record[acctColName],
		Bank:       record[acctColBank],
		LastFour:   record[acctColLastFour],
		OwnerName:  record[acctColOwnerName],
		OwnerPhone: record[acctColOwnerPhone],
	}, nil
}

// ReadAccounts reads accounts.csv.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = acctNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		a, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// WriteAccounts writes accounts.csv including the header.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(AccountsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, a := range accounts {
		if err := cw.Write(MarshalAccount(a)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// Accounts returns all configured accounts. A missing file is an empty
// account list, not an error.
func (s *Store) Accounts(ctx context.Context) ([]model.Account, error) {
	f, err := os.Open(s.path(accountsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	return ReadAccounts(f)
}

// AccountByID returns the account with the given id, or nil.
func (s *Store) AccountByID(ctx context.Context, id int) (*model.Account, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

// AccountByPhone returns the account whose owner carries the canonical
// phone, or nil.
func (s *Store) AccountByPhone(ctx context.Context, phone string) (*model.Account, error) {
	if phone == "" {
		return nil, nil
	}
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.OwnerPhone == phone {
			return &a, nil
		}
	}
	return nil, nil
}

// SaveAccounts replaces accounts.csv with the given list.
func (s *Store) SaveAccounts(ctx context.Context, accounts []model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path(accountsFile))
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, accounts); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
