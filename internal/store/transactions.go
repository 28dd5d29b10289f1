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
	"time"

	"github.com/shopspring/decimal"

	"github.com/vesta-fin/vesta/internal/dedup"
	"github.com/vesta-fin/vesta/internal/id"
	"github.com/vesta-fin/vesta/internal/model"
)

// TransactionsHeader is the CSV header for transactions.csv.
const TransactionsHeader = "txn_id,batch_id,account_id,timestamp,amount,currency,direction,description,reference,mcc,category_id,contact_id,transfer_link"

const (
	txnNumFields    = 13
	txnDateFormat   = "2006-01-02"
	txnTimeFormat   = "2006-01-02 15:04"
	txnColID        = 0
	txnColBatchID   = 1
	txnColAccountID = 2
	txnColTimestamp = 3
	txnColAmount    = 4
	txnColCurrency  = 5
	txnColDirection = 6
	txnColDesc      = 7
	txnColRef       = 8
	txnColMCC       = 9
	txnColCategory  = 10
	txnColContact   = 11
	txnColTransfer  = 12
)

// StoredTransaction is one committed row of transactions.csv.
type StoredTransaction struct {
	ID      string
	BatchID string
	Txn     model.CanonicalTransaction
}

// MarshalTransaction converts a StoredTransaction to a CSV row. Amounts
// are written as signed decimals with two fraction digits.
func MarshalTransaction(st StoredTransaction) []string {
	row := make([]string, txnNumFields)
	row[txnColID] = st.ID
	row[txnColBatchID] = st.BatchID
	row[txnColAccountID] = strconv.Itoa(st.Txn.AccountID)
	if st.Txn.HasTime {
		row[txnColTimestamp] = st.Txn.Timestamp.Format(txnTimeFormat)
	} else {
		row[txnColTimestamp] = st.Txn.Timestamp.Format(txnDateFormat)
	}
	row[txnColAmount] = decimal.New(st.Txn.Amount, -2).StringFixed(2)
	row[txnColCurrency] = st.Txn.Currency
	row[txnColDirection] = string(st.Txn.Direction)
	row[txnColDesc] = st.Txn.Description
	row[txnColRef] = st.Txn.Reference
	row[txnColMCC] = st.Txn.MCC
	if st.Txn.CategoryID != 0 {
		row[txnColCategory] = strconv.Itoa(st.Txn.CategoryID)
	}
	row[txnColContact] = st.Txn.ContactID
	row[txnColTransfer] = st.Txn.TransferLink
	return row
}

// UnmarshalTransaction converts a CSV row to a StoredTransaction.
func UnmarshalTransaction(record []string) (StoredTransaction, error) {
	if len(record) != txnNumFields {
		return StoredTransaction{}, fmt.Errorf("expected %d fields, got %d", txnNumFields, len(record))
	}

	accountID, err := strconv.Atoi(record[txnColAccountID])
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("parsing account_id %q: %w", record[txnColAccountID], err)
	}

	hasTime := true
	ts, err := time.Parse(txnTimeFormat, record[txnColTimestamp])
	if err != nil {
		hasTime = false
		ts, err = time.Parse(txnDateFormat, record[txnColTimestamp])
		if err != nil {
			return StoredTransaction{}, fmt.Errorf("parsing timestamp %q: %w", record[txnColTimestamp], err)
		}
	}

	dec, err := decimal.NewFromString(record[txnColAmount])
	if err != nil {
		return StoredTransaction{}, fmt.Errorf("parsing amount %q: %w", record[txnColAmount], err)
	}
	minor := dec.Shift(2)
	if !minor.IsInteger() {
		return StoredTransaction{}, fmt.Errorf("amount %q has sub-minor precision", record[txnColAmount])
	}

	var categoryID int
	if record[txnColCategory] != "" {
		categoryID, err = strconv.Atoi(record[txnColCategory])
		if err != nil {
			return StoredTransaction{}, fmt.Errorf("parsing category_id %q: %w", record[txnColCategory], err)
		}
	}

	return StoredTransaction{
		ID:      record[txnColID],
		BatchID: record[txnColBatchID],
		Txn: model.CanonicalTransaction{
			ID:           record[txnColID],
			AccountID:    accountID,
			Amount:       minor.IntPart(),
			Currency:     record[txnColCurrency],
			Timestamp:    ts,
			HasTime:      hasTime,
			Direction:    model.Direction(record[txnColDirection]),
			Description:  record[txnColDesc],
			Reference:    record[txnColRef],
			MCC:          record[txnColMCC],
			CategoryID:   categoryID,
			ContactID:    record[txnColContact],
			TransferLink: record[txnColTransfer],
		},
	}, nil
}

func readTransactions(r io.Reader) ([]StoredTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = txnNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txns []StoredTransaction
	for i, rec := range records[1:] {
		st, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, st)
	}
	return txns, nil
}

// Transactions returns all committed transactions.
func (s *Store) Transactions(ctx context.Context) ([]StoredTransaction, error) {
	f, err := os.Open(s.path(transactionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	return readTransactions(f)
}

// LookupExisting returns the committed-transaction view of one account
// for duplicate checks.
func (s *Store) LookupExisting(ctx context.Context, accountID int) ([]dedup.ExistingTransaction, error) {
	txns, err := s.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	var existing []dedup.ExistingTransaction
	for _, st := range txns {
		if st.Txn.AccountID != accountID {
			continue
		}
		existing = append(existing, dedup.ExistingTransaction{
			Reference:   st.Txn.Reference,
			Amount:      st.Txn.Amount,
			Direction:   st.Txn.Direction,
			Timestamp:   st.Txn.Timestamp,
			Description: st.Txn.Description,
		})
	}
	return existing, nil
}

// CommitBatch appends the candidates as committed transactions under
// the account's commit lock and returns them with assigned ids. The
// duplicate checks re-run against the latest committed state first,
// both the external-reference check and the similarity heuristic, so a
// concurrent commit between preview and commit cannot slip a twin
// through. When any candidate conflicts, nothing commits and the
// conflicting candidate ids are returned for the caller to resolve.
func (s *Store) CommitBatch(ctx context.Context, accountID int, batchID string, candidates []model.CanonicalTransaction) ([]model.CanonicalTransaction, []string, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	txns, err := s.Transactions(ctx)
	if err != nil {
		return nil, nil, err
	}

	var existing []dedup.ExistingTransaction
	for _, st := range txns {
		if st.Txn.AccountID != accountID {
			continue
		}
		existing = append(existing, dedup.ExistingTransaction{
			Reference:   st.Txn.Reference,
			Amount:      st.Txn.Amount,
			Direction:   st.Txn.Direction,
			Timestamp:   st.Txn.Timestamp,
			Description: st.Txn.Description,
		})
	}
	detector := dedup.NewDetector(s.dedupCfg, existing)

	var conflicts []string
	for _, c := range candidates {
		if dup, _ := detector.IsDuplicate(c); dup {
			conflicts = append(conflicts, c.CandidateID)
		}
	}
	if len(conflicts) > 0 {
		return nil, conflicts, nil
	}

	nextSeq := s.nextSeqs(txns)

	s.mu.Lock()
	defer s.mu.Unlock()

	isNew := false
	if _, err := os.Stat(s.path(transactionsFile)); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(s.path(transactionsFile), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening transactions: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if isNew {
		if err := cw.Write(strings.Split(TransactionsHeader, ",")); err != nil {
			return nil, nil, fmt.Errorf("writing header: %w", err)
		}
	}

	committed := make([]model.CanonicalTransaction, 0, len(candidates))
	for i, c := range candidates {
		key := c.Timestamp.Year()*100 + int(c.Timestamp.Month())
		nextSeq[key]++
		c.ID = id.FormatTxnID(c.Timestamp.Year(), int(c.Timestamp.Month()), nextSeq[key])

		st := StoredTransaction{ID: c.ID, BatchID: batchID, Txn: c}
		if err := cw.Write(MarshalTransaction(st)); err != nil {
			return nil, nil, fmt.Errorf("writing row %d: %w", i, err)
		}
		committed = append(committed, c)
	}
	if err := cw.Error(); err != nil {
		return nil, nil, err
	}
	return committed, nil, nil
}

// nextSeqs returns the highest used sequence per year-month across the
// committed set.
func (s *Store) nextSeqs(txns []StoredTransaction) map[int]int {
	seqs := make(map[int]int)
	for _, st := range txns {
		year, month, seq, err := id.ParseTxnID(st.ID)
		if err != nil {
			continue
		}
		key := year*100 + month
		if seq > seqs[key] {
			seqs[key] = seq
		}
	}
	return seqs
}
