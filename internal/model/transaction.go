package model

import "time"

// Direction indicates which way money moved on the account.
type Direction string

const (
	DirectionDebit  Direction = "debit"  // money out
	DirectionCredit Direction = "credit" // money in
)

// RawStatementRecord is one row as extracted from a statement file.
// It only lives for the duration of a single import run.
type RawStatementRecord struct {
	Source string            // format tag, e.g. "alfabank"
	Row    int               // 1-based row index in the source file
	Fields map[string]string // source field name -> raw value
}

// CanonicalTransaction is the normalized, source-independent transaction.
// Amount is in signed minor currency units (kopeks, cents): negative for
// debits, positive for credits. Never floating point.
type CanonicalTransaction struct {
	ID          string // assigned by the store at commit time
	CandidateID string // pipeline-scoped id, valid within one batch
	AccountID   int
	Amount      int64
	Currency    string
	Timestamp   time.Time
	HasTime     bool // false when the source supplied a date only
	Direction   Direction
	Description string
	Reference   string // bank-supplied external reference, may be empty
	MCC         string // optional 4-digit merchant category code

	CategoryID   int    // 0 until classified
	ContactID    string // optional, set by the contact resolver
	TransferLink string // optional, set by the transfer linker
}

// SignConsistent reports whether the amount sign matches the direction.
func (t CanonicalTransaction) SignConsistent() bool {
	switch t.Direction {
	case DirectionDebit:
		return t.Amount < 0
	case DirectionCredit:
		return t.Amount > 0
	}
	return false
}

// Magnitude returns the absolute amount in minor units.
func (t CanonicalTransaction) Magnitude() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// Date returns the timestamp truncated to its calendar day.
func (t CanonicalTransaction) Date() time.Time {
	return time.Date(t.Timestamp.Year(), t.Timestamp.Month(), t.Timestamp.Day(), 0, 0, 0, 0, t.Timestamp.Location())
}
