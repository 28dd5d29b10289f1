// Package dedup decides whether an incoming candidate already exists in
// the target account's imported history. An exact external-reference
// match is authoritative; the textual heuristic is deliberately narrow,
// preferring a missed duplicate over dropping a legitimate repeat.
package dedup

import (
	"fmt"
	"time"

	"github.com/vesta-fin/vesta/internal/model"
)

// Config holds the heuristic tolerances. Defaults are conservative and
// surfaced in configuration, pending calibration against real samples.
type Config struct {
	WindowDays          int     // calendar-day tolerance for the no-reference heuristic
	SimilarityThreshold float64 // minimum bigram similarity of normalized descriptions
}

// DefaultConfig returns the conservative defaults: adjacent-day window,
// high similarity bar.
func DefaultConfig() Config {
	return Config{WindowDays: 1, SimilarityThreshold: 0.85}
}

// ExistingTransaction is the lightweight view of an already-committed
// transaction, as supplied by the store.
type ExistingTransaction struct {
	Reference   string
	Amount      int64
	Direction   model.Direction
	Timestamp   time.Time
	Description string
}

// Detector indexes one account's committed transactions for duplicate
// checks. It reads a snapshot; it never mutates the store.
type Detector struct {
	cfg   Config
	byRef map[string]struct{}
	noRef []ExistingTransaction
}

// NewDetector builds a detector over the account's existing set.
func NewDetector(cfg Config, existing []ExistingTransaction) *Detector {
	d := &Detector{cfg: cfg, byRef: make(map[string]struct{})}
	for _, e := range existing {
		if e.Reference != "" {
			d.byRef[e.Reference] = struct{}{}
		} else {
			d.noRef = append(d.noRef, e)
		}
	}
	return d
}

// IsDuplicate reports whether the candidate duplicates a committed
// transaction, with a human-readable detail for the rejection record.
func (d *Detector) IsDuplicate(txn model.CanonicalTransaction) (bool, string) {
	if txn.Reference != "" {
		if _, ok := d.byRef[txn.Reference]; ok {
			return true, fmt.Sprintf("reference %s already imported", txn.Reference)
		}
		// A bank-supplied reference is authoritative both ways: a new
		// reference is a new transaction, whatever the other fields say.
		return false, ""
	}

	for _, e := range d.noRef {
		if e.Amount != txn.Amount || e.Direction != txn.Direction {
			continue
		}
		if dayDelta(e.Timestamp, txn.Timestamp) > d.cfg.WindowDays {
			continue
		}
		sim := Similarity(e.Description, txn.Description)
		if sim >= d.cfg.SimilarityThreshold {
			return true, fmt.Sprintf("matches existing transaction on %s (similarity %.2f)",
				e.Timestamp.Format("2006-01-02"), sim)
		}
	}
	return false, ""
}

// dayDelta returns the absolute difference in calendar days.
func dayDelta(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	delta := int(ad.Sub(bd).Hours() / 24)
	if delta < 0 {
		delta = -delta
	}
	return delta
}
