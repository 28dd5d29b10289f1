// Package transfer pairs the two legs of a fast-payment transfer that
// arrive in independent statements. Linking is advisory enrichment:
// an unpaired leg stays a standalone transaction, and an ambiguous
// pairing resolves to no link rather than a guess.
package transfer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vesta-fin/vesta/internal/contacts"
	"github.com/vesta-fin/vesta/internal/model"
)

// Config holds the pairing tolerances.
type Config struct {
	WindowMinutes int // max clock distance between two legs with times
}

// DefaultConfig returns the default pairing window.
func DefaultConfig() Config {
	return Config{WindowMinutes: 120}
}

// Linker pairs transfer legs among a batch's surviving candidates.
type Linker struct {
	cfg Config
}

// New creates a Linker.
func New(cfg Config) *Linker {
	return &Linker{cfg: cfg}
}

// Link scans candidates (possibly spanning several accounts) for leg
// pairs: opposite directions, equal magnitude, matching reference or
// phone, timestamps within tolerance. Matched pairs get a shared
// TransferLink id stamped on both legs. Candidates with more than one
// plausible counterpart are left unlinked with a note.
func (l *Linker) Link(cands []model.CanonicalTransaction) ([]model.TransferLink, []model.LinkNote) {
	type match struct{ debit, credit int }
	var plausible []match
	counts := make(map[int]int) // candidate index -> plausible pairings

	for i := range cands {
		if cands[i].Direction != model.DirectionDebit {
			continue
		}
		for j := range cands {
			if cands[j].Direction != model.DirectionCredit {
				continue
			}
			if l.plausiblePair(cands[i], cands[j]) {
				plausible = append(plausible, match{debit: i, credit: j})
				counts[i]++
				counts[j]++
			}
		}
	}

	var links []model.TransferLink
	var notes []model.LinkNote
	noted := make(map[int]bool)

	for _, m := range plausible {
		if counts[m.debit] > 1 || counts[m.credit] > 1 {
			for _, idx := range []int{m.debit, m.credit} {
				if counts[idx] > 1 && !noted[idx] {
					noted[idx] = true
					notes = append(notes, model.LinkNote{
						CandidateID: cands[idx].CandidateID,
						Note:        fmt.Sprintf("%d plausible transfer counterparts, link not applied", counts[idx]),
					})
				}
			}
			continue
		}

		id := uuid.NewString()
		cands[m.debit].TransferLink = id
		cands[m.credit].TransferLink = id
		links = append(links, model.TransferLink{
			ID:       id,
			DebitID:  cands[m.debit].CandidateID,
			CreditID: cands[m.credit].CandidateID,
		})
	}
	return links, notes
}

// plausiblePair applies the full matching predicate to one debit leg
// and one credit leg.
func (l *Linker) plausiblePair(debit, credit model.CanonicalTransaction) bool {
	if debit.Magnitude() != credit.Magnitude() {
		return false
	}
	if !l.closeInTime(debit, credit) {
		return false
	}
	return referencesMatch(debit, credit) || phonesMatch(debit, credit)
}

// closeInTime checks the tolerance window when both legs carry a
// clock; date-only legs must fall on the same calendar day.
func (l *Linker) closeInTime(a, b model.CanonicalTransaction) bool {
	if a.HasTime && b.HasTime {
		delta := a.Timestamp.Sub(b.Timestamp)
		if delta < 0 {
			delta = -delta
		}
		return delta <= time.Duration(l.cfg.WindowMinutes)*time.Minute
	}
	return a.Date().Equal(b.Date())
}

// referencesMatch accepts a shared reference id or the complementary
// "auto_" prefixed form a counterpart leg carries.
func referencesMatch(a, b model.CanonicalTransaction) bool {
	if a.Reference == "" || b.Reference == "" {
		return false
	}
	return a.Reference == b.Reference ||
		a.Reference == "auto_"+b.Reference ||
		b.Reference == "auto_"+a.Reference
}

// phonesMatch cross-matches the SBP phone mentioned on both legs.
func phonesMatch(a, b model.CanonicalTransaction) bool {
	if !mentionsSBP(a.Description) || !mentionsSBP(b.Description) {
		return false
	}
	pa, okA := contacts.ExtractPhone(a.Description)
	pb, okB := contacts.ExtractPhone(b.Description)
	return okA && okB && pa == pb
}

func mentionsSBP(desc string) bool {
	lower := strings.ToLower(desc)
	return strings.Contains(lower, "сбп") || strings.Contains(lower, "sbp") ||
		strings.Contains(lower, "быстрых платежей")
}
