// Package normalize maps raw statement records onto the canonical
// transaction shape. Each source format has its own field mapping;
// unresolvable rows become rejections with a precise reason, never
// guesses.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vesta-fin/vesta/internal/model"
	"github.com/vesta-fin/vesta/internal/money"
	"github.com/vesta-fin/vesta/internal/statement"
)

const (
	dateLayout = "02.01.2006"
	timeLayout = "02.01.2006 15:04"
)

var mccPattern = regexp.MustCompile(`(?i)mcc:\s*(\d{4})`)

// Normalizer converts RawStatementRecords into CanonicalTransaction
// candidates.
type Normalizer struct {
	defaultCurrency string
}

// New creates a Normalizer. defaultCurrency applies when the source
// does not state one (e.g. "RUB").
func New(defaultCurrency string) *Normalizer {
	return &Normalizer{defaultCurrency: defaultCurrency}
}

// Normalize maps one record. On success the returned transaction has a
// fresh candidate id and a sign-consistent amount; otherwise the
// rejection carries the reason.
func (n *Normalizer) Normalize(rec model.RawStatementRecord) (model.CanonicalTransaction, *model.RejectedRecord) {
	var (
		txn model.CanonicalTransaction
		rej *model.RejectedRecord
	)
	switch rec.Source {
	case "raiffeisen":
		txn, rej = n.normalizeRaiffeisen(rec)
	case "sberbank":
		txn, rej = n.normalizeSberbank(rec)
	case "alfabank":
		txn, rej = n.normalizeAlfa(rec)
	default:
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMalformedRow, fmt.Sprintf("unknown source %q", rec.Source))
	}
	if rej != nil {
		return model.CanonicalTransaction{}, rej
	}

	txn.CandidateID = uuid.NewString()
	if txn.Currency == "" {
		txn.Currency = n.defaultCurrency
	}
	if txn.MCC == "" {
		if m := mccPattern.FindStringSubmatch(txn.Description); m != nil {
			txn.MCC = m[1]
		}
	}
	return txn, nil
}

func (n *Normalizer) normalizeRaiffeisen(rec model.RawStatementRecord) (model.CanonicalTransaction, *model.RejectedRecord) {
	ts, err := parseDate(rec.Fields[statement.RaiffeisenFieldDate], "")
	if err != nil {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingTimestamp, err.Error())
	}

	income := strings.TrimSpace(rec.Fields[statement.RaiffeisenFieldIncome])
	expense := strings.TrimSpace(rec.Fields[statement.RaiffeisenFieldExpense])
	if income == "" && expense == "" {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, "income and expense columns both empty")
	}
	if income != "" && expense != "" {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonAmbiguousDirection, "income and expense columns both filled")
	}

	raw := income
	dir := model.DirectionCredit
	if expense != "" {
		raw = expense
		dir = model.DirectionDebit
	}
	amount, err := money.ParseMinor(raw)
	if err != nil {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, err.Error())
	}
	if amount == 0 {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, "zero amount")
	}
	if amount < 0 {
		amount = -amount // columns are unsigned; direction comes from the column
	}
	if dir == model.DirectionDebit {
		amount = -amount
	}

	return model.CanonicalTransaction{
		Amount:      amount,
		Currency:    strings.ToUpper(rec.Fields[statement.RaiffeisenFieldCurrency]),
		Timestamp:   ts,
		Direction:   dir,
		Description: rec.Fields[statement.RaiffeisenFieldDescription],
		Reference:   rec.Fields[statement.RaiffeisenFieldReference],
	}, nil
}

func (n *Normalizer) normalizeSberbank(rec model.RawStatementRecord) (model.CanonicalTransaction, *model.RejectedRecord) {
	ts, err := parseDate(rec.Fields[statement.SberbankFieldDate], rec.Fields[statement.SberbankFieldTime])
	if err != nil {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingTimestamp, err.Error())
	}

	raw := strings.TrimSpace(rec.Fields[statement.SberbankFieldAmount])
	if raw == "" {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, "no amount on line")
	}
	signed := strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-")
	if !signed {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonAmbiguousDirection, fmt.Sprintf("amount %q carries no sign", raw))
	}
	amount, err := money.ParseMinor(raw)
	if err != nil {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, err.Error())
	}
	if amount == 0 {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, "zero amount")
	}

	dir := model.DirectionCredit
	if amount < 0 {
		dir = model.DirectionDebit
	}
	return model.CanonicalTransaction{
		Amount:      amount,
		Timestamp:   ts,
		HasTime:     rec.Fields[statement.SberbankFieldTime] != "",
		Direction:   dir,
		Description: rec.Fields[statement.SberbankFieldDescription],
	}, nil
}

func (n *Normalizer) normalizeAlfa(rec model.RawStatementRecord) (model.CanonicalTransaction, *model.RejectedRecord) {
	ts, err := parseDate(rec.Fields[statement.AlfaFieldDate], "")
	if err != nil {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingTimestamp, err.Error())
	}

	raw := strings.TrimSpace(rec.Fields[statement.AlfaFieldAmount])
	if raw == "" {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, "no amount cell")
	}
	amount, err := money.ParseMinor(raw)
	if err != nil {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, err.Error())
	}
	if amount == 0 {
		return model.CanonicalTransaction{}, reject(rec, model.ReasonMissingAmount, "zero amount")
	}

	// Alfa exports sign debits explicitly; unsigned cells are credits.
	dir := model.DirectionCredit
	if amount < 0 {
		dir = model.DirectionDebit
	}

	desc := rec.Fields[statement.AlfaFieldDescription]
	if cat := rec.Fields[statement.AlfaFieldCategory]; cat != "" {
		if desc != "" {
			desc = cat + " - " + desc
		} else {
			desc = cat
		}
	}

	return model.CanonicalTransaction{
		Amount:      amount,
		Timestamp:   ts,
		Direction:   dir,
		Description: desc,
		Reference:   rec.Fields[statement.AlfaFieldCode],
	}, nil
}

// parseDate resolves dd.mm.yyyy plus an optional HH:MM clock to an
// absolute timestamp. Anything unresolvable is an error, not a guess.
func parseDate(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if clock != "" {
		ts, err := time.Parse(timeLayout, date+" "+clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("parsing timestamp %q %q: %w", date, clock, err)
		}
		return ts, nil
	}
	ts, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", date, err)
	}
	return ts, nil
}

func reject(rec model.RawStatementRecord, reason model.RejectReason, detail string) *model.RejectedRecord {
	return &model.RejectedRecord{
		Row:         rec.Row,
		Reference:   referenceOf(rec),
		Description: descriptionOf(rec),
		Reason:      reason,
		Detail:      detail,
	}
}

func referenceOf(rec model.RawStatementRecord) string {
	switch rec.Source {
	case "raiffeisen":
		return rec.Fields[statement.RaiffeisenFieldReference]
	case "alfabank":
		return rec.Fields[statement.AlfaFieldCode]
	}
	return ""
}

func descriptionOf(rec model.RawStatementRecord) string {
	switch rec.Source {
	case "raiffeisen":
		return rec.Fields[statement.RaiffeisenFieldDescription]
	case "sberbank":
		return rec.Fields[statement.SberbankFieldDescription]
	case "alfabank":
		return rec.Fields[statement.AlfaFieldDescription]
	}
	return ""
}
