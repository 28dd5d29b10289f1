package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesta-fin/vesta/internal/model"
	"github.com/vesta-fin/vesta/internal/statement"
)

func raiffeisenRecord(fields map[string]string) model.RawStatementRecord {
	return model.RawStatementRecord{Source: "raiffeisen", Row: 2, Fields: fields}
}

func TestNormalize_RaiffeisenExpense(t *testing.T) {
	n := New("RUB")
	txn, rej := n.Normalize(raiffeisenRecord(map[string]string{
		statement.RaiffeisenFieldDate:        "15.03.2025",
		statement.RaiffeisenFieldDescription: "Оплата в магазине",
		statement.RaiffeisenFieldExpense:     "1 234,56",
		statement.RaiffeisenFieldReference:   "DOC001",
	}))
	require.Nil(t, rej)
	assert.Equal(t, int64(-123456), txn.Amount)
	assert.Equal(t, model.DirectionDebit, txn.Direction)
	assert.True(t, txn.SignConsistent())
	assert.Equal(t, "RUB", txn.Currency)
	assert.Equal(t, "DOC001", txn.Reference)
	assert.NotEmpty(t, txn.CandidateID)
	assert.Equal(t, 2025, txn.Timestamp.Year())
	assert.False(t, txn.HasTime)
}

func TestNormalize_RaiffeisenIncome(t *testing.T) {
	n := New("RUB")
	txn, rej := n.Normalize(raiffeisenRecord(map[string]string{
		statement.RaiffeisenFieldDate:     "16.03.2025",
		statement.RaiffeisenFieldIncome:   "50 000,00",
		statement.RaiffeisenFieldCurrency: "rub",
	}))
	require.Nil(t, rej)
	assert.Equal(t, int64(5000000), txn.Amount)
	assert.Equal(t, model.DirectionCredit, txn.Direction)
	assert.Equal(t, "RUB", txn.Currency)
}

func TestNormalize_RaiffeisenAmbiguousDirection(t *testing.T) {
	n := New("RUB")
	_, rej := n.Normalize(raiffeisenRecord(map[string]string{
		statement.RaiffeisenFieldDate:    "16.03.2025",
		statement.RaiffeisenFieldIncome:  "100,00",
		statement.RaiffeisenFieldExpense: "100,00",
	}))
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonAmbiguousDirection, rej.Reason)
}

func TestNormalize_RaiffeisenMissingAmount(t *testing.T) {
	n := New("RUB")
	_, rej := n.Normalize(raiffeisenRecord(map[string]string{
		statement.RaiffeisenFieldDate: "16.03.2025",
	}))
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonMissingAmount, rej.Reason)
}

func TestNormalize_UnparseableDate(t *testing.T) {
	n := New("RUB")
	_, rej := n.Normalize(raiffeisenRecord(map[string]string{
		statement.RaiffeisenFieldDate:    "not-a-date",
		statement.RaiffeisenFieldExpense: "100,00",
	}))
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonMissingTimestamp, rej.Reason)
}

func TestNormalize_SberbankSignedAmounts(t *testing.T) {
	n := New("RUB")

	txn, rej := n.Normalize(model.RawStatementRecord{Source: "sberbank", Row: 3, Fields: map[string]string{
		statement.SberbankFieldDate:        "15.03.2025",
		statement.SberbankFieldTime:        "12:34",
		statement.SberbankFieldDescription: "Перевод по СБП от +7 912 345 6789",
		statement.SberbankFieldAmount:      "+1 000,00",
	}})
	require.Nil(t, rej)
	assert.Equal(t, int64(100000), txn.Amount)
	assert.Equal(t, model.DirectionCredit, txn.Direction)
	assert.True(t, txn.HasTime)
	assert.Equal(t, 12, txn.Timestamp.Hour())

	txn, rej = n.Normalize(model.RawStatementRecord{Source: "sberbank", Row: 4, Fields: map[string]string{
		statement.SberbankFieldDate:        "16.03.2025",
		statement.SberbankFieldDescription: "Покупка",
		statement.SberbankFieldAmount:      "-543,21",
	}})
	require.Nil(t, rej)
	assert.Equal(t, int64(-54321), txn.Amount)
	assert.Equal(t, model.DirectionDebit, txn.Direction)
}

func TestNormalize_SberbankUnsignedAmbiguous(t *testing.T) {
	n := New("RUB")
	_, rej := n.Normalize(model.RawStatementRecord{Source: "sberbank", Row: 4, Fields: map[string]string{
		statement.SberbankFieldDate:        "16.03.2025",
		statement.SberbankFieldDescription: "Покупка",
		statement.SberbankFieldAmount:      "543,21",
	}})
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonAmbiguousDirection, rej.Reason)
}

func TestNormalize_AlfaMCCAndDescription(t *testing.T) {
	n := New("RUB")
	txn, rej := n.Normalize(model.RawStatementRecord{Source: "alfabank", Row: 20, Fields: map[string]string{
		statement.AlfaFieldDate:        "15.03.2025",
		statement.AlfaFieldCode:        "CRD_7Y33",
		statement.AlfaFieldCategory:    "Продукты",
		statement.AlfaFieldDescription: "RU/Voronezh/PYATEROCHKA 7642, MCC: 5411",
		statement.AlfaFieldAmount:      "-1 234,56",
	}})
	require.Nil(t, rej)
	assert.Equal(t, int64(-123456), txn.Amount)
	assert.Equal(t, model.DirectionDebit, txn.Direction)
	assert.Equal(t, "5411", txn.MCC)
	assert.Equal(t, "Продукты - RU/Voronezh/PYATEROCHKA 7642, MCC: 5411", txn.Description)
	assert.Equal(t, "CRD_7Y33", txn.Reference)
}

func TestNormalize_AlfaUnsignedIsCredit(t *testing.T) {
	n := New("RUB")
	txn, rej := n.Normalize(model.RawStatementRecord{Source: "alfabank", Row: 21, Fields: map[string]string{
		statement.AlfaFieldDate:   "16.03.2025",
		statement.AlfaFieldAmount: "5 000,00",
	}})
	require.Nil(t, rej)
	assert.Equal(t, model.DirectionCredit, txn.Direction)
	assert.Equal(t, int64(500000), txn.Amount)
}

func TestNormalize_UnknownSource(t *testing.T) {
	n := New("RUB")
	_, rej := n.Normalize(model.RawStatementRecord{Source: "mystery", Row: 1})
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonMalformedRow, rej.Reason)
}

func TestNormalize_CandidateIDsUnique(t *testing.T) {
	n := New("RUB")
	rec := raiffeisenRecord(map[string]string{
		statement.RaiffeisenFieldDate:    "15.03.2025",
		statement.RaiffeisenFieldExpense: "100,00",
	})
	a, rej := n.Normalize(rec)
	require.Nil(t, rej)
	b, rej := n.Normalize(rec)
	require.Nil(t, rej)
	assert.NotEqual(t, a.CandidateID, b.CandidateID)
}
