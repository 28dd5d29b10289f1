package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vesta-fin/vesta/internal/model"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func candidate(ref string, amount int64, d int, desc string) model.CanonicalTransaction {
	dir := model.DirectionCredit
	if amount < 0 {
		dir = model.DirectionDebit
	}
	return model.CanonicalTransaction{
		Reference:   ref,
		Amount:      amount,
		Direction:   dir,
		Timestamp:   day(d),
		Description: desc,
	}
}

func TestDetector_ReferenceMatchIsAuthoritative(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Reference: "REF1", Amount: -500, Direction: model.DirectionDebit, Timestamp: day(1), Description: "old text"},
	})

	// Same reference: duplicate regardless of any field differences.
	dup, detail := d.IsDuplicate(candidate("REF1", -99999, 28, "совсем другое описание"))
	assert.True(t, dup)
	assert.Contains(t, detail, "REF1")

	// Different reference: never a duplicate, even with identical fields.
	dup, _ = d.IsDuplicate(candidate("REF2", -500, 1, "old text"))
	assert.False(t, dup)
}

func TestDetector_HeuristicSameDay(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Amount: -123456, Direction: model.DirectionDebit, Timestamp: day(15), Description: "Покупка ПЯТЕРОЧКА 7642 Воронеж"},
	})

	dup, _ := d.IsDuplicate(candidate("", -123456, 15, "Покупка ПЯТЕРОЧКА 7642, Воронеж"))
	assert.True(t, dup)
}

func TestDetector_HeuristicAdjacentDay(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Amount: -123456, Direction: model.DirectionDebit, Timestamp: day(15), Description: "Покупка ПЯТЕРОЧКА 7642 Воронеж"},
	})

	dup, _ := d.IsDuplicate(candidate("", -123456, 16, "Покупка ПЯТЕРОЧКА 7642 Воронеж"))
	assert.True(t, dup)
}

func TestDetector_RepeatedSubscriptionBeyondWindowKept(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Amount: -400, Direction: model.DirectionDebit, Timestamp: day(3), Description: "GITHUB PRO SUBSCRIPTION"},
	})

	// Identical charge three days later: a legitimate repeat, not a dup.
	dup, _ := d.IsDuplicate(candidate("", -400, 6, "GITHUB PRO SUBSCRIPTION"))
	assert.False(t, dup)
}

func TestDetector_HeuristicRequiresNoReferenceOnEitherSide(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Reference: "DOC9", Amount: -500, Direction: model.DirectionDebit, Timestamp: day(15), Description: "Оплата услуг"},
	})

	// The existing side has a reference, so the textual heuristic must
	// not fire against it.
	dup, _ := d.IsDuplicate(candidate("", -500, 15, "Оплата услуг"))
	assert.False(t, dup)
}

func TestDetector_DifferentAmountOrDirection(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Amount: -500, Direction: model.DirectionDebit, Timestamp: day(15), Description: "Оплата услуг"},
	})

	dup, _ := d.IsDuplicate(candidate("", -501, 15, "Оплата услуг"))
	assert.False(t, dup)

	dup, _ = d.IsDuplicate(candidate("", 500, 15, "Оплата услуг"))
	assert.False(t, dup)
}

func TestDetector_DissimilarDescriptions(t *testing.T) {
	d := NewDetector(DefaultConfig(), []ExistingTransaction{
		{Amount: -500, Direction: model.DirectionDebit, Timestamp: day(15), Description: "Покупка МАГНИТ Воронеж"},
	})

	dup, _ := d.IsDuplicate(candidate("", -500, 15, "Яндекс Такси поездка"))
	assert.False(t, dup)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("ABC Shop", "abc shop"))
	assert.Equal(t, 1.0, Similarity("ПЯТЕРОЧКА 7642, Воронеж", "пятерочка 7642 воронеж"))
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Less(t, Similarity("Яндекс Такси", "Покупка МАГНИТ"), 0.3)
	assert.Greater(t, Similarity("GITHUB PRO SUBSCRIPTION", "GITHUB *PRO SUBSCRIPTION"), 0.9)
}
