package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesta-fin/vesta/internal/model"
)

func TestSberbankHandler_ParseLines(t *testing.T) {
	lines := []string{
		"Сбербанк Выписка по счёту карты",
		"Период: 01.03.2025 - 31.03.2025",
		"15.03.2025 12:34 Перевод по СБП от +7 912 345 6789 +1 000,00",
		"16.03.2025 Покупка ПЯТЕРОЧКА 7642 Воронеж -543,21",
		"Остаток на конец периода 10 456,79",
	}

	h := &SberbankHandler{}
	res := h.parseLines(lines)
	require.Len(t, res.Records, 2)

	first := res.Records[0]
	assert.Equal(t, "sberbank", first.Source)
	assert.Equal(t, "15.03.2025", first.Fields[SberbankFieldDate])
	assert.Equal(t, "12:34", first.Fields[SberbankFieldTime])
	assert.Equal(t, "Перевод по СБП от +7 912 345 6789", first.Fields[SberbankFieldDescription])
	assert.Equal(t, "+1 000,00", first.Fields[SberbankFieldAmount])

	second := res.Records[1]
	assert.Equal(t, "16.03.2025", second.Fields[SberbankFieldDate])
	assert.Empty(t, second.Fields[SberbankFieldTime])
	assert.Equal(t, "Покупка ПЯТЕРОЧКА 7642 Воронеж", second.Fields[SberbankFieldDescription])
	assert.Equal(t, "-543,21", second.Fields[SberbankFieldAmount])
}

func TestSberbankHandler_LineWithoutAmountRejected(t *testing.T) {
	h := &SberbankHandler{}
	res := h.parseLines([]string{"15.03.2025 Перевод без суммы строка"})
	assert.Empty(t, res.Records)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, model.ReasonMalformedRow, res.Rejected[0].Reason)
}

func TestSberbankHandler_Sniff(t *testing.T) {
	h := &SberbankHandler{}
	assert.True(t, h.Sniff([]byte("%PDF-1.7 ...")))
	assert.False(t, h.Sniff([]byte("PK\x03\x04")))
}

func TestSberbankHandler_ParseBadBytes(t *testing.T) {
	h := &SberbankHandler{}
	_, err := h.Parse([]byte("%PDF-1.4 truncated garbage"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMalformedHeader, pe.Kind)
}
