package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/vesta-fin/vesta/internal/model"
)

const raiffeisenSample = "Дата операции;Детали операции (назначение платежа);Сумма в валюте операции (поступления);Сумма в валюте операции (расходы);Номер документа;Валюта\n" +
	"15.03.2025;Оплата в магазине Пятерочка;;1 234,56;DOC001;RUB\n" +
	"16.03.2025;Зачисление заработной платы;50 000,00;;DOC002;RUB\n"

func TestRaiffeisenHandler_Parse(t *testing.T) {
	h := &RaiffeisenHandler{}
	res, err := h.Parse([]byte(raiffeisenSample))
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Rejected)

	rec := res.Records[0]
	assert.Equal(t, "raiffeisen", rec.Source)
	assert.Equal(t, 2, rec.Row)
	assert.Equal(t, "15.03.2025", rec.Fields[RaiffeisenFieldDate])
	assert.Equal(t, "Оплата в магазине Пятерочка", rec.Fields[RaiffeisenFieldDescription])
	assert.Equal(t, "1 234,56", rec.Fields[RaiffeisenFieldExpense])
	assert.Equal(t, "DOC001", rec.Fields[RaiffeisenFieldReference])
	assert.Equal(t, "RUB", rec.Fields[RaiffeisenFieldCurrency])

	assert.Equal(t, "50 000,00", res.Records[1].Fields[RaiffeisenFieldIncome])
}

func TestRaiffeisenHandler_Windows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().Bytes([]byte(raiffeisenSample))
	require.NoError(t, err)

	h := &RaiffeisenHandler{}
	assert.True(t, h.Sniff(encoded))

	res, err := h.Parse(encoded)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Оплата в магазине Пятерочка", res.Records[0].Fields[RaiffeisenFieldDescription])
}

func TestRaiffeisenHandler_ByteOrderMark(t *testing.T) {
	h := &RaiffeisenHandler{}
	withBOM := append([]byte("\xEF\xBB\xBF"), []byte(raiffeisenSample)...)
	assert.True(t, h.Sniff(withBOM))

	res, err := h.Parse(withBOM)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "15.03.2025", res.Records[0].Fields[RaiffeisenFieldDate])
}

func TestRaiffeisenHandler_MalformedRowRejected(t *testing.T) {
	sample := "Дата операции;Детали операции (назначение платежа);Сумма в валюте операции (поступления);Сумма в валюте операции (расходы);Номер документа;Валюта\n" +
		"15.03.2025;короткая строка\n" +
		"16.03.2025;Зачисление;100,00;;DOC002;RUB\n"

	h := &RaiffeisenHandler{}
	res, err := h.Parse([]byte(sample))
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, model.ReasonMalformedRow, res.Rejected[0].Reason)
	assert.Equal(t, 2, res.Rejected[0].Row)
}

func TestRaiffeisenHandler_MissingHeader(t *testing.T) {
	h := &RaiffeisenHandler{}
	_, err := h.Parse([]byte("a;b;c\n1;2;3\n"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMalformedHeader, pe.Kind)
}

func TestRaiffeisenHandler_Sniff(t *testing.T) {
	h := &RaiffeisenHandler{}
	assert.True(t, h.Sniff([]byte(raiffeisenSample)))
	assert.False(t, h.Sniff([]byte("Date,Description,Amount\n")))
}
