package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildAlfaWorkbook writes a minimal Alfa-Bank-shaped XLSX in memory:
// a preamble block followed by transaction rows with the date in
// column A.
func buildAlfaWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetCellValue(sheet, "A1", "Выписка по счёту"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "Период: март 2025"))

	// Transaction rows: A=date, D=code, E=bank category, L=description,
	// F or M=amount.
	require.NoError(t, f.SetSheetRow(sheet, "A20", &[]interface{}{
		"15.03.2025", "", "", "CRD_7Y33", "Продукты", "-1 234,56",
		"", "", "", "", "",
		"RU/Voronezh/PYATEROCHKA 7642, MCC: 5411",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A21", &[]interface{}{
		"16.03.2025", "", "", "SBP_AB12", "Финансовые операции", "",
		"", "", "", "", "",
		"Перевод по СБП от +7 912 345 6789",
	}))
	require.NoError(t, f.SetCellValue(sheet, "M21", "+5 000,00"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestAlfaBankHandler_Parse(t *testing.T) {
	raw := buildAlfaWorkbook(t)

	h := &AlfaBankHandler{}
	assert.True(t, h.Sniff(raw))

	res, err := h.Parse(raw)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	first := res.Records[0]
	assert.Equal(t, "alfabank", first.Source)
	assert.Equal(t, "15.03.2025", first.Fields[AlfaFieldDate])
	assert.Equal(t, "CRD_7Y33", first.Fields[AlfaFieldCode])
	assert.Equal(t, "Продукты", first.Fields[AlfaFieldCategory])
	assert.Equal(t, "RU/Voronezh/PYATEROCHKA 7642, MCC: 5411", first.Fields[AlfaFieldDescription])
	assert.Equal(t, "-1 234,56", first.Fields[AlfaFieldAmount])

	second := res.Records[1]
	assert.Equal(t, "+5 000,00", second.Fields[AlfaFieldAmount], "amount picked up from a drifted column")
}

func TestAlfaBankHandler_PreambleOnly(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Только преамбула"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	h := &AlfaBankHandler{}
	res, err := h.Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Rejected)
}

func TestAlfaBankHandler_NotAWorkbook(t *testing.T) {
	h := &AlfaBankHandler{}
	_, err := h.Parse([]byte("PK\x03\x04 but not really a zip"))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ErrMalformedHeader, pe.Kind)
}
