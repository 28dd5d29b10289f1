package statement

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vesta-fin/vesta/internal/model"
)

// Alfa-Bank statement field names emitted per workbook row.
const (
	AlfaFieldDate        = "date"
	AlfaFieldCode        = "code"
	AlfaFieldCategory    = "category"
	AlfaFieldDescription = "description"
	AlfaFieldAmount      = "amount"
)

// Alfa-Bank XLSX column layout: a preamble block, then one transaction
// per row with the date in column A.
const (
	alfaColDate     = 0
	alfaColCode     = 3
	alfaColCategory = 4
	alfaColDesc     = 11
)

// Candidate amount columns, checked in order; the layout drifts between
// export versions.
var alfaAmountCols = []int{5, 12, 13, 14}

var alfaDatePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`)

// AlfaBankHandler parses Alfa-Bank XLSX statement exports.
type AlfaBankHandler struct{}

// Format returns the source tag.
func (h *AlfaBankHandler) Format() string { return "alfabank" }

// Sniff checks the ZIP magic that XLSX workbooks start with.
func (h *AlfaBankHandler) Sniff(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("PK\x03\x04"))
}

// Parse opens the workbook and walks the first sheet. Rows without a
// date in column A belong to the preamble and are skipped; a dated row
// yields a record even when other cells are empty, so that the
// normalizer can reject it with a precise reason.
func (h *AlfaBankHandler) Parse(raw []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: "opening workbook", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: "reading sheet", Err: err}
	}

	res := &Result{}
	for i, row := range rows {
		rowNum := i + 1
		date := cell(row, alfaColDate)
		if !alfaDatePattern.MatchString(date) {
			continue // preamble, totals, section headers
		}

		res.Records = append(res.Records, model.RawStatementRecord{
			Source: h.Format(),
			Row:    rowNum,
			Fields: map[string]string{
				AlfaFieldDate:        date,
				AlfaFieldCode:        cell(row, alfaColCode),
				AlfaFieldCategory:    cell(row, alfaColCategory),
				AlfaFieldDescription: cell(row, alfaColDesc),
				AlfaFieldAmount:      firstAmountCell(row),
			},
		})
	}
	return res, nil
}

// firstAmountCell returns the first non-empty candidate amount cell.
func firstAmountCell(row []string) string {
	for _, col := range alfaAmountCols {
		if v := strings.TrimSpace(cell(row, col)); v != "" {
			return v
		}
	}
	return ""
}

// cell returns a trimmed cell value, tolerating short rows: excelize
// drops trailing empty cells.
func cell(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
