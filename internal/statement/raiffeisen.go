package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/vesta-fin/vesta/internal/model"
)

// Raiffeisen CSV header field names. Exports are semicolon-delimited and
// commonly Windows-1251 encoded.
const (
	RaiffeisenFieldDate        = "Дата операции"
	RaiffeisenFieldDescription = "Детали операции (назначение платежа)"
	RaiffeisenFieldIncome      = "Сумма в валюте операции (поступления)"
	RaiffeisenFieldExpense     = "Сумма в валюте операции (расходы)"
	RaiffeisenFieldReference   = "Номер документа"
	RaiffeisenFieldCurrency    = "Валюта"
)

// RaiffeisenHandler parses Raiffeisen bank CSV exports.
type RaiffeisenHandler struct{}

// Format returns the source tag.
func (h *RaiffeisenHandler) Format() string { return "raiffeisen" }

// Sniff checks for the Raiffeisen header signature in either UTF-8 or
// Windows-1251 encoding.
func (h *RaiffeisenHandler) Sniff(raw []byte) bool {
	text, err := decodeCyrillic(raw)
	if err != nil {
		return false
	}
	head := firstLine(text)
	return strings.Contains(head, ";") && strings.Contains(head, RaiffeisenFieldDate)
}

// Parse reads the CSV. Rows with the wrong field count are rejected
// individually; a missing or unreadable header fails the batch.
func (h *RaiffeisenHandler) Parse(raw []byte) (*Result, error) {
	text, err := decodeCyrillic(raw)
	if err != nil {
		return nil, &ParseError{Kind: ErrEncoding, Msg: "statement is neither UTF-8 nor Windows-1251", Err: err}
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = ';'
	cr.FieldsPerRecord = -1 // row lengths checked manually for per-row tolerance
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: "reading CSV", Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: "empty statement"}
	}

	header := rows[0]
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[RaiffeisenFieldDate]; !ok {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: fmt.Sprintf("header lacks %q", RaiffeisenFieldDate)}
	}

	res := &Result{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if len(row) != len(header) {
			res.Rejected = append(res.Rejected, model.RejectedRecord{
				Row:    rowNum,
				Reason: model.ReasonMalformedRow,
				Detail: fmt.Sprintf("expected %d fields, got %d", len(header), len(row)),
			})
			continue
		}

		fields := make(map[string]string, len(header))
		for name, idx := range cols {
			fields[name] = strings.TrimSpace(row[idx])
		}
		res.Records = append(res.Records, model.RawStatementRecord{
			Source: h.Format(),
			Row:    rowNum,
			Fields: fields,
		})
	}
	return res, nil
}

// decodeCyrillic returns raw as a UTF-8 string, transcoding from
// Windows-1251 when the bytes are not valid UTF-8.
func decodeCyrillic(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(bytes.TrimPrefix(raw, []byte("\uFEFF"))), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", fmt.Errorf("windows-1251 decode produced invalid UTF-8")
	}
	return string(decoded), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
