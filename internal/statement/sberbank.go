package statement

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vesta-fin/vesta/internal/model"
)

// Sberbank statement field names emitted per parsed line.
const (
	SberbankFieldDate        = "date"
	SberbankFieldTime        = "time"
	SberbankFieldDescription = "description"
	SberbankFieldAmount      = "amount"
)

var (
	// Transaction lines start with dd.mm.yyyy, optionally followed by HH:MM.
	sberLinePattern = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})(?:\s+(\d{2}:\d{2}))?\s+(.*)$`)
	// The trailing amount, with optional sign and space-grouped thousands.
	sberAmountPattern = regexp.MustCompile(`([+-]?\d[\d\s\x{00a0}]*(?:[,.]\d{2})?)\s*$`)
)

// SberbankHandler parses Sberbank PDF statements by extracting each
// page's text rows and scanning for transaction lines.
type SberbankHandler struct{}

// Format returns the source tag.
func (h *SberbankHandler) Format() string { return "sberbank" }

// Sniff checks the PDF magic.
func (h *SberbankHandler) Sniff(raw []byte) bool {
	return bytes.HasPrefix(raw, []byte("%PDF"))
}

// Parse extracts text from the PDF and converts transaction lines to
// records. Non-matching lines are statement furniture and skipped;
// a line with a date but no parseable amount is rejected.
func (h *SberbankHandler) Parse(raw []byte) (*Result, error) {
	lines, err := extractPDFLines(raw)
	if err != nil {
		return nil, &ParseError{Kind: ErrMalformedHeader, Msg: "extracting PDF text", Err: err}
	}
	return h.parseLines(lines), nil
}

// parseLines scans extracted text rows for transaction lines.
func (h *SberbankHandler) parseLines(lines []string) *Result {
	res := &Result{}
	for i, line := range lines {
		rowNum := i + 1
		line = strings.TrimSpace(line)
		m := sberLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue // headers, balances, page footers
		}
		date, clock, rest := m[1], m[2], m[3]

		am := sberAmountPattern.FindStringSubmatch(rest)
		if am == nil {
			res.Rejected = append(res.Rejected, model.RejectedRecord{
				Row:         rowNum,
				Description: rest,
				Reason:      model.ReasonMalformedRow,
				Detail:      "transaction line without trailing amount",
			})
			continue
		}
		amount := strings.TrimSpace(am[1])
		desc := strings.TrimSpace(rest[:len(rest)-len(am[0])])
		if desc == "" {
			continue // amount-only summary line
		}

		res.Records = append(res.Records, model.RawStatementRecord{
			Source: h.Format(),
			Row:    rowNum,
			Fields: map[string]string{
				SberbankFieldDate:        date,
				SberbankFieldTime:        clock,
				SberbankFieldDescription: desc,
				SberbankFieldAmount:      amount,
			},
		})
	}
	return res
}

// extractPDFLines pulls row-ordered text out of every page. The pdf
// library panics on some malformed files, so the call is guarded.
func extractPDFLines(raw []byte) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader crashed: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}
	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("pdf has no pages")
	}

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			if line := strings.TrimSpace(strings.Join(parts, " ")); line != "" {
				lines = append(lines, line)
			}
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no text could be extracted")
	}
	return lines, nil
}
