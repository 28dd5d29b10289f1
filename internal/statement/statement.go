// Package statement recognizes and parses bank statement files into raw
// records. Each bank format is a Handler registered in a Registry;
// detection inspects file content, never the filename.
package statement

import (
	"fmt"
	"strings"

	"github.com/vesta-fin/vesta/internal/model"
)

// ErrorKind tags a ParseError. These are fatal for the whole batch;
// row-level problems surface as rejected records instead.
type ErrorKind string

const (
	ErrUnsupportedFormat ErrorKind = "unsupported-format"
	ErrMalformedHeader   ErrorKind = "malformed-header"
	ErrEncoding          ErrorKind = "encoding-error"
)

// ParseError is a batch-fatal statement parsing failure.
type ParseError struct {
	Kind ErrorKind
	Row  int // offending row when known, 0 otherwise
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s (row %d): %s", e.Kind, e.Row, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is the outcome of parsing one statement file: the ordered
// records plus any rows skipped with a reason.
type Result struct {
	Records  []model.RawStatementRecord
	Rejected []model.RejectedRecord
}

// Handler parses one bank's statement format.
type Handler interface {
	// Format returns the source tag, e.g. "raiffeisen".
	Format() string
	// Sniff reports whether raw bytes carry this handler's structural
	// signature.
	Sniff(raw []byte) bool
	// Parse converts raw statement bytes into ordered records. Malformed
	// rows are recorded in Result.Rejected, not fatal; a *ParseError is
	// returned only when the file structure itself is broken.
	Parse(raw []byte) (*Result, error)
}

// Registry holds named handlers in registration order.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler. Panics on duplicate format.
func (r *Registry) Register(h Handler) {
	key := strings.ToLower(h.Format())
	if _, ok := r.handlers[key]; ok {
		panic("duplicate statement handler: " + key)
	}
	r.handlers[key] = h
	r.order = append(r.order, key)
}

// Get returns the handler for a format tag, or nil.
func (r *Registry) Get(format string) Handler {
	return r.handlers[strings.ToLower(format)]
}

// Formats returns the registered format tags in registration order.
func (r *Registry) Formats() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Detect finds the handler whose signature matches the raw bytes.
// No match is an unsupported-format error, never a best-effort guess.
func (r *Registry) Detect(raw []byte) (Handler, error) {
	for _, key := range r.order {
		h := r.handlers[key]
		if h.Sniff(raw) {
			return h, nil
		}
	}
	return nil, &ParseError{Kind: ErrUnsupportedFormat, Msg: "no known statement signature matched"}
}

// DefaultRegistry returns a registry with all built-in handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&AlfaBankHandler{})
	r.Register(&RaiffeisenHandler{})
	r.Register(&SberbankHandler{})
	return r
}
