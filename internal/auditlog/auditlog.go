package auditlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Event names for batch lifecycle rows.
const (
	EventImported  = "imported"
	EventCommitted = "committed"
	EventDiscarded = "discarded"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp time.Time
	BatchID   string
	AccountID string
	Event     string
	Format    string
	Accepted  int
	Rejected  int
	Details   string
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,batch_id,account_id,event,format,accepted,rejected,details"

const (
	numFields    = 8
	logDir       = "logs"
	logFile      = "logs/import-log.csv"
	colTimestamp = 0
	colBatchID   = 1
	colAccountID = 2
	colEvent     = 3
	colFormat    = 4
	colAccepted  = 5
	colRejected  = 6
	colDetails   = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colBatchID] = e.BatchID
	row[colAccountID] = e.AccountID
	row[colEvent] = e.Event
	row[colFormat] = e.Format
	row[colAccepted] = fmt.Sprintf("%d", e.Accepted)
	row[colRejected] = fmt.Sprintf("%d", e.Rejected)
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	var accepted, rejected int
	if _, err := fmt.Sscanf(record[colAccepted], "%d", &accepted); err != nil {
		return Entry{}, fmt.Errorf("parsing accepted count %q: %w", record[colAccepted], err)
	}
	if _, err := fmt.Sscanf(record[colRejected], "%d", &rejected); err != nil {
		return Entry{}, fmt.Errorf("parsing rejected count %q: %w", record[colRejected], err)
	}

	return Entry{
		Timestamp: ts,
		BatchID:   record[colBatchID],
		AccountID: record[colAccountID],
		Event:     record[colEvent],
		Format:    record[colFormat],
		Accepted:  accepted,
		Rejected:  rejected,
		Details:   record[colDetails],
	}, nil
}

// Append writes entries to <dataDir>/logs/import-log.csv, creating the file and header if needed.
func Append(dataDir string, entries []Entry) error {
	dir := filepath.Join(dataDir, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <dataDir>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dataDir string) ([]Entry, error) {
	path := filepath.Join(dataDir, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
