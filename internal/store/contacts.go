package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/vesta-fin/vesta/internal/model"
)

// ContactsHeader is the CSV header for contacts.csv. Phones are a
// pipe-separated list of canonical digit strings.
const ContactsHeader = "contact_id,name,phones,source"

const (
	contactNumFields = 4
	contactColID     = 0
	contactColName   = 1
	contactColPhones = 2
	contactColSource = 3
)

// MarshalContact converts a Contact to a CSV row.
func MarshalContact(c model.Contact) []string {
	row := make([]string, contactNumFields)
	row[contactColID] = c.ID
	row[contactColName] = c.Name
	row[contactColPhones] = strings.Join(c.Phones, "|")
	row[contactColSource] = string(c.Source)
	return row
}

// UnmarshalContact converts a CSV row to a Contact.
func UnmarshalContact(record []string) (model.Contact, error) {
	if len(record) != contactNumFields {
		return model.Contact{}, fmt.Errorf("expected %d fields, got %d", contactNumFields, len(record))
	}

	var phones []string
	if record[contactColPhones] != "" {
		phones = strings.Split(record[contactColPhones], "|")
	}

	return model.Contact{
		ID:     record[contactColID],
		Name:   record[contactColName],
		Phones: phones,
		Source: model.ContactSource(record[contactColSource]),
	}, nil
}

func readContacts(r io.Reader) ([]model.Contact, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = contactNumFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading contacts CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var contacts []model.Contact
	for i, rec := range records[1:] {
		c, err := UnmarshalContact(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// Contacts returns all known contacts.
func (s *Store) Contacts(ctx context.Context) ([]model.Contact, error) {
	f, err := os.Open(s.path(contactsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening contacts: %w", err)
	}
	defer f.Close()

	return readContacts(f)
}

// FindByPhone returns the contact carrying the canonical phone, or nil.
func (s *Store) FindByPhone(ctx context.Context, phone string) (*model.Contact, error) {
	contacts, err := s.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range contacts {
		if c.HasPhone(phone) {
			return &c, nil
		}
	}
	return nil, nil
}

// FindByName returns the contact with the exact display name, or nil.
func (s *Store) FindByName(ctx context.Context, name string) (*model.Contact, error) {
	contacts, err := s.Contacts(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range contacts {
		if c.Name == name {
			return &c, nil
		}
	}
	return nil, nil
}

// CreateContact appends a pipeline-derived contact and returns it.
func (s *Store) CreateContact(ctx context.Context, name, phone string) (*model.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts, err := s.Contacts(ctx)
	if err != nil {
		return nil, err
	}

	created := model.Contact{
		ID:     uuid.NewString(),
		Name:   name,
		Source: model.ContactDerived,
	}
	if phone != "" {
		created.Phones = []string{phone}
	}
	contacts = append(contacts, created)

	if err := s.writeContacts(contacts); err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *Store) writeContacts(contacts []model.Contact) error {
	f, err := os.Create(s.path(contactsFile))
	if err != nil {
		return fmt.Errorf("creating contacts file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(strings.Split(ContactsHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, c := range contacts {
		if err := cw.Write(MarshalContact(c)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}
