// Package contacts derives counterparties from statement descriptions
// and resolves them against the contact store. Identity rules are
// deliberate and narrow: exact normalized phone first, exact merchant
// name second, otherwise a new contact. Existing contacts are never
// merged here.
package contacts

import (
	"context"
	"fmt"

	"github.com/vesta-fin/vesta/internal/model"
)

// Store is the contact side of the external store.
type Store interface {
	// FindByPhone returns the contact carrying the canonical phone, or
	// nil when none exists.
	FindByPhone(ctx context.Context, phone string) (*model.Contact, error)
	// FindByName returns the contact with the exact display name, or nil.
	FindByName(ctx context.Context, name string) (*model.Contact, error)
	// CreateContact creates a derived contact. phone may be empty.
	CreateContact(ctx context.Context, name, phone string) (*model.Contact, error)
}

// Resolver attaches contacts to normalized transactions.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve extracts a counterparty signature from the transaction's
// description and finds or creates the matching contact. A description
// with neither a phone nor a merchant name yields no contact and no
// error.
func (r *Resolver) Resolve(ctx context.Context, txn model.CanonicalTransaction) (*model.Contact, error) {
	phone, hasPhone := ExtractPhone(txn.Description)
	name, hasName := ExtractMerchant(txn.Description)

	if hasPhone {
		c, err := r.store.FindByPhone(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("looking up contact by phone: %w", err)
		}
		if c != nil {
			return c, nil
		}
	}

	if hasName {
		c, err := r.store.FindByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("looking up contact by name: %w", err)
		}
		if c != nil {
			return c, nil
		}
	}

	if !hasPhone && !hasName {
		return nil, nil
	}
	if name == "" {
		name = phone
	}

	c, err := r.store.CreateContact(ctx, name, phone)
	if err != nil {
		return nil, fmt.Errorf("creating contact: %w", err)
	}
	return c, nil
}
