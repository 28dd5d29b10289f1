package model

// ContactSource records how a contact came into existence.
type ContactSource string

const (
	ContactDerived     ContactSource = "derived" // created by the import pipeline
	ContactUserEntered ContactSource = "user"
)

// Contact is a counterparty derived from statement descriptions or
// entered by the user. Phones are canonical digit strings with country
// prefix ("79123456789").
type Contact struct {
	ID     string
	Name   string
	Phones []string
	Source ContactSource
}

// HasPhone reports whether the contact already carries the canonical phone.
func (c Contact) HasPhone(phone string) bool {
	for _, p := range c.Phones {
		if p == phone {
			return true
		}
	}
	return false
}
