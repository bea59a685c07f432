package types

import (
	"fmt"
	"strings"
)

// Address is the postal snapshot copied onto orders at confirmation time.
// Orders keep their own copy so later profile edits never rewrite history.
type Address struct {
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// Validate checks the fields every shippable address needs.
func (a Address) Validate() error {
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.State) == "" {
		return fmt.Errorf("address: missing state")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address: missing postal_code")
	}
	return nil
}

// Normalized returns a copy with trimmed fields and a defaulted country.
func (a Address) Normalized() Address {
	out := a
	out.Name = strings.TrimSpace(a.Name)
	out.Line1 = strings.TrimSpace(a.Line1)
	out.City = strings.TrimSpace(a.City)
	out.State = strings.ToUpper(strings.TrimSpace(a.State))
	out.PostalCode = strings.TrimSpace(a.PostalCode)
	out.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if out.Country == "" {
		out.Country = "US"
	}
	return out
}
