package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the delivery contact captured at checkout. It is persisted as JSONB
// on orders and inside checkout snapshots.
type Address struct {
	FirstName  string  `json:"first_name" validate:"required"`
	LastName   string  `json:"last_name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"required"`
	Line1      string  `json:"line1" validate:"required"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city" validate:"required"`
	State      string  `json:"state" validate:"required"`
	PostalCode string  `json:"postal_code,omitempty"`
	Country    string  `json:"country" validate:"required"`
}

// Validate enforces the fields every delivery needs.
func (a Address) Validate() error {
	if strings.TrimSpace(a.FirstName) == "" {
		return fmt.Errorf("address: missing first_name")
	}
	if strings.TrimSpace(a.Line1) == "" {
		return fmt.Errorf("address: missing line1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	if strings.TrimSpace(a.Country) == "" {
		return fmt.Errorf("address: missing country")
	}
	return nil
}

// Value marshals Address into JSON.
func (a Address) Value() (driver.Value, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// Scan decodes the JSON column.
func (a *Address) Scan(value any) error {
	*a = Address{}
	if err := scanJSON(value, a); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	return nil
}
