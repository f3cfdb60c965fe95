package domain

import "strings"

// Address carries the fields shared by saved customer addresses and the
// immutable snapshots owned by orders.
type Address struct {
	Addressee string `json:"addressee,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	PostCode  string `json:"postCode,omitempty"`
}

// Validate enforces the non-null columns: line1, city, region, country.
func (a Address) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(a.Line1) == "" {
		errs = append(errs, &ValidationError{Field: "line1", Message: "address line is required"})
	}
	if strings.TrimSpace(a.City) == "" {
		errs = append(errs, &ValidationError{Field: "city", Message: "city is required"})
	}
	if strings.TrimSpace(a.Region) == "" {
		errs = append(errs, &ValidationError{Field: "region", Message: "region is required"})
	}
	if strings.TrimSpace(a.Country) == "" {
		errs = append(errs, &ValidationError{Field: "country", Message: "country is required"})
	}
	return errs
}

// IsZero reports whether no field has been filled in.
func (a Address) IsZero() bool {
	return a == Address{}
}

// CustomerAddress is a saved address. Shipping addresses carry a per-customer
// unique nickname; at most one address per customer has Billing set.
type CustomerAddress struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Nickname   string `json:"nickname,omitempty"`
	Billing    bool   `json:"billing"`
	Address
}
