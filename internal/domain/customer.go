package domain

import (
	"strings"
	"time"
)

// ContactMethod is the customer's preferred way to be reached.
type ContactMethod string

const (
	ContactByEmail ContactMethod = "email"
	ContactByPhone ContactMethod = "phone"
	ContactUnknown ContactMethod = "unknown"
)

// Contact is the denormalized contact block collected at checkout.
type Contact struct {
	FirstName              string        `json:"firstName"`
	LastName               string        `json:"lastName"`
	Email                  string        `json:"email"`
	Phone                  string        `json:"phone,omitempty"`
	Method                 ContactMethod `json:"contactMethod"`
	SubscribeToMailingList bool          `json:"subscribeToMailingList"`
}

// Complete reports whether the block carries everything checkout requires.
func (c Contact) Complete() bool {
	if strings.TrimSpace(c.FirstName) == "" || strings.TrimSpace(c.LastName) == "" {
		return false
	}
	if strings.TrimSpace(c.Email) == "" {
		return false
	}
	if c.Method == ContactByPhone && strings.TrimSpace(c.Phone) == "" {
		return false
	}
	return true
}

// IdentityMode distinguishes the three session identity states.
type IdentityMode string

const (
	IdentityAnonymous  IdentityMode = "anonymous"
	IdentityLazy       IdentityMode = "lazy"
	IdentityRegistered IdentityMode = "registered"
)

// Customer is a store account. Lazy customers are auto-generated rows with no
// credentials; promotion to registered keeps the same primary key.
type Customer struct {
	ID                      string        `json:"id"`
	Lazy                    bool          `json:"lazy"`
	Email                   string        `json:"email,omitempty"`
	PasswordHash            string        `json:"-"`
	FirstName               string        `json:"firstName,omitempty"`
	LastName                string        `json:"lastName,omitempty"`
	Phone                   string        `json:"phone,omitempty"`
	ContactMethod           ContactMethod `json:"contactMethod,omitempty"`
	SubscribedToMailingList bool          `json:"subscribedToMailingList"`
	CreatedAt               time.Time     `json:"createdAt"`
}

// Identity is the capability view of whoever owns the session.
type Identity struct {
	Mode     IdentityMode
	Customer *Customer
}

func (i Identity) IsGuest() bool {
	return i.Mode != IdentityRegistered
}

func (i Identity) CustomerID() string {
	if i.Customer == nil {
		return ""
	}
	return i.Customer.ID
}

func (i Identity) Email() string {
	if i.Customer == nil {
		return ""
	}
	return i.Customer.Email
}

func (i Identity) DisplayName() string {
	if i.Customer == nil {
		return ""
	}
	name := strings.TrimSpace(i.Customer.FirstName + " " + i.Customer.LastName)
	if name == "" {
		return i.Customer.Email
	}
	return name
}

// Contact projects the stored profile into a checkout contact block.
func (i Identity) Contact() Contact {
	if i.Customer == nil {
		return Contact{Method: ContactUnknown}
	}
	method := i.Customer.ContactMethod
	if method == "" {
		method = ContactUnknown
	}
	return Contact{
		FirstName:              i.Customer.FirstName,
		LastName:               i.Customer.LastName,
		Email:                  i.Customer.Email,
		Phone:                  i.Customer.Phone,
		Method:                 method,
		SubscribeToMailingList: i.Customer.SubscribedToMailingList,
	}
}
