package customer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"toystore/internal/domain"
	custrepo "toystore/internal/repository/customer"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// DefaultNickname is the conventional first address-book entry.
const DefaultNickname = "Me"

// Service handles accounts, the address book, and lazy-identity promotion.
type Service struct {
	repo        custrepo.Repository
	jwtSecret   []byte
	jwtTTL      time.Duration
	passwordMin int
}

func New(repo custrepo.Repository, jwtSecret string, jwtTTL time.Duration) *Service {
	return &Service{
		repo:        repo,
		jwtSecret:   []byte(jwtSecret),
		jwtTTL:      jwtTTL,
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// Signup registers a new credentialed customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" {
		return nil, &domain.ValidationError{Field: "email", Message: "email required"}
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
	})
}

// Login validates credentials and returns the customer plus a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Customer, string, error) {
	c, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if c.Lazy || c.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(c.ID)
	if err != nil {
		return nil, "", err
	}
	return c, token, nil
}

// LookupByToken resolves a bearer token to the registered customer it names.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	customerID, err := s.verifyToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if c.Lazy {
		return nil, ErrInvalidToken
	}
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// EnsureLazy creates the credential-less identity a guest checkout runs as.
func (s *Service) EnsureLazy(ctx context.Context) (*domain.Customer, error) {
	return s.repo.CreateLazy(ctx)
}

// Promote converts a lazy identity into a registered account in place, so
// orders referencing it stay owned. Returns the customer and a bearer token.
func (s *Service) Promote(ctx context.Context, customerID, email, password string) (*domain.Customer, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, "", &domain.ValidationError{Field: "email", Message: "email required"}
	}
	password = strings.TrimSpace(password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	c, err := s.repo.Promote(ctx, customerID, email, string(hashed))
	if err != nil {
		return nil, "", err
	}
	token, err := s.issueToken(c.ID)
	if err != nil {
		return nil, "", err
	}
	return c, token, nil
}

// MirrorContact copies the checkout contact block onto the stored profile.
func (s *Service) MirrorContact(ctx context.Context, customerID string, contact domain.Contact) error {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	c.FirstName = contact.FirstName
	c.LastName = contact.LastName
	c.Phone = contact.Phone
	c.ContactMethod = contact.Method
	c.SubscribedToMailingList = contact.SubscribeToMailingList
	return s.repo.UpdateProfile(ctx, *c)
}

// ListShippingAddresses returns the customer's nicknamed addresses.
func (s *Service) ListShippingAddresses(ctx context.Context, customerID string) ([]domain.CustomerAddress, error) {
	return s.repo.ListShippingAddresses(ctx, customerID)
}

func (s *Service) GetShippingAddressByNickname(ctx context.Context, customerID, nickname string) (*domain.CustomerAddress, error) {
	return s.repo.GetShippingAddressByNickname(ctx, customerID, nickname)
}

func (s *Service) GetBillingAddress(ctx context.Context, customerID string) (*domain.CustomerAddress, error) {
	return s.repo.GetBillingAddress(ctx, customerID)
}

// SaveShippingAddress validates and upserts under the nickname; an empty
// nickname takes the conventional default.
func (s *Service) SaveShippingAddress(ctx context.Context, customerID, nickname string, addr domain.Address) (*domain.CustomerAddress, error) {
	if errs := addr.Validate(); len(errs) > 0 {
		return nil, errs
	}
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		nickname = DefaultNickname
	}
	return s.repo.SaveShippingAddress(ctx, domain.CustomerAddress{
		CustomerID: customerID,
		Nickname:   nickname,
		Address:    addr,
	})
}

func (s *Service) SaveBillingAddress(ctx context.Context, customerID string, addr domain.Address) (*domain.CustomerAddress, error) {
	if errs := addr.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return s.repo.SaveBillingAddress(ctx, domain.CustomerAddress{
		CustomerID: customerID,
		Address:    addr,
	})
}

// DeleteAddress removes an address after checking the caller owns it.
func (s *Service) DeleteAddress(ctx context.Context, customerID, addressID string) error {
	addr, err := s.repo.GetAddress(ctx, addressID)
	if err != nil {
		return err
	}
	if addr.CustomerID != customerID {
		return domain.ErrForbidden
	}
	return s.repo.DeleteAddress(ctx, addressID)
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return &domain.ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("password must be at least %d characters", min),
		}
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return &domain.ValidationError{
			Field:   "password",
			Message: "password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number",
		}
	}
	return nil
}
