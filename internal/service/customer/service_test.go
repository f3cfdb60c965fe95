package customer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"toystore/internal/domain"
)

type stubRepo struct {
	customers map[string]*domain.Customer
	addresses map[string]*domain.CustomerAddress
	nextID    int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		customers: map[string]*domain.Customer{},
		addresses: map[string]*domain.CustomerAddress{},
	}
}

func (r *stubRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s-%d", prefix, r.nextID)
}

func (r *stubRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	for _, existing := range r.customers {
		if !existing.Lazy && existing.Email == c.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	c.ID = r.id("cust")
	r.customers[c.ID] = &c
	return &c, nil
}

func (r *stubRepo) CreateLazy(_ context.Context) (*domain.Customer, error) {
	c := &domain.Customer{ID: r.id("lazy"), Lazy: true}
	r.customers[c.ID] = c
	return c, nil
}

func (r *stubRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if !c.Lazy && c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) UpdateProfile(_ context.Context, c domain.Customer) error {
	if _, ok := r.customers[c.ID]; !ok {
		return domain.ErrNotFound
	}
	r.customers[c.ID] = &c
	return nil
}

func (r *stubRepo) Promote(_ context.Context, id, email, passwordHash string) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	for _, existing := range r.customers {
		if !existing.Lazy && existing.Email == email {
			return nil, domain.ErrAlreadyExists
		}
	}
	c.Lazy = false
	c.Email = email
	c.PasswordHash = passwordHash
	cp := *c
	return &cp, nil
}

func (r *stubRepo) ListShippingAddresses(_ context.Context, customerID string) ([]domain.CustomerAddress, error) {
	var out []domain.CustomerAddress
	for _, a := range r.addresses {
		if a.CustomerID == customerID && !a.Billing {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *stubRepo) GetAddress(_ context.Context, id string) (*domain.CustomerAddress, error) {
	a, ok := r.addresses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *stubRepo) GetShippingAddressByNickname(_ context.Context, customerID, nickname string) (*domain.CustomerAddress, error) {
	for _, a := range r.addresses {
		if a.CustomerID == customerID && !a.Billing && a.Nickname == nickname {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) GetBillingAddress(_ context.Context, customerID string) (*domain.CustomerAddress, error) {
	for _, a := range r.addresses {
		if a.CustomerID == customerID && a.Billing {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubRepo) SaveShippingAddress(_ context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error) {
	a.ID = r.id("addr")
	r.addresses[a.ID] = &a
	return &a, nil
}

func (r *stubRepo) SaveBillingAddress(_ context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error) {
	a.ID = r.id("addr")
	a.Billing = true
	r.addresses[a.ID] = &a
	return &a, nil
}

func (r *stubRepo) DeleteAddress(_ context.Context, id string) error {
	if _, ok := r.addresses[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.addresses, id)
	return nil
}

func newTestService(repo *stubRepo) *Service {
	return New(repo, "test-secret", time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	c, err := svc.Signup(ctx, SignupInput{
		Email:     "  Parent@Example.COM ",
		Password:  "Toybox123",
		FirstName: "Pat",
		LastName:  "Miller",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if c.Email != "parent@example.com" {
		t.Fatalf("email not normalized: %q", c.Email)
	}
	if c.PasswordHash == "Toybox123" || c.PasswordHash == "" {
		t.Fatal("password stored unhashed")
	}

	got, token, err := svc.Login(ctx, "parent@example.com", "Toybox123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != c.ID || token == "" {
		t.Fatalf("login returned id=%q token=%q", got.ID, token)
	}

	resolved, err := svc.LookupByToken(ctx, token)
	if err != nil {
		t.Fatalf("lookup by token: %v", err)
	}
	if resolved.ID != c.ID {
		t.Fatalf("token resolved to %q, want %q", resolved.ID, c.ID)
	}

	if _, _, err := svc.Login(ctx, "parent@example.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "Toybox123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestSignupPasswordPolicy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newStubRepo())

	cases := []struct {
		name     string
		password string
	}{
		{"too short", "Ab1"},
		{"no uppercase", "toybox123"},
		{"no digit", "Toyboxxxx"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Password: tc.password})
			var vErr *domain.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("got %v, want validation error", err)
			}
			if vErr.Field != "password" {
				t.Fatalf("field = %q, want password", vErr.Field)
			}
		})
	}
}

func TestLoginRejectsLazyIdentity(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	lazy, err := svc.EnsureLazy(ctx)
	if err != nil {
		t.Fatalf("ensure lazy: %v", err)
	}
	repo.customers[lazy.ID].Email = "lazy@example.com"

	if _, _, err := svc.Login(ctx, "lazy@example.com", "Toybox123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestPromoteKeepsCustomerID(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	lazy, err := svc.EnsureLazy(ctx)
	if err != nil {
		t.Fatalf("ensure lazy: %v", err)
	}

	c, token, err := svc.Promote(ctx, lazy.ID, "new@example.com", "Toybox123")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if c.ID != lazy.ID {
		t.Fatalf("promotion changed id: %q -> %q", lazy.ID, c.ID)
	}
	if c.Lazy {
		t.Fatal("customer still lazy after promotion")
	}
	if token == "" {
		t.Fatal("promotion returned empty token")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(repo.customers[lazy.ID].PasswordHash), []byte("Toybox123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}

	if _, _, err := svc.Promote(ctx, lazy.ID, "bad-email-but-taken", ""); err == nil {
		t.Fatal("promote with empty password succeeded")
	}
}

func TestLookupByTokenRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newStubRepo())

	for _, token := range []string{"", "not-a-jwt", "aaaa.bbbb.cccc"} {
		if _, err := svc.LookupByToken(ctx, token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: got %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestMirrorContact(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	c, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Password: "Toybox123"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	err = svc.MirrorContact(ctx, c.ID, domain.Contact{
		FirstName:              "Sam",
		LastName:               "Reed",
		Phone:                  "555-0101",
		Method:                 domain.ContactByPhone,
		SubscribeToMailingList: true,
	})
	if err != nil {
		t.Fatalf("mirror contact: %v", err)
	}

	stored := repo.customers[c.ID]
	if stored.FirstName != "Sam" || stored.LastName != "Reed" {
		t.Fatalf("name not mirrored: %q %q", stored.FirstName, stored.LastName)
	}
	if stored.ContactMethod != domain.ContactByPhone || !stored.SubscribedToMailingList {
		t.Fatalf("preferences not mirrored: method=%q subscribed=%v", stored.ContactMethod, stored.SubscribedToMailingList)
	}
}

func TestDeleteAddressOwnerOnly(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	svc := newTestService(repo)

	addr := domain.Address{Line1: "1 Main St", City: "Toronto", Region: "ON", PostCode: "M1M 1M1", Country: "CA"}
	saved, err := svc.SaveShippingAddress(ctx, "cust-1", "Home", addr)
	if err != nil {
		t.Fatalf("save address: %v", err)
	}

	if err := svc.DeleteAddress(ctx, "cust-2", saved.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign delete: got %v, want ErrForbidden", err)
	}
	if err := svc.DeleteAddress(ctx, "cust-1", saved.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := svc.DeleteAddress(ctx, "cust-1", saved.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("repeat delete: got %v, want ErrNotFound", err)
	}
}

func TestSaveShippingAddressDefaultsNickname(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newStubRepo())

	addr := domain.Address{Line1: "1 Main St", City: "Toronto", Region: "ON", PostCode: "M1M 1M1", Country: "CA"}
	saved, err := svc.SaveShippingAddress(ctx, "cust-1", "  ", addr)
	if err != nil {
		t.Fatalf("save address: %v", err)
	}
	if saved.Nickname != DefaultNickname {
		t.Fatalf("nickname = %q, want %q", saved.Nickname, DefaultNickname)
	}

	if _, err := svc.SaveShippingAddress(ctx, "cust-1", "Home", domain.Address{}); err == nil {
		t.Fatal("empty address accepted")
	}
}
