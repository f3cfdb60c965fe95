// Package checkout drives the multi-step workflow that turns a cart into an
// order: Contact, Shipping, Billing, Review & Pay, then optional account
// creation for guests.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"toystore/internal/domain"
	"toystore/internal/events"
	"toystore/internal/payment"
	orderrepo "toystore/internal/repository/order"
	"toystore/internal/session"
	"toystore/internal/tax"
)

var (
	// ErrEmptyCart redirects the visitor back to the cart view.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNoWorkflow indicates the session has no checkout record yet.
	ErrNoWorkflow = errors.New("checkout not started")
)

type cartService interface {
	Get(ctx context.Context, cartID string) (*domain.Cart, error)
	CheckLines(ctx context.Context, lines []domain.CartLine) ([]domain.OutOfStockError, error)
}

type customerService interface {
	EnsureLazy(ctx context.Context) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	MirrorContact(ctx context.Context, customerID string, contact domain.Contact) error
	Promote(ctx context.Context, customerID, email, password string) (*domain.Customer, string, error)
	ListShippingAddresses(ctx context.Context, customerID string) ([]domain.CustomerAddress, error)
	GetShippingAddressByNickname(ctx context.Context, customerID, nickname string) (*domain.CustomerAddress, error)
	GetBillingAddress(ctx context.Context, customerID string) (*domain.CustomerAddress, error)
	SaveShippingAddress(ctx context.Context, customerID, nickname string, addr domain.Address) (*domain.CustomerAddress, error)
	SaveBillingAddress(ctx context.Context, customerID string, addr domain.Address) (*domain.CustomerAddress, error)
}

type orderStore interface {
	Commit(ctx context.Context, in orderrepo.CommitInput, authorize orderrepo.AuthorizeFunc) (*domain.Order, error)
}

type Service struct {
	carts               cartService
	customers           customerService
	orders              orderStore
	gateway             payment.Gateway
	bus                 *events.Bus
	shippingChargeCents int64
	logger              *log.Logger
}

func New(carts cartService, customers customerService, orders orderStore, gateway payment.Gateway, bus *events.Bus, shippingChargeCents int64, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		carts:               carts,
		customers:           customers,
		orders:              orders,
		gateway:             gateway,
		bus:                 bus,
		shippingChargeCents: shippingChargeCents,
		logger:              logger,
	}
}

// Begin ensures the session can check out: the cart must have lines and the
// identity must at least be lazy so a committed order has an owner. Returns
// the step the visitor should land on.
func (s *Service) Begin(ctx context.Context, sess *session.Session) (domain.CheckoutStep, error) {
	if sess.CartID == "" {
		return domain.StepNone, ErrEmptyCart
	}
	cart, err := s.carts.Get(ctx, sess.CartID)
	if err != nil {
		return domain.StepNone, err
	}
	if len(cart.Lines) == 0 {
		return domain.StepNone, ErrEmptyCart
	}

	if sess.IdentityMode == domain.IdentityAnonymous || sess.CustomerID == "" {
		lazy, err := s.customers.EnsureLazy(ctx)
		if err != nil {
			return domain.StepNone, err
		}
		sess.IdentityMode = domain.IdentityLazy
		sess.CustomerID = lazy.ID
	}
	// A submitted workflow is spent; a new visit starts over so the session
	// can place further orders. The attempt counter survives the reset to
	// keep idempotency keys unique across the session's orders.
	if sess.Checkout == nil || sess.Checkout.Submitted() {
		attempts := 0
		if sess.Checkout != nil {
			attempts = sess.Checkout.PayAttempts
		}
		sess.Checkout = &domain.CheckoutState{PayAttempts: attempts}
	}
	return sess.Checkout.NextStep(), nil
}

// Enter applies the navigation guards for a GET of the given step. A zero
// redirect means the step may render; otherwise the caller redirects.
func (s *Service) Enter(ctx context.Context, sess *session.Session, step domain.CheckoutStep) (domain.CheckoutStep, error) {
	cs := sess.Checkout
	if cs == nil {
		return domain.StepNone, ErrNoWorkflow
	}
	// A submitted order freezes everything up to and including review.
	if cs.Submitted() && step <= domain.StepReview {
		return domain.StepAccount, nil
	}
	if !cs.CanEnter(step) {
		return cs.NextStep(), nil
	}

	// Steps already satisfied by the stored profile complete themselves.
	switch step {
	case domain.StepContact:
		if cs.Contact == nil {
			identity, err := s.identity(ctx, sess)
			if err != nil {
				return domain.StepNone, err
			}
			if contact := identity.Contact(); contact.Complete() {
				cs.Contact = &contact
				cs.MarkComplete(domain.StepContact)
				return domain.StepShipping, nil
			}
		}
	case domain.StepShipping:
		if cs.ShippingAddress == nil && sess.IdentityMode == domain.IdentityRegistered {
			saved, err := s.customers.ListShippingAddresses(ctx, sess.CustomerID)
			if err != nil {
				return domain.StepNone, err
			}
			if len(saved) == 1 {
				addr := saved[0].Address
				cs.ShippingAddress = &addr
				cs.ShippingNickname = saved[0].Nickname
				cs.MarkComplete(domain.StepShipping)
				return domain.StepBilling, nil
			}
		}
	case domain.StepBilling:
		if cs.BillingAddress == nil && sess.IdentityMode == domain.IdentityRegistered {
			saved, err := s.customers.GetBillingAddress(ctx, sess.CustomerID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return domain.StepNone, err
			}
			if saved != nil {
				cs.BillingAddress = &saved.Address
				cs.MarkComplete(domain.StepBilling)
				return domain.StepReview, nil
			}
		}
	case domain.StepAccount:
		// Only lazy identities are offered account creation.
		if sess.IdentityMode != domain.IdentityLazy {
			return domain.StepNone, ErrNoWorkflow
		}
	}
	return domain.StepNone, nil
}

// ContactForm is the step 1 payload.
type ContactForm struct {
	FirstName              string `json:"firstName" form:"first_name"`
	LastName               string `json:"lastName" form:"last_name"`
	Email                  string `json:"email" form:"email"`
	EmailConfirm           string `json:"emailConfirm" form:"email_confirm"`
	Phone                  string `json:"phone" form:"phone"`
	ContactMethod          string `json:"contactMethod" form:"contact_method"`
	SubscribeToMailingList bool   `json:"subscribeToMailingList" form:"subscribe_to_mailing_list"`
}

func (s *Service) SubmitContact(ctx context.Context, sess *session.Session, form ContactForm) error {
	cs := sess.Checkout
	if cs == nil {
		return ErrNoWorkflow
	}
	if cs.Submitted() {
		return ErrNoWorkflow
	}

	var errs domain.ValidationErrors
	if strings.TrimSpace(form.FirstName) == "" {
		errs = append(errs, &domain.ValidationError{Field: "first_name", Message: "first name is required"})
	}
	if strings.TrimSpace(form.LastName) == "" {
		errs = append(errs, &domain.ValidationError{Field: "last_name", Message: "last name is required"})
	}
	email := strings.TrimSpace(form.Email)
	if email == "" {
		errs = append(errs, &domain.ValidationError{Field: "email", Message: "email is required"})
	} else if email != strings.TrimSpace(form.EmailConfirm) {
		errs = append(errs, &domain.ValidationError{Field: "email_confirm", Message: "email addresses do not match"})
	}
	method := domain.ContactMethod(form.ContactMethod)
	switch method {
	case domain.ContactByEmail, domain.ContactByPhone:
	default:
		method = domain.ContactUnknown
	}
	if method == domain.ContactByPhone && strings.TrimSpace(form.Phone) == "" {
		errs = append(errs, &domain.ValidationError{Field: "phone", Message: "phone is required for phone contact"})
	}
	if len(errs) > 0 {
		return errs
	}

	cs.Contact = &domain.Contact{
		FirstName:              strings.TrimSpace(form.FirstName),
		LastName:               strings.TrimSpace(form.LastName),
		Email:                  email,
		Phone:                  strings.TrimSpace(form.Phone),
		Method:                 method,
		SubscribeToMailingList: form.SubscribeToMailingList,
	}
	cs.MarkComplete(domain.StepContact)
	return nil
}

// ShippingForm is the step 2 payload. ShipTo selects a saved nickname; empty
// or "new" means the submitted address fields are used (and saved under
// Nickname for registered customers).
type ShippingForm struct {
	ShipTo   string         `json:"shipTo" form:"ship_to"`
	Nickname string         `json:"nickname" form:"nickname"`
	Address  domain.Address `json:"address"`
}

func (s *Service) SubmitShipping(ctx context.Context, sess *session.Session, form ShippingForm) error {
	cs := sess.Checkout
	if cs == nil {
		return ErrNoWorkflow
	}
	if cs.Submitted() {
		return ErrNoWorkflow
	}

	addr := form.Address
	nickname := strings.TrimSpace(form.Nickname)
	shipTo := strings.TrimSpace(form.ShipTo)
	if shipTo != "" && shipTo != "new" {
		saved, err := s.customers.GetShippingAddressByNickname(ctx, sess.CustomerID, shipTo)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return &domain.ValidationError{Field: "ship_to", Message: "unknown address nickname"}
			}
			return err
		}
		addr = saved.Address
		nickname = saved.Nickname
	}

	if errs := addr.Validate(); len(errs) > 0 {
		return errs
	}
	if !tax.Supported(addr.Region) {
		return domain.ValidationErrors{{Field: "region", Message: "we cannot ship to this region"}}
	}

	if sess.IdentityMode == domain.IdentityRegistered && (shipTo == "" || shipTo == "new") {
		if _, err := s.customers.SaveShippingAddress(ctx, sess.CustomerID, nickname, addr); err != nil {
			return err
		}
	}

	cs.ShippingAddress = &addr
	cs.ShippingNickname = nickname
	cs.MarkComplete(domain.StepShipping)
	return nil
}

func (s *Service) SubmitBilling(ctx context.Context, sess *session.Session, addr domain.Address) error {
	cs := sess.Checkout
	if cs == nil {
		return ErrNoWorkflow
	}
	if cs.Submitted() {
		return ErrNoWorkflow
	}
	if errs := addr.Validate(); len(errs) > 0 {
		return errs
	}

	if sess.IdentityMode == domain.IdentityRegistered {
		if _, err := s.customers.SaveBillingAddress(ctx, sess.CustomerID, addr); err != nil {
			return err
		}
	}

	cs.BillingAddress = &addr
	cs.MarkComplete(domain.StepBilling)
	return nil
}

// AddGiftCard validates the 16-digit number against the gateway and applies
// it to the draft. Non-digits are stripped before validation.
func (s *Service) AddGiftCard(ctx context.Context, sess *session.Session, number string) error {
	cs := sess.Checkout
	if cs == nil {
		return ErrNoWorkflow
	}
	if cs.Submitted() {
		return ErrNoWorkflow
	}

	normalized := digitsOnly(number)
	if len(normalized) != 16 {
		return &domain.ValidationError{Field: "gift_card", Message: "gift card numbers have 16 digits"}
	}
	if cs.HasGiftCard(normalized) {
		return &domain.ValidationError{Field: "gift_card", Message: "this gift card has already been applied"}
	}
	balance, err := s.gateway.GiftCardBalance(ctx, normalized)
	if err != nil {
		return err
	}
	if balance <= 0 {
		return &domain.ValidationError{Field: "gift_card", Message: "this gift card has no remaining balance"}
	}
	cs.GiftCardNumbers = append(cs.GiftCardNumbers, normalized)
	return nil
}

func (s *Service) RemoveGiftCard(_ context.Context, sess *session.Session, number string) error {
	cs := sess.Checkout
	if cs == nil {
		return ErrNoWorkflow
	}
	if cs.Submitted() {
		return ErrNoWorkflow
	}
	normalized := digitsOnly(number)
	kept := cs.GiftCardNumbers[:0]
	for _, n := range cs.GiftCardNumbers {
		if n != normalized {
			kept = append(kept, n)
		}
	}
	cs.GiftCardNumbers = kept
	return nil
}

// Summary is the review-page projection of the draft.
type Summary struct {
	Draft                 *domain.DraftOrder
	Taxes                 []domain.TaxLine
	TotalCents            int64
	GiftCardAllocations   []int64
	BalanceRemainingCents int64
}

// Review builds the draft and its derived totals for display and payment.
func (s *Service) Review(ctx context.Context, sess *session.Session) (*Summary, error) {
	draft, err := s.buildDraft(ctx, sess)
	if err != nil {
		return nil, err
	}
	taxes, err := tax.ForRegion(draft.ShippingAddress.Region, draft.TaxableTotalCents())
	if err != nil {
		return nil, err
	}
	total := draft.TotalCents(taxes)
	allocs, remaining := draft.GiftCardAllocations(total)
	return &Summary{
		Draft:                 draft,
		Taxes:                 taxes,
		TotalCents:            total,
		GiftCardAllocations:   allocs,
		BalanceRemainingCents: remaining,
	}, nil
}

// PaymentForm carries the credit-card fields for the final submission. The
// fields may be empty when gift cards cover the whole total.
type PaymentForm struct {
	CardType   string `json:"cardType" form:"card_type"`
	CardNumber string `json:"cardNumber" form:"card_number"`
}

// Pay runs the atomic commit. Authorization happens inside the store's
// transaction, after the stock re-check; any failure leaves the draft intact.
func (s *Service) Pay(ctx context.Context, sess *session.Session, form PaymentForm) (*domain.Order, error) {
	cs := sess.Checkout
	if cs == nil {
		return nil, ErrNoWorkflow
	}
	if cs.Submitted() {
		return nil, ErrNoWorkflow
	}
	if cs.HighestCompletedStep < domain.StepBilling {
		return nil, ErrNoWorkflow
	}

	summary, err := s.Review(ctx, sess)
	if err != nil {
		return nil, err
	}
	draft := summary.Draft

	cardNumber := digitsOnly(form.CardNumber)
	if summary.BalanceRemainingCents > 0 && cardNumber == "" {
		return nil, domain.ValidationErrors{{Field: "card_number", Message: "card number is required"}}
	}

	cs.PayAttempts++
	idempotencyKey := fmt.Sprintf("%s:%d", sess.ID, cs.PayAttempts)

	var customerID *string
	if sess.CustomerID != "" {
		id := sess.CustomerID
		customerID = &id
	}

	authorize := func(ctx context.Context) (*domain.CreditCardPayment, []domain.GiftCardPayment, error) {
		// Balances are re-read at commit time; a card drained below its
		// planned allocation aborts the whole transaction.
		var giftCards []domain.GiftCardPayment
		remaining := summary.TotalCents
		for _, gc := range draft.GiftCards {
			balance, err := s.gateway.GiftCardBalance(ctx, gc.Number)
			if err != nil {
				return nil, nil, err
			}
			amount := gc.BalanceCents
			if amount > remaining {
				amount = remaining
			}
			if balance < amount {
				return nil, nil, &payment.GatewayError{
					Reason:    "gift card balance changed",
					Retryable: true,
				}
			}
			if amount > 0 {
				giftCards = append(giftCards, domain.GiftCardPayment{
					CardNumber:  gc.Number,
					AmountCents: amount,
				})
			}
			remaining -= amount
		}

		var creditCard *domain.CreditCardPayment
		if remaining > 0 {
			txnID, err := s.gateway.Authorize(ctx, payment.AuthorizeRequest{
				CardType:       form.CardType,
				CardNumber:     cardNumber,
				AmountCents:    remaining,
				BillingAddress: draft.BillingAddress,
				IdempotencyKey: idempotencyKey,
			})
			if err != nil {
				return nil, nil, err
			}
			creditCard = &domain.CreditCardPayment{
				TransactionID: txnID,
				AmountCents:   remaining,
				CardType:      form.CardType,
				LastFour:      payment.LastFour(cardNumber),
			}
		}
		return creditCard, giftCards, nil
	}

	order, err := s.orders.Commit(ctx, orderrepo.CommitInput{
		CartID:     sess.CartID,
		CustomerID: customerID,
		Draft:      *draft,
		Taxes:      summary.Taxes,
	}, authorize)
	if err != nil {
		return nil, err
	}

	cs.SubmittedOrderID = order.ID
	cs.MarkComplete(domain.StepReview)

	if sess.IdentityMode == domain.IdentityRegistered && sess.CustomerID != "" {
		if err := s.customers.MirrorContact(ctx, sess.CustomerID, draft.Contact); err != nil {
			s.logger.Printf("checkout: mirror contact customer=%s error=%v", sess.CustomerID, err)
		}
	}

	s.bus.Publish(ctx, domain.Event{Kind: domain.EventOrderCommitted, Order: order})
	s.logger.Printf("checkout: committed order=%s session=%s total_cents=%d", order.ID, sess.ID, order.TotalCents)
	return order, nil
}

// CreateAccount promotes a lazy identity after a successful commit. The
// just-submitted order stays linked because the customer row is reused.
func (s *Service) CreateAccount(ctx context.Context, sess *session.Session, email, password string) (*domain.Customer, string, error) {
	if sess.IdentityMode != domain.IdentityLazy || sess.CustomerID == "" {
		return nil, "", ErrNoWorkflow
	}
	customer, token, err := s.customers.Promote(ctx, sess.CustomerID, email, password)
	if err != nil {
		return nil, "", err
	}
	sess.IdentityMode = domain.IdentityRegistered
	cs := sess.Checkout
	if cs != nil {
		cs.MarkComplete(domain.StepAccount)
	}
	return customer, token, nil
}

// Cancel drops the workflow record. A committed order is unaffected.
func (s *Service) Cancel(_ context.Context, sess *session.Session) {
	sess.Checkout = nil
}

func (s *Service) identity(ctx context.Context, sess *session.Session) (domain.Identity, error) {
	identity := domain.Identity{Mode: sess.IdentityMode}
	if sess.CustomerID != "" {
		c, err := s.customers.GetByID(ctx, sess.CustomerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return identity, err
		}
		identity.Customer = c
	}
	return identity, nil
}

func (s *Service) buildDraft(ctx context.Context, sess *session.Session) (*domain.DraftOrder, error) {
	cs := sess.Checkout
	if cs == nil || cs.Contact == nil || cs.ShippingAddress == nil || cs.BillingAddress == nil {
		return nil, ErrNoWorkflow
	}
	cart, err := s.carts.Get(ctx, sess.CartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	draft := &domain.DraftOrder{
		Items:               cart.Lines,
		ShippingAddress:     *cs.ShippingAddress,
		BillingAddress:      *cs.BillingAddress,
		Contact:             *cs.Contact,
		ShippingChargeCents: s.shippingChargeCents,
	}
	for _, number := range cs.GiftCardNumbers {
		balance, err := s.gateway.GiftCardBalance(ctx, number)
		if err != nil {
			return nil, err
		}
		draft.GiftCards = append(draft.GiftCards, domain.GiftCard{
			Number:       number,
			BalanceCents: balance,
		})
	}
	return draft, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
