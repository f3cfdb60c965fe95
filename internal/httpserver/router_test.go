package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"toystore/internal/domain"
	"toystore/internal/events"
	"toystore/internal/payment"
	orderrepo "toystore/internal/repository/order"
	wishlistrepo "toystore/internal/repository/wishlist"
	cartsvc "toystore/internal/service/cart"
	checkoutsvc "toystore/internal/service/checkout"
	customersvc "toystore/internal/service/customer"
	ordersvc "toystore/internal/service/order"
	"toystore/internal/session"
)

type memCartRepo struct {
	carts  map[string]*domain.Cart
	nextID int
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[string]*domain.Cart)}
}

func (r *memCartRepo) Get(_ context.Context, id string) (*domain.Cart, error) {
	if c, ok := r.carts[id]; ok {
		return c, nil
	}
	return &domain.Cart{ID: id}, nil
}

func (r *memCartRepo) ensure(id string) *domain.Cart {
	c, ok := r.carts[id]
	if !ok {
		c = &domain.Cart{ID: id}
		r.carts[id] = c
	}
	return c
}

func (r *memCartRepo) AddProductLine(_ context.Context, cartID string, variant domain.Variant, quantity int) error {
	c := r.ensure(cartID)
	if line := c.ProductLine(variant.ID); line != nil {
		line.Quantity += quantity
		return nil
	}
	r.nextID++
	c.Lines = append(c.Lines, domain.CartLine{
		ID:             strconv.Itoa(r.nextID),
		CartID:         cartID,
		Kind:           domain.LineProduct,
		VariantID:      variant.ID,
		Quantity:       quantity,
		UnitPriceCents: variant.CurrentPriceCents(),
		DisplayName:    variant.Name,
	})
	return nil
}

func (r *memCartRepo) AddGiftCardLine(_ context.Context, cartID string, faceValueCents int64, quantity int) error {
	c := r.ensure(cartID)
	for i := range c.Lines {
		if c.Lines[i].Kind == domain.LineGiftCard && c.Lines[i].FaceValueCents == faceValueCents {
			c.Lines[i].Quantity += quantity
			return nil
		}
	}
	r.nextID++
	c.Lines = append(c.Lines, domain.CartLine{
		ID:             strconv.Itoa(r.nextID),
		CartID:         cartID,
		Kind:           domain.LineGiftCard,
		FaceValueCents: faceValueCents,
		Quantity:       quantity,
		UnitPriceCents: faceValueCents,
		DisplayName:    domain.GiftCardDisplayName(faceValueCents),
	})
	return nil
}

func (r *memCartRepo) UpdateQuantity(_ context.Context, cartID, lineID string, quantity int) error {
	c := r.ensure(cartID)
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memCartRepo) RemoveLine(_ context.Context, cartID, lineID string) error {
	c := r.ensure(cartID)
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memCartRepo) Clear(_ context.Context, cartID string) error {
	c := r.ensure(cartID)
	c.Lines = nil
	return nil
}

type memProductRepo struct {
	products []domain.Product
	variants map[string]domain.Variant
}

func newMemProductRepo() *memProductRepo {
	v := domain.Variant{ID: "v1", ProductID: "p1", SKU: "TRAIN-1", Name: "Wooden Train", PriceCents: 1000, Stock: 5}
	return &memProductRepo{
		products: []domain.Product{{ID: "p1", Slug: "wooden-train", Name: "Wooden Train", Variants: []domain.Variant{v}}},
		variants: map[string]domain.Variant{"v1": v},
	}
}

func (r *memProductRepo) ListProducts(_ context.Context) ([]domain.Product, error) {
	return r.products, nil
}

func (r *memProductRepo) GetProduct(_ context.Context, idOrSlug string) (*domain.Product, error) {
	for i := range r.products {
		if r.products[i].ID == idOrSlug || r.products[i].Slug == idOrSlug {
			return &r.products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memProductRepo) GetVariant(_ context.Context, id string) (*domain.Variant, error) {
	if v, ok := r.variants[id]; ok {
		return &v, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memProductRepo) GetVariants(_ context.Context, ids []string) (map[string]domain.Variant, error) {
	out := make(map[string]domain.Variant, len(ids))
	for _, id := range ids {
		if v, ok := r.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type memCustomerRepo struct {
	customers map[string]*domain.Customer
	nextID    int
}

func newMemCustomerRepo() *memCustomerRepo {
	return &memCustomerRepo{customers: make(map[string]*domain.Customer)}
}

func (r *memCustomerRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	for _, existing := range r.customers {
		if !existing.Lazy && existing.Email == c.Email {
			return nil, domain.ErrAlreadyExists
		}
	}
	r.nextID++
	c.ID = fmt.Sprintf("cust-%d", r.nextID)
	r.customers[c.ID] = &c
	return &c, nil
}

func (r *memCustomerRepo) CreateLazy(_ context.Context) (*domain.Customer, error) {
	r.nextID++
	c := &domain.Customer{ID: fmt.Sprintf("cust-%d", r.nextID), Lazy: true}
	r.customers[c.ID] = c
	return c, nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) UpdateProfile(_ context.Context, c domain.Customer) error {
	if existing, ok := r.customers[c.ID]; ok {
		*existing = c
		return nil
	}
	return domain.ErrNotFound
}

func (r *memCustomerRepo) Promote(_ context.Context, id, email, passwordHash string) (*domain.Customer, error) {
	c, ok := r.customers[id]
	if !ok || !c.Lazy {
		return nil, domain.ErrNotFound
	}
	c.Lazy = false
	c.Email = email
	c.PasswordHash = passwordHash
	return c, nil
}

func (r *memCustomerRepo) ListShippingAddresses(_ context.Context, _ string) ([]domain.CustomerAddress, error) {
	return nil, nil
}

func (r *memCustomerRepo) GetAddress(_ context.Context, _ string) (*domain.CustomerAddress, error) {
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) GetShippingAddressByNickname(_ context.Context, _, _ string) (*domain.CustomerAddress, error) {
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) GetBillingAddress(_ context.Context, _ string) (*domain.CustomerAddress, error) {
	return nil, domain.ErrNotFound
}

func (r *memCustomerRepo) SaveShippingAddress(_ context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error) {
	return &a, nil
}

func (r *memCustomerRepo) SaveBillingAddress(_ context.Context, a domain.CustomerAddress) (*domain.CustomerAddress, error) {
	return &a, nil
}

func (r *memCustomerRepo) DeleteAddress(_ context.Context, _ string) error {
	return nil
}

type memWishlistRepo struct {
	items  []wishlistrepo.Item
	nextID int
}

func (r *memWishlistRepo) Add(_ context.Context, customerID, variantID string) (*wishlistrepo.Item, error) {
	for i := range r.items {
		if r.items[i].CustomerID == customerID && r.items[i].VariantID == variantID {
			return &r.items[i], nil
		}
	}
	r.nextID++
	item := wishlistrepo.Item{ID: strconv.Itoa(r.nextID), CustomerID: customerID, VariantID: variantID}
	r.items = append(r.items, item)
	return &item, nil
}

func (r *memWishlistRepo) List(_ context.Context, customerID string) ([]wishlistrepo.Item, error) {
	var out []wishlistrepo.Item
	for _, it := range r.items {
		if it.CustomerID == customerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memWishlistRepo) Remove(_ context.Context, customerID, variantID string) error {
	for i := range r.items {
		if r.items[i].CustomerID == customerID && r.items[i].VariantID == variantID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memWishlistRepo) SetPurchased(_ context.Context, customerID string, variantIDs []string, purchased bool) error {
	for i := range r.items {
		if r.items[i].CustomerID != customerID {
			continue
		}
		for _, id := range variantIDs {
			if r.items[i].VariantID == id {
				r.items[i].Purchased = purchased
			}
		}
	}
	return nil
}

type memOrderRepo struct {
	carts  *memCartRepo
	orders map[string]*domain.Order
	nextID int
}

func (r *memOrderRepo) Commit(ctx context.Context, in orderrepo.CommitInput, authorize orderrepo.AuthorizeFunc) (*domain.Order, error) {
	cc, gcs, err := authorize(ctx)
	if err != nil {
		return nil, err
	}
	r.nextID++
	order := &domain.Order{
		ID:            fmt.Sprintf("ord-%d", r.nextID),
		CustomerID:    in.CustomerID,
		Contact:       in.Draft.Contact,
		Status:        domain.OrderSubmitted,
		PaymentStatus: domain.PaymentAuthorized,
		Taxes:         in.Taxes,
		CreditCard:    cc,
		GiftCards:     gcs,
		TotalCents:    in.Draft.TotalCents(in.Taxes),
	}
	r.orders[order.ID] = order
	_ = r.carts.Clear(ctx, in.CartID)
	return order, nil
}

func (r *memOrderRepo) Cancel(_ context.Context, orderID string) (*domain.Order, bool, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	if o.Status == domain.OrderCancelled {
		return o, false, nil
	}
	o.Status = domain.OrderCancelled
	o.PaymentStatus = domain.PaymentCancelled
	return o, true, nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memOrderRepo) ListByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.OwnedBy(customerID) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrderRepo) SetStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	o, ok := r.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	return nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := log.New(io.Discard, "", 0)
	cartRepo := newMemCartRepo()
	productRepo := newMemProductRepo()
	customerRepo := newMemCustomerRepo()
	orderRepo := &memOrderRepo{carts: cartRepo, orders: make(map[string]*domain.Order)}
	bus := events.NewBus()

	carts := cartsvc.New(cartRepo, productRepo)
	customers := customersvc.New(customerRepo, "test-secret", time.Hour)
	checkout := checkoutsvc.New(carts, customers, orderRepo, payment.NewStub(), bus, 500, logger)
	orders := ordersvc.New(orderRepo, bus, logger)

	router, err := buildRouter(logger, nil, Deps{
		Sessions:   session.NewMemoryStore(time.Hour),
		SessionTTL: time.Hour,
		Products:   productRepo,
		Carts:      carts,
		Customers:  customers,
		Checkout:   checkout,
		Orders:     orders,
		Wishlists:  &memWishlistRepo{},
	})
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	return router
}

type client struct {
	t      *testing.T
	router *gin.Engine
	cookie string
}

func (cl *client) do(method, path string, body any) *httptest.ResponseRecorder {
	cl.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			cl.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.cookie != "" {
		req.Header.Set("Cookie", cl.cookie)
	}
	rec := httptest.NewRecorder()
	cl.router.ServeHTTP(rec, req)
	if sc := rec.Header().Get("Set-Cookie"); sc != "" {
		cl.cookie = sc
	}
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProducts(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/wooden-train", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCartFlow(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodPost, "/cart/lines", addLineRequest{VariantID: "v1", Quantity: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var cart domain.Cart
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected cart %+v", cart)
	}

	// The session cookie carries the cart to the next request.
	rec = cl.do(http.MethodGet, "/cart", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", rec.Code)
	}
	cart = domain.Cart{}
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("cart did not survive the session round-trip: %+v", cart)
	}
	lineID := cart.Lines[0].ID

	// Over stock is rejected with the counting message.
	rec = cl.do(http.MethodPost, "/cart/lines", addLineRequest{VariantID: "v1", Quantity: 10})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 over stock, got %d", rec.Code)
	}

	rec = cl.do(http.MethodPost, "/cart/lines/"+lineID, updateLineRequest{Quantity: "3"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}

	rec = cl.do(http.MethodDelete, "/cart/lines/"+lineID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}
	cart = domain.Cart{}
	if err := json.Unmarshal(rec.Body.Bytes(), &cart); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestCheckoutFlow(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodPost, "/cart/lines", addLineRequest{VariantID: "v1", Quantity: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d", rec.Code)
	}

	rec = cl.do(http.MethodPost, "/checkout", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("begin: expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/checkout/contact" {
		t.Fatalf("expected redirect to contact, got %q", loc)
	}

	// Skipping ahead bounces back to the next unfinished step.
	rec = cl.do(http.MethodGet, "/checkout/review", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/checkout/contact" {
		t.Fatalf("guard: got %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = cl.do(http.MethodPost, "/checkout/contact", checkoutsvc.ContactForm{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", EmailConfirm: "ada@example.com",
		ContactMethod: "email",
	})
	if rec.Code != http.StatusFound {
		t.Fatalf("contact: expected 302, got %d: %s", rec.Code, rec.Body.String())
	}

	addr := domain.Address{
		Addressee: "Ada Lovelace",
		Line1:     "1 Main St",
		City:      "Calgary",
		Region:    "AB",
		Country:   "CA",
		PostCode:  "T2P 0A1",
	}
	rec = cl.do(http.MethodPost, "/checkout/shipping", checkoutsvc.ShippingForm{Address: addr})
	if rec.Code != http.StatusFound {
		t.Fatalf("shipping: expected 302, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = cl.do(http.MethodPost, "/checkout/billing", billingRequest{SameAsShipping: true})
	if rec.Code != http.StatusFound {
		t.Fatalf("billing: expected 302, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = cl.do(http.MethodGet, "/checkout/review", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("review: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var review struct {
		TotalCents int64 `json:"totalCents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &review); err != nil {
		t.Fatalf("decode review: %v", err)
	}
	// 2000 merchandise + 500 shipping + 125 GST.
	if review.TotalCents != 2625 {
		t.Fatalf("expected total 2625, got %d", review.TotalCents)
	}

	rec = cl.do(http.MethodPost, "/checkout/pay", checkoutsvc.PaymentForm{
		CardType: "visa", CardNumber: "4111111111111111",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("pay: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var order domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.Status != domain.OrderSubmitted || order.TotalCents != 2625 {
		t.Fatalf("unexpected order %+v", order)
	}

	// Completed steps are frozen behind a redirect to account creation.
	rec = cl.do(http.MethodGet, "/checkout/contact", nil)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/checkout/create-account" {
		t.Fatalf("frozen step: got %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	// The order can be read back and cancelled by its owner in this session.
	rec = cl.do(http.MethodGet, "/orders/"+order.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order: expected 200, got %d", rec.Code)
	}
	rec = cl.do(http.MethodPost, "/orders/"+order.ID+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel order: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Account creation promotes the lazy identity.
	rec = cl.do(http.MethodPost, "/checkout/account", createAccountRequest{
		Email: "ada@example.com", Password: "Sup3rSecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create account: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// The promoted account still owns the order committed as a guest.
	rec = cl.do(http.MethodGet, "/orders", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list orders: expected 200, got %d", rec.Code)
	}
	var listed struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if len(listed.Orders) != 1 || listed.Orders[0].ID != order.ID || listed.Orders[0].TotalCents != 2625 {
		t.Fatalf("promotion lost the order: %+v", listed.Orders)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodPost, "/checkout", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for empty cart, got %d", rec.Code)
	}
}

func TestUnknownStep(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodGet, "/checkout/warehouse", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodGet, "/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSignupAndLogin(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodPost, "/auth/signup", customersvc.SignupInput{
		Email: "ada@example.com", Password: "Sup3rSecret",
		FirstName: "Ada", LastName: "Lovelace",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = cl.do(http.MethodPost, "/auth/login", loginRequest{Email: "ada@example.com", Password: "Sup3rSecret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if out.Token == "" {
		t.Fatal("expected a bearer token")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+out.Token)
	recorder := httptest.NewRecorder()
	cl.router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	rec = cl.do(http.MethodPost, "/auth/login", loginRequest{Email: "ada@example.com", Password: "wrongPass1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}
}

func TestWishlist(t *testing.T) {
	cl := &client{t: t, router: newTestRouter(t)}

	rec := cl.do(http.MethodPost, "/auth/signup", customersvc.SignupInput{
		Email: "ada@example.com", Password: "Sup3rSecret",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: %d", rec.Code)
	}
	rec = cl.do(http.MethodPost, "/auth/login", loginRequest{Email: "ada@example.com", Password: "Sup3rSecret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	authed := func(method, path string, body any) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != nil {
			raw, _ := json.Marshal(body)
			reader = bytes.NewReader(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Authorization", "Bearer "+out.Token)
		rec := httptest.NewRecorder()
		cl.router.ServeHTTP(rec, req)
		return rec
	}

	if rec := authed(http.MethodPost, "/me/wishlist", wishlistAddRequest{VariantID: "v1"}); rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec2 := authed(http.MethodGet, "/me/wishlist", nil)
	if rec2.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec2.Code)
	}
	var listed struct {
		Items []wishlistrepo.Item `json:"items"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Items) != 1 || listed.Items[0].VariantID != "v1" {
		t.Fatalf("unexpected items %+v", listed.Items)
	}
	if rec := authed(http.MethodDelete, "/me/wishlist/v1", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("remove: expected 204, got %d", rec.Code)
	}

	// The wishlist is private to the registered customer.
	anon := &client{t: t, router: cl.router}
	if rec := anon.do(http.MethodGet, "/me/wishlist", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: expected 401, got %d", rec.Code)
	}
}
