package cart

import (
	"context"
	"crypto/rand"
	"errors"
	"strconv"
	"strings"

	"toystore/internal/domain"
)

// Alphabet for cart ids: mixed-case letters, digits 1-9, and punctuation.
const cartIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz123456789!@#$%^*-_"

const cartIDLength = 50

// Bytes at or above this limit wrap unevenly onto the alphabet and are
// re-drawn.
const cartIDByteLimit = 256 - 256%len(cartIDAlphabet)

type Service struct {
	repo     cartRepo
	products productRepo
}

type cartRepo interface {
	Get(ctx context.Context, id string) (*domain.Cart, error)
	AddProductLine(ctx context.Context, cartID string, variant domain.Variant, quantity int) error
	AddGiftCardLine(ctx context.Context, cartID string, faceValueCents int64, quantity int) error
	UpdateQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	Clear(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetVariant(ctx context.Context, id string) (*domain.Variant, error)
	GetVariants(ctx context.Context, ids []string) (map[string]domain.Variant, error)
}

func New(repo cartRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// NewCartID draws 50 characters uniformly from the cart id alphabet.
func NewCartID() (string, error) {
	out := make([]byte, 0, cartIDLength)
	buf := make([]byte, cartIDLength)
	for len(out) < cartIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		out = appendCartIDChars(out, buf)
	}
	return string(out), nil
}

func appendCartIDChars(dst, raw []byte) []byte {
	for _, b := range raw {
		if len(dst) == cartIDLength {
			break
		}
		if int(b) >= cartIDByteLimit {
			continue
		}
		dst = append(dst, cartIDAlphabet[int(b)%len(cartIDAlphabet)])
	}
	return dst
}

func (s *Service) Get(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.repo.Get(ctx, cartID)
}

// AddProduct aggregates onto an existing line for the variant. The stock
// check counts what the cart already holds.
func (s *Service) AddProduct(ctx context.Context, cartID, variantID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	variant, err := s.products.GetVariant(ctx, variantID)
	if err != nil {
		return err
	}
	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return err
	}
	inCart := 0
	if line := cart.ProductLine(variantID); line != nil {
		inCart = line.Quantity
	}
	if inCart+quantity > variant.Stock {
		return &domain.OutOfStockError{
			VariantID: variantID,
			InStock:   variant.Stock,
			InCart:    inCart,
		}
	}
	return s.repo.AddProductLine(ctx, cartID, *variant, quantity)
}

// AddGiftCard aggregates by face value; gift cards carry no stock.
func (s *Service) AddGiftCard(ctx context.Context, cartID string, faceValueCents int64, quantity int) error {
	if faceValueCents <= 0 {
		return errors.New("face value must be positive")
	}
	if quantity < 1 {
		quantity = 1
	}
	return s.repo.AddGiftCardLine(ctx, cartID, faceValueCents, quantity)
}

// UpdateQuantity parses the submitted quantity. A non-integer is a silent
// no-op; zero removes the line; anything above stock fails the check.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, lineID, quantity string) error {
	qty, err := strconv.Atoi(strings.TrimSpace(quantity))
	if err != nil {
		return nil
	}
	if qty <= 0 {
		return s.repo.RemoveLine(ctx, cartID, lineID)
	}

	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return err
	}
	var line *domain.CartLine
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			line = &cart.Lines[i]
			break
		}
	}
	if line == nil {
		return domain.ErrNotFound
	}

	if line.Kind == domain.LineProduct {
		variant, err := s.products.GetVariant(ctx, line.VariantID)
		if err != nil {
			return err
		}
		if qty > variant.Stock {
			return &domain.OutOfStockError{
				VariantID: line.VariantID,
				InStock:   variant.Stock,
			}
		}
	}
	return s.repo.UpdateQuantity(ctx, cartID, lineID, qty)
}

func (s *Service) Remove(ctx context.Context, cartID, lineID string) error {
	return s.repo.RemoveLine(ctx, cartID, lineID)
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.repo.Clear(ctx, cartID)
}

// CheckAvailability returns the lines whose quantity exceeds live stock.
// Checkout is only allowed when it comes back empty.
func (s *Service) CheckAvailability(ctx context.Context, cartID string) ([]domain.OutOfStockError, error) {
	cart, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.CheckLines(ctx, cart.Lines)
}

// CheckLines runs the availability check over an explicit line set.
func (s *Service) CheckLines(ctx context.Context, lines []domain.CartLine) ([]domain.OutOfStockError, error) {
	var variantIDs []string
	for _, l := range lines {
		if l.Kind == domain.LineProduct {
			variantIDs = append(variantIDs, l.VariantID)
		}
	}
	if len(variantIDs) == 0 {
		return nil, nil
	}
	variants, err := s.products.GetVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}

	var failed []domain.OutOfStockError
	for _, l := range lines {
		if l.Kind != domain.LineProduct {
			continue
		}
		variant, ok := variants[l.VariantID]
		if !ok {
			failed = append(failed, domain.OutOfStockError{VariantID: l.VariantID})
			continue
		}
		if l.Quantity > variant.Stock {
			failed = append(failed, domain.OutOfStockError{
				VariantID: l.VariantID,
				InStock:   variant.Stock,
				InCart:    l.Quantity,
			})
		}
	}
	return failed, nil
}
