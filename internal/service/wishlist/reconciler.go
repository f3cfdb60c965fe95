// Package wishlist keeps customer wishlists in step with the order lifecycle.
package wishlist

import (
	"context"
	"io"
	"log"

	"toystore/internal/domain"
	"toystore/internal/events"
	wishlistrepo "toystore/internal/repository/wishlist"
)

// Reconciler marks wishlist entries purchased when an order commits and
// un-marks them when the order is cancelled.
type Reconciler struct {
	repo   wishlistrepo.Repository
	logger *log.Logger
}

func NewReconciler(repo wishlistrepo.Repository, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Reconciler{repo: repo, logger: logger}
}

// Register subscribes the reconciler to both order lifecycle events.
func (r *Reconciler) Register(bus *events.Bus) {
	bus.Subscribe(domain.EventOrderCommitted, r.onCommitted)
	bus.Subscribe(domain.EventOrderCancelled, r.onCancelled)
}

func (r *Reconciler) onCommitted(ctx context.Context, ev domain.Event) {
	r.reconcile(ctx, ev.Order, true)
}

func (r *Reconciler) onCancelled(ctx context.Context, ev domain.Event) {
	r.reconcile(ctx, ev.Order, false)
}

func (r *Reconciler) reconcile(ctx context.Context, order *domain.Order, purchased bool) {
	if order == nil || order.CustomerID == nil {
		return
	}
	var variantIDs []string
	for _, item := range order.Items {
		if item.Kind == domain.LineProduct && item.VariantID != "" {
			variantIDs = append(variantIDs, item.VariantID)
		}
	}
	if len(variantIDs) == 0 {
		return
	}
	if err := r.repo.SetPurchased(ctx, *order.CustomerID, variantIDs, purchased); err != nil {
		r.logger.Printf("wishlist reconciler: order=%s purchased=%t error=%v", order.ID, purchased, err)
	}
}
