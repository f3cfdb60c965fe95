package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toystore/internal/domain"
	cartsvc "toystore/internal/service/cart"
	checkoutsvc "toystore/internal/service/checkout"
)

func stepPath(step domain.CheckoutStep) string {
	return "/checkout/" + step.String()
}

func parseStep(name string) (domain.CheckoutStep, bool) {
	for step := domain.StepContact; step <= domain.StepAccount; step++ {
		if step.String() == name {
			return step, true
		}
	}
	return domain.StepNone, false
}

// beginCheckoutHandler starts (or resumes) the workflow. The availability
// check runs first; a cart holding more than live stock bounces back with
// the per-line messages.
func beginCheckoutHandler(checkout *checkoutsvc.Service, carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		ctx := c.Request.Context()

		if sess.CartID != "" {
			failed, err := carts.CheckAvailability(ctx, sess.CartID)
			if err != nil {
				respondError(c, err)
				return
			}
			if len(failed) > 0 {
				respondError(c, &domain.InventoryChangedError{Lines: failed})
				return
			}
		}

		step, err := checkout.Begin(ctx, sess)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, stepPath(step))
	}
}

func cancelCheckoutHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkout.Cancel(c.Request.Context(), currentSession(c))
		c.Status(http.StatusNoContent)
	}
}

// enterStepHandler applies the navigation guards, then renders the step's
// data. Review returns the full summary; the other steps return the state
// the form would be prefilled from.
func enterStepHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		step, ok := parseStep(c.Param("step"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		sess := currentSession(c)
		ctx := c.Request.Context()

		redirect, err := checkout.Enter(ctx, sess, step)
		if err != nil {
			respondError(c, err)
			return
		}
		if redirect != domain.StepNone {
			c.Redirect(http.StatusFound, stepPath(redirect))
			return
		}

		if step == domain.StepReview {
			summary, err := checkout.Review(ctx, sess)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, reviewResponse(summary))
			return
		}
		c.JSON(http.StatusOK, gin.H{"step": step.String(), "checkout": sess.Checkout})
	}
}

func submitContactHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form checkoutsvc.ContactForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		sess := currentSession(c)
		if err := checkout.SubmitContact(c.Request.Context(), sess, form); err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, stepPath(domain.StepShipping))
	}
}

func submitShippingHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form checkoutsvc.ShippingForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		sess := currentSession(c)
		if err := checkout.SubmitShipping(c.Request.Context(), sess, form); err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, stepPath(domain.StepBilling))
	}
}

type billingRequest struct {
	SameAsShipping bool           `json:"sameAsShipping"`
	Address        domain.Address `json:"address"`
}

func submitBillingHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req billingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		sess := currentSession(c)
		addr := req.Address
		if req.SameAsShipping && sess.Checkout != nil && sess.Checkout.ShippingAddress != nil {
			addr = *sess.Checkout.ShippingAddress
		}
		if err := checkout.SubmitBilling(c.Request.Context(), sess, addr); err != nil {
			respondError(c, err)
			return
		}
		c.Redirect(http.StatusFound, stepPath(domain.StepReview))
	}
}

type giftCardRequest struct {
	Number string `json:"number"`
}

func addGiftCardHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req giftCardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		sess := currentSession(c)
		ctx := c.Request.Context()
		if err := checkout.AddGiftCard(ctx, sess, req.Number); err != nil {
			respondError(c, err)
			return
		}
		summary, err := checkout.Review(ctx, sess)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, reviewResponse(summary))
	}
}

func removeGiftCardHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if err := checkout.RemoveGiftCard(c.Request.Context(), sess, c.Param("number")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func payHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form checkoutsvc.PaymentForm
		if err := c.ShouldBindJSON(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		sess := currentSession(c)
		order, err := checkout.Pay(c.Request.Context(), sess, form)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}

type createAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func createAccountHandler(checkout *checkoutsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		sess := currentSession(c)
		customer, token, err := checkout.CreateAccount(c.Request.Context(), sess, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"customer": customer, "token": token})
	}
}

func reviewResponse(s *checkoutsvc.Summary) gin.H {
	return gin.H{
		"items":               s.Draft.Items,
		"shippingAddress":     s.Draft.ShippingAddress,
		"billingAddress":      s.Draft.BillingAddress,
		"contact":             s.Draft.Contact,
		"merchandiseCents":    s.Draft.MerchandiseTotalCents(),
		"shippingChargeCents": s.Draft.ShippingChargeCents,
		"taxes":               s.Taxes,
		"totalCents":          s.TotalCents,
		"giftCards":           s.Draft.GiftCards,
		"giftCardAllocations": s.GiftCardAllocations,
		"balanceCents":        s.BalanceRemainingCents,
	}
}
