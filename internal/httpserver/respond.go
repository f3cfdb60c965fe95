package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"toystore/internal/domain"
	"toystore/internal/payment"
	checkoutsvc "toystore/internal/service/checkout"
	customersvc "toystore/internal/service/customer"
)

// respondError maps domain errors onto HTTP statuses. Anything unrecognized
// is a 500 with no detail leaked.
func respondError(c *gin.Context, err error) {
	var (
		vErr    *domain.ValidationError
		vErrs   domain.ValidationErrors
		stock   *domain.OutOfStockError
		changed *domain.InventoryChangedError
		gateway *payment.GatewayError
	)
	switch {
	case errors.As(err, &vErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": vErrs})
	case errors.As(err, &vErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": domain.ValidationErrors{vErr}})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{"error": stock.Error()})
	case errors.As(err, &changed):
		msgs := make([]string, 0, len(changed.Lines))
		for i := range changed.Lines {
			msgs = append(msgs, changed.Lines[i].Error())
		}
		c.JSON(http.StatusConflict, gin.H{"error": "inventory changed", "lines": msgs})
	case errors.As(err, &gateway):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": gateway.Error(), "retryable": gateway.Retryable})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, domain.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": "order can no longer be cancelled"})
	case errors.Is(err, customersvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, checkoutsvc.ErrEmptyCart):
		c.JSON(http.StatusConflict, gin.H{"error": "cart is empty"})
	case errors.Is(err, checkoutsvc.ErrNoWorkflow):
		c.JSON(http.StatusConflict, gin.H{"error": "checkout not in progress"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
