package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toystore/internal/domain"
	cartsvc "toystore/internal/service/cart"
	"toystore/internal/session"
)

type addLineRequest struct {
	VariantID      string `json:"variantId"`
	FaceValueCents int64  `json:"faceValueCents"`
	Quantity       int    `json:"quantity"`
}

type updateLineRequest struct {
	Quantity string `json:"quantity"`
}

func getCartHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess.CartID == "" {
			c.JSON(http.StatusOK, &domain.Cart{})
			return
		}
		cart, err := carts.Get(c.Request.Context(), sess.CartID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func addCartLineHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		var req addLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if err := ensureCartID(sess); err != nil {
			respondError(c, err)
			return
		}

		ctx := c.Request.Context()
		var err error
		if req.VariantID != "" {
			err = carts.AddProduct(ctx, sess.CartID, req.VariantID, req.Quantity)
		} else {
			err = carts.AddGiftCard(ctx, sess.CartID, req.FaceValueCents, req.Quantity)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		cart, err := carts.Get(ctx, sess.CartID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func updateCartLineHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess.CartID == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		var req updateLineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		ctx := c.Request.Context()
		if err := carts.UpdateQuantity(ctx, sess.CartID, c.Param("lineID"), req.Quantity); err != nil {
			respondError(c, err)
			return
		}
		cart, err := carts.Get(ctx, sess.CartID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func removeCartLineHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess.CartID == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		ctx := c.Request.Context()
		if err := carts.Remove(ctx, sess.CartID, c.Param("lineID")); err != nil {
			respondError(c, err)
			return
		}
		cart, err := carts.Get(ctx, sess.CartID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func clearCartHandler(carts *cartsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess.CartID == "" {
			c.Status(http.StatusNoContent)
			return
		}
		if err := carts.Clear(c.Request.Context(), sess.CartID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ensureCartID binds a cart to the session on first use.
func ensureCartID(sess *session.Session) error {
	if sess.CartID != "" {
		return nil
	}
	id, err := cartsvc.NewCartID()
	if err != nil {
		return err
	}
	sess.CartID = id
	return nil
}
