package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	wishlistrepo "toystore/internal/repository/wishlist"
)

type wishlistAddRequest struct {
	VariantID string `json:"variantId" binding:"required"`
}

func listWishlistHandler(wishlists wishlistrepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		items, err := wishlists.List(c.Request.Context(), sess.CustomerID)
		if err != nil {
			respondError(c, err)
			return
		}
		if items == nil {
			items = []wishlistrepo.Item{}
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func addWishlistHandler(wishlists wishlistrepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		var req wishlistAddRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		item, err := wishlists.Add(c.Request.Context(), sess.CustomerID, req.VariantID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func removeWishlistHandler(wishlists wishlistrepo.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		if err := wishlists.Remove(c.Request.Context(), sess.CustomerID, c.Param("variantID")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
