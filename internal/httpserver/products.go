package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func listProductsHandler(catalog productCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := catalog.ListProducts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"products": products})
	}
}

func getProductHandler(catalog productCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := catalog.GetProduct(c.Request.Context(), c.Param("idOrSlug"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}
