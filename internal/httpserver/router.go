package httpserver

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"toystore/internal/domain"
	wishlistrepo "toystore/internal/repository/wishlist"
	cartsvc "toystore/internal/service/cart"
	checkoutsvc "toystore/internal/service/checkout"
	customersvc "toystore/internal/service/customer"
	ordersvc "toystore/internal/service/order"
	"toystore/internal/session"
)

type productCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error)
}

// Deps carries the wired services the handlers depend on.
type Deps struct {
	Sessions   session.Store
	SessionTTL time.Duration
	Products   productCatalog
	Carts      *cartsvc.Service
	Customers  *customersvc.Service
	Checkout   *checkoutsvc.Service
	Orders     *ordersvc.Service
	Wishlists  wishlistrepo.Repository
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *log.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestIDMiddleware(), gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/products", listProductsHandler(deps.Products))
	router.GET("/products/:idOrSlug", getProductHandler(deps.Products))

	router.POST("/auth/signup", signupHandler(deps.Customers))
	router.POST("/auth/login", loginHandler(deps.Customers))

	// Everything below is session-scoped.
	sessioned := router.Group("/", sessionMiddleware(deps.Sessions, deps.SessionTTL), identityMiddleware(deps.Customers))

	sessioned.GET("/cart", getCartHandler(deps.Carts))
	sessioned.POST("/cart/lines", addCartLineHandler(deps.Carts))
	sessioned.POST("/cart/lines/:lineID", updateCartLineHandler(deps.Carts))
	sessioned.DELETE("/cart/lines/:lineID", removeCartLineHandler(deps.Carts))
	sessioned.DELETE("/cart", clearCartHandler(deps.Carts))

	sessioned.POST("/checkout", beginCheckoutHandler(deps.Checkout, deps.Carts))
	sessioned.DELETE("/checkout", cancelCheckoutHandler(deps.Checkout))
	sessioned.GET("/checkout/:step", enterStepHandler(deps.Checkout))
	sessioned.POST("/checkout/contact", submitContactHandler(deps.Checkout))
	sessioned.POST("/checkout/shipping", submitShippingHandler(deps.Checkout))
	sessioned.POST("/checkout/billing", submitBillingHandler(deps.Checkout))
	sessioned.POST("/checkout/gift-cards", addGiftCardHandler(deps.Checkout))
	sessioned.DELETE("/checkout/gift-cards/:number", removeGiftCardHandler(deps.Checkout))
	sessioned.POST("/checkout/pay", payHandler(deps.Checkout))
	sessioned.POST("/checkout/account", createAccountHandler(deps.Checkout))

	sessioned.GET("/orders", listOrdersHandler(deps.Orders))
	sessioned.GET("/orders/:id", getOrderHandler(deps.Orders))
	sessioned.POST("/orders/:id/cancel", cancelOrderHandler(deps.Orders))

	sessioned.GET("/me/wishlist", listWishlistHandler(deps.Wishlists))
	sessioned.POST("/me/wishlist", addWishlistHandler(deps.Wishlists))
	sessioned.DELETE("/me/wishlist/:variantID", removeWishlistHandler(deps.Wishlists))

	sessioned.GET("/me", meHandler(deps.Customers))
	sessioned.GET("/me/addresses", listAddressesHandler(deps.Customers))
	sessioned.POST("/me/addresses", saveAddressHandler(deps.Customers))
	sessioned.DELETE("/me/addresses/:addressID", deleteAddressHandler(deps.Customers))

	return router, nil
}
