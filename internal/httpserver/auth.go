package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"toystore/internal/domain"
	customersvc "toystore/internal/service/customer"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signupHandler(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customersvc.SignupInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		customer, err := customers.Signup(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, customer)
	}
}

func loginHandler(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		customer, token, err := customers.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customer": customer, "token": token})
	}
}

func meHandler(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		customer, err := customers.GetByID(c.Request.Context(), sess.CustomerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, customer)
	}
}

func listAddressesHandler(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		shipping, err := customers.ListShippingAddresses(ctx, sess.CustomerID)
		if err != nil {
			respondError(c, err)
			return
		}
		billing, err := customers.GetBillingAddress(ctx, sess.CustomerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shipping": shipping, "billing": billing})
	}
}

type saveAddressRequest struct {
	Nickname string         `json:"nickname"`
	Billing  bool           `json:"billing"`
	Address  domain.Address `json:"address"`
}

func saveAddressHandler(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		var req saveAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}

		ctx := c.Request.Context()
		var (
			saved *domain.CustomerAddress
			err   error
		)
		if req.Billing {
			saved, err = customers.SaveBillingAddress(ctx, sess.CustomerID, req.Address)
		} else {
			saved, err = customers.SaveShippingAddress(ctx, sess.CustomerID, req.Nickname, req.Address)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, saved)
	}
}

func deleteAddressHandler(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := requireRegistered(c)
		if !ok {
			return
		}
		if err := customers.DeleteAddress(c.Request.Context(), sess.CustomerID, c.Param("addressID")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
