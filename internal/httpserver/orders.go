package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ordersvc "toystore/internal/service/order"
)

func listOrdersHandler(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		if sess.CustomerID == "" {
			c.JSON(http.StatusOK, gin.H{"orders": []any{}})
			return
		}
		list, err := orders.ListByCustomer(c.Request.Context(), sess.CustomerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

func getOrderHandler(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		order, err := orders.Get(c.Request.Context(), c.Param("id"), sess.CustomerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func cancelOrderHandler(orders *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := currentSession(c)
		order, err := orders.Cancel(c.Request.Context(), c.Param("id"), sess.CustomerID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
