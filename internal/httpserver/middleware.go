package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"toystore/internal/domain"
	customersvc "toystore/internal/service/customer"
	"toystore/internal/session"
)

const (
	sessionCookie   = "toystore_session"
	sessionCtxKey   = "session"
	requestIDHeader = "X-Request-ID"
)

// requestIDMiddleware tags every request so log lines can be correlated. An
// id supplied by the caller is passed through.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// sessionMiddleware loads the visitor's session from the cookie, creating a
// fresh anonymous one when absent or expired, and saves it back after the
// handler runs.
func sessionMiddleware(store session.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session
		if id, err := c.Cookie(sessionCookie); err == nil && id != "" {
			sess, err = store.Get(c.Request.Context(), id)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
				return
			}
		}
		if sess == nil {
			fresh, err := session.New()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session store unavailable"})
				return
			}
			sess = fresh
		}

		c.Set(sessionCtxKey, sess)
		c.Next()

		if err := store.Save(c.Request.Context(), sess); err != nil {
			return
		}
		maxAge := int(ttl / time.Second)
		c.SetCookie(sessionCookie, sess.ID, maxAge, "/", "", false, true)
	}
}

// identityMiddleware upgrades the session to a registered identity when a
// valid bearer token accompanies the request. An invalid token is ignored;
// the request proceeds as whatever the session already was.
func identityMiddleware(customers *customersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.Next()
			return
		}
		customer, err := customers.LookupByToken(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}
		sess := currentSession(c)
		sess.IdentityMode = domain.IdentityRegistered
		sess.CustomerID = customer.ID
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionCtxKey).(*session.Session)
}

// requireRegistered guards the account endpoints.
func requireRegistered(c *gin.Context) (*session.Session, bool) {
	sess := currentSession(c)
	if sess.IdentityMode != domain.IdentityRegistered || sess.CustomerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil, false
	}
	return sess, true
}
