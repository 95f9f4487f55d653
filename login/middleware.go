package login

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "session"
	ctxUserID  = "user_id"
	ctxSession = "session"
)

func tokenFrom(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if v, err := c.Cookie(CookieName); err == nil {
		return v
	}
	return ""
}

// Identify attaches the caller's user id to the context when a valid session
// is presented. Requests without one pass through anonymous.
func Identify(s *Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := tokenFrom(c); tok != "" {
			if sess, err := s.Parse(tok); err == nil {
				c.Set(ctxUserID, sess.UserID)
				c.Set(ctxSession, sess)
			}
		}
		c.Next()
	}
}

// RequireUser rejects anonymous requests. It expects Identify to have run.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id or "".
func UserID(c *gin.Context) string { return c.GetString(ctxUserID) }

func sessionOf(c *gin.Context) *Session {
	v, ok := c.Get(ctxSession)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
