package app

import (
	"context"
	"net/http"
	"strings"

	"theater_inventory/models"
	"theater_inventory/session"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

// SessionGetter resolves a session id; *session.AppSessionStore implements it.
type SessionGetter interface {
	Get(ctx context.Context, id string) (*session.AppSession, error)
}

// SessionStore adds logout to SessionGetter.
type SessionStore interface {
	SessionGetter
	Delete(ctx context.Context, id string) error
}

type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// SessionID reads the session from the cookie, falling back to a bearer token.
func SessionID(c *gin.Context) string {
	if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func AuthRequired(appSess SessionGetter, users UserFinder, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := SessionID(c)
		if sid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), sid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		// 这里确认用户仍存在，并把 isAdmin 放进 Context（只查一次）
		u, err := users.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("isAdmin", u.IsAdmin || cfg.IsAdminName(u.Username))

		c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get("userID"); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !c.GetBool("isAdmin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
