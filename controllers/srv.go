// controllers/srv.go
package controllers

import (
	"errors"
	"log"
	"net/http"

	"theater_inventory/app"
	"theater_inventory/db"
	"theater_inventory/inventory"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Srv struct {
	Repo *db.Repo
	Cfg  app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{Repo: a.Repo, Cfg: a.Config}
}

// --- helpers ---

// actor is the user id AuthRequired put on the context.
func actor(c *gin.Context) (string, bool) {
	uid := c.GetString("userID")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return "", false
	}
	return uid, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var ce *inventory.ConflictError
	switch {
	case errors.As(err, &ce):
		c.JSON(http.StatusConflict, app.H{
			"error":     err.Error(),
			"conflicts": ce.Result.Conflicts,
			"warnings":  ce.Result.Warnings,
		})
	case errors.Is(err, inventory.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, app.H{"error": "already exists"})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}

func (s *Srv) WhoAmI(c *gin.Context) {
	uid, ok := actor(c)
	if !ok {
		return
	}
	u, err := s.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"userID":      u.ID,
		"username":    u.Username,
		"displayName": u.DisplayName,
		"isAdmin":     c.GetBool("isAdmin"),
	})
}
