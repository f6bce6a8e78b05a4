package routes

import (
	"log"
	"net/http"
	"strings"

	"theater_inventory/app"
	"theater_inventory/controllers"
	"theater_inventory/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	Mount(r, controllers.GetSrv(a), a.AppSessions(), a.RDB)
}

// Mount registers every API route. rdb may be nil, which turns off
// last-seen tracking.
func Mount(r *gin.Engine, s *controllers.Srv, sessions app.SessionStore, rdb redis.Cmdable) {
	inv := controllers.NewInventoryController(s)
	reg := controllers.NewRegistryController(s)

	// 复用的中间件
	authMW := app.AuthRequired(sessions, s.Repo, s.Cfg)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, rdb, s.Cfg.LastSeenThrottle)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 登出：删 Redis 会话（Cookie 或 Bearer），Cookie 置空
	secureCookie := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	r.POST("/api/logout", authMW, func(c *app.Ctx) {
		if sid := app.SessionID(c); sid != "" {
			if err := sessions.Delete(c.Request.Context(), sid); err != nil {
				log.Printf("[logout] %v", err)
			}
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     app.AppSessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   secureCookie,
		})
		c.JSON(http.StatusOK, app.H{"ok": true})
	})

	api := r.Group("/api", authMW, seenMW)
	{
		api.GET("/whoami", s.WhoAmI)

		api.GET("/items", reg.ListItems) // ?q=&status=&page=&size=
		api.GET("/items/:id", reg.GetItem)
		api.GET("/items/:id/availability", inv.Availability)
		api.POST("/items/:id/validate", inv.Validate)
		api.GET("/items/:id/history", inv.History)
		api.POST("/items/:id/allocations", inv.Allocate)
		api.POST("/items/:id/event-requests", inv.RequestForEvent)

		api.POST("/allocations/:id/return", inv.Return)
		api.POST("/allocations/:id/move", inv.Move)
		api.POST("/allocations/:id/status", inv.Transition)
		api.POST("/allocations/:id/rerequest", inv.Rerequest)

		api.GET("/locations/:id/inventory", inv.LocationInventory)
	}

	// ------------------------------
	// 登记（仅管理员）
	// ------------------------------
	admin := api.Group("/admin", adminMW)
	{
		admin.POST("/items", reg.CreateItem)
		admin.PUT("/items/:id/placement", reg.SetPlacement)
		admin.POST("/locations", reg.CreateLocation)
		admin.POST("/events", reg.CreateEvent)
	}
}
