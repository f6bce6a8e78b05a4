// app/seenmw.go
package app

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type SeenToucher interface {
	TouchUserSeen(ctx context.Context, userID string) error
}

// TouchLastSeen records user activity at most once per throttle window.
// A nil redis client disables it.
func TouchLastSeen(users SeenToucher, rdb redis.Cmdable, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString("userID")
		if rdb == nil || uid == "" {
			c.Next()
			return
		}

		key := "inv:user:lastseen:" + uid
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			if err := users.TouchUserSeen(c, uid); err != nil {
				log.Printf("[seen] %s: %v", uid, err) // 不阻塞请求
			}
		}
		c.Next()
	}
}
