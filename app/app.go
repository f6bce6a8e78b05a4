package app

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"theater_inventory/db"
	"theater_inventory/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Repo   *db.Repo
	Config Config

	appSess *session.AppSessionStore
}

// Config 从环境变量读取
type Config struct {
	Port               string
	RedisAddr          string
	RedisPwd           string
	WebOrigin          string
	SessionTTL         time.Duration
	AdminEmails        []string
	LastSeenThrottle   time.Duration
	DefaultStorageName string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// MustNew wires database, redis and the router, or exits.
func MustNew() *App {
	cfg := LoadConfig()
	dbConn := db.ConnectDB()
	rdb := MustRedis(cfg)

	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	return &App{
		Router: r, DB: dbConn, RDB: rdb, Repo: db.NewRepo(dbConn), Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
}

func MustRedis(cfg Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}
	return rdb
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func LoadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	seconds := func(k string, def time.Duration) time.Duration {
		n, err := strconv.Atoi(os.Getenv(k))
		if err != nil || n <= 0 {
			return def
		}
		return time.Duration(n) * time.Second
	}

	adminsCSV := os.Getenv("ADMIN_EMAILS") // 例如: "admin@ex.com,ops@ex.com"
	var admins []string
	for _, s := range strings.Split(adminsCSV, ",") {
		if t := strings.TrimSpace(s); t != "" {
			admins = append(admins, strings.ToLower(t))
		}
	}
	return Config{
		Port:               get("PORT", "3001"),
		RedisAddr:          get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:           os.Getenv("REDIS_PASSWORD"),
		WebOrigin:          get("WEB_ORIGIN", "http://localhost:5173"),
		SessionTTL:         seconds("SESSION_TTL_SECONDS", 24*time.Hour),
		AdminEmails:        admins,
		LastSeenThrottle:   seconds("LAST_SEEN_THROTTLE_SECONDS", 5*time.Minute),
		DefaultStorageName: get("DEFAULT_STORAGE_NAME", "Storage"),
	}
}

// IsAdminName reports whether username is listed in ADMIN_EMAILS.
func (c Config) IsAdminName(username string) bool {
	u := strings.ToLower(strings.TrimSpace(username))
	for _, admin := range c.AdminEmails {
		if u == admin {
			return true
		}
	}
	return false
}
