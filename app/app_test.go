package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"theater_inventory/models"
	"theater_inventory/session"

	"github.com/gin-gonic/gin"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL_SECONDS", "60")
	t.Setenv("LAST_SEEN_THROTTLE_SECONDS", "nope")
	t.Setenv("ADMIN_EMAILS", " Boss@Theater.test, ,ops@theater.test")
	t.Setenv("DEFAULT_STORAGE_NAME", "Basement")

	cfg := LoadConfig()
	if cfg.Port != "3001" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.SessionTTL != time.Minute {
		t.Errorf("session ttl = %v", cfg.SessionTTL)
	}
	if cfg.LastSeenThrottle != 5*time.Minute {
		t.Errorf("throttle = %v", cfg.LastSeenThrottle)
	}
	if len(cfg.AdminEmails) != 2 || cfg.DefaultStorageName != "Basement" {
		t.Errorf("config = %+v", cfg)
	}
	if !cfg.IsAdminName("boss@theater.TEST ") || cfg.IsAdminName("crew@theater.test") {
		t.Error("admin list lookup is wrong")
	}
}

type stubSessions map[string]string

func (s stubSessions) Get(_ context.Context, id string) (*session.AppSession, error) {
	if uid, ok := s[id]; ok {
		return &session.AppSession{UserID: uid}, nil
	}
	return nil, session.ErrNoSession
}

type stubUsers map[string]models.User

func (s stubUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return &u, nil
	}
	return nil, errors.New("no such user")
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := stubSessions{"s-admin": "u1", "s-crew": "u2", "s-flag": "u3", "s-gone": "u9"}
	users := stubUsers{
		"u1": {ID: "u1", Username: "boss@theater.test"},
		"u2": {ID: "u2", Username: "crew@theater.test"},
		"u3": {ID: "u3", Username: "lead@theater.test", IsAdmin: true},
	}
	cfg := Config{AdminEmails: []string{"boss@theater.test"}}

	r := gin.New()
	r.Use(AuthRequired(sessions, users, cfg))
	r.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("username")) })
	r.GET("/admin", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		name, path string
		cookie     bool
		sid        string
		want       int
	}{
		{"missing", "/me", false, "", http.StatusUnauthorized},
		{"unknown session", "/me", false, "nope", http.StatusUnauthorized},
		{"deleted user", "/me", false, "s-gone", http.StatusUnauthorized},
		{"bearer", "/me", false, "s-crew", http.StatusOK},
		{"cookie", "/me", true, "s-crew", http.StatusOK},
		{"crew on admin route", "/admin", false, "s-crew", http.StatusForbidden},
		{"admin by env list", "/admin", false, "s-admin", http.StatusNoContent},
		{"admin by flag", "/admin", true, "s-flag", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			switch {
			case tc.sid == "":
			case tc.cookie:
				req.AddCookie(&http.Cookie{Name: AppSessionCookie, Value: tc.sid})
			default:
				req.Header.Set("Authorization", "Bearer "+tc.sid)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	useCORS(r, "https://desk.theater.test/, https://crew.theater.test")
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		origin string
		allow  bool
	}{
		{"https://desk.theater.test", true},
		{"https://crew.theater.test", true},
		{"https://elsewhere.test", false},
	}
	for _, tc := range cases {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			got := rec.Header().Get("Access-Control-Allow-Origin")
			if (got == tc.origin) != tc.allow {
				t.Fatalf("allow-origin = %q for %s", got, tc.origin)
			}
		})
	}
}
