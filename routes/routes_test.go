package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"theater_inventory/app"
	"theater_inventory/controllers"
	"theater_inventory/db"
	"theater_inventory/session"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeSessions map[string]string

func (f fakeSessions) Get(_ context.Context, id string) (*session.AppSession, error) {
	uid, ok := f[id]
	if !ok {
		return nil, session.ErrNoSession
	}
	return &session.AppSession{UserID: uid}, nil
}

func (f fakeSessions) Delete(_ context.Context, id string) error {
	delete(f, id)
	return nil
}

func testServer(t *testing.T) (*gin.Engine, *db.Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := conn.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := db.NewRepo(conn)

	ctx := context.Background()
	boss, err := repo.FindOrCreateUser(ctx, "boss@theater.test", "aaaaaaaa-0000-0000-0000-000000000001")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	crew, err := repo.FindOrCreateUser(ctx, "crew@theater.test", "aaaaaaaa-0000-0000-0000-000000000002")
	if err != nil {
		t.Fatalf("user: %v", err)
	}

	cfg := app.Config{AdminEmails: []string{"boss@theater.test"}}
	sessions := fakeSessions{"boss-token": boss.ID, "crew-token": crew.ID}

	r := gin.New()
	Mount(r, &controllers.Srv{Repo: repo, Cfg: cfg}, sessions, nil)
	return r, repo
}

func do(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestAuth(t *testing.T) {
	r, _ := testServer(t)

	cases := []struct {
		name, method, path, token string
		want                      int
	}{
		{"health is public", http.MethodGet, "/healthz", "", http.StatusOK},
		{"metrics are public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"no session", http.MethodGet, "/api/whoami", "", http.StatusUnauthorized},
		{"unknown session", http.MethodGet, "/api/whoami", "stale", http.StatusUnauthorized},
		{"crew whoami", http.MethodGet, "/api/whoami", "crew-token", http.StatusOK},
		{"crew cannot register", http.MethodPost, "/api/admin/locations", "crew-token", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, tc.method, tc.path, tc.token, map[string]any{"name": "x"})
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestLogoutEndsBearerSession(t *testing.T) {
	r, _ := testServer(t)

	if rec := do(r, http.MethodPost, "/api/logout", "crew-token", nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(r, http.MethodGet, "/api/whoami", "crew-token", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("whoami after logout = %d, want 401", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/api/whoami", "boss-token", nil); rec.Code != http.StatusOK {
		t.Fatalf("other session affected: %d", rec.Code)
	}
}

func TestAllocationFlow(t *testing.T) {
	r, _ := testServer(t)

	var loc struct{ ID string }
	rec := do(r, http.MethodPost, "/api/admin/locations", "boss-token", map[string]any{"name": "Stage Left"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create location: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &loc)

	var item struct{ ID string }
	rec = do(r, http.MethodPost, "/api/admin/items", "boss-token", map[string]any{
		"name": "Follow spot", "serial": "FS-1", "totalQuantity": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create item: %d %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &item)

	rec = do(r, http.MethodPost, "/api/items/"+item.ID+"/allocations", "crew-token", map[string]any{
		"locationId": loc.ID, "quantity": 1, "status": "checked-out",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("allocate: %d %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Allocation struct{ ID string }
	}
	decode(t, rec, &created)

	rec = do(r, http.MethodPost, "/api/items/"+item.ID+"/validate", "crew-token", map[string]any{"status": "in-use", "quantity": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: %d %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Valid     bool
		Conflicts []struct{ Code string }
	}
	decode(t, rec, &res)
	found := false
	for _, c := range res.Conflicts {
		found = found || c.Code == "mutual-exclusivity"
	}
	if res.Valid || !found {
		t.Fatalf("validate result = %s", rec.Body.String())
	}

	rec = do(r, http.MethodPost, "/api/items/"+item.ID+"/allocations", "crew-token", map[string]any{"locationId": loc.ID, "quantity": 1})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second allocate: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, http.MethodGet, "/api/items/"+item.ID+"/availability", "crew-token", nil)
	var view struct{ AvailableQuantity int }
	decode(t, rec, &view)
	if view.AvailableQuantity != 0 {
		t.Fatalf("available = %d, want 0", view.AvailableQuantity)
	}

	rec = do(r, http.MethodPost, "/api/allocations/"+created.Allocation.ID+"/return", "crew-token", map[string]any{"notes": "after show"})
	if rec.Code != http.StatusOK {
		t.Fatalf("return: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(r, http.MethodGet, "/api/items/"+item.ID+"/history", "crew-token", nil)
	var hist struct {
		Items []struct{ Action string }
	}
	decode(t, rec, &hist)
	if len(hist.Items) != 2 || hist.Items[0].Action != "returned" {
		t.Fatalf("history = %s", rec.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	r, _ := testServer(t)

	cases := []struct {
		name, method, path string
		body               any
		want               int
	}{
		{"unknown item", http.MethodGet, "/api/items/missing/availability", nil, http.StatusNotFound},
		{"unknown allocation", http.MethodPost, "/api/allocations/missing/return", nil, http.StatusNotFound},
		{"unknown location", http.MethodGet, "/api/locations/missing/inventory", nil, http.StatusNotFound},
		{"missing fields", http.MethodPost, "/api/items/missing/allocations", map[string]any{}, http.StatusBadRequest},
		{"missing status", http.MethodPost, "/api/allocations/missing/status", map[string]any{}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, tc.method, tc.path, "crew-token", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}
