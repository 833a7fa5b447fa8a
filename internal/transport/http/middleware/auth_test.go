package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"etmam/internal/domain/auth"
)

func TestAuthMiddlewareCookieToken(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{
		UserID:          "u1",
		Email:           "ops@etmam.example",
		Role:            auth.RoleOperations,
		IsActive:        true,
		AllowedSections: []string{auth.SectionTimesheets},
	}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok {
			t.Fatal("expected user in context")
		}
		if user.Email != "ops@etmam.example" || user.Role != auth.RoleOperations {
			t.Fatalf("unexpected user: %+v", user)
		}
		if !user.HasSection(auth.SectionTimesheets) {
			t.Fatal("expected timesheets section grant")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareBearerFallback(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u2", Email: "f@etmam.example", Role: auth.RoleFinance, IsActive: true}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := GetUser(r.Context())
		if !ok || user.UserID != "u2" {
			t.Fatalf("expected bearer user, got %+v ok=%v", user, ok)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareInactiveTokenIgnored(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u3", Email: "x@etmam.example", Role: auth.RoleSales, IsActive: false}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("inactive token must leave request anonymous")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); ok {
			t.Fatal("did not expect user in context")
		}
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequireRole(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u4", Email: "s@etmam.example", Role: auth.RoleSales, IsActive: true}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	var called bool
	chain := Auth(secret)(RequireRole(auth.RoleFinance, auth.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodPost, "/timesheets/approve", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)

	if called {
		t.Fatal("sales role must not reach a finance-gated handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	anon := httptest.NewRecorder()
	chain.ServeHTTP(anon, httptest.NewRequest(http.MethodPost, "/timesheets/approve", nil))
	if anon.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", anon.Code)
	}
}

func TestRequireSectionSuperAdminBypass(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{UserID: "u5", Email: "root@etmam.example", Role: auth.RoleSuperAdmin, IsActive: true}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	var called bool
	chain := Auth(secret)(RequireSection(auth.SectionQuotations)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodGet, "/quotations", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	chain.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("super_admin should bypass section grants")
	}
}
