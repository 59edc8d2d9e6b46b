package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/chatdesk-team/chatdesk/pkg/jwt"
)

func protectedEcho(manager *jwt.Manager) *echo.Echo {
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		role, _ := c.Get(RoleContextKey).(string)
		return c.String(http.StatusOK, role)
	}, EchoAuth(manager))
	return e
}

func TestEchoAuth_ValidBearerToken(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour, "")
	token, err := manager.GenerateAccessToken("dashboard", "admin")
	if err != nil {
		t.Fatalf("token mint failed: %v", err)
	}

	e := protectedEcho(manager)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "admin" {
		t.Fatalf("role not propagated, got %q", rec.Body.String())
	}
}

func TestEchoAuth_CookieFallback(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour, "")
	token, err := manager.GenerateAccessToken("dashboard", "admin")
	if err != nil {
		t.Fatalf("token mint failed: %v", err)
	}

	e := protectedEcho(manager)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestEchoAuth_MissingToken(t *testing.T) {
	e := protectedEcho(jwt.NewManager("test-secret", time.Hour, ""))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestEchoAuth_RejectsBadTokens(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour, "")
	e := protectedEcho(manager)

	expired, err := jwt.NewManager("test-secret", -time.Minute, "").GenerateAccessToken("dashboard", "admin")
	if err != nil {
		t.Fatalf("token mint failed: %v", err)
	}
	foreign, err := jwt.NewManager("other-secret", time.Hour, "").GenerateAccessToken("dashboard", "admin")
	if err != nil {
		t.Fatalf("token mint failed: %v", err)
	}

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"garbage":      "not.a.jwt",
	} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rec.Code)
		}
	}
}
