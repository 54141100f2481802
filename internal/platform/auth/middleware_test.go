package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndParseToken(t *testing.T) {
	signed, err := IssueToken(testSecret, time.Hour, "user-1", RoleAdmin, "admin@renovo.test")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := ParseToken(testSecret, signed)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}
	if claims.Role != RoleAdmin {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.Email != "admin@renovo.test" {
		t.Errorf("email = %q", claims.Email)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	signed, err := IssueToken(testSecret, time.Hour, "user-1", RoleUser, "u@renovo.test")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken([]byte("another-secret-another-secret-00"), signed); err == nil {
		t.Fatal("expected error for wrong secret")
	}
}

func TestParseToken_Expired(t *testing.T) {
	signed, err := IssueToken(testSecret, -time.Minute, "user-1", RoleUser, "u@renovo.test")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := ParseToken(testSecret, signed); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, RoleFromContext(c.Request().Context()))
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	signed, _ := IssueToken(testSecret, time.Hour, "user-1", RoleUser, "u@renovo.test")

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad format", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"valid token", "Bearer " + signed, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, JWTMiddleware(testSecret), tt.header)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	rec := doRequest(t, DevAuthMiddleware(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != RoleAdmin {
		t.Errorf("role = %q, want admin", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	adminToken, _ := IssueToken(testSecret, time.Hour, "a", RoleAdmin, "a@renovo.test")
	userToken, _ := IssueToken(testSecret, time.Hour, "u", RoleUser, "u@renovo.test")

	run := func(token string, mw echo.MiddlewareFunc) int {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := JWTMiddleware(testSecret)(mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		}))
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if got := run(adminToken, RequireAdmin()); got != http.StatusOK {
		t.Errorf("admin through RequireAdmin = %d, want 200", got)
	}
	if got := run(userToken, RequireAdmin()); got != http.StatusForbidden {
		t.Errorf("user through RequireAdmin = %d, want 403", got)
	}
	if got := run(userToken, RequireRole(RoleUser)); got != http.StatusOK {
		t.Errorf("user through RequireRole(user) = %d, want 200", got)
	}
	if got := run(adminToken, RequireRole(RoleUser)); got != http.StatusOK {
		t.Errorf("admin bypasses role checks = %d, want 200", got)
	}
}
