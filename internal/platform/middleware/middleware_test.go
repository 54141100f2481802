package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func invoke(t *testing.T, mw echo.MiddlewareFunc, req *http.Request, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := mw(h)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRequestID_Generated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := invoke(t, RequestID(), req, func(c echo.Context) error {
		rid, _ := c.Get("request_id").(string)
		if rid == "" {
			t.Error("request_id not set on context")
		}
		return c.NoContent(http.StatusOK)
	})
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set on response")
	}
}

func TestRequestID_Honored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given-id")
	rec := invoke(t, RequestID(), req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if got := rec.Header().Get("X-Request-ID"); got != "given-id" {
		t.Errorf("X-Request-ID = %q, want given-id", got)
	}
}

func TestRecovery_CatchesPanic(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := invoke(t, Recovery(zerolog.Nop()), req, func(c echo.Context) error {
		panic("boom")
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestBodyLimit_RejectsOversized(t *testing.T) {
	body := strings.Repeat("x", 100)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := invoke(t, BodyLimit(10), req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestBodyLimit_AllowsSmall(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("ok"))
	rec := invoke(t, BodyLimit(10), req, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimit_Exhaustion(t *testing.T) {
	mw := RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		statuses = append(statuses, invoke(t, mw, req, ok).Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want 200s", statuses[:2])
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", statuses[2])
	}
}
