package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest("GET", "/?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=5&offset=10", 5, 10},
		{"limit capped", "limit=500", MaxLimit, 0},
		{"negative ignored", "limit=-1&offset=-3", DefaultLimit, 0},
		{"garbage ignored", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got %+v, want limit=%d offset=%d", p, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestHasNext(t *testing.T) {
	p := Params{Limit: 10, Offset: 0}
	if !p.HasNext(25) {
		t.Error("expected next page at offset 0 of 25")
	}
	p.Offset = 20
	if p.HasNext(25) {
		t.Error("expected no next page at offset 20 of 25")
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2, 3}, 30, 3, 0)
	if !r.HasMore {
		t.Error("expected HasMore with 30 total and 3 returned")
	}
	r = NewResponse([]int{1}, 1, 20, 0)
	if r.HasMore {
		t.Error("expected no more with total 1")
	}
}

func TestSQL(t *testing.T) {
	got := Params{Limit: 10, Offset: 40}.SQL()
	if got != "LIMIT 10 OFFSET 40" {
		t.Errorf("SQL() = %q", got)
	}
}
