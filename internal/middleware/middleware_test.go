package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/01moynul/pharmastore-golang/internal/apperrors"
	"github.com/01moynul/pharmastore-golang/internal/auth"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/ratelimit"
)

type fakeUsers map[int64]*models.User

func (f fakeUsers) GetUser(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", id)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetInt64(KeyUserID), "role": c.GetString(KeyUserRole)})
	})
	return r
}

func get(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthAndRoles(t *testing.T) {
	pharmacy := int64(7)
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleCustomer, Active: true},
		2: {ID: 2, Role: models.RoleStaff, Active: true, PharmacyID: &pharmacy},
		3: {ID: 3, Role: models.RoleCustomer, Active: false},
		4: {ID: 4, Role: models.RoleStaff, Active: true},
	}
	tokens := auth.NewManager("secret", time.Hour)
	bearer := func(id int64) map[string]string {
		tok, _ := tokens.GenerateToken(id, users[id].Role)
		return map[string]string{"Authorization": "Bearer " + tok}
	}
	staffOnly := newEngine(Auth(tokens, users), RequireRole(models.RoleStaff))

	cases := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"no header", nil, http.StatusUnauthorized},
		{"not bearer", map[string]string{"Authorization": "Token abc"}, http.StatusUnauthorized},
		{"bad token", map[string]string{"Authorization": "Bearer abc"}, http.StatusUnauthorized},
		{"customer on staff route", bearer(1), http.StatusForbidden},
		{"staff", bearer(2), http.StatusOK},
		{"disabled", bearer(3), http.StatusForbidden},
		{"staff without pharmacy", bearer(4), http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if w := get(staffOnly, tc.header); w.Code != tc.want {
				t.Fatalf("status %d, want %d: %s", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	r := newEngine(RateLimit(ratelimit.NewMemoryStore(0.001, 2, time.Minute)))
	for i := 0; i < 2; i++ {
		if w := get(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: %d", i, w.Code)
		}
	}
	if w := get(r, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestCallbackToken(t *testing.T) {
	r := newEngine(CallbackToken("s3cret"))
	if w := get(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}
	if w := get(r, map[string]string{HeaderCallbackToken: "s3cret"}); w.Code != http.StatusOK {
		t.Fatalf("valid token: %d", w.Code)
	}
	if w := get(newEngine(CallbackToken("")), nil); w.Code != http.StatusOK {
		t.Fatalf("disabled check: %d", w.Code)
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	if w := get(r, nil); w.Header().Get(HeaderRequestID) == "" {
		t.Fatalf("request id not generated")
	}
	if w := get(r, map[string]string{HeaderRequestID: "abc"}); w.Header().Get(HeaderRequestID) != "abc" {
		t.Fatalf("incoming request id not reused")
	}
}
