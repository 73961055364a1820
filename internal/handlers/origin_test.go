package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginGuard(t *testing.T) {
	guard := OriginGuard([]string{"https://shop.example.com", " https://Admin.Example.com/ "})

	tests := []struct {
		name   string
		method string
		origin string
		status int
	}{
		{"safe method ignores origin", http.MethodGet, "https://evil.example.com", http.StatusOK},
		{"head ignores origin", http.MethodHead, "https://evil.example.com", http.StatusOK},
		{"options ignores origin", http.MethodOptions, "https://evil.example.com", http.StatusOK},
		{"absent origin passes", http.MethodPost, "", http.StatusOK},
		{"localhost passes", http.MethodPost, "http://localhost:3000", http.StatusOK},
		{"loopback ip passes", http.MethodPost, "http://127.0.0.1:5173", http.StatusOK},
		{"ipv6 loopback passes", http.MethodPost, "http://[::1]:3000", http.StatusOK},
		{"allow-listed origin passes", http.MethodPost, "https://shop.example.com", http.StatusOK},
		{"allow-list is case-insensitive", http.MethodPost, "https://ADMIN.example.com", http.StatusOK},
		{"trailing slash is normalized", http.MethodPost, "https://shop.example.com/", http.StatusOK},
		{"unlisted origin rejected", http.MethodPost, "https://evil.example.com", http.StatusForbidden},
		{"unlisted delete rejected", http.MethodDelete, "https://evil.example.com", http.StatusForbidden},
		{"subdomain is not implied", http.MethodPost, "https://sub.shop.example.com", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tc.method, "/orders", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusOK, reached)
		})
	}
}

// A valid session must not override the origin check.
func TestOriginGuardAppliesBeforeAuth(t *testing.T) {
	app := newTestApp(t)
	cookie := app.register(t, "alice@example.com", "Alice", "correct horse")

	guarded := chiWithGuard(app, []string{"https://shop.example.com"})

	req := httptest.NewRequest(http.MethodPost, "/orders/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func chiWithGuard(app *testApp, allowed []string) http.Handler {
	return OriginGuard(allowed)(app.router)
}
