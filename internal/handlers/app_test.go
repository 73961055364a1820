package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/maplecart/apiserver/internal/auth"
	"github.com/maplecart/apiserver/internal/services"
	"github.com/maplecart/apiserver/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testApp wires the full route tree against in-memory repositories, so
// tests exercise the same middleware and routing the server runs.
type testApp struct {
	router *chi.Mux
	users  *fakeUserRepo
	orders *fakeOrderRepo
	tokens *auth.TokenService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	users := newFakeUserRepo()
	orders := newFakeOrderRepo()
	tokens := auth.NewTokenService("test-secret")
	log := zerolog.Nop()

	userService := services.NewUserService(users)
	orderService := services.NewOrderService(orders, nil, nil, log)

	router := chi.NewRouter()
	router.Use(Session(tokens))
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, tokens, false, log)
	})
	router.Route("/orders", func(r chi.Router) {
		OrderRouter(r, orderService, log)
	})
	router.Route("/user/orders", func(r chi.Router) {
		UserOrderRouter(r, orderService, log)
	})
	router.Route("/admin/orders", func(r chi.Router) {
		AdminOrderRouter(r, orderService, log)
	})

	return &testApp{
		router: router,
		users:  users,
		orders: orders,
		tokens: tokens,
	}
}

// do performs a request against the app. A nil body sends no payload; a
// nil cookie sends no session.
func (a *testApp) do(t *testing.T, method, path string, cookie *http.Cookie, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the handler and returns the session
// cookie it minted.
func (a *testApp) register(t *testing.T, email, name, password string) *http.Cookie {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/register", nil, RegisterRequest{
		Email:    email,
		Name:     name,
		Password: password,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return sessionCookie(t, rec)
}

// login signs in through the handler and returns the fresh session cookie.
func (a *testApp) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/auth/login", nil, LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == SessionCookieName {
			return cookie
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// checkoutPayload builds a valid checkout request to be tweaked by tests.
func checkoutPayload() CreateOrderRequest {
	return CreateOrderRequest{
		Items: []OrderItemRequest{
			{ProductID: 7, Name: "Maple Mug", Price: 10.00, Quantity: 2},
		},
		Email: "alice@example.com",
		Phone: "555-0100",
		ShippingAddress: types.ShippingAddress{
			FirstName: "Alice",
			LastName:  "Smith",
			Address1:  "1 Maple St",
			City:      "Springfield",
		},
		TotalAmount: 20.00,
	}
}
