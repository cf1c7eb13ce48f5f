package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kyac99/finance-gestion-app/internal/config"
	"github.com/Kyac99/finance-gestion-app/internal/infrastructure/database/gormdb"
	apihttp "github.com/Kyac99/finance-gestion-app/internal/interfaces/http"
	"github.com/Kyac99/finance-gestion-app/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const adminPassword = "Ledger#2024x"

type envelope struct {
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details"`
	Data    json.RawMessage        `json:"data"`
}

type apiClient struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (a *apiClient) do(method, path string, body interface{}) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (a *apiClient) data(env envelope, dest interface{}) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(env.Data, dest), string(env.Data))
}

func newTestAPI(t *testing.T) (*apiClient, *apihttp.Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App:    config.AppConfig{Name: "finance-gestion", Version: "1.0.0", Environment: "test"},
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		JWT: config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{BcryptCost: bcrypt.MinCost},
		Business: config.BusinessConfig{Currency: "XOF", InvoiceDueDays: 30, DashboardWindowDays: 180},
	}
	db := testutil.NewDB(t, gormdb.Models()...)
	log, _ := testutil.NullLogger()

	srv := apihttp.NewServer(cfg, db, nil, log)
	_, err := srv.Services().Users.EnsureAdmin(context.Background(), "admin@example.com", adminPassword)
	require.NoError(t, err)

	return &apiClient{t: t, handler: srv.Handler()}, srv, db
}

func (a *apiClient) login(email, password string) {
	a.t.Helper()
	status, env := a.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, status, env.Error)

	var resp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	a.data(env, &resp)
	a.token = resp.Tokens.AccessToken
}

func TestHealthAndReady(t *testing.T) {
	api, _, _ := newTestAPI(t)

	status, _ := api.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	api.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"ok"`)
	assert.NotContains(t, w.Body.String(), "redis")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api, _, _ := newTestAPI(t)

	status, env := api.do(http.MethodGet, "/api/v1/suppliers", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization header required", env.Error)

	status, _ = api.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "admin@example.com", "password": "Wrong#2024x"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestErrorMapping(t *testing.T) {
	api, _, _ := newTestAPI(t)
	api.login("admin@example.com", adminPassword)

	status, env := api.do(http.MethodPost, "/api/v1/suppliers", map[string]string{"contact_email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", env.Error)
	assert.Equal(t, "is required", env.Details["name"])
	assert.Equal(t, "must be a valid email address", env.Details["contact_email"])

	status, env = api.do(http.MethodGet, "/api/v1/products/999", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "product not found", env.Error)

	status, env = api.do(http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid product ID", env.Error)

	status, env = api.do(http.MethodPost, "/api/v1/sales", map[string]interface{}{
		"customer_id": 1,
		"items":       []map[string]interface{}{{"product_id": 1, "quantity": 0}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Details, "items[0].quantity")
}

func TestSaleDeliveryFlow(t *testing.T) {
	api, _, _ := newTestAPI(t)
	api.login("admin@example.com", adminPassword)

	status, env := api.do(http.MethodPost, "/api/v1/customers", map[string]string{"name": "Awa Traoré", "email": "awa@example.com"})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var customer struct{ ID uint }
	api.data(env, &customer)

	status, env = api.do(http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":           "Solar lamp",
		"buying_price":   "600",
		"selling_price":  "1000",
		"stock_quantity": 10,
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var product struct{ ID uint }
	api.data(env, &product)

	status, env = api.do(http.MethodPost, "/api/v1/sales", map[string]interface{}{
		"customer_id": customer.ID,
		"status":      "confirmed",
		"items":       []map[string]interface{}{{"product_id": product.ID, "quantity": 2, "unit_price": "1000"}},
	})
	require.Equal(t, http.StatusCreated, status, env.Error)
	var sale struct {
		ID            uint   `json:"id"`
		PaymentStatus string `json:"payment_status"`
		CustomerName  string `json:"customer_name"`
	}
	api.data(env, &sale)
	assert.Equal(t, "Awa Traoré", sale.CustomerName)
	assert.Equal(t, "unpaid", sale.PaymentStatus)

	var stock struct {
		StockQuantity int `json:"stock_quantity"`
	}
	_, env = api.do(http.MethodGet, "/api/v1/products/1", nil)
	api.data(env, &stock)
	assert.Equal(t, 8, stock.StockQuantity)

	status, env = api.do(http.MethodPost, "/api/v1/sales/1/deliver", nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var delivered struct {
		Status  string `json:"status"`
		Invoice struct {
			InvoiceNumber string `json:"invoice_number"`
			Status        string `json:"status"`
		} `json:"invoice"`
	}
	api.data(env, &delivered)
	assert.Equal(t, "delivered", delivered.Status)
	assert.Equal(t, "INV-00001", delivered.Invoice.InvoiceNumber)
	assert.Equal(t, "sent", delivered.Invoice.Status)

	status, env = api.do(http.MethodPost, "/api/v1/sales/1/deliver", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "sale is already marked as delivered", env.Error)

	status, env = api.do(http.MethodPost, "/api/v1/sales/1/payments", map[string]interface{}{
		"amount":         "2000",
		"payment_method": "mobile_money",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	_, env = api.do(http.MethodGet, "/api/v1/sales/1", nil)
	api.data(env, &sale)
	assert.Equal(t, "paid", sale.PaymentStatus)

	status, env = api.do(http.MethodGet, "/api/v1/dashboard/customer-payments", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Data))

	status, env = api.do(http.MethodPost, "/api/v1/invoices/1/mark-paid", nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	status, env = api.do(http.MethodPost, "/api/v1/invoices/1/email", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email delivery is not configured", env.Error)
}

func TestAdminRoutes(t *testing.T) {
	api, _, _ := newTestAPI(t)
	api.login("admin@example.com", adminPassword)

	status, env := api.do(http.MethodPost, "/api/v1/auth/users", map[string]interface{}{
		"email":    "clerk@example.com",
		"password": "Stock!2025y",
	})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, _ = api.do(http.MethodPost, "/api/v1/auth/users", map[string]interface{}{
		"email":    "clerk@example.com",
		"password": "Stock!2025y",
	})
	assert.Equal(t, http.StatusConflict, status)

	clerk := &apiClient{t: t, handler: api.handler}
	clerk.login("clerk@example.com", "Stock!2025y")

	status, _ = clerk.do(http.MethodGet, "/api/v1/auth/users", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env = clerk.do(http.MethodGet, "/api/v1/auth/profile", nil)
	require.Equal(t, http.StatusOK, status)
	var profile struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	clerk.data(env, &profile)
	assert.Equal(t, "clerk@example.com", profile.Email)
	assert.Empty(t, profile.Password)

	status, _ = clerk.do(http.MethodPost, "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusOK, status)
}
