package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesystem/m/domain"
	"salesystem/m/internal/config"
	"salesystem/m/internal/database"
	"salesystem/m/internal/migrations"
	"salesystem/m/internal/seed"
)

const testSecret = "test_secret"

func setupTestServer(t *testing.T) (*httptest.Server, *database.Store) {
	t.Helper()
	cfg := config.Default()
	cfg.Name = filepath.Join(t.TempDir(), "pos")
	store := database.New(cfg)
	t.Cleanup(func() { _ = store.Close() })
	require.True(t, migrations.Run(store))
	require.Equal(t, 10, seed.LoadSampleProducts(store))

	srv := httptest.NewServer(New(store, testSecret).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	obj, _ := out.(map[string]any)
	if list, ok := out.([]any); ok {
		obj = map[string]any{"items": list}
	}
	return resp, obj
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", loginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login failed: %v", body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthDegradedWithoutDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = "oracle"
	srv := httptest.NewServer(New(database.New(cfg), testSecret).Router())
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
}

func TestLogin(t *testing.T) {
	srv, store := setupTestServer(t)

	token := login(t, srv, migrations.DefaultAdminUsername, migrations.DefaultAdminPassword)
	assert.NotEmpty(t, token)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", loginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", loginRequest{Username: "ghost", Password: "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.True(t, store.Exec("UPDATE users SET is_active = ? WHERE username = ?", false, "admin").OK())
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/auth/login", "", loginRequest{Username: "admin", Password: "admin123"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := setupTestServer(t)

	for _, path := range []string{"/products", "/products/low-stock", "/settings"} {
		resp, _ := doJSON(t, http.MethodGet, srv.URL+path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)

		resp, _ = doJSON(t, http.MethodGet, srv.URL+path, "not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestProducts(t *testing.T) {
	srv, _ := setupTestServer(t)
	token := login(t, srv, "admin", "admin123")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/products", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 10)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/products/low-stock", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "Tea", items[0].(map[string]any)["name"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/products", token, productRequest{Name: "Juice", Category: "Beverages", Price: 90, StockQuantity: 40})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, body = doJSON(t, http.MethodGet, srv.URL+"/products", token, nil)
	assert.Len(t, body["items"], 11)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/products", token, productRequest{Name: "Bad", Price: -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClerkCannotCreateProducts(t *testing.T) {
	srv, _ := setupTestServer(t)
	token, err := New(nil, testSecret).issueToken(domain.User{ID: 1, Username: "clerk1", Role: domain.RoleClerk})
	require.NoError(t, err)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/products", token, productRequest{Name: "Juice", Price: 90})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateSale(t *testing.T) {
	srv, store := setupTestServer(t)
	token := login(t, srv, "admin", "admin123")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/sales", token, saleRequest{ProductID: 7, Quantity: 3, PaymentMethod: "mpesa"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "%v", body)

	sale := body["sale"].(map[string]any)
	assert.Len(t, sale["transaction_id"], 20)
	assert.EqualValues(t, 2400, sale["total_price"].(float64)-sale["tax_amount"].(float64))
	assert.EqualValues(t, 384, sale["tax_amount"])
	assert.EqualValues(t, 9, body["new_quantity"])
	assert.Equal(t, true, body["low_stock"])
	assert.Equal(t, "KES", body["currency"])

	stock := store.Query("SELECT stock_quantity FROM products WHERE id = ?", 7)
	require.True(t, stock.OK())
	assert.EqualValues(t, 9, stock.Rows[0]["stock_quantity"])

	logRows := store.Query("SELECT action, quantity_change, new_quantity, user_id FROM inventory_log WHERE product_id = ?", 7)
	require.True(t, logRows.OK())
	require.Len(t, logRows.Rows, 1)
	assert.Equal(t, "sale", logRows.Rows[0]["action"])
	assert.EqualValues(t, -3, logRows.Rows[0]["quantity_change"])
	assert.EqualValues(t, 9, logRows.Rows[0]["new_quantity"])
	assert.EqualValues(t, 1, logRows.Rows[0]["user_id"])

	sales := store.Query("SELECT transaction_id FROM sales")
	require.True(t, sales.OK())
	require.Len(t, sales.Rows, 1)
	assert.Equal(t, sale["transaction_id"], sales.Rows[0]["transaction_id"])
}

func TestUpdateStockAndLog(t *testing.T) {
	srv, _ := setupTestServer(t)
	token := login(t, srv, "admin", "admin123")

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/products/4/stock", token, stockRequest{QuantityChange: 20, Notes: "delivery"})
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
	assert.Equal(t, "restock", body["action"])
	assert.EqualValues(t, 28, body["new_quantity"])
	assert.Equal(t, false, body["low_stock"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/products/4/stock", token, stockRequest{QuantityChange: -25})
	require.Equal(t, http.StatusOK, resp.StatusCode, "%v", body)
	assert.Equal(t, "adjust", body["action"])
	assert.Equal(t, true, body["low_stock"])

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/products/4/stock", token, stockRequest{QuantityChange: -100})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/products/99/stock", token, stockRequest{QuantityChange: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/products/4/log", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := body["items"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "delivery", first["notes"])
	assert.EqualValues(t, 20, first["quantity_change"])
	assert.EqualValues(t, 3, entries[1].(map[string]any)["new_quantity"])
}

func TestCreateSaleRejectsInvalidRequests(t *testing.T) {
	srv, store := setupTestServer(t)
	token := login(t, srv, "admin", "admin123")

	tests := []struct {
		name   string
		req    saleRequest
		status int
	}{
		{"zero quantity", saleRequest{ProductID: 1}, http.StatusBadRequest},
		{"unknown product", saleRequest{ProductID: 404, Quantity: 1}, http.StatusNotFound},
		{"insufficient stock", saleRequest{ProductID: 4, Quantity: 9}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/sales", token, tt.req)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	count := store.Query("SELECT COUNT(*) AS n FROM sales")
	require.True(t, count.OK())
	assert.EqualValues(t, 0, count.Rows[0]["n"])
}

func TestSettings(t *testing.T) {
	srv, _ := setupTestServer(t)
	token := login(t, srv, "admin", "admin123")

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/settings", token, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, migrations.DefaultBusinessName, body["business_name"])
	assert.EqualValues(t, 16, body["tax_rate"])
	assert.Equal(t, true, body["low_stock_alert"])
	assert.Equal(t, false, body["email_notifications"])
}

func TestSample(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/sample", "", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["products"], 10)
	assert.Len(t, body["users"], 3)
}

func TestNewTransactionID(t *testing.T) {
	a, b := newTransactionID(), newTransactionID()

	assert.Len(t, a, 20)
	assert.Regexp(t, `^TXN[0-9A-F]{17}$`, a)
	assert.NotEqual(t, a, b)
}
