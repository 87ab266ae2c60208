package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"salesystem/m/domain"
	"salesystem/m/internal/database"
	"salesystem/m/internal/seed"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	// mu serializes store access; the store itself is single-threaded.
	mu     sync.Mutex
	store  *database.Store
	secret string
}

// New constructs a Handler.
func New(store *database.Store, secret string) *Handler {
	return &Handler{store: store, secret: secret}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/sample", h.sample)
	r.Post("/auth/login", h.login)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireSession)

		pr.Route("/products", func(r chi.Router) {
			r.Get("/", h.listProducts)
			r.Post("/", h.createProduct)
			r.Get("/low-stock", h.lowStock)
			r.Post("/{id}/stock", h.updateStock)
			r.Get("/{id}/log", h.inventoryLog)
		})

		pr.Post("/sales", h.createSale)
		pr.Get("/settings", h.getSettings)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	live := h.store.Conn() != nil
	h.mu.Unlock()

	if !live {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) sample(w http.ResponseWriter, r *http.Request) {
	products, users := seed.SampleData()
	writeJSON(w, http.StatusOK, map[string]any{"products": products, "users": users})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var users []domain.User
	h.mu.Lock()
	res := h.store.SelectInto(&users, `SELECT id, username, password, COALESCE(role, 'clerk') AS role,
        COALESCE(email, '') AS email, is_active FROM users WHERE username = ?`, strings.TrimSpace(req.Username))
	h.mu.Unlock()
	if !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to fetch user")
		return
	}
	if len(users) == 0 {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	user := users[0]

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		writeError(w, http.StatusForbidden, "account disabled")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}

	user.Password = ""
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Product handlers

const productColumns = `id, name, COALESCE(category, '') AS category, price, stock_quantity,
    min_stock_level, max_stock_level, COALESCE(description, '') AS description, created_at, updated_at`

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	h.queryProducts(w, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	h.queryProducts(w, `SELECT `+productColumns+` FROM products WHERE stock_quantity <= min_stock_level ORDER BY stock_quantity`)
}

func (h *Handler) queryProducts(w http.ResponseWriter, query string, args ...any) {
	products := []domain.Product{}
	h.mu.Lock()
	res := h.store.SelectInto(&products, query, args...)
	h.mu.Unlock()
	if !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to fetch products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

type productRequest struct {
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Price         float64 `json:"price"`
	StockQuantity int64   `json:"stock_quantity"`
	MinStockLevel *int64  `json:"min_stock_level"`
	MaxStockLevel *int64  `json:"max_stock_level"`
	Description   string  `json:"description"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	if !allowRoles(w, r, domain.RoleAdmin, domain.RoleManager) {
		return
	}
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Price < 0 || req.StockQuantity < 0 {
		writeError(w, http.StatusBadRequest, "name is required and price and stock must not be negative")
		return
	}
	minLevel, maxLevel := int64(10), int64(100)
	if req.MinStockLevel != nil {
		minLevel = *req.MinStockLevel
	}
	if req.MaxStockLevel != nil {
		maxLevel = *req.MaxStockLevel
	}

	h.mu.Lock()
	res := h.store.Exec(`INSERT INTO products (name, category, price, stock_quantity, min_stock_level, max_stock_level, description)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		strings.TrimSpace(req.Name), nullIfEmpty(req.Category), req.Price, req.StockQuantity, minLevel, maxLevel, nullIfEmpty(req.Description))
	h.mu.Unlock()
	if !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to create product")
		return
	}

	writeJSON(w, http.StatusCreated, domain.Product{
		Name:          strings.TrimSpace(req.Name),
		Category:      req.Category,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		MinStockLevel: minLevel,
		MaxStockLevel: maxLevel,
		Description:   req.Description,
	})
}

type stockRequest struct {
	QuantityChange int64  `json:"quantity_change"`
	Notes          string `json:"notes"`
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	if !allowRoles(w, r, domain.RoleAdmin, domain.RoleManager) {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req stockRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.QuantityChange == 0 {
		writeError(w, http.StatusBadRequest, "quantity_change must not be zero")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var products []domain.Product
	if res := h.store.SelectInto(&products, `SELECT `+productColumns+` FROM products WHERE id = ?`, productID); !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to fetch product")
		return
	}
	if len(products) == 0 {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	product := products[0]
	newQty := product.StockQuantity + req.QuantityChange
	if newQty < 0 {
		writeError(w, http.StatusBadRequest, "stock cannot go below zero")
		return
	}

	action := domain.ActionRestock
	if req.QuantityChange < 0 {
		action = domain.ActionAdjust
	}
	userID := sessionFrom(r).UserID

	res := h.store.ExecBatch(
		database.Stmt(`UPDATE products SET stock_quantity = ? WHERE id = ?`, newQty, productID),
		database.Stmt(`INSERT INTO inventory_log (product_id, action, quantity_change, new_quantity, user_id, notes)
            VALUES (?, ?, ?, ?, ?, ?)`,
			productID, action, req.QuantityChange, newQty, userID, nullIfEmpty(req.Notes)),
	)
	if !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to update stock")
		return
	}

	product.StockQuantity = newQty
	writeJSON(w, http.StatusOK, map[string]any{
		"product_id":   productID,
		"action":       action,
		"new_quantity": newQty,
		"low_stock":    product.LowStock(),
	})
}

func (h *Handler) inventoryLog(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	entries := []domain.InventoryLogEntry{}
	h.mu.Lock()
	res := h.store.SelectInto(&entries, `SELECT id, product_id, action, quantity_change, new_quantity, user_id,
        COALESCE(notes, '') AS notes, created_at FROM inventory_log WHERE product_id = ? ORDER BY id`, productID)
	h.mu.Unlock()
	if !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to fetch inventory log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Sales

type saleRequest struct {
	ProductID     int64  `json:"product_id"`
	Quantity      int64  `json:"quantity"`
	PaymentMethod string `json:"payment_method"`
	CustomerInfo  string `json:"customer_info"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	if !allowRoles(w, r, domain.RoleAdmin, domain.RoleManager, domain.RoleClerk) {
		return
	}
	var req saleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID == 0 || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "product_id and a positive quantity are required")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "cash"
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var products []domain.Product
	if res := h.store.SelectInto(&products, `SELECT `+productColumns+` FROM products WHERE id = ?`, req.ProductID); !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to fetch product")
		return
	}
	if len(products) == 0 {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	product := products[0]
	if product.StockQuantity < req.Quantity {
		writeError(w, http.StatusBadRequest, "insufficient stock")
		return
	}

	settings, err := h.loadSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	subtotal := float64(req.Quantity) * product.Price
	tax := roundCents(subtotal * settings.TaxRate / 100)
	sale := domain.Sale{
		TransactionID: newTransactionID(),
		ProductID:     product.ID,
		Quantity:      req.Quantity,
		UnitPrice:     product.Price,
		TotalPrice:    roundCents(subtotal + tax),
		TaxAmount:     tax,
		PaymentMethod: req.PaymentMethod,
		CustomerInfo:  req.CustomerInfo,
	}
	userID := sessionFrom(r).UserID
	sale.UserID = &userID
	newQty := product.StockQuantity - req.Quantity
	product.StockQuantity = newQty

	res := h.store.ExecBatch(
		database.Stmt(`INSERT INTO sales (transaction_id, product_id, quantity, unit_price, total_price, tax_amount, payment_method, customer_info, user_id)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sale.TransactionID, sale.ProductID, sale.Quantity, sale.UnitPrice, sale.TotalPrice, sale.TaxAmount,
			sale.PaymentMethod, nullIfEmpty(sale.CustomerInfo), userID),
		database.Stmt(`UPDATE products SET stock_quantity = ? WHERE id = ?`, newQty, product.ID),
		database.Stmt(`INSERT INTO inventory_log (product_id, action, quantity_change, new_quantity, user_id, notes)
            VALUES (?, ?, ?, ?, ?, ?)`,
			product.ID, domain.ActionSale, -req.Quantity, newQty, userID, "sale "+sale.TransactionID),
	)
	if !res.OK() {
		writeError(w, http.StatusInternalServerError, "unable to record sale")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"sale":          sale,
		"new_quantity":  newQty,
		"low_stock":     settings.LowStockAlert && product.LowStock(),
		"currency":      settings.Currency,
		"business_name": settings.BusinessName,
	})
}

// Settings

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	settings, err := h.loadSettings()
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// loadSettings returns the first settings row. Callers hold h.mu.
func (h *Handler) loadSettings() (domain.Settings, error) {
	var rows []domain.Settings
	res := h.store.SelectInto(&rows, `SELECT id, COALESCE(business_name, '') AS business_name, tax_rate, currency,
        low_stock_alert, COALESCE(receipt_template, '') AS receipt_template, email_notifications, updated_at
        FROM settings ORDER BY id LIMIT 1`)
	if !res.OK() {
		return domain.Settings{}, errors.New("unable to fetch settings")
	}
	if len(rows) == 0 {
		return domain.Settings{}, errors.New("settings not provisioned")
	}
	return rows[0], nil
}

// newTransactionID returns a 20 character id that fits sales.transaction_id.
func newTransactionID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TXN%s", id[:17])
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func nullIfEmpty(val string) *string {
	if strings.TrimSpace(val) == "" {
		return nil
	}
	return &val
}
