package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/craftshop/internal/command"
	"github.com/example/craftshop/internal/query"
)

// Admin handlers. The router mounts these behind Authenticate +
// RequireRole("admin").

// ============================================
// Product administration
// ============================================

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.ProductID = extractPathParam(r.URL.Path, "/api/admin/products/")

	if err := h.cmdHandler.UpdateProduct(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

func (h *Handlers) ArchiveProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/admin/products/")

	cmd := command.ArchiveProduct{ProductID: id}
	if err := h.cmdHandler.ArchiveProduct(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product archived"})
}

func (h *Handlers) SetProductImages(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetProductImages
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	path := extractPathParam(r.URL.Path, "/api/admin/products/")
	cmd.ProductID = strings.TrimSuffix(path, "/images")

	if err := h.cmdHandler.SetProductImages(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Images updated"})
}

func (h *Handlers) SetProductFeatured(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetProductFeatured
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	path := extractPathParam(r.URL.Path, "/api/admin/products/")
	cmd.ProductID = strings.TrimSuffix(path, "/featured")

	if err := h.cmdHandler.SetProductFeatured(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Featured flag updated"})
}

func (h *Handlers) GetAdminProducts(w http.ResponseWriter, r *http.Request) {
	// The back office sees archived products too
	filter := query.ProductFilter{
		Category:        r.URL.Query().Get("category"),
		Collection:      r.URL.Query().Get("collection"),
		IncludeInactive: true,
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts(filter))
}

// ============================================
// Inventory administration
// ============================================

func (h *Handlers) AddStock(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	path := extractPathParam(r.URL.Path, "/api/admin/inventory/")
	cmd.ProductID = strings.TrimSuffix(path, "/stock")

	if err := h.cmdHandler.AddStock(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Stock added"})
}

func (h *Handlers) GetInventory(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/api/admin/inventory/")
	inv, ok := h.queryHandler.GetInventory(productID)
	if !ok {
		respondJSONError(w, "Inventory not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

// ============================================
// Order administration
// ============================================

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := query.OrderFilter{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("payment_status"),
		Search:        q.Get("search"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = limit
	}
	if from, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filter.PlacedAfter = from
	}
	if to, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filter.PlacedBefore = to
	}

	respondJSON(w, http.StatusOK, h.queryHandler.ListOrders(filter))
}

func (h *Handlers) TransitionOrderStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.TransitionOrderStatus
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	path := extractPathParam(r.URL.Path, "/api/admin/orders/")
	cmd.OrderID = strings.TrimSuffix(path, "/status")

	updated, err := h.cmdHandler.TransitionOrderStatus(r.Context(), cmd)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) SetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var cmd command.SetPaymentStatus
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	path := extractPathParam(r.URL.Path, "/api/admin/orders/")
	cmd.OrderID = strings.TrimSuffix(path, "/payment")

	if err := h.cmdHandler.SetPaymentStatus(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Payment status updated"})
}
