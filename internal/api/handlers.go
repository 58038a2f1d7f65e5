package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/craftshop/internal/api/middleware"
	"github.com/example/craftshop/internal/command"
	"github.com/example/craftshop/internal/domain/cart"
	"github.com/example/craftshop/internal/domain/catalog"
	"github.com/example/craftshop/internal/domain/inventory"
	"github.com/example/craftshop/internal/domain/order"
	"github.com/example/craftshop/internal/query"
)

// Handlers serves the storefront routes: browsing, carts and checkout.
// Guests are identified by the X-Session-ID header, signed-in customers
// by their access token; a token always wins over the header.
type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// ============================================
// Product Handlers
// ============================================

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	filter := query.ProductFilter{
		Category:   r.URL.Query().Get("category"),
		Collection: r.URL.Query().Get("collection"),
	}
	if r.URL.Query().Get("featured") == "true" {
		filter.FeaturedOnly = true
	}
	products := h.queryHandler.ListProducts(filter)
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListFeaturedProducts())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")
	product, ok := h.queryHandler.GetProduct(id)
	if !ok {
		// Storefront links use slugs, admin tooling uses IDs
		product, ok = h.queryHandler.GetProductBySlug(id)
	}
	if !ok || !product.IsActive {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// ============================================
// Cart Handlers
// ============================================

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	owner, err := resolveOwner(r)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	c, err := h.queryHandler.GetCart(owner)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	owner, err := resolveOwner(r)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cmd command.AddToCart
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = owner

	if err := h.cmdHandler.AddToCart(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	owner, err := resolveOwner(r)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.UpdateCartItem{
		Owner:    owner,
		ItemID:   extractPathParam(r.URL.Path, "/api/cart/items/"),
		Quantity: req.Quantity,
	}
	if err := h.cmdHandler.UpdateCartItem(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	owner, err := resolveOwner(r)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	cmd := command.RemoveFromCart{
		Owner:  owner,
		ItemID: extractPathParam(r.URL.Path, "/api/cart/items/"),
	}
	if err := h.cmdHandler.RemoveFromCart(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	owner, err := resolveOwner(r)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.cmdHandler.ClearCart(r.Context(), command.ClearCart{Owner: owner}); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============================================
// Order Handlers
// ============================================

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	owner, err := resolveOwner(r)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var cmd command.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.Owner = owner
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		cmd.UserEmail = claims.Email
		// A session header alongside a valid token means a guest cart
		// may still linger in this browser; it gets cleared with the
		// user's own cart once the order succeeds.
		cmd.GuestSessionID = r.Header.Get("X-Session-ID")
	}

	placed, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusCreated, placed)
}

func (h *Handlers) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByUser(userID))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/orders/")

	o, ok := h.queryHandler.GetOrder(id)
	if !ok {
		o, ok = h.queryHandler.GetOrderByNumber(id)
	}
	if !ok {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}

	// Customers see only their own orders; guests look up by order number
	// so the ID itself is the capability. Admins see everything.
	if o.UserID != "" && o.UserID != middleware.GetUserID(r.Context()) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	id := strings.TrimSuffix(path, "/cancel")

	o, ok := h.queryHandler.GetOrder(id)
	if !ok {
		o, ok = h.queryHandler.GetOrderByNumber(id)
	}
	if !ok {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}

	if o.UserID != "" && o.UserID != middleware.GetUserID(r.Context()) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	cmd := command.TransitionOrderStatus{
		OrderID: o.ID,
		Status:  string(order.StatusCancelled),
		Reason:  req.Reason,
	}
	updated, err := h.cmdHandler.TransitionOrderStatus(r.Context(), cmd)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// ============================================
// Helpers
// ============================================

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

var errNoCartIdentity = errors.New("an access token or X-Session-ID header is required")

// resolveOwner identifies whose cart a request operates on. An
// authenticated user always wins over the session header so a returning
// customer never mutates a stale guest cart by accident.
func resolveOwner(r *http.Request) (cart.OwnerKey, error) {
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		return cart.UserOwner(userID), nil
	}
	if sessionID := r.Header.Get("X-Session-ID"); sessionID != "" {
		return cart.SessionOwner(sessionID), nil
	}
	return cart.OwnerKey{}, errNoCartIdentity
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == "admin"
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrCartNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, catalog.ErrProductArchived),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, cart.ErrInvalidOwner),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidInventory),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrMultiplePrimary),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidItem),
		errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrNoContactEmail),
		errors.Is(err, order.ErrAmbiguousCustomer),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidPaymentStatus),
		errors.Is(err, order.ErrInvalidPaymentMethod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
