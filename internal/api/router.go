package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/example/craftshop/internal/api/middleware"
	"github.com/example/craftshop/internal/auth"
	"github.com/sirupsen/logrus"
)

func NewRouter(handlers *Handlers, authHandlers *AuthHandlers, tokens *auth.TokenManager, log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()

	optional := middleware.OptionalAuthenticate(tokens)
	required := middleware.Authenticate(tokens)
	admin := func(h http.HandlerFunc) http.Handler {
		return required(middleware.RequireRole("admin")(h))
	}

	// Auth
	mux.HandleFunc("/api/auth/register", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Register,
	}))
	mux.HandleFunc("/api/auth/login", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Login,
	}))
	mux.HandleFunc("/api/auth/refresh", methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Refresh,
	}))
	mux.Handle("/api/auth/logout", optional(methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: authHandlers.Logout,
	})))
	mux.Handle("/api/auth/me", required(methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: authHandlers.Me,
	})))
	mux.Handle("/api/auth/password", required(methodHandler(map[string]http.HandlerFunc{
		http.MethodPut: authHandlers.ChangePassword,
	})))
	mux.Handle("/api/auth/profile", required(methodHandler(map[string]http.HandlerFunc{
		http.MethodPut: authHandlers.UpdateProfile,
	})))

	// Catalog
	mux.HandleFunc("/api/products", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: handlers.GetProducts,
	}))
	mux.HandleFunc("/api/products/featured", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: handlers.GetFeaturedProducts,
	}))
	mux.HandleFunc("/api/products/", methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: handlers.GetProduct,
	}))

	// Cart
	mux.Handle("/api/cart", optional(methodHandler(map[string]http.HandlerFunc{
		http.MethodGet:    handlers.GetCart,
		http.MethodDelete: handlers.ClearCart,
	})))
	mux.Handle("/api/cart/items", optional(methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: handlers.AddToCart,
	})))
	mux.Handle("/api/cart/items/", optional(methodHandler(map[string]http.HandlerFunc{
		http.MethodPut:    handlers.UpdateCartItem,
		http.MethodDelete: handlers.RemoveFromCart,
	})))

	// Orders
	mux.Handle("/api/orders", optional(methodHandler(map[string]http.HandlerFunc{
		http.MethodPost: handlers.PlaceOrder,
		http.MethodGet:  handlers.GetMyOrders,
	})))
	mux.Handle("/api/orders/", optional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/cancel") && r.Method == http.MethodPost:
			handlers.CancelOrder(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Admin
	mux.Handle("/api/admin/products", admin(methodHandler(map[string]http.HandlerFunc{
		http.MethodGet:  handlers.GetAdminProducts,
		http.MethodPost: handlers.CreateProduct,
	})))
	mux.Handle("/api/admin/products/", admin(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/images") && r.Method == http.MethodPut:
			handlers.SetProductImages(w, r)
		case strings.HasSuffix(r.URL.Path, "/featured") && r.Method == http.MethodPut:
			handlers.SetProductFeatured(w, r)
		case r.Method == http.MethodPut:
			handlers.UpdateProduct(w, r)
		case r.Method == http.MethodDelete:
			handlers.ArchiveProduct(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/api/admin/inventory/", admin(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/stock") && r.Method == http.MethodPost:
			handlers.AddStock(w, r)
		case r.Method == http.MethodGet:
			handlers.GetInventory(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))
	mux.Handle("/api/admin/orders", admin(methodHandler(map[string]http.HandlerFunc{
		http.MethodGet: handlers.GetAllOrders,
	})))
	mux.Handle("/api/admin/orders/", admin(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/status") && r.Method == http.MethodPut:
			handlers.TransitionOrderStatus(w, r)
		case strings.HasSuffix(r.URL.Path, "/payment") && r.Method == http.MethodPut:
			handlers.SetPaymentStatus(w, r)
		default:
			respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}))

	return withLogging(mux, log)
}

// methodHandler dispatches by HTTP method and rejects everything else
func methodHandler(routes map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.Method]; ok {
			handler(w, r)
			return
		}
		respondJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func withLogging(next http.Handler, log *logrus.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}
