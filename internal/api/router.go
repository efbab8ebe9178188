package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/slascicarna/internal/mail"
	"github.com/erazemk/slascicarna/internal/storage"
)

// RouterConfig carries the dependencies handlers need beyond the database.
type RouterConfig struct {
	JWTSecret  string
	Uploader   storage.Uploader
	Mailer     mail.Mailer
	AdminEmail string
	BaseURL    string
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: cfg.JWTSecret, Mailer: cfg.Mailer, BaseURL: cfg.BaseURL}
	productsHandler := &ProductsHandler{DB: db, Uploader: cfg.Uploader}
	ordersHandler := &OrdersHandler{DB: db, Uploader: cfg.Uploader, Mailer: cfg.Mailer, AdminEmail: cfg.AdminEmail}
	feedHandler := &FeedHandler{DB: db, Uploader: cfg.Uploader}

	authMW := AuthMiddleware(cfg.JWTSecret, db)

	// Public: accounts.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/forgot-password", authHandler.ForgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", authHandler.ResetPassword)
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Catalog: public reads, admin writes.
	mux.HandleFunc("GET /api/products", productsHandler.List)
	mux.HandleFunc("GET /api/products/{id}", productsHandler.Get)
	mux.Handle("POST /api/products", authMW(RequireAdmin(http.HandlerFunc(productsHandler.Create))))
	mux.Handle("PUT /api/products/{id}", authMW(RequireAdmin(http.HandlerFunc(productsHandler.Update))))
	mux.Handle("DELETE /api/products/{id}", authMW(RequireAdmin(http.HandlerFunc(productsHandler.Delete))))
	mux.Handle("POST /api/products/upload-image", authMW(RequireAdmin(http.HandlerFunc(productsHandler.UploadImage))))

	// Feed: public reads, admin writes.
	mux.HandleFunc("GET /api/feed", feedHandler.List)
	mux.Handle("POST /api/feed", authMW(RequireAdmin(http.HandlerFunc(feedHandler.Create))))
	mux.Handle("DELETE /api/feed/{id}", authMW(RequireAdmin(http.HandlerFunc(feedHandler.Delete))))

	// Orders: customers place and manage their own, admins see everything.
	mux.Handle("POST /api/orders/menu", authMW(http.HandlerFunc(ordersHandler.CreateMenu)))
	mux.Handle("POST /api/orders/custom", authMW(http.HandlerFunc(ordersHandler.CreateCustom)))
	mux.Handle("GET /api/orders", authMW(RequireAdmin(http.HandlerFunc(ordersHandler.List))))
	mux.Handle("PUT /api/orders/{id}/set-price", authMW(RequireAdmin(http.HandlerFunc(ordersHandler.SetPrice))))
	mux.Handle("PUT /api/orders/{id}/status", authMW(RequireAdmin(http.HandlerFunc(ordersHandler.UpdateStatus))))
	mux.Handle("GET /api/client/orders", authMW(http.HandlerFunc(ordersHandler.ClientList)))
	mux.Handle("POST /api/client/orders/{id}/cancel", authMW(http.HandlerFunc(ordersHandler.ClientCancel)))

	return mux
}
