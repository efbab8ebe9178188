package api

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/slascicarna/internal/imaging"
	"github.com/erazemk/slascicarna/internal/mail"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/storage"
	"github.com/erazemk/slascicarna/internal/store"
)

// OrdersHandler handles order placement and admin order management.
type OrdersHandler struct {
	DB         *sql.DB
	Uploader   storage.Uploader
	Mailer     mail.Mailer
	AdminEmail string
}

type menuOrderRequest struct {
	ProductID     int64  `json:"product_id"`
	Quantity      int    `json:"quantity"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Flavor        string `json:"flavor"`
	Note          string `json:"note"`
	DeliveryAt    string `json:"delivery_at"`
}

type setPriceRequest struct {
	Price float64 `json:"price"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// notify sends the customer confirmation and the admin notification for a
// new order. Mail failures are logged, never surfaced: the order is already
// saved and the request must succeed.
func (h *OrdersHandler) notify(o *model.Order) {
	if err := h.Mailer.SendOrderConfirmation(o.CustomerEmail, o); err != nil {
		slog.Error("sending order confirmation", "order", o.ID, "error", err)
	}
	if h.AdminEmail != "" {
		if err := h.Mailer.SendAdminNotification(h.AdminEmail, o); err != nil {
			slog.Error("sending admin notification", "order", o.ID, "error", err)
		}
	}
}

// CreateMenu handles POST /api/orders/menu. The provisional price is
// computed from the catalog product; the order starts as pending.
func (h *OrdersHandler) CreateMenu(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req menuOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Quantity < 1 {
		jsonError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	if req.CustomerName == "" {
		jsonError(w, http.StatusBadRequest, "customer name required")
		return
	}
	deliveryAt, err := time.Parse(time.RFC3339, req.DeliveryAt)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "delivery_at must be an RFC 3339 timestamp")
		return
	}
	if deliveryAt.Before(time.Now()) {
		jsonError(w, http.StatusBadRequest, "delivery time must be in the future")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, req.ProductID)
	if err != nil {
		slog.Error("getting product for order", "id", req.ProductID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if product == nil || product.DeletedAt != nil {
		jsonError(w, http.StatusBadRequest, "product not found")
		return
	}

	order, err := store.CreateOrder(r.Context(), h.DB, &model.Order{
		UserID:           &claims.UserID,
		CustomerName:     req.CustomerName,
		CustomerEmail:    claims.Email,
		CustomerPhone:    req.CustomerPhone,
		ProductID:        &product.ID,
		ProductName:      product.Name,
		Quantity:         req.Quantity,
		Flavor:           req.Flavor,
		Note:             req.Note,
		ImageURLs:        []string{},
		DeliveryAt:       deliveryAt,
		Status:           model.StatusPending,
		ProvisionalPrice: model.ProvisionalPrice(product.BasePrice, product.PricePerPerson, req.Quantity),
	})
	if err != nil {
		slog.Error("creating menu order", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	h.notify(order)
	jsonResponse(w, http.StatusCreated, order)
}

// CreateCustom handles POST /api/orders/custom: a multipart form with the
// cake description and optional reference images. Custom orders start as
// pending-quote with no price; an upload failure aborts the whole order so
// it is never saved half-described.
func (h *OrdersHandler) CreateCustom(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	// Limit to 25 MB across all reference images.
	r.Body = http.MaxBytesReader(w, r.Body, 25<<20)
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "files too large or invalid multipart form")
		return
	}

	name := r.FormValue("customer_name")
	if name == "" {
		jsonError(w, http.StatusBadRequest, "customer name required")
		return
	}
	productName := r.FormValue("product_name")
	if productName == "" {
		productName = "Custom cake"
	}
	quantity := 1
	if q := r.FormValue("quantity"); q != "" {
		quantity, _ = strconv.Atoi(q)
		if quantity < 1 {
			jsonError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
	}
	deliveryAt, err := time.Parse(time.RFC3339, r.FormValue("delivery_at"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "delivery_at must be an RFC 3339 timestamp")
		return
	}
	if deliveryAt.Before(time.Now()) {
		jsonError(w, http.StatusBadRequest, "delivery time must be in the future")
		return
	}

	// Process and store reference images before touching the database.
	var urls []string
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				jsonError(w, http.StatusBadRequest, "could not read uploaded image")
				return
			}
			result, err := imaging.Process(file)
			file.Close()
			if err != nil {
				jsonError(w, http.StatusBadRequest, err.Error())
				return
			}
			url, err := h.Uploader.Upload(r.Context(), bytes.NewReader(result.Data), "orders", imaging.Ext)
			if err != nil {
				slog.Error("uploading order image", "error", err)
				jsonError(w, http.StatusInternalServerError, "failed to upload reference image; order not saved")
				return
			}
			urls = append(urls, url)
		}
	}
	if urls == nil {
		urls = []string{}
	}

	order, err := store.CreateOrder(r.Context(), h.DB, &model.Order{
		UserID:        &claims.UserID,
		CustomerName:  name,
		CustomerEmail: claims.Email,
		CustomerPhone: r.FormValue("customer_phone"),
		ProductName:   productName,
		Quantity:      quantity,
		Flavor:        r.FormValue("flavor"),
		Note:          r.FormValue("note"),
		ImageURLs:     urls,
		DeliveryAt:    deliveryAt,
		Status:        model.StatusPendingQuote,
	})
	if err != nil {
		slog.Error("creating custom order", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to place order")
		return
	}

	h.notify(order)
	jsonResponse(w, http.StatusCreated, order)
}

// List handles GET /api/orders (admin).
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListOrders(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing orders", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// SetPrice handles PUT /api/orders/{id}/set-price (admin). Setting a price
// moves a pending-quote order to pending and emails the customer.
func (h *OrdersHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req setPriceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price <= 0 || math.IsNaN(req.Price) {
		jsonError(w, http.StatusBadRequest, "price must be a positive number")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting order", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	if order.Status == model.StatusCompleted || order.Status == model.StatusCanceled {
		jsonError(w, http.StatusBadRequest, "cannot set a price on a closed order")
		return
	}

	if err := store.SetOrderPrice(r.Context(), h.DB, id, req.Price); err != nil {
		slog.Error("setting order price", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to set price")
		return
	}

	order, err = store.GetOrder(r.Context(), h.DB, id)
	if err != nil || order == nil {
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.Mailer.SendPriceSet(order.CustomerEmail, order); err != nil {
		slog.Error("sending price-set email", "order", id, "error", err)
	}

	jsonResponse(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status (admin). Transitions are
// validated against the forward-only table; completed and canceled orders
// are immutable.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !model.ValidStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting order", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	if !model.CanTransition(order.Status, req.Status) {
		jsonError(w, http.StatusBadRequest, "invalid status transition from "+order.Status+" to "+req.Status)
		return
	}

	if err := store.UpdateOrderStatus(r.Context(), h.DB, id, req.Status); err != nil {
		slog.Error("updating order status", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	order.Status = req.Status
	jsonResponse(w, http.StatusOK, order)
}

// ClientList handles GET /api/client/orders: the caller's own orders, split
// into active and previous using the cancellation predicate.
func (h *OrdersHandler) ClientList(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	orders, err := store.ListOrdersByEmail(r.Context(), h.DB, claims.Email)
	if err != nil {
		slog.Error("listing client orders", "email", claims.Email, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	now := time.Now()
	active := []model.Order{}
	previous := []model.Order{}
	for _, o := range orders {
		if o.IsActive(now) {
			active = append(active, o)
		} else {
			previous = append(previous, o)
		}
	}

	jsonResponse(w, http.StatusOK, map[string][]model.Order{
		"active":   active,
		"previous": previous,
	})
}

// ClientCancel handles POST /api/client/orders/{id}/cancel. Customers may
// only cancel their own orders, and only while the cancellation window is
// open; the two failure modes get distinct messages.
func (h *OrdersHandler) ClientCancel(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting order", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if order == nil || order.CustomerEmail != claims.Email {
		// Not found and not-yours look the same to the caller.
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	switch err := model.CanCancel(order.Status, order.DeliveryAt, time.Now()); {
	case errors.Is(err, model.ErrOrderClosed):
		jsonError(w, http.StatusBadRequest, "order is already completed or canceled")
		return
	case errors.Is(err, model.ErrTooCloseToDelivery):
		jsonError(w, http.StatusBadRequest, "orders can only be canceled more than 24 hours before delivery")
		return
	}

	if err := store.UpdateOrderStatus(r.Context(), h.DB, id, model.StatusCanceled); err != nil {
		slog.Error("canceling order", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to cancel order")
		return
	}

	slog.Info("order canceled by customer", "order", id, "email", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "order canceled"})
}
