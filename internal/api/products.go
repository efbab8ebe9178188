package api

import (
	"bytes"
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/erazemk/slascicarna/internal/imaging"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/storage"
	"github.com/erazemk/slascicarna/internal/store"
)

// ProductsHandler handles catalog CRUD endpoints.
type ProductsHandler struct {
	DB       *sql.DB
	Uploader storage.Uploader
}

type productRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	BasePrice      float64 `json:"base_price"`
	PricePerPerson float64 `json:"price_per_person"`
	PriceType      string  `json:"price_type"`
	ImageURL       string  `json:"image_url"`
}

func (req *productRequest) validate() string {
	if req.Name == "" {
		return "name required"
	}
	if !model.ValidCategory(req.Category) {
		return "invalid category"
	}
	if req.BasePrice < 0 || math.IsNaN(req.BasePrice) {
		return "base price must be a non-negative number"
	}
	if req.PricePerPerson < 0 || math.IsNaN(req.PricePerPerson) {
		return "per-person price must be a non-negative number"
	}
	if req.PriceType == "" {
		req.PriceType = model.PriceFlat
	}
	if !model.ValidPriceType(req.PriceType) {
		return "invalid price type"
	}
	return ""
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !model.ValidCategory(category) {
		jsonError(w, http.StatusBadRequest, "invalid category")
		return
	}

	products, err := store.ListProducts(r.Context(), h.DB, category)
	if err != nil {
		slog.Error("listing products", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("getting product", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if product == nil || product.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	jsonResponse(w, http.StatusOK, product)
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, &model.Product{
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		BasePrice:      req.BasePrice,
		PricePerPerson: req.PricePerPerson,
		PriceType:      req.PriceType,
		ImageURL:       req.ImageURL,
	})
	if err != nil {
		slog.Error("creating product", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	jsonResponse(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	err = store.UpdateProduct(r.Context(), h.DB, &model.Product{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		Category:       req.Category,
		BasePrice:      req.BasePrice,
		PricePerPerson: req.PricePerPerson,
		PriceType:      req.PriceType,
		ImageURL:       req.ImageURL,
	})
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		slog.Error("updating product", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	product, _ := store.GetProduct(r.Context(), h.DB, id)
	jsonResponse(w, http.StatusOK, product)
}

// Delete handles DELETE /api/products/{id}. Deleting an unknown product is
// reported as a failure, not a silent success.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	err = store.DeleteProduct(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		slog.Error("deleting product", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// UploadImage handles POST /api/products/upload-image. The image is
// processed and pushed to object storage; only the resulting URL is
// returned, for the caller to attach to a product.
func (h *ProductsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	// Limit to 10 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.Uploader.Upload(r.Context(), bytes.NewReader(result.Data), "products", imaging.Ext)
	if err != nil {
		slog.Error("uploading product image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to upload image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"image_url": url})
}
