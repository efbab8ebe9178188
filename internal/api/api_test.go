package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/slascicarna/internal/db"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/store"
)

const testJWTSecret = "test-secret"

// fakeUploader pretends to be object storage and hands out stable URLs.
type fakeUploader struct {
	mu    sync.Mutex
	count int
}

func (u *fakeUploader) Upload(_ context.Context, r io.Reader, folder, ext string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.count++
	return fmt.Sprintf("https://cdn.test/%s/%d%s", folder, u.count, ext), nil
}

// recordingMailer captures sent emails for assertions.
type recordingMailer struct {
	mu            sync.Mutex
	confirmations []string
	notifications []string
	priceSets     []string
	resetLinks    []string
}

func (m *recordingMailer) SendOrderConfirmation(to string, _ *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, to)
	return nil
}

func (m *recordingMailer) SendAdminNotification(to string, _ *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, to)
	return nil
}

func (m *recordingMailer) SendPriceSet(to string, _ *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceSets = append(m.priceSets, to)
	return nil
}

func (m *recordingMailer) SendPasswordReset(_, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLinks = append(m.resetLinks, link)
	return nil
}

func (m *recordingMailer) lastResetLink() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.resetLinks) == 0 {
		return ""
	}
	return m.resetLinks[len(m.resetLinks)-1]
}

func setupTestServer(t *testing.T) (*httptest.Server, *recordingMailer, string, string) {
	t.Helper()
	database := db.NewTestDB(t)
	mailer := &recordingMailer{}
	router := NewRouter(database, RouterConfig{
		JWTSecret:  testJWTSecret,
		Uploader:   &fakeUploader{},
		Mailer:     mailer,
		AdminEmail: "owner@example.com",
		BaseURL:    "http://localhost:8080",
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin and client users directly.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(ctx, database, "admin@example.com", "Admin", "", string(hash), model.RoleAdmin); err != nil {
		t.Fatalf("creating admin: %v", err)
	}
	if _, err := store.CreateUser(ctx, database, "ana@example.com", "Ana Novak", "", string(hash), model.RoleClient); err != nil {
		t.Fatalf("creating client: %v", err)
	}

	adminToken := login(t, server, "admin@example.com", "password123")
	clientToken := login(t, server, "ana@example.com", "password123")
	return server, mailer, adminToken, clientToken
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp["token"] == "" {
		t.Fatal("empty token from login")
	}
	return loginResp["token"]
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	resp.Body.Close()
	return v
}

func testJPEGData(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{200, 120, 80, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// multipartBody builds a multipart form with the given fields and optional file.
func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		fw.Write(fileData)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func createProduct(t *testing.T, server *httptest.Server, token string) model.Product {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/api/products", token, map[string]any{
		"name":             "Chocolate Cake",
		"category":         model.CategoryCakes,
		"base_price":       30,
		"price_per_person": 2.5,
		"price_type":       model.PricePerPerson,
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("creating product: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating product, got %d", resp.StatusCode)
	}
	return decodeBody[model.Product](t, resp)
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	// Wrong password.
	body, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown account.
	body, _ = json.Marshal(map[string]string{"email": "nobody@example.com", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSignupAlwaysCreatesClient(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	// A role field in the payload must be ignored.
	body, _ := json.Marshal(map[string]string{
		"email":    "bor@example.com",
		"name":     "Bor Kos",
		"password": "password123",
		"role":     model.RoleAdmin,
	})
	resp, _ := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	user := decodeBody[model.User](t, resp)
	if user.Role != model.RoleClient {
		t.Errorf("expected signup to create a client, got role %q", user.Role)
	}

	// And the new account must not pass the admin gate.
	token := login(t, server, "bor@example.com", "password123")
	req, _ := authRequest("GET", server.URL+"/api/orders", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for new signup on admin endpoint, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSignupValidation(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	tests := []map[string]string{
		{"email": "", "name": "X", "password": "password123"},
		{"email": "not-an-email", "name": "X", "password": "password123"},
		{"email": "x@example.com", "name": "", "password": "password123"},
		{"email": "x@example.com", "name": "X", "password": "short"},
		// Already taken.
		{"email": "ana@example.com", "name": "Ana", "password": "password123"},
	}

	for _, payload := range tests {
		body, _ := json.Marshal(payload)
		resp, _ := http.Post(server.URL+"/api/auth/signup", "application/json", bytes.NewReader(body))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for payload %v, got %d", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestPublicReadsNeedNoToken(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	for _, path := range []string{"/api/products", "/api/feed"} {
		resp, _ := http.Get(server.URL + path)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 for public GET %s, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _, _, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/client/orders")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminGate(t *testing.T) {
	server, _, _, clientToken := setupTestServer(t)

	adminOnly := []struct{ method, path string }{
		{"POST", "/api/products"},
		{"GET", "/api/orders"},
		{"PUT", "/api/orders/1/status"},
		{"PUT", "/api/orders/1/set-price"},
		{"POST", "/api/feed"},
		{"DELETE", "/api/feed/1"},
		{"DELETE", "/api/products/1"},
	}

	for _, e := range adminOnly {
		req, _ := authRequest(e.method, server.URL+e.path, clientToken, nil)
		resp, _ := http.DefaultClient.Do(req)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403 for client on %s %s, got %d", e.method, e.path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestProductsCRUDFlow(t *testing.T) {
	server, _, adminToken, _ := setupTestServer(t)

	product := createProduct(t, server, adminToken)

	// Public list sees it.
	resp, _ := http.Get(server.URL + "/api/products")
	products := decodeBody[[]model.Product](t, resp)
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}

	// Category filter.
	resp, _ = http.Get(server.URL + "/api/products?category=sweets")
	products = decodeBody[[]model.Product](t, resp)
	if len(products) != 0 {
		t.Errorf("expected 0 sweets, got %d", len(products))
	}

	// Update.
	req, _ := authRequest("PUT", fmt.Sprintf("%s/api/products/%d", server.URL, product.ID), adminToken, map[string]any{
		"name":       "Dark Chocolate Cake",
		"category":   model.CategoryCakes,
		"base_price": 35,
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 updating product, got %d", resp.StatusCode)
	}
	updated := decodeBody[model.Product](t, resp)
	if updated.Name != "Dark Chocolate Cake" || updated.BasePrice != 35 {
		t.Errorf("update not applied: %+v", updated)
	}

	// Delete.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/products/%d", server.URL, product.ID), adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting product, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Gone from public view.
	resp, _ = http.Get(fmt.Sprintf("%s/api/products/%d", server.URL, product.ID))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for deleted product, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Deleting again fails instead of silently succeeding.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/products/%d", server.URL, product.ID), adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 deleting a deleted product, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProductValidation(t *testing.T) {
	server, _, adminToken, _ := setupTestServer(t)

	bad := []map[string]any{
		{"name": "", "category": model.CategoryCakes, "base_price": 10},
		{"name": "X", "category": "pies", "base_price": 10},
		{"name": "X", "category": model.CategoryCakes, "base_price": -1},
		{"name": "X", "category": model.CategoryCakes, "base_price": 10, "price_type": "per-slice"},
	}

	for _, payload := range bad {
		req, _ := authRequest("POST", server.URL+"/api/products", adminToken, payload)
		resp, _ := http.DefaultClient.Do(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for payload %v, got %d", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestProductImageUpload(t *testing.T) {
	server, _, adminToken, _ := setupTestServer(t)

	body, contentType := multipartBody(t, nil, "image", "cake.jpg", testJPEGData(100, 100))
	req, _ := http.NewRequest("POST", server.URL+"/api/products/upload-image", body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decodeBody[map[string]string](t, resp)
	if !strings.HasPrefix(result["image_url"], "https://cdn.test/products/") {
		t.Errorf("unexpected image URL: %q", result["image_url"])
	}
}

func TestMenuOrderPricing(t *testing.T) {
	server, mailer, adminToken, clientToken := setupTestServer(t)
	product := createProduct(t, server, adminToken)

	req, _ := authRequest("POST", server.URL+"/api/orders/menu", clientToken, map[string]any{
		"product_id":    product.ID,
		"quantity":      10,
		"customer_name": "Ana Novak",
		"delivery_at":   time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	order := decodeBody[model.Order](t, resp)

	// base 30 + 2.5 per person x 10.
	if order.ProvisionalPrice != 55 {
		t.Errorf("expected provisional price 55, got %v", order.ProvisionalPrice)
	}
	if order.Status != model.StatusPending {
		t.Errorf("expected status 'pending', got %q", order.Status)
	}
	if order.CustomerEmail != "ana@example.com" {
		t.Errorf("expected customer email from token, got %q", order.CustomerEmail)
	}

	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if len(mailer.confirmations) != 1 || mailer.confirmations[0] != "ana@example.com" {
		t.Errorf("expected a confirmation email to the customer, got %v", mailer.confirmations)
	}
	if len(mailer.notifications) != 1 || mailer.notifications[0] != "owner@example.com" {
		t.Errorf("expected a notification email to the admin, got %v", mailer.notifications)
	}
}

func TestMenuOrderValidation(t *testing.T) {
	server, _, adminToken, clientToken := setupTestServer(t)
	product := createProduct(t, server, adminToken)

	future := time.Now().Add(72 * time.Hour).Format(time.RFC3339)
	bad := []map[string]any{
		// Unknown product.
		{"product_id": 999, "quantity": 1, "customer_name": "Ana", "delivery_at": future},
		// Zero quantity.
		{"product_id": product.ID, "quantity": 0, "customer_name": "Ana", "delivery_at": future},
		// Missing name.
		{"product_id": product.ID, "quantity": 1, "customer_name": "", "delivery_at": future},
		// Past delivery.
		{"product_id": product.ID, "quantity": 1, "customer_name": "Ana", "delivery_at": time.Now().Add(-time.Hour).Format(time.RFC3339)},
		// Unparseable delivery.
		{"product_id": product.ID, "quantity": 1, "customer_name": "Ana", "delivery_at": "tomorrow"},
	}

	for _, payload := range bad {
		req, _ := authRequest("POST", server.URL+"/api/orders/menu", clientToken, payload)
		resp, _ := http.DefaultClient.Do(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for payload %v, got %d", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func placeCustomOrder(t *testing.T, server *httptest.Server, token string, deliveryAt time.Time, withImage bool) model.Order {
	t.Helper()
	fields := map[string]string{
		"customer_name": "Ana Novak",
		"product_name":  "Unicorn cake",
		"flavor":        "vanilla",
		"delivery_at":   deliveryAt.Format(time.RFC3339),
	}
	var body *bytes.Buffer
	var contentType string
	if withImage {
		body, contentType = multipartBody(t, fields, "images", "reference.jpg", testJPEGData(80, 80))
	} else {
		body, contentType = multipartBody(t, fields, "", "", nil)
	}

	req, _ := http.NewRequest("POST", server.URL+"/api/orders/custom", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("custom order request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for custom order, got %d", resp.StatusCode)
	}
	return decodeBody[model.Order](t, resp)
}

func TestCustomOrderStartsAsQuote(t *testing.T) {
	server, _, _, clientToken := setupTestServer(t)

	order := placeCustomOrder(t, server, clientToken, time.Now().Add(96*time.Hour), true)

	if order.Status != model.StatusPendingQuote {
		t.Errorf("expected status 'pending-quote', got %q", order.Status)
	}
	if order.FinalPrice != nil {
		t.Errorf("expected no price before the quote, got %v", *order.FinalPrice)
	}
	if order.ProductID != nil {
		t.Error("expected no catalog product on a custom order")
	}
	if len(order.ImageURLs) != 1 || !strings.HasPrefix(order.ImageURLs[0], "https://cdn.test/orders/") {
		t.Errorf("expected 1 stored reference image, got %v", order.ImageURLs)
	}
}

func TestSetPriceFlow(t *testing.T) {
	server, mailer, adminToken, clientToken := setupTestServer(t)

	order := placeCustomOrder(t, server, clientToken, time.Now().Add(96*time.Hour), false)

	req, _ := authRequest("PUT", fmt.Sprintf("%s/api/orders/%d/set-price", server.URL, order.ID), adminToken, map[string]any{
		"price": 45.00,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	quoted := decodeBody[model.Order](t, resp)
	if quoted.FinalPrice == nil || *quoted.FinalPrice != 45.00 {
		t.Errorf("expected final price 45.00, got %v", quoted.FinalPrice)
	}
	if quoted.Status != model.StatusPending {
		t.Errorf("expected quoted order to move to 'pending', got %q", quoted.Status)
	}

	mailer.mu.Lock()
	priceSets := len(mailer.priceSets)
	mailer.mu.Unlock()
	if priceSets != 1 {
		t.Errorf("expected 1 price-set email, got %d", priceSets)
	}

	// Invalid price.
	req, _ = authRequest("PUT", fmt.Sprintf("%s/api/orders/%d/set-price", server.URL, order.ID), adminToken, map[string]any{"price": 0})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for zero price, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown order.
	req, _ = authRequest("PUT", server.URL+"/api/orders/999/set-price", adminToken, map[string]any{"price": 10})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown order, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestStatusTransitions(t *testing.T) {
	server, _, adminToken, clientToken := setupTestServer(t)
	product := createProduct(t, server, adminToken)

	req, _ := authRequest("POST", server.URL+"/api/orders/menu", clientToken, map[string]any{
		"product_id":    product.ID,
		"quantity":      4,
		"customer_name": "Ana Novak",
		"delivery_at":   time.Now().Add(72 * time.Hour).Format(time.RFC3339),
	})
	resp, _ := http.DefaultClient.Do(req)
	order := decodeBody[model.Order](t, resp)

	setStatus := func(status string) int {
		req, _ := authRequest("PUT", fmt.Sprintf("%s/api/orders/%d/status", server.URL, order.ID), adminToken, map[string]any{"status": status})
		resp, _ := http.DefaultClient.Do(req)
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := setStatus(model.StatusConfirmed); code != http.StatusOK {
		t.Fatalf("expected 200 for pending→confirmed, got %d", code)
	}
	// Backwards is rejected.
	if code := setStatus(model.StatusPending); code != http.StatusBadRequest {
		t.Errorf("expected 400 for confirmed→pending, got %d", code)
	}
	if code := setStatus(model.StatusCompleted); code != http.StatusOK {
		t.Fatalf("expected 200 for confirmed→completed, got %d", code)
	}
	// Completed is terminal.
	if code := setStatus(model.StatusCanceled); code != http.StatusBadRequest {
		t.Errorf("expected 400 for completed→canceled, got %d", code)
	}
	if code := setStatus("shipped"); code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", code)
	}

	// A closed order can no longer be priced.
	req, _ = authRequest("PUT", fmt.Sprintf("%s/api/orders/%d/set-price", server.URL, order.ID), adminToken, map[string]any{"price": 10})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 pricing a completed order, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClientOrderHistorySplit(t *testing.T) {
	server, _, _, clientToken := setupTestServer(t)

	// One order well in the future, one inside the cancellation window.
	placeCustomOrder(t, server, clientToken, time.Now().Add(96*time.Hour), false)
	placeCustomOrder(t, server, clientToken, time.Now().Add(2*time.Hour), false)

	req, _ := authRequest("GET", server.URL+"/api/client/orders", clientToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	history := decodeBody[map[string][]model.Order](t, resp)

	if len(history["active"]) != 1 {
		t.Errorf("expected 1 active order, got %d", len(history["active"]))
	}
	if len(history["previous"]) != 1 {
		t.Errorf("expected 1 previous order, got %d", len(history["previous"]))
	}
}

func TestClientCancel(t *testing.T) {
	server, _, _, clientToken := setupTestServer(t)

	order := placeCustomOrder(t, server, clientToken, time.Now().Add(96*time.Hour), false)

	req, _ := authRequest("POST", fmt.Sprintf("%s/api/client/orders/%d/cancel", server.URL, order.ID), clientToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 canceling, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Canceling again hits the terminal-status rule.
	req, _ = authRequest("POST", fmt.Sprintf("%s/api/client/orders/%d/cancel", server.URL, order.ID), clientToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 canceling a canceled order, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClientCancelTooCloseToDelivery(t *testing.T) {
	server, _, _, clientToken := setupTestServer(t)

	order := placeCustomOrder(t, server, clientToken, time.Now().Add(2*time.Hour), false)

	req, _ := authRequest("POST", fmt.Sprintf("%s/api/client/orders/%d/cancel", server.URL, order.ID), clientToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 inside the cancellation window, got %d", resp.StatusCode)
	}
	result := decodeBody[map[string]string](t, resp)
	if !strings.Contains(result["error"], "24 hours") {
		t.Errorf("expected the window in the message, got %q", result["error"])
	}
}

func TestClientCannotCancelOthersOrders(t *testing.T) {
	server, _, adminToken, clientToken := setupTestServer(t)

	order := placeCustomOrder(t, server, clientToken, time.Now().Add(96*time.Hour), false)

	// The admin owns no orders, so even with a valid token this looks missing.
	req, _ := authRequest("POST", fmt.Sprintf("%s/api/client/orders/%d/cancel", server.URL, order.ID), adminToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for someone else's order, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, _, clientToken := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", clientToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 logging out, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/client/orders", clientToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFeedFlow(t *testing.T) {
	server, _, adminToken, _ := setupTestServer(t)

	// Image post.
	body, contentType := multipartBody(t, map[string]string{
		"type":  model.FeedTypeImage,
		"title": "Wedding cake",
	}, "file", "wedding.jpg", testJPEGData(100, 100))
	req, _ := http.NewRequest("POST", server.URL+"/api/feed", body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for image post, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Video post by external URL.
	body, contentType = multipartBody(t, map[string]string{
		"type":  model.FeedTypeVideo,
		"title": "Piping demo",
		"url":   "https://videos.example.com/demo.mp4",
	}, "", "", nil)
	req, _ = http.NewRequest("POST", server.URL+"/api/feed", body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for video post, got %d", resp.StatusCode)
	}
	video := decodeBody[model.FeedItem](t, resp)

	// Public list, newest first.
	resp, _ = http.Get(server.URL + "/api/feed")
	items := decodeBody[[]model.FeedItem](t, resp)
	if len(items) != 2 {
		t.Fatalf("expected 2 feed items, got %d", len(items))
	}
	if items[0].Title != "Piping demo" {
		t.Errorf("expected newest item first, got %q", items[0].Title)
	}

	// Delete.
	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/feed/%d", server.URL, video.ID), adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 deleting feed item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("DELETE", fmt.Sprintf("%s/api/feed/%d", server.URL, video.ID), adminToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 deleting a deleted feed item, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFeedValidation(t *testing.T) {
	server, _, adminToken, _ := setupTestServer(t)

	// Missing title.
	body, contentType := multipartBody(t, map[string]string{"type": model.FeedTypeImage}, "", "", nil)
	req, _ := http.NewRequest("POST", server.URL+"/api/feed", body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing title, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Unknown type.
	body, contentType = multipartBody(t, map[string]string{"type": "audio", "title": "X"}, "", "", nil)
	req, _ = http.NewRequest("POST", server.URL+"/api/feed", body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Video with neither file nor URL.
	body, contentType = multipartBody(t, map[string]string{"type": model.FeedTypeVideo, "title": "X"}, "", "", nil)
	req, _ = http.NewRequest("POST", server.URL+"/api/feed", body)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", contentType)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for video without media, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPasswordResetFlow(t *testing.T) {
	server, mailer, _, _ := setupTestServer(t)

	// Unknown emails get the same answer as known ones.
	body, _ := json.Marshal(map[string]string{"email": "nobody@example.com"})
	resp, _ := http.Post(server.URL+"/api/auth/forgot-password", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for unknown email, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	if mailer.lastResetLink() != "" {
		t.Error("expected no reset email for an unknown account")
	}

	body, _ = json.Marshal(map[string]string{"email": "ana@example.com"})
	resp, _ = http.Post(server.URL+"/api/auth/forgot-password", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	link := mailer.lastResetLink()
	if link == "" {
		t.Fatal("expected a reset email")
	}
	token := link[strings.Index(link, "token=")+len("token="):]

	body, _ = json.Marshal(map[string]string{"token": token, "new_password": "brand-new-password"})
	resp, _ = http.Post(server.URL+"/api/auth/reset-password", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 resetting password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Old password no longer works, new one does.
	body, _ = json.Marshal(map[string]string{"email": "ana@example.com", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with the old password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	login(t, server, "ana@example.com", "brand-new-password")

	// The token is single-use.
	body, _ = json.Marshal(map[string]string{"token": token, "new_password": "another-password"})
	resp, _ = http.Post(server.URL+"/api/auth/reset-password", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 reusing a reset token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
