package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/pharmastore-golang/internal/audit"
	"github.com/01moynul/pharmastore-golang/internal/auth"
	"github.com/01moynul/pharmastore-golang/internal/handlers"
	"github.com/01moynul/pharmastore-golang/internal/middleware"
	"github.com/01moynul/pharmastore-golang/internal/models"
	"github.com/01moynul/pharmastore-golang/internal/repository/memstore"
	"github.com/01moynul/pharmastore-golang/internal/routes"
	"github.com/01moynul/pharmastore-golang/internal/services"
)

const callbackSecret = "cb-secret"

type server struct {
	engine     *gin.Engine
	svc        *services.Services
	pharmacyID int64
	customer   string
	staff      string
	admin      string
}

func setupServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	reg, _ := memstore.New()
	log := zap.NewNop()
	svc := services.New(reg, audit.NewRecorder(&audit.DBSink{Log: reg.Audit}, log), log, services.DefaultShippingRates())
	h := handlers.New(svc, auth.NewManager("test-secret", time.Hour), log)
	s := &server{
		engine: routes.SetupRouter(h, routes.Options{CORSOrigin: "http://localhost:3000", CallbackSecret: callbackSecret, Logger: log}),
		svc:    svc,
	}

	ph, err := svc.Accounts.CreatePharmacy(ctx, services.PharmacyInput{Name: "Central Pharmacy"})
	if err != nil {
		t.Fatal(err)
	}
	s.pharmacyID = ph.ID
	in := services.RegisterInput{Password: "secret-pass"}
	in.Email = "staff@example.com"
	if _, err := svc.Accounts.CreateStaff(ctx, ph.ID, in); err != nil {
		t.Fatal(err)
	}
	in.Email = "admin@example.com"
	if _, err := svc.Accounts.CreateAdmin(ctx, in); err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, s, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email": "ayse@example.com", "password": "secret-pass", "fullName": "Ayse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register code %v: %s", w.Code, w.Body)
	}
	s.customer = login(t, s, "ayse@example.com")
	s.staff = login(t, s, "staff@example.com")
	s.admin = login(t, s, "admin@example.com")
	return s
}

func login(t *testing.T, s *server, email string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/v1/auth/login", "", map[string]any{"email": email, "password": "secret-pass"})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: %v %s", email, w.Code, w.Body)
	}
	return decode(t, w)["token"].(string)
}

func doJSON(t *testing.T, s *server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status %d, want %d: %s", w.Code, status, w.Body)
	}
	if w.Body.Len() == 0 || w.Body.Bytes()[0] != '{' {
		return nil
	}
	return decode(t, w)
}

func (s *server) createProduct(t *testing.T, price string, stock int) int64 {
	t.Helper()
	cat := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/staff/categories", s.staff, map[string]any{"name": "Pain relief " + price}), http.StatusCreated)
	p := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/staff/products", s.staff, map[string]any{
		"categoryId": cat["id"], "name": "Paracetamol " + price, "sku": "PRC-" + price, "price": price, "stockQuantity": stock,
	}), http.StatusCreated)
	return int64(p["id"].(float64))
}

func (s *server) checkout(t *testing.T, productID int64, qty int) string {
	t.Helper()
	expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/cart/items", s.customer, map[string]any{
		"pharmacyId": s.pharmacyID, "productId": productID, "quantity": qty,
	}), http.StatusOK)
	o := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/orders", s.customer, map[string]any{
		"pharmacyId": s.pharmacyID, "deliveryType": "COURIER",
		"shippingAddress": "Ataturk Cd. 1", "shippingCity": "Izmir", "shippingPhone": "+905550000000",
	}), http.StatusCreated)
	return o["orderNumber"].(string)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := setupServer(t)
	productID := s.createProduct(t, "100", 10)
	number := s.checkout(t, productID, 3)

	cart := expectStatus(t, doJSON(t, s, http.MethodGet, fmt.Sprintf("/v1/customer/cart?pharmacyId=%d", s.pharmacyID), s.customer, nil), http.StatusOK)
	if items := cart["items"].([]any); len(items) != 0 {
		t.Fatalf("cart not cleared after checkout: %v", items)
	}

	pay := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/orders/"+number+"/payment", s.customer, nil), http.StatusCreated)
	if pay["amount"] != "320" {
		t.Fatalf("payment amount %v", pay["amount"])
	}

	callback := map[string]any{"status": "SUCCESS", "conversationId": pay["conversationId"], "transactionId": "tx-1"}
	expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/public/payments/callback", "", callback), http.StatusUnauthorized)

	req := httptest.NewRequest(http.MethodPost, "/v1/public/payments/callback", bytes.NewBufferString(
		fmt.Sprintf(`{"status":"SUCCESS","conversationId":%q}`, pay["conversationId"])))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderCallbackToken, callbackSecret)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusOK)

	detail := expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/customer/orders/"+number, s.customer, nil), http.StatusOK)
	if detail["status"] != string(models.OrderStatusConfirmed) || detail["payment"] == nil {
		t.Fatalf("order detail: %v", detail)
	}

	for _, step := range []map[string]any{
		{"status": "PREPARING"},
		{"status": "SHIPPED", "trackingNumber": "TRK-1", "cargoCompany": "Aras"},
		{"status": "DELIVERED"},
	} {
		expectStatus(t, doJSON(t, s, http.MethodPatch, "/v1/staff/orders/"+number+"/status", s.staff, step), http.StatusOK)
	}

	body := expectStatus(t, doJSON(t, s, http.MethodPatch, "/v1/staff/orders/"+number+"/status", s.staff, map[string]any{"status": "PREPARING"}), http.StatusBadRequest)
	if body["code"] != "INVALID_STATUS_TRANSITION" {
		t.Fatalf("error envelope: %v", body)
	}

	refund := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/staff/orders/"+number+"/refund", s.staff, map[string]any{"amount": "200"}), http.StatusOK)
	if refund["status"] != string(models.PaymentStatusSuccess) || refund["refundedAmount"] != "200" {
		t.Fatalf("partial refund: %v", refund)
	}
	body = expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/staff/orders/"+number+"/refund", s.staff, map[string]any{"amount": "150"}), http.StatusBadRequest)
	if body["code"] != "REFUND_EXCEEDS_PAYMENT" {
		t.Fatalf("refund cap: %v", body)
	}
	refund = expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/staff/orders/"+number+"/refund", s.staff, nil), http.StatusOK)
	if refund["status"] != string(models.PaymentStatusRefunded) {
		t.Fatalf("full refund: %v", refund)
	}
}

func TestCancelRestoresStockOverHTTP(t *testing.T) {
	s := setupServer(t)
	productID := s.createProduct(t, "10", 5)
	number := s.checkout(t, productID, 5)

	w := doJSON(t, s, http.MethodPost, "/v1/customer/cart/items", s.customer, map[string]any{
		"pharmacyId": s.pharmacyID, "productId": productID, "quantity": 1,
	})
	if body := expectStatus(t, w, http.StatusConflict); body["code"] != "INSUFFICIENT_STOCK" {
		t.Fatalf("error envelope: %v", body)
	}

	o := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/orders/"+number+"/cancel", s.customer, map[string]any{"reason": "changed my mind"}), http.StatusOK)
	if o["status"] != string(models.OrderStatusCancelled) || o["cancellationReason"] != "changed my mind" {
		t.Fatalf("cancelled order: %v", o)
	}
	p := expectStatus(t, doJSON(t, s, http.MethodGet, fmt.Sprintf("/v1/staff/products/%d", productID), s.staff, nil), http.StatusOK)
	if p["stockQuantity"].(float64) != 5 {
		t.Fatalf("stock after cancel: %v", p["stockQuantity"])
	}

	body := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/staff/orders/"+number+"/cancel", s.staff, nil), http.StatusBadRequest)
	if body["code"] != "ORDER_NOT_CANCELLABLE" {
		t.Fatalf("second cancel: %v", body)
	}
}

func TestAccessControl(t *testing.T) {
	s := setupServer(t)

	expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/customer/orders", "", nil), http.StatusUnauthorized)
	expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/staff/orders", s.customer, nil), http.StatusForbidden)
	expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/customer/orders", s.staff, nil), http.StatusForbidden)
	expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/admin/pharmacies", s.staff, map[string]any{"name": "X"}), http.StatusForbidden)

	ph := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/admin/pharmacies", s.admin, map[string]any{"name": "North Pharmacy"}), http.StatusCreated)
	if ph["slug"] != "north-pharmacy" {
		t.Fatalf("pharmacy: %v", ph)
	}

	expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email": "ayse@example.com", "password": "wrong-pass",
	}), http.StatusUnauthorized)
}

func TestValidationErrors(t *testing.T) {
	s := setupServer(t)
	productID := s.createProduct(t, "10", 5)
	expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/cart/items", s.customer, map[string]any{
		"pharmacyId": s.pharmacyID, "productId": productID, "quantity": 1,
	}), http.StatusOK)

	body := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/orders", s.customer, map[string]any{
		"pharmacyId": s.pharmacyID, "deliveryType": "DRONE",
		"shippingAddress": "a", "shippingCity": "b", "shippingPhone": "c",
	}), http.StatusBadRequest)
	if body["code"] != "VALIDATION_FAILED" || body["details"].(map[string]any)["DeliveryType"] != "deliverytype" {
		t.Fatalf("validation envelope: %v", body)
	}

	expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/customer/cart", s.customer, nil), http.StatusBadRequest)
	expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/customer/orders?status=LOST", s.customer, nil), http.StatusBadRequest)
	expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/public/pharmacies/999/products", "", nil), http.StatusNotFound)

	list := doJSON(t, s, http.MethodGet, fmt.Sprintf("/v1/public/pharmacies/%d/products", s.pharmacyID), "", nil)
	var products []map[string]any
	if err := json.Unmarshal(list.Body.Bytes(), &products); err != nil || len(products) != 1 {
		t.Fatalf("storefront: %v %s", err, list.Body)
	}
}

func (s *server) callback(t *testing.T, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(middleware.HeaderCallbackToken, callbackSecret)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestPaymentCallback_FormAndQueryParams(t *testing.T) {
	s := setupServer(t)
	productID := s.createProduct(t, "40", 10)

	startPayment := func() (string, string) {
		number := s.checkout(t, productID, 1)
		pay := expectStatus(t, doJSON(t, s, http.MethodPost, "/v1/customer/orders/"+number+"/payment", s.customer, nil), http.StatusCreated)
		return number, pay["conversationId"].(string)
	}
	orderStatus := func(number string) any {
		return expectStatus(t, doJSON(t, s, http.MethodGet, "/v1/customer/orders/"+number, s.customer, nil), http.StatusOK)["status"]
	}

	paid, conv := startPayment()
	form := url.Values{"status": {"SUCCESS"}, "conversationId": {conv}, "transactionId": {"tx-form"}}
	p := expectStatus(t, s.callback(t, "/v1/public/payments/callback", "application/x-www-form-urlencoded", form.Encode()), http.StatusOK)
	if p["status"] != string(models.PaymentStatusSuccess) || p["transactionId"] != "tx-form" {
		t.Fatalf("form callback payment: %v", p)
	}
	if got := orderStatus(paid); got != string(models.OrderStatusConfirmed) {
		t.Fatalf("form callback order status: %v", got)
	}

	failed, conv := startPayment()
	query := url.Values{"status": {"failure"}, "conversationId": {conv}, "errorCode": {"10051"}}
	p = expectStatus(t, s.callback(t, "/v1/public/payments/callback?"+query.Encode(), "", ""), http.StatusOK)
	if p["status"] != string(models.PaymentStatusFailed) {
		t.Fatalf("query callback payment: %v", p)
	}
	if got := orderStatus(failed); got != string(models.OrderStatusPaymentFailed) {
		t.Fatalf("query callback order status: %v", got)
	}

	// query parameters also bind when the provider labels an empty body as JSON
	_, conv = startPayment()
	query = url.Values{"status": {"SUCCESS"}, "conversationId": {conv}}
	expectStatus(t, s.callback(t, "/v1/public/payments/callback?"+query.Encode(), "application/json", ""), http.StatusOK)

	body := expectStatus(t, s.callback(t, "/v1/public/payments/callback", "application/x-www-form-urlencoded", "status=SUCCESS"), http.StatusBadRequest)
	if body["code"] != "VALIDATION_FAILED" {
		t.Fatalf("missing conversation id: %v", body)
	}
}
