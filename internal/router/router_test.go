package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nutri-next/internal/config"
	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/http/response"
	"github.com/nutri-next/internal/models"
	"github.com/nutri-next/internal/provider"
	"github.com/nutri-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	testUserSecret  = "user-test-secret"
	testAdminSecret = "admin-test-secret"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	models.DB = db
	if err := models.AutoMigrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: testAdminSecret},
		UserJWT: config.JWTConfig{SecretKey: testUserSecret},
		Order:   config.OrderConfig{Currency: "USD", PaymentExpireMinutes: 30},
		Catalog: config.CatalogConfig{CacheTTLSeconds: 60},
	}
	container := provider.NewContainer(cfg)
	return SetupRouter(cfg, container), db
}

func seedRouterCatalog(t *testing.T, db *gorm.DB) (*models.User, *models.ProductVariant) {
	t.Helper()
	user := &models.User{Email: "buyer@example.com", Status: constants.UserStatusActive}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}

	flavor := &models.Flavor{Slug: "vanilla", Name: "香草"}
	weight := &models.Weight{Slug: "1kg", Label: "1kg", Grams: 1000}
	for _, record := range []interface{}{flavor, weight} {
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("create option failed: %v", err)
		}
	}
	product := &models.Product{
		Slug:            "whey-isolate",
		Name:            "分离乳清蛋白粉",
		FlavorOptionIDs: models.UintArray{flavor.ID},
		WeightOptionIDs: models.UintArray{weight.ID},
		IsActive:        true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID:         product.ID,
		SKUCode:           "WI-VAN-1KG",
		FlavorID:          &flavor.ID,
		WeightID:          &weight.ID,
		PriceAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
		AvailableQuantity: 10,
		IsActive:          true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return user, variant
}

func signUserToken(t *testing.T, userID uint) string {
	t.Helper()
	claims := service.UserJWTClaims{
		UserID: userID,
		Email:  "buyer@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testUserSecret))
	if err != nil {
		t.Fatalf("sign user token failed: %v", err)
	}
	return token
}

func signAdminToken(t *testing.T) string {
	t.Helper()
	claims := service.JWTClaims{
		AdminID:  1,
		Username: "ops",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAdminSecret))
	if err != nil {
		t.Fatalf("sign admin token failed: %v", err)
	}
	return token
}

func doJSONRequest(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) *response.Response {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewBuffer(payload)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, recorder.Code)
	}
	var envelope response.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response failed: %v, body=%s", err, recorder.Body.String())
	}
	return &envelope
}

func TestHealthEndpoint(t *testing.T) {
	engine, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("health status want 200 got %d", recorder.Code)
	}
}

func TestPublicProductDetailRoute(t *testing.T) {
	engine, db := setupTestRouter(t)
	seedRouterCatalog(t, db)

	envelope := doJSONRequest(t, engine, http.MethodGet, "/api/v1/public/products/whey-isolate", "", nil)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("detail status_code want 0 got %d (%s)", envelope.StatusCode, envelope.Msg)
	}

	envelope = doJSONRequest(t, engine, http.MethodGet, "/api/v1/public/products/missing", "", nil)
	if envelope.StatusCode != response.CodeNotFound {
		t.Fatalf("missing product status_code want 404 got %d", envelope.StatusCode)
	}
}

func TestCheckoutRequiresUserToken(t *testing.T) {
	engine, db := setupTestRouter(t)
	user, variant := seedRouterCatalog(t, db)

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"variant_id": variant.ID, "quantity": 2},
		},
	}

	envelope := doJSONRequest(t, engine, http.MethodPost, "/api/v1/payment/orders", "", body)
	if envelope.StatusCode != response.CodeUnauthorized {
		t.Fatalf("unauthenticated checkout status_code want 401 got %d", envelope.StatusCode)
	}

	token := signUserToken(t, user.ID)
	envelope = doJSONRequest(t, engine, http.MethodPost, "/api/v1/payment/orders", token, body)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("checkout status_code want 0 got %d (%s)", envelope.StatusCode, envelope.Msg)
	}

	var reloaded models.ProductVariant
	if err := db.First(&reloaded, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if reloaded.AvailableQuantity != 8 || reloaded.ReservedQuantity != 2 {
		t.Fatalf("stock after checkout want 8/2 got %d/%d", reloaded.AvailableQuantity, reloaded.ReservedQuantity)
	}
}

func TestAdminStatusTransitionRoute(t *testing.T) {
	engine, db := setupTestRouter(t)
	user, variant := seedRouterCatalog(t, db)

	userToken := signUserToken(t, user.ID)
	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"variant_id": variant.ID, "quantity": 1},
		},
	}
	envelope := doJSONRequest(t, engine, http.MethodPost, "/api/v1/payment/orders", userToken, body)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("checkout failed: %d (%s)", envelope.StatusCode, envelope.Msg)
	}

	var order models.Order
	if err := db.First(&order).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}

	adminToken := signAdminToken(t)
	statusPath := fmt.Sprintf("/api/v1/admin/orders/%d/status", order.ID)

	// 用户令牌不能进入管理端
	envelope = doJSONRequest(t, engine, http.MethodPut, statusPath, userToken, map[string]string{"status": "paid"})
	if envelope.StatusCode != response.CodeUnauthorized {
		t.Fatalf("user token on admin route want 401 got %d", envelope.StatusCode)
	}

	envelope = doJSONRequest(t, engine, http.MethodPut, statusPath, adminToken, map[string]string{"status": "paid"})
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("transition to paid failed: %d (%s)", envelope.StatusCode, envelope.Msg)
	}

	envelope = doJSONRequest(t, engine, http.MethodPut, statusPath, adminToken, map[string]string{"status": "delivered"})
	if envelope.StatusCode != response.CodeBadRequest {
		t.Fatalf("illegal transition status_code want 400 got %d", envelope.StatusCode)
	}
	if !strings.Contains(envelope.Msg, "paid") || !strings.Contains(envelope.Msg, "delivered") {
		t.Fatalf("rejection message must name both states, got %q", envelope.Msg)
	}

	envelope = doJSONRequest(t, engine, http.MethodGet, statusPath, adminToken, nil)
	if envelope.StatusCode != response.CodeOK {
		t.Fatalf("status view failed: %d (%s)", envelope.StatusCode, envelope.Msg)
	}
}
