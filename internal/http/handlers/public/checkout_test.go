package public

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/groupvial/internal/cart"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/events"
	"github.com/groupvial/internal/http/response"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/provider"
	"github.com/groupvial/internal/realtime"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type checkoutEnvelope struct {
	StatusCode int    `json:"status_code"`
	Msg        string `json:"msg"`
	Data       struct {
		Order struct {
			OrderCode     string `json:"order_code"`
			Status        string `json:"status"`
			PaymentStatus string `json:"payment_status"`
		} `json:"order"`
		Replayed bool `json:"replayed"`
	} `json:"data"`
}

type checkoutHarness struct {
	db     *gorm.DB
	carts  *cart.MemoryStore
	router *gin.Engine
}

func newCheckoutHarness(t *testing.T) *checkoutHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:public_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.Migrate(db))

	batchRepo := repository.NewBatchRepository(db)
	productRepo := repository.NewProductRepository(db)
	regionRepo := repository.NewRegionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	settings := service.NewSettingService(repository.NewSettingRepository(db))
	batches := service.NewBatchService(batchRepo, productRepo, regionRepo, nil, realtime.NewMemoryHub())
	carts := cart.NewMemoryStore(time.Hour)

	checkout := service.NewCheckoutService(
		batchRepo,
		orderRepo,
		productRepo,
		regionRepo,
		settings,
		batches,
		nil,
		carts,
		nil,
		events.NopPublisher{},
		config.OrderConfig{},
		config.MessagingConfig{Provider: constants.MessagingWhatsApp, DefaultHandle: "+639171234567"},
	)

	h := New(&provider.Container{Config: &config.Config{}, CheckoutService: checkout})
	r := gin.New()
	r.POST("/api/v1/public/checkout", h.GuestCheckout)
	return &checkoutHarness{db: db, carts: carts, router: r}
}

func (h *checkoutHarness) seedIndividualCart(t *testing.T, id string) {
	t.Helper()
	product := &models.Product{
		Slug:         "bpc-157-" + id,
		Name:         "BPC-157",
		Category:     "recovery",
		PricePerVial: models.NewMoney(200),
		PricePerBox:  models.NewMoney(1800),
		VialsPerBox:  10,
		IsActive:     true,
	}
	require.NoError(t, h.db.Create(product).Error)

	c := cart.New(id)
	require.NoError(t, c.Add(cart.IndividualLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Unit:        constants.UnitVial,
		UnitPrice:   product.PricePerVial,
		VialsPerBox: product.VialsPerBox,
		Qty:         2,
	}))
	require.NoError(t, h.carts.Save(context.Background(), c))
}

func (h *checkoutHarness) post(t *testing.T, body map[string]interface{}, idempotencyKey string) checkoutEnvelope {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/checkout", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(idempotencyKeyHeader, idempotencyKey)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var out checkoutEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestGuestCheckoutHeaderKeyTakesPrecedence(t *testing.T) {
	h := newCheckoutHarness(t)
	h.seedIndividualCart(t, "guest-cart")

	body := map[string]interface{}{
		"cart_id":         "guest-cart",
		"customer_name":   "Maria",
		"contact_handle":  "+639175550000",
		"idempotency_key": "body-key",
	}
	first := h.post(t, body, "header-key")
	require.Equal(t, response.CodeOK, first.StatusCode, first.Msg)
	assert.False(t, first.Data.Replayed)
	assert.NotEmpty(t, first.Data.Order.OrderCode)
	assert.Equal(t, constants.OrderStatusPending, first.Data.Order.Status)
	assert.Equal(t, constants.PaymentStatusPending, first.Data.Order.PaymentStatus)

	var stored models.Order
	require.NoError(t, h.db.Where("order_code = ?", first.Data.Order.OrderCode).First(&stored).Error)
	require.NotNil(t, stored.IdempotencyKey)
	assert.Equal(t, "header-key", *stored.IdempotencyKey)

	body["idempotency_key"] = "another-body-key"
	second := h.post(t, body, "header-key")
	require.Equal(t, response.CodeOK, second.StatusCode, second.Msg)
	assert.True(t, second.Data.Replayed)
	assert.Equal(t, first.Data.Order.OrderCode, second.Data.Order.OrderCode)

	var count int64
	require.NoError(t, h.db.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGuestCheckoutBodyKeyUsedWithoutHeader(t *testing.T) {
	h := newCheckoutHarness(t)
	h.seedIndividualCart(t, "body-cart")

	out := h.post(t, map[string]interface{}{
		"cart_id":         "body-cart",
		"customer_name":   "Jose",
		"contact_handle":  "@jose",
		"idempotency_key": "body-only",
	}, "")
	require.Equal(t, response.CodeOK, out.StatusCode, out.Msg)

	var stored models.Order
	require.NoError(t, h.db.Where("order_code = ?", out.Data.Order.OrderCode).First(&stored).Error)
	require.NotNil(t, stored.IdempotencyKey)
	assert.Equal(t, "body-only", *stored.IdempotencyKey)
}

func TestGuestCheckoutMapsErrorsToCodes(t *testing.T) {
	h := newCheckoutHarness(t)
	h.seedIndividualCart(t, "mapped-cart")
	h.post(t, map[string]interface{}{
		"cart_id":        "mapped-cart",
		"customer_name":  "Ana",
		"contact_handle": "+639170001111",
	}, "mapped-first")

	cases := []struct {
		name     string
		body     map[string]interface{}
		key      string
		wantCode int
	}{
		{
			name:     "missing cart id",
			body:     map[string]interface{}{"customer_name": "Ana", "contact_handle": "@ana"},
			wantCode: response.CodeBadRequest,
		},
		{
			name:     "unknown cart",
			body:     map[string]interface{}{"cart_id": "nope", "customer_name": "Ana", "contact_handle": "@ana"},
			wantCode: response.CodeNotFound,
		},
		{
			name:     "blank customer name",
			body:     map[string]interface{}{"cart_id": "mapped-cart", "customer_name": "  ", "contact_handle": "@ana"},
			wantCode: response.CodeBadRequest,
		},
		{
			name:     "cart consumed by previous order",
			body:     map[string]interface{}{"cart_id": "mapped-cart", "customer_name": "Ana", "contact_handle": "@ana"},
			wantCode: response.CodeNotFound,
		},
		{
			name:     "key reused by another contact",
			body:     map[string]interface{}{"cart_id": "mapped-cart", "customer_name": "Ben", "contact_handle": "@ben"},
			key:      "mapped-first",
			wantCode: response.CodeConflict,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := h.post(t, tc.body, tc.key)
			assert.Equal(t, tc.wantCode, out.StatusCode, out.Msg)
			assert.NotEmpty(t, out.Msg)
		})
	}
}
