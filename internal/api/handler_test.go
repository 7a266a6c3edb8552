package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/menusync"
	"storefront-service/internal/models"
	"storefront-service/internal/reconciler"
	"storefront-service/internal/shops"
	"storefront-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	categories []models.MenuCategory
	statuses   map[string]models.OrderStatus
}

func (a *stubAdapter) Provider() models.Provider { return models.ProviderSquare }

func (a *stubAdapter) FetchMenu(ctx context.Context, shop models.ShopIdentity) ([]models.MenuCategory, error) {
	return a.categories, nil
}

func (a *stubAdapter) FetchOrderStatus(ctx context.Context, providerOrderID, merchantID string) (models.OrderStatus, error) {
	return a.statuses[providerOrderID], nil
}

type stubSource struct{ adapter *stubAdapter }

func (s *stubSource) ForShop(shop models.ShopIdentity) (catalog.Adapter, error) {
	return s.adapter, nil
}

func (s *stubSource) ForProvider(provider models.Provider) (catalog.Adapter, error) {
	return s.adapter, nil
}

func setupRouter(t *testing.T, adapter *stubAdapter, orders *store.MemoryStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	directory, err := shops.NewDirectory([]models.ShopIdentity{
		{ID: "shop-1", MerchantID: "M1", Provider: models.ProviderSquare, Name: "Corner Coffee"},
	})
	require.NoError(t, err)

	disk, err := menusync.NewDiskCache(t.TempDir())
	require.NoError(t, err)

	source := &stubSource{adapter: adapter}
	syncer := menusync.NewSyncer(source, disk, nil, 30*time.Minute)
	r := reconciler.NewReconciler(orders, source, nil, nil, time.Minute)

	router := gin.New()
	handler := NewHandler(syncer, r, orders, directory)
	handler.SetupRoutes(router)
	return router
}

func menuCategories() []models.MenuCategory {
	return []models.MenuCategory{
		{ID: "c1", Name: "Coffee", Items: []models.MenuItem{{ID: "i1", Name: "Espresso", Price: 3.50}}},
	}
}

func TestGetMenuReturnsSnapshot(t *testing.T) {
	adapter := &stubAdapter{categories: menuCategories()}
	router := setupRouter(t, adapter, store.NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/shop-1/menu", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snap models.MenuSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.ErrorMessage)
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Coffee", snap.Categories[0].Name)
}

func TestGetMenuUnknownShop(t *testing.T) {
	router := setupRouter(t, &stubAdapter{}, store.NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/shops/nope/menu", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshMenu(t *testing.T) {
	adapter := &stubAdapter{categories: menuCategories()}
	router := setupRouter(t, adapter, store.NewMemoryStore())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shops/shop-1/refresh", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var snap models.MenuSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.Len(t, snap.Categories, 1)
}

func TestGetOrder(t *testing.T) {
	orders := store.NewMemoryStore()
	order := &models.Order{ShopID: "shop-1", Provider: models.ProviderSquare, Status: models.OrderStatusSubmitted, Total: 7.25}
	require.NoError(t, orders.CreateOrder(context.Background(), order))

	router := setupRouter(t, &stubAdapter{}, orders)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"submitted"`)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunReconcile(t *testing.T) {
	orders := store.NewMemoryStore()
	order := &models.Order{
		ShopID:          "shop-1",
		MerchantID:      "M1",
		Provider:        models.ProviderSquare,
		Status:          models.OrderStatusSubmitted,
		ProviderOrderID: "sq-1",
	}
	require.NoError(t, orders.CreateOrder(context.Background(), order))

	adapter := &stubAdapter{statuses: map[string]models.OrderStatus{"sq-1": models.OrderStatusReady}}
	router := setupRouter(t, adapter, orders)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reconcile", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"updated":1`)

	got, err := orders.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusReady, got.Status)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupRouter(t, &stubAdapter{}, store.NewMemoryStore())

	for _, path := range []string{"/health", "/ready"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
