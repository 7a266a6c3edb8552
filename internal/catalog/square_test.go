package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCredentials struct {
	creds models.Credentials
	err   error
	calls int
}

func (s *stubCredentials) GetCredentials(ctx context.Context, merchantID string, provider models.Provider) (*models.Credentials, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	creds := s.creds
	return &creds, nil
}

const squareCatalogPayload = `{
  "objects": [
    {"type": "CATEGORY", "id": "cat-coffee", "category_data": {"name": "Coffee"}},
    {"type": "CATEGORY", "id": "cat-hidden", "is_deleted": true, "category_data": {"name": "Seasonal"}},
    {"type": "MODIFIER_LIST", "id": "mods-milk", "modifier_list_data": {
      "name": "Milk",
      "modifiers": [
        {"id": "m-oat", "modifier_data": {"name": "Oat Milk", "price_money": {"amount": 75}, "on_by_default": false}},
        {"id": "m-whole", "modifier_data": {"name": "Whole Milk", "price_money": {"amount": 0}, "on_by_default": true}},
        {"id": "m-gone", "modifier_data": {"name": "Soy Milk", "price_money": {"amount": 50}, "hidden": true}}
      ]
    }},
    {"type": "ITEM", "id": "item-latte", "item_data": {
      "name": "Latte",
      "description": "Espresso with steamed milk",
      "category_id": "cat-coffee",
      "variations": [
        {"id": "v-sm", "item_variation_data": {"name": "Small", "price_money": {"amount": 425}}},
        {"id": "v-lg", "item_variation_data": {"name": "Large", "price_money": {"amount": 525}}}
      ],
      "modifier_list_info": [
        {"modifier_list_id": "mods-milk", "min_selected_modifiers": 0, "max_selected_modifiers": 1}
      ]
    }},
    {"type": "ITEM", "id": "item-offline", "item_data": {
      "name": "Staff Special", "category_id": "cat-coffee", "available_online": false,
      "variations": [{"id": "v-x", "item_variation_data": {"name": "Only", "price_money": {"amount": 100}}}]
    }},
    {"type": "ITEM", "id": "item-orphan", "item_data": {
      "name": "Orphan", "category_id": "cat-missing",
      "variations": [{"id": "v-y", "item_variation_data": {"name": "Only", "price_money": {"amount": 100}}}]
    }}
  ]
}`

func squareTestServer(t *testing.T, catalogBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v2/catalog/list":
			w.Write([]byte(catalogBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSquareFetchMenuNormalizes(t *testing.T) {
	srv := squareTestServer(t, squareCatalogPayload)
	defer srv.Close()

	creds := &stubCredentials{creds: models.Credentials{AccessToken: "tok", MerchantID: "M1"}}
	adapter := NewSquareAdapter(srv.URL, creds)

	shop := models.ShopIdentity{ID: "s1", MerchantID: "M1", Provider: models.ProviderSquare}
	categories, err := adapter.FetchMenu(context.Background(), shop)
	require.NoError(t, err)
	assert.Equal(t, 1, creds.calls)

	// Deleted category and its name never appear; the live one carries the
	// single displayable item.
	require.Len(t, categories, 1)
	assert.Equal(t, "Coffee", categories[0].Name)
	require.Len(t, categories[0].Items, 1)

	latte := categories[0].Items[0]
	assert.Equal(t, "Latte", latte.Name)
	assert.Equal(t, 4.25, latte.Price)
	require.Len(t, latte.Variations, 2)
	assert.Equal(t, 5.25, latte.Variations[1].Price)

	require.Len(t, latte.ModifierGroups, 1)
	group := latte.ModifierGroups[0]
	assert.Equal(t, "Milk", group.Name)
	assert.Equal(t, 0, group.MinSelections)
	assert.Equal(t, 1, group.MaxSelections)
	require.Len(t, group.Modifiers, 3)
	assert.Equal(t, 0.75, group.Modifiers[0].PriceDelta)
	assert.True(t, group.Modifiers[0].Available)
	assert.True(t, group.Modifiers[1].DefaultSelected)
	assert.False(t, group.Modifiers[2].Available)
}

func TestSquareNormalizationIsIdempotent(t *testing.T) {
	srv := squareTestServer(t, squareCatalogPayload)
	defer srv.Close()

	creds := &stubCredentials{creds: models.Credentials{AccessToken: "tok"}}
	adapter := NewSquareAdapter(srv.URL, creds)
	shop := models.ShopIdentity{ID: "s1", MerchantID: "M1", Provider: models.ProviderSquare}

	first, err := adapter.FetchMenu(context.Background(), shop)
	require.NoError(t, err)
	second, err := adapter.FetchMenu(context.Background(), shop)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSquareUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	creds := &stubCredentials{creds: models.Credentials{AccessToken: "expired"}}
	adapter := NewSquareAdapter(srv.URL, creds)
	shop := models.ShopIdentity{ID: "s1", MerchantID: "M1", Provider: models.ProviderSquare}

	_, err := adapter.FetchMenu(context.Background(), shop)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSquareServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	creds := &stubCredentials{creds: models.Credentials{AccessToken: "tok"}}
	adapter := NewSquareAdapter(srv.URL, creds)
	shop := models.ShopIdentity{ID: "s1", MerchantID: "M1", Provider: models.ProviderSquare}

	_, err := adapter.FetchMenu(context.Background(), shop)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestSquareFetchOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/orders/sq-42", r.URL.Path)
		w.Write([]byte(`{"order":{"id":"sq-42","state":"COMPLETED"}}`))
	}))
	defer srv.Close()

	creds := &stubCredentials{creds: models.Credentials{AccessToken: "tok"}}
	adapter := NewSquareAdapter(srv.URL, creds)

	status, err := adapter.FetchOrderStatus(context.Background(), "sq-42", "M1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, status)
}

func TestSquareOrderStatusMapping(t *testing.T) {
	cases := map[string]models.OrderStatus{
		"PROPOSED":    models.OrderStatusSubmitted,
		"OPEN":        models.OrderStatusSubmitted,
		"IN_PROGRESS": models.OrderStatusInProgress,
		"PREPARED":    models.OrderStatusReady,
		"COMPLETED":   models.OrderStatusCompleted,
		"CANCELED":    models.OrderStatusCancelled,
	}
	for state, want := range cases {
		got, err := squareOrderStatus(state)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := squareOrderStatus("TELEPORTED")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestFactorySelection(t *testing.T) {
	square := NewSquareAdapter("http://example.invalid", &stubCredentials{})
	clover := NewCloverAdapter("http://example.invalid", &stubCredentials{})
	factory := NewFactory(square, clover)

	adapter, err := factory.ForShop(models.ShopIdentity{Provider: models.ProviderSquare})
	require.NoError(t, err)
	assert.Equal(t, models.ProviderSquare, adapter.Provider())

	adapter, err = factory.ForProvider(models.ProviderClover)
	require.NoError(t, err)
	assert.Equal(t, models.ProviderClover, adapter.Provider())

	_, err = factory.ForProvider("toast")
	assert.Error(t, err)
}
