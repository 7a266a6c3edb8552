package catalog

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
)

// CredentialSource supplies short-lived provider credentials. Satisfied by
// *credentials.Broker.
type CredentialSource interface {
	GetCredentials(ctx context.Context, merchantID string, provider models.Provider) (*models.Credentials, error)
}

// Adapter fetches a provider's catalog and order state and translates both
// into the normalized storefront model. Implementations obtain credentials
// from the broker on every call and never cache them.
type Adapter interface {
	Provider() models.Provider
	FetchMenu(ctx context.Context, shop models.ShopIdentity) ([]models.MenuCategory, error)
	FetchOrderStatus(ctx context.Context, providerOrderID, merchantID string) (models.OrderStatus, error)
}

// Factory selects the adapter for a shop's provider. Selection happens once
// at shop-load time; the chosen adapter travels with the shop thereafter.
type Factory struct {
	square *SquareAdapter
	clover *CloverAdapter
}

// NewFactory creates a factory holding one adapter per supported provider.
func NewFactory(square *SquareAdapter, clover *CloverAdapter) *Factory {
	return &Factory{square: square, clover: clover}
}

// ForShop returns the adapter matching the shop's provider.
func (f *Factory) ForShop(shop models.ShopIdentity) (Adapter, error) {
	return f.ForProvider(shop.Provider)
}

// ForProvider returns the adapter for the given provider kind.
func (f *Factory) ForProvider(provider models.Provider) (Adapter, error) {
	switch provider {
	case models.ProviderSquare:
		return f.square, nil
	case models.ProviderClover:
		return f.clover, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported provider %q", provider)
	}
}
