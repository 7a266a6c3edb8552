package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CloverAdapter talks to a Clover-style catalog API, which returns a nested
// category → items → modifier-group tree rather than a flat object list.
type CloverAdapter struct {
	baseURL     string
	credentials CredentialSource
	client      *http.Client
	logger      *zap.Logger
}

// NewCloverAdapter creates an adapter against the given API base URL.
func NewCloverAdapter(baseURL string, credentials CredentialSource) *CloverAdapter {
	return &CloverAdapter{
		baseURL:     baseURL,
		credentials: credentials,
		client:      &http.Client{Timeout: 20 * time.Second},
		logger:      util.GetLogger(),
	}
}

func (a *CloverAdapter) Provider() models.Provider {
	return models.ProviderClover
}

// Raw wire shapes. Prices are integer minor units (cents).

type cloverCategoriesResponse struct {
	Elements []cloverCategory `json:"elements"`
}

type cloverCategory struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
	Items  struct {
		Elements []cloverItem `json:"elements"`
	} `json:"items"`
}

type cloverItem struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          int64  `json:"price"`
	Hidden         bool   `json:"hidden"`
	Available      bool   `json:"available"`
	ModifierGroups struct {
		Elements []cloverModifierGroup `json:"elements"`
	} `json:"modifierGroups"`
}

type cloverModifierGroup struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MinRequired int    `json:"minRequired"`
	MaxAllowed  int    `json:"maxAllowed"`
	Modifiers   struct {
		Elements []cloverModifier `json:"elements"`
	} `json:"modifiers"`
}

type cloverModifier struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
	Default   bool   `json:"default"`
}

type cloverOrderResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// FetchMenu fetches the merchant's category tree with items and modifier
// groups expanded, then normalizes it.
func (a *CloverAdapter) FetchMenu(ctx context.Context, shop models.ShopIdentity) ([]models.MenuCategory, error) {
	ctx, span := util.StartSpan(ctx, "CloverAdapter.FetchMenu")
	defer span.End()

	creds, err := a.credentials.GetCredentials(ctx, shop.MerchantID, models.ProviderClover)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain clover credentials: %w", err)
	}

	url := fmt.Sprintf("%s/v3/merchants/%s/categories?expand=items.modifierGroups.modifiers", a.baseURL, creds.MerchantID)

	start := time.Now()
	body, err := a.get(ctx, url, creds.AccessToken)
	util.MenuFetchLatency.WithLabelValues(string(models.ProviderClover)).Observe(time.Since(start).Seconds())
	if err != nil {
		util.MenuFetchesTotal.WithLabelValues(string(models.ProviderClover), "error").Inc()
		return nil, err
	}
	defer body.Close()

	var payload cloverCategoriesResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		util.MenuFetchesTotal.WithLabelValues(string(models.ProviderClover), "decode_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	util.MenuFetchesTotal.WithLabelValues(string(models.ProviderClover), "ok").Inc()
	return normalizeCloverCatalog(payload.Elements), nil
}

// FetchOrderStatus looks up a provider-native order and maps its state.
func (a *CloverAdapter) FetchOrderStatus(ctx context.Context, providerOrderID, merchantID string) (models.OrderStatus, error) {
	ctx, span := util.StartSpan(ctx, "CloverAdapter.FetchOrderStatus")
	defer span.End()

	creds, err := a.credentials.GetCredentials(ctx, merchantID, models.ProviderClover)
	if err != nil {
		return "", fmt.Errorf("failed to obtain clover credentials: %w", err)
	}

	url := fmt.Sprintf("%s/v3/merchants/%s/orders/%s", a.baseURL, creds.MerchantID, providerOrderID)
	body, err := a.get(ctx, url, creds.AccessToken)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var payload cloverOrderResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return cloverOrderStatus(payload.State)
}

func (a *CloverAdapter) get(ctx context.Context, url, token string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build clover request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clover request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, &StatusError{Provider: models.ProviderClover, Code: resp.StatusCode}
	}

	return resp.Body, nil
}

// normalizeCloverCatalog walks the nested tree, dropping hidden categories
// and hidden or unavailable items. Order follows the payload, so the
// result is deterministic for a given payload.
func normalizeCloverCatalog(elements []cloverCategory) []models.MenuCategory {
	categories := make([]models.MenuCategory, 0, len(elements))

	for _, cat := range elements {
		if cat.Hidden {
			continue
		}
		category := models.MenuCategory{
			ID:    cat.ID,
			Name:  cat.Name,
			Items: []models.MenuItem{},
		}

		for _, it := range cat.Items.Elements {
			if it.Hidden || !it.Available {
				continue
			}
			item := models.MenuItem{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				Price:       centsToDollars(it.Price),
			}

			for _, mg := range it.ModifierGroups.Elements {
				group := models.ModifierGroup{
					ID:            mg.ID,
					Name:          mg.Name,
					MinSelections: mg.MinRequired,
					MaxSelections: mg.MaxAllowed,
				}
				for _, m := range mg.Modifiers.Elements {
					group.Modifiers = append(group.Modifiers, models.Modifier{
						ID:              m.ID,
						Name:            m.Name,
						PriceDelta:      centsToDollars(m.Price),
						Available:       m.Available,
						DefaultSelected: m.Default,
					})
				}
				item.ModifierGroups = append(item.ModifierGroups, group)
			}

			category.Items = append(category.Items, item)
		}

		categories = append(categories, category)
	}

	return categories
}

func cloverOrderStatus(state string) (models.OrderStatus, error) {
	switch state {
	case "open":
		return models.OrderStatusSubmitted, nil
	case "in_progress", "locked":
		return models.OrderStatusInProgress, nil
	case "ready":
		return models.OrderStatusReady, nil
	case "paid", "completed":
		return models.OrderStatusCompleted, nil
	case "cancelled", "canceled":
		return models.OrderStatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: unknown clover order state %q", ErrDecode, state)
	}
}
