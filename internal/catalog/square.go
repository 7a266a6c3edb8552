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

// SquareAdapter talks to a Square-style catalog API: a flat list of typed
// objects (CATEGORY, ITEM, MODIFIER_LIST) that reference each other by id.
type SquareAdapter struct {
	baseURL     string
	credentials CredentialSource
	client      *http.Client
	logger      *zap.Logger
}

// NewSquareAdapter creates an adapter against the given API base URL.
func NewSquareAdapter(baseURL string, credentials CredentialSource) *SquareAdapter {
	return &SquareAdapter{
		baseURL:     baseURL,
		credentials: credentials,
		client:      &http.Client{Timeout: 20 * time.Second},
		logger:      util.GetLogger(),
	}
}

func (a *SquareAdapter) Provider() models.Provider {
	return models.ProviderSquare
}

// Raw wire shapes. Money amounts are integer minor units (cents).

type squareCatalogResponse struct {
	Objects []squareObject `json:"objects"`
}

type squareObject struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	IsDeleted bool   `json:"is_deleted"`

	CategoryData *struct {
		Name string `json:"name"`
	} `json:"category_data,omitempty"`

	ItemData *struct {
		Name             string            `json:"name"`
		Description      string            `json:"description"`
		CategoryID       string            `json:"category_id"`
		AvailableOnline  *bool             `json:"available_online,omitempty"`
		Variations       []squareVariation `json:"variations"`
		ModifierListInfo []struct {
			ModifierListID string `json:"modifier_list_id"`
			MinSelected    int    `json:"min_selected_modifiers"`
			MaxSelected    int    `json:"max_selected_modifiers"`
			Enabled        *bool  `json:"enabled,omitempty"`
		} `json:"modifier_list_info"`
	} `json:"item_data,omitempty"`

	ModifierListData *struct {
		Name      string `json:"name"`
		Modifiers []struct {
			ID           string `json:"id"`
			ModifierData struct {
				Name       string `json:"name"`
				PriceMoney struct {
					Amount int64 `json:"amount"`
				} `json:"price_money"`
				OnByDefault bool `json:"on_by_default"`
				Hidden      bool `json:"hidden"`
			} `json:"modifier_data"`
		} `json:"modifiers"`
	} `json:"modifier_list_data,omitempty"`
}

type squareVariation struct {
	ID                string `json:"id"`
	ItemVariationData struct {
		Name       string `json:"name"`
		PriceMoney struct {
			Amount int64 `json:"amount"`
		} `json:"price_money"`
	} `json:"item_variation_data"`
}

func (s *squareObject) variations() []squareVariation {
	if s.ItemData == nil {
		return nil
	}
	return s.ItemData.Variations
}

type squareOrderResponse struct {
	Order *struct {
		ID    string `json:"id"`
		State string `json:"state"`
	} `json:"order"`
}

// FetchMenu lists the merchant's catalog objects and normalizes them.
func (a *SquareAdapter) FetchMenu(ctx context.Context, shop models.ShopIdentity) ([]models.MenuCategory, error) {
	ctx, span := util.StartSpan(ctx, "SquareAdapter.FetchMenu")
	defer span.End()

	creds, err := a.credentials.GetCredentials(ctx, shop.MerchantID, models.ProviderSquare)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain square credentials: %w", err)
	}

	start := time.Now()
	body, err := a.get(ctx, fmt.Sprintf("%s/v2/catalog/list", a.baseURL), creds.AccessToken)
	util.MenuFetchLatency.WithLabelValues(string(models.ProviderSquare)).Observe(time.Since(start).Seconds())
	if err != nil {
		util.MenuFetchesTotal.WithLabelValues(string(models.ProviderSquare), "error").Inc()
		return nil, err
	}
	defer body.Close()

	var payload squareCatalogResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		util.MenuFetchesTotal.WithLabelValues(string(models.ProviderSquare), "decode_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	util.MenuFetchesTotal.WithLabelValues(string(models.ProviderSquare), "ok").Inc()
	return normalizeSquareCatalog(payload.Objects), nil
}

// FetchOrderStatus looks up a provider-native order and maps its state.
func (a *SquareAdapter) FetchOrderStatus(ctx context.Context, providerOrderID, merchantID string) (models.OrderStatus, error) {
	ctx, span := util.StartSpan(ctx, "SquareAdapter.FetchOrderStatus")
	defer span.End()

	creds, err := a.credentials.GetCredentials(ctx, merchantID, models.ProviderSquare)
	if err != nil {
		return "", fmt.Errorf("failed to obtain square credentials: %w", err)
	}

	body, err := a.get(ctx, fmt.Sprintf("%s/v2/orders/%s", a.baseURL, providerOrderID), creds.AccessToken)
	if err != nil {
		return "", err
	}
	defer body.Close()

	var payload squareOrderResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload.Order == nil {
		return "", fmt.Errorf("%w: missing order object", ErrDecode)
	}

	return squareOrderStatus(payload.Order.State)
}

func (a *SquareAdapter) get(ctx context.Context, url, token string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build square request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("square request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, &StatusError{Provider: models.ProviderSquare, Code: resp.StatusCode}
	}

	return resp.Body, nil
}

// normalizeSquareCatalog resolves the flat object list into the category
// tree. Objects keep their payload order, so the result is deterministic
// for a given payload. Deleted objects and items marked unavailable online
// are dropped.
func normalizeSquareCatalog(objects []squareObject) []models.MenuCategory {
	categories := make([]models.MenuCategory, 0)
	categoryIndex := make(map[string]int)
	modifierLists := make(map[string]squareObject)

	for _, obj := range objects {
		if obj.IsDeleted {
			continue
		}
		switch obj.Type {
		case "CATEGORY":
			if obj.CategoryData == nil {
				continue
			}
			categoryIndex[obj.ID] = len(categories)
			categories = append(categories, models.MenuCategory{
				ID:    obj.ID,
				Name:  obj.CategoryData.Name,
				Items: []models.MenuItem{},
			})
		case "MODIFIER_LIST":
			modifierLists[obj.ID] = obj
		}
	}

	for _, obj := range objects {
		if obj.Type != "ITEM" || obj.IsDeleted || obj.ItemData == nil {
			continue
		}
		data := obj.ItemData
		if data.AvailableOnline != nil && !*data.AvailableOnline {
			continue
		}
		idx, ok := categoryIndex[data.CategoryID]
		if !ok {
			// Items without a resolvable category are not displayable.
			continue
		}

		item := models.MenuItem{
			ID:          obj.ID,
			Name:        data.Name,
			Description: data.Description,
		}

		for i, v := range obj.variations() {
			price := centsToDollars(v.ItemVariationData.PriceMoney.Amount)
			if i == 0 {
				item.Price = price
			}
			item.Variations = append(item.Variations, models.Variation{
				ID:    v.ID,
				Name:  v.ItemVariationData.Name,
				Price: price,
			})
		}

		for _, info := range data.ModifierListInfo {
			if info.Enabled != nil && !*info.Enabled {
				continue
			}
			list, ok := modifierLists[info.ModifierListID]
			if !ok || list.ModifierListData == nil {
				continue
			}
			group := models.ModifierGroup{
				ID:            info.ModifierListID,
				Name:          list.ModifierListData.Name,
				MinSelections: info.MinSelected,
				MaxSelections: info.MaxSelected,
			}
			for _, m := range list.ModifierListData.Modifiers {
				group.Modifiers = append(group.Modifiers, models.Modifier{
					ID:              m.ID,
					Name:            m.ModifierData.Name,
					PriceDelta:      centsToDollars(m.ModifierData.PriceMoney.Amount),
					Available:       !m.ModifierData.Hidden,
					DefaultSelected: m.ModifierData.OnByDefault,
				})
			}
			item.ModifierGroups = append(item.ModifierGroups, group)
		}

		categories[idx].Items = append(categories[idx].Items, item)
	}

	return categories
}

func squareOrderStatus(state string) (models.OrderStatus, error) {
	switch state {
	case "PROPOSED", "OPEN":
		return models.OrderStatusSubmitted, nil
	case "RESERVED", "IN_PROGRESS":
		return models.OrderStatusInProgress, nil
	case "PREPARED", "READY":
		return models.OrderStatusReady, nil
	case "COMPLETED":
		return models.OrderStatusCompleted, nil
	case "CANCELED", "CANCELLED":
		return models.OrderStatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: unknown square order state %q", ErrDecode, state)
	}
}

// centsToDollars converts integer minor units into the canonical fractional
// representation. This is the only place money crosses that boundary.
func centsToDollars(cents int64) float64 {
	return float64(cents) / 100
}
