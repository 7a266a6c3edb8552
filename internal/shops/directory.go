package shops

import (
	"encoding/json"
	"fmt"
	"os"

	"storefront-service/internal/models"
)

// Directory holds the externally supplied shop identity list. The core
// never fetches it; it arrives from the storefront catalog at startup and
// is read-only afterwards.
type Directory struct {
	byID  map[string]models.ShopIdentity
	order []string
}

// NewDirectory builds a directory from a shop list. Shops with an
// unsupported provider are rejected.
func NewDirectory(list []models.ShopIdentity) (*Directory, error) {
	d := &Directory{byID: make(map[string]models.ShopIdentity, len(list))}
	for _, shop := range list {
		if shop.ID == "" || shop.MerchantID == "" {
			return nil, fmt.Errorf("shop %q missing id or merchant id", shop.ID)
		}
		if !shop.Provider.Valid() {
			return nil, fmt.Errorf("shop %q has unsupported provider %q", shop.ID, shop.Provider)
		}
		if _, dup := d.byID[shop.ID]; dup {
			return nil, fmt.Errorf("duplicate shop id %q", shop.ID)
		}
		d.byID[shop.ID] = shop
		d.order = append(d.order, shop.ID)
	}
	return d, nil
}

// LoadFromFile reads a JSON array of shop identities.
func LoadFromFile(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shops file: %w", err)
	}

	var list []models.ShopIdentity
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse shops file: %w", err)
	}

	return NewDirectory(list)
}

// Get returns the shop with the given id.
func (d *Directory) Get(id string) (models.ShopIdentity, bool) {
	shop, ok := d.byID[id]
	return shop, ok
}

// List returns all shops in their configured order.
func (d *Directory) List() []models.ShopIdentity {
	out := make([]models.ShopIdentity, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}
