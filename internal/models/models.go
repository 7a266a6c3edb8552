package models

import "time"

// Provider identifies which POS platform backs a shop.
type Provider string

const (
	ProviderSquare Provider = "square"
	ProviderClover Provider = "clover"
)

// Valid reports whether p is a supported provider.
func (p Provider) Valid() bool {
	return p == ProviderSquare || p == ProviderClover
}

// ShopIdentity describes a shop as supplied by the storefront catalog.
// It is assigned at shop-catalog load time and never mutated.
type ShopIdentity struct {
	ID         string   `db:"id" json:"id"`
	MerchantID string   `db:"merchant_id" json:"merchant_id"`
	Provider   Provider `db:"provider" json:"provider"`
	Name       string   `db:"name" json:"name"`
	Address    string   `db:"address" json:"address,omitempty"`
}

// Credentials is a short-lived provider credential bundle. It lives only in
// the broker's in-memory cache and is never written to disk.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	MerchantID   string `json:"merchant_id"`
	RefreshToken string `json:"refresh_token,omitempty"`
	LocationID   string `json:"location_id,omitempty"`
}

// Modifier is a single selectable add-on within a modifier group.
type Modifier struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PriceDelta      float64 `json:"price_delta"`
	Available       bool    `json:"available"`
	DefaultSelected bool    `json:"default_selected,omitempty"`
}

// ModifierGroup carries selection cardinality bounds exactly as the
// provider reports them.
type ModifierGroup struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	MinSelections int        `json:"min_selections"`
	MaxSelections int        `json:"max_selections"`
	Modifiers     []Modifier `json:"modifiers"`
}

// Variation is a size or style option of a menu item.
type Variation struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// MenuItem is the normalized item shape. Prices are fractional dollars;
// conversion from minor units happens at the adapter boundary, never later.
type MenuItem struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          float64         `json:"price"`
	Variations     []Variation     `json:"variations,omitempty"`
	ModifierGroups []ModifierGroup `json:"modifier_groups,omitempty"`
}

// MenuCategory is an ordered group of menu items.
type MenuCategory struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []MenuItem `json:"items"`
}

// CachedMenu is the unit of on-disk persistence, one file per shop id.
// Timestamp is epoch seconds at acquisition.
type CachedMenu struct {
	Categories []MenuCategory `json:"categories"`
	Timestamp  int64          `json:"timestamp"`
}

// MenuSnapshot is the per-shop view handed to the API layer.
type MenuSnapshot struct {
	Categories   []MenuCategory `json:"categories"`
	IsLoading    bool           `json:"is_loading"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// OrderStatus is the normalized order lifecycle state.
type OrderStatus string

const (
	OrderStatusSubmitted  OrderStatus = "submitted"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"

	// Legacy values retained so old records still decode. They carry no
	// transition semantics.
	OrderStatusDraft   OrderStatus = "draft"
	OrderStatusPending OrderStatus = "pending"
	OrderStatusActive  OrderStatus = "active"
)

// OrderItem is a purchased line item.
type OrderItem struct {
	ID        int64   `db:"id" json:"id"`
	OrderID   int64   `db:"order_id" json:"order_id"`
	Name      string  `db:"name" json:"name"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}

// Order is a customer order. Status is the only field the reconciler
// mutates after creation.
type Order struct {
	ID              int64       `db:"id" json:"id"`
	ShopID          string      `db:"shop_id" json:"shop_id"`
	MerchantID      string      `db:"merchant_id" json:"merchant_id"`
	Provider        Provider    `db:"provider" json:"provider"`
	Total           float64     `db:"total" json:"total"`
	TransactionID   string      `db:"transaction_id" json:"transaction_id,omitempty"`
	Status          OrderStatus `db:"status" json:"status"`
	ReceiptURL      string      `db:"receipt_url" json:"receipt_url,omitempty"`
	ProviderOrderID string      `db:"provider_order_id" json:"provider_order_id,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}
