package models

import "time"

// Event types
const (
	EventTypeMenuRefreshed      = "MENU_REFRESHED"
	EventTypeMenuInvalidated    = "MENU_INVALIDATED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// MenuRefreshedEvent published after a shop's menu is fetched and cached
type MenuRefreshedEvent struct {
	BaseEvent
	ShopID        string   `json:"shop_id"`
	Provider      Provider `json:"provider"`
	CategoryCount int      `json:"category_count"`
	ItemCount     int      `json:"item_count"`
}

// MenuInvalidatedEvent published by upstream tooling when a merchant edits
// their menu; consuming it forces a refresh for the shop
type MenuInvalidatedEvent struct {
	BaseEvent
	ShopID string `json:"shop_id"`
	Reason string `json:"reason,omitempty"`
}

// OrderStatusChangedEvent published when the reconciler observes a
// provider-side status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64       `json:"order_id"`
	ShopID    string      `json:"shop_id"`
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
}
