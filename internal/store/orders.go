package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// CreateOrder inserts a new order.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (shop_id, merchant_id, provider, total, transaction_id, status, receipt_url, provider_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.ShopID, order.MerchantID, order.Provider, order.Total,
		order.TransactionID, order.Status, order.ReceiptURL, order.ProviderOrderID)
}

// GetOrderByID retrieves an order by ID.
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersWithProviderID retrieves the orders the reconciler walks: those
// carrying a provider-native order id and not yet in a terminal state.
func (s *Store) GetOrdersWithProviderID(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE provider_order_id <> ''
		  AND status NOT IN ($1, $2)
		ORDER BY id`,
		models.OrderStatusCompleted, models.OrderStatusCancelled)
	return orders, err
}

// UpdateOrderStatus updates an order's status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// GetOrdersByShopID retrieves orders for a shop, newest first.
func (s *Store) GetOrdersByShopID(ctx context.Context, shopID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE shop_id = $1 ORDER BY created_at DESC", shopID)
	return orders, err
}

// CreateOrderItem inserts an order line item.
func (s *Store) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, name, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	return s.db.GetContext(ctx, &item.ID, query,
		item.OrderID, item.Name, item.Quantity, item.UnitPrice)
}

// GetOrderItemsByOrderID retrieves all items for an order.
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1", orderID)
	return items, err
}
