package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/models"
)

// MemoryStore is an in-memory OrderStore used in tests and local runs
// without Postgres.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*models.Order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		orders: make(map[int64]*models.Order),
	}
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order.ID = m.nextID
	m.nextID++
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *MemoryStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found: %d", id)
	}
	copied := *order
	return &copied, nil
}

func (m *MemoryStore) GetOrdersWithProviderID(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []models.Order
	for _, order := range m.orders {
		if order.ProviderOrderID == "" {
			continue
		}
		if order.Status == models.OrderStatusCompleted || order.Status == models.OrderStatusCancelled {
			continue
		}
		orders = append(orders, *order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, orderID int64, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order not found: %d", orderID)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}
