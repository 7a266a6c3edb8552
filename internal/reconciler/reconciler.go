package reconciler

import (
	"context"
	"time"

	"storefront-service/internal/catalog"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

const lockKey = "order-reconcile"

// AdapterSource resolves the catalog adapter for a provider. Satisfied by
// *catalog.Factory.
type AdapterSource interface {
	ForProvider(provider models.Provider) (catalog.Adapter, error)
}

// Locker guards a reconcile run against overlapping invocations. Satisfied
// by *redisclient.Client; may be nil, in which case runs are not guarded.
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// EventSink receives status-change events. May be nil.
type EventSink interface {
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// Reconciler polls the POS providers for the current status of locally
// known orders and applies any transitions to the store.
type Reconciler struct {
	orders   store.OrderStore
	adapters AdapterSource
	locker   Locker
	events   EventSink
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewReconciler creates a reconciler. locker and events may be nil.
func NewReconciler(orders store.OrderStore, adapters AdapterSource, locker Locker, events EventSink, lockTTL time.Duration) *Reconciler {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &Reconciler{
		orders:   orders,
		adapters: adapters,
		locker:   locker,
		events:   events,
		lockTTL:  lockTTL,
		logger:   util.GetLogger(),
	}
}

// Reconcile walks every open order that carries a provider-native order id
// once. A single order's failure is logged and skipped; it never aborts
// the remaining orders. Returns the number of status updates applied.
func (r *Reconciler) Reconcile(ctx context.Context) (int, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.Reconcile")
	defer span.End()

	if r.locker != nil {
		acquired, err := r.locker.AcquireLock(ctx, lockKey, r.lockTTL)
		if err != nil {
			r.logger.Warn("Reconcile lock unavailable, proceeding unguarded", zap.Error(err))
		} else if !acquired {
			r.logger.Info("Reconcile already running elsewhere, skipping")
			return 0, nil
		} else {
			defer func() {
				if err := r.locker.ReleaseLock(context.Background(), lockKey); err != nil {
					r.logger.Warn("Failed to release reconcile lock", zap.Error(err))
				}
			}()
		}
	}

	orders, err := r.orders.GetOrdersWithProviderID(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, order := range orders {
		if err := r.reconcileOrder(ctx, order, &updated); err != nil {
			util.ReconcileFailuresTotal.Inc()
			r.logger.Warn("Skipping order after reconcile failure",
				zap.Int64("order_id", order.ID),
				zap.String("provider_order_id", order.ProviderOrderID),
				zap.Error(err))
		}
	}

	r.logger.Info("Reconcile pass finished",
		zap.Int("orders", len(orders)),
		zap.Int("updated", updated))
	return updated, nil
}

func (r *Reconciler) reconcileOrder(ctx context.Context, order models.Order, updated *int) error {
	adapter, err := r.adapters.ForProvider(order.Provider)
	if err != nil {
		return err
	}

	status, err := adapter.FetchOrderStatus(ctx, order.ProviderOrderID, order.MerchantID)
	if err != nil {
		return err
	}

	if status == order.Status {
		return nil
	}

	if err := r.orders.UpdateOrderStatus(ctx, order.ID, status); err != nil {
		return err
	}
	*updated++
	util.OrdersReconciledTotal.Inc()

	if r.events != nil {
		event := &models.OrderStatusChangedEvent{
			OrderID:   order.ID,
			ShopID:    order.ShopID,
			OldStatus: order.Status,
			NewStatus: status,
		}
		if err := r.events.PublishOrderStatusChanged(ctx, event); err != nil {
			r.logger.Error("Failed to publish OrderStatusChanged event",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		}
	}

	return nil
}
