package worker

import (
	"context"
	"log"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/menusync"
	"storefront-service/internal/models"
	"storefront-service/internal/reconciler"
	"storefront-service/internal/shops"
)

// MenuWorker reacts to menu invalidation events by forcing a foreground
// refresh for the affected shop.
type MenuWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewMenuWorker creates a worker consuming menu events.
func NewMenuWorker(consumer *broker.Consumer, syncer *menusync.Syncer, directory *shops.Directory) *MenuWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnMenuInvalidated(func(ctx context.Context, event *models.MenuInvalidatedEvent) error {
		shop, ok := directory.Get(event.ShopID)
		if !ok {
			log.Printf("Invalidation for unknown shop %s, ignoring", event.ShopID)
			return nil
		}
		if err := syncer.Refresh(ctx, shop); err != nil {
			// Refresh already recorded the failure in the shop's error
			// state; committing the message avoids a redelivery loop.
			log.Printf("Refresh after invalidation failed for shop %s: %v", event.ShopID, err)
		}
		return nil
	})

	return &MenuWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *MenuWorker) Start(ctx context.Context) error {
	log.Println("Starting menu worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *MenuWorker) Stop() error {
	log.Println("Stopping menu worker...")
	return w.consumer.Close()
}

// ReconcileWorker runs the order status reconciler on a fixed interval.
type ReconcileWorker struct {
	reconciler *reconciler.Reconciler
	interval   time.Duration
}

// NewReconcileWorker creates a ticker-driven reconcile loop.
func NewReconcileWorker(r *reconciler.Reconciler, interval time.Duration) *ReconcileWorker {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &ReconcileWorker{reconciler: r, interval: interval}
}

// Start runs reconcile passes until the context is cancelled. A pass runs
// to completion; cancellation takes effect between passes.
func (rw *ReconcileWorker) Start(ctx context.Context) error {
	log.Println("Starting reconcile worker...")

	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconcile worker context cancelled, stopping...")
			return ctx.Err()
		case <-ticker.C:
			if _, err := rw.reconciler.Reconcile(ctx); err != nil {
				log.Printf("Reconcile pass failed: %v", err)
			}
		}
	}
}
