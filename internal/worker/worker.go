package worker

import (
	"context"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// MessageSource is satisfied by *broker.Consumer
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// CatalogReloader is satisfied by *catalog.Service
type CatalogReloader interface {
	InstanceID() string
	Reload(ctx context.Context) error
}

// CatalogWorker keeps this instance's catalog in step with replaces made by
// other instances
type CatalogWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	catalog      CatalogReloader
	logger       *zap.Logger
}

// NewCatalogWorker creates a new catalog worker
func NewCatalogWorker(consumer MessageSource, catalog CatalogReloader) *CatalogWorker {
	w := &CatalogWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		catalog:      catalog,
		logger:       util.Named("catalog-worker"),
	}

	w.eventHandler.OnCatalogReplaced(w.HandleCatalogReplaced)
	w.eventHandler.OnOrderDispatched(w.HandleOrderDispatched)

	return w
}

// Start starts the worker
func (w *CatalogWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting catalog worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CatalogWorker) Stop() error {
	w.logger.Info("Stopping catalog worker")
	return w.consumer.Close()
}

// HandleCatalogReplaced reloads the catalog unless the event came from this instance
func (w *CatalogWorker) HandleCatalogReplaced(ctx context.Context, event *models.CatalogReplacedEvent) error {
	if event.Source == w.catalog.InstanceID() {
		return nil
	}

	ctx, span := util.StartSpan(ctx, "CatalogWorker.HandleCatalogReplaced")
	defer span.End()

	w.logger.Info("Catalog replaced elsewhere, reloading",
		zap.String("source", event.Source),
		zap.Int("product_count", event.ProductCount),
	)
	return w.catalog.Reload(ctx)
}

// HandleOrderDispatched logs orders dispatched by any instance
func (w *CatalogWorker) HandleOrderDispatched(_ context.Context, event *models.OrderDispatchedEvent) error {
	w.logger.Debug("Order dispatched",
		zap.String("session_id", event.SessionID),
		zap.Int64("total_amount", event.TotalAmount),
	)
	return nil
}
