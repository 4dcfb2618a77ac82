package worker

import (
	"context"
	"fmt"
	"time"

	"qrtag-service/internal/broker"
	"qrtag-service/internal/models"
	"qrtag-service/internal/notify"
	"qrtag-service/internal/service"
	"qrtag-service/internal/util"

	"go.uber.org/zap"
)

// Consumer names recorded in processed_events
const (
	NotificationConsumer = "notification"
)

// AttributionWorker re-runs commission attribution for every OrderPaid event.
// The synchronous path usually got there first; duplicates are absorbed by the store.
type AttributionWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewAttributionWorker creates a new attribution worker
func NewAttributionWorker(consumer *broker.Consumer, attributor *service.Attributor) *AttributionWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPaid(attributor.HandleOrderPaid)

	return &AttributionWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker
func (w *AttributionWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting attribution worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *AttributionWorker) Stop() error {
	w.logger.Info("Stopping attribution worker")
	return w.consumer.Close()
}

// NotificationStore is what the notification worker reads and records
type NotificationStore interface {
	IsEventProcessed(ctx context.Context, eventID, consumer string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType, consumer string) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
}

// Sender delivers e-mail
type Sender interface {
	Send(to, subject, text, html string) error
}

// NotificationWorker e-mails buyers once their payment is confirmed
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        NotificationStore
	sender       Sender
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, store NotificationStore, sender Sender) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		store:    store,
		sender:   sender,
		logger:   util.GetLogger(),
	}

	w.eventHandler = broker.NewEventHandler()
	w.eventHandler.OnOrderPaid(w.HandleOrderPaid)
	return w
}

// HandleOrderPaid sends the confirmation mail once per event
func (w *NotificationWorker) HandleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID, NotificationConsumer)
	if err != nil {
		return fmt.Errorf("failed to check processed event: %w", err)
	}
	if processed {
		w.logger.Debug("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	order, err := w.store.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", event.OrderID, err)
	}
	buyer, err := w.store.GetAccountByID(ctx, order.UserID)
	if err != nil {
		return fmt.Errorf("failed to load buyer %d: %w", order.UserID, err)
	}

	subject, text, html := notify.OrderPaidMessage(buyer.Name, order)
	if err := w.sender.Send(buyer.Email, subject, text, html); err != nil {
		return err
	}

	w.logger.Info("Order confirmation sent", zap.Int64("order_id", order.ID))
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType, NotificationConsumer)
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// Runner runs one reconciliation pass
type Runner interface {
	Run(ctx context.Context) (*service.ReconcileResult, error)
}

// ReconcileWorker runs reconciliation on a fixed interval
type ReconcileWorker struct {
	runner   Runner
	interval time.Duration
	logger   *zap.Logger
}

// NewReconcileWorker creates a new periodic reconciler
func NewReconcileWorker(runner Runner, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		runner:   runner,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start blocks until ctx is cancelled
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reconcile worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping reconcile worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.runner.Run(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("Reconciliation pass failed", zap.Error(err))
			}
		}
	}
}
