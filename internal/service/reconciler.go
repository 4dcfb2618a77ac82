package service

import (
	"context"
	"fmt"
	"time"

	"qrtag-service/internal/util"

	"go.uber.org/zap"
)

// Reconciler re-runs attribution for paid orders that never got attributed
type Reconciler struct {
	store      ReconcileStore
	attributor *Attributor
	grace      time.Duration
	batch      int
	now        func() time.Time
	logger     *zap.Logger
}

// NewReconciler creates a reconciler. Orders paid less than grace ago are left to
// the synchronous path and the attribution consumer.
func NewReconciler(store ReconcileStore, attributor *Attributor, grace time.Duration, batch int) *Reconciler {
	if batch <= 0 {
		batch = 100
	}
	return &Reconciler{
		store:      store,
		attributor: attributor,
		grace:      grace,
		batch:      batch,
		now:        time.Now,
		logger:     util.GetLogger(),
	}
}

// ReconcileResult reports one reconciliation pass
type ReconcileResult struct {
	Scanned     int `json:"scanned"`
	Attributed  int `json:"attributed"`
	Failed      int `json:"failed"`
	Commissions int `json:"commissions"`
}

// Run processes one batch of unattributed paid orders
func (r *Reconciler) Run(ctx context.Context) (*ReconcileResult, error) {
	ctx, span := util.StartSpan(ctx, "Reconciler.Run")
	defer span.End()

	orders, err := r.store.ListUnattributedPaidOrders(ctx, r.now().Add(-r.grace), r.batch)
	if err != nil {
		return nil, fmt.Errorf("failed to list unattributed orders: %w", err)
	}

	result := &ReconcileResult{Scanned: len(orders)}
	for i := range orders {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		created, err := r.attributor.Attribute(ctx, &orders[i])
		result.Commissions += len(created)
		if err != nil {
			result.Failed++
			r.logger.Error("Reconciliation failed for order", zap.Int64("order_id", orders[i].ID), zap.Error(err))
			continue
		}
		result.Attributed++
		util.ReconciledOrdersTotal.Inc()
	}

	if result.Scanned > 0 {
		r.logger.Info("Reconciliation pass finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("attributed", result.Attributed),
			zap.Int("failed", result.Failed),
			zap.Int("commissions", result.Commissions))
	}
	return result, nil
}
