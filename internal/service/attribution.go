package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Commission scopes
const (
	ScopeSelf     = "self"
	ScopeReferral = "referral"
)

// Entitlement is one commission an order earns for a beneficiary
type Entitlement struct {
	Beneficiary *models.Account
	Scope       string
}

// Eligibility is the commission rule table. The self rule and the referral rule are
// evaluated independently, so a partner referred by another partner yields both.
func Eligibility(actor, referrer *models.Account) []Entitlement {
	var out []Entitlement
	if actor.IsPartner() {
		out = append(out, Entitlement{Beneficiary: actor, Scope: ScopeSelf})
	}
	if referrer.IsPartner() && referrer.ID != actor.ID {
		out = append(out, Entitlement{Beneficiary: referrer, Scope: ScopeReferral})
	}
	return out
}

// CommissionType names the commission for a scope and order kind
func CommissionType(scope, orderKind string) string {
	creation := orderKind == models.OrderKindQRCreation
	switch {
	case scope == ScopeSelf && creation:
		return models.CommissionSelfCreation
	case scope == ScopeSelf:
		return models.CommissionSelfSticker
	case creation:
		return models.CommissionReferralCreation
	default:
		return models.CommissionReferralSticker
	}
}

// Attributor records the commissions a paid order earns. Every run is safe to
// repeat: the store keeps one row per (order, beneficiary, type).
type Attributor struct {
	store  AttributionStore
	events EventPublisher
	logger *zap.Logger
}

// NewAttributor creates a new attribution engine
func NewAttributor(store AttributionStore, events EventPublisher) *Attributor {
	return &Attributor{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// HandleOrderPaid is the OrderPaid event consumer
func (a *Attributor) HandleOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error {
	order, err := a.store.GetOrderByID(ctx, event.OrderID)
	if err != nil {
		return fmt.Errorf("failed to load order %d: %w", event.OrderID, translateStoreErr(err))
	}
	_, err = a.Attribute(ctx, order)
	return err
}

// Attribute evaluates the rule table for a paid order and records each commission
// once. It returns the commissions created by this run.
func (a *Attributor) Attribute(ctx context.Context, order *models.Order) ([]models.Commission, error) {
	ctx, span := util.StartSpan(ctx, "Attributor.Attribute")
	defer span.End()

	if order.PaymentStatus != models.PaymentStatusPaid {
		a.logger.Debug("Skipping attribution of unpaid order", zap.Int64("order_id", order.ID))
		return nil, nil
	}

	actor, err := a.store.GetAccountByID(ctx, order.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor %d: %w", order.UserID, translateStoreErr(err))
	}

	var referrer *models.Account
	if actor.ReferredBy.Valid {
		referrer, err = a.store.GetAccountByID(ctx, actor.ReferredBy.Int64)
		if err != nil {
			return nil, fmt.Errorf("failed to load referrer %d: %w", actor.ReferredBy.Int64, translateStoreErr(err))
		}
	}

	var (
		created []models.Commission
		errs    []error
	)
	for _, ent := range Eligibility(actor, referrer) {
		c := &models.Commission{
			ShopkeeperID:     ent.Beneficiary.ID,
			Type:             CommissionType(ent.Scope, order.Kind),
			OrderID:          order.ID,
			TagID:            order.TagID,
			SourceUserID:     actor.ID,
			BaseAmount:       order.Amount,
			CommissionAmount: CommissionAmount(order.Amount, actor.CommissionRate),
			Rate:             actor.CommissionRate,
			Status:           models.CommissionStatusPending,
		}

		inserted, err := a.store.InsertCommission(ctx, c)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s commission: %w", c.Type, err))
			continue
		}
		if !inserted {
			a.logger.Debug("Commission already recorded",
				zap.Int64("order_id", order.ID),
				zap.Int64("shopkeeper_id", c.ShopkeeperID),
				zap.String("type", c.Type))
			continue
		}

		created = append(created, *c)
		util.CommissionsRecordedTotal.WithLabelValues(c.Type).Inc()
		a.logger.Info("Commission recorded",
			zap.Int64("commission_id", c.ID),
			zap.Int64("order_id", order.ID),
			zap.Int64("shopkeeper_id", c.ShopkeeperID),
			zap.String("type", c.Type),
			zap.Int64("commission", c.CommissionAmount))

		a.publishRecorded(ctx, c)
	}

	if len(errs) > 0 {
		util.CommissionAttributionFailedTotal.Inc()
		return created, errors.Join(errs...)
	}

	if err := a.store.MarkOrderAttributed(ctx, order.ID); err != nil {
		return created, fmt.Errorf("failed to mark order %d attributed: %w", order.ID, err)
	}
	return created, nil
}

func (a *Attributor) publishRecorded(ctx context.Context, c *models.Commission) {
	if a.events == nil {
		return
	}
	event := &models.CommissionRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCommissionRecorded,
			Timestamp: time.Now(),
		},
		CommissionID: c.ID,
		ShopkeeperID: c.ShopkeeperID,
		OrderID:      c.OrderID,
		Type:         c.Type,
		Commission:   c.CommissionAmount,
	}
	if err := a.events.PublishCommissionRecorded(ctx, event); err != nil {
		a.logger.Error("Failed to publish CommissionRecorded event", zap.Int64("commission_id", c.ID), zap.Error(err))
	}
}
