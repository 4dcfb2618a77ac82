package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"qrtag-service/internal/gateway"
	"qrtag-service/internal/models"
	"qrtag-service/internal/store"
	"qrtag-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentSettings is the payment configuration handed to OrderService at construction
type PaymentSettings struct {
	// SkipPayment settles every order immediately without a gateway round trip
	SkipPayment bool
	// KeyID is the gateway's public key returned to checkout clients
	KeyID       string
	TagClaimTTL time.Duration
}

// OrderService handles the order ledger: initiation, payment confirmation and fulfillment
type OrderService struct {
	store      OrderStore
	gateway    gateway.OrderCreator
	verifier   *gateway.Verifier
	claims     TagClaimer
	events     EventPublisher
	attributor *Attributor
	tags       *TagService
	settings   PaymentSettings
	logger     *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store OrderStore,
	gw gateway.OrderCreator,
	verifier *gateway.Verifier,
	claims TagClaimer,
	events EventPublisher,
	attributor *Attributor,
	tags *TagService,
	settings PaymentSettings,
) *OrderService {
	s := &OrderService{
		store:      store,
		gateway:    gw,
		verifier:   verifier,
		claims:     claims,
		events:     events,
		attributor: attributor,
		tags:       tags,
		settings:   settings,
		logger:     util.GetLogger(),
	}

	if settings.SkipPayment {
		s.logger.Warn("SKIP_PAYMENT enabled: orders are settled without the payment gateway")
	}
	if !verifier.Enabled() {
		s.logger.Warn("Gateway secret not configured: payment signatures will not be verified")
	}
	return s
}

// StickerOrderRequest represents a request to order printed stickers for a tag
type StickerOrderRequest struct {
	TagID          string `json:"tag_id" validate:"required,tagid"`
	FullName       string `json:"full_name" validate:"required,max=120"`
	Phone          string `json:"phone" validate:"required,min=6,max=20"`
	Address        string `json:"address" validate:"required,max=300"`
	City           string `json:"city" validate:"required,max=80"`
	State          string `json:"state" validate:"required,max=80"`
	Pincode        string `json:"pincode" validate:"required,numeric,len=6"`
	Quantity       int    `json:"quantity" validate:"required,min=1,max=1000"`
	IdempotencyKey string `json:"-" validate:"max=128"`
}

// PaymentConfirmation is the signed triple the gateway hands back after checkout
type PaymentConfirmation struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	Signature        string `json:"signature"`
}

// InitiateResponse is returned to the client to open the gateway checkout
type InitiateResponse struct {
	OrderID        int64  `json:"order_id"`
	Kind           string `json:"kind"`
	TagID          string `json:"tag_id"`
	Amount         int64  `json:"amount"`
	GatewayOrderID string `json:"gateway_order_id"`
	GatewayKeyID   string `json:"gateway_key_id,omitempty"`
	PaymentStatus  string `json:"payment_status"`
}

func newInitiateResponse(order *models.Order, keyID string) *InitiateResponse {
	return &InitiateResponse{
		OrderID:        order.ID,
		Kind:           order.Kind,
		TagID:          order.TagID,
		Amount:         order.Amount,
		GatewayOrderID: order.GatewayOrderID,
		GatewayKeyID:   keyID,
		PaymentStatus:  order.PaymentStatus,
	}
}

// InitiateStickerOrder prices a sticker order on the server and opens a gateway order for it
func (s *OrderService) InitiateStickerOrder(ctx context.Context, buyer *models.Account, req *StickerOrderRequest) (*InitiateResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.InitiateStickerOrder")
	defer span.End()

	if err := validateStruct(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if existing, err := s.findByIdempotencyKey(ctx, buyer, req.IdempotencyKey); err != nil || existing != nil {
		return existing, err
	}

	exists, err := s.store.TagExists(ctx, req.TagID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tag: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: tag %s", ErrNotFound, req.TagID)
	}

	amount, err := StickerPrice(req.Quantity)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         buyer.ID,
		TagID:          req.TagID,
		Kind:           models.OrderKindStickerOrder,
		FullName:       req.FullName,
		Phone:          req.Phone,
		Address:        req.Address,
		City:           req.City,
		State:          req.State,
		Pincode:        req.Pincode,
		Quantity:       req.Quantity,
		Amount:         amount,
		PaymentStatus:  models.PaymentStatusPending,
		OrderStatus:    models.OrderStatusProcessing,
		IdempotencyKey: nullString(req.IdempotencyKey),
	}

	if s.settings.SkipPayment {
		return s.settleWithoutGateway(ctx, order, nil)
	}
	return s.openWithGateway(ctx, buyer, order)
}

// InitiateTagCreation opens a gateway order for the tag creation fee. The custom id
// is claimed for the buyer until the fee is paid or the claim expires.
func (s *OrderService) InitiateTagCreation(ctx context.Context, buyer *models.Account, input *TagInput, idempotencyKey string) (*InitiateResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.InitiateTagCreation")
	defer span.End()

	if err := validateStruct(input); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if existing, err := s.findByIdempotencyKey(ctx, buyer, idempotencyKey); err != nil || existing != nil {
		return existing, err
	}

	tag := input.toTag(buyer.ID)

	exists, err := s.store.TagExists(ctx, tag.CustomID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tag: %w", err)
	}
	if exists {
		util.OrdersFailedTotal.WithLabelValues("tag_taken").Inc()
		return nil, fmt.Errorf("%w: tag id %s is taken", ErrConflict, tag.CustomID)
	}

	if err := s.claimTagID(ctx, buyer, tag.CustomID); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         buyer.ID,
		TagID:          tag.CustomID,
		Kind:           models.OrderKindQRCreation,
		FullName:       buyer.Name,
		Phone:          buyer.Phone,
		Quantity:       1,
		Amount:         TagCreationFee,
		PaymentStatus:  models.PaymentStatusPending,
		OrderStatus:    models.OrderStatusProcessing,
		IdempotencyKey: nullString(idempotencyKey),
	}

	if s.settings.SkipPayment {
		return s.settleWithoutGateway(ctx, order, tag)
	}
	return s.openWithGateway(ctx, buyer, order)
}

func (s *OrderService) findByIdempotencyKey(ctx context.Context, buyer *models.Account, key string) (*InitiateResponse, error) {
	if key == "" {
		return nil, nil
	}

	existing, err := s.store.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.UserID != buyer.ID {
		return nil, fmt.Errorf("%w: idempotency key already used", ErrConflict)
	}

	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.Int64("order_id", existing.ID))
	return newInitiateResponse(existing, s.settings.KeyID), nil
}

func (s *OrderService) claimTagID(ctx context.Context, buyer *models.Account, customID string) error {
	if s.claims == nil {
		return nil
	}

	claimed, err := s.claims.ClaimTagID(ctx, customID, strconv.FormatInt(buyer.ID, 10), s.settings.TagClaimTTL)
	if err != nil {
		// the unique index still guards the insert
		s.logger.Warn("Tag id claim unavailable", zap.String("custom_id", customID), zap.Error(err))
		return nil
	}
	if !claimed {
		util.OrdersFailedTotal.WithLabelValues("tag_claimed").Inc()
		return fmt.Errorf("%w: tag id %s is being registered by another account", ErrConflict, customID)
	}
	return nil
}

func (s *OrderService) releaseTagID(ctx context.Context, order *models.Order) {
	if s.claims == nil {
		return
	}
	if err := s.claims.ReleaseTagID(ctx, order.TagID, strconv.FormatInt(order.UserID, 10)); err != nil {
		s.logger.Warn("Failed to release tag id claim", zap.String("custom_id", order.TagID), zap.Error(err))
	}
}

// openWithGateway obtains the gateway order reference before anything is written,
// so no ledger row exists that could never be completed.
func (s *OrderService) openWithGateway(ctx context.Context, buyer *models.Account, order *models.Order) (*InitiateResponse, error) {
	gwOrder, err := s.gateway.CreateOrder(ctx, order.Amount, "rcpt_"+uuid.New().String()[:18])
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("gateway").Inc()
		if order.Kind == models.OrderKindQRCreation {
			s.releaseTagID(ctx, order)
		}
		s.logger.Error("Failed to create gateway order",
			zap.Int64("user_id", buyer.ID),
			zap.String("kind", order.Kind),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	order.GatewayOrderID = gwOrder.ID

	if err := s.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) && order.IdempotencyKey.Valid {
			if existing, lookupErr := s.findByIdempotencyKey(ctx, buyer, order.IdempotencyKey.String); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", translateStoreErr(err))
	}

	util.OrdersInitiatedTotal.WithLabelValues(order.Kind).Inc()
	s.logger.Info("Order initiated",
		zap.Int64("order_id", order.ID),
		zap.String("kind", order.Kind),
		zap.String("gateway_order_id", order.GatewayOrderID),
		zap.Int64("amount", order.Amount))

	return newInitiateResponse(order, s.settings.KeyID), nil
}

// settleWithoutGateway is the development path: the entry is written settled and,
// for tag creation, the tag is stored with it.
func (s *OrderService) settleWithoutGateway(ctx context.Context, order *models.Order, tag *models.Tag) (*InitiateResponse, error) {
	order.GatewayOrderID = "dev_" + uuid.New().String()
	order.GatewayPaymentID = nullString("dev_" + uuid.New().String())
	order.PaymentStatus = models.PaymentStatusPaid

	var err error
	if tag != nil {
		err = s.store.CreateSettledTagOrder(ctx, order, tag)
	} else {
		err = s.store.CreateOrder(ctx, order)
	}
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create settled order: %w", translateStoreErr(err))
	}

	s.logger.Warn("Order settled without payment",
		zap.Int64("order_id", order.ID),
		zap.String("kind", order.Kind),
		zap.String("tag_id", order.TagID))
	util.OrdersInitiatedTotal.WithLabelValues(order.Kind).Inc()

	if tag != nil {
		s.releaseTagID(ctx, order)
		s.tags.Finalize(ctx, tag)
	}
	s.afterPaid(ctx, order)

	return newInitiateResponse(order, ""), nil
}

// ConfirmStickerPayment verifies a gateway confirmation for a sticker order and marks it paid
func (s *OrderService) ConfirmStickerPayment(ctx context.Context, c *PaymentConfirmation) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmStickerPayment")
	defer span.End()

	if err := validateStruct(c); err != nil {
		return nil, err
	}

	order, err := s.lookup(ctx, c.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if order.Kind != models.OrderKindStickerOrder {
		return nil, fmt.Errorf("%w: order %d is not a sticker order", ErrValidation, order.ID)
	}

	return s.confirm(ctx, order, c, nil)
}

// ConfirmTagPayment verifies a gateway confirmation for a tag creation fee, then
// marks the order paid and stores the tag together.
func (s *OrderService) ConfirmTagPayment(ctx context.Context, c *PaymentConfirmation, input *TagInput) (*models.Order, *models.Tag, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmTagPayment")
	defer span.End()

	if err := validateStruct(c); err != nil {
		return nil, nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}

	order, err := s.lookup(ctx, c.GatewayOrderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Kind != models.OrderKindQRCreation {
		return nil, nil, fmt.Errorf("%w: order %d is not a tag creation order", ErrValidation, order.ID)
	}

	tag := input.toTag(order.UserID)
	if tag.CustomID != order.TagID {
		return nil, nil, fmt.Errorf("%w: tag id %s does not match the paid order", ErrValidation, tag.CustomID)
	}

	order, err = s.confirm(ctx, order, c, tag)
	if err != nil {
		return nil, nil, err
	}
	return order, tag, nil
}

func (s *OrderService) lookup(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	order, err := s.store.GetOrderByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return order, nil
}

func (s *OrderService) confirm(ctx context.Context, order *models.Order, c *PaymentConfirmation, tag *models.Tag) (*models.Order, error) {
	if !s.verifier.Verify(c.GatewayOrderID, c.GatewayPaymentID, c.Signature) {
		util.PaymentVerificationFailedTotal.Inc()
		s.logger.Warn("payment_verification_failed",
			zap.Int64("order_id", order.ID),
			zap.Int64("user_id", order.UserID),
			zap.String("gateway_order_id", c.GatewayOrderID),
			zap.String("gateway_payment_id", c.GatewayPaymentID))
		return nil, fmt.Errorf("%w: signature mismatch for order %d", ErrVerificationFailed, order.ID)
	}
	if !s.verifier.Enabled() {
		s.logger.Warn("Payment accepted without signature verification", zap.Int64("order_id", order.ID))
	}

	var (
		transitioned bool
		err          error
	)
	if tag != nil {
		transitioned, err = s.store.CompleteTagOrder(ctx, order.ID, c.GatewayPaymentID, c.Signature, tag)
	} else {
		transitioned, err = s.store.MarkOrderPaid(ctx, order.ID, c.GatewayPaymentID, c.Signature)
	}
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			util.OrdersFailedTotal.WithLabelValues("tag_taken").Inc()
			s.logger.Error("Tag id taken after payment, order left pending",
				zap.Int64("order_id", order.ID),
				zap.String("custom_id", order.TagID),
				zap.String("gateway_payment_id", c.GatewayPaymentID))
			return nil, fmt.Errorf("%w: tag id %s is taken", ErrConflict, order.TagID)
		}
		return nil, fmt.Errorf("failed to mark order %d paid: %w", order.ID, err)
	}

	if !transitioned {
		return s.replay(ctx, order.ID)
	}

	order.PaymentStatus = models.PaymentStatusPaid
	order.GatewayPaymentID = nullString(c.GatewayPaymentID)
	order.GatewaySignature = nullString(c.Signature)

	util.OrdersPaidTotal.WithLabelValues(order.Kind).Inc()
	s.logger.Info("Order paid",
		zap.Int64("order_id", order.ID),
		zap.String("kind", order.Kind),
		zap.Int64("amount", order.Amount))

	if tag != nil {
		s.releaseTagID(ctx, order)
		s.tags.Finalize(ctx, tag)
	}
	s.afterPaid(ctx, order)

	return order, nil
}

// replay handles a confirmation for an order that is no longer pending. A paid
// order succeeds again; commissions are re-checked in case the first run failed.
func (s *OrderService) replay(ctx context.Context, orderID int64) (*models.Order, error) {
	current, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if current.PaymentStatus != models.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: order %d is %s", ErrInvalidStatus, orderID, current.PaymentStatus)
	}

	util.PaymentReplaysTotal.Inc()
	s.logger.Info("Payment confirmation replayed", zap.Int64("order_id", orderID))

	if !current.AttributedAt.Valid {
		s.attribute(ctx, current)
	}
	return current, nil
}

// afterPaid emits OrderPaid and runs attribution. Neither can fail the payment.
func (s *OrderService) afterPaid(ctx context.Context, order *models.Order) {
	if s.events != nil {
		event := &models.OrderPaidEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderPaid,
				Timestamp: time.Now(),
			},
			OrderID:          order.ID,
			UserID:           order.UserID,
			TagID:            order.TagID,
			Kind:             order.Kind,
			Amount:           order.Amount,
			GatewayOrderID:   order.GatewayOrderID,
			GatewayPaymentID: order.GatewayPaymentID.String,
		}
		if err := s.events.PublishOrderPaid(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderPaid event", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	s.attribute(ctx, order)
}

func (s *OrderService) attribute(ctx context.Context, order *models.Order) {
	if s.attributor == nil {
		return
	}
	if _, err := s.attributor.Attribute(ctx, order); err != nil {
		s.logger.Error("Commission attribution failed",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}

// SetFulfillment overwrites the fulfillment status. A delivered order cannot be cancelled.
func (s *OrderService) SetFulfillment(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.SetFulfillment")
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown fulfillment status %q", ErrInvalidStatus, status)
	}

	order, err := s.store.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", translateStoreErr(err))
	}

	s.logger.Info("Order fulfillment updated",
		zap.Int64("order_id", orderID),
		zap.String("status", status))
	return order, nil
}

// GetOrder returns an order to its buyer or an admin
func (s *OrderService) GetOrder(ctx context.Context, actor *models.Account, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if actor.Role != models.RoleAdmin && order.UserID != actor.ID {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
	}
	return order, nil
}

// ListOrdersForUser returns the buyer's orders, newest first
func (s *OrderService) ListOrdersForUser(ctx context.Context, actor *models.Account) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, actor.ID)
}

// ListOrders returns orders for the admin view
func (s *OrderService) ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error) {
	return s.store.ListOrders(ctx, f)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
