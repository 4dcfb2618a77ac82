package models

import "time"

// Event types
const (
	EventTypeOrderPaid          = "ORDER_PAID"
	EventTypeCommissionRecorded = "COMMISSION_RECORDED"
	EventTypeTagCreated         = "TAG_CREATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPaidEvent published when a ledger entry transitions to paid
type OrderPaidEvent struct {
	BaseEvent
	OrderID          int64  `json:"order_id"`
	UserID           int64  `json:"user_id"`
	TagID            string `json:"tag_id"`
	Kind             string `json:"kind"`
	Amount           int64  `json:"amount"`
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
}

// CommissionRecordedEvent published for every newly recorded commission
type CommissionRecordedEvent struct {
	BaseEvent
	CommissionID int64  `json:"commission_id"`
	ShopkeeperID int64  `json:"shopkeeper_id"`
	OrderID      int64  `json:"order_id"`
	Type         string `json:"type"`
	Commission   int64  `json:"commission"`
}

// TagCreatedEvent published when a tag is registered
type TagCreatedEvent struct {
	BaseEvent
	TagID     int64  `json:"tag_id"`
	CustomID  string `json:"custom_id"`
	CreatedBy int64  `json:"created_by"`
}
