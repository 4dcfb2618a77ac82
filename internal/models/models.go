package models

import (
	"database/sql"
	"strings"
	"time"
)

// Account roles
const (
	RoleUser    = "user"
	RolePartner = "partner"
	RoleAdmin   = "admin"
)

// Account represents any actor: normal user, partner (shopkeeper) or administrator
type Account struct {
	ID             int64          `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Email          string         `db:"email" json:"email"`
	Phone          string         `db:"phone" json:"phone,omitempty"`
	PasswordHash   string         `db:"password_hash" json:"-"`
	Role           string         `db:"role" json:"role"`
	ReferralCode   sql.NullString `db:"referral_code" json:"-"`
	ReferredBy     sql.NullInt64  `db:"referred_by" json:"-"`
	CommissionRate float64        `db:"commission_rate" json:"commission_rate"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
}

// IsPartner reports whether the account may earn commissions
func (a *Account) IsPartner() bool {
	return a != nil && a.Role == RolePartner
}

// ValidRole reports whether role is one of the known account roles
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RolePartner, RoleAdmin:
		return true
	}
	return false
}

// Tag represents a registered asset record
type Tag struct {
	ID               int64     `db:"id" json:"id"`
	CustomID         string    `db:"custom_id" json:"custom_id"`
	Category         string    `db:"category" json:"category"`
	Title            string    `db:"title" json:"title"`
	OwnerName        string    `db:"owner_name" json:"owner_name"`
	ContactPhone     string    `db:"contact_phone" json:"contact_phone"`
	EmergencyContact string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	Address          string    `db:"address" json:"address,omitempty"`
	Notes            string    `db:"notes" json:"notes,omitempty"`
	CustomerEmail    string    `db:"customer_email" json:"customer_email,omitempty"`
	CreatedBy        int64     `db:"created_by" json:"created_by"`
	QRImage          string    `db:"qr_image" json:"qr_image,omitempty"`
	CardImage        string    `db:"card_image" json:"card_image,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// OwnedBy resolves tag ownership: the matching customer email when one is set,
// otherwise the creating account.
func (t *Tag) OwnedBy(a *Account) bool {
	if t == nil || a == nil {
		return false
	}
	if t.CustomerEmail != "" {
		return strings.EqualFold(strings.TrimSpace(t.CustomerEmail), strings.TrimSpace(a.Email))
	}
	return t.CreatedBy == a.ID
}

// PublicTag is the subset of a tag shown on the public info page
type PublicTag struct {
	CustomID         string `json:"custom_id"`
	Category         string `json:"category"`
	Title            string `json:"title"`
	OwnerName        string `json:"owner_name"`
	ContactPhone     string `json:"contact_phone"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	Notes            string `json:"notes,omitempty"`
	QRImage          string `json:"qr_image,omitempty"`
}

// Public returns the public view of the tag
func (t *Tag) Public() *PublicTag {
	return &PublicTag{
		CustomID:         t.CustomID,
		Category:         t.Category,
		Title:            t.Title,
		OwnerName:        t.OwnerName,
		ContactPhone:     t.ContactPhone,
		EmergencyContact: t.EmergencyContact,
		Notes:            t.Notes,
		QRImage:          t.QRImage,
	}
}

// Order kinds
const (
	OrderKindQRCreation   = "qr_creation"
	OrderKindStickerOrder = "sticker_order"
)

// Order represents one checkout attempt (sticker purchase or tag creation fee)
type Order struct {
	ID               int64          `db:"id" json:"id"`
	UserID           int64          `db:"user_id" json:"user_id"`
	TagID            string         `db:"tag_id" json:"tag_id"`
	Kind             string         `db:"kind" json:"kind"`
	FullName         string         `db:"full_name" json:"full_name,omitempty"`
	Phone            string         `db:"phone" json:"phone,omitempty"`
	Address          string         `db:"address" json:"address,omitempty"`
	City             string         `db:"city" json:"city,omitempty"`
	State            string         `db:"state" json:"state,omitempty"`
	Pincode          string         `db:"pincode" json:"pincode,omitempty"`
	Quantity         int            `db:"quantity" json:"quantity"`
	Amount           int64          `db:"amount" json:"amount"`
	GatewayOrderID   string         `db:"gateway_order_id" json:"gateway_order_id"`
	GatewayPaymentID sql.NullString `db:"gateway_payment_id" json:"-"`
	GatewaySignature sql.NullString `db:"gateway_signature" json:"-"`
	PaymentStatus    string         `db:"payment_status" json:"payment_status"`
	OrderStatus      string         `db:"order_status" json:"order_status"`
	IdempotencyKey   sql.NullString `db:"idempotency_key" json:"-"`
	AttributedAt     sql.NullTime   `db:"attributed_at" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Fulfillment statuses
const (
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatus reports whether status is a known fulfillment status
func ValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Commission kinds
const (
	CommissionSelfCreation     = "self_creation"
	CommissionSelfSticker      = "self_sticker"
	CommissionReferralCreation = "referral_creation"
	CommissionReferralSticker  = "referral_sticker"
)

// Commission statuses
const (
	CommissionStatusPending = "pending"
	CommissionStatusPaid    = "paid"
)

// Commission is a monetary credit owed to a partner account
type Commission struct {
	ID               int64        `db:"id" json:"id"`
	ShopkeeperID     int64        `db:"shopkeeper_id" json:"shopkeeper_id"`
	Type             string       `db:"type" json:"type"`
	OrderID          int64        `db:"order_id" json:"order_id"`
	TagID            string       `db:"tag_id" json:"tag_id"`
	SourceUserID     int64        `db:"source_user_id" json:"source_user_id"`
	BaseAmount       int64        `db:"base_amount" json:"amount"`
	CommissionAmount int64        `db:"commission" json:"commission"`
	Rate             float64      `db:"rate" json:"rate"`
	Status           string       `db:"status" json:"status"`
	PaymentNote      string       `db:"payment_note" json:"payment_note,omitempty"`
	PaidAt           sql.NullTime `db:"paid_at" json:"-"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
}

// CommissionSummary aggregates a partner's commissions
type CommissionSummary struct {
	ShopkeeperID  int64 `db:"shopkeeper_id" json:"shopkeeper_id"`
	Count         int64 `db:"count" json:"count"`
	PendingAmount int64 `db:"pending_amount" json:"pending_amount"`
	PaidAmount    int64 `db:"paid_amount" json:"paid_amount"`
}
