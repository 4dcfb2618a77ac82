package api

import (
	"time"

	"qrtag-service/internal/models"
)

type accountView struct {
	*models.Account
	ReferralCode string `json:"referral_code,omitempty"`
	ReferredBy   *int64 `json:"referred_by,omitempty"`
}

func newAccountView(a *models.Account) *accountView {
	v := &accountView{Account: a}
	if a.ReferralCode.Valid {
		v.ReferralCode = a.ReferralCode.String
	}
	if a.ReferredBy.Valid {
		id := a.ReferredBy.Int64
		v.ReferredBy = &id
	}
	return v
}

type orderView struct {
	*models.Order
	GatewayPaymentID string     `json:"gateway_payment_id,omitempty"`
	AttributedAt     *time.Time `json:"attributed_at,omitempty"`
}

func newOrderView(o *models.Order) *orderView {
	v := &orderView{Order: o}
	if o.GatewayPaymentID.Valid {
		v.GatewayPaymentID = o.GatewayPaymentID.String
	}
	if o.AttributedAt.Valid {
		t := o.AttributedAt.Time
		v.AttributedAt = &t
	}
	return v
}

func newOrderViews(orders []models.Order) []*orderView {
	views := make([]*orderView, 0, len(orders))
	for i := range orders {
		views = append(views, newOrderView(&orders[i]))
	}
	return views
}

type commissionView struct {
	*models.Commission
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

func newCommissionView(c *models.Commission) *commissionView {
	v := &commissionView{Commission: c}
	if c.PaidAt.Valid {
		t := c.PaidAt.Time
		v.PaidAt = &t
	}
	return v
}

func newCommissionViews(commissions []models.Commission) []*commissionView {
	views := make([]*commissionView, 0, len(commissions))
	for i := range commissions {
		views = append(views, newCommissionView(&commissions[i]))
	}
	return views
}
