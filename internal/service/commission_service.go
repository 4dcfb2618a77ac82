package service

import (
	"context"
	"fmt"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/store"
	"qrtag-service/internal/util"

	"go.uber.org/zap"
)

// SettleRequest is the admin settlement action on a commission
type SettleRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// CommissionService handles settlement and partner reporting
type CommissionService struct {
	store  CommissionStore
	now    func() time.Time
	logger *zap.Logger
}

// NewCommissionService creates a new commission service
func NewCommissionService(store CommissionStore) *CommissionService {
	return &CommissionService{
		store:  store,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// Settle sets a commission's payout status. Paid stamps paid_at; pending clears it.
// Any status is reachable from any other.
func (s *CommissionService) Settle(ctx context.Context, commissionID int64, req *SettleRequest) (*models.Commission, error) {
	ctx, span := util.StartSpan(ctx, "CommissionService.Settle")
	defer span.End()

	var paidAt *time.Time
	switch req.Status {
	case models.CommissionStatusPaid:
		now := s.now()
		paidAt = &now
	case models.CommissionStatusPending:
	default:
		return nil, fmt.Errorf("%w: unknown commission status %q", ErrInvalidStatus, req.Status)
	}

	if err := validateStruct(req); err != nil {
		return nil, err
	}

	c, err := s.store.UpdateCommissionStatus(ctx, commissionID, req.Status, req.Note, paidAt)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	util.CommissionsSettledTotal.WithLabelValues(req.Status).Inc()
	s.logger.Info("Commission settled",
		zap.Int64("commission_id", commissionID),
		zap.String("status", req.Status),
		zap.String("note", req.Note))
	return c, nil
}

// List returns commissions for the admin view
func (s *CommissionService) List(ctx context.Context, f store.CommissionFilter) ([]models.Commission, error) {
	if f.Status != "" && f.Status != models.CommissionStatusPaid && f.Status != models.CommissionStatusPending {
		return nil, fmt.Errorf("%w: unknown commission status %q", ErrInvalidStatus, f.Status)
	}
	return s.store.ListCommissions(ctx, f)
}

// ListForPartner returns the partner's own commissions
func (s *CommissionService) ListForPartner(ctx context.Context, partner *models.Account, status string, limit, offset int) ([]models.Commission, error) {
	if !partner.IsPartner() {
		return nil, fmt.Errorf("%w: partner account required", ErrForbidden)
	}
	return s.List(ctx, store.CommissionFilter{
		ShopkeeperID: partner.ID,
		Status:       status,
		Limit:        limit,
		Offset:       offset,
	})
}

// Summary totals the partner's pending and paid commissions
func (s *CommissionService) Summary(ctx context.Context, partner *models.Account) (*models.CommissionSummary, error) {
	if !partner.IsPartner() {
		return nil, fmt.Errorf("%w: partner account required", ErrForbidden)
	}
	return s.store.GetCommissionSummary(ctx, partner.ID)
}
