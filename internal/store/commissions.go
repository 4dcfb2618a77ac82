package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrtag-service/internal/models"
)

// CommissionFilter narrows commission listings
type CommissionFilter struct {
	ShopkeeperID int64
	Status       string
	Limit        int
	Offset       int
}

// InsertCommission records a commission once per (order, shopkeeper, type).
// It reports false when an identical record already exists.
func (s *Store) InsertCommission(ctx context.Context, c *models.Commission) (bool, error) {
	query := `
		INSERT INTO commissions (shopkeeper_id, type, order_id, tag_id, source_user_id,
			base_amount, commission, rate, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (order_id, shopkeeper_id, type) DO NOTHING
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		c.ShopkeeperID, c.Type, c.OrderID, c.TagID, c.SourceUserID,
		c.BaseAmount, c.CommissionAmount, c.Rate, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetCommissionByID retrieves a commission by ID
func (s *Store) GetCommissionByID(ctx context.Context, id int64) (*models.Commission, error) {
	var c models.Commission
	err := s.db.GetContext(ctx, &c, "SELECT * FROM commissions WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("commission %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCommissionsByOrderID retrieves all commissions derived from an order
func (s *Store) GetCommissionsByOrderID(ctx context.Context, orderID int64) ([]models.Commission, error) {
	commissions := []models.Commission{}
	err := s.db.SelectContext(ctx, &commissions,
		"SELECT * FROM commissions WHERE order_id = $1 ORDER BY id", orderID)
	return commissions, err
}

// UpdateCommissionStatus sets the settlement status, note and paid timestamp
func (s *Store) UpdateCommissionStatus(ctx context.Context, id int64, status, note string, paidAt *time.Time) (*models.Commission, error) {
	var c models.Commission
	err := s.db.GetContext(ctx, &c, `
		UPDATE commissions SET status = $1, payment_note = $2, paid_at = $3
		WHERE id = $4
		RETURNING *`, status, note, paidAt, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("commission %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCommissions returns commissions matching the filter
func (s *Store) ListCommissions(ctx context.Context, f CommissionFilter) ([]models.Commission, error) {
	commissions := []models.Commission{}
	err := s.db.SelectContext(ctx, &commissions, `
		SELECT * FROM commissions
		WHERE ($1::bigint = 0 OR shopkeeper_id = $1)
		  AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		f.ShopkeeperID, f.Status, f.Limit, f.Offset)
	return commissions, err
}

// GetCommissionSummary aggregates a partner's commissions by status
func (s *Store) GetCommissionSummary(ctx context.Context, shopkeeperID int64) (*models.CommissionSummary, error) {
	summary := models.CommissionSummary{ShopkeeperID: shopkeeperID}
	err := s.db.GetContext(ctx, &summary, `
		SELECT $1::bigint AS shopkeeper_id,
			COUNT(*) AS count,
			COALESCE(SUM(commission) FILTER (WHERE status = 'pending'), 0) AS pending_amount,
			COALESCE(SUM(commission) FILTER (WHERE status = 'paid'), 0) AS paid_amount
		FROM commissions WHERE shopkeeper_id = $1`, shopkeeperID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
