package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qrtag-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const insertOrderQuery = `
	INSERT INTO orders (user_id, tag_id, kind, full_name, phone, address, city, state, pincode,
		quantity, amount, gateway_order_id, gateway_payment_id, gateway_signature,
		payment_status, order_status, idempotency_key)
	VALUES (:user_id, :tag_id, :kind, :full_name, :phone, :address, :city, :state, :pincode,
		:quantity, :amount, :gateway_order_id, :gateway_payment_id, :gateway_signature,
		:payment_status, :order_status, :idempotency_key)
	RETURNING id, created_at, updated_at`

// OrderFilter narrows admin order listings
type OrderFilter struct {
	PaymentStatus string
	OrderStatus   string
	Kind          string
	Limit         int
	Offset        int
}

// CreateOrder creates a new ledger entry
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	return insertOrder(ctx, s.db, order)
}

func insertOrder(ctx context.Context, q sqlx.ExtContext, order *models.Order) error {
	rows, err := sqlx.NamedQueryContext(ctx, q, insertOrderQuery, order)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return translate(err)
		}
		return fmt.Errorf("insert order %s: no row returned", order.GatewayOrderID)
	}
	return rows.Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// CreateSettledTagOrder records an already settled tag-creation entry together with its tag
func (s *Store) CreateSettledTagOrder(ctx context.Context, order *models.Order, tag *models.Tag) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertTag(ctx, tx, tag); err != nil {
		return err
	}
	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}
	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByGatewayOrderID retrieves an order by the gateway's order reference
func (s *Store) GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE gateway_order_id = $1", gatewayOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", gatewayOrderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderPaid moves a pending order to paid. It reports false when the order
// was not pending, so replays never rewrite payment references.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID int64, paymentID, signature string) (bool, error) {
	return markOrderPaid(ctx, s.db, orderID, paymentID, signature)
}

func markOrderPaid(ctx context.Context, q sqlx.ExtContext, orderID int64, paymentID, signature string) (bool, error) {
	var id int64
	err := sqlx.GetContext(ctx, q, &id, `
		UPDATE orders
		SET payment_status = 'paid', gateway_payment_id = $2, gateway_signature = $3, updated_at = NOW()
		WHERE id = $1 AND payment_status = 'pending'
		RETURNING id`, orderID, paymentID, signature)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CompleteTagOrder marks a tag-creation order paid and inserts its tag in one
// transaction. A duplicate custom id rolls back the payment transition.
func (s *Store) CompleteTagOrder(ctx context.Context, orderID int64, paymentID, signature string, tag *models.Tag) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	transitioned, err := markOrderPaid(ctx, tx, orderID, paymentID, signature)
	if err != nil || !transitioned {
		return false, err
	}

	if err := insertTag(ctx, tx, tag); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, translate(err)
	}
	return true, nil
}

// UpdateOrderStatus updates the fulfillment status. A delivered order is never
// cancelled; the check runs in the same statement as the write.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, `
		UPDATE orders SET order_status = $1, updated_at = NOW()
		WHERE id = $2
		  AND NOT (order_status = 'delivered' AND $1 = 'cancelled')
		RETURNING *`, status, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		if _, lookupErr := s.GetOrderByID(ctx, orderID); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, fmt.Errorf("order %d to %s: %w", orderID, status, ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderAttributed stamps the order once commission attribution completed
func (s *Store) MarkOrderAttributed(ctx context.Context, orderID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET attributed_at = NOW() WHERE id = $1 AND attributed_at IS NULL", orderID)
	return err
}

// ListUnattributedPaidOrders returns paid orders still awaiting attribution
func (s *Store) ListUnattributedPaidOrders(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE payment_status = 'paid' AND attributed_at IS NULL AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`, before, limit)
	return orders, err
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// ListOrders returns orders matching the filter
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE ($1::text = '' OR payment_status = $1)
		  AND ($2::text = '' OR order_status = $2)
		  AND ($3::text = '' OR kind = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		f.PaymentStatus, f.OrderStatus, f.Kind, f.Limit, f.Offset)
	return orders, err
}
