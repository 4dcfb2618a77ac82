package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qrtag-service/internal/models"
)

// CreateAccount inserts a new account
func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (name, email, phone, password_hash, role, referral_code, referred_by, commission_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		account.Name, account.Email, account.Phone, account.PasswordHash, account.Role,
		account.ReferralCode, account.ReferredBy, account.CommissionRate,
	).Scan(&account.ID, &account.CreatedAt)
	return translate(err)
}

// GetAccountByID retrieves an account by ID
func (s *Store) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByEmail retrieves an account by email (case-insensitive)
func (s *Store) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE LOWER(email) = LOWER($1)", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByReferralCode retrieves the account owning a referral code
func (s *Store) GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	err := s.db.GetContext(ctx, &account, "SELECT * FROM accounts WHERE referral_code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("referral code %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
