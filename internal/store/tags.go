package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qrtag-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const insertTagQuery = `
	INSERT INTO tags (custom_id, category, title, owner_name, contact_phone, emergency_contact,
		address, notes, customer_email, created_by)
	VALUES (:custom_id, :category, :title, :owner_name, :contact_phone, :emergency_contact,
		:address, :notes, :customer_email, :created_by)
	RETURNING id, created_at, updated_at`

// CreateTag inserts a tag. A duplicate custom_id yields ErrAlreadyExists.
func (s *Store) CreateTag(ctx context.Context, tag *models.Tag) error {
	return insertTag(ctx, s.db, tag)
}

func insertTag(ctx context.Context, q sqlx.ExtContext, tag *models.Tag) error {
	rows, err := sqlx.NamedQueryContext(ctx, q, insertTagQuery, tag)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return translate(err)
		}
		return fmt.Errorf("insert tag %s: no row returned", tag.CustomID)
	}
	return rows.Scan(&tag.ID, &tag.CreatedAt, &tag.UpdatedAt)
}

// GetTagByCustomID retrieves a tag by its human-chosen identifier
func (s *Store) GetTagByCustomID(ctx context.Context, customID string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.GetContext(ctx, &tag, "SELECT * FROM tags WHERE custom_id = $1", customID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tag %s: %w", customID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// TagExists checks whether a custom id is taken
func (s *Store) TagExists(ctx context.Context, customID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM tags WHERE custom_id = $1)", customID)
	return exists, err
}

// UpdateTag overwrites the descriptive fields of a tag
func (s *Store) UpdateTag(ctx context.Context, tag *models.Tag) error {
	query := `
		UPDATE tags SET category = :category, title = :title, owner_name = :owner_name,
			contact_phone = :contact_phone, emergency_contact = :emergency_contact,
			address = :address, notes = :notes, updated_at = NOW()
		WHERE custom_id = :custom_id`

	res, err := s.db.NamedExecContext(ctx, query, tag)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tag "+tag.CustomID)
}

// UpdateTagImages records the generated image references
func (s *Store) UpdateTagImages(ctx context.Context, customID, qrImage, cardImage string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE tags SET qr_image = $1, card_image = $2, updated_at = NOW() WHERE custom_id = $3",
		qrImage, cardImage, customID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tag "+customID)
}

// DeleteTag removes a tag
func (s *Store) DeleteTag(ctx context.Context, customID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE custom_id = $1", customID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "tag "+customID)
}

// ListTagsForAccount returns tags created by the account or addressed to its email
func (s *Store) ListTagsForAccount(ctx context.Context, accountID int64, email string) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := s.db.SelectContext(ctx, &tags, `
		SELECT * FROM tags
		WHERE created_by = $1 OR (customer_email <> '' AND LOWER(customer_email) = LOWER($2))
		ORDER BY created_at DESC`, accountID, email)
	return tags, err
}

// ListTags returns a page of all tags
func (s *Store) ListTags(ctx context.Context, limit, offset int) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := s.db.SelectContext(ctx, &tags,
		"SELECT * FROM tags ORDER BY created_at DESC LIMIT $1 OFFSET $2", limit, offset)
	return tags, err
}

func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
