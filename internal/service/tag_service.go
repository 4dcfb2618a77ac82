package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TagInput carries the descriptive fields of a tag
type TagInput struct {
	CustomID         string `json:"custom_id" validate:"required,tagid"`
	Category         string `json:"category" validate:"required,max=40"`
	Title            string `json:"title" validate:"max=120"`
	OwnerName        string `json:"owner_name" validate:"required,max=120"`
	ContactPhone     string `json:"contact_phone" validate:"required,min=6,max=20"`
	EmergencyContact string `json:"emergency_contact" validate:"max=20"`
	Address          string `json:"address" validate:"max=300"`
	Notes            string `json:"notes" validate:"max=1000"`
	CustomerEmail    string `json:"customer_email" validate:"omitempty,email"`
}

func (in *TagInput) toTag(createdBy int64) *models.Tag {
	return &models.Tag{
		CustomID:         strings.TrimSpace(in.CustomID),
		Category:         in.Category,
		Title:            in.Title,
		OwnerName:        in.OwnerName,
		ContactPhone:     in.ContactPhone,
		EmergencyContact: in.EmergencyContact,
		Address:          in.Address,
		Notes:            in.Notes,
		CustomerEmail:    strings.ToLower(strings.TrimSpace(in.CustomerEmail)),
		CreatedBy:        createdBy,
	}
}

// TagUpdate carries the fields an owner may change
type TagUpdate struct {
	Category         string `json:"category" validate:"required,max=40"`
	Title            string `json:"title" validate:"max=120"`
	OwnerName        string `json:"owner_name" validate:"required,max=120"`
	ContactPhone     string `json:"contact_phone" validate:"required,min=6,max=20"`
	EmergencyContact string `json:"emergency_contact" validate:"max=20"`
	Address          string `json:"address" validate:"max=300"`
	Notes            string `json:"notes" validate:"max=1000"`
}

// TagService handles tag registration and maintenance
type TagService struct {
	store    TagStore
	cache    TagCache
	renderer ImageRenderer
	events   EventPublisher
	logger   *zap.Logger
}

// NewTagService creates a new tag service. cache and renderer may be nil.
func NewTagService(store TagStore, cache TagCache, renderer ImageRenderer, events EventPublisher) *TagService {
	return &TagService{
		store:    store,
		cache:    cache,
		renderer: renderer,
		events:   events,
		logger:   util.GetLogger(),
	}
}

// Create registers a tag directly, without a creation fee
func (s *TagService) Create(ctx context.Context, actor *models.Account, input *TagInput) (*models.Tag, error) {
	ctx, span := util.StartSpan(ctx, "TagService.Create")
	defer span.End()

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	tag := input.toTag(actor.ID)
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag %s: %w", tag.CustomID, translateStoreErr(err))
	}

	s.Finalize(ctx, tag)
	return tag, nil
}

// Finalize runs the post-creation steps of a freshly stored tag: image rendering,
// cache invalidation and the TagCreated event. Failures are logged only.
func (s *TagService) Finalize(ctx context.Context, tag *models.Tag) {
	util.TagsCreatedTotal.Inc()
	s.logger.Info("Tag created", zap.String("custom_id", tag.CustomID), zap.Int64("created_by", tag.CreatedBy))

	if s.renderer != nil {
		images, err := s.renderer.Render(tag.CustomID)
		if err != nil {
			s.logger.Error("Failed to render tag images", zap.String("custom_id", tag.CustomID), zap.Error(err))
		} else if err := s.store.UpdateTagImages(ctx, tag.CustomID, images.QR, images.Card); err != nil {
			s.logger.Error("Failed to save tag images", zap.String("custom_id", tag.CustomID), zap.Error(err))
		} else {
			tag.QRImage, tag.CardImage = images.QR, images.Card
		}
	}

	s.invalidate(ctx, tag.CustomID)

	if s.events != nil {
		event := &models.TagCreatedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeTagCreated,
				Timestamp: time.Now(),
			},
			TagID:     tag.ID,
			CustomID:  tag.CustomID,
			CreatedBy: tag.CreatedBy,
		}
		if err := s.events.PublishTagCreated(ctx, event); err != nil {
			s.logger.Error("Failed to publish TagCreated event", zap.String("custom_id", tag.CustomID), zap.Error(err))
		}
	}
}

// Get returns the full tag to its owner, its creator or an admin
func (s *TagService) Get(ctx context.Context, actor *models.Account, customID string) (*models.Tag, error) {
	tag, err := s.store.GetTagByCustomID(ctx, customID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if actor.Role != models.RoleAdmin && tag.CreatedBy != actor.ID && !tag.OwnedBy(actor) {
		return nil, fmt.Errorf("%w: tag %s", ErrForbidden, customID)
	}
	return tag, nil
}

// GetPublic returns the public page of a tag, served from cache when possible
func (s *TagService) GetPublic(ctx context.Context, customID string) (*models.PublicTag, error) {
	ctx, span := util.StartSpan(ctx, "TagService.GetPublic")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.GetPublicTag(ctx, customID)
		if err != nil {
			s.logger.Warn("Tag cache read failed", zap.String("custom_id", customID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	tag, err := s.store.GetTagByCustomID(ctx, customID)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	public := tag.Public()
	if s.cache != nil {
		if err := s.cache.SetPublicTag(ctx, public); err != nil {
			s.logger.Warn("Tag cache write failed", zap.String("custom_id", customID), zap.Error(err))
		}
	}
	return public, nil
}

// Update overwrites the descriptive fields. Only the owner may modify a tag: the
// account matching customer_email when set, otherwise the creator. Role grants nothing.
func (s *TagService) Update(ctx context.Context, actor *models.Account, customID string, update *TagUpdate) (*models.Tag, error) {
	ctx, span := util.StartSpan(ctx, "TagService.Update")
	defer span.End()

	if err := validateStruct(update); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTagByCustomID(ctx, customID)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	if !tag.OwnedBy(actor) {
		s.logger.Warn("Rejected tag modification by non-owner",
			zap.String("custom_id", customID),
			zap.Int64("account_id", actor.ID))
		return nil, fmt.Errorf("%w: only the tag owner may modify %s", ErrForbidden, customID)
	}

	tag.Category = update.Category
	tag.Title = update.Title
	tag.OwnerName = update.OwnerName
	tag.ContactPhone = update.ContactPhone
	tag.EmergencyContact = update.EmergencyContact
	tag.Address = update.Address
	tag.Notes = update.Notes

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to update tag %s: %w", customID, translateStoreErr(err))
	}

	s.invalidate(ctx, customID)
	return tag, nil
}

// Delete removes a tag. Admin only.
func (s *TagService) Delete(ctx context.Context, actor *models.Account, customID string) error {
	if actor.Role != models.RoleAdmin {
		return fmt.Errorf("%w: only admins may delete tags", ErrForbidden)
	}
	if err := s.store.DeleteTag(ctx, customID); err != nil {
		return translateStoreErr(err)
	}

	s.logger.Info("Tag deleted", zap.String("custom_id", customID), zap.Int64("admin_id", actor.ID))
	s.invalidate(ctx, customID)
	return nil
}

// ListMine returns the tags an account created or that are addressed to its email
func (s *TagService) ListMine(ctx context.Context, actor *models.Account) ([]models.Tag, error) {
	return s.store.ListTagsForAccount(ctx, actor.ID, actor.Email)
}

// ListAll returns a page of every tag
func (s *TagService) ListAll(ctx context.Context, limit, offset int) ([]models.Tag, error) {
	return s.store.ListTags(ctx, limit, offset)
}

func (s *TagService) invalidate(ctx context.Context, customID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePublicTag(ctx, customID); err != nil {
		s.logger.Warn("Tag cache invalidation failed", zap.String("custom_id", customID), zap.Error(err))
	}
}
