package service

import (
	"context"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/qrcode"
	"qrtag-service/internal/store"
)

// OrderStore is the ledger persistence used by OrderService
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateSettledTagOrder(ctx context.Context, order *models.Order, tag *models.Tag) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	MarkOrderPaid(ctx context.Context, orderID int64, paymentID, signature string) (bool, error)
	CompleteTagOrder(ctx context.Context, orderID int64, paymentID, signature string, tag *models.Tag) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	ListOrders(ctx context.Context, f store.OrderFilter) ([]models.Order, error)
	TagExists(ctx context.Context, customID string) (bool, error)
}

// AttributionStore is what the attribution engine reads and writes
type AttributionStore interface {
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	InsertCommission(ctx context.Context, c *models.Commission) (bool, error)
	MarkOrderAttributed(ctx context.Context, orderID int64) error
}

// CommissionStore backs settlement and partner reporting
type CommissionStore interface {
	UpdateCommissionStatus(ctx context.Context, id int64, status, note string, paidAt *time.Time) (*models.Commission, error)
	ListCommissions(ctx context.Context, f store.CommissionFilter) ([]models.Commission, error)
	GetCommissionSummary(ctx context.Context, shopkeeperID int64) (*models.CommissionSummary, error)
}

// TagStore backs the tag CRUD surface
type TagStore interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	GetTagByCustomID(ctx context.Context, customID string) (*models.Tag, error)
	UpdateTag(ctx context.Context, tag *models.Tag) error
	UpdateTagImages(ctx context.Context, customID, qrImage, cardImage string) error
	DeleteTag(ctx context.Context, customID string) error
	ListTagsForAccount(ctx context.Context, accountID int64, email string) ([]models.Tag, error)
	ListTags(ctx context.Context, limit, offset int) ([]models.Tag, error)
}

// AccountStore backs registration and login
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*models.Account, error)
}

// ReconcileStore finds paid orders whose attribution never completed
type ReconcileStore interface {
	ListUnattributedPaidOrders(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
}

// EventPublisher emits domain events; implemented by broker.EventPublisher
type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event *models.OrderPaidEvent) error
	PublishCommissionRecorded(ctx context.Context, event *models.CommissionRecordedEvent) error
	PublishTagCreated(ctx context.Context, event *models.TagCreatedEvent) error
}

// TagClaimer reserves custom tag ids while their creation fee is pending
type TagClaimer interface {
	ClaimTagID(ctx context.Context, customID, owner string, ttl time.Duration) (bool, error)
	ReleaseTagID(ctx context.Context, customID, owner string) error
}

// TagCache caches the public tag page
type TagCache interface {
	GetPublicTag(ctx context.Context, customID string) (*models.PublicTag, error)
	SetPublicTag(ctx context.Context, tag *models.PublicTag) error
	InvalidatePublicTag(ctx context.Context, customID string) error
}

// ImageRenderer produces the QR and card images of a tag
type ImageRenderer interface {
	Render(customID string) (*qrcode.Images, error)
}
