package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"qrtag-service/internal/gateway"
	"qrtag-service/internal/models"
	"qrtag-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "gw_secret"

type orderFixture struct {
	store    *memStore
	gateway  *fakeGateway
	events   *recordingPublisher
	claims   *memClaims
	verifier *gateway.Verifier
	svc      *OrderService
}

func newOrderFixture(t *testing.T, settings PaymentSettings) *orderFixture {
	t.Helper()
	f := &orderFixture{
		store:    newMemStore(),
		gateway:  &fakeGateway{},
		events:   &recordingPublisher{},
		claims:   newMemClaims(),
		verifier: gateway.NewVerifier(testSecret),
	}
	if settings.TagClaimTTL == 0 {
		settings.TagClaimTTL = time.Minute
	}
	attributor := NewAttributor(f.store, f.events)
	tags := NewTagService(f.store, nil, stubRenderer{}, f.events)
	f.svc = NewOrderService(f.store, f.gateway, f.verifier, f.claims, f.events, attributor, tags, settings)
	return f
}

func (f *orderFixture) confirmation(gatewayOrderID, paymentID string) *PaymentConfirmation {
	return &PaymentConfirmation{
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: paymentID,
		Signature:        f.verifier.Sign(gatewayOrderID, paymentID),
	}
}

func stickerRequest(tagID string, qty int) *StickerOrderRequest {
	return &StickerOrderRequest{
		TagID:    tagID,
		FullName: "Asha Rao",
		Phone:    "9876543210",
		Address:  "12 MG Road",
		City:     "Pune",
		State:    "MH",
		Pincode:  "411001",
		Quantity: qty,
	}
}

func tagInput(customID string) *TagInput {
	return &TagInput{
		CustomID:     customID,
		Category:     "vehicle",
		Title:        "Blue scooter",
		OwnerName:    "Asha Rao",
		ContactPhone: "9876543210",
	}
}

func TestStickerOrderScenario(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{KeyID: "key_live"})
	ctx := context.Background()

	shopx := f.store.addAccount(&models.Account{Name: "SHOPX", Email: "shopx@x.io", Role: models.RolePartner})
	buyer := f.store.addAccount(&models.Account{Name: "Asha", Email: "asha@x.io", Role: models.RoleUser, ReferredBy: referredBy(shopx)})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-101", Category: "vehicle", CreatedBy: buyer.ID}))

	resp, err := f.svc.InitiateStickerOrder(ctx, buyer, stickerRequest("VH-101", 12))
	require.NoError(t, err)
	assert.Equal(t, int64(588), resp.Amount)
	assert.Equal(t, "key_live", resp.GatewayKeyID)
	assert.Equal(t, models.PaymentStatusPending, resp.PaymentStatus)
	assert.Equal(t, []int64{588}, f.gateway.calls)

	order, err := f.svc.ConfirmStickerPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)

	got := f.store.commissionsFor(order.ID)
	require.Len(t, got, 1)
	assert.Equal(t, shopx.ID, got[0].ShopkeeperID)
	assert.Equal(t, models.CommissionReferralSticker, got[0].Type)
	assert.Equal(t, int64(588), got[0].BaseAmount)
	assert.Equal(t, int64(29), got[0].CommissionAmount)
	assert.Equal(t, buyer.ID, got[0].SourceUserID)

	require.Len(t, f.events.orderPaid, 1)
	assert.Equal(t, order.ID, f.events.orderPaid[0].OrderID)
}

func TestConfirmReplayDoesNotDuplicateCommissions(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()

	x := f.store.addAccount(&models.Account{Email: "x@x.io", Role: models.RolePartner})
	p := f.store.addAccount(&models.Account{Email: "p@x.io", Role: models.RolePartner, ReferredBy: referredBy(x)})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "WC-7", Category: "cooler", CreatedBy: p.ID}))

	resp, err := f.svc.InitiateStickerOrder(ctx, p, stickerRequest("WC-7", 3))
	require.NoError(t, err)

	c := f.confirmation(resp.GatewayOrderID, "pay_1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ConfirmStickerPayment(ctx, c)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err = f.svc.ConfirmStickerPayment(ctx, c)
	require.NoError(t, err)

	got := f.store.commissionsFor(resp.OrderID)
	assert.Len(t, got, 2)
	types := []string{got[0].Type, got[1].Type}
	assert.ElementsMatch(t, []string{models.CommissionSelfSticker, models.CommissionReferralSticker}, types)
}

func TestConfirmRejectsTamperedSignature(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()

	p := f.store.addAccount(&models.Account{Email: "p@x.io", Role: models.RolePartner})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-1", Category: "vehicle", CreatedBy: p.ID}))
	resp, err := f.svc.InitiateStickerOrder(ctx, p, stickerRequest("VH-1", 1))
	require.NoError(t, err)

	good := f.confirmation(resp.GatewayOrderID, "pay_1")
	tampered := []*PaymentConfirmation{
		{GatewayOrderID: resp.GatewayOrderID, GatewayPaymentID: "pay_2", Signature: good.Signature},
		{GatewayOrderID: resp.GatewayOrderID, GatewayPaymentID: "pay_1", Signature: gateway.NewVerifier("wrong").Sign(resp.GatewayOrderID, "pay_1")},
		{GatewayOrderID: resp.GatewayOrderID, GatewayPaymentID: "pay_1", Signature: "not-hex"},
		{GatewayOrderID: resp.GatewayOrderID, GatewayPaymentID: "pay_1"},
	}
	for _, c := range tampered {
		_, err := f.svc.ConfirmStickerPayment(ctx, c)
		assert.ErrorIs(t, err, ErrVerificationFailed)
	}

	stored, err := f.store.GetOrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, f.store.commissionsFor(resp.OrderID))
	assert.Empty(t, f.events.orderPaid)

	_, err = f.svc.ConfirmStickerPayment(ctx, good)
	require.NoError(t, err)
}

func TestConfirmUnknownOrder(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})

	_, err := f.svc.ConfirmStickerPayment(context.Background(), f.confirmation("order_missing", "pay_1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmWithoutSecretTrustsConfirmation(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	f.svc.verifier = gateway.NewVerifier("")
	ctx := context.Background()

	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-2", Category: "vehicle", CreatedBy: u.ID}))
	resp, err := f.svc.InitiateStickerOrder(ctx, u, stickerRequest("VH-2", 2))
	require.NoError(t, err)

	order, err := f.svc.ConfirmStickerPayment(ctx, &PaymentConfirmation{GatewayOrderID: resp.GatewayOrderID, GatewayPaymentID: "pay_1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
}

func TestInitiateGatewayUnavailableWritesNothing(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	f.gateway.err = errBoom
	ctx := context.Background()

	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-3", Category: "vehicle", CreatedBy: u.ID}))

	_, err := f.svc.InitiateStickerOrder(ctx, u, stickerRequest("VH-3", 1))
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	_, err = f.svc.InitiateTagCreation(ctx, u, tagInput("NEW-1"), "")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	assert.Equal(t, 0, f.store.orderCount())
	assert.Empty(t, f.claims.owners, "claim is released when the gateway fails")
}

func TestInitiateStickerOrderValidation(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-4", Category: "vehicle", CreatedBy: u.ID}))

	zero := stickerRequest("VH-4", 0)
	_, err := f.svc.InitiateStickerOrder(ctx, u, zero)
	assert.ErrorIs(t, err, ErrValidation)

	noAddress := stickerRequest("VH-4", 1)
	noAddress.Address = ""
	_, err = f.svc.InitiateStickerOrder(ctx, u, noAddress)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.InitiateStickerOrder(ctx, u, stickerRequest("NOPE-1", 1))
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.gateway.calls)
}

func TestInitiateIdempotencyKey(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser})
	other := f.store.addAccount(&models.Account{Email: "o@x.io", Role: models.RoleUser})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-5", Category: "vehicle", CreatedBy: u.ID}))

	req := stickerRequest("VH-5", 10)
	req.IdempotencyKey = "idem-1"

	first, err := f.svc.InitiateStickerOrder(ctx, u, req)
	require.NoError(t, err)
	second, err := f.svc.InitiateStickerOrder(ctx, u, req)
	require.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.GatewayOrderID, second.GatewayOrderID)
	assert.Len(t, f.gateway.calls, 1)

	_, err = f.svc.InitiateStickerOrder(ctx, other, req)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTagCreationFlow(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()

	x := f.store.addAccount(&models.Account{Email: "x@x.io", Role: models.RolePartner})
	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser, ReferredBy: referredBy(x)})

	resp, err := f.svc.InitiateTagCreation(ctx, u, tagInput("BIKE-9"), "")
	require.NoError(t, err)
	assert.Equal(t, int64(TagCreationFee), resp.Amount)
	assert.Equal(t, models.OrderKindQRCreation, resp.Kind)
	assert.Equal(t, []int64{120}, f.gateway.calls)

	exists, _ := f.store.TagExists(ctx, "BIKE-9")
	assert.False(t, exists, "tag is only created once payment is verified")

	order, tag, err := f.svc.ConfirmTagPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"), tagInput("BIKE-9"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, u.ID, tag.CreatedBy)
	assert.Equal(t, "/media/qr/BIKE-9.png", tag.QRImage)

	stored, err := f.store.GetTagByCustomID(ctx, "BIKE-9")
	require.NoError(t, err)
	assert.Equal(t, "/media/cards/BIKE-9.png", stored.CardImage)

	got := f.store.commissionsFor(order.ID)
	require.Len(t, got, 1)
	assert.Equal(t, models.CommissionReferralCreation, got[0].Type)
	assert.Equal(t, int64(6), got[0].CommissionAmount)

	assert.Empty(t, f.claims.owners)
	assert.Len(t, f.events.tags, 1)
}

func TestTagCreationRejectsTakenID(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser})
	other := f.store.addAccount(&models.Account{Email: "o@x.io", Role: models.RoleUser})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "TAKEN", Category: "vehicle", CreatedBy: other.ID}))

	_, err := f.svc.InitiateTagCreation(ctx, u, tagInput("TAKEN"), "")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.InitiateTagCreation(ctx, other, tagInput("FRESH"), "")
	require.NoError(t, err)
	_, err = f.svc.InitiateTagCreation(ctx, u, tagInput("FRESH"), "")
	assert.ErrorIs(t, err, ErrConflict, "claimed by another buyer")

	_, err = f.svc.InitiateTagCreation(ctx, u, tagInput("bad id!"), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTagPaymentConflictLeavesOrderPending(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RolePartner})

	resp, err := f.svc.InitiateTagCreation(ctx, u, tagInput("RACE-1"), "")
	require.NoError(t, err)

	// another path registered the id while the fee was being paid
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "RACE-1", Category: "vehicle", CreatedBy: 999}))

	_, _, err = f.svc.ConfirmTagPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"), tagInput("RACE-1"))
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := f.store.GetOrderByID(ctx, resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, stored.PaymentStatus)
	assert.Empty(t, f.store.commissionsFor(resp.OrderID))
}

func TestConcurrentTagPaymentsOneWins(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	f.svc.claims = nil
	ctx := context.Background()

	const racers = 6
	confirmations := make([]*PaymentConfirmation, racers)
	for i := 0; i < racers; i++ {
		u := f.store.addAccount(&models.Account{Email: string(rune('a'+i)) + "@x.io", Role: models.RoleUser})
		resp, err := f.svc.InitiateTagCreation(ctx, u, tagInput("SAME-ID"), "")
		require.NoError(t, err)
		confirmations[i] = f.confirmation(resp.GatewayOrderID, "pay_"+string(rune('a'+i)))
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(c *PaymentConfirmation) {
			defer wg.Done()
			_, _, err := f.svc.ConfirmTagPayment(ctx, c, tagInput("SAME-ID"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrConflict):
				conflicts++
			}
		}(confirmations[i])
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, conflicts)
}

func TestConfirmTagPaymentRejectsMismatchedID(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	u := f.store.addAccount(&models.Account{Email: "u@x.io", Role: models.RoleUser})

	resp, err := f.svc.InitiateTagCreation(ctx, u, tagInput("MINE-1"), "")
	require.NoError(t, err)

	_, _, err = f.svc.ConfirmTagPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"), tagInput("OTHER-1"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.ConfirmStickerPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSkipPaymentSettlesImmediately(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{SkipPayment: true})
	ctx := context.Background()

	p := f.store.addAccount(&models.Account{Email: "p@x.io", Role: models.RolePartner})

	resp, err := f.svc.InitiateTagCreation(ctx, p, tagInput("DEV-1"), "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, resp.PaymentStatus)
	assert.Contains(t, resp.GatewayOrderID, "dev_")
	assert.Empty(t, f.gateway.calls)

	tag, err := f.store.GetTagByCustomID(ctx, "DEV-1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, tag.CreatedBy)

	got := f.store.commissionsFor(resp.OrderID)
	require.Len(t, got, 1)
	assert.Equal(t, models.CommissionSelfCreation, got[0].Type)

	sticker, err := f.svc.InitiateStickerOrder(ctx, p, stickerRequest("DEV-1", 10))
	require.NoError(t, err)
	assert.Equal(t, int64(490), sticker.Amount)
	assert.Equal(t, models.PaymentStatusPaid, sticker.PaymentStatus)
	assert.Len(t, f.store.commissionsFor(sticker.OrderID), 1)

	_, err = f.svc.InitiateTagCreation(ctx, p, tagInput("DEV-1"), "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirmSucceedsWhenAttributionFails(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	p := f.store.addAccount(&models.Account{Email: "p@x.io", Role: models.RolePartner})
	require.NoError(t, f.store.CreateTag(ctx, &models.Tag{CustomID: "VH-6", Category: "vehicle", CreatedBy: p.ID}))

	resp, err := f.svc.InitiateStickerOrder(ctx, p, stickerRequest("VH-6", 1))
	require.NoError(t, err)

	f.store.insertCommissionErr = errBoom
	f.events.err = errBoom

	order, err := f.svc.ConfirmStickerPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)

	stored, err := f.store.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, stored.AttributedAt.Valid)

	// a replay after recovery completes the attribution
	f.store.insertCommissionErr = nil
	_, err = f.svc.ConfirmStickerPayment(ctx, f.confirmation(resp.GatewayOrderID, "pay_1"))
	require.NoError(t, err)
	assert.Len(t, f.store.commissionsFor(order.ID), 1)
}

func TestSetFulfillment(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"ship", models.OrderStatusProcessing, models.OrderStatusShipped, nil},
		{"deliver", models.OrderStatusShipped, models.OrderStatusDelivered, nil},
		{"cancel processing", models.OrderStatusProcessing, models.OrderStatusCancelled, nil},
		{"cancel shipped", models.OrderStatusShipped, models.OrderStatusCancelled, nil},
		{"cancel delivered", models.OrderStatusDelivered, models.OrderStatusCancelled, ErrInvalidStatus},
		{"back to processing", models.OrderStatusShipped, models.OrderStatusProcessing, nil},
		{"unknown", models.OrderStatusProcessing, "lost", ErrInvalidStatus},
		{"empty", models.OrderStatusProcessing, "", ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t, PaymentSettings{})
			ctx := context.Background()
			order := &models.Order{UserID: 1, TagID: "T-1", Kind: models.OrderKindStickerOrder, Quantity: 1, Amount: 59,
				GatewayOrderID: "order_x", PaymentStatus: models.PaymentStatusPaid, OrderStatus: tt.from}
			require.NoError(t, f.store.CreateOrder(ctx, order))

			updated, err := f.svc.SetFulfillment(ctx, order.ID, tt.to)
			stored, _ := f.store.GetOrderByID(ctx, order.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, stored.OrderStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.OrderStatus)
			assert.Equal(t, tt.to, stored.OrderStatus)
		})
	}

	f := newOrderFixture(t, PaymentSettings{})
	_, err := f.svc.SetFulfillment(context.Background(), 404, models.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}

// staleReads serves order reads from a snapshot taken before a concurrent write
type staleReads struct {
	*memStore
	snapshot map[int64]models.Order
}

func (s *staleReads) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o := s.snapshot[id]
	return &o, nil
}

func TestSetFulfillmentCancelAfterConcurrentDelivery(t *testing.T) {
	ctx := context.Background()
	mem := newMemStore()
	order := &models.Order{UserID: 1, TagID: "T-1", Kind: models.OrderKindStickerOrder, Quantity: 1, Amount: 59,
		GatewayOrderID: "order_race", PaymentStatus: models.PaymentStatusPaid, OrderStatus: models.OrderStatusShipped}
	require.NoError(t, mem.CreateOrder(ctx, order))

	stale := &staleReads{memStore: mem, snapshot: map[int64]models.Order{order.ID: *order}}
	svc := NewOrderService(stale, &fakeGateway{}, gateway.NewVerifier(testSecret), nil, nil,
		NewAttributor(stale, nil), NewTagService(stale, nil, nil, nil), PaymentSettings{})

	// another admin delivered the order after this request read it as shipped
	_, err := mem.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered)
	require.NoError(t, err)

	_, err = svc.SetFulfillment(ctx, order.ID, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	stored, err := mem.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, stored.OrderStatus)
}

func TestGetOrderVisibility(t *testing.T) {
	f := newOrderFixture(t, PaymentSettings{})
	ctx := context.Background()
	buyer := f.store.addAccount(&models.Account{Email: "b@x.io", Role: models.RoleUser})
	stranger := f.store.addAccount(&models.Account{Email: "s@x.io", Role: models.RoleUser})
	admin := f.store.addAccount(&models.Account{Email: "a@x.io", Role: models.RoleAdmin})

	order := &models.Order{UserID: buyer.ID, TagID: "T-1", Kind: models.OrderKindStickerOrder, Quantity: 1, Amount: 59,
		GatewayOrderID: "order_v", PaymentStatus: models.PaymentStatusPending, OrderStatus: models.OrderStatusProcessing}
	require.NoError(t, f.store.CreateOrder(ctx, order))

	_, err := f.svc.GetOrder(ctx, buyer, order.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetOrder(ctx, admin, order.ID)
	assert.NoError(t, err)
	_, err = f.svc.GetOrder(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := f.svc.ListOrders(ctx, store.OrderFilter{PaymentStatus: models.PaymentStatusPending})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
