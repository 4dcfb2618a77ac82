package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"qrtag-service/internal/models"
	"qrtag-service/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotificationStore struct {
	mu        sync.Mutex
	processed map[string]bool
	orders    map[int64]*models.Order
	accounts  map[int64]*models.Account
}

func (s *fakeNotificationStore) IsEventProcessed(_ context.Context, eventID, consumer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[eventID+"/"+consumer], nil
}

func (s *fakeNotificationStore) MarkEventProcessed(_ context.Context, eventID, _ string, consumer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[eventID+"/"+consumer] = true
	return nil
}

func (s *fakeNotificationStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return o, nil
}

func (s *fakeNotificationStore) GetAccountByID(_ context.Context, id int64) (*models.Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

type fakeSender struct {
	sent []string
	err  error
}

func (s *fakeSender) Send(to, subject, _, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to+": "+subject)
	return nil
}

func newNotificationFixture() (*NotificationWorker, *fakeNotificationStore, *fakeSender) {
	st := &fakeNotificationStore{
		processed: map[string]bool{},
		orders: map[int64]*models.Order{
			1: {ID: 1, UserID: 7, Kind: models.OrderKindStickerOrder, TagID: "VH-101", Quantity: 12, Amount: 588},
		},
		accounts: map[int64]*models.Account{
			7: {ID: 7, Name: "Asha", Email: "asha@x.io"},
		},
	}
	sender := &fakeSender{}
	return NewNotificationWorker(nil, st, sender), st, sender
}

func orderPaid(eventID string, orderID int64) *models.OrderPaidEvent {
	return &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{EventID: eventID, EventType: models.EventTypeOrderPaid, Timestamp: time.Now()},
		OrderID:   orderID,
	}
}

func TestNotificationSentOncePerEvent(t *testing.T) {
	w, _, sender := newNotificationFixture()
	ctx := context.Background()

	require.NoError(t, w.HandleOrderPaid(ctx, orderPaid("evt-1", 1)))
	require.NoError(t, w.HandleOrderPaid(ctx, orderPaid("evt-1", 1)))

	assert.Equal(t, []string{"asha@x.io: Sticker order #1 confirmed"}, sender.sent)
}

func TestNotificationFailureIsRetryable(t *testing.T) {
	w, st, sender := newNotificationFixture()
	sender.err = errors.New("smtp down")

	err := w.HandleOrderPaid(context.Background(), orderPaid("evt-2", 1))
	assert.Error(t, err)
	assert.False(t, st.processed["evt-2/"+NotificationConsumer])

	sender.err = nil
	require.NoError(t, w.HandleOrderPaid(context.Background(), orderPaid("evt-2", 1)))
	assert.Len(t, sender.sent, 1)
}

func TestNotificationUnknownOrder(t *testing.T) {
	w, _, _ := newNotificationFixture()
	assert.Error(t, w.HandleOrderPaid(context.Background(), orderPaid("evt-3", 99)))
}

type countingRunner struct {
	runs int32
}

func (r *countingRunner) Run(context.Context) (*service.ReconcileResult, error) {
	atomic.AddInt32(&r.runs, 1)
	return &service.ReconcileResult{}, nil
}

func TestReconcileWorkerRunsUntilCancelled(t *testing.T) {
	runner := &countingRunner{}
	w := NewReconcileWorker(runner, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runner.runs) >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("reconcile worker did not stop")
	}
}
