package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"qrtag-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestHandleMessageRoutesOrderPaid(t *testing.T) {
	eh := NewEventHandler()

	var got *models.OrderPaidEvent
	eh.OnOrderPaid(func(_ context.Context, e *models.OrderPaidEvent) error {
		got = e
		return nil
	})

	event := &models.OrderPaidEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-1", EventType: models.EventTypeOrderPaid, Timestamp: time.Now()},
		OrderID:   42,
		UserID:    7,
		TagID:     "VH-101",
		Kind:      models.OrderKindStickerOrder,
		Amount:    588,
	}

	require.NoError(t, eh.HandleMessage(context.Background(), message(t, event)))
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.OrderID)
	assert.Equal(t, "VH-101", got.TagID)
	assert.Equal(t, int64(588), got.Amount)
}

func TestHandleMessageSkipsUnregistered(t *testing.T) {
	eh := NewEventHandler()

	event := &models.CommissionRecordedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-2", EventType: models.EventTypeCommissionRecorded},
	}
	assert.NoError(t, eh.HandleMessage(context.Background(), message(t, event)))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	eh := NewEventHandler()
	err := eh.HandleMessage(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}
