package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"qrtag-service/internal/util"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testConsumer(maxAttempts int) *Consumer {
	util.SetLogger(zap.NewNop())
	return &Consumer{logger: util.GetLogger(), maxAttempts: maxAttempts, backoff: time.Millisecond}
}

func TestHandleWithRetryRecoversFromTransientFailure(t *testing.T) {
	c := testConsumer(5)

	calls := 0
	err := c.handleWithRetry(context.Background(), func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("smtp unavailable")
		}
		return nil
	}, kafka.Message{Key: []byte("order-1")})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestHandleWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	c := testConsumer(3)

	calls := 0
	err := c.handleWithRetry(context.Background(), func(context.Context, kafka.Message) error {
		calls++
		return errors.New("still failing")
	}, kafka.Message{})

	assert.EqualError(t, err, "still failing")
	assert.Equal(t, 3, calls)
}

func TestHandleWithRetryStopsOnCancel(t *testing.T) {
	c := testConsumer(10)
	c.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.handleWithRetry(ctx, func(context.Context, kafka.Message) error {
		calls++
		cancel()
		return errors.New("broker gone")
	}, kafka.Message{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
