package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qrtag-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Producer{writer: writer, logger: util.GetLogger()}
}

// PublishEvent publishes an event keyed by key; events sharing a key keep their order
func (p *Producer) PublishEvent(ctx context.Context, key string, event interface{}) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: eventBytes,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	p.logger.Debug("Published event", zap.String("key", key), zap.String("type", fmt.Sprintf("%T", event)))
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer represents a Kafka consumer
type Consumer struct {
	reader      *kafka.Reader
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return &Consumer{
		reader:      reader,
		logger:      util.GetLogger(),
		maxAttempts: 5,
		backoff:     time.Second,
	}
}

// Close closes the consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// MessageHandler is a function type for handling messages
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// StartConsuming consumes messages until ctx is cancelled. A failing message is
// retried in place with backoff, so nothing behind it is fetched meanwhile. After
// maxAttempts it is logged at Error and committed.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	cfg := c.reader.Config()
	c.logger.Info("Starting Kafka consumer", zap.String("topic", cfg.Topic), zap.String("group", cfg.GroupID))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Consumer context cancelled, stopping", zap.String("group", cfg.GroupID))
				return ctx.Err()
			}
			c.logger.Warn("Error fetching message", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := c.handleWithRetry(ctx, handler, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Giving up on message",
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempts", c.maxAttempts),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("Error committing message", zap.Error(err))
		}
	}
}

// handleWithRetry runs handler until it succeeds, maxAttempts is reached or ctx
// ends. The wait doubles after every failure.
func (c *Consumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg kafka.Message) error {
	wait := c.backoff
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("Error handling message, retrying",
			zap.String("key", string(msg.Key)),
			zap.Int64("offset", msg.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	return err
}
