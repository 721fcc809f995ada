package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/logger"
	rediscommon "github.com/helixbio/drshub/common/redis"
)

// ProcessFunc handles one decoded message payload. A non-nil error leaves
// the message unacknowledged so the broker redelivers it.
type ProcessFunc func(ctx context.Context, payload []byte) error

// Consumer reads one topic through a consumer group and hands each payload
// to its ProcessFunc. Messages are acknowledged only after successful
// processing (at-least-once delivery).
type Consumer struct {
	redis   *rediscommon.Client
	log     *logger.Logger
	stream  string
	group   string
	name    string
	process ProcessFunc
}

// New creates a consumer for one stream. Each consumer instance gets a
// unique name within its group.
func New(redisClient *rediscommon.Client, log *logger.Logger, stream, group string, process ProcessFunc) *Consumer {
	return &Consumer{
		redis:   redisClient,
		log:     log,
		stream:  stream,
		group:   group,
		name:    fmt.Sprintf("%s_%s", stream, uuid.New().String()[:8]),
		process: process,
	}
}

// Start creates the consumer group and processes messages until the context
// is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.redis.CreateStreamGroup(ctx, c.stream, c.group); err != nil {
		return err
	}

	c.log.Info("consumer starting",
		"stream", c.stream,
		"group", c.group,
		"consumer", c.name)

	for {
		select {
		case <-ctx.Done():
			c.log.Info("consumer stopping", "stream", c.stream)
			return nil
		default:
			if _, err := c.poll(ctx); err != nil {
				c.log.Error("failed to poll stream", "stream", c.stream, "error", err)
				time.Sleep(1 * time.Second) // Back off on error
			}
		}
	}
}

// RunN creates the consumer group and processes at most max messages, then
// returns. Used for deterministic testing instead of the run-forever loop.
func (c *Consumer) RunN(ctx context.Context, max int) error {
	if err := c.redis.CreateStreamGroup(ctx, c.stream, c.group); err != nil {
		return err
	}

	processed := 0
	for processed < max {
		n, err := c.poll(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		processed += n
	}

	return nil
}

// poll reads a batch from the stream and processes each message, returning
// the number of messages seen.
func (c *Consumer) poll(ctx context.Context) (int, error) {
	streams, err := c.redis.ReadFromStreamGroup(ctx, c.group, c.name, c.stream, 10, 5*time.Second)
	if err != nil {
		return 0, err
	}

	seen := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			seen++
			if err := c.handleMessage(ctx, message); err != nil {
				// Leave the message pending; redelivery is the broker's job.
				c.log.Error("failed to process message",
					"stream", c.stream,
					"message_id", message.ID,
					"error", err)
				continue
			}

			if err := c.redis.AckStreamMessage(ctx, c.stream, c.group, message.ID); err != nil {
				c.log.Error("failed to ACK message", "message_id", message.ID, "error", err)
			}
		}
	}

	return seen, nil
}

// handleMessage extracts the payload field and hands it to the processor.
func (c *Consumer) handleMessage(ctx context.Context, message redis.XMessage) error {
	payload, ok := message.Values[events.PayloadField].(string)
	if !ok {
		return fmt.Errorf("message %s missing payload field", message.ID)
	}

	return c.process(ctx, []byte(payload))
}
