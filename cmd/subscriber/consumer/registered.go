package consumer

import (
	"context"

	"github.com/helixbio/drshub/common/core"
	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/logger"
	rediscommon "github.com/helixbio/drshub/common/redis"
)

// NewFileRegistered creates the consumer for upstream file-registration
// events. Duplicate registrations fail the message rather than silently
// upserting, so duplicate deliveries stay visible in the pending list.
func NewFileRegistered(redisClient *rediscommon.Client, engine *core.Engine, log *logger.Logger, stream, group string) *Consumer {
	return New(redisClient, log, stream, group, func(ctx context.Context, payload []byte) error {
		event, err := events.DecodeFileRegistered(payload)
		if err != nil {
			return err
		}

		return engine.HandleRegistered(ctx, event)
	})
}
