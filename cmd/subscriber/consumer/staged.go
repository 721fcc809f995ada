package consumer

import (
	"context"

	"github.com/helixbio/drshub/common/core"
	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/logger"
	rediscommon "github.com/helixbio/drshub/common/redis"
)

// NewFileStaged creates the consumer for staging-completion events. Each
// message is schema-validated and handed to the reconciliation engine; a
// completion claim contradicted by storage surfaces as a processing error
// and the message stays unacknowledged.
func NewFileStaged(redisClient *rediscommon.Client, engine *core.Engine, log *logger.Logger, stream, group string) *Consumer {
	return New(redisClient, log, stream, group, func(ctx context.Context, payload []byte) error {
		event, err := events.DecodeFileStaged(payload)
		if err != nil {
			return err
		}

		return engine.HandleStaged(ctx, event)
	})
}
