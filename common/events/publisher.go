package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helixbio/drshub/common/config"
	"github.com/helixbio/drshub/common/logger"
	"github.com/helixbio/drshub/common/models"
	rediscommon "github.com/helixbio/drshub/common/redis"
)

// Publisher emits outbound events onto the configured Redis streams.
type Publisher struct {
	redis  *rediscommon.Client
	topics config.TopicConfig
	log    *logger.Logger
}

// NewPublisher creates an event publisher.
func NewPublisher(redisClient *rediscommon.Client, topics config.TopicConfig, log *logger.Logger) *Publisher {
	return &Publisher{
		redis:  redisClient,
		topics: topics,
		log:    log,
	}
}

// PublishStageRequest emits a stage_request event asking the staging worker
// to copy the object into the outbox bucket.
func (p *Publisher) PublishStageRequest(ctx context.Context, record *models.ObjectRecord) error {
	event := StageRequestEvent{
		RequestID:  uuid.New().String(),
		ExternalID: record.ExternalID,
		Timestamp:  time.Now().UTC(),
	}

	if err := p.publish(ctx, p.topics.StageRequest, event); err != nil {
		return err
	}

	p.log.Info("stage request published",
		"external_id", record.ExternalID,
		"request_id", event.RequestID)
	return nil
}

// PublishObjectRegistered announces that metadata for an object is now
// registered and servable to downstream subscribers.
func (p *Publisher) PublishObjectRegistered(ctx context.Context, record *models.ObjectRecord) error {
	event := ObjectRegisteredEvent{
		ExternalID:  record.ExternalID,
		MD5Checksum: record.MD5Checksum,
		Size:        record.Size,
		Timestamp:   record.RegistrationDate,
	}

	if err := p.publish(ctx, p.topics.ObjectRegistered, event); err != nil {
		return err
	}

	p.log.Info("object registered event published", "external_id", record.ExternalID)
	return nil
}

func (p *Publisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for topic %s: %w", topic, err)
	}

	_, err = p.redis.AddToStream(ctx, topic, map[string]interface{}{
		PayloadField: string(payload),
	})
	if err != nil {
		return fmt.Errorf("publish to topic %s: %w", topic, err)
	}

	return nil
}
