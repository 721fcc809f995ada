package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixbio/drshub/common/config"
	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/logger"
	"github.com/helixbio/drshub/common/models"
	"github.com/helixbio/drshub/common/repository"
	"github.com/helixbio/drshub/common/storage"
)

// ErrNotStaged signals that an object is registered but its bytes are not
// yet in the outbox bucket. Distinct from repository.ErrNotFound: the API
// layer maps it to a "staging in progress" response, not a 404.
var ErrNotStaged = errors.New("object registered but not staged")

// EventPublisher is the outbound event surface the engine needs.
type EventPublisher interface {
	PublishStageRequest(ctx context.Context, record *models.ObjectRecord) error
	PublishObjectRegistered(ctx context.Context, record *models.ObjectRecord) error
}

// Engine reconciles the metadata store, the object storage backend and the
// event channel into one view of "is this object ready to serve". It holds
// no persistent state; the serve decision is recomputed from the two leaf
// stores on every call.
type Engine struct {
	store     repository.ObjectStore
	storage   storage.ObjectStorage
	publisher EventPublisher
	cfg       *config.Config
	log       *logger.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(
	store repository.ObjectStore,
	objectStorage storage.ObjectStorage,
	publisher EventPublisher,
	cfg *config.Config,
	log *logger.Logger,
) *Engine {
	return &Engine{
		store:     store,
		storage:   objectStorage,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Serve returns the access descriptor for an object if its bytes are in the
// outbox bucket. If the object is registered but not staged, it emits one
// stage request and returns ErrNotStaged; repeated calls re-evaluate the
// leaf stores and are safe to race.
func (e *Engine) Serve(ctx context.Context, externalID string) (*models.DrsObject, error) {
	record, err := e.store.Get(ctx, externalID)
	if err != nil {
		return nil, err
	}

	outbox := e.cfg.Storage.OutboxBucket

	staged, err := e.storage.Exists(ctx, outbox, externalID)
	if err != nil {
		return nil, err
	}

	if staged {
		url, err := e.storage.PresignedDownloadURL(ctx, outbox, externalID, e.cfg.Storage.PresignTTL)
		if err != nil {
			return nil, err
		}

		descriptor, err := BuildDescriptor(record, url, e.cfg.Service.DRSSelfURL)
		if err != nil {
			return nil, err
		}

		e.log.Info("serving staged object", "external_id", externalID)
		return descriptor, nil
	}

	if err := e.publisher.PublishStageRequest(ctx, record); err != nil {
		return nil, fmt.Errorf("request staging for %s: %w", externalID, err)
	}

	e.log.Info("object not staged, staging requested", "external_id", externalID)
	return nil, fmt.Errorf("%w: %s", ErrNotStaged, externalID)
}

// HandleStaged reconciles metadata with storage state after a staging
// completion event. A record missing from the store is a hard
// inconsistency; a blob missing from the outbox contradicts the event's
// claim and is surfaced as storage.ErrObjectNotFound, leaving the stored
// checksum unchanged.
func (e *Engine) HandleStaged(ctx context.Context, event *events.FileStagedEvent) error {
	if _, err := e.store.Get(ctx, event.ExternalID); err != nil {
		return err
	}

	outbox := e.cfg.Storage.OutboxBucket

	staged, err := e.storage.Exists(ctx, outbox, event.ExternalID)
	if err != nil {
		return err
	}
	if !staged {
		return fmt.Errorf("%w: %s/%s claimed staged", storage.ErrObjectNotFound, outbox, event.ExternalID)
	}

	// Reconcile any checksum drift reported by the staging worker.
	if err := e.store.UpdateChecksum(ctx, event.ExternalID, event.MD5Checksum); err != nil {
		return err
	}

	e.log.Info("staged object reconciled", "external_id", event.ExternalID)
	return nil
}

// HandleRegistered registers a newly available upstream file and announces
// the registration. A duplicate registration fails with
// repository.ErrAlreadyExists so duplicate deliveries stay visible instead
// of being silently dropped.
func (e *Engine) HandleRegistered(ctx context.Context, event *events.FileRegisteredEvent) error {
	if err := models.ValidateExternalID(event.ExternalID); err != nil {
		return err
	}

	record := &models.ObjectRecord{
		ExternalID:  event.ExternalID,
		MD5Checksum: event.MD5Checksum,
		Size:        event.Size,
	}

	if err := e.store.Register(ctx, record); err != nil {
		return err
	}

	if err := e.publisher.PublishObjectRegistered(ctx, record); err != nil {
		return fmt.Errorf("announce registration of %s: %w", event.ExternalID, err)
	}

	e.log.Info("object registered", "external_id", event.ExternalID, "size", event.Size)
	return nil
}
