package container

import (
	"github.com/helixbio/drshub/common/bootstrap"
	"github.com/helixbio/drshub/common/core"
	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/repository"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	Components *bootstrap.Components

	// Repositories
	ObjectStore repository.ObjectStore

	// Services
	Publisher *events.Publisher
	Engine    *core.Engine
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) *Container {
	objectStore := repository.NewPostgresObjectStore(components.DB)

	publisher := events.NewPublisher(
		components.Redis,
		components.Config.Topics,
		components.Logger,
	)

	engine := core.NewEngine(
		objectStore,
		components.Storage,
		publisher,
		components.Config,
		components.Logger,
	)

	return &Container{
		Components:  components,
		ObjectStore: objectStore,
		Publisher:   publisher,
		Engine:      engine,
	}
}
