package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/helixbio/drshub/cmd/subscriber/consumer"
	"github.com/helixbio/drshub/common/bootstrap"
	"github.com/helixbio/drshub/common/core"
	"github.com/helixbio/drshub/common/db"
	"github.com/helixbio/drshub/common/events"
	"github.com/helixbio/drshub/common/repository"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Setup(ctx, "drshub-subscriber",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.ApplySchema(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap subscriber: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	objectStore := repository.NewPostgresObjectStore(components.DB)
	publisher := events.NewPublisher(components.Redis, components.Config.Topics, components.Logger)
	engine := core.NewEngine(objectStore, components.Storage, publisher, components.Config, components.Logger)

	topics := components.Config.Topics
	group := topics.ConsumerGroup

	stagedConsumer := consumer.NewFileStaged(
		components.Redis, engine, components.Logger, topics.FileStaged, group)
	registeredConsumer := consumer.NewFileRegistered(
		components.Redis, engine, components.Logger, topics.FileRegistered, group)

	errs := make(chan error, 2)
	go func() { errs <- stagedConsumer.Start(ctx) }()
	go func() { errs <- registeredConsumer.Start(ctx) }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil {
			components.Logger.Error("consumer error", "error", err)
			os.Exit(1)
		}
	case sig := <-shutdown:
		components.Logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}
}
