package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/helixbio/drshub/cmd/drshub/container"
	"github.com/helixbio/drshub/cmd/drshub/handlers"
	"github.com/helixbio/drshub/cmd/drshub/routes"
	"github.com/helixbio/drshub/common/bootstrap"
	"github.com/helixbio/drshub/common/db"
	"github.com/helixbio/drshub/common/repository"
	"github.com/helixbio/drshub/common/server"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, DB, redis, storage)
	components, err := bootstrap.Setup(ctx, "drshub",
		bootstrap.WithDBInitHook(func(database *db.DB) error {
			return repository.ApplySchema(ctx, database)
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap drshub: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer := container.NewContainer(components)

	e := server.NewEcho(components.Config)

	registerTopLevelRoutes(e, components)
	registerAPIRoutes(e, serviceContainer)

	srv := server.New("drshub", e, components.Config, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// registerTopLevelRoutes registers the index and health endpoints
func registerTopLevelRoutes(e *echo.Echo, components *bootstrap.Components) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"content": "Hello World!",
		})
	})

	e.GET("/health", func(c echo.Context) error {
		if err := components.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
		return c.JSON(http.StatusOK, map[string]string{
			"status": "OK",
		})
	})
}

// registerAPIRoutes registers the DRS API under the configured route prefix
func registerAPIRoutes(e *echo.Echo, serviceContainer *container.Container) {
	apiGroup := e.Group(serviceContainer.Components.Config.Service.APIRoute)

	objectHandler := handlers.NewObjectHandler(
		serviceContainer.Engine,
		serviceContainer.Components.Logger,
	)
	routes.RegisterObjectRoutes(apiGroup, objectHandler)
}
