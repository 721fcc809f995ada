package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/helixbio/drshub/common/core"
	"github.com/helixbio/drshub/common/logger"
	"github.com/helixbio/drshub/common/models"
	"github.com/helixbio/drshub/common/repository"
)

// ObjectHandler serves DRS object lookups
type ObjectHandler struct {
	engine *core.Engine
	log    *logger.Logger
}

// NewObjectHandler creates a new object handler
func NewObjectHandler(engine *core.Engine, log *logger.Logger) *ObjectHandler {
	return &ObjectHandler{
		engine: engine,
		log:    log,
	}
}

// stagingResponse tells clients an object is registered but its bytes are
// still being copied into the outbox. Deliberately not an error body so
// clients can tell it apart from a true 404.
type stagingResponse struct {
	Status     string `json:"status"`
	ExternalID string `json:"external_id"`
}

// GetObject retrieves download metadata for one object.
// GET {api_route}/objects/:object_id
func (h *ObjectHandler) GetObject(c echo.Context) error {
	externalID := c.Param("object_id")

	if err := models.ValidateExternalID(externalID); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid object id")
	}

	descriptor, err := h.engine.Serve(c.Request().Context(), externalID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "object not found")
		case errors.Is(err, core.ErrNotStaged):
			return c.JSON(http.StatusAccepted, stagingResponse{
				Status:     "staging",
				ExternalID: externalID,
			})
		default:
			h.log.Error("serve failed", "external_id", externalID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to serve object")
		}
	}

	return c.JSON(http.StatusOK, descriptor)
}
