package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/coordinator"
)

// respondError maps a coordinator sentinel error to an HTTP status and
// writes a JSON error body.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, coordinator.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, coordinator.ErrIllegalTransition),
		errors.Is(err, coordinator.ErrValidationFailed),
		errors.Is(err, coordinator.ErrUnknownPlugin),
		errors.Is(err, coordinator.ErrWorkerNotIdle),
		errors.Is(err, coordinator.ErrWorkerInUse):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
