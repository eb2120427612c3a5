package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the /health liveness response: 200 if the process is
// alive, nothing more.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse is the /ready readiness response: whether the store is
// reachable.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Timestamp: time.Now()})
}

// ready checks that the store responds to a read before declaring the
// coordinator ready to accept traffic.
func (h *handlers) ready(c *gin.Context) {
	checks := make(map[string]string)
	status := http.StatusOK
	ready := "ready"

	if _, err := h.coord.Stats(); err != nil {
		checks["store"] = err.Error()
		status = http.StatusServiceUnavailable
		ready = "not ready"
	} else {
		checks["store"] = "ok"
	}

	c.JSON(status, ReadyResponse{Status: ready, Timestamp: time.Now(), Checks: checks})
}
