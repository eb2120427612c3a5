package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/metrics"
)

// events serves a persistent SSE connection: the handler blocks for the
// lifetime of the client's connection, forwarding whatever the
// coordinator's Broadcaster writes to it until the client disconnects.
func (h *handlers) events(c *gin.Context) {
	client, err := h.coord.Broadcaster.AddClient(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.EventStreamClientsTotal.Inc()
	defer func() {
		h.coord.Broadcaster.RemoveClient(client.ID)
		metrics.EventStreamClientsTotal.Dec()
	}()

	select {
	case <-c.Request.Context().Done():
	case <-client.Done:
	}
}
