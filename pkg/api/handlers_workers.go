package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

func (h *handlers) registerWorker(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	worker, err := h.coord.RegisterWorker(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, worker)
}

func (h *handlers) workerHeartbeat(c *gin.Context) {
	var hb types.Heartbeat
	if err := c.ShouldBindJSON(&hb); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.coord.Heartbeat(c.Param("id"), hb); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// pullTask returns 204 (no task available) rather than 404 when the
// dispatcher has nothing eligible — the worker, not the id, is "not found"
// in that case, and 404 is reserved for an unknown worker id.
func (h *handlers) pullTask(c *gin.Context) {
	task, err := h.coord.PullTask(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if task == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) listWorkers(c *gin.Context) {
	workers, err := h.coord.ListWorkers()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workers)
}

func (h *handlers) getWorker(c *gin.Context) {
	worker, err := h.coord.GetWorker(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, worker)
}

func (h *handlers) enableWorker(c *gin.Context) {
	worker, err := h.coord.EnableWorker(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, worker)
}

func (h *handlers) disableWorker(c *gin.Context) {
	worker, err := h.coord.DisableWorker(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, worker)
}

func (h *handlers) deleteWorker(c *gin.Context) {
	if err := h.coord.DeleteWorker(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
