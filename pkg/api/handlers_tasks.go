package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) taskStart(c *gin.Context) {
	task, err := h.coord.TaskStart(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) taskProgress(c *gin.Context) {
	var body struct {
		Progress float64 `json:"progress"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.coord.TaskProgress(c.Param("id"), body.Progress)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) taskComplete(c *gin.Context) {
	var body struct {
		ExitCode int `json:"exit_code"`
	}
	_ = c.ShouldBindJSON(&body)
	task, err := h.coord.TaskComplete(c.Param("id"), body.ExitCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) taskFail(c *gin.Context) {
	var body struct {
		ExitCode     int    `json:"exit_code"`
		ErrorMessage string `json:"error_message"`
	}
	_ = c.ShouldBindJSON(&body)
	task, err := h.coord.TaskFail(c.Param("id"), body.ExitCode, body.ErrorMessage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) taskRetry(c *gin.Context) {
	task, err := h.coord.TaskRetry(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) taskCancel(c *gin.Context) {
	task, err := h.coord.TaskCancel(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) taskSuspend(c *gin.Context) {
	task, err := h.coord.TaskSuspend(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *handlers) appendTaskLog(c *gin.Context) {
	chunk, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	worker := c.Query("worker_id")

	if c.Query("mode") == "replace" {
		err = h.coord.ReplaceLog(c.Param("id"), worker, chunk)
	} else {
		err = h.coord.AppendLog(c.Param("id"), worker, chunk)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getTaskLog(c *gin.Context) {
	data, err := h.coord.GetLog(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}
