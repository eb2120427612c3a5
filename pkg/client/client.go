// Package client is a thin HTTP client for the renderq CLI: one method per
// coordinator API endpoint the CLI uses, JSON in, JSON out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

// Client talks to a renderq coordinator over HTTP/JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client against a coordinator listening at addr, e.g.
// "http://127.0.0.1:7710".
func New(addr string) *Client {
	return &Client{
		baseURL: addr,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("client: %s %s: %s: %s", method, path, resp.Status, bytes.TrimSpace(data))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

// SubmitJobRequest is the wire shape the coordinator's /api/v1/jobs
// endpoint expects; it mirrors scheduler.SubmitRequest with JSON tags.
type SubmitJobRequest struct {
	Name        string         `json:"name"`
	Plugin      string         `json:"plugin"`
	Priority    *int           `json:"priority,omitempty"`
	Pool        string         `json:"pool,omitempty"`
	PluginData  map[string]any `json:"plugin_data,omitempty"`
	DependentOn []string       `json:"dependent_on,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
}

// SubmitJob submits a new job for partitioning.
func (c *Client) SubmitJob(ctx context.Context, req SubmitJobRequest) (*types.Job, error) {
	var job types.Job
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobs lists jobs, optionally filtered by status and paginated.
func (c *Client) ListJobs(ctx context.Context, status types.JobStatus, limit, offset int) ([]*types.Job, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/v1/jobs"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var jobs []*types.Job
	if err := c.do(ctx, http.MethodGet, path, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob fetches a single job by id.
func (c *Client) GetJob(ctx context.Context, id string) (*types.Job, error) {
	var job types.Job
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+id, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobTasks lists the tasks belonging to a job.
func (c *Client) GetJobTasks(ctx context.Context, id string) ([]*types.Task, error) {
	var tasks []*types.Task
	if err := c.do(ctx, http.MethodGet, "/api/v1/jobs/"+id+"/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// SuspendJob suspends a queued or active job.
func (c *Client) SuspendJob(ctx context.Context, id string) (*types.Job, error) {
	return c.jobAction(ctx, id, "suspend")
}

// ResumeJob resumes a suspended job.
func (c *Client) ResumeJob(ctx context.Context, id string) (*types.Job, error) {
	return c.jobAction(ctx, id, "resume")
}

// CancelJob cancels a non-terminal job.
func (c *Client) CancelJob(ctx context.Context, id string) (*types.Job, error) {
	return c.jobAction(ctx, id, "cancel")
}

// RetryJob re-queues a failed job's failed tasks.
func (c *Client) RetryJob(ctx context.Context, id string) (*types.Job, error) {
	return c.jobAction(ctx, id, "retry")
}

func (c *Client) jobAction(ctx context.Context, id, action string) (*types.Job, error) {
	var job types.Job
	if err := c.do(ctx, http.MethodPost, "/api/v1/jobs/"+id+"/"+action, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// DeleteJob removes a terminal job and its tasks.
func (c *Client) DeleteJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/jobs/"+id, nil, nil)
}

// ListWorkers lists registered workers.
func (c *Client) ListWorkers(ctx context.Context) ([]*types.Worker, error) {
	var workers []*types.Worker
	if err := c.do(ctx, http.MethodGet, "/api/v1/workers", nil, &workers); err != nil {
		return nil, err
	}
	return workers, nil
}

// ListPlugins lists the plugins registered with the coordinator.
func (c *Client) ListPlugins(ctx context.Context) ([]PluginInfo, error) {
	var infos []PluginInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/plugins", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Stats fetches aggregate coordinator statistics.
func (c *Client) Stats(ctx context.Context) (*types.Stats, error) {
	var stats types.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// PluginInfo mirrors the API surface's wire representation of a plugin.
type PluginInfo struct {
	Name        string           `json:"name"`
	DisplayName string           `json:"display_name"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	Parameters  []map[string]any `json:"parameters"`
}
