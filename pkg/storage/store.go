// Package storage is RenderQ's durable, transactionally consistent state
// layer: the sole in-process authority for mutating Jobs, Tasks and Workers.
package storage

import (
	"errors"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

// ErrNotFound is returned when a lookup by id finds no record.
var ErrNotFound = errors.New("storage: not found")

// Store defines the persistence interface for RenderQ's three entity
// tables. A single implementation (BoltStore) backs it; the interface exists
// so tests and alternate backends can substitute for it.
type Store interface {
	// Jobs
	CreateJob(job *types.Job) error
	GetJob(id string) (*types.Job, error)
	ListJobs() ([]*types.Job, error)
	ListJobsByStatus(status types.JobStatus) ([]*types.Job, error)
	UpdateJob(job *types.Job) error
	DeleteJob(id string) error

	// Tasks
	CreateTask(task *types.Task) error
	GetTask(id string) (*types.Task, error)
	ListTasks() ([]*types.Task, error)
	ListTasksByJob(jobID string) ([]*types.Task, error)
	UpdateTask(task *types.Task) error
	DeleteTask(id string) error

	// Workers
	CreateWorker(worker *types.Worker) error
	GetWorker(id string) (*types.Worker, error)
	ListWorkers() ([]*types.Worker, error)
	UpdateWorker(worker *types.Worker) error
	DeleteWorker(id string) error

	// NextTaskForWorker is the dispatch primitive: it atomically selects the
	// highest-priority eligible pending Task for worker and transitions
	// Task→assigned, Worker→busy, and (if the owning Job was queued)
	// Job→active, all within a single transaction. Returns (nil, nil) when
	// no eligible Task exists.
	NextTaskForWorker(worker *types.Worker) (*types.Task, error)

	// Stats returns cardinality counts by status for jobs and workers.
	Stats() (*types.Stats, error)

	Close() error
}
