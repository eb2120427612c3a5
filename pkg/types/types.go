// Package types defines the Job, Task and Worker entities that make up
// RenderQ's data model, along with their state-machine enums.
package types

import "time"

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobQueued    JobStatus = "queued"
	JobActive    JobStatus = "active"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobSuspended JobStatus = "suspended"
	JobCancelled JobStatus = "cancelled"
)

// TaskStatus is the lifecycle state of a Task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskAssigned  TaskStatus = "assigned"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// WorkerStatus is the lifecycle state of a Worker.
type WorkerStatus string

const (
	WorkerIdle     WorkerStatus = "idle"
	WorkerBusy     WorkerStatus = "busy"
	WorkerOffline  WorkerStatus = "offline"
	WorkerDisabled WorkerStatus = "disabled"
)

// Job is a unit of user-submitted rendering work. It expands into one or
// more Tasks via its plugin's partitioner.
type Job struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Plugin      string         `json:"plugin"`
	Priority    int            `json:"priority"`
	Pool        string         `json:"pool"`
	PluginData  map[string]any `json:"plugin_data"`
	Status      JobStatus      `json:"status"`
	Progress    float64        `json:"progress"`
	TaskTotal   int            `json:"task_total"`
	TaskDone    int            `json:"task_completed"`
	TaskFailed  int            `json:"task_failed"`
	DependentOn []string       `json:"dependent_on"`
	Metadata    map[string]any `json:"metadata"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	Error       string         `json:"error_message,omitempty"`
}

// Task is one executable unit of a Job.
type Task struct {
	ID             string            `json:"id"`
	JobID          string            `json:"job_id"`
	Index          int               `json:"index"`
	Status         TaskStatus        `json:"status"`
	Progress       float64           `json:"progress"`
	Command        []string          `json:"command"`
	WorkingDir     string            `json:"working_dir,omitempty"`
	Environment    map[string]string `json:"environment,omitempty"`
	FrameStart     *int              `json:"frame_start,omitempty"`
	FrameEnd       *int              `json:"frame_end,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	AssignedWorker string            `json:"assigned_worker,omitempty"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	FinishedAt     *time.Time        `json:"finished_at,omitempty"`
	ExitCode       *int              `json:"exit_code,omitempty"`
	Error          string            `json:"error_message,omitempty"`
	LogPath        string            `json:"log_path,omitempty"`
}

// Worker is a registered render agent.
type Worker struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Hostname      string       `json:"hostname"`
	IPAddress     string       `json:"ip_address"`
	Status        WorkerStatus `json:"status"`
	CurrentTask   string       `json:"current_task,omitempty"`
	Pools         []string     `json:"pools"`
	Capabilities  []string     `json:"capabilities"`
	CPUCores      int          `json:"cpu_cores"`
	CPUUsage      float64      `json:"cpu_usage"`
	MemoryTotal   int64        `json:"memory_total"`
	MemoryUsed    int64        `json:"memory_used"`
	LastHeartbeat time.Time    `json:"last_heartbeat"`
	Version       string       `json:"version"`
}

// RegisterRequest is what a Worker supplies to register or re-register.
type RegisterRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Hostname     string   `json:"hostname"`
	IPAddress    string   `json:"ip_address"`
	Pools        []string `json:"pools"`
	Capabilities []string `json:"capabilities"`
	CPUCores     int      `json:"cpu_cores"`
	MemoryTotal  int64    `json:"memory_total"`
	Version      string   `json:"version"`
}

// Heartbeat is what a Worker reports on each heartbeat tick.
type Heartbeat struct {
	Status      WorkerStatus `json:"status"`
	CurrentTask string       `json:"current_task,omitempty"`
	CPUUsage    float64      `json:"cpu_usage"`
	MemoryUsed  int64        `json:"memory_used"`
}

// Stats is the system-wide cardinality summary returned by the stats endpoint.
type Stats struct {
	Jobs    map[JobStatus]int    `json:"jobs"`
	Workers map[WorkerStatus]int `json:"workers"`
}
