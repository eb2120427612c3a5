/*
Package scheduler implements RenderQ's control loop and the job submission
path it shares with the API surface.

# Reconciliation Loop

The loop runs on a short, configurable tick (default 1s):

	┌──────────────────────────────────────┐
	│            Scheduler Loop            │
	│          (every cfg.Interval)        │
	└─────────────────┬─────────────────────┘
	                  │
	                  ▼
	┌──────────────────────────────────────┐
	│ 1. Sweep workers for heartbeat       │
	│    timeout; reset their running task │
	│    to pending, mark worker offline   │
	│ 2. Recompute progress/counts for     │
	│    every active job; transition to   │
	│    completed/failed when all tasks   │
	│    are terminal; create follow-ups   │
	└──────────────────────────────────────┘

Task assignment never happens here. It happens inline inside a worker's
pull-task call, through storage.Store.NextTaskForWorker — so the loop and a
worker pull can never race over who assigns a given task.

# Submission

Submit (in submit.go) is the single path by which a Job is created: look up
the plugin, validate its parameters, persist the Job, partition it into
Tasks via the plugin, persist those, then mark the Job queued. Both the
API's submission handler and the scheduler's own follow-up-job creation
funnel through this one function.
*/
package scheduler
