/*
Package api implements RenderQ's HTTP API: the primary interface for
submitting clients, worker agents, and the CLI to reach the coordinator.

# Architecture

	┌──────────────────── CLIENT (CLI/Worker) ───────────────────┐
	│                                                              │
	│  ┌──────────────────────────────────────────────┐          │
	│  │         net/http client (JSON)                │          │
	│  └──────────────────┬───────────────────────────┘          │
	└─────────────────────┼────────────────────────────────────┘
	                      │ HTTP (listen_addr)
	                      │
	┌─────────────────────▼──── COORDINATOR PROCESS ─────────────┐
	│                                                              │
	│  ┌──────────────────────────────────────────────┐          │
	│  │          gin Router (pkg/api)                  │          │
	│  │  - job/task/worker/plugin routes               │          │
	│  │  - SSE event stream, Prometheus exposition      │          │
	│  │  - request metrics middleware                  │          │
	│  └──────────────────┬───────────────────────────┘          │
	│                     │                                        │
	│  ┌──────────────────▼───────────────────────────┐          │
	│  │           coordinator.Coordinator              │          │
	│  └────────────────────────────────────────────────┘         │
	└──────────────────────────────────────────────────────────┘

Route handlers never touch storage directly. The job, task, worker and
plugin handlers each call one coordinator.Coordinator method and map its
sentinel errors to an HTTP status code; the health handler calls none, and
the event-stream handler registers with the coordinator's Broadcaster.
*/
package api
