/*
Package types defines the Job, Task and Worker entities that make up
RenderQ's data model, along with their state-machine enums.

A Job is user-submitted rendering work (e.g. "encode these frames to
mp4"). A plugin partitions it into one or more Tasks, each an independently
dispatchable unit of work. A Worker is a registered render agent that pulls
Tasks and reports progress back.

# State machines

Job: pending -> queued -> active -> completed | failed, with suspended
reachable from queued or active and cancelled reachable from any
non-terminal state.

Task: pending -> assigned -> running -> completed | failed. Suspend and
retry both return a Task to pending.

Worker: idle <-> busy, plus offline (heartbeat timeout) and disabled
(operator-initiated).

All three are plain structs with JSON tags; persistence (pkg/storage) and
wire encoding (pkg/api) both marshal them directly rather than through a
separate DTO layer.
*/
package types
