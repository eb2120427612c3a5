/*
Package events is RenderQ's in-process pub/sub bus: best-effort, in-memory,
broadcast to every subscriber with no topic filtering.

A Bus is constructed once at coordinator start and passed by pointer to
every collaborator that publishes or subscribes — there is no package-level
singleton. Publish never blocks the caller; a slow or dead subscriber just
misses events rather than stalling the publisher.

EventType is a closed set covering the Job, Task and Worker lifecycle
(JobSubmitted through WorkerBeat). pkg/eventstream.Broadcaster subscribes
once and fans events out to any number of SSE clients, dropping a client
whose write fails.
*/
package events
