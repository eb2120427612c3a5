/*
Package storage defines the Store interface and its bbolt-backed
implementation: Job, Task and Worker CRUD, one bucket per entity, JSON-
marshaled values, and the atomic dispatcher operation NextTaskForWorker
that assigns a Task to a Worker inside a single db.Update transaction
(ordering the Task assignment, the Worker going busy, and the Job's
queued-to-active transition so no caller ever observes them half-applied).

BoltStore lives at <dataDir>/renderq.db. Store is an interface, not a
concrete type, so pkg/scheduler and pkg/coordinator depend on it rather
than on bbolt directly — tests can substitute any implementation.
*/
package storage
