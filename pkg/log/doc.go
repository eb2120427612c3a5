/*
Package log wraps zerolog with RenderQ's logging conventions: a global
Logger initialized once via Init, plain-string helpers (Info, Warn, Error,
Debug) for quick one-off messages, and With* helpers that return a
component-scoped child logger for anything that needs structured fields:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	log.WithComponent("scheduler").Info().Str("job_id", job.ID).Msg("reconciled")

WithComponent, WithJobID, WithTaskID and WithWorkerID each return a
zerolog.Logger with one field pre-attached, scoped to this domain's
entities: jobs, tasks and workers.
*/
package log
