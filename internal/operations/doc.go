// Package operations runs an ingestion as a fixed sequence of steps.
//
// A Pipeline executes load params, read, split and persist in order. Each step reads
// what earlier steps left in the run State and stores its own output there. The
// first failing step ends the run and its error is returned unchanged, after being
// logged by the pipeline. A panic inside a step is recovered and reported as an
// Internal error.
//
// Every run carries a run ID in its context, which the logger registry attaches to
// each record. Runs and steps are traced with OpenTelemetry spans, and step outcomes,
// durations and row counts are recorded as metrics when telemetry is configured.
//
// Example usage:
//
//	registry := infrastructure.InitializeLogging(settings.Logging)
//	pipeline := operations.NewIngestionPipeline(config.DefaultParamsPath, registry, telemetry)
//	state, err := pipeline.Run(ctx)
package operations
