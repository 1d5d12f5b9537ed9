// Package tasks orchestrates the listening-history pipeline with real-time progress reporting.
//
// # Core Operation
//
// The [Engine] interface defines the single pipeline operation:
//
//  1. [Engine.Run] : Full reconciliation run
//     - Reads and normalizes the historical streaming export
//     - Fetches recently-played events from Spotify (non-fatal when unavailable)
//     - Merges both sources into one deduplicated, time-ordered event log
//     - Enriches distinct tracks with cached or freshly fetched metadata
//     - Aggregates the log into the fixed summary table set
//     - Writes the combined log and every summary table atomically
//
// # Progress Reporting
//
// All phases emit [ProgressUpdate] values over a non-blocking channel.
// Updates use select with default so reporting never stalls the pipeline.
//
// # Failure Policy
//
// Per-record failures are absorbed and tallied: malformed rows are skipped
// and counted, tracks whose metadata lookup fails are marked incomplete and
// kept in aggregation. Only conditions that make the run meaningless, such as
// an unreadable export file or cancellation, abort the run; aborted runs
// commit no output files.
//
// # Implementation
//
// [PipelineEngine] implements [Engine] with dependencies on:
//   - [services.Service] : Spotify API client for live plays and metadata
//   - [MetadataCache] : Persistent track metadata cache (repositories.MetadataCacheAdapter)
//   - [RunRecorder] : Optional run ledger (repositories.RunRepository)
package tasks
