// Package models defines domain entities and persistence interfaces for the listening-history pipeline.
//
// The package contains two categories of types:
//
// 1. Immutable pipeline values: plain structs flowing through the batch stages
//   - [Play] : one listening event, normalized from either input source
//   - [Source] : which input a play came from (historical export or live API)
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [TrackMetadata] : cached per-track metadata (art, genres, release date)
//   - [PipelineRun] : one entry of the run ledger with per-row counters
//
// Persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
