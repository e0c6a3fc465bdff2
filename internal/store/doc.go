// Package store provides SQLite-backed durable storage for simulation traces.
//
// The store is an append-only log with two tables:
//   - runs: one row per recorded simulation (scene name, scene hash, engine version)
//   - field_events: every field firing of a run, in cascade order
//
// # Ordering
//
// All ordering uses seq INTEGER columns (logical clocks), never wall time.
// Runs are ordered by created_seq; events within a run by seq. Queries always
// carry an explicit ORDER BY so repeated reads return identical results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// A Recorder attaches to an engine.Scheduler as an Observer, buffers the
// events of a run and writes them in a single transaction on Flush.
package store
