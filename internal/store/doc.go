// Package store provides SQLite-backed durable storage for solve traces.
//
// The store is an append-only log with:
//   - Sessions: one row per solved problem, with its final status
//   - Bound events: the trace events of a session, stamped by the engine clock
//   - Fixations: the variables a session committed, in fixation order
//
// # Patterns
//
// Idempotent writes
//   - Every row has a content-addressed ID (internal/ir/hash.go)
//   - Inserts use ON CONFLICT DO NOTHING, so recording a session twice is a no-op
//
// Logical time
//   - All ordering uses seq INTEGER (logical clock), never timestamps
//   - Queries include ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
