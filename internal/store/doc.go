// Package store provides SQLite-backed run history.
//
// Every completed run is stored as one row in runs plus one row per test in
// outcomes, keyed by (run_id, idx) so outcome order survives the round trip.
// Writes are idempotent: storing the same run twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Each run also stores the digest of its canonical snapshot (report.Digest),
// so two runs with identical results can be recognized without comparing rows.
package store
