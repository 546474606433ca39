// Package pool coordinates a fixed pool of worker processes over a catalog of
// work units.
//
// The Coordinator spawns every worker up front, waits for each to announce
// itself, then hands out units one at a time in catalog order as workers
// become idle. A single goroutine owns the cursor, the per-worker handles,
// and the outcome latch; one forwarding goroutine per worker feeds it
// reports. The first unit failure, protocol violation, unexpected worker
// exit, unit timeout, or context cancellation fails the whole run. Either
// way every worker is told to terminate exactly once before Run returns, and
// teardown never waits for the processes to exit.
//
// ProcessSpawner re-executes the current binary in worker mode and speaks
// the protocol package's line-delimited JSON over the child's stdin and
// stdout. Tests substitute in-memory connections through the Spawner and
// Conn interfaces.
package pool
