// Package buildrun wires the build pipeline for one invocation: it takes the
// single-build lock, generates sources, runs the worker pool, post-processes
// on success, and records the run in the ledger. It also hosts the worker
// side of the pipeline that the hidden worker command runs.
package buildrun
