// Package worker contains the bounded-concurrency dispatch machinery: a
// FIFO queue of pending jobs, a fixed-size pool of workers that claim and
// render them, and a monitor that fails jobs orphaned in the generating
// state.
package worker
