package ibd

import "time"

// SeedQueue is the bounded queue of seed batches that coordinates producers
// and consumers across a chromosome's worker pool. A batch is handed off
// by value: once Offer returns true, the producer must not reuse the slice
// it passed in.
type SeedQueue struct {
	ch chan []Seed
}

// NewSeedQueue creates a queue holding up to capacity batches.
func NewSeedQueue(capacity int) *SeedQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &SeedQueue{ch: make(chan []Seed, capacity)}
}

// Offer attempts a non-blocking enqueue. It returns false if the queue is
// full; the caller then processes the batch locally instead of waiting.
func (q *SeedQueue) Offer(batch []Seed) bool {
	select {
	case q.ch <- batch:
		return true
	default:
		return false
	}
}

// pollTimeout bounds how long Poll waits for a batch before giving the
// caller a chance to recheck the shared finished count.
const pollTimeout = 50 * time.Millisecond

// Poll blocks for up to pollTimeout waiting for a batch. ok is false on
// timeout, not on any error: SeedQueue never closes its channel, since
// producers keep offering to it until they themselves finish scanning.
func (q *SeedQueue) Poll() (batch []Seed, ok bool) {
	select {
	case batch = <-q.ch:
		return batch, true
	case <-time.After(pollTimeout):
		return nil, false
	}
}
