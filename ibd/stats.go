package ibd

import "sync/atomic"

// Stats holds the process-wide segment counters. Their value is
// diagnostic only; it is not part of the output contract.
type Stats struct {
	nHbdSegs int64
	nIbdSegs int64
}

// AddHBD atomically increments the HBD segment counter by n.
func (s *Stats) AddHBD(n int64) { atomic.AddInt64(&s.nHbdSegs, n) }

// AddIBD atomically increments the IBD segment counter by n.
func (s *Stats) AddIBD(n int64) { atomic.AddInt64(&s.nIbdSegs, n) }

// HBDCount returns the current HBD segment count.
func (s *Stats) HBDCount() int64 { return atomic.LoadInt64(&s.nHbdSegs) }

// IBDCount returns the current IBD segment count.
func (s *Stats) IBDCount() int64 { return atomic.LoadInt64(&s.nIbdSegs) }
