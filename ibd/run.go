package ibd

// Run executes the full per-chromosome pipeline: it partitions panel into
// overlapping windows, scans each window for PBWT seeds, extends and
// classifies every surviving seed, and writes the result to ibdOut/hbdOut.
// stats, if non-nil, accumulates the process-wide segment counters logged
// at the end of a run; a nil stats is valid for callers (tests) that don't
// need the totals.
//
// Run corresponds to one invocation of cmd/hap-ibd's per-chromosome loop:
// the caller is responsible for opening ibdOut/hbdOut (typically BGZFSink
// wrapping a file from github.com/grailbio/base/file) and for calling
// Finalize on each once every chromosome has been processed.
func Run(cfg Config, panel *GenotypePanel, ibdOut, hbdOut Sink, stats *Stats) error {
	windows := PartitionWindows(panel, cfg.MinSeed, cfg.MinMarkers, cfg.NThreads)
	d := NewDispatcher(panel, cfg, windows, ibdOut, hbdOut, stats)
	return d.Run()
}
