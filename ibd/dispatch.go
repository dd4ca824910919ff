package ibd

import (
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/errors"
)

// Dispatcher runs one chromosome's windows across a worker pool, routing
// each window's seeds through extension and into the IBD/HBD sinks.
// Workers start as producers, scanning their own
// window; once at least one worker finishes producing, every worker treats
// the shared SeedQueue as a consumer as well, so a slow window's backlog of
// seeds can be extended by whichever worker goes idle first.
type Dispatcher struct {
	panel    *GenotypePanel
	cfg      Config
	windows  []Window
	queue    *SeedQueue
	extender *SeedExtender
	ibdSink  Sink
	hbdSink  Sink
	stats    *Stats

	finishedCount int64
}

// seedQCapacity is the bounded queue's capacity, in batches: generous
// enough that a handful of slow windows can back up without every Offer
// falling back to local processing, but small enough to bound the memory
// held in queued batches.
const seedQCapacity = 64

// NewDispatcher builds a Dispatcher for one chromosome's windows.
func NewDispatcher(panel *GenotypePanel, cfg Config, windows []Window, ibdSink, hbdSink Sink, stats *Stats) *Dispatcher {
	return &Dispatcher{
		panel:    panel,
		cfg:      cfg,
		windows:  windows,
		queue:    NewSeedQueue(seedQCapacity),
		extender: NewSeedExtender(panel, cfg),
		ibdSink:  ibdSink,
		hbdSink:  hbdSink,
		stats:    stats,
	}
}

// Run scans every window concurrently, one goroutine per window, and
// blocks until all windows have been scanned and every seed they produced
// (whether processed locally or handed to the shared queue) has been
// extended and written. The first error or panic reported by any worker is
// returned; the rest are discarded.
func (d *Dispatcher) Run() error {
	n := len(d.windows)
	errOnce := errors.Once{}
	var wg sync.WaitGroup

	ibdBufs := make([]*segmentBuffer, n)
	hbdBufs := make([]*segmentBuffer, n)
	for i := range d.windows {
		ibdBufs[i] = newSegmentBuffer(d.ibdSink)
		hbdBufs[i] = newSegmentBuffer(d.hbdSink)
	}

	for wi, win := range d.windows {
		wg.Add(1)
		go func(wi int, win Window) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errOnce.Set(workerFailuref("worker %d on window [%d,%d): %v", wi, win.Start, win.End, r))
				}
			}()
			if err := d.runWorker(win, ibdBufs[wi], hbdBufs[wi]); err != nil {
				errOnce.Set(err)
			}
		}(wi, win)
	}
	wg.Wait()

	for i := range d.windows {
		if err := ibdBufs[i].flush(); err != nil {
			errOnce.Set(IOErrorf(err, "ibd"))
		}
		if err := hbdBufs[i].flush(); err != nil {
			errOnce.Set(IOErrorf(err, "hbd"))
		}
	}
	return errOnce.Err()
}

// runWorker scans win as a producer, then drains the shared queue as a
// consumer until every window has finished producing and the queue is
// empty.
func (d *Dispatcher) runWorker(win Window, ibdBuf, hbdBuf *segmentBuffer) error {
	detector := NewSeedDetector(d.panel, d.cfg, win)
	useSeedQ := false
	var flushErr error

	flush := func(batch []Seed) {
		if flushErr != nil {
			return
		}
		if useSeedQ && d.queue.Offer(batch) {
			return
		}
		flushErr = d.processBatch(batch, ibdBuf, hbdBuf)
	}
	tick := func() {
		if !useSeedQ && atomic.LoadInt64(&d.finishedCount) > 0 {
			useSeedQ = true
		}
	}

	detector.Scan(win, flush, tick)
	atomic.AddInt64(&d.finishedCount, 1)
	if flushErr != nil {
		return flushErr
	}

	nWorkers := int64(len(d.windows))
	for {
		batch, ok := d.queue.Poll()
		if ok {
			if err := d.processBatch(batch, ibdBuf, hbdBuf); err != nil {
				return err
			}
			continue
		}
		if atomic.LoadInt64(&d.finishedCount) >= nWorkers {
			return nil
		}
	}
}

// processBatch extends every seed in batch and writes the survivors to the
// HBD sink (same sample) or the IBD sink (different samples).
func (d *Dispatcher) processBatch(batch []Seed, ibdBuf, hbdBuf *segmentBuffer) error {
	for _, seed := range batch {
		seg, ok := d.extender.Extend(seed)
		if !ok {
			continue
		}
		norm, hbd := normalizeSegment(seg)
		if hbd {
			if err := hbdBuf.writeSegment(d.panel, norm); err != nil {
				return IOErrorf(err, "hbd")
			}
			if d.stats != nil {
				d.stats.AddHBD(1)
			}
		} else {
			if err := ibdBuf.writeSegment(d.panel, norm); err != nil {
				return IOErrorf(err, "ibd")
			}
			if d.stats != nil {
				d.stats.AddIBD(1)
			}
		}
	}
	return nil
}
